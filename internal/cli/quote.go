package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/modswap/internal/control"
	"github.com/vietddude/modswap/internal/swap/oracle"
	"github.com/vietddude/modswap/internal/swap/orchestrator"
)

var (
	paymasterFlag string
	slippageFlag  uint32
	recipientFlag string
)

var quoteCmd = &cobra.Command{
	Use:   "quote [from] [to] [amount]",
	Short: "Quote a swap and show the limit, sponsorship and allowance checks",
	Args:  cobra.ExactArgs(3),
	Run:   runQuote,
}

func init() {
	addSwapFlags(quoteCmd)
	rootCmd.AddCommand(quoteCmd)
}

func addSwapFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&paymasterFlag, "paymaster", "", "paymaster mode: none, general, approval_based (default from config)")
	cmd.Flags().Uint32Var(&slippageFlag, "slippage", 0, "slippage in basis points (default from config)")
	cmd.Flags().StringVar(&recipientFlag, "recipient", "", "output recipient for plain accounts (default is the account)")
}

func requestParams(args []string) control.RequestParams {
	return control.RequestParams{
		From:          args[0],
		To:            args[1],
		Amount:        args[2],
		PaymasterMode: paymasterFlag,
		SlippageBps:   slippageFlag,
		Recipient:     recipientFlag,
	}
}

func runQuote(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	app := newApp(ctx, cfg)
	defer app.Close()

	req, err := app.NewRequest(requestParams(args))
	if err != nil {
		slog.Error("Invalid request", "error", err)
		os.Exit(1)
	}

	p, err := app.Preview(ctx, req)
	if err != nil {
		slog.Error("Failed to quote swap", "error", err)
		os.Exit(1)
	}
	printPreview(os.Stdout, p)
}

func printPreview(out io.Writer, p *orchestrator.Preview) {
	req := p.Request
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	_, _ = fmt.Fprintf(w, "ACCOUNT\t%s (%s)\n", req.Account.Hex(), req.AccountKind)
	_, _ = fmt.Fprintf(w, "PATH\t%s\n", p.Path)
	_, _ = fmt.Fprintf(w, "AMOUNT IN\t%s %s\n", orchestrator.FormatAmount(req.AmountRaw, req.Input.Decimals), req.Input)
	_, _ = fmt.Fprintf(w, "AMOUNT OUT\t%s %s\n", orchestrator.FormatAmount(p.AmountOut, req.Output.Decimals), req.Output)
	_, _ = fmt.Fprintf(w, "RATE\t%s\n", p.Rate())
	if p.Balance != nil {
		_, _ = fmt.Fprintf(w, "BALANCE\t%s %s\n", orchestrator.FormatAmount(p.Balance, req.Input.Decimals), req.Input)
	}

	if l := p.Limit; l != nil {
		_, _ = fmt.Fprintf(w, "TRADE VALUE\t%s\n", oracle.FormatUSD(l.USDValue))
		_, _ = fmt.Fprintf(w, "MAX TRADE\t%s\n", oracle.FormatUSD(l.MaxTradeUSD))
		if l.DailyLimitEnabled {
			_, _ = fmt.Fprintf(w, "DAILY AVAILABLE\t%s of %s\n", oracle.FormatUSD(l.EffectiveAvailable), oracle.FormatUSD(l.DailyLimit))
			_, _ = fmt.Fprintf(w, "DAILY AFTER SWAP\t%s\n", oracle.FormatUSD(l.EstimatedRemaining))
		}
	}

	_, _ = fmt.Fprintf(w, "PAYMASTER\t%s\n", p.PaymasterMode)
	_, _ = fmt.Fprintf(w, "ALLOWANCE\t%s\n", allowanceLabel(p.AllowanceSufficient))

	if p.Blocked() {
		reasons := make([]string, len(p.Reasons))
		for i, r := range p.Reasons {
			reasons[i] = string(r)
		}
		_, _ = fmt.Fprintf(w, "BLOCKED\t%s\n", strings.Join(reasons, ", "))
	}
	for _, warning := range p.Warnings {
		_, _ = fmt.Fprintf(w, "WARNING\t%s\n", warning)
	}
	_ = w.Flush()
}

func allowanceLabel(ok bool) string {
	if ok {
		return "sufficient"
	}
	return "approval required"
}
