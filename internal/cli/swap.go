package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/swap/orchestrator"
)

var swapCmd = &cobra.Command{
	Use:   "swap [from] [to] [amount]",
	Short: "Execute a swap from the configured account and wait for its receipt",
	Args:  cobra.ExactArgs(3),
	Run:   runSwap,
}

func init() {
	addSwapFlags(swapCmd)
	rootCmd.AddCommand(swapCmd)
}

func runSwap(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := newApp(ctx, cfg)
	defer app.Close()

	req, err := app.NewRequest(requestParams(args))
	if err != nil {
		slog.Error("Invalid request", "error", err)
		os.Exit(1)
	}

	out, err := app.Execute(ctx, req)
	if out != nil && out.Preview != nil {
		printPreview(os.Stdout, out.Preview)
	}
	if out != nil {
		printOutcome(os.Stdout, out)
	}
	if err != nil {
		var se *domain.SwapError
		if errors.As(err, &se) {
			slog.Error("Swap failed",
				"kind", se.Kind,
				"retry_safe", se.Kind.RetrySafe(),
				"tx", se.TxHash,
				"error", err,
			)
		} else {
			slog.Error("Swap failed", "error", err)
		}
		os.Exit(1)
	}
}

func printOutcome(w io.Writer, out *orchestrator.Outcome) {
	_, _ = fmt.Fprintf(w, "\nSTATE  %s\n", out.State)
	for _, t := range out.Transitions {
		if t.Reason != "" {
			_, _ = fmt.Fprintf(w, "  %s -> %s (%s)\n", t.From, t.To, t.Reason)
		} else {
			_, _ = fmt.Fprintf(w, "  %s -> %s\n", t.From, t.To)
		}
	}
	if out.Approval != nil {
		_, _ = fmt.Fprintf(w, "APPROVAL  %s  %s\n", out.Approval.TxHash, out.Approval.Status)
	}
	if out.Submission != nil {
		_, _ = fmt.Fprintf(w, "SWAP      %s  %s\n", out.Submission.TxHash, out.Submission.Status)
	}
	if out.Receipt != nil {
		_, _ = fmt.Fprintf(w, "BLOCK     %d  gas used %d\n", out.Receipt.BlockNumber, out.Receipt.GasUsed)
	}
}
