package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/modswap/internal/infra/storage/postgres"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest journaled submissions of the configured account",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of submissions to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	subs, err := postgres.NewSubmissionRepo(db).ListByAccount(ctx, cfg.Account.Address, statusLimit)
	if err != nil {
		slog.Error("Failed to list submissions", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CREATED\tKIND\tNONCE\tSTATUS\tPAYMASTER\tBLOCK\tTX")
	for _, s := range subs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%d\t%s\n",
			s.CreatedAt.Format("2006-01-02 15:04:05"),
			s.Kind,
			s.Nonce,
			s.Status,
			s.PaymasterMode,
			s.BlockNumber,
			s.TxHash,
		)
	}
	_ = w.Flush()
}
