package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Look up receipts for pending submissions and record the ones that landed",
	Run:   runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx := context.Background()
	app := newApp(ctx, cfg)
	defer app.Close()

	resolved, err := app.Reconcile(ctx)
	if err != nil {
		slog.Error("Failed to reconcile submissions", "error", err)
		os.Exit(1)
	}

	for _, s := range resolved {
		fmt.Printf("%s  %s  %s  block %d\n", s.ID, s.TxHash, s.Status, s.BlockNumber)
	}
	fmt.Printf("Reconciled %d submissions\n", len(resolved))
}
