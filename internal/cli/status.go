package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hawkly/errwatch/internal/core/config"
	"github.com/hawkly/errwatch/internal/infra/archive"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recently archived error reports",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of recent reports to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("No archive database configured")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := archive.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to archive database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := archive.NewReportRepo(db)

	counts, err := repo.CountByCategory(ctx)
	if err != nil {
		slog.Error("Failed to count reports", "error", err)
		os.Exit(1)
	}

	fmt.Println("Errors by category:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CATEGORY\tCOUNT")
	for category, count := range counts {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", category, count)
	}
	_ = w.Flush()

	recent, err := repo.Recent(ctx, statusLimit)
	if err != nil {
		slog.Error("Failed to query recent reports", "error", err)
		os.Exit(1)
	}

	fmt.Println("\nRecent reports:")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "OCCURRED\tCATEGORY\tCOMPONENT\tMESSAGE")
	for _, r := range recent {
		msg := r.Message
		if len(msg) > 60 {
			msg = msg[:57] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.OccurredAt.Format("2006-01-02 15:04:05"), r.Category, r.Component, msg)
	}
	_ = w.Flush()
}
