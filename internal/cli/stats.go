package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate/internal/report"
)

func newStatsCmd() *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), recent)
		},
	}

	cmd.Flags().IntVar(&recent, "recent", report.DefaultRecentListings, "number of recent listings to show")

	return cmd
}

func runStats(ctx context.Context, recent int) error {
	b, err := openBackend(ctx, recent)
	if err != nil {
		return err
	}
	defer b.Close()

	snap, err := b.Stats(ctx)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(snap)
	}
	printStats(snap)
	return nil
}
