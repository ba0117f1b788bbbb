package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show listing details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), args[0])
		},
	}
}

func runShow(ctx context.Context, id string) error {
	b, err := openBackend(ctx, 0)
	if err != nil {
		return err
	}
	defer b.Close()

	l, err := b.GetListing(ctx, id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(l)
	}
	printListingSummary(l)
	return nil
}
