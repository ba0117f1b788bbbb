package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a listing (admin)",
		Long:  "Remove a listing from the catalog. Bookings that pointed at it stay and show an unknown listing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), args[0])
		},
	}
}

func runRemove(ctx context.Context, id string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	actor, err := a.actor(ctx)
	if err != nil {
		return err
	}

	if err := a.listings.Delete(ctx, actor, id); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"id": id, "removed": true})
	}

	fmt.Printf("Removed listing %s\n", id)
	return nil
}
