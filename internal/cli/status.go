package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate/internal/apperr"
	"github.com/evcraddock/estate/internal/listing"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <Available|Unavailable>",
		Short: "Set a listing's availability (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), args[0], listing.Status(args[1]))
		},
	}
}

func runStatus(ctx context.Context, id string, status listing.Status) error {
	if !status.IsValid() {
		return apperr.Invalid("status", "must be %s or %s, got %q", listing.StatusAvailable, listing.StatusUnavailable, status)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	actor, err := a.actor(ctx)
	if err != nil {
		return err
	}

	if err := a.listings.SetStatus(ctx, actor, id, status); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"id": id, "status": status})
	}

	fmt.Printf("Listing %s is now %s\n", id, status)
	return nil
}
