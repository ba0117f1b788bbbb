package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate/internal/listing"
)

func newAddCmd() *cobra.Command {
	var l listing.Listing
	var category, listType string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a listing (admin)",
		Long: `Add a listing to the catalog. Requires acting as an admin.

Example:
  estate add "Sea View Villa" --price 2400000 --location "Malibu, CA" --category Villa --beds 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l.Title = args[0]
			l.Category = listing.Category(category)
			l.Type = listing.Type(listType)
			return runAdd(cmd.Context(), &l)
		},
	}

	cmd.Flags().Int64Var(&l.Price, "price", 0, "price in whole dollars")
	cmd.Flags().StringVar(&l.Location, "location", "", "location")
	cmd.Flags().StringVar(&l.Description, "description", "", "description")
	cmd.Flags().StringVar(&category, "category", string(listing.CategoryHouse), "category (Luxury|Apartment|House|Villa)")
	cmd.Flags().StringVar(&listType, "type", string(listing.TypeSale), "listing type (sale|rent)")
	cmd.Flags().StringSliceVar(&l.Images, "image", nil, "image URL (repeatable)")
	cmd.Flags().IntVar(&l.Features.Bedrooms, "beds", 0, "bedrooms")
	cmd.Flags().IntVar(&l.Features.Bathrooms, "baths", 0, "bathrooms")
	cmd.Flags().IntVar(&l.Features.Area, "area", 0, "area in square feet")
	cmd.Flags().BoolVar(&l.Features.Parking, "parking", false, "has parking")
	cmd.Flags().BoolVar(&l.Features.Furnished, "furnished", false, "is furnished")
	cmd.Flags().StringVar(&l.Agent.Name, "agent", "", "agent name")
	cmd.Flags().StringVar(&l.Agent.Email, "agent-email", "", "agent email")
	cmd.Flags().StringVar(&l.Agent.Phone, "agent-phone", "", "agent phone")

	return cmd
}

func runAdd(ctx context.Context, l *listing.Listing) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	actor, err := a.actor(ctx)
	if err != nil {
		return err
	}

	created, err := a.listings.Create(ctx, actor, l)
	if err != nil {
		return fmt.Errorf("adding listing: %w", err)
	}

	if isJSON() {
		return printJSON(created)
	}

	fmt.Println("Listing added.")
	printListingSummary(created)
	return nil
}
