package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate/internal/seed"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load users and listings from a YAML file",
		Long: `Load a YAML catalog of users and listings into the database.
Users are upserted by email; listings are inserted in file order.
Seeding writes directly to the database and needs no acting user.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), args[0])
		},
	}
}

func runSeed(ctx context.Context, path string) error {
	catalog, err := seed.Load(path)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	res, err := seed.Apply(ctx, catalog, a.listingRepo, a.users)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(res)
	}
	fmt.Printf("Seeded %d users and %d listings.\n", res.Users, res.Listings)
	return nil
}
