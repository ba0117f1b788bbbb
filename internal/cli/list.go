package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate/internal/listing"
)

// listFlags mirrors the catalog query parameters accepted over HTTP.
type listFlags struct {
	search     string
	category   string
	priceRange string
	listType   string
	sortBy     string
	page       int
	pageSize   int
}

// values renders the flags as query values so the CLI and the API share
// one parser.
func (f listFlags) values() map[string]string {
	return map[string]string{
		"search":     f.search,
		"category":   f.category,
		"priceRange": f.priceRange,
		"type":       f.listType,
		"sortBy":     f.sortBy,
		"page":       strconv.Itoa(f.page),
		"pageSize":   strconv.Itoa(f.pageSize),
	}
}

type flagValues map[string]string

func (v flagValues) Get(key string) string { return v[key] }

func newListCmd() *cobra.Command {
	var f listFlags

	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Search the listing catalog",
		Long: `Search, filter, sort and page through listings.

Examples:
  estate listings --category Villa --price high
  estate listings --search beach --sort price-low --page 2`,
		Aliases: []string{"list"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.search, "search", "", "match title or location (case-insensitive)")
	cmd.Flags().StringVar(&f.category, "category", listing.All, "category (All|Luxury|Apartment|House|Villa)")
	cmd.Flags().StringVar(&f.priceRange, "price", string(listing.PriceAny), "price range (All|low|mid|high)")
	cmd.Flags().StringVar(&f.listType, "type", listing.All, "listing type (All|sale|rent)")
	cmd.Flags().StringVar(&f.sortBy, "sort", string(listing.SortNewest), "sort order (newest|price-low|price-high)")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.pageSize, "page-size", listing.DefaultPageSize, "results per page")

	return cmd
}

func runList(ctx context.Context, f listFlags) error {
	params, err := listing.ParseParams(flagValues(f.values()))
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, 0)
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := b.QueryListings(ctx, params)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(res)
	}
	return printListingPage(res)
}
