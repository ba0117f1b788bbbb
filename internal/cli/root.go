// Package cli defines the cobra command tree for the listing marketplace.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate/internal/booking"
	"github.com/evcraddock/estate/internal/db"
	"github.com/evcraddock/estate/internal/identity"
	"github.com/evcraddock/estate/internal/listing"
)

var (
	flagFormat string
	flagDB     string
	flagAs     string
	flagServer string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "estate",
		Short:         "Browse and book property listings",
		Long:          "A property-listing marketplace. Search and filter listings, request bookings, and manage listings, bookings and users as an admin, from the CLI or over the HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/estate/estate.db)")
	root.PersistentFlags().StringVar(&flagAs, "as", "", "email of the user to act as (default: from 'estate use')")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "API server URL; browse and book remotely instead of opening the database")

	root.AddCommand(
		newListCmd(),
		newShowCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newStatusCmd(),
		newBookCmd(),
		newBookingsCmd(),
		newApproveCmd(),
		newCancelCmd(),
		newStatsCmd(),
		newUsersCmd(),
		newUseCmd(),
		newSeedCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag, ESTATE_DB or the default path.
func openDB() (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = os.Getenv("ESTATE_DB")
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// app bundles the stores and services a command needs.
type app struct {
	db          *sql.DB
	listingRepo *listing.Repository
	bookingRepo *booking.Repository
	listings    *listing.Service
	bookings    *booking.Lifecycle
	users       *identity.UserStore
}

// openApp opens the database and wires the services over it.
func openApp() (*app, error) {
	database, err := openDB()
	if err != nil {
		return nil, err
	}
	listingRepo := listing.NewRepository(database)
	bookingRepo := booking.NewRepository(database)
	return &app{
		db:          database,
		listingRepo: listingRepo,
		bookingRepo: bookingRepo,
		listings:    listing.NewService(listingRepo),
		bookings:    booking.NewLifecycle(bookingRepo, listingRepo),
		users:       identity.NewUserStore(database),
	}, nil
}

// close closes the database, logging any error to stderr.
func (a *app) close() {
	closeDB(a.db)
}

// actor resolves the acting principal from --as, ESTATE_AS or the config file.
func (a *app) actor(ctx context.Context) (identity.Principal, error) {
	return a.users.Resolve(ctx, getActingEmail(), "")
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
