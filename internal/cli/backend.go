package cli

import (
	"context"

	"github.com/evcraddock/estate/internal/booking"
	"github.com/evcraddock/estate/internal/client"
	"github.com/evcraddock/estate/internal/identity"
	"github.com/evcraddock/estate/internal/listing"
	"github.com/evcraddock/estate/internal/report"
)

// backend is what the browsing and booking commands run against: the local
// database, or a running server when --server is set.
type backend interface {
	QueryListings(ctx context.Context, p listing.Params) (listing.Result, error)
	GetListing(ctx context.Context, id string) (*listing.Listing, error)
	RequestBooking(ctx context.Context, listingID, notes string) (*booking.Booking, error)
	ListBookings(ctx context.Context, all bool, email string) ([]*booking.View, error)
	SetBookingStatus(ctx context.Context, id string, status booking.Status) (*booking.Booking, error)
	Stats(ctx context.Context) (*report.Snapshot, error)
	Close()
}

// openBackend returns a remote client when a server URL is configured and
// the local database otherwise.
func openBackend(ctx context.Context, recent int) (backend, error) {
	if url := getServerURL(); url != "" {
		return client.New(url, getActingEmail()), nil
	}

	a, err := openApp()
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	return &localBackend{app: a, actor: actor, recent: recent}, nil
}

// localBackend runs commands directly against the services as actor.
type localBackend struct {
	*app
	actor  identity.Principal
	recent int
}

func (b *localBackend) QueryListings(ctx context.Context, p listing.Params) (listing.Result, error) {
	return b.listings.Query(ctx, p)
}

func (b *localBackend) GetListing(ctx context.Context, id string) (*listing.Listing, error) {
	return b.listings.Get(ctx, id)
}

func (b *localBackend) RequestBooking(ctx context.Context, listingID, notes string) (*booking.Booking, error) {
	return b.bookings.Request(ctx, b.actor, listingID, notes)
}

func (b *localBackend) ListBookings(ctx context.Context, all bool, email string) ([]*booking.View, error) {
	if all {
		return b.bookings.ListAll(ctx, b.actor)
	}
	if email == "" {
		email = b.actor.Email
	}
	return b.bookings.ListForRequester(ctx, b.actor, email)
}

func (b *localBackend) SetBookingStatus(ctx context.Context, id string, status booking.Status) (*booking.Booking, error) {
	return b.bookings.SetStatus(ctx, b.actor, id, status)
}

func (b *localBackend) Stats(ctx context.Context) (*report.Snapshot, error) {
	if err := b.actor.RequireAdmin(); err != nil {
		return nil, err
	}

	reporter, err := report.New(b.listingRepo, b.bookingRepo, b.users, report.Options{RecentListings: b.recent})
	if err != nil {
		return nil, err
	}
	defer reporter.Close()

	return reporter.Snapshot(ctx)
}

func (b *localBackend) Close() {
	b.close()
}
