package report

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/estate/internal/apperr"
	"github.com/evcraddock/estate/internal/booking"
	"github.com/evcraddock/estate/internal/listing"
)

// ListingSource reads the whole catalog.
type ListingSource interface {
	All(ctx context.Context) ([]*listing.Listing, error)
}

// BookingSource reads every live booking.
type BookingSource interface {
	FindAll(ctx context.Context) ([]*booking.Booking, error)
}

// UserCounter counts registered users.
type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

// Options tunes a Reporter.
type Options struct {
	// RecentListings is how many newest listings a snapshot carries.
	RecentListings int
	// TTL is how long a computed snapshot is served before recomputing.
	// Zero disables caching.
	TTL time.Duration
}

const snapshotKey = "dashboard"

// Reporter computes dashboard snapshots, caching each one for a short TTL.
type Reporter struct {
	listings ListingSource
	bookings BookingSource
	users    UserCounter
	opts     Options
	cache    *ristretto.Cache[string, *Snapshot]
	now      func() time.Time
}

// New creates a reporter.
func New(listings ListingSource, bookings BookingSource, users UserCounter, opts Options) (*Reporter, error) {
	if opts.RecentListings <= 0 {
		opts.RecentListings = DefaultRecentListings
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *Snapshot]{
		NumCounters: 100,
		MaxCost:     10,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating snapshot cache: %w", err)
	}

	return &Reporter{
		listings: listings,
		bookings: bookings,
		users:    users,
		opts:     opts,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Snapshot returns the dashboard statistics. Each store is read at most
// once (plus one retry if it is briefly unavailable), concurrently.
func (r *Reporter) Snapshot(ctx context.Context) (*Snapshot, error) {
	if r.opts.TTL > 0 {
		if s, ok := r.cache.Get(snapshotKey); ok {
			return s, nil
		}
	}

	var (
		listings []*listing.Listing
		bookings []*booking.Booking
		users    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		listings, err = apperr.RetryRead(gctx, func() ([]*listing.Listing, error) {
			return r.listings.All(gctx)
		})
		return err
	})
	g.Go(func() (err error) {
		bookings, err = apperr.RetryRead(gctx, func() ([]*booking.Booking, error) {
			return r.bookings.FindAll(gctx)
		})
		return err
	})
	g.Go(func() (err error) {
		users, err = apperr.RetryRead(gctx, func() (int, error) {
			return r.users.Count(gctx)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building dashboard snapshot: %w", err)
	}

	s := Build(listings, bookings, users, r.opts.RecentListings)
	s.GeneratedAt = r.now()

	if r.opts.TTL > 0 {
		r.cache.SetWithTTL(snapshotKey, s, 1, r.opts.TTL)
		r.cache.Wait()
	}
	return s, nil
}

// Invalidate drops the cached snapshot so the next call recomputes it.
func (r *Reporter) Invalidate() {
	r.cache.Del(snapshotKey)
}

// Close releases the snapshot cache.
func (r *Reporter) Close() {
	r.cache.Close()
}
