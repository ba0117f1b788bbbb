package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/estate/internal/apperr"
	"github.com/evcraddock/estate/internal/identity"
	"github.com/evcraddock/estate/internal/listing"
)

// Store is the booking persistence the lifecycle depends on.
type Store interface {
	Insert(ctx context.Context, b *Booking) error
	FindByRequester(ctx context.Context, email string) ([]*Booking, error)
	FindAll(ctx context.Context) ([]*Booking, error)
	UpdateStatus(ctx context.Context, id string, target Status, owner string) (*Booking, error)
}

// ListingLookup resolves the listings bookings point at.
type ListingLookup interface {
	GetByID(ctx context.Context, id string) (*listing.Listing, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*listing.Listing, error)
}

// Lifecycle governs bookings from request to confirmation or cancellation.
type Lifecycle struct {
	bookings Store
	listings ListingLookup
	now      func() time.Time
}

// NewLifecycle creates a booking lifecycle.
func NewLifecycle(bookings Store, listings ListingLookup) *Lifecycle {
	return &Lifecycle{
		bookings: bookings,
		listings: listings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Request creates a Pending booking for listingID on behalf of actor.
// It is never retried: a retry could duplicate the booking.
func (lc *Lifecycle) Request(ctx context.Context, actor identity.Principal, listingID, notes string) (*Booking, error) {
	if err := actor.RequireActive(); err != nil {
		return nil, err
	}
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, apperr.Invalid("listing_id", "is required")
	}

	if _, err := lc.listings.GetByID(ctx, listingID); err != nil {
		return nil, err
	}

	now := lc.now()
	b := &Booking{
		ID:        uuid.NewString(),
		ListingID: listingID,
		Requester: Requester{Email: actor.Email, Name: actor.Name},
		Notes:     strings.TrimSpace(notes),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := lc.bookings.Insert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Approve confirms a Pending booking. Admin only.
func (lc *Lifecycle) Approve(ctx context.Context, actor identity.Principal, id string) (*Booking, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return lc.bookings.UpdateStatus(ctx, id, StatusConfirmed, "")
}

// Cancel cancels a Pending or Confirmed booking. Admins may cancel any
// booking; other callers only their own. The record is kept as a tombstone
// and disappears from every booking list.
func (lc *Lifecycle) Cancel(ctx context.Context, actor identity.Principal, id string) (*Booking, error) {
	if err := actor.RequireActive(); err != nil {
		return nil, err
	}
	owner := ""
	if !actor.IsAdmin() {
		owner = actor.Email
	}
	return lc.bookings.UpdateStatus(ctx, id, StatusCancelled, owner)
}

// SetStatus drives the booking to target through the matching transition.
func (lc *Lifecycle) SetStatus(ctx context.Context, actor identity.Principal, id string, target Status) (*Booking, error) {
	switch target {
	case StatusConfirmed:
		return lc.Approve(ctx, actor, id)
	case StatusCancelled:
		return lc.Cancel(ctx, actor, id)
	case StatusPending:
		if err := actor.RequireActive(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no transition into %s: %w", target, apperr.ErrInvalidStateTransition)
	}
	_, err := ParseStatus(string(target))
	return nil, err
}

// Delete removes a booking from view by cancelling it.
func (lc *Lifecycle) Delete(ctx context.Context, actor identity.Principal, id string) error {
	_, err := lc.Cancel(ctx, actor, id)
	return err
}

// ListForRequester returns the live bookings of email. Callers may only list
// their own bookings unless they are admins.
func (lc *Lifecycle) ListForRequester(ctx context.Context, actor identity.Principal, email string) ([]*View, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(email) {
		return nil, fmt.Errorf("listing bookings of %s: %w", email, apperr.ErrPermissionDenied)
	}

	bookings, err := apperr.RetryRead(ctx, func() ([]*Booking, error) {
		return lc.bookings.FindByRequester(ctx, identity.NormalizeEmail(email))
	})
	if err != nil {
		return nil, err
	}
	return lc.resolve(ctx, bookings)
}

// ListAll returns every live booking. Admin only.
func (lc *Lifecycle) ListAll(ctx context.Context, actor identity.Principal) ([]*View, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	bookings, err := apperr.RetryRead(ctx, func() ([]*Booking, error) {
		return lc.bookings.FindAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return lc.resolve(ctx, bookings)
}

// resolve attaches listing summaries in one listing-store round trip.
// Dangling references resolve to the unknown-listing placeholder.
func (lc *Lifecycle) resolve(ctx context.Context, bookings []*Booking) ([]*View, error) {
	seen := make(map[string]bool, len(bookings))
	var ids []string
	for _, b := range bookings {
		if !seen[b.ListingID] {
			seen[b.ListingID] = true
			ids = append(ids, b.ListingID)
		}
	}

	listings, err := apperr.RetryRead(ctx, func() (map[string]*listing.Listing, error) {
		return lc.listings.GetByIDs(ctx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("resolving listings: %w", err)
	}

	views := make([]*View, 0, len(bookings))
	for _, b := range bookings {
		summary := UnknownListing(b.ListingID)
		if l, ok := listings[b.ListingID]; ok {
			summary = Summarize(l)
		}
		views = append(views, &View{Booking: b, Listing: summary})
	}
	return views, nil
}
