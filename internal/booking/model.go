// Package booking provides the booking request lifecycle and its SQLite store.
package booking

import (
	"time"

	"github.com/evcraddock/estate/internal/apperr"
	"github.com/evcraddock/estate/internal/listing"
)

// Status is where a booking is in its lifecycle.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", apperr.Invalid("status", "must be Pending, Confirmed or Cancelled, got %q", s)
}

// transitions lists, per target status, the statuses it may be entered from.
// Nothing leads back to Pending and nothing leaves Cancelled.
var transitions = map[Status][]Status{
	StatusConfirmed: {StatusPending},
	StatusCancelled: {StatusPending, StatusConfirmed},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// Requester identifies who asked for the booking.
type Requester struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Booking is a request to be contacted about, or to tour, a listing.
// ListingID is a weak reference: the listing may since have been deleted.
type Booking struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	Requester Requester `json:"requester"`
	Notes     string    `json:"notes,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListingSummary is the listing data shown alongside a booking.
type ListingSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Price    int64  `json:"price"`
	Image    string `json:"image"`
	Known    bool   `json:"known"`
}

// UnknownListingTitle is the title reported for bookings whose listing is gone.
const UnknownListingTitle = "Unknown listing"

// UnknownListing is the placeholder summary for a deleted listing.
func UnknownListing(id string) ListingSummary {
	return ListingSummary{ID: id, Title: UnknownListingTitle, Image: listing.PlaceholderImage}
}

// Summarize builds the summary of an existing listing.
func Summarize(l *listing.Listing) ListingSummary {
	return ListingSummary{
		ID:       l.ID,
		Title:    l.Title,
		Location: l.Location,
		Price:    l.Price,
		Image:    l.CoverImage(),
		Known:    true,
	}
}

// View is a booking with its listing resolved.
type View struct {
	*Booking
	Listing ListingSummary `json:"listing"`
}
