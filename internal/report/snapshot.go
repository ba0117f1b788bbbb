// Package report derives dashboard statistics from the listing, booking and
// user stores without mutating them.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/evcraddock/estate/internal/booking"
	"github.com/evcraddock/estate/internal/listing"
)

// DefaultRecentListings is how many listings RecentListings holds by default.
const DefaultRecentListings = 5

// CategoryCount is one non-empty category group.
type CategoryCount struct {
	Category listing.Category `json:"category"`
	Count    int              `json:"count"`
}

// StatusCount is one non-empty status group.
type StatusCount struct {
	Status listing.Status `json:"status"`
	Count  int            `json:"count"`
}

// MonthCount is the number of bookings created in one calendar month (UTC).
type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

// Snapshot is a read-only summary for the admin dashboard.
type Snapshot struct {
	TotalListings       int                `json:"total_listings"`
	TotalUsers          int                `json:"total_users"`
	TotalCategories     int                `json:"total_categories"`
	TotalBookings       int                `json:"total_bookings"`
	ActiveListings      int                `json:"active_listings"`
	TotalListingValue   int64              `json:"total_listing_value"`
	ListingsByCategory  []CategoryCount    `json:"listings_by_category"`
	ListingsByStatus    []StatusCount      `json:"listings_by_status"`
	MonthlyBookingTrend []MonthCount       `json:"monthly_booking_trend"`
	RecentListings      []*listing.Listing `json:"recent_listings"`
	GeneratedAt         time.Time          `json:"generated_at"`
}

// Build computes a snapshot from already-loaded data. listings must be in
// insertion order. Neither slice is modified.
func Build(listings []*listing.Listing, bookings []*booking.Booking, totalUsers, recent int) *Snapshot {
	s := &Snapshot{
		TotalListings: len(listings),
		TotalUsers:    totalUsers,
		TotalBookings: len(bookings),
	}

	byCategory := map[listing.Category]int{}
	byStatus := map[listing.Status]int{}
	for _, l := range listings {
		byCategory[l.Category]++
		byStatus[l.Status]++
		s.TotalListingValue += l.Price
	}
	s.TotalCategories = len(byCategory)
	s.ActiveListings = byStatus[listing.StatusAvailable]

	s.ListingsByCategory = make([]CategoryCount, 0, len(byCategory))
	for c, n := range byCategory {
		s.ListingsByCategory = append(s.ListingsByCategory, CategoryCount{Category: c, Count: n})
	}
	slices.SortFunc(s.ListingsByCategory, func(a, b CategoryCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Category, b.Category))
	})

	s.ListingsByStatus = make([]StatusCount, 0, len(byStatus))
	for st, n := range byStatus {
		s.ListingsByStatus = append(s.ListingsByStatus, StatusCount{Status: st, Count: n})
	}
	slices.SortFunc(s.ListingsByStatus, func(a, b StatusCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Status, b.Status))
	})

	s.MonthlyBookingTrend = monthlyTrend(bookings)

	newest := append([]*listing.Listing{}, listings...)
	listing.Sort(newest, listing.SortNewest)
	s.RecentListings = newest[:min(max(recent, 0), len(newest))]

	return s
}

// monthlyTrend buckets bookings by creation month, oldest month first.
func monthlyTrend(bookings []*booking.Booking) []MonthCount {
	counts := map[string]int{}
	for _, b := range bookings {
		counts[b.CreatedAt.UTC().Format("2006-01")]++
	}

	trend := make([]MonthCount, 0, len(counts))
	for m, n := range counts {
		trend = append(trend, MonthCount{Month: m, Count: n})
	}
	slices.SortFunc(trend, func(a, b MonthCount) int { return cmp.Compare(a.Month, b.Month) })
	return trend
}
