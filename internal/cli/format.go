package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/estate/internal/booking"
	"github.com/evcraddock/estate/internal/identity"
	"github.com/evcraddock/estate/internal/listing"
	"github.com/evcraddock/estate/internal/report"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListingSummary prints a single listing in text format.
func printListingSummary(l *listing.Listing) {
	fmt.Printf("Listing %s\n", l.ID)
	fmt.Printf("  Title:     %s\n", l.Title)
	fmt.Printf("  Location:  %s\n", l.Location)
	fmt.Printf("  Price:     $%s\n", formatPrice(l.Price))
	fmt.Printf("  Category:  %s\n", l.Category)
	fmt.Printf("  Type:      %s\n", l.Type)
	fmt.Printf("  Status:    %s\n", l.Status)
	if l.Features.Bedrooms > 0 {
		fmt.Printf("  Beds:      %d\n", l.Features.Bedrooms)
	}
	if l.Features.Bathrooms > 0 {
		fmt.Printf("  Baths:     %d\n", l.Features.Bathrooms)
	}
	if l.Features.Area > 0 {
		fmt.Printf("  Area:      %d sqft\n", l.Features.Area)
	}
	fmt.Printf("  Parking:   %s\n", yesNo(l.Features.Parking))
	fmt.Printf("  Furnished: %s\n", yesNo(l.Features.Furnished))
	if l.Agent.Name != "" {
		fmt.Printf("  Agent:     %s", l.Agent.Name)
		if l.Agent.Email != "" {
			fmt.Printf(" <%s>", l.Agent.Email)
		}
		if l.Agent.Phone != "" {
			fmt.Printf(" %s", l.Agent.Phone)
		}
		fmt.Println()
	}
	fmt.Printf("  Image:     %s\n", l.CoverImage())
	fmt.Printf("  Added:     %s\n", l.CreatedAt.Format("2006-01-02 15:04"))
	if l.Description != "" {
		fmt.Printf("\n  %s\n", l.Description)
	}
}

// printListingPage prints one page of query results as a table.
func printListingPage(res listing.Result) error {
	if res.TotalMatches == 0 {
		fmt.Println("No listings found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITLE\tLOCATION\tPRICE\tCATEGORY\tTYPE\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t--------\t-----\t--------\t----\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, l := range res.Listings {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t$%s\t%s\t%s\t%s\n",
			shortID(l.ID), truncate(l.Title, 32), truncate(l.Location, 24),
			formatPrice(l.Price), l.Category, l.Type, l.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nPage %d of %d (%d matches)\n", res.Page, res.TotalPages, res.TotalMatches)
	return nil
}

// printBookings prints bookings with their listing in text format.
func printBookings(views []*booking.View) {
	if len(views) == 0 {
		fmt.Println("No bookings.")
		return
	}

	for _, v := range views {
		fmt.Printf("[%s] %s %s (%s)\n", v.CreatedAt.Format("2006-01-02 15:04"), v.ID, v.Status, v.Requester.Email)
		fmt.Printf("  %s", v.Listing.Title)
		if v.Listing.Known {
			fmt.Printf(", %s, $%s", v.Listing.Location, formatPrice(v.Listing.Price))
		}
		fmt.Println()
		if v.Notes != "" {
			fmt.Printf("  %s\n", v.Notes)
		}
		fmt.Println()
	}
}

// printBooking prints a single booking after a state change.
func printBooking(b *booking.Booking) {
	fmt.Printf("Booking %s is %s.\n", b.ID, b.Status)
}

// printStats prints a dashboard snapshot in text format.
func printStats(s *report.Snapshot) {
	fmt.Printf("Listings:       %d (%d available)\n", s.TotalListings, s.ActiveListings)
	fmt.Printf("Categories:     %d\n", s.TotalCategories)
	fmt.Printf("Users:          %d\n", s.TotalUsers)
	fmt.Printf("Bookings:       %d\n", s.TotalBookings)
	fmt.Printf("Listing value:  $%s\n", formatPrice(s.TotalListingValue))

	if len(s.ListingsByCategory) > 0 {
		fmt.Println("\nBy category:")
		for _, c := range s.ListingsByCategory {
			fmt.Printf("  %-12s %d\n", c.Category, c.Count)
		}
	}
	if len(s.ListingsByStatus) > 0 {
		fmt.Println("\nBy status:")
		for _, st := range s.ListingsByStatus {
			fmt.Printf("  %-12s %d\n", st.Status, st.Count)
		}
	}
	if len(s.MonthlyBookingTrend) > 0 {
		fmt.Println("\nBookings per month:")
		for _, m := range s.MonthlyBookingTrend {
			fmt.Printf("  %s  %d\n", m.Month, m.Count)
		}
	}
	if len(s.RecentListings) > 0 {
		fmt.Println("\nRecent listings:")
		for _, l := range s.RecentListings {
			fmt.Printf("  %s  %s ($%s)\n", shortID(l.ID), l.Title, formatPrice(l.Price))
		}
	}
}

// printUsers prints the user directory as a table.
func printUsers(users []*identity.User) error {
	if len(users) == 0 {
		fmt.Println("No users.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tEMAIL\tNAME\tPHONE\tROLE\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, u := range users {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Phone, u.Role, u.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// formatPrice formats a dollar amount as a string with commas.
func formatPrice(dollars int64) string {
	if dollars < 0 {
		return "-" + formatPrice(-dollars)
	}
	s := fmt.Sprintf("%d", dollars)

	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return strings.Join(parts, ",")
}

// shortID returns the first segment of a UUID for table display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
