package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate/internal/booking"
)

func newBookCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "book <listing-id>",
		Short: "Request a booking for a listing",
		Long: `Request a booking for a listing as the acting user. New bookings are Pending
until an admin approves them.

Example:
  estate book 3f2a9c1e-... --notes "weekday mornings work best"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBook(cmd.Context(), args[0], notes)
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "message for the agent")

	return cmd
}

func runBook(ctx context.Context, listingID, notes string) error {
	be, err := openBackend(ctx, 0)
	if err != nil {
		return err
	}
	defer be.Close()

	b, err := be.RequestBooking(ctx, listingID, notes)
	if err != nil {
		return fmt.Errorf("requesting booking: %w", err)
	}

	if isJSON() {
		return printJSON(b)
	}
	printBooking(b)
	return nil
}

func newBookingsCmd() *cobra.Command {
	var all bool
	var email string

	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List bookings",
		Long:  "List the acting user's live bookings. Admins may pass --all or --email.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookings(cmd.Context(), all, email)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every booking (admin)")
	cmd.Flags().StringVar(&email, "email", "", "list bookings of another user (admin)")

	return cmd
}

func runBookings(ctx context.Context, all bool, email string) error {
	be, err := openBackend(ctx, 0)
	if err != nil {
		return err
	}
	defer be.Close()

	views, err := be.ListBookings(ctx, all, email)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(views)
	}
	printBookings(views)
	return nil
}

func newApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <booking-id>",
		Short: "Confirm a pending booking (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd.Context(), args[0], booking.StatusConfirmed)
		},
	}
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel a booking",
		Long:  "Cancel a pending or confirmed booking. Users may cancel their own bookings; admins any.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd.Context(), args[0], booking.StatusCancelled)
		},
	}
}

func runTransition(ctx context.Context, id string, target booking.Status) error {
	be, err := openBackend(ctx, 0)
	if err != nil {
		return err
	}
	defer be.Close()

	b, err := be.SetBookingStatus(ctx, id, target)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(b)
	}
	printBooking(b)
	return nil
}
