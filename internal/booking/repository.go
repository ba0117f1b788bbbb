package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/estate/internal/apperr"
	"github.com/evcraddock/estate/internal/db"
)

// Repository is the SQLite booking store. Cancelled bookings are kept as
// tombstones and never returned by the Find methods.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a booking repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = "id, listing_id, requester_email, requester_name, notes, status, created_at, updated_at"

func scanBooking(row interface{ Scan(...interface{}) error }) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.ListingID, &b.Requester.Email, &b.Requester.Name,
		&b.Notes, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Insert stores a new booking record in a single write.
func (r *Repository) Insert(ctx context.Context, b *Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, listing_id, requester_email, requester_name, notes, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ListingID, b.Requester.Email, b.Requester.Name, b.Notes,
		string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting booking: %w", db.Classify(err))
	}
	return nil
}

// GetByID returns a booking by ID, tombstones included.
func (r *Repository) GetByID(ctx context.Context, id string) (*Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM bookings WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", id, apperr.ErrBookingNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking %s: %w", id, db.Classify(err))
	}
	return b, nil
}

// FindByRequester returns the live bookings of one requester, oldest first.
func (r *Repository) FindByRequester(ctx context.Context, email string) ([]*Booking, error) {
	return r.find(ctx,
		"SELECT "+selectColumns+" FROM bookings WHERE requester_email = ? AND status != ? ORDER BY created_at, rowid",
		strings.ToLower(strings.TrimSpace(email)), string(StatusCancelled))
}

// FindAll returns every live booking, oldest first.
func (r *Repository) FindAll(ctx context.Context) ([]*Booking, error) {
	return r.find(ctx,
		"SELECT "+selectColumns+" FROM bookings WHERE status != ? ORDER BY created_at, rowid",
		string(StatusCancelled))
}

func (r *Repository) find(ctx context.Context, query string, args ...interface{}) (bookings []*Booking, err error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", db.Classify(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	bookings = []*Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookings: %w", db.Classify(err))
	}

	return bookings, nil
}

// UpdateStatus moves a booking to target with compare-and-set semantics:
// the write only lands if the current status may transition to target and,
// when owner is non-empty, the booking belongs to owner. When two transitions
// race, exactly one wins and the other gets ErrInvalidStateTransition.
func (r *Repository) UpdateStatus(ctx context.Context, id string, target Status, owner string) (*Booking, error) {
	from := transitions[target]
	if len(from) == 0 {
		return nil, fmt.Errorf("no transition into %s: %w", target, apperr.ErrInvalidStateTransition)
	}

	query := "UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status IN (" +
		strings.TrimSuffix(strings.Repeat("?,", len(from)), ",") + ")"
	args := []interface{}{string(target), time.Now().UTC(), id}
	for _, s := range from {
		args = append(args, string(s))
	}
	if owner != "" {
		query += " AND requester_email = ?"
		args = append(args, strings.ToLower(strings.TrimSpace(owner)))
	}
	query += " RETURNING " + selectColumns

	b, err := scanBooking(r.db.QueryRowContext(ctx, query, args...))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("updating booking %s: %w", id, db.Classify(err))
	}

	// Nothing matched: report why.
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner != "" && !strings.EqualFold(current.Requester.Email, strings.TrimSpace(owner)) {
		return nil, fmt.Errorf("booking %s belongs to another requester: %w", id, apperr.ErrPermissionDenied)
	}
	return nil, fmt.Errorf("booking %s is %s, cannot become %s: %w",
		id, current.Status, target, apperr.ErrInvalidStateTransition)
}
