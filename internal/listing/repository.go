package listing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/estate/internal/apperr"
	"github.com/evcraddock/estate/internal/db"
)

// Repository is the SQLite listing store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a listing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO listings
	(id, title, description, price, location, category, type, status, images,
	 bedrooms, bathrooms, area, parking, furnished, agent_name, agent_email, agent_phone, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, title, description, price, location, category, type, status, images,
	bedrooms, bathrooms, area, parking, furnished, agent_name, agent_email, agent_phone, created_at`

// insertion order breaks created_at ties
const orderByInsertion = " ORDER BY created_at ASC, rowid ASC"

// scanListing scans a listing from a database row.
func scanListing(row interface{ Scan(...interface{}) error }) (*Listing, error) {
	var l Listing
	var images string
	err := row.Scan(
		&l.ID, &l.Title, &l.Description, &l.Price, &l.Location,
		&l.Category, &l.Type, &l.Status, &images,
		&l.Features.Bedrooms, &l.Features.Bathrooms, &l.Features.Area,
		&l.Features.Parking, &l.Features.Furnished,
		&l.Agent.Name, &l.Agent.Email, &l.Agent.Phone, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &l.Images); err != nil {
		return nil, fmt.Errorf("decoding images of listing %s: %w", l.ID, err)
	}
	return &l, nil
}

// Insert stores a new listing. A missing ID or creation time is generated.
func (r *Repository) Insert(ctx context.Context, l *Listing) (*Listing, error) {
	saved := *l
	saved.Images = append([]string(nil), l.Images...)
	saved.normalize()
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}

	images, err := json.Marshal(saved.Images)
	if err != nil {
		return nil, fmt.Errorf("encoding images: %w", err)
	}

	_, err = r.db.ExecContext(ctx, insertSQL,
		saved.ID, saved.Title, saved.Description, saved.Price, saved.Location,
		string(saved.Category), string(saved.Type), string(saved.Status), string(images),
		saved.Features.Bedrooms, saved.Features.Bathrooms, saved.Features.Area,
		saved.Features.Parking, saved.Features.Furnished,
		saved.Agent.Name, saved.Agent.Email, saved.Agent.Phone, saved.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting listing: %w", db.Classify(err))
	}

	return &saved, nil
}

// GetByID returns a listing by its ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE id = ?", selectColumns)
	l, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, apperr.ErrListingNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %s: %w", id, db.Classify(err))
	}
	return l, nil
}

// GetByIDs returns the listings that still exist among ids, keyed by ID.
// Missing IDs are simply absent from the map.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) (map[string]*Listing, error) {
	found := make(map[string]*Listing, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf("SELECT %s FROM listings WHERE id IN (%s)", selectColumns, placeholders)

	listings, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, l := range listings {
		found[l.ID] = l
	}
	return found, nil
}

// All returns every listing in insertion order.
func (r *Repository) All(ctx context.Context) ([]*Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings", selectColumns) + orderByInsertion
	return r.list(ctx, query)
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) (listings []*Listing, err error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", db.Classify(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	listings = []*Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", db.Classify(err))
	}

	return listings, nil
}

// UpdateStatus sets the availability of a listing.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.IsValid() {
		return apperr.Invalid("status", "must be Available or Unavailable, got %q", status)
	}

	result, err := r.db.ExecContext(ctx, "UPDATE listings SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating listing status: %w", db.Classify(err))
	}
	return requireOneRow(result, id)
}

// Delete removes a listing. Bookings that reference it are left in place.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", db.Classify(err))
	}
	return requireOneRow(result, id)
}

func requireOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing %s: %w", id, apperr.ErrListingNotFound)
	}
	return nil
}
