package listing

import (
	"context"
	"fmt"

	"github.com/evcraddock/estate/internal/apperr"
	"github.com/evcraddock/estate/internal/identity"
)

// Store is the listing persistence the catalog service depends on.
type Store interface {
	Insert(ctx context.Context, l *Listing) (*Listing, error)
	GetByID(ctx context.Context, id string) (*Listing, error)
	All(ctx context.Context) ([]*Listing, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
}

// Service provides catalog reads for visitors and listing administration.
type Service struct {
	store Store
}

// NewService creates a listing service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Query reads the catalog once and runs the query pipeline over it.
func (s *Service) Query(ctx context.Context, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	listings, err := apperr.RetryRead(ctx, func() ([]*Listing, error) {
		return s.store.All(ctx)
	})
	if err != nil {
		return Result{}, fmt.Errorf("loading catalog: %w", err)
	}

	return Query(listings, p)
}

// Get returns a single listing.
func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	return apperr.RetryRead(ctx, func() (*Listing, error) {
		return s.store.GetByID(ctx, id)
	})
}

// Create adds a listing on behalf of an admin.
func (s *Service) Create(ctx context.Context, actor identity.Principal, l *Listing) (*Listing, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return s.store.Insert(ctx, l)
}

// SetStatus changes a listing's availability on behalf of an admin.
func (s *Service) SetStatus(ctx context.Context, actor identity.Principal, id string, status Status) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	return s.store.UpdateStatus(ctx, id, status)
}

// Delete removes a listing on behalf of an admin. Bookings that point at it
// survive and resolve to the unknown-listing placeholder.
func (s *Service) Delete(ctx context.Context, actor identity.Principal, id string) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}
