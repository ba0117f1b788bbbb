// Package seed loads listings and users from a YAML catalog file.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/estate/internal/identity"
	"github.com/evcraddock/estate/internal/listing"
)

// User is a directory entry in a seed file.
type User struct {
	Email string        `yaml:"email"`
	Name  string        `yaml:"name"`
	Phone string        `yaml:"phone"`
	Role  identity.Role `yaml:"role"`
}

// Listing is a catalog entry in a seed file.
type Listing struct {
	ID          string           `yaml:"id"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Price       int64            `yaml:"price"`
	Location    string           `yaml:"location"`
	Category    listing.Category `yaml:"category"`
	Type        listing.Type     `yaml:"type"`
	Status      listing.Status   `yaml:"status"`
	Images      []string         `yaml:"images"`
	Features    listing.Features `yaml:"features"`
	Agent       listing.Agent    `yaml:"agent"`
	CreatedAt   time.Time        `yaml:"created_at"`
}

// Catalog is the content of a seed file.
type Catalog struct {
	Users    []User    `yaml:"users"`
	Listings []Listing `yaml:"listings"`
}

// Load reads and validates a seed file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	for i, u := range c.Users {
		if identity.NormalizeEmail(u.Email) == "" {
			return nil, fmt.Errorf("user %d: email is required", i+1)
		}
		if u.Role != "" && !u.Role.IsValid() {
			return nil, fmt.Errorf("user %d: invalid role %q", i+1, u.Role)
		}
	}
	for i := range c.Listings {
		if err := c.Listings[i].toListing().Validate(); err != nil {
			return nil, fmt.Errorf("listing %d: %w", i+1, err)
		}
	}

	return &c, nil
}

func (l Listing) toListing() *listing.Listing {
	return &listing.Listing{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Location:    l.Location,
		Category:    l.Category,
		Type:        l.Type,
		Status:      l.Status,
		Images:      l.Images,
		Features:    l.Features,
		Agent:       l.Agent,
		CreatedAt:   l.CreatedAt,
	}
}

// ListingInserter stores listings.
type ListingInserter interface {
	Insert(ctx context.Context, l *listing.Listing) (*listing.Listing, error)
}

// UserUpserter creates or updates directory entries.
type UserUpserter interface {
	Upsert(ctx context.Context, p identity.Profile) (*identity.User, error)
}

// Result counts what Apply wrote.
type Result struct {
	Users    int
	Listings int
}

// Apply writes the catalog: users are upserted by email, listings inserted
// in file order so that file order is insertion order.
func Apply(ctx context.Context, c *Catalog, listings ListingInserter, users UserUpserter) (Result, error) {
	var res Result
	for _, u := range c.Users {
		if _, err := users.Upsert(ctx, identity.Profile{Email: u.Email, Name: u.Name, Phone: u.Phone, Role: u.Role}); err != nil {
			return res, fmt.Errorf("seeding user %s: %w", u.Email, err)
		}
		res.Users++
	}
	for _, l := range c.Listings {
		if _, err := listings.Insert(ctx, l.toListing()); err != nil {
			return res, fmt.Errorf("seeding listing %q: %w", l.Title, err)
		}
		res.Listings++
	}
	return res, nil
}
