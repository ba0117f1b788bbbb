// Package listing provides the listing domain model, the SQLite listing store,
// and the catalog query pipeline.
package listing

import (
	"strings"
	"time"

	"github.com/evcraddock/estate/internal/apperr"
)

// PlaceholderImage is shown for listings that carry no images.
const PlaceholderImage = "https://placehold.co/600x400"

// Category is the marketing category a listing is filed under.
type Category string

const (
	CategoryLuxury    Category = "Luxury"
	CategoryApartment Category = "Apartment"
	CategoryHouse     Category = "House"
	CategoryVilla     Category = "Villa"
)

// Categories is the set of allowed categories, in display order.
var Categories = []Category{CategoryLuxury, CategoryApartment, CategoryHouse, CategoryVilla}

// IsValid checks if a category is recognized.
func (c Category) IsValid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Type says whether a listing is offered for sale or for rent.
type Type string

const (
	TypeSale Type = "sale"
	TypeRent Type = "rent"
)

// IsValid checks if a listing type is recognized.
func (t Type) IsValid() bool {
	return t == TypeSale || t == TypeRent
}

// Status is the admin-controlled availability of a listing.
type Status string

const (
	StatusAvailable   Status = "Available"
	StatusUnavailable Status = "Unavailable"
)

// IsValid checks if a listing status is recognized.
func (s Status) IsValid() bool {
	return s == StatusAvailable || s == StatusUnavailable
}

// Features are optional structured attributes. Zero means absent.
type Features struct {
	Bedrooms  int  `json:"bedrooms,omitempty" yaml:"bedrooms"`
	Bathrooms int  `json:"bathrooms,omitempty" yaml:"bathrooms"`
	Area      int  `json:"area,omitempty" yaml:"area"`
	Parking   bool `json:"parking" yaml:"parking"`
	Furnished bool `json:"furnished" yaml:"furnished"`
}

// Agent is the denormalized contact for a listing.
type Agent struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email"`
	Phone string `json:"phone,omitempty" yaml:"phone"`
}

// Listing is a property offered on the marketplace.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Location    string    `json:"location"`
	Category    Category  `json:"category"`
	Type        Type      `json:"type"`
	Status      Status    `json:"status"`
	Images      []string  `json:"images"`
	Features    Features  `json:"features"`
	Agent       Agent     `json:"agent"`
	CreatedAt   time.Time `json:"created_at"`
}

// CoverImage returns the first image, or the placeholder when there is none.
func (l *Listing) CoverImage() string {
	for _, img := range l.Images {
		if strings.TrimSpace(img) != "" {
			return img
		}
	}
	return PlaceholderImage
}

// normalize fills defaults for optional fields before the listing is stored.
func (l *Listing) normalize() {
	l.Title = strings.TrimSpace(l.Title)
	l.Location = strings.TrimSpace(l.Location)
	if l.Type == "" {
		l.Type = TypeSale
	}
	if l.Status == "" {
		l.Status = StatusAvailable
	}
	images := l.Images[:0]
	for _, img := range l.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		images = []string{PlaceholderImage}
	}
	l.Images = images
}

// Validate checks the fields an admin must supply when creating a listing.
func (l *Listing) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return apperr.Invalid("title", "is required")
	}
	if l.Price < 0 {
		return apperr.Invalid("price", "must be >= 0, got %d", l.Price)
	}
	if !l.Category.IsValid() {
		return apperr.Invalid("category", "unknown category %q", l.Category)
	}
	if l.Type != "" && !l.Type.IsValid() {
		return apperr.Invalid("type", "must be sale or rent, got %q", l.Type)
	}
	if l.Status != "" && !l.Status.IsValid() {
		return apperr.Invalid("status", "must be Available or Unavailable, got %q", l.Status)
	}
	return nil
}
