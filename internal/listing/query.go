package listing

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/evcraddock/estate/internal/apperr"
)

// All disables a category, type or price filter.
const All = "All"

// Price bucket boundaries.
const (
	LowPriceCeiling int64 = 500_000
	HighPriceFloor  int64 = 1_000_000
)

// DefaultPageSize is the page size used when a caller does not pick one.
const DefaultPageSize = 8

// PriceRange selects one of the fixed price buckets.
type PriceRange string

const (
	PriceAny  PriceRange = All
	PriceLow  PriceRange = "low"  // < 500,000
	PriceMid  PriceRange = "mid"  // [500,000, 1,000,000)
	PriceHigh PriceRange = "high" // >= 1,000,000
)

// Contains reports whether price falls inside the bucket.
func (r PriceRange) Contains(price int64) bool {
	switch r {
	case PriceLow:
		return price < LowPriceCeiling
	case PriceMid:
		return price >= LowPriceCeiling && price < HighPriceFloor
	case PriceHigh:
		return price >= HighPriceFloor
	default:
		return true
	}
}

func (r PriceRange) isValid() bool {
	switch r {
	case PriceAny, PriceLow, PriceMid, PriceHigh:
		return true
	}
	return false
}

// SortKey orders query results.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
)

func (k SortKey) isValid() bool {
	return k == SortNewest || k == SortPriceLow || k == SortPriceHigh
}

// Params describes one catalog query. Page is 1-indexed.
type Params struct {
	SearchText string     `json:"search"`
	Category   string     `json:"category"`
	PriceRange PriceRange `json:"price_range"`
	Type       string     `json:"type"`
	SortBy     SortKey    `json:"sort_by"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

// DefaultParams matches everything, newest first, first page.
func DefaultParams() Params {
	return Params{
		Category:   All,
		PriceRange: PriceAny,
		Type:       All,
		SortBy:     SortNewest,
		Page:       1,
		PageSize:   DefaultPageSize,
	}
}

// Validate rejects unknown enumerations, a negative page and a non-positive
// page size. Page 0 or a page past totalPages is not an error; it yields an
// empty page.
func (p Params) Validate() error {
	if p.Category != All && !Category(p.Category).IsValid() {
		return apperr.Invalid("category", "unknown category %q", p.Category)
	}
	if !p.PriceRange.isValid() {
		return apperr.Invalid("priceRange", "must be All, low, mid or high, got %q", p.PriceRange)
	}
	if p.Type != All && !Type(p.Type).IsValid() {
		return apperr.Invalid("type", "must be All, sale or rent, got %q", p.Type)
	}
	if !p.SortBy.isValid() {
		return apperr.Invalid("sortBy", "must be newest, price-low or price-high, got %q", p.SortBy)
	}
	if p.Page < 0 {
		return apperr.Invalid("page", "must be >= 0, got %d", p.Page)
	}
	if p.PageSize < 1 {
		return apperr.Invalid("pageSize", "must be >= 1, got %d", p.PageSize)
	}
	return nil
}

// Values carries raw query-string style inputs, e.g. url.Values.
type Values interface {
	Get(key string) string
}

// ParseParams builds Params from string inputs, starting from DefaultParams
// for anything left blank. Non-numeric or negative page numbers are
// validation errors, never coerced.
func ParseParams(v Values) (Params, error) {
	p := DefaultParams()
	p.SearchText = v.Get("search")
	if c := v.Get("category"); c != "" {
		p.Category = c
	}
	if r := v.Get("priceRange"); r != "" {
		p.PriceRange = PriceRange(r)
	}
	if t := v.Get("type"); t != "" {
		p.Type = t
	}
	if s := v.Get("sortBy"); s != "" {
		p.SortBy = SortKey(s)
	}

	var err error
	if p.Page, err = parseInt(v.Get("page"), "page", p.Page); err != nil {
		return Params{}, err
	}
	if p.PageSize, err = parseInt(v.Get("pageSize"), "pageSize", p.PageSize); err != nil {
		return Params{}, err
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func parseInt(raw, field string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Invalid(field, "must be an integer, got %q", raw)
	}
	if n < 0 {
		return 0, apperr.Invalid(field, "must not be negative, got %d", n)
	}
	return n, nil
}

// Result is one page of a catalog query.
type Result struct {
	Listings     []*Listing `json:"listings"`
	Page         int        `json:"page"`
	PageSize     int        `json:"page_size"`
	TotalPages   int        `json:"total_pages"`
	TotalMatches int        `json:"total_matches"`
}

// Matches reports whether l passes every active filter in p.
func Matches(l *Listing, p Params) bool {
	if p.SearchText != "" {
		needle := strings.ToLower(p.SearchText)
		if !strings.Contains(strings.ToLower(l.Title), needle) &&
			!strings.Contains(strings.ToLower(l.Location), needle) {
			return false
		}
	}
	if p.Category != All && string(l.Category) != p.Category {
		return false
	}
	if p.Type != All && string(l.Type) != p.Type {
		return false
	}
	return p.PriceRange.Contains(l.Price)
}

// Sort orders listings in place by key. The sort is stable: listings with
// equal keys keep their input order.
func Sort(listings []*Listing, key SortKey) {
	switch key {
	case SortPriceLow:
		slices.SortStableFunc(listings, func(a, b *Listing) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(listings, func(a, b *Listing) int { return cmp.Compare(b.Price, a.Price) })
	default:
		slices.SortStableFunc(listings, func(a, b *Listing) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
}

// Query filters, sorts and paginates listings. The input slice is not
// modified. Listings are expected in insertion order, which breaks sort ties.
func Query(listings []*Listing, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	matched := make([]*Listing, 0, len(listings))
	for _, l := range listings {
		if Matches(l, p) {
			matched = append(matched, l)
		}
	}
	Sort(matched, p.SortBy)

	res := Result{
		Listings:     []*Listing{},
		Page:         p.Page,
		PageSize:     p.PageSize,
		TotalMatches: len(matched),
		TotalPages:   (len(matched) + p.PageSize - 1) / p.PageSize,
	}
	if p.Page < 1 || p.Page > res.TotalPages {
		return res, nil
	}

	start := (p.Page - 1) * p.PageSize
	end := min(start+p.PageSize, len(matched))
	res.Listings = matched[start:end]
	return res, nil
}
