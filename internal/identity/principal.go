// Package identity models the caller of an operation and the user directory
// that backs it. Authentication itself happens upstream.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/evcraddock/estate/internal/apperr"
)

// Headers set by the upstream authentication proxy.
const (
	EmailHeader = "X-User-Email"
	NameHeader  = "X-User-Name"
)

// Role is an explicit authority level; it is never inferred from an email.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid checks if a role is recognized.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Status is whether a user may act on the marketplace.
type Status string

const (
	StatusActive Status = "active"
	StatusBanned Status = "banned"
)

// IsValid checks if a user status is recognized.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusBanned
}

// Principal is the identity performing an operation. The zero value is anonymous.
type Principal struct {
	ID     int64  `json:"id,omitempty"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Status Status `json:"status"`
}

// Anonymous is the principal of an unauthenticated caller.
var Anonymous = Principal{}

// NewPrincipal builds an active principal, normalizing the email.
func NewPrincipal(email, name string, role Role) Principal {
	return Principal{
		Email:  NormalizeEmail(email),
		Name:   strings.TrimSpace(name),
		Role:   role,
		Status: StatusActive,
	}
}

// IsAnonymous reports whether no identity was supplied.
func (p Principal) IsAnonymous() bool {
	return p.Email == ""
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return !p.IsAnonymous() && p.Role == RoleAdmin
}

// Owns reports whether email belongs to the principal.
func (p Principal) Owns(email string) bool {
	return !p.IsAnonymous() && p.Email == NormalizeEmail(email)
}

// RequireAuthenticated fails for anonymous callers.
func (p Principal) RequireAuthenticated() error {
	if p.IsAnonymous() {
		return apperr.ErrUnauthenticated
	}
	return nil
}

// RequireActive fails for anonymous or banned callers.
func (p Principal) RequireActive() error {
	if err := p.RequireAuthenticated(); err != nil {
		return err
	}
	if p.Status == StatusBanned {
		return fmt.Errorf("%s is banned: %w", p.Email, apperr.ErrPermissionDenied)
	}
	return nil
}

// RequireAdmin fails unless the principal is an active admin.
func (p Principal) RequireAdmin() error {
	if err := p.RequireActive(); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return fmt.Errorf("admin role required: %w", apperr.ErrPermissionDenied)
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type contextKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(contextKey{}).(Principal); ok {
		return p
	}
	return Anonymous
}
