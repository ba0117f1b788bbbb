package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/evcraddock/estate/internal/apperr"
)

func TestPrincipalChecks(t *testing.T) {
	tests := []struct {
		name       string
		p          Principal
		authErr    error
		activeErr  error
		adminErr   error
		wantsAdmin bool
	}{
		{"anonymous", Anonymous, apperr.ErrUnauthenticated, apperr.ErrUnauthenticated, apperr.ErrUnauthenticated, false},
		{"user", NewPrincipal("a@x.com", "A", RoleUser), nil, nil, apperr.ErrPermissionDenied, false},
		{"admin", NewPrincipal("root@x.com", "Root", RoleAdmin), nil, nil, nil, true},
		{"banned admin", Principal{Email: "root@x.com", Role: RoleAdmin, Status: StatusBanned},
			nil, apperr.ErrPermissionDenied, apperr.ErrPermissionDenied, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.RequireAuthenticated(); !errors.Is(err, tt.authErr) {
				t.Errorf("RequireAuthenticated = %v, want %v", err, tt.authErr)
			}
			if err := tt.p.RequireActive(); !errors.Is(err, tt.activeErr) {
				t.Errorf("RequireActive = %v, want %v", err, tt.activeErr)
			}
			if err := tt.p.RequireAdmin(); !errors.Is(err, tt.adminErr) {
				t.Errorf("RequireAdmin = %v, want %v", err, tt.adminErr)
			}
			if got := tt.p.IsAdmin(); got != tt.wantsAdmin {
				t.Errorf("IsAdmin = %v, want %v", got, tt.wantsAdmin)
			}
		})
	}
}

func TestNewPrincipalNormalizes(t *testing.T) {
	p := NewPrincipal("  Ada@Example.COM ", " Ada ", RoleUser)
	if p.Email != "ada@example.com" || p.Name != "Ada" || p.Status != StatusActive {
		t.Errorf("NewPrincipal = %+v", p)
	}
	if !p.Owns("ADA@example.com") {
		t.Error("Owns should ignore case")
	}
	if Anonymous.Owns("") {
		t.Error("anonymous should own nothing")
	}
}

func TestContextRoundTrip(t *testing.T) {
	if got := FromContext(context.Background()); !got.IsAnonymous() {
		t.Errorf("empty context principal = %+v, want anonymous", got)
	}

	p := NewPrincipal("a@x.com", "A", RoleAdmin)
	if got := FromContext(WithPrincipal(context.Background(), p)); got != p {
		t.Errorf("FromContext = %+v, want %+v", got, p)
	}
}
