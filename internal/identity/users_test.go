package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/evcraddock/estate/internal/apperr"
	"github.com/evcraddock/estate/internal/db"
)

func testStore(t *testing.T) *UserStore {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	})
	return NewUserStore(d)
}

func TestAddAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u, err := s.Add(ctx, Profile{Email: " Ada@Example.com", Name: "Ada"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if u.Email != "ada@example.com" || u.Role != RoleUser || u.Status != StatusActive {
		t.Errorf("Add = %+v", u)
	}

	got, err := s.GetByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByEmail ID = %d, want %d", got.ID, u.ID)
	}

	if _, err := s.Add(ctx, Profile{Email: "ada@example.com", Name: "Again", Role: RoleUser}); !apperr.IsValidation(err) {
		t.Errorf("duplicate Add err = %v, want validation error", err)
	}
	if _, err := s.Add(ctx, Profile{Email: "", Name: "Nobody", Role: RoleUser}); !apperr.IsValidation(err) {
		t.Errorf("empty email err = %v, want validation error", err)
	}
	if _, err := s.Add(ctx, Profile{Email: "x@example.com", Name: "X", Role: "owner"}); !apperr.IsValidation(err) {
		t.Errorf("bad role err = %v, want validation error", err)
	}
	if _, err := s.GetByID(ctx, 9999); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Errorf("GetByID missing err = %v, want ErrUserNotFound", err)
	}
}

func TestUpsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.Upsert(ctx, Profile{Email: "root@x.com", Name: "Root", Role: RoleUser})
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Upsert(ctx, Profile{Email: "ROOT@x.com", Name: "Root Admin", Role: RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID || second.Role != RoleAdmin || second.Name != "Root Admin" {
		t.Errorf("Upsert = %+v", second)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestPhoneIsStoredAndKeptOnUpsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u, err := s.Add(ctx, Profile{Email: "ada@x.com", Name: "Ada", Phone: " +1 555 0101 "})
	if err != nil {
		t.Fatal(err)
	}
	if u.Phone != "+1 555 0101" {
		t.Errorf("Phone = %q", u.Phone)
	}

	u, err = s.Upsert(ctx, Profile{Email: "ada@x.com", Name: "Ada L"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Phone != "+1 555 0101" || u.Name != "Ada L" {
		t.Errorf("Upsert without phone = %+v, want phone kept", u)
	}

	u, err = s.Upsert(ctx, Profile{Email: "ada@x.com", Name: "Ada L", Phone: "+1 555 0199"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Phone != "+1 555 0199" {
		t.Errorf("Upsert with phone = %q", u.Phone)
	}
}

func TestListSearch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, p := range []Profile{
		{Email: "ada@x.com", Name: "Ada Lovelace"},
		{Email: "grace@navy.mil", Name: "Grace Hopper"},
		{Email: "under_score@x.com", Name: "Percent 100%"},
	} {
		if _, err := s.Add(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"", []string{"ada@x.com", "grace@navy.mil", "under_score@x.com"}},
		{"LOVELACE", []string{"ada@x.com"}},
		{"navy", []string{"grace@navy.mil"}},
		{"_", []string{"under_score@x.com"}},
		{"%", []string{"under_score@x.com"}},
		{"nobody", nil},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			users, err := s.List(ctx, tt.search)
			if err != nil {
				t.Fatal(err)
			}
			if len(users) != len(tt.want) {
				t.Fatalf("List(%q) = %d users, want %d", tt.search, len(users), len(tt.want))
			}
			for i, u := range users {
				if u.Email != tt.want[i] {
					t.Errorf("List(%q)[%d] = %s, want %s", tt.search, i, u.Email, tt.want[i])
				}
			}
		})
	}
}

func TestSetRole(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u, err := s.Add(ctx, Profile{Email: "ada@x.com", Name: "Ada"})
	if err != nil {
		t.Fatal(err)
	}

	promoted, err := s.SetRole(ctx, u.ID, RoleAdmin)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if promoted.Role != RoleAdmin {
		t.Errorf("Role = %s, want admin", promoted.Role)
	}

	p, err := s.Resolve(ctx, "ada@x.com", "")
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsAdmin() {
		t.Error("promoted user does not resolve as admin")
	}

	if _, err := s.SetRole(ctx, u.ID, "owner"); !apperr.IsValidation(err) {
		t.Errorf("bad role err = %v, want validation error", err)
	}
	if _, err := s.SetRole(ctx, 9999, RoleUser); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Errorf("missing user err = %v, want ErrUserNotFound", err)
	}
}

func TestListSetStatusDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	b, err := s.Add(ctx, Profile{Email: "b@x.com", Name: "B", Role: RoleUser})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, Profile{Email: "a@x.com", Name: "A", Role: RoleAdmin}); err != nil {
		t.Fatal(err)
	}

	users, err := s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[0].Email != "a@x.com" {
		t.Errorf("List = %v", users)
	}

	banned, err := s.SetStatus(ctx, b.ID, StatusBanned)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if banned.Status != StatusBanned {
		t.Errorf("Status = %s", banned.Status)
	}
	if _, err := s.SetStatus(ctx, b.ID, "suspended"); !apperr.IsValidation(err) {
		t.Errorf("bad status err = %v", err)
	}

	if err := s.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, b.ID); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Errorf("second Delete err = %v, want ErrUserNotFound", err)
	}
}

func TestResolve(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	admin, err := s.Add(ctx, Profile{Email: "root@x.com", Name: "Root", Role: RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	target, err := s.Add(ctx, Profile{Email: "bad@x.com", Name: "Bad", Role: RoleUser})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetStatus(ctx, target.ID, StatusBanned); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		email      string
		wantRole   Role
		wantStatus Status
		wantID     int64
		anonymous  bool
	}{
		{name: "empty", email: "  ", anonymous: true},
		{name: "directory admin", email: "ROOT@x.com", wantRole: RoleAdmin, wantStatus: StatusActive, wantID: admin.ID},
		{name: "banned user", email: "bad@x.com", wantRole: RoleUser, wantStatus: StatusBanned, wantID: target.ID},
		{name: "unknown email acts as user", email: "new@x.com", wantRole: RoleUser, wantStatus: StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := s.Resolve(ctx, tt.email, "Someone")
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if tt.anonymous {
				if !p.IsAnonymous() {
					t.Errorf("Resolve = %+v, want anonymous", p)
				}
				return
			}
			if p.Role != tt.wantRole || p.Status != tt.wantStatus || p.ID != tt.wantID {
				t.Errorf("Resolve = %+v", p)
			}
		})
	}
}
