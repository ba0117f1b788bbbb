package identity

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

// User is an entry in the user directory.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal returns the identity the user acts as.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, Status: u.Status}
}

// UserStore manages the user directory in SQLite.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = "id, email, name, phone, role, status, created_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &u.Status, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Profile is the caller-supplied part of a directory entry.
type Profile struct {
	Email string
	Name  string
	Phone string
	Role  Role
}

func (p Profile) normalize() (Profile, error) {
	p.Email = NormalizeEmail(p.Email)
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.Email == "" {
		return p, apperr.Invalid("email", "is required")
	}
	if p.Role == "" {
		p.Role = RoleUser
	}
	if !p.Role.IsValid() {
		return p, apperr.Invalid("role", "must be user or admin, got %q", p.Role)
	}
	return p, nil
}

// Add registers a new user. An empty role defaults to RoleUser.
func (s *UserStore) Add(ctx context.Context, p Profile) (*User, error) {
	p, err := p.normalize()
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, phone, role) VALUES (?, ?, ?, ?)",
		p.Email, p.Name, p.Phone, string(p.Role),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, apperr.Invalid("email", "user already exists: %s", p.Email)
		}
		return nil, fmt.Errorf("adding user: %w", db.Classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Upsert creates the user or updates the profile of an existing one.
// An empty phone keeps the stored one.
func (s *UserStore) Upsert(ctx context.Context, p Profile) (*User, error) {
	p, err := p.normalize()
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, phone, role) VALUES (?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
		   name = excluded.name,
		   role = excluded.role,
		   phone = CASE WHEN excluded.phone = '' THEN users.phone ELSE excluded.phone END`,
		p.Email, p.Name, p.Phone, string(p.Role),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", db.Classify(err))
	}

	return s.GetByEmail(ctx, p.Email)
}

// List returns users ordered by email. A non-empty search keeps users whose
// name or email contains it, case-insensitively.
func (s *UserStore) List(ctx context.Context, search string) (users []*User, err error) {
	query := "SELECT " + userColumns + " FROM users"
	var args []interface{}
	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`
		pattern := "%" + likeEscaper.Replace(search) + "%"
		args = append(args, pattern, pattern)
	}
	query += " ORDER BY email"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", db.Classify(err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	users = []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Count returns the number of registered users.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", db.Classify(err))
	}
	return n, nil
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, apperr.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", db.Classify(err))
	}
	return u, nil
}

// GetByEmail returns a user by email, case-insensitively.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, apperr.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", db.Classify(err))
	}
	return u, nil
}

// SetStatus bans or reactivates a user.
func (s *UserStore) SetStatus(ctx context.Context, id int64, status Status) (*User, error) {
	if !status.IsValid() {
		return nil, apperr.Invalid("status", "must be active or banned, got %q", status)
	}

	result, err := s.db.ExecContext(ctx, "UPDATE users SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return nil, fmt.Errorf("updating user status: %w", db.Classify(err))
	}
	if err := requireUserRow(result, id); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// SetRole promotes a user to admin or demotes them to user.
func (s *UserStore) SetRole(ctx context.Context, id int64, role Role) (*User, error) {
	if !role.IsValid() {
		return nil, apperr.Invalid("role", "must be user or admin, got %q", role)
	}

	result, err := s.db.ExecContext(ctx, "UPDATE users SET role = ? WHERE id = ?", string(role), id)
	if err != nil {
		return nil, fmt.Errorf("updating user role: %w", db.Classify(err))
	}
	if err := requireUserRow(result, id); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// Delete removes a user by ID. Their bookings are kept.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", db.Classify(err))
	}
	return requireUserRow(result, id)
}

// Resolve returns the principal for an upstream-authenticated email.
// Emails missing from the directory act as active users.
func (s *UserStore) Resolve(ctx context.Context, email, name string) (Principal, error) {
	if NormalizeEmail(email) == "" {
		return Anonymous, nil
	}
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrUserNotFound) {
		return NewPrincipal(email, name, RoleUser), nil
	}
	if err != nil {
		return Anonymous, err
	}
	return u.Principal(), nil
}

func requireUserRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d: %w", id, apperr.ErrUserNotFound)
	}
	return nil
}
