package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id           TEXT    PRIMARY KEY,
		title        TEXT    NOT NULL,
		description  TEXT    NOT NULL DEFAULT '',
		price        INTEGER NOT NULL CHECK (price >= 0),
		location     TEXT    NOT NULL DEFAULT '',
		category     TEXT    NOT NULL,
		type         TEXT    NOT NULL DEFAULT 'sale' CHECK (type IN ('sale', 'rent')),
		status       TEXT    NOT NULL DEFAULT 'Available' CHECK (status IN ('Available', 'Unavailable')),
		images       TEXT    NOT NULL DEFAULT '[]',
		bedrooms     INTEGER NOT NULL DEFAULT 0,
		bathrooms    INTEGER NOT NULL DEFAULT 0,
		area         INTEGER NOT NULL DEFAULT 0,
		parking      INTEGER NOT NULL DEFAULT 0,
		furnished    INTEGER NOT NULL DEFAULT 0,
		agent_name   TEXT    NOT NULL DEFAULT '',
		agent_email  TEXT    NOT NULL DEFAULT '',
		agent_phone  TEXT    NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id              TEXT     PRIMARY KEY,
		listing_id      TEXT     NOT NULL,
		requester_email TEXT     NOT NULL,
		requester_name  TEXT     NOT NULL DEFAULT '',
		notes           TEXT     NOT NULL DEFAULT '',
		status          TEXT     NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending', 'Confirmed', 'Cancelled')),
		created_at      DATETIME NOT NULL,
		updated_at      DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_requester ON bookings (requester_email)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		email      TEXT    NOT NULL UNIQUE,
		name       TEXT    NOT NULL DEFAULT '',
		role       TEXT    NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		status     TEXT    NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'banned')),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"users", "phone", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}

	exists := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			exists = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating columns: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing column info: %w", err)
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
