package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// Sentinel errors surfaced by lookups. The API layer maps these to stable
// error codes.
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrHoldNotFound   = errors.New("hold not found")
)

// DB wraps sql.DB for the reservation orchestrator.
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// NewDB opens the database at path and runs migrations. Pass ":memory:" for
// an in-memory database in tests.
func NewDB(path string, logger zerolog.Logger) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{DB: db, logger: logger.With().Str("component", "database").Logger()}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id TEXT PRIMARY KEY,
			slug TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'active',
			contact_email TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS dining_tables (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			capacity INTEGER NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,

		// One row per tenant-local day of week (0 = Sunday .. 6 = Saturday).
		`CREATE TABLE IF NOT EXISTS business_hours (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			day_of_week INTEGER NOT NULL,
			is_open BOOLEAN NOT NULL DEFAULT 1,
			open_time TEXT NOT NULL,
			close_time TEXT NOT NULL,
			UNIQUE (tenant_id, day_of_week),
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,

		// Secondary fallback for business hours: per-tenant operational
		// settings holding a JSON day-of-week -> window map.
		`CREATE TABLE IF NOT EXISTS operational_settings (
			tenant_id TEXT PRIMARY KEY,
			hours_json TEXT NOT NULL DEFAULT '{}',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			booking_time DATETIME NOT NULL,
			party_size INTEGER NOT NULL,
			guest_name TEXT NOT NULL,
			guest_email TEXT NOT NULL,
			guest_phone TEXT,
			special_requests TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			duration_minutes INTEGER NOT NULL DEFAULT 120,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,

		`CREATE TABLE IF NOT EXISTS holds (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			booking_time DATETIME NOT NULL,
			party_size INTEGER NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 120,
			session_id TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,

		// Write-once per (tenant, key); the unique constraint resolves the
		// race between concurrent requests carrying the same key.
		`CREATE TABLE IF NOT EXISTS idempotency_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			idempotency_key TEXT NOT NULL,
			request_id TEXT NOT NULL,
			status_code INTEGER NOT NULL,
			response_body BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (tenant_id, idempotency_key)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_tenants_slug ON tenants(slug, status)`,
		`CREATE INDEX IF NOT EXISTS idx_tables_tenant ON dining_tables(tenant_id, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_tenant_time ON bookings(tenant_id, booking_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_guest ON bookings(tenant_id, guest_email, booking_time)`,
		`CREATE INDEX IF NOT EXISTS idx_holds_tenant ON holds(tenant_id, expires_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
