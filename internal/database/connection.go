package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/algorecall/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect opens the database described by cfg, initializes the schema and stores the handle in DB
func Connect(cfg *config.Config) error {
	driver, err := DriverName(cfg.DBType)
	if err != nil {
		return err
	}

	if driver == "sqlite3" && !isMemoryDSN(cfg.DatabaseURL) {
		// Create data directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(cfg.DatabaseURL), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := Open(driver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// DriverName maps a DB_TYPE value to a database/sql driver name
func DriverName(dbType string) (string, error) {
	switch dbType {
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	case "postgres", "postgresql":
		return "postgres", nil
	}
	return "", fmt.Errorf("unsupported database type %q", dbType)
}

// Open connects with the given driver and creates the schema if needed
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// Enable foreign keys
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers; a single connection also
		// keeps :memory: databases alive for the lifetime of the handle
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// schema is written in the subset of SQL shared by SQLite and PostgreSQL.
// Dates are YYYY-MM-DD text so they compare correctly as strings.
var schema = []struct {
	name string
	stmt string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"problems", `
		CREATE TABLE IF NOT EXISTS problems (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			topic TEXT NOT NULL,
			problem_name TEXT NOT NULL,
			problem_link TEXT NOT NULL,
			last_review_date TEXT,
			next_review_date TEXT NOT NULL,
			correct_streak INTEGER NOT NULL DEFAULT 0,
			interval_days INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, problem_name)
		)`},
	{"problems due index", `
		CREATE INDEX IF NOT EXISTS idx_problems_user_next_review
		ON problems (user_id, next_review_date)`},
	{"review_logs", `
		CREATE TABLE IF NOT EXISTS review_logs (
			id TEXT PRIMARY KEY,
			problem_id TEXT NOT NULL REFERENCES problems(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL,
			remembered BOOLEAN NOT NULL,
			reviewed_on TEXT NOT NULL,
			correct_streak INTEGER NOT NULL,
			interval_days INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"review_logs user index", `
		CREATE INDEX IF NOT EXISTS idx_review_logs_user_reviewed_on
		ON review_logs (user_id, reviewed_on)`},
}

// InitSchema creates necessary tables if they don't exist
func InitSchema(db *sqlx.DB) error {
	for _, s := range schema {
		if _, err := db.Exec(s.stmt); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.name, err)
		}
	}
	return nil
}
