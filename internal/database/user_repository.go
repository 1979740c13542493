package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/algorecall/pkg/models"
	"github.com/jmoiron/sqlx"
)

const userColumns = "id, username, first_name, notification_enabled, notification_hour, created_at"

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates the user or refreshes its Telegram profile fields.
// Notification settings of an existing user are left untouched.
func (r *UserRepository) Upsert(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, username, first_name, notification_enabled, notification_hour)
		VALUES (:id, :username, :first_name, :notification_enabled, :notification_hour)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name
	`
	if _, err := r.db.NamedExecContext(ctx, query, u); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// EnsureExists creates a bare user row with default settings when none exists
func (r *UserRepository) EnsureExists(ctx context.Context, id int64) error {
	query := r.db.Rebind(`INSERT INTO users (id) VALUES (?) ON CONFLICT (id) DO NOTHING`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	err := r.db.GetContext(ctx, &u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &u, nil
}

// SetNotifications updates the reminder settings of a user
func (r *UserRepository) SetNotifications(ctx context.Context, id int64, enabled bool, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("notification hour %d out of range", hour)
	}
	query := r.db.Rebind(`UPDATE users SET notification_enabled = ?, notification_hour = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, enabled, hour, id)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	return expectOneRow(result, fmt.Sprintf("user %d", id))
}

// ListForNotification returns users with reminders enabled at the given hour
func (r *UserRepository) ListForNotification(ctx context.Context, hour int) ([]models.User, error) {
	users := []models.User{}
	query := r.db.Rebind(`
		SELECT ` + userColumns + `
		FROM users
		WHERE notification_enabled = ? AND notification_hour = ?
		ORDER BY id
	`)
	if err := r.db.SelectContext(ctx, &users, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}
