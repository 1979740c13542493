package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/algorecall/internal/spaced_repetition"
	"github.com/example/algorecall/pkg/models"
	"github.com/jmoiron/sqlx"
)

const problemColumns = `id, user_id, topic, problem_name, problem_link,
	last_review_date, next_review_date, correct_streak, interval_days, created_at`

// ProblemRepository handles database operations for tracked problems
type ProblemRepository struct {
	db *sqlx.DB
}

// NewProblemRepository creates a new repository instance
func NewProblemRepository(db *sqlx.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

// Create inserts a new problem
func (r *ProblemRepository) Create(ctx context.Context, p *models.Problem) error {
	query := `
		INSERT INTO problems (` + problemColumns + `)
		VALUES (:id, :user_id, :topic, :problem_name, :problem_link,
			:last_review_date, :next_review_date, :correct_streak, :interval_days, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("problem %q: %w", p.Name, ErrDuplicate)
		}
		return fmt.Errorf("failed to create problem: %w", err)
	}
	return nil
}

// GetByID returns a problem owned by userID
func (r *ProblemRepository) GetByID(ctx context.Context, userID int64, id string) (*models.Problem, error) {
	var p models.Problem
	query := r.db.Rebind(`SELECT ` + problemColumns + ` FROM problems WHERE id = ? AND user_id = ?`)
	err := r.db.GetContext(ctx, &p, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("problem %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}
	return &p, nil
}

// FindByName returns a problem by its exact display name
func (r *ProblemRepository) FindByName(ctx context.Context, userID int64, name string) (*models.Problem, error) {
	var p models.Problem
	query := r.db.Rebind(`SELECT ` + problemColumns + ` FROM problems WHERE user_id = ? AND problem_name = ?`)
	err := r.db.GetContext(ctx, &p, query, userID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("problem %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}
	return &p, nil
}

// ListByUser returns all problems of a user, newest first
func (r *ProblemRepository) ListByUser(ctx context.Context, userID int64) ([]models.Problem, error) {
	problems := []models.Problem{}
	query := r.db.Rebind(`
		SELECT ` + problemColumns + `
		FROM problems
		WHERE user_id = ?
		ORDER BY created_at DESC, id ASC
	`)
	if err := r.db.SelectContext(ctx, &problems, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	return problems, nil
}

// ListDue returns the problems due on today, earliest first, then oldest first
func (r *ProblemRepository) ListDue(ctx context.Context, userID int64, today models.Date) ([]models.Problem, error) {
	problems := []models.Problem{}
	query := r.db.Rebind(`
		SELECT ` + problemColumns + `
		FROM problems
		WHERE user_id = ? AND next_review_date <= ?
		ORDER BY next_review_date ASC, created_at ASC, id ASC
	`)
	if err := r.db.SelectContext(ctx, &problems, query, userID, today); err != nil {
		return nil, fmt.Errorf("failed to get due problems: %w", err)
	}
	return problems, nil
}

// CountDue returns how many problems are due on today
func (r *ProblemRepository) CountDue(ctx context.Context, userID int64, today models.Date) (int, error) {
	var n int
	query := r.db.Rebind(`SELECT COUNT(*) FROM problems WHERE user_id = ? AND next_review_date <= ?`)
	if err := r.db.GetContext(ctx, &n, query, userID, today); err != nil {
		return 0, fmt.Errorf("failed to count due problems: %w", err)
	}
	return n, nil
}

// ApplyReview replaces the schedule of p with next and records log, in one transaction.
//
// The update only matches while the row still carries the schedule in p, so a
// review computed from an outdated copy of the problem gets ErrConflict and
// nothing is written. On success p is updated in place.
func (r *ProblemRepository) ApplyReview(ctx context.Context, p *models.Problem, next spaced_repetition.ReviewState, log *models.ReviewLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`
		UPDATE problems SET
			last_review_date = ?,
			next_review_date = ?,
			correct_streak = ?,
			interval_days = ?
		WHERE id = ? AND user_id = ?
			AND correct_streak = ? AND interval_days = ? AND next_review_date = ?
	`)
	result, err := tx.ExecContext(ctx, query,
		log.ReviewedOn,
		next.NextReviewDate,
		next.CorrectStreak,
		next.IntervalDays,
		p.ID,
		p.UserID,
		p.CorrectStreak,
		p.IntervalDays,
		p.NextReviewDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update problem: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("problem %s: %w", p.ID, ErrConflict)
	}

	if err := insertReviewLog(ctx, tx, log); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	p.LastReviewDate = log.ReviewedOn
	p.NextReviewDate = next.NextReviewDate
	p.CorrectStreak = next.CorrectStreak
	p.IntervalDays = next.IntervalDays
	return nil
}

// UpdateDetails changes the topic, name and link of a problem
func (r *ProblemRepository) UpdateDetails(ctx context.Context, p *models.Problem) error {
	query := r.db.Rebind(`
		UPDATE problems
		SET topic = ?, problem_name = ?, problem_link = ?
		WHERE id = ? AND user_id = ?
	`)
	result, err := r.db.ExecContext(ctx, query, p.Topic, p.Name, p.Link, p.ID, p.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("problem %q: %w", p.Name, ErrDuplicate)
		}
		return fmt.Errorf("failed to update problem: %w", err)
	}
	return expectOneRow(result, "problem "+p.ID)
}

// Delete removes a problem and its review history
func (r *ProblemRepository) Delete(ctx context.Context, userID int64, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete related review logs
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM review_logs WHERE problem_id = ? AND user_id = ?"), id, userID); err != nil {
		return fmt.Errorf("failed to delete review logs: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM problems WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete problem: %w", err)
	}
	if err := expectOneRow(result, "problem "+id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func expectOneRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
