package database

import (
	"context"
	"fmt"

	"github.com/example/algorecall/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ReviewLogRepository handles database operations for review history
type ReviewLogRepository struct {
	db *sqlx.DB
}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository(db *sqlx.DB) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

func insertReviewLog(ctx context.Context, ext sqlx.ExtContext, l *models.ReviewLog) error {
	query := `
		INSERT INTO review_logs (id, problem_id, user_id, remembered, reviewed_on, correct_streak, interval_days, created_at)
		VALUES (:id, :problem_id, :user_id, :remembered, :reviewed_on, :correct_streak, :interval_days, :created_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, l); err != nil {
		return fmt.Errorf("failed to create review log: %w", err)
	}
	return nil
}

// Create inserts a review log outside of a review transaction
func (r *ReviewLogRepository) Create(ctx context.Context, l *models.ReviewLog) error {
	return insertReviewLog(ctx, r.db, l)
}

// ListByProblem returns the review history of a problem, most recent first
func (r *ReviewLogRepository) ListByProblem(ctx context.Context, userID int64, problemID string) ([]models.ReviewLog, error) {
	logs := []models.ReviewLog{}
	query := r.db.Rebind(`
		SELECT id, problem_id, user_id, remembered, reviewed_on, correct_streak, interval_days, created_at
		FROM review_logs
		WHERE user_id = ? AND problem_id = ?
		ORDER BY created_at DESC, reviewed_on DESC
	`)
	if err := r.db.SelectContext(ctx, &logs, query, userID, problemID); err != nil {
		return nil, fmt.Errorf("failed to get review logs: %w", err)
	}
	return logs, nil
}

// CountSince returns the number of reviews on or after since, and how many were remembered
func (r *ReviewLogRepository) CountSince(ctx context.Context, userID int64, since models.Date) (total, remembered int, err error) {
	var row struct {
		Total      int `db:"total"`
		Remembered int `db:"remembered"`
	}
	query := r.db.Rebind(`
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN remembered THEN 1 ELSE 0 END), 0) AS remembered
		FROM review_logs
		WHERE user_id = ? AND reviewed_on >= ?
	`)
	if err := r.db.GetContext(ctx, &row, query, userID, since); err != nil {
		return 0, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return row.Total, row.Remembered, nil
}
