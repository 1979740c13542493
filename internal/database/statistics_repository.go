package database

import (
	"context"
	"fmt"

	"github.com/example/algorecall/pkg/models"
	"github.com/jmoiron/sqlx"
)

// StatisticsRepository computes collection summaries
type StatisticsRepository struct {
	db   *sqlx.DB
	logs *ReviewLogRepository
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db, logs: NewReviewLogRepository(db)}
}

// Summary returns the dashboard numbers of a user as of today
func (r *StatisticsRepository) Summary(ctx context.Context, userID int64, today models.Date) (*models.Statistics, error) {
	stats := &models.Statistics{ByTopic: make(map[string]int)}

	var counts struct {
		Total        int `db:"total"`
		Due          int `db:"due"`
		WithProgress int `db:"with_progress"`
	}
	query := r.db.Rebind(`
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN next_review_date <= ? THEN 1 ELSE 0 END), 0) AS due,
			COALESCE(SUM(CASE WHEN correct_streak > 0 THEN 1 ELSE 0 END), 0) AS with_progress
		FROM problems
		WHERE user_id = ?
	`)
	if err := r.db.GetContext(ctx, &counts, query, today, userID); err != nil {
		return nil, fmt.Errorf("failed to get problem counts: %w", err)
	}
	stats.Total = counts.Total
	stats.Due = counts.Due
	stats.WithProgress = counts.WithProgress

	var topics []struct {
		Topic string `db:"topic"`
		Count int    `db:"cnt"`
	}
	query = r.db.Rebind(`SELECT topic, COUNT(*) AS cnt FROM problems WHERE user_id = ? GROUP BY topic`)
	if err := r.db.SelectContext(ctx, &topics, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get topic breakdown: %w", err)
	}
	for _, t := range topics {
		stats.ByTopic[t.Topic] = t.Count
	}

	total, remembered, err := r.logs.CountSince(ctx, userID, today.AddDays(-6))
	if err != nil {
		return nil, err
	}
	stats.ReviewsLast7Days = total
	stats.RememberedLast7 = remembered

	return stats, nil
}
