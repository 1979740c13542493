package models

import "time"

// Problem is a coding-interview problem tracked by a user
type Problem struct {
	ID             string    `json:"id" db:"id"`           // UUID
	UserID         int64     `json:"user_id" db:"user_id"` // Telegram User ID
	Topic          string    `json:"topic" db:"topic"`
	Name           string    `json:"problem_name" db:"problem_name"`
	Link           string    `json:"problem_link" db:"problem_link"`
	LastReviewDate Date      `json:"last_review_date" db:"last_review_date"`
	NextReviewDate Date      `json:"next_review_date" db:"next_review_date"`
	CorrectStreak  int       `json:"correct_streak" db:"correct_streak"` // Consecutive successful reviews
	IntervalDays   int       `json:"interval" db:"interval_days"`        // Days until next review
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// HasProgress reports whether the problem has been remembered at least once since its last failure
func (p *Problem) HasProgress() bool {
	return p.CorrectStreak > 0
}
