package models

import "time"

// ReviewLog records a single review outcome and the schedule it produced
type ReviewLog struct {
	ID            string    `json:"id" db:"id"`
	ProblemID     string    `json:"problem_id" db:"problem_id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	Remembered    bool      `json:"remembered" db:"remembered"`
	ReviewedOn    Date      `json:"reviewed_on" db:"reviewed_on"`
	CorrectStreak int       `json:"correct_streak" db:"correct_streak"`
	IntervalDays  int       `json:"interval" db:"interval_days"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
