// Package spaced_repetition decides when a tracked problem is next due.
//
// Growth follows a fixed bootstrap (1 day, then 3 days) followed by a
// constant multiplier on the previous interval. There are no ease factors.
package spaced_repetition

import (
	"errors"
	"fmt"
	"math"

	"github.com/example/algorecall/pkg/models"
)

const (
	// InitialInterval is the interval of a new problem and of any failed review
	InitialInterval = 1
	// SecondInterval is used on the second consecutive success
	SecondInterval = 3
	// GrowthFactor multiplies the previous interval from the third consecutive success on
	GrowthFactor = 2.2
)

// ErrInvalidArgument is returned for negative streaks, non-positive intervals and zero dates
var ErrInvalidArgument = errors.New("spaced_repetition: invalid argument")

// ReviewState is the schedule of a problem after a review
type ReviewState struct {
	IntervalDays   int         `json:"interval"`
	CorrectStreak  int         `json:"correct_streak"`
	NextReviewDate models.Date `json:"next_review_date"`
}

// InitialSchedule returns the schedule of a problem created on today
func InitialSchedule(today models.Date) (ReviewState, error) {
	if today.IsZero() {
		return ReviewState{}, fmt.Errorf("%w: today is not a valid date", ErrInvalidArgument)
	}
	return resetState(today), nil
}

// ComputeNextState returns the schedule that follows a review on today.
//
// A failed review always resets the problem to a one-day interval. On success
// the streak grows by one; the first two successes use fixed intervals and
// priorInterval is only consulted from the third success on, where it is
// multiplied by GrowthFactor and rounded half away from zero.
func ComputeNextState(remembered bool, priorStreak, priorInterval int, today models.Date) (ReviewState, error) {
	if err := validate(priorStreak, priorInterval, today); err != nil {
		return ReviewState{}, err
	}

	if !remembered {
		return resetState(today), nil
	}

	streak := priorStreak + 1
	interval := nextInterval(streak, priorInterval)

	return ReviewState{
		IntervalDays:   interval,
		CorrectStreak:  streak,
		NextReviewDate: today.AddDays(interval),
	}, nil
}

func nextInterval(streak, priorInterval int) int {
	switch streak {
	case 1:
		return InitialInterval
	case 2:
		return SecondInterval
	}
	// priorInterval*22 is always even, so the product never lands on .5
	// and the rounding mode does not change the result.
	return int(math.Round(float64(priorInterval) * GrowthFactor))
}

func resetState(today models.Date) ReviewState {
	return ReviewState{
		IntervalDays:   InitialInterval,
		CorrectStreak:  0,
		NextReviewDate: today.AddDays(InitialInterval),
	}
}

func validate(priorStreak, priorInterval int, today models.Date) error {
	if priorStreak < 0 {
		return fmt.Errorf("%w: prior streak %d is negative", ErrInvalidArgument, priorStreak)
	}
	if priorInterval < 1 {
		return fmt.Errorf("%w: prior interval %d is less than 1", ErrInvalidArgument, priorInterval)
	}
	if today.IsZero() {
		return fmt.Errorf("%w: today is not a valid date", ErrInvalidArgument)
	}
	return nil
}
