package spaced_repetition

import (
	"sort"

	"github.com/example/algorecall/pkg/models"
)

// DueItem is the minimal view of a problem needed to build a work queue
type DueItem struct {
	ID             string
	NextReviewDate models.Date
}

// IsDue reports whether an item scheduled for next is due on today.
// The boundary is inclusive.
func IsDue(next, today models.Date) bool {
	return !next.After(today)
}

// SelectDue returns the ids of the items due on today, earliest first.
// Items sharing a date keep their input order. items is not modified.
func SelectDue(items []DueItem, today models.Date) []string {
	due := FilterDue(items, func(it DueItem) models.Date { return it.NextReviewDate }, today)

	ids := make([]string, 0, len(due))
	for _, it := range due {
		ids = append(ids, it.ID)
	}
	return ids
}

// FilterDue is SelectDue for arbitrary records. dateOf extracts the next review date.
func FilterDue[T any](items []T, dateOf func(T) models.Date, today models.Date) []T {
	due := make([]T, 0, len(items))
	for _, it := range items {
		if IsDue(dateOf(it), today) {
			due = append(due, it)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return dateOf(due[i]).Before(dateOf(due[j]))
	})
	return due
}
