// Package tracker is the application layer: it reads problem state from
// storage, runs the scheduler and writes the result back.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/example/algorecall/internal/database"
	"github.com/example/algorecall/internal/spaced_repetition"
	"github.com/example/algorecall/pkg/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrInvalidProblem is returned when a problem's topic, name or link is unusable
	ErrInvalidProblem = errors.New("tracker: invalid problem")
	// ErrNotFound is returned for unknown problems
	ErrNotFound = database.ErrNotFound
	// ErrDuplicate is returned when the user already tracks a problem with the same name
	ErrDuplicate = database.ErrDuplicate
	// ErrConcurrentReview is returned when another review of the same problem won the race
	ErrConcurrentReview = database.ErrConflict
)

// minIDPrefix is the shortest id prefix Resolve accepts
const minIDPrefix = 4

// ProblemStore is the persistence the tracker needs for problems
type ProblemStore interface {
	Create(ctx context.Context, p *models.Problem) error
	GetByID(ctx context.Context, userID int64, id string) (*models.Problem, error)
	FindByName(ctx context.Context, userID int64, name string) (*models.Problem, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Problem, error)
	ListDue(ctx context.Context, userID int64, today models.Date) ([]models.Problem, error)
	ApplyReview(ctx context.Context, p *models.Problem, next spaced_repetition.ReviewState, log *models.ReviewLog) error
	UpdateDetails(ctx context.Context, p *models.Problem) error
	Delete(ctx context.Context, userID int64, id string) error
}

// Tracker manages a user's problem collection
type Tracker struct {
	problems ProblemStore
	users    *database.UserRepository
	logs     *database.ReviewLogRepository
	stats    *database.StatisticsRepository

	now      func() time.Time
	location *time.Location
}

// Option customizes a Tracker
type Option func(*Tracker)

// WithClock replaces the wall clock, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the time zone that decides which calendar day is "today"
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.location = loc
		}
	}
}

// New creates a Tracker over db
func New(db *sqlx.DB, opts ...Option) *Tracker {
	t := &Tracker{
		problems: database.NewProblemRepository(db),
		users:    database.NewUserRepository(db),
		logs:     database.NewReviewLogRepository(db),
		stats:    database.NewStatisticsRepository(db),
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Today returns the current calendar day in the tracker's location
func (t *Tracker) Today() models.Date {
	return models.DateOf(t.now().In(t.location))
}

// AddProblem starts tracking a problem. It is first due tomorrow.
func (t *Tracker) AddProblem(ctx context.Context, userID int64, topic, name, link string) (*models.Problem, error) {
	topic, name, link = strings.TrimSpace(topic), strings.TrimSpace(name), strings.TrimSpace(link)
	if err := ValidateProblem(topic, name, link); err != nil {
		return nil, err
	}

	today := t.Today()
	schedule, err := spaced_repetition.InitialSchedule(today)
	if err != nil {
		return nil, err
	}

	if err := t.users.EnsureExists(ctx, userID); err != nil {
		return nil, err
	}

	p := &models.Problem{
		ID:             uuid.NewString(),
		UserID:         userID,
		Topic:          topic,
		Name:           name,
		Link:           link,
		LastReviewDate: today,
		NextReviewDate: schedule.NextReviewDate,
		CorrectStreak:  schedule.CorrectStreak,
		IntervalDays:   schedule.IntervalDays,
		CreatedAt:      t.now().UTC(),
	}
	if err := t.problems.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Review records whether the user remembered a problem and reschedules it.
//
// seen is the problem as the user was shown it. The new schedule is computed
// from seen and only applied while the stored row still matches it, so an
// answer to a card that was reviewed elsewhere in the meantime fails with
// ErrConcurrentReview.
func (t *Tracker) Review(ctx context.Context, userID int64, seen *models.Problem, remembered bool) (*models.Problem, error) {
	if _, err := t.problems.GetByID(ctx, userID, seen.ID); err != nil {
		return nil, err
	}

	p := *seen
	p.UserID = userID

	today := t.Today()
	next, err := spaced_repetition.ComputeNextState(remembered, p.CorrectStreak, p.IntervalDays, today)
	if err != nil {
		return nil, fmt.Errorf("problem %s has an invalid schedule: %w", p.ID, err)
	}

	log := &models.ReviewLog{
		ID:            uuid.NewString(),
		ProblemID:     p.ID,
		UserID:        userID,
		Remembered:    remembered,
		ReviewedOn:    today,
		CorrectStreak: next.CorrectStreak,
		IntervalDays:  next.IntervalDays,
		CreatedAt:     t.now().UTC(),
	}
	if err := t.problems.ApplyReview(ctx, &p, next, log); err != nil {
		return nil, err
	}
	return &p, nil
}

// Problems returns every problem of the user, newest first
func (t *Tracker) Problems(ctx context.Context, userID int64) ([]models.Problem, error) {
	return t.problems.ListByUser(ctx, userID)
}

// DueQueue returns the problems due today, most overdue first. Problems due
// on the same day come in the order they were added.
func (t *Tracker) DueQueue(ctx context.Context, userID int64) ([]models.Problem, error) {
	today := t.Today()
	candidates, err := t.problems.ListDue(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	return spaced_repetition.FilterDue(candidates, nextReviewDate, today), nil
}

// Upcoming returns the problems that are not due yet, soonest first
func (t *Tracker) Upcoming(ctx context.Context, userID int64) ([]models.Problem, error) {
	all, err := t.problems.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := t.Today()
	upcoming := make([]models.Problem, 0, len(all))
	for _, p := range all {
		if !spaced_repetition.IsDue(p.NextReviewDate, today) {
			upcoming = append(upcoming, p)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].NextReviewDate.Before(upcoming[j].NextReviewDate)
	})
	return upcoming, nil
}

// Get returns a single problem
func (t *Tracker) Get(ctx context.Context, userID int64, problemID string) (*models.Problem, error) {
	return t.problems.GetByID(ctx, userID, problemID)
}

// FindByName returns a problem by its exact name
func (t *Tracker) FindByName(ctx context.Context, userID int64, name string) (*models.Problem, error) {
	return t.problems.FindByName(ctx, userID, strings.TrimSpace(name))
}

// Resolve finds a problem by its id, its exact name or a unique id prefix
func (t *Tracker) Resolve(ctx context.Context, userID int64, ref string) (*models.Problem, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty problem reference: %w", ErrNotFound)
	}

	p, err := t.problems.GetByID(ctx, userID, ref)
	if !errors.Is(err, ErrNotFound) {
		return p, err
	}
	p, err = t.problems.FindByName(ctx, userID, ref)
	if !errors.Is(err, ErrNotFound) {
		return p, err
	}

	if len(ref) < minIDPrefix {
		return nil, fmt.Errorf("problem %q: %w", ref, ErrNotFound)
	}
	all, err := t.problems.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var match *models.Problem
	for i := range all {
		if strings.HasPrefix(all[i].ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("problem %q is ambiguous: %w", ref, ErrNotFound)
			}
			match = &all[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("problem %q: %w", ref, ErrNotFound)
	}
	return match, nil
}

// Edit changes the descriptive fields of a problem. Empty arguments keep the current value.
func (t *Tracker) Edit(ctx context.Context, userID int64, problemID, topic, name, link string) (*models.Problem, error) {
	p, err := t.problems.GetByID(ctx, userID, problemID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(topic); v != "" {
		p.Topic = v
	}
	if v := strings.TrimSpace(name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(link); v != "" {
		p.Link = v
	}
	if err := ValidateProblem(p.Topic, p.Name, p.Link); err != nil {
		return nil, err
	}
	if err := t.problems.UpdateDetails(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete stops tracking a problem
func (t *Tracker) Delete(ctx context.Context, userID int64, problemID string) error {
	return t.problems.Delete(ctx, userID, problemID)
}

// History returns the review log of a problem, most recent first
func (t *Tracker) History(ctx context.Context, userID int64, problemID string) ([]models.ReviewLog, error) {
	if _, err := t.problems.GetByID(ctx, userID, problemID); err != nil {
		return nil, err
	}
	return t.logs.ListByProblem(ctx, userID, problemID)
}

// Stats returns the dashboard summary for today
func (t *Tracker) Stats(ctx context.Context, userID int64) (*models.Statistics, error) {
	return t.stats.Summary(ctx, userID, t.Today())
}

// ValidateProblem checks the user-supplied fields of a problem
func ValidateProblem(topic, name, link string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidProblem)
	}
	if name == "" {
		return fmt.Errorf("%w: problem name is required", ErrInvalidProblem)
	}
	if !IsValidLink(link) {
		return fmt.Errorf("%w: %q is not a valid http(s) link", ErrInvalidProblem, link)
	}
	return nil
}

// IsValidLink reports whether link is an absolute http or https URL
func IsValidLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func nextReviewDate(p models.Problem) models.Date {
	return p.NextReviewDate
}
