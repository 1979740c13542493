package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/algorecall/internal/config"
	"github.com/example/algorecall/internal/database"
	"github.com/example/algorecall/pkg/models"
	"github.com/go-co-op/gocron"
	"github.com/jmoiron/sqlx"
)

// reminderCron fires at the top of every hour
const reminderCron = "0 * * * *"

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	cfg       *config.Config
	users     *database.UserRepository
	problems  *database.ProblemRepository
	now       func() time.Time
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// Option customizes a Scheduler
type Option func(*Scheduler)

// WithClock replaces the wall clock used to pick the current hour and day
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a new scheduler instance
func New(cfg *config.Config, db *sqlx.DB, notifier Notifier, opts ...Option) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		notifier:  notifier,
		cfg:       cfg,
		users:     database.NewUserRepository(db),
		problems:  database.NewProblemRepository(db),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Cron(reminderCron).Do(s.checkAndSendReminders); err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	sent, err := s.SendDueReminders(context.Background())
	if err != nil {
		log.Printf("Error sending reminders: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("Sent %d review reminders", sent)
	}
}

// SendDueReminders notifies every user whose reminder hour is the current hour
// and who has problems due. It returns the number of reminders sent.
func (s *Scheduler) SendDueReminders(ctx context.Context) (int, error) {
	now := s.localNow()
	currentHour := now.Hour()

	if !s.cfg.InNotificationWindow(currentHour) {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, s.cfg.NotificationStartHour, s.cfg.NotificationEndHour)
		return 0, nil
	}

	users, err := s.users.ListForNotification(ctx, currentHour)
	if err != nil {
		return 0, fmt.Errorf("failed to get users for notification: %w", err)
	}

	today := models.DateOf(now)
	sent := 0
	for _, user := range users {
		count, err := s.problems.CountDue(ctx, user.ID, today)
		if err != nil {
			log.Printf("Error counting due problems for user %d: %v", user.ID, err)
			continue
		}
		if count == 0 {
			continue
		}
		if err := s.notifier.SendReminders(user.ID, count); err != nil {
			log.Printf("Error sending reminder to user %d: %v", user.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// RunManualCheck forces a check for a specific user, ignoring the reminder hour
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	count, err := s.problems.CountDue(ctx, userID, models.DateOf(s.localNow()))
	if err != nil {
		return err
	}
	if count > 0 {
		return s.notifier.SendReminders(userID, count)
	}
	return nil
}

func (s *Scheduler) localNow() time.Time {
	return s.now().In(s.scheduler.Location())
}
