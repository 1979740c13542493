package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/algorecall/internal/config"
	"github.com/example/algorecall/internal/spaced_repetition"
	"github.com/example/algorecall/pkg/models"
	"github.com/jmoiron/sqlx"
)

var (
	d0  = models.NewDate(2025, 6, 15)
	ts0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
)

const testUser int64 = 1001

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := NewUserRepository(db).EnsureExists(context.Background(), testUser); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	return db
}

func newProblem(id, name string, next models.Date, created time.Time) *models.Problem {
	return &models.Problem{
		ID:             id,
		UserID:         testUser,
		Topic:          "Arrays",
		Name:           name,
		Link:           "https://leetcode.com/problems/" + id,
		LastReviewDate: next.AddDays(-1),
		NextReviewDate: next,
		CorrectStreak:  0,
		IntervalDays:   1,
		CreatedAt:      created,
	}
}

func mustCreate(t *testing.T, repo *ProblemRepository, p *models.Problem) {
	t.Helper()
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create(%s): %v", p.ID, err)
	}
}

func TestDriverName(t *testing.T) {
	for in, want := range map[string]string{"sqlite": "sqlite3", "postgres": "postgres", "postgresql": "postgres"} {
		got, err := DriverName(in)
		if err != nil || got != want {
			t.Errorf("DriverName(%s) = %s, %v", in, got, err)
		}
	}
	if _, err := DriverName("oracle"); err == nil {
		t.Error("DriverName(oracle) should fail")
	}
}

func TestConnectCreatesDataDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{DBType: "sqlite", DatabaseURL: dir + "/nested/recall.db"}
	if err := Connect(cfg); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer func() {
		Close()
		DB = nil
	}()
	if err := DB.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := InitSchema(db); err != nil {
		t.Errorf("second InitSchema: %v", err)
	}
}

func TestProblemCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewProblemRepository(newTestDB(t))

	p := newProblem("p1", "Two Sum", d0.AddDays(1), ts0)
	mustCreate(t, repo, p)

	got, err := repo.GetByID(ctx, testUser, "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Two Sum" || got.Topic != "Arrays" || got.Link != p.Link {
		t.Errorf("got %+v", got)
	}
	if !got.NextReviewDate.Equal(d0.AddDays(1)) || !got.LastReviewDate.Equal(d0) {
		t.Errorf("dates = %s / %s", got.LastReviewDate, got.NextReviewDate)
	}
	if got.IntervalDays != 1 || got.CorrectStreak != 0 {
		t.Errorf("schedule = %d / %d", got.IntervalDays, got.CorrectStreak)
	}

	if _, err := repo.GetByID(ctx, testUser+1, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other user's problem: err = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, testUser, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing problem: err = %v, want ErrNotFound", err)
	}

	byName, err := repo.FindByName(ctx, testUser, "Two Sum")
	if err != nil || byName.ID != "p1" {
		t.Errorf("FindByName = %v, %v", byName, err)
	}
}

func TestProblemCreateDuplicateName(t *testing.T) {
	repo := NewProblemRepository(newTestDB(t))
	mustCreate(t, repo, newProblem("p1", "Two Sum", d0, ts0))

	err := repo.Create(context.Background(), newProblem("p2", "Two Sum", d0, ts0))
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestProblemListOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewProblemRepository(newTestDB(t))

	mustCreate(t, repo, newProblem("a", "A", d0.AddDays(1), ts0))
	mustCreate(t, repo, newProblem("b", "B", d0.AddDays(-2), ts0.Add(time.Hour)))
	mustCreate(t, repo, newProblem("c", "C", d0, ts0.Add(2*time.Hour)))
	mustCreate(t, repo, newProblem("d", "D", d0.AddDays(-1), ts0.Add(3*time.Hour)))

	all, err := repo.ListByUser(ctx, testUser)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if got := ids(all); got != "d,c,b,a" {
		t.Errorf("ListByUser order = %s, want newest first", got)
	}

	due, err := repo.ListDue(ctx, testUser, d0)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if got := ids(due); got != "b,d,c" {
		t.Errorf("ListDue order = %s, want b,d,c", got)
	}

	n, err := repo.CountDue(ctx, testUser, d0)
	if err != nil || n != 3 {
		t.Errorf("CountDue = %d, %v", n, err)
	}
}

func ids(ps []models.Problem) string {
	s := ""
	for i, p := range ps {
		if i > 0 {
			s += ","
		}
		s += p.ID
	}
	return s
}

func TestApplyReview(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewProblemRepository(db)
	logs := NewReviewLogRepository(db)

	p := newProblem("p1", "Two Sum", d0, ts0)
	mustCreate(t, repo, p)

	next, err := spaced_repetition.ComputeNextState(true, p.CorrectStreak, p.IntervalDays, d0)
	if err != nil {
		t.Fatal(err)
	}
	log := &models.ReviewLog{
		ID: "r1", ProblemID: p.ID, UserID: testUser, Remembered: true, ReviewedOn: d0,
		CorrectStreak: next.CorrectStreak, IntervalDays: next.IntervalDays, CreatedAt: ts0,
	}
	if err := repo.ApplyReview(ctx, p, next, log); err != nil {
		t.Fatalf("ApplyReview: %v", err)
	}
	if p.CorrectStreak != 1 || !p.NextReviewDate.Equal(d0.AddDays(1)) || !p.LastReviewDate.Equal(d0) {
		t.Errorf("in-memory problem not updated: %+v", p)
	}

	stored, _ := repo.GetByID(ctx, testUser, "p1")
	if stored.CorrectStreak != 1 || stored.IntervalDays != 1 || !stored.NextReviewDate.Equal(d0.AddDays(1)) {
		t.Errorf("stored problem = %+v", stored)
	}

	history, err := logs.ListByProblem(ctx, testUser, "p1")
	if err != nil || len(history) != 1 || !history[0].Remembered || history[0].CorrectStreak != 1 {
		t.Errorf("history = %+v, %v", history, err)
	}
}

func TestApplyReviewStaleSnapshotConflicts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewProblemRepository(db)

	mustCreate(t, repo, newProblem("p1", "Two Sum", d0, ts0))

	// two reviewers read the same snapshot
	first, _ := repo.GetByID(ctx, testUser, "p1")
	second, _ := repo.GetByID(ctx, testUser, "p1")

	apply := func(p *models.Problem, remembered bool, logID string) error {
		next, err := spaced_repetition.ComputeNextState(remembered, p.CorrectStreak, p.IntervalDays, d0)
		if err != nil {
			t.Fatal(err)
		}
		return repo.ApplyReview(ctx, p, next, &models.ReviewLog{
			ID: logID, ProblemID: p.ID, UserID: testUser, Remembered: remembered, ReviewedOn: d0,
			CorrectStreak: next.CorrectStreak, IntervalDays: next.IntervalDays, CreatedAt: ts0,
		})
	}

	if err := apply(first, true, "r1"); err != nil {
		t.Fatalf("first review: %v", err)
	}
	if err := apply(second, false, "r2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("second review: err = %v, want ErrConflict", err)
	}

	stored, _ := repo.GetByID(ctx, testUser, "p1")
	if stored.CorrectStreak != 1 {
		t.Errorf("losing review leaked into the row: %+v", stored)
	}
	history, _ := NewReviewLogRepository(db).ListByProblem(ctx, testUser, "p1")
	if len(history) != 1 {
		t.Errorf("history has %d entries, want 1", len(history))
	}
}

func TestUpdateDetailsAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewProblemRepository(db)

	p := newProblem("p1", "Two Sum", d0, ts0)
	mustCreate(t, repo, p)
	mustCreate(t, repo, newProblem("p2", "3Sum", d0, ts0))

	p.Topic, p.Name = "Hashing", "Two Sum II"
	if err := repo.UpdateDetails(ctx, p); err != nil {
		t.Fatalf("UpdateDetails: %v", err)
	}
	got, _ := repo.GetByID(ctx, testUser, "p1")
	if got.Topic != "Hashing" || got.Name != "Two Sum II" {
		t.Errorf("after update: %+v", got)
	}

	p.Name = "3Sum"
	if err := repo.UpdateDetails(ctx, p); !errors.Is(err, ErrDuplicate) {
		t.Errorf("rename onto existing name: err = %v", err)
	}

	if err := NewReviewLogRepository(db).Create(ctx, &models.ReviewLog{
		ID: "r1", ProblemID: "p1", UserID: testUser, ReviewedOn: d0, IntervalDays: 1, CreatedAt: ts0,
	}); err != nil {
		t.Fatalf("Create log: %v", err)
	}

	if err := repo.Delete(ctx, testUser, "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, testUser, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted problem still readable: %v", err)
	}
	if err := repo.Delete(ctx, testUser, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: err = %v, want ErrNotFound", err)
	}
	history, _ := NewReviewLogRepository(db).ListByProblem(ctx, testUser, "p1")
	if len(history) != 0 {
		t.Errorf("history survived delete: %+v", history)
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u := &models.User{ID: 7, Username: "ada", FirstName: "Ada", NotificationEnabled: true, NotificationHour: 9}
	if err := repo.Upsert(ctx, u); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.SetNotifications(ctx, 7, true, 18); err != nil {
		t.Fatalf("SetNotifications: %v", err)
	}

	// a profile refresh must not reset the reminder hour
	u.Username = "ada_l"
	if err := repo.Upsert(ctx, u); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	got, err := repo.GetByID(ctx, 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Username != "ada_l" || got.NotificationHour != 18 || !got.NotificationEnabled {
		t.Errorf("user = %+v", got)
	}

	at18, err := repo.ListForNotification(ctx, 18)
	if err != nil || len(at18) != 1 || at18[0].ID != 7 {
		t.Errorf("ListForNotification(18) = %+v, %v", at18, err)
	}
	if at9, _ := repo.ListForNotification(ctx, 9); len(at9) != 0 {
		t.Errorf("ListForNotification(9) = %+v", at9)
	}

	if err := repo.SetNotifications(ctx, 7, false, 18); err != nil {
		t.Fatal(err)
	}
	if at18, _ := repo.ListForNotification(ctx, 18); len(at18) != 0 {
		t.Errorf("disabled user still listed: %+v", at18)
	}

	if err := repo.SetNotifications(ctx, 7, true, 24); err == nil {
		t.Error("hour 24 should be rejected")
	}
	if err := repo.SetNotifications(ctx, 999, true, 8); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
	if _, err := repo.GetByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestStatisticsSummary(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	problems := NewProblemRepository(db)
	logs := NewReviewLogRepository(db)

	p1 := newProblem("p1", "Two Sum", d0.AddDays(-1), ts0)
	p1.CorrectStreak = 2
	p2 := newProblem("p2", "Merge Intervals", d0.AddDays(3), ts0)
	p2.Topic = "Intervals"
	p3 := newProblem("p3", "3Sum", d0, ts0)
	for _, p := range []*models.Problem{p1, p2, p3} {
		mustCreate(t, problems, p)
	}

	for i, l := range []struct {
		on         models.Date
		remembered bool
	}{
		{d0, true},
		{d0.AddDays(-6), false},
		{d0.AddDays(-7), true}, // outside the window
	} {
		err := logs.Create(ctx, &models.ReviewLog{
			ID: fmt.Sprintf("r%d", i), ProblemID: "p1", UserID: testUser, Remembered: l.remembered,
			ReviewedOn: l.on, CorrectStreak: 1, IntervalDays: 1, CreatedAt: ts0,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	stats, err := NewStatisticsRepository(db).Summary(ctx, testUser, d0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if stats.Total != 3 || stats.Due != 2 || stats.WithProgress != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.ByTopic["Arrays"] != 2 || stats.ByTopic["Intervals"] != 1 {
		t.Errorf("ByTopic = %v", stats.ByTopic)
	}
	if stats.ReviewsLast7Days != 2 || stats.RememberedLast7 != 1 {
		t.Errorf("reviews = %d/%d", stats.RememberedLast7, stats.ReviewsLast7Days)
	}
	if rate := stats.SuccessRate(); rate != 50 {
		t.Errorf("SuccessRate = %v", rate)
	}
}
