package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/algorecall/internal/tracker"
)

type cli struct {
	dbPath string
	env    string
	now    time.Time
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	return &cli{
		dbPath: filepath.Join(dir, "data", "recall.db"),
		env:    filepath.Join(dir, "missing.env"),
		now:    time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC),
	}
}

func (c *cli) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(func() time.Time { return c.now })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", c.dbPath, "--env", c.env, "--user", "5"}, args...))
	err := execute(context.Background(), root)
	return out.String(), err
}

func (c *cli) mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := c.run(t, stdin, args...)
	if err != nil {
		t.Fatalf("recallctl %v: %v\n%s", args, err, out)
	}
	return out
}

func TestAddDueAndReview(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "", "add", "Arrays", "Two Sum", "https://leetcode.com/problems/two-sum/")
	if !strings.Contains(out, "Added 'Two Sum' (Next review: 2025-06-16)") {
		t.Errorf("add = %q", out)
	}
	if _, err := c.run(t, "", "add", "Arrays", "Bad", "ftp://example.com"); !errors.Is(err, tracker.ErrInvalidProblem) {
		t.Errorf("add with bad link: err = %v", err)
	}
	if _, err := c.run(t, "", "add", "Arrays", "Two Sum", "https://leetcode.com/problems/two-sum/"); !errors.Is(err, tracker.ErrDuplicate) {
		t.Errorf("duplicate add: err = %v", err)
	}

	if out := c.mustRun(t, "", "due"); !strings.Contains(out, "No problems due today") {
		t.Errorf("due on day 0 = %q", out)
	}

	c.now = c.now.AddDate(0, 0, 1)
	if out := c.mustRun(t, "", "due"); !strings.Contains(out, "1 problems due today") || !strings.Contains(out, "Two Sum") {
		t.Errorf("due on day 1 = %q", out)
	}

	out = c.mustRun(t, "maybe\ny\n", "review")
	if !strings.Contains(out, "Please answer y, n, s or q") {
		t.Errorf("review did not reject bad input: %q", out)
	}
	if !strings.Contains(out, "Streak 1, next review in 1 days (2025-06-17)") {
		t.Errorf("review = %q", out)
	}
	if !strings.Contains(out, "1 remembered, 0 forgot, 0 skipped (100% done)") {
		t.Errorf("review summary = %q", out)
	}

	if out := c.mustRun(t, "", "history", "Two Sum"); !strings.Contains(out, "2025-06-16  remembered  1") {
		t.Errorf("history = %q", out)
	}
}

func TestReviewQuitAndForgot(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "", "add", "Graphs", "Clone Graph", "https://leetcode.com/problems/clone-graph/")
	c.mustRun(t, "", "add", "Graphs", "Course Schedule", "https://leetcode.com/problems/course-schedule/")
	c.now = c.now.AddDate(0, 0, 2)

	out := c.mustRun(t, "n\nq\n", "review")
	if !strings.Contains(out, "0 remembered, 1 forgot, 0 skipped (50% done)") {
		t.Errorf("review = %q", out)
	}

	// the forgotten problem moved to tomorrow, the other one is still due
	if out := c.mustRun(t, "", "list", "--upcoming"); strings.Count(out, "Graphs") != 1 {
		t.Errorf("upcoming = %q", out)
	}
	if out := c.mustRun(t, "", "review"); !strings.Contains(out, "[1/1]") {
		t.Errorf("second review = %q", out)
	}
}

func TestEditListDeleteStats(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "", "add", "Arrays", "Two Sum", "https://leetcode.com/problems/two-sum/")

	if out := c.mustRun(t, "", "edit", "Two Sum", "--topic", "Hashing"); !strings.Contains(out, "[Hashing]") {
		t.Errorf("edit = %q", out)
	}
	if out := c.mustRun(t, "", "list"); !strings.Contains(out, "Hashing") || !strings.Contains(out, "2025-06-16") {
		t.Errorf("list = %q", out)
	}
	out := c.mustRun(t, "", "stats")
	if !strings.Contains(out, "Total Problems:  1") || !strings.Contains(out, "Hashing: 1") {
		t.Errorf("stats = %q", out)
	}

	if out := c.mustRun(t, "", "delete", "Two Sum"); !strings.Contains(out, "Deleted 'Two Sum'") {
		t.Errorf("delete = %q", out)
	}
	if _, err := c.run(t, "", "delete", "Two Sum"); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func TestImportCSV(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(t.TempDir(), "problems.csv")
	data := "Topic,Name,Link\n" +
		"Trees,Invert Binary Tree,https://leetcode.com/problems/invert-binary-tree/\n" +
		"Trees,Same Tree,https://leetcode.com/problems/same-tree/\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	out := c.mustRun(t, "", "import", path)
	if !strings.Contains(out, "Processed 2 rows: 2 added, 0 already tracked, 0 errors") {
		t.Errorf("import = %q", out)
	}
	out = c.mustRun(t, "", "import", path)
	if !strings.Contains(out, "0 added, 2 already tracked") {
		t.Errorf("second import = %q", out)
	}
}

func TestHintWithoutKey(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "", "add", "Arrays", "Two Sum", "https://leetcode.com/problems/two-sum/")
	if _, err := c.run(t, "", "hint", "Two Sum"); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("hint without key: err = %v", err)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "", "add", "Arrays", "Two Sum", "https://leetcode.com/problems/two-sum/")

	root := newRootCmd(func() time.Time { return c.now })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--db", c.dbPath, "--env", c.env, "--user", "6", "list"})
	if err := execute(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "Two Sum") {
		t.Errorf("user 6 sees user 5's problems: %q", out.String())
	}
}
