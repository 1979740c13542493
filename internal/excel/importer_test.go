package excel

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/algorecall/internal/database"
	"github.com/example/algorecall/internal/tracker"
	"github.com/xuri/excelize/v2"
)

const testUser int64 = 42

func newTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	db, err := database.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	now := func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return tracker.New(db, tracker.WithLocation(time.UTC), tracker.WithClock(now))
}

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", cellName, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "problems.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestImportFileExcel(t *testing.T) {
	tr := newTracker(t)
	path := writeWorkbook(t, [][]string{
		{"Topic", "Name", "Link"},
		{"Arrays", "Two Sum", "https://leetcode.com/problems/two-sum"},
		{"Graphs", "Course Schedule", "https://leetcode.com/problems/course-schedule"},
		{"Graphs", "Bad Link", "not a url"},
		{"Arrays", "Two Sum", "https://leetcode.com/problems/two-sum"},
	})

	result, err := NewImporter(tr).ImportFile(context.Background(), testUser, path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if result.TotalProcessed != 4 || result.Created != 2 || result.Skipped != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Row 4:") {
		t.Errorf("errors = %v", result.Errors)
	}

	problems, err := tr.Problems(context.Background(), testUser)
	if err != nil || len(problems) != 2 {
		t.Fatalf("Problems = %d, %v", len(problems), err)
	}
	for _, p := range problems {
		if p.NextReviewDate.String() != "2025-06-16" || p.IntervalDays != 1 {
			t.Errorf("%s scheduled %s/%d", p.Name, p.NextReviewDate, p.IntervalDays)
		}
	}
}

func TestImportReaderCSVTopicGroups(t *testing.T) {
	tr := newTracker(t)
	data := `Topic,Name,Link
Dynamic Programming,,
,Climbing Stairs,https://leetcode.com/problems/climbing-stairs
,House Robber,https://leetcode.com/problems/house-robber

Trees,Invert Binary Tree,https://leetcode.com/problems/invert-binary-tree
`
	result, err := NewImporter(tr).ImportReader(context.Background(), testUser, strings.NewReader(data), ".CSV")
	if err != nil {
		t.Fatalf("ImportReader: %v", err)
	}
	if result.Created != 3 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}

	p, err := tr.FindByName(context.Background(), testUser, "House Robber")
	if err != nil {
		t.Fatal(err)
	}
	if p.Topic != "Dynamic Programming" {
		t.Errorf("topic = %q", p.Topic)
	}
}

func TestImportReaderCustomColumns(t *testing.T) {
	tr := newTracker(t)
	data := "https://leetcode.com/problems/lru-cache,LRU Cache,Design\n"
	im := NewImporter(tr).WithConfig(ImportConfig{
		TopicColumn: "C",
		NameColumn:  "B",
		LinkColumn:  "A",
		StartRow:    1,
	})
	result, err := im.ImportReader(context.Background(), testUser, bytes.NewBufferString(data), ".csv")
	if err != nil || result.Created != 1 {
		t.Fatalf("result = %+v, err = %v", result, err)
	}
}

func TestImportReaderUnsupportedType(t *testing.T) {
	if _, err := NewImporter(newTracker(t)).ImportReader(context.Background(), testUser, strings.NewReader(""), ".txt"); err == nil {
		t.Error("expected an error for .txt")
	}
}

func TestColumnToIndex(t *testing.T) {
	for col, want := range map[string]int{"A": 0, "c": 2, "Z": 25, "AA": 26, "AB": 27} {
		if got := columnToIndex(col); got != want {
			t.Errorf("columnToIndex(%q) = %d, want %d", col, got, want)
		}
	}
}
