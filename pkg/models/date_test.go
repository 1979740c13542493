package models

import (
	"testing"
	"time"
)

func TestDateOfUsesLocalCalendarDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2025-03-01 01:30 in Tokyo is still Feb 28 in UTC
	ts := time.Date(2025, 3, 1, 1, 30, 0, 0, tokyo)
	if got := DateOf(ts).String(); got != "2025-03-01" {
		t.Errorf("DateOf = %s, want 2025-03-01", got)
	}
	if got := DateOf(ts.UTC()).String(); got != "2025-02-28" {
		t.Errorf("DateOf(UTC) = %s, want 2025-02-28", got)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, 2, 28)
	if got := d.AddDays(1).String(); got != "2024-02-29" {
		t.Errorf("leap day = %s", got)
	}
	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Errorf("after leap day = %s", got)
	}
	if got := d.AddDays(-59).String(); got != "2023-12-31" {
		t.Errorf("backwards = %s", got)
	}
	if n := d.DaysUntil(d.AddDays(15)); n != 15 {
		t.Errorf("DaysUntil = %d, want 15", n)
	}
	if n := d.DaysUntil(d.AddDays(-3)); n != -3 {
		t.Errorf("DaysUntil = %d, want -3", n)
	}
}

func TestDateCompare(t *testing.T) {
	a, b := NewDate(2025, 1, 1), NewDate(2025, 1, 2)
	if !a.Before(b) || b.Before(a) || !b.After(a) || a.Equal(b) || !a.Equal(NewDate(2025, 1, 1)) {
		t.Error("date ordering is wrong")
	}
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Error("Compare is wrong")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-07-04")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !d.Equal(NewDate(2025, 7, 4)) {
		t.Errorf("ParseDate = %s", d)
	}
	for _, bad := range []string{"", "2025-13-01", "04/07/2025", "2025-02-30"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestDateScan(t *testing.T) {
	want := NewDate(2025, 5, 9)
	inputs := []interface{}{
		"2025-05-09",
		[]byte("2025-05-09"),
		"2025-05-09T00:00:00Z",
		time.Date(2025, 5, 9, 18, 0, 0, 0, time.UTC),
	}
	for _, in := range inputs {
		var d Date
		if err := d.Scan(in); err != nil {
			t.Errorf("Scan(%v): %v", in, err)
			continue
		}
		if !d.Equal(want) {
			t.Errorf("Scan(%v) = %s, want %s", in, d, want)
		}
	}

	var d Date
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Errorf("Scan(nil) = %s, %v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}

func TestDateValue(t *testing.T) {
	v, err := NewDate(2025, 10, 1).Value()
	if err != nil || v != "2025-10-01" {
		t.Errorf("Value = %v, %v", v, err)
	}
	v, err = Date{}.Value()
	if err != nil || v != nil {
		t.Errorf("zero Value = %v, %v", v, err)
	}
}
