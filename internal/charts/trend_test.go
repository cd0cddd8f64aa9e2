package charts

import (
	"testing"
	"time"

	"sprintlens/internal/tracker"
)

func TestIssueTrendBuckets(t *testing.T) {
	window := NewAnalysisWindow(day(1), day(7), "day")

	tasks := []tracker.Task{
		{ID: "A", CreatedAt: day(1).Add(9 * time.Hour)},
		{ID: "B", CreatedAt: day(1).Add(15 * time.Hour), Completed: true, CompletionDate: tsPtr(day(4))},
		{ID: "C", CreatedAt: day(3), Completed: true, CompletionDate: tsPtr(day(4).Add(2 * time.Hour))},
		{ID: "D", CreatedAt: day(20)}, // outside the window
	}

	res := IssueTrend(tasks, window)

	var created, resolved Series
	for _, s := range res.Series {
		switch s.Name {
		case "created":
			created = s
		case "resolved":
			resolved = s
		}
	}

	if len(created.Points) != 7 || len(resolved.Points) != 7 {
		t.Fatalf("Expected 7 aligned buckets, got %d/%d", len(created.Points), len(resolved.Points))
	}
	if created.Points[0].Value != 2 {
		t.Errorf("Day 1 created = %v, want 2", created.Points[0].Value)
	}
	if created.Points[2].Value != 1 {
		t.Errorf("Day 3 created = %v, want 1", created.Points[2].Value)
	}
	if resolved.Points[3].Value != 2 {
		t.Errorf("Day 4 resolved = %v, want 2", resolved.Points[3].Value)
	}
	if got := res.Metadata["total_created"]; got != 3.0 {
		t.Errorf("Total created = %v, want 3 (out-of-window task excluded)", got)
	}
	if got := res.Metadata["net_change"]; got != 1.0 {
		t.Errorf("Net change = %v, want 1", got)
	}
}

func TestIssueTrendBucketsAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("Time zone database unavailable: %v", err)
	}

	// Clocks spring forward on March 8, so March 9 starts 23 elapsed
	// hours after March 8. Bucketing must follow calendar dates, not
	// elapsed time.
	window := NewAnalysisWindow(
		time.Date(2026, 3, 7, 0, 0, 0, 0, loc),
		time.Date(2026, 3, 10, 0, 0, 0, 0, loc),
		"day",
	)

	tasks := []tracker.Task{
		{ID: "A", CreatedAt: time.Date(2026, 3, 9, 10, 0, 0, 0, loc)},
	}

	res := IssueTrend(tasks, window)

	var created Series
	for _, s := range res.Series {
		if s.Name == "created" {
			created = s
		}
	}
	if len(created.Points) != 4 {
		t.Fatalf("Expected 4 buckets, got %d", len(created.Points))
	}
	if created.Points[2].Value != 1 {
		t.Errorf("March 9 created = %v, want 1", created.Points[2].Value)
	}
	if created.Points[1].Value != 0 {
		t.Errorf("March 8 created = %v, want 0", created.Points[1].Value)
	}
}
