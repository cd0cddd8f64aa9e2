package charts

import (
	"testing"

	"sprintlens/internal/tracker"
)

func TestCycleTimeDistribution(t *testing.T) {
	tasks := []tracker.Task{
		{ID: "A", Completed: true, StartDate: tsPtr(day(1)), CompletionDate: tsPtr(day(3))}, // 2 days
		{ID: "B", Completed: true, StartDate: tsPtr(day(1)), CompletionDate: tsPtr(day(5))}, // 4 days
		{ID: "C", Completed: true, StartDate: tsPtr(day(2)), CompletionDate: tsPtr(day(8))}, // 6 days
		{ID: "D", Completed: true, CompletionDate: tsPtr(day(4))},                           // missing start: excluded
		{ID: "E", Completed: false},                                                         // open: ignored entirely
	}

	res := CycleTime(tasks)

	if got := res.Metadata["sample_size"]; got != 3 {
		t.Errorf("Sample size = %v, want 3", got)
	}
	if got := res.Metadata["excluded"]; got != 1 {
		t.Errorf("Excluded = %v, want 1", got)
	}
	if got := res.Metadata["mean_days"]; got != 4.0 {
		t.Errorf("Mean = %v, want 4", got)
	}
	if got := res.Metadata["median_days"]; got != 4.0 {
		t.Errorf("Median = %v, want 4", got)
	}

	if len(res.Series) != 1 || len(res.Series[0].Points) != 3 {
		t.Fatalf("Expected one series with 3 control-chart points, got %+v", res.Series)
	}
	if res.Series[0].Points[0].Label != "A" || res.Series[0].Points[0].Value != 2 {
		t.Errorf("Per-task point mismatch: %+v", res.Series[0].Points[0])
	}
}

func TestCycleTimeEmpty(t *testing.T) {
	res := CycleTime(nil)
	if got := res.Metadata["mean_days"]; got != 0.0 {
		t.Errorf("Empty mean = %v, want 0", got)
	}
	if got := res.Metadata["sample_size"]; got != 0 {
		t.Errorf("Empty sample size = %v, want 0", got)
	}
}
