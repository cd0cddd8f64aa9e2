package charts

import (
	"time"

	"sprintlens/internal/tracker"
)

// CycleTime computes per-task elapsed days between start and completion
// for completed work, as control-chart points plus mean and median.
// Completed tasks missing either date are excluded from the
// distribution but reported in the "excluded" metadata field rather
// than silently dropped.
func CycleTime(tasks []tracker.Task) ChartResponse {
	perTask := Series{Name: "cycle_time"}

	var values []float64
	excluded := 0
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		if t.StartDate == nil || t.CompletionDate == nil {
			excluded++
			continue
		}

		days := t.CompletionDate.Sub(*t.StartDate).Hours() / 24.0
		if days < 0 {
			excluded++
			continue
		}

		ts := *t.CompletionDate
		perTask.Points = append(perTask.Points, Point{Timestamp: &ts, Value: days, Label: t.ID})
		values = append(values, days)
	}

	return ChartResponse{
		ChartType: ChartCycleTime,
		Title:     "Cycle Time",
		Series:    []Series{perTask},
		Metadata: map[string]any{
			"mean_days":   Mean(values),
			"median_days": Median(values),
			"sample_size": len(values),
			"excluded":    excluded,
		},
		GeneratedAt: time.Now().UTC(),
	}
}
