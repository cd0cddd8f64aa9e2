package charts

import (
	"time"

	"sprintlens/internal/tracker"
)

// IssueTrend buckets task creation and completion into days across a
// trailing window, producing two aligned series.
func IssueTrend(tasks []tracker.Task, window AnalysisWindow) ChartResponse {
	days := window.Subdivide()
	created := make([]float64, len(days))
	resolved := make([]float64, len(days))

	for _, t := range tasks {
		if i := dayIndex(window, days, t.CreatedAt); i >= 0 {
			created[i]++
		}
		if t.Completed && t.CompletionDate != nil {
			if i := dayIndex(window, days, *t.CompletionDate); i >= 0 {
				resolved[i]++
			}
		}
	}

	createdSeries := Series{Name: "created"}
	resolvedSeries := Series{Name: "resolved"}
	var totalCreated, totalResolved float64
	for i, dayStart := range days {
		ts := dayStart
		label := window.GenerateLabel(dayStart)
		createdSeries.Points = append(createdSeries.Points, Point{Timestamp: &ts, Value: created[i], Label: label})
		resolvedSeries.Points = append(resolvedSeries.Points, Point{Timestamp: &ts, Value: resolved[i], Label: label})
		totalCreated += created[i]
		totalResolved += resolved[i]
	}

	return ChartResponse{
		ChartType: ChartIssueTrend,
		Title:     "Issue Trend",
		Series:    []Series{createdSeries, resolvedSeries},
		Metadata: map[string]any{
			"days":           len(days),
			"total_created":  totalCreated,
			"total_resolved": totalResolved,
			"net_change":     totalCreated - totalResolved,
		},
		GeneratedAt: time.Now().UTC(),
	}
}

// dayIndex locates the bucket containing t, or -1 when out of range.
// Buckets are matched on snapped calendar dates, not elapsed hours, so
// a DST transition inside the window cannot shift an event into the
// neighboring day.
func dayIndex(window AnalysisWindow, days []time.Time, t time.Time) int {
	if t.Before(window.Start) || t.After(window.End) {
		return -1
	}
	day := SnapToStart(t.In(window.Start.Location()), "day")
	for i, bucket := range days {
		if bucket.Equal(day) {
			return i
		}
	}
	return -1
}
