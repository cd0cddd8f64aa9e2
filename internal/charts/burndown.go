package charts

import (
	"time"

	"sprintlens/internal/tracker"
)

// Burndown builds the three burndown series for one sprint: the ideal
// linear depletion, the actual remaining work re-evaluated at each day
// boundary, and the scope line tracking committed capacity as scope
// changes shift the baseline.
//
// Capacity is the sprint's declared budget; when the sprint carries
// none, the summed weight of the committed tasks serves instead.
func Burndown(sprint tracker.Sprint, tasks []tracker.Task, scopeChanges []tracker.ScopeChangeEvent, scopeType string) ChartResponse {
	if scopeType == "" {
		scopeType = "points"
	}

	burndownable := make([]tracker.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.SprintID == sprint.ID {
			burndownable = append(burndownable, t)
		}
	}

	capacity := sprint.Capacity
	if capacity == 0 || scopeType == "count" {
		capacity = 0
		for _, t := range burndownable {
			capacity += scopeWeight(t, scopeType)
		}
	}

	window := NewAnalysisWindow(sprint.StartDate, sprint.EndDate, "day")
	days := window.Subdivide()

	ideal := Series{Name: "ideal"}
	actual := Series{Name: "actual"}
	scope := Series{Name: "scope"}

	n := len(days)
	completedTotal := 0.0
	for i, dayStart := range days {
		dayEnd := SnapToEnd(dayStart, "day")
		ts := dayStart
		label := window.GenerateLabel(dayStart)

		// Ideal: linear from capacity to zero across the sprint.
		idealValue := 0.0
		if n > 1 {
			idealValue = capacity * float64(n-1-i) / float64(n-1)
		}
		ideal.Points = append(ideal.Points, Point{Timestamp: &ts, Value: idealValue, Label: label})

		// Actual: capacity minus everything completed by end of day.
		completed := 0.0
		for _, t := range burndownable {
			if t.Completed && t.CompletionDate != nil && !t.CompletionDate.After(dayEnd) {
				completed += scopeWeight(t, scopeType)
			}
		}
		actual.Points = append(actual.Points, Point{Timestamp: &ts, Value: capacity - completed, Label: label})
		if i == n-1 {
			completedTotal = completed
		}

		// Scope: the committed baseline shifted by every change up to
		// end of day. Kept separate from the ideal line.
		scopeValue := capacity
		for _, ev := range scopeChanges {
			if ev.At.After(dayEnd) {
				continue
			}
			delta := ev.PointDelta
			if scopeType == "count" {
				delta = 1
			}
			if ev.Change == tracker.ScopeRemoved {
				scopeValue -= delta
			} else {
				scopeValue += delta
			}
		}
		scope.Points = append(scope.Points, Point{Timestamp: &ts, Value: scopeValue, Label: label})
	}

	completedCount := 0
	for _, t := range burndownable {
		if t.Completed {
			completedCount++
		}
	}

	return ChartResponse{
		ChartType: ChartBurndown,
		Title:     "Sprint Burndown: " + sprint.Name,
		Series:    []Series{ideal, actual, scope},
		Metadata: map[string]any{
			"sprint_id":       sprint.ID,
			"capacity":        capacity,
			"scope_type":      scopeType,
			"total_tasks":     len(burndownable),
			"completed_tasks": completedCount,
			"completed_total": completedTotal,
			"scope_changes":   len(scopeChanges),
		},
		GeneratedAt: time.Now().UTC(),
	}
}
