package charts

import (
	"time"

	"sprintlens/internal/tracker"
)

// cfdBands fixes the stacking order of the cumulative flow diagram.
var cfdBands = []tracker.StatusCategory{
	tracker.StatusDone,
	tracker.StatusInProgress,
	tracker.StatusBlocked,
	tracker.StatusTodo,
}

// CumulativeFlow reconstructs the per-day population of each status
// category across the window. Tasks without history hold their current
// category constant since creation; completed tasks count as done from
// their completion date onward, which keeps the done band
// non-decreasing day over day.
func CumulativeFlow(tasks []tracker.Task, window AnalysisWindow) ChartResponse {
	days := window.Subdivide()

	series := make(map[tracker.StatusCategory]*Series, len(cfdBands))
	for _, band := range cfdBands {
		series[band] = &Series{Name: string(band)}
	}

	for _, dayStart := range days {
		dayEnd := SnapToEnd(dayStart, "day")
		counts := make(map[tracker.StatusCategory]int, len(cfdBands))

		for _, t := range tasks {
			// Item must be born by the end of this day.
			if t.CreatedAt.After(dayEnd) {
				continue
			}
			counts[categoryAt(t, dayEnd)]++
		}

		ts := dayStart
		label := window.GenerateLabel(dayStart)
		for _, band := range cfdBands {
			series[band].Points = append(series[band].Points, Point{
				Timestamp: &ts,
				Value:     float64(counts[band]),
				Label:     label,
			})
		}
	}

	out := make([]Series, 0, len(cfdBands))
	for _, band := range cfdBands {
		out = append(out, *series[band])
	}

	return ChartResponse{
		ChartType: ChartCumulativeFlow,
		Title:     "Cumulative Flow",
		Series:    out,
		Metadata: map[string]any{
			"total_tasks": len(tasks),
			"days":        len(days),
		},
		GeneratedAt: time.Now().UTC(),
	}
}

// categoryAt reconstructs a task's category at a point in time. The
// done band only ever counts tasks past their effective completion
// instant, so it cannot shrink on later days.
func categoryAt(t tracker.Task, ts time.Time) tracker.StatusCategory {
	if done := effectiveCompletion(t); done != nil && !done.After(ts) {
		return tracker.StatusDone
	}

	current := t.Category
	if len(t.History) > 0 {
		// History is sorted chronologically; the first entry's
		// category applies from creation, so default to todo before it.
		current = tracker.StatusTodo
		for _, ch := range t.History {
			if ch.At.After(ts) {
				break
			}
			current = ch.Category
		}
	}

	// A done reading before the effective completion instant is either
	// a reopened item or a history/date mismatch; both read as in
	// progress so the done band stays monotone.
	if current == tracker.StatusDone {
		return tracker.StatusInProgress
	}
	return current
}

// effectiveCompletion is the instant from which a completed task counts
// as done: the completion date when recorded, else the last done
// transition, else the creation time. Incomplete tasks have none.
func effectiveCompletion(t tracker.Task) *time.Time {
	if !t.Completed {
		return nil
	}
	if t.CompletionDate != nil {
		return t.CompletionDate
	}
	for i := len(t.History) - 1; i >= 0; i-- {
		if t.History[i].Category == tracker.StatusDone {
			at := t.History[i].At
			return &at
		}
	}
	created := t.CreatedAt
	return &created
}
