// Package resolver normalizes provider-specific task payloads into the
// canonical status model. Each provider family gets one StatusResolver
// strategy; the factory selects it by an explicit enumerated mapping.
package resolver

import (
	"time"

	"sprintlens/internal/tracker"
)

// StatusResolver interprets one provider family's raw task payload.
// Implementations must be total: malformed or missing fields yield the
// documented defaults and a warning log, never an error or panic.
type StatusResolver interface {
	IsCompleted(t tracker.Task) bool
	// IsBurndownable reports whether the task counts toward sprint
	// scope at all (subtasks and cancelled work do not).
	IsBurndownable(t tracker.Task) bool
	CompletionDate(t tracker.Task) *time.Time
	// StartDate is the first transition into an in-progress-like
	// state. Resolvers return nil when nothing is recorded; Annotate
	// falls back to the task creation time for completed work.
	StartDate(t tracker.Task) *time.Time
	Category(t tracker.Task) tracker.StatusCategory
	StoryPoints(t tracker.Task) float64
	// StatusHistory returns the chronological canonical transitions
	// used for cumulative-flow reconstruction. May be empty.
	StatusHistory(t tracker.Task) []tracker.StatusChange
}

// Annotate returns a copy of t with the canonical fields filled in by
// the resolver. The input task is never mutated. The completion flag
// and status category are reconciled so a task is completed exactly
// when its category is done.
func Annotate(r StatusResolver, t tracker.Task) tracker.Task {
	out := t

	out.Completed = r.IsCompleted(t)
	out.Category = r.Category(t)
	if out.Completed {
		out.Category = tracker.StatusDone
	} else if out.Category == tracker.StatusDone {
		out.Completed = true
	}

	out.Points = r.StoryPoints(t)
	out.CompletionDate = r.CompletionDate(t)
	out.StartDate = r.StartDate(t)
	if out.StartDate == nil && out.Completed && !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		out.StartDate = &created
	}
	out.History = r.StatusHistory(t)

	return out
}

// AnnotateAll maps Annotate over a slice, returning fresh copies.
func AnnotateAll(r StatusResolver, tasks []tracker.Task) []tracker.Task {
	out := make([]tracker.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Annotate(r, t))
	}
	return out
}
