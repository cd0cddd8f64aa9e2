package tracker

import (
	"encoding/json"
	"time"
)

// StatusCategory is the provider-agnostic normalization target for a
// task's workflow state.
type StatusCategory string

const (
	StatusTodo       StatusCategory = "todo"
	StatusInProgress StatusCategory = "in_progress"
	StatusDone       StatusCategory = "done"
	StatusBlocked    StatusCategory = "blocked"
)

// Valid reports whether c is one of the four canonical categories.
func (c StatusCategory) Valid() bool {
	switch c {
	case StatusTodo, StatusInProgress, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// StatusChange is one step in a task's canonical status history.
type StatusChange struct {
	Category StatusCategory `json:"category"`
	At       time.Time      `json:"at"`
}

// Task is the canonical projection of a single work item. Raw carries
// the untouched provider payload so resolvers can introspect it; the
// canonical fields (Category, Completed, Points, dates, History) are
// filled in by a resolver on a copy, never in place.
type Task struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Raw            json.RawMessage `json:"-"`
	Category       StatusCategory  `json:"category"`
	Completed      bool            `json:"completed"`
	Points         float64         `json:"points"`
	CreatedAt      time.Time       `json:"created_at"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	CompletionDate *time.Time      `json:"completion_date,omitempty"`
	AssigneeID     string          `json:"assignee_id,omitempty"`
	SprintID       string          `json:"sprint_id,omitempty"`
	Priority       string          `json:"priority,omitempty"`
	Type           string          `json:"type,omitempty"`
	EstimatedHours float64         `json:"estimated_hours,omitempty"`
	ActualHours    float64         `json:"actual_hours,omitempty"`
	History        []StatusChange  `json:"history,omitempty"`
}

// Sprint is the canonical projection of a sprint or iteration.
type Sprint struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Capacity  float64   `json:"capacity"`
	Goal      string    `json:"goal,omitempty"`
	State     string    `json:"state,omitempty"`
}

// DurationDays returns the sprint length in whole calendar days,
// never less than 1.
func (s Sprint) DurationDays() int {
	days := int(s.EndDate.Sub(s.StartDate).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// ScopeChangeType distinguishes additions from removals.
type ScopeChangeType string

const (
	ScopeAdded   ScopeChangeType = "added"
	ScopeRemoved ScopeChangeType = "removed"
)

// ScopeChangeEvent records a task entering or leaving a sprint's
// committed backlog after sprint start. Events are derived by the
// adapter from membership deltas; they are never provider data.
type ScopeChangeEvent struct {
	TaskID     string          `json:"task_id"`
	SprintID   string          `json:"sprint_id"`
	Change     ScopeChangeType `json:"change"`
	PointDelta float64         `json:"point_delta"`
	At         time.Time       `json:"at"`
}
