// Package charts contains the pure calculators that turn canonical
// task and sprint datasets into chart-ready series. Nothing here does
// I/O or holds shared state; caching belongs to the service layer.
package charts

import (
	"time"

	"sprintlens/internal/tracker"
)

// Chart type identifiers used in ChartResponse.ChartType and as cache
// key prefixes.
const (
	ChartBurndown         = "burndown"
	ChartVelocity         = "velocity"
	ChartSprintReport     = "sprint_report"
	ChartProjectSummary   = "project_summary"
	ChartCumulativeFlow   = "cumulative_flow"
	ChartCycleTime        = "cycle_time"
	ChartWorkDistribution = "work_distribution"
	ChartIssueTrend       = "issue_trend"
)

// Point is a single datum in a series.
type Point struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Value     float64    `json:"value"`
	Label     string     `json:"label,omitempty"`
}

// Series is a named sequence of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// ChartResponse is the provider-agnostic output contract. It is
// immutable once built; no raw provider field names appear in it.
type ChartResponse struct {
	ChartType   string         `json:"chart_type"`
	Title       string         `json:"title"`
	Series      []Series       `json:"series"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// SprintTasks binds one sprint to its annotated tasks; the velocity
// calculator consumes a trailing window of these.
type SprintTasks struct {
	Sprint tracker.Sprint
	Tasks  []tracker.Task
}

// scopeWeight returns the burndown weight of a task: its story points
// for point scope, 1 for item-count scope.
func scopeWeight(t tracker.Task, scopeType string) float64 {
	if scopeType == "count" {
		return 1
	}
	return t.Points
}
