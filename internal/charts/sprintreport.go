package charts

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"sprintlens/internal/tracker"
)

// AssigneeEffort aggregates one assignee's contribution to a sprint.
type AssigneeEffort struct {
	AssigneeID      string  `json:"assignee_id"`
	TotalItems      int     `json:"total_items"`
	CompletedItems  int     `json:"completed_items"`
	CompletedPoints float64 `json:"completed_points"`
	EstimatedHours  float64 `json:"estimated_hours"`
	ActualHours     float64 `json:"actual_hours"`
}

// SprintReport is the richer per-sprint summary shape exposed next to
// the plain chart responses.
type SprintReport struct {
	SprintID        string                     `json:"sprint_id"`
	SprintName      string                     `json:"sprint_name"`
	StartDate       time.Time                  `json:"start_date"`
	EndDate         time.Time                  `json:"end_date"`
	DurationDays    int                        `json:"duration_days"`
	Goal            string                     `json:"goal,omitempty"`
	TotalItems      int                        `json:"total_items"`
	CompletedItems  int                        `json:"completed_items"`
	CompletionRate  float64                    `json:"completion_rate"`
	CommittedPoints float64                    `json:"committed_points"`
	CompletedPoints float64                    `json:"completed_points"`
	ScopeStability  float64                    `json:"scope_stability"`
	ScopeChanges    []tracker.ScopeChangeEvent `json:"scope_changes,omitempty"`
	WorkBreakdown   map[string]int             `json:"work_breakdown"`
	TeamPerformance []AssigneeEffort           `json:"team_performance"`
	Highlights      []string                   `json:"highlights,omitempty"`
	Concerns        []string                   `json:"concerns,omitempty"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}

// BuildSprintReport summarizes one sprint's outcome. Completion rate is
// defined as 0 for an empty sprint, and scope stability is clamped to
// [0,1].
func BuildSprintReport(sprint tracker.Sprint, tasks []tracker.Task, scopeChanges []tracker.ScopeChangeEvent) SprintReport {
	report := SprintReport{
		SprintID:      sprint.ID,
		SprintName:    sprint.Name,
		StartDate:     sprint.StartDate,
		EndDate:       sprint.EndDate,
		DurationDays:  sprint.DurationDays(),
		Goal:          sprint.Goal,
		ScopeChanges:  scopeChanges,
		WorkBreakdown: make(map[string]int),
		GeneratedAt:   time.Now().UTC(),
	}

	byAssignee := make(map[string]*AssigneeEffort)
	blocked := 0
	for _, t := range tasks {
		report.TotalItems++
		report.CommittedPoints += t.Points

		kind := t.Type
		if kind == "" {
			kind = "unspecified"
		}
		report.WorkBreakdown[kind]++

		if t.Category == tracker.StatusBlocked {
			blocked++
		}

		assignee := t.AssigneeID
		if assignee == "" {
			assignee = "unassigned"
		}
		effort, ok := byAssignee[assignee]
		if !ok {
			effort = &AssigneeEffort{AssigneeID: assignee}
			byAssignee[assignee] = effort
		}
		effort.TotalItems++
		effort.EstimatedHours += t.EstimatedHours
		effort.ActualHours += t.ActualHours

		if t.Completed {
			report.CompletedItems++
			report.CompletedPoints += t.Points
			effort.CompletedItems++
			effort.CompletedPoints += t.Points
		}
	}

	if report.TotalItems > 0 {
		report.CompletionRate = float64(report.CompletedItems) / float64(report.TotalItems)
	}

	report.ScopeStability = scopeStability(report.CommittedPoints, scopeChanges)

	for _, effort := range byAssignee {
		report.TeamPerformance = append(report.TeamPerformance, *effort)
	}
	slices.SortFunc(report.TeamPerformance, func(a, b AssigneeEffort) int {
		if a.CompletedPoints != b.CompletedPoints {
			if a.CompletedPoints > b.CompletedPoints {
				return -1
			}
			return 1
		}
		return strings.Compare(a.AssigneeID, b.AssigneeID)
	})

	report.Highlights, report.Concerns = reportNotes(report, blocked)
	return report
}

// scopeStability is 1 - |net change| / initial commitment, clamped to
// [0,1]. The initial commitment is reconstructed by backing the net
// change out of the current total.
func scopeStability(currentPoints float64, scopeChanges []tracker.ScopeChangeEvent) float64 {
	if len(scopeChanges) == 0 {
		return 1
	}

	var net float64
	for _, ev := range scopeChanges {
		if ev.Change == tracker.ScopeRemoved {
			net -= ev.PointDelta
		} else {
			net += ev.PointDelta
		}
	}

	initial := currentPoints - net
	if initial <= 0 {
		return 0
	}
	return clamp01(1 - math.Abs(net)/initial)
}

func reportNotes(report SprintReport, blocked int) (highlights, concerns []string) {
	if report.CompletionRate >= 0.9 && report.TotalItems > 0 {
		highlights = append(highlights, fmt.Sprintf("Delivered %d of %d committed items", report.CompletedItems, report.TotalItems))
	}
	if report.ScopeStability >= 0.95 && report.TotalItems > 0 {
		highlights = append(highlights, "Committed scope held steady through the sprint")
	}

	if report.TotalItems > 0 && report.CompletionRate < 0.5 {
		concerns = append(concerns, fmt.Sprintf("Only %.0f%% of committed items completed", report.CompletionRate*100))
	}
	if report.ScopeStability < 0.8 {
		concerns = append(concerns, "Significant scope churn after sprint start")
	}
	if blocked > 0 {
		concerns = append(concerns, fmt.Sprintf("%d items currently blocked", blocked))
	}
	return highlights, concerns
}
