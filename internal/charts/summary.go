package charts

import "time"

// SprintOutcome is one sprint's row in a project summary.
type SprintOutcome struct {
	SprintID        string  `json:"sprint_id"`
	SprintName      string  `json:"sprint_name"`
	TotalItems      int     `json:"total_items"`
	CompletedItems  int     `json:"completed_items"`
	PlannedPoints   float64 `json:"planned_points"`
	CompletedPoints float64 `json:"completed_points"`
	Ratio           float64 `json:"ratio"`
}

// ProjectSummary aggregates outcomes across a trailing window of
// sprints, the project-level counterpart of SprintReport.
type ProjectSummary struct {
	ProjectID       string          `json:"project_id"`
	SprintCount     int             `json:"sprint_count"`
	TotalItems      int             `json:"total_items"`
	CompletedItems  int             `json:"completed_items"`
	CompletionRate  float64         `json:"completion_rate"`
	PlannedPoints   float64         `json:"planned_points"`
	CompletedPoints float64         `json:"completed_points"`
	AverageVelocity float64         `json:"average_velocity"`
	VelocityTrend   string          `json:"velocity_trend"`
	Sprints         []SprintOutcome `json:"sprints"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// BuildProjectSummary rolls the per-sprint datasets up into one
// project view. Completion rate is 0 for a project with no items, and
// each sprint's ratio is 0 when nothing was planned.
func BuildProjectSummary(projectID string, sprints []SprintTasks) ProjectSummary {
	summary := ProjectSummary{
		ProjectID:   projectID,
		SprintCount: len(sprints),
		GeneratedAt: time.Now().UTC(),
	}

	var completedValues []float64
	for _, st := range sprints {
		outcome := SprintOutcome{
			SprintID:   st.Sprint.ID,
			SprintName: st.Sprint.Name,
		}
		for _, t := range st.Tasks {
			outcome.TotalItems++
			outcome.PlannedPoints += t.Points
			if t.Completed {
				outcome.CompletedItems++
				outcome.CompletedPoints += t.Points
			}
		}
		if outcome.PlannedPoints > 0 {
			outcome.Ratio = outcome.CompletedPoints / outcome.PlannedPoints
		}

		summary.TotalItems += outcome.TotalItems
		summary.CompletedItems += outcome.CompletedItems
		summary.PlannedPoints += outcome.PlannedPoints
		summary.CompletedPoints += outcome.CompletedPoints
		summary.Sprints = append(summary.Sprints, outcome)
		completedValues = append(completedValues, outcome.CompletedPoints)
	}

	if summary.TotalItems > 0 {
		summary.CompletionRate = float64(summary.CompletedItems) / float64(summary.TotalItems)
	}
	summary.AverageVelocity = Mean(completedValues)
	summary.VelocityTrend = classifyTrend(completedValues)

	return summary
}
