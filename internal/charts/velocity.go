package charts

import (
	"time"
)

// trendBand is the relative change below which two sprints count as
// "stable" rather than a real trend.
const trendBand = 0.10

// Velocity computes per-sprint planned vs completed points across a
// trailing window of sprints, their completed/planned ratio, plus a
// rolling average and a trend classification over the completed
// series.
func Velocity(sprints []SprintTasks) ChartResponse {
	planned := Series{Name: "planned"}
	completed := Series{Name: "completed"}
	ratio := Series{Name: "ratio"}
	rolling := Series{Name: "rolling_average"}

	var completedValues []float64
	for _, st := range sprints {
		var plannedPoints, completedPoints float64
		for _, t := range st.Tasks {
			plannedPoints += t.Points
			if t.Completed {
				completedPoints += t.Points
			}
		}

		// Ratio is 0 for a sprint with nothing planned.
		ratioValue := 0.0
		if plannedPoints > 0 {
			ratioValue = completedPoints / plannedPoints
		}

		ts := st.Sprint.StartDate
		planned.Points = append(planned.Points, Point{Timestamp: &ts, Value: plannedPoints, Label: st.Sprint.Name})
		completed.Points = append(completed.Points, Point{Timestamp: &ts, Value: completedPoints, Label: st.Sprint.Name})
		ratio.Points = append(ratio.Points, Point{Timestamp: &ts, Value: ratioValue, Label: st.Sprint.Name})

		completedValues = append(completedValues, completedPoints)
		rolling.Points = append(rolling.Points, Point{Timestamp: &ts, Value: Mean(completedValues), Label: st.Sprint.Name})
	}

	return ChartResponse{
		ChartType: ChartVelocity,
		Title:     "Velocity",
		Series:    []Series{planned, completed, ratio, rolling},
		Metadata: map[string]any{
			"sprint_count":     len(sprints),
			"average_velocity": Mean(completedValues),
			"trend":            classifyTrend(completedValues),
		},
		GeneratedAt: time.Now().UTC(),
	}
}

// classifyTrend compares the last two completed values: within the
// stability band the trend is "stable".
func classifyTrend(values []float64) string {
	if len(values) < 2 {
		return "stable"
	}
	prev := values[len(values)-2]
	last := values[len(values)-1]

	if prev == 0 {
		if last == 0 {
			return "stable"
		}
		return "up"
	}

	change := (last - prev) / prev
	switch {
	case change > trendBand:
		return "up"
	case change < -trendBand:
		return "down"
	default:
		return "stable"
	}
}
