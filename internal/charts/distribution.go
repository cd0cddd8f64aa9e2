package charts

import (
	"slices"
	"time"

	"sprintlens/internal/tracker"
)

// Dimension selects the grouping axis for work distribution.
type Dimension string

const (
	DimAssignee Dimension = "assignee"
	DimPriority Dimension = "priority"
	DimType     Dimension = "type"
	DimStatus   Dimension = "status"
)

// ParseDimension validates a caller-supplied dimension string.
func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(s) {
	case DimAssignee, DimPriority, DimType, DimStatus:
		return Dimension(s), true
	case "":
		return DimAssignee, true
	}
	return "", false
}

// WorkDistribution groups tasks by the chosen dimension and sums item
// count and effort (story points) per group.
func WorkDistribution(tasks []tracker.Task, dim Dimension) ChartResponse {
	counts := make(map[string]float64)
	points := make(map[string]float64)

	for _, t := range tasks {
		key := groupKey(t, dim)
		counts[key]++
		points[key] += t.Points
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	countSeries := Series{Name: "count"}
	pointSeries := Series{Name: "points"}
	for _, label := range labels {
		countSeries.Points = append(countSeries.Points, Point{Value: counts[label], Label: label})
		pointSeries.Points = append(pointSeries.Points, Point{Value: points[label], Label: label})
	}

	return ChartResponse{
		ChartType: ChartWorkDistribution,
		Title:     "Work Distribution by " + string(dim),
		Series:    []Series{countSeries, pointSeries},
		Metadata: map[string]any{
			"dimension":   string(dim),
			"group_count": len(labels),
			"total_tasks": len(tasks),
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func groupKey(t tracker.Task, dim Dimension) string {
	var key string
	switch dim {
	case DimPriority:
		key = t.Priority
	case DimType:
		key = t.Type
	case DimStatus:
		key = string(t.Category)
	default:
		key = t.AssigneeID
	}
	if key == "" {
		return "unspecified"
	}
	return key
}
