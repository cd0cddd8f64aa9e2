package visuals

import (
	"strings"
	"testing"
	"time"

	"sprintlens/internal/charts"
)

func TestRenderLineChart(t *testing.T) {
	ts := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	resp := &charts.ChartResponse{
		ChartType: charts.ChartBurndown,
		Title:     "Sprint Burndown",
		Series: []charts.Series{
			{Name: "ideal", Points: []charts.Point{{Timestamp: &ts, Value: 40, Label: "Apr 1"}, {Value: 0, Label: "Apr 10"}}},
			{Name: "actual", Points: []charts.Point{{Value: 40, Label: "Apr 1"}, {Value: 12, Label: "Apr 10"}}},
		},
	}

	out := Render(resp)
	if !strings.Contains(out, "xychart-beta") {
		t.Fatalf("Expected an xychart block, got:\n%s", out)
	}
	if !strings.Contains(out, `"Apr_1"`) {
		t.Errorf("Expected space-safe labels, got:\n%s", out)
	}
	if got := strings.Count(out, "    line ["); got != 2 {
		t.Errorf("Expected 2 line series, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, `y-axis "Remaining Work" 0 --> 44`) {
		t.Errorf("Expected scaled y-axis, got:\n%s", out)
	}
}

func TestRenderBarChartAndEmpty(t *testing.T) {
	resp := &charts.ChartResponse{
		ChartType: charts.ChartWorkDistribution,
		Title:     "Work Distribution",
		Series: []charts.Series{
			{Name: "points", Points: []charts.Point{{Value: 5, Label: "alice"}, {Value: 3, Label: "bob"}}},
		},
	}
	out := Render(resp)
	if !strings.Contains(out, "    bar [5.0, 3.0]") {
		t.Errorf("Expected a bar series, got:\n%s", out)
	}

	if got := Render(&charts.ChartResponse{ChartType: charts.ChartVelocity}); got != "" {
		t.Errorf("Expected empty output for empty payload, got %q", got)
	}
	if got := Render(nil); got != "" {
		t.Errorf("Expected empty output for nil payload, got %q", got)
	}
}

func TestRenderSubsamplesWideSeries(t *testing.T) {
	points := make([]charts.Point, 120)
	for i := range points {
		ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		points[i] = charts.Point{Timestamp: &ts, Value: float64(i)}
	}
	out := Render(&charts.ChartResponse{
		ChartType: charts.ChartCumulativeFlow,
		Title:     "CFD",
		Series:    []charts.Series{{Name: "done", Points: points}},
	})

	axis := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "x-axis") {
			axis = line
		}
	}
	labels := strings.Count(axis, `"`) / 2
	if labels > 61 {
		t.Errorf("Expected subsampled axis, got %d labels", labels)
	}
	// The last point always survives subsampling.
	if !strings.Contains(axis, `"Apr30"`) {
		t.Errorf("Expected final point label on axis, got %s", axis)
	}
}
