// Package visuals renders chart payloads as Mermaid xychart-beta
// blocks so MCP hosts with Mermaid support can show the data inline.
package visuals

import (
	"fmt"
	"math"
	"strings"

	"sprintlens/internal/charts"
)

// maxAxisPoints bounds the number of x-axis entries. Mermaid's layout
// engine starts overlapping labels around 60 points, so wider charts
// are subsampled.
const maxAxisPoints = 60

// Render produces a Mermaid block for the given chart payload, or an
// empty string when the payload has nothing to plot. Categorical
// charts (work distribution, issue trend volume) come out as bars,
// time-series charts as lines.
func Render(resp *charts.ChartResponse) string {
	if resp == nil || len(resp.Series) == 0 {
		return ""
	}
	plottable := resp.Series[:0:0]
	for _, s := range resp.Series {
		if len(s.Points) > 0 {
			plottable = append(plottable, s)
		}
	}
	if len(plottable) == 0 {
		return ""
	}

	kind := "line"
	switch resp.ChartType {
	case charts.ChartWorkDistribution, charts.ChartIssueTrend:
		kind = "bar"
	}

	labels, indices := axisLabels(plottable[0].Points)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %q\n", resp.Title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis %q 0 --> %d\n", yAxisTitle(resp.ChartType), yAxisMax(plottable)))
	for _, s := range plottable {
		values := make([]string, 0, len(indices))
		for _, i := range indices {
			v := 0.0
			if i < len(s.Points) {
				v = s.Points[i].Value
			}
			values = append(values, fmt.Sprintf("%.1f", v))
		}
		sb.WriteString(fmt.Sprintf("    %s [%s]\n", kind, strings.Join(values, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

// axisLabels returns quoted x-axis labels and the point indices they
// came from, subsampling wide series while always keeping the final
// point.
func axisLabels(points []charts.Point) ([]string, []int) {
	rate := 1
	if len(points) > maxAxisPoints {
		rate = int(math.Ceil(float64(len(points)) / float64(maxAxisPoints)))
	}
	var labels []string
	var indices []int
	for i, p := range points {
		if i%rate != 0 && i != len(points)-1 {
			continue
		}
		label := p.Label
		if label == "" && p.Timestamp != nil {
			label = p.Timestamp.Format("Jan02")
		}
		// Spaces confuse Mermaid's axis parser.
		label = strings.ReplaceAll(label, " ", "_")
		labels = append(labels, fmt.Sprintf("%q", label))
		indices = append(indices, i)
	}
	return labels, indices
}

func yAxisTitle(chartType string) string {
	switch chartType {
	case charts.ChartBurndown:
		return "Remaining Work"
	case charts.ChartVelocity:
		return "Points"
	case charts.ChartCumulativeFlow:
		return "Tasks"
	case charts.ChartCycleTime:
		return "Days"
	case charts.ChartWorkDistribution:
		return "Work"
	case charts.ChartIssueTrend:
		return "Tasks"
	}
	return "Value"
}

// yAxisMax scales the axis to the tallest point across all series with
// a little headroom, never below 1.
func yAxisMax(series []charts.Series) int {
	maxVal := 0.0
	for _, s := range series {
		for _, p := range s.Points {
			if p.Value > maxVal {
				maxVal = p.Value
			}
		}
	}
	scaled := int(math.Ceil(maxVal * 1.1))
	if scaled < 1 {
		return 1
	}
	return scaled
}
