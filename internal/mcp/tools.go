package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"sprintlens/internal/service"
)

type burndownArgs struct {
	Provider  string `json:"provider,omitempty"`
	ProjectID string `json:"project_id"`
	SprintID  string `json:"sprint_id"`
	ScopeType string `json:"scope_type,omitempty"`
}

type velocityArgs struct {
	Provider    string `json:"provider,omitempty"`
	ProjectID   string `json:"project_id"`
	SprintCount int    `json:"sprint_count,omitempty"`
}

type sprintReportArgs struct {
	Provider  string `json:"provider,omitempty"`
	ProjectID string `json:"project_id"`
	SprintID  string `json:"sprint_id"`
}

type projectSummaryArgs struct {
	Provider    string `json:"provider,omitempty"`
	ProjectID   string `json:"project_id"`
	SprintCount int    `json:"sprint_count,omitempty"`
}

type cfdArgs struct {
	Provider  string `json:"provider,omitempty"`
	ProjectID string `json:"project_id"`
	SprintID  string `json:"sprint_id,omitempty"`
	Days      int    `json:"days,omitempty"`
}

type cycleTimeArgs struct {
	Provider  string `json:"provider,omitempty"`
	ProjectID string `json:"project_id"`
	Days      int    `json:"days,omitempty"`
}

type distributionArgs struct {
	Provider  string `json:"provider,omitempty"`
	ProjectID string `json:"project_id"`
	SprintID  string `json:"sprint_id,omitempty"`
	Dimension string `json:"dimension,omitempty"`
}

type trendArgs struct {
	Provider  string `json:"provider,omitempty"`
	ProjectID string `json:"project_id"`
	Days      int    `json:"days,omitempty"`
}

type invalidateArgs struct {
	Provider string `json:"provider,omitempty"`
}

func (s *Server) registerTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_burndown_chart",
		Description: "Remaining work per day across one sprint: ideal line, actual line, and the committed-scope line. Set scope_type to 'count' to burn down task counts instead of story points.",
	}, s.handleBurndown)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_velocity_chart",
		Description: "Planned vs. completed points over recent closed sprints, with a rolling average and a trend verdict. Guidance: run this before 'get_sprint_report' to anchor on the team's baseline.",
	}, s.handleVelocity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_sprint_report",
		Description: "A single-sprint summary: completion rate, scope stability, work breakdown by type, per-assignee performance, highlights and concerns.",
	}, s.handleSprintReport)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_project_summary",
		Description: "A cross-sprint rollup for one project: total and completed items, completion rate, planned vs. completed points, average velocity with a trend verdict, and a per-sprint outcome row.",
	}, s.handleProjectSummary)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_cumulative_flow",
		Description: "Daily task counts per status band (done, in progress, blocked, to do) reconstructed from status history. Pass sprint_id for a sprint window, or days for a trailing window.",
	}, s.handleCumulativeFlow)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_cycle_time",
		Description: "Cycle time in days for tasks completed within the window, with mean and median. Tasks without both a start and a completion date are excluded and counted in the metadata.",
	}, s.handleCycleTime)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_work_distribution",
		Description: "How work splits across a dimension: assignee (default), priority, type, or status.",
	}, s.handleWorkDistribution)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_issue_trend",
		Description: "Created vs. resolved task counts per day over a trailing window.",
	}, s.handleIssueTrend)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "invalidate_cache",
		Description: "Drop cached chart data after the underlying tracker data changed. Scope to one provider, or omit the argument to drop everything.",
	}, s.handleInvalidate)
}

func (s *Server) handleBurndown(ctx context.Context, req *mcp.CallToolRequest, args burndownArgs) (*mcp.CallToolResult, any, error) {
	resp, err := s.svc.Burndown(ctx, service.BurndownQuery{
		Provider:  s.provider(args.Provider),
		ProjectID: args.ProjectID,
		SprintID:  args.SprintID,
		ScopeType: args.ScopeType,
	})
	if err != nil {
		return nil, nil, err
	}
	return s.chartResult(resp), nil, nil
}

func (s *Server) handleVelocity(ctx context.Context, req *mcp.CallToolRequest, args velocityArgs) (*mcp.CallToolResult, any, error) {
	resp, err := s.svc.Velocity(ctx, service.VelocityQuery{
		Provider:    s.provider(args.Provider),
		ProjectID:   args.ProjectID,
		SprintCount: args.SprintCount,
	})
	if err != nil {
		return nil, nil, err
	}
	return s.chartResult(resp), nil, nil
}

func (s *Server) handleSprintReport(ctx context.Context, req *mcp.CallToolRequest, args sprintReportArgs) (*mcp.CallToolResult, any, error) {
	report, err := s.svc.SprintReport(ctx, service.SprintReportQuery{
		Provider:  s.provider(args.Provider),
		ProjectID: args.ProjectID,
		SprintID:  args.SprintID,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(formatJSON(report)), nil, nil
}

func (s *Server) handleProjectSummary(ctx context.Context, req *mcp.CallToolRequest, args projectSummaryArgs) (*mcp.CallToolResult, any, error) {
	summary, err := s.svc.ProjectSummary(ctx, service.ProjectSummaryQuery{
		Provider:    s.provider(args.Provider),
		ProjectID:   args.ProjectID,
		SprintCount: args.SprintCount,
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(formatJSON(summary)), nil, nil
}

func (s *Server) handleCumulativeFlow(ctx context.Context, req *mcp.CallToolRequest, args cfdArgs) (*mcp.CallToolResult, any, error) {
	resp, err := s.svc.CumulativeFlow(ctx, service.CFDQuery{
		Provider:  s.provider(args.Provider),
		ProjectID: args.ProjectID,
		SprintID:  args.SprintID,
		Days:      args.Days,
	})
	if err != nil {
		return nil, nil, err
	}
	return s.chartResult(resp), nil, nil
}

func (s *Server) handleCycleTime(ctx context.Context, req *mcp.CallToolRequest, args cycleTimeArgs) (*mcp.CallToolResult, any, error) {
	resp, err := s.svc.CycleTime(ctx, service.CycleTimeQuery{
		Provider:  s.provider(args.Provider),
		ProjectID: args.ProjectID,
		Days:      args.Days,
	})
	if err != nil {
		return nil, nil, err
	}
	return s.chartResult(resp), nil, nil
}

func (s *Server) handleWorkDistribution(ctx context.Context, req *mcp.CallToolRequest, args distributionArgs) (*mcp.CallToolResult, any, error) {
	resp, err := s.svc.WorkDistribution(ctx, service.WorkDistributionQuery{
		Provider:  s.provider(args.Provider),
		ProjectID: args.ProjectID,
		SprintID:  args.SprintID,
		Dimension: args.Dimension,
	})
	if err != nil {
		return nil, nil, err
	}
	return s.chartResult(resp), nil, nil
}

func (s *Server) handleIssueTrend(ctx context.Context, req *mcp.CallToolRequest, args trendArgs) (*mcp.CallToolResult, any, error) {
	resp, err := s.svc.IssueTrend(ctx, service.IssueTrendQuery{
		Provider:  s.provider(args.Provider),
		ProjectID: args.ProjectID,
		Days:      args.Days,
	})
	if err != nil {
		return nil, nil, err
	}
	return s.chartResult(resp), nil, nil
}

func (s *Server) handleInvalidate(ctx context.Context, req *mcp.CallToolRequest, args invalidateArgs) (*mcp.CallToolResult, any, error) {
	s.svc.Invalidate(args.Provider)
	scope := args.Provider
	if scope == "" {
		scope = "all providers"
	}
	return textResult("Cache invalidated for " + scope + "."), nil, nil
}
