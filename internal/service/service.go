// Package service is the thin facade callers talk to: one query method
// per chart type, backed by a TTL cache and in-flight request
// coalescing so identical concurrent queries share a single provider
// fetch.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"sprintlens/internal/adapter"
	"sprintlens/internal/charts"
	"sprintlens/internal/tracker"
)

// DefaultTTL is how long finished chart responses stay servable.
const DefaultTTL = 5 * time.Minute

// Source is the adapter surface the service consumes; *adapter.Adapter
// implements it.
type Source interface {
	BurndownData(ctx context.Context, projectID, sprintID, scopeType string) (*adapter.BurndownData, error)
	VelocityData(ctx context.Context, projectID string, sprintCount int) ([]charts.SprintTasks, error)
	SprintReportData(ctx context.Context, projectID, sprintID string) (*adapter.BurndownData, error)
	CFDData(ctx context.Context, projectID, sprintID string, days int) ([]tracker.Task, charts.AnalysisWindow, error)
	CycleTimeData(ctx context.Context, projectID string, days int) ([]tracker.Task, error)
	WorkDistributionData(ctx context.Context, projectID, sprintID string) ([]tracker.Task, error)
	IssueTrendData(ctx context.Context, projectID string, days int) ([]tracker.Task, charts.AnalysisWindow, error)
}

// Service caches and coalesces chart queries across provider
// connections.
type Service struct {
	sources map[string]Source
	cache   *ttlCache
	group   singleflight.Group
	ttl     time.Duration
}

// New creates a service over the given provider connections. A zero ttl
// selects DefaultTTL.
func New(sources map[string]Source, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		sources: sources,
		cache:   newTTLCache(),
		ttl:     ttl,
	}
}

// Invalidate drops cached responses for one provider connection, or
// everything when provider is empty. It accepts the external
// "data changed" signal; generating that signal is the host's job.
func (s *Service) Invalidate(provider string) {
	dropped := s.cache.invalidate(provider)
	log.Info().Str("provider", provider).Int("dropped", dropped).Msg("Cache invalidated")
}

// Query parameter shapes. Every field participates in the cache key.

type BurndownQuery struct {
	Provider  string `json:"provider"`
	ProjectID string `json:"project_id"`
	SprintID  string `json:"sprint_id"`
	ScopeType string `json:"scope_type,omitempty"`
}

type VelocityQuery struct {
	Provider    string `json:"provider"`
	ProjectID   string `json:"project_id"`
	SprintCount int    `json:"sprint_count,omitempty"`
}

type SprintReportQuery struct {
	Provider  string `json:"provider"`
	ProjectID string `json:"project_id"`
	SprintID  string `json:"sprint_id"`
}

type ProjectSummaryQuery struct {
	Provider    string `json:"provider"`
	ProjectID   string `json:"project_id"`
	SprintCount int    `json:"sprint_count,omitempty"`
}

type CFDQuery struct {
	Provider  string `json:"provider"`
	ProjectID string `json:"project_id"`
	SprintID  string `json:"sprint_id,omitempty"`
	Days      int    `json:"days,omitempty"`
}

type CycleTimeQuery struct {
	Provider  string `json:"provider"`
	ProjectID string `json:"project_id"`
	Days      int    `json:"days,omitempty"`
}

type WorkDistributionQuery struct {
	Provider  string `json:"provider"`
	ProjectID string `json:"project_id"`
	SprintID  string `json:"sprint_id,omitempty"`
	Dimension string `json:"dimension,omitempty"`
}

type IssueTrendQuery struct {
	Provider  string `json:"provider"`
	ProjectID string `json:"project_id"`
	Days      int    `json:"days,omitempty"`
}

func (s *Service) Burndown(ctx context.Context, q BurndownQuery) (*charts.ChartResponse, error) {
	key := fmt.Sprintf("%s|%s|%s|%s|%s", charts.ChartBurndown, q.Provider, q.ProjectID, q.SprintID, q.ScopeType)
	return s.chart(ctx, charts.ChartBurndown, key, q.Provider, q.ProjectID, func(ctx context.Context, src Source) (*charts.ChartResponse, error) {
		data, err := src.BurndownData(ctx, q.ProjectID, q.SprintID, q.ScopeType)
		if err != nil {
			return nil, err
		}
		resp := charts.Burndown(data.Sprint, data.Tasks, data.ScopeChanges, data.ScopeType)
		return &resp, nil
	})
}

func (s *Service) Velocity(ctx context.Context, q VelocityQuery) (*charts.ChartResponse, error) {
	key := fmt.Sprintf("%s|%s|%s|%d", charts.ChartVelocity, q.Provider, q.ProjectID, q.SprintCount)
	return s.chart(ctx, charts.ChartVelocity, key, q.Provider, q.ProjectID, func(ctx context.Context, src Source) (*charts.ChartResponse, error) {
		sprints, err := src.VelocityData(ctx, q.ProjectID, q.SprintCount)
		if err != nil {
			return nil, err
		}
		resp := charts.Velocity(sprints)
		return &resp, nil
	})
}

func (s *Service) SprintReport(ctx context.Context, q SprintReportQuery) (*charts.SprintReport, error) {
	if q.SprintID == "" {
		return nil, s.invalidQuery(q.Provider, q.ProjectID, charts.ChartSprintReport, "sprint id is required")
	}

	key := fmt.Sprintf("%s|%s|%s|%s", charts.ChartSprintReport, q.Provider, q.ProjectID, q.SprintID)
	v, err := s.fetch(ctx, key, q.Provider, func(ctx context.Context, src Source) (any, error) {
		data, err := src.SprintReportData(ctx, q.ProjectID, q.SprintID)
		if err != nil {
			return nil, err
		}
		report := charts.BuildSprintReport(data.Sprint, data.Tasks, data.ScopeChanges)
		return &report, nil
	})
	if err != nil {
		return nil, tracker.WithChart(err, charts.ChartSprintReport)
	}
	return v.(*charts.SprintReport), nil
}

// ProjectSummary rolls the trailing sprints up into one project view.
func (s *Service) ProjectSummary(ctx context.Context, q ProjectSummaryQuery) (*charts.ProjectSummary, error) {
	key := fmt.Sprintf("%s|%s|%s|%d", charts.ChartProjectSummary, q.Provider, q.ProjectID, q.SprintCount)
	v, err := s.fetch(ctx, key, q.Provider, func(ctx context.Context, src Source) (any, error) {
		sprints, err := src.VelocityData(ctx, q.ProjectID, q.SprintCount)
		if err != nil {
			return nil, err
		}
		summary := charts.BuildProjectSummary(q.ProjectID, sprints)
		return &summary, nil
	})
	if err != nil {
		return nil, tracker.WithChart(err, charts.ChartProjectSummary)
	}
	return v.(*charts.ProjectSummary), nil
}

func (s *Service) CumulativeFlow(ctx context.Context, q CFDQuery) (*charts.ChartResponse, error) {
	key := fmt.Sprintf("%s|%s|%s|%s|%d", charts.ChartCumulativeFlow, q.Provider, q.ProjectID, q.SprintID, q.Days)
	return s.chart(ctx, charts.ChartCumulativeFlow, key, q.Provider, q.ProjectID, func(ctx context.Context, src Source) (*charts.ChartResponse, error) {
		tasks, window, err := src.CFDData(ctx, q.ProjectID, q.SprintID, q.Days)
		if err != nil {
			return nil, err
		}
		resp := charts.CumulativeFlow(tasks, window)
		return &resp, nil
	})
}

func (s *Service) CycleTime(ctx context.Context, q CycleTimeQuery) (*charts.ChartResponse, error) {
	key := fmt.Sprintf("%s|%s|%s|%d", charts.ChartCycleTime, q.Provider, q.ProjectID, q.Days)
	return s.chart(ctx, charts.ChartCycleTime, key, q.Provider, q.ProjectID, func(ctx context.Context, src Source) (*charts.ChartResponse, error) {
		tasks, err := src.CycleTimeData(ctx, q.ProjectID, q.Days)
		if err != nil {
			return nil, err
		}
		resp := charts.CycleTime(tasks)
		return &resp, nil
	})
}

func (s *Service) WorkDistribution(ctx context.Context, q WorkDistributionQuery) (*charts.ChartResponse, error) {
	dim, ok := charts.ParseDimension(q.Dimension)
	if !ok {
		return nil, s.invalidQuery(q.Provider, q.ProjectID, charts.ChartWorkDistribution, "unknown dimension %q", q.Dimension)
	}

	key := fmt.Sprintf("%s|%s|%s|%s|%s", charts.ChartWorkDistribution, q.Provider, q.ProjectID, q.SprintID, dim)
	return s.chart(ctx, charts.ChartWorkDistribution, key, q.Provider, q.ProjectID, func(ctx context.Context, src Source) (*charts.ChartResponse, error) {
		tasks, err := src.WorkDistributionData(ctx, q.ProjectID, q.SprintID)
		if err != nil {
			return nil, err
		}
		resp := charts.WorkDistribution(tasks, dim)
		return &resp, nil
	})
}

func (s *Service) IssueTrend(ctx context.Context, q IssueTrendQuery) (*charts.ChartResponse, error) {
	key := fmt.Sprintf("%s|%s|%s|%d", charts.ChartIssueTrend, q.Provider, q.ProjectID, q.Days)
	return s.chart(ctx, charts.ChartIssueTrend, key, q.Provider, q.ProjectID, func(ctx context.Context, src Source) (*charts.ChartResponse, error) {
		tasks, window, err := src.IssueTrendData(ctx, q.ProjectID, q.Days)
		if err != nil {
			return nil, err
		}
		resp := charts.IssueTrend(tasks, window)
		return &resp, nil
	})
}

// chart wraps fetch for the common *ChartResponse case.
func (s *Service) chart(ctx context.Context, chartType, key, provider, project string, fn func(context.Context, Source) (*charts.ChartResponse, error)) (*charts.ChartResponse, error) {
	v, err := s.fetch(ctx, key, provider, func(ctx context.Context, src Source) (any, error) {
		return fn(ctx, src)
	})
	if err != nil {
		return nil, tracker.WithChart(err, chartType)
	}
	return v.(*charts.ChartResponse), nil
}

// fetch serializes access per cache key: concurrent callers for the
// same key while no cached value exists trigger exactly one adapter
// fetch and share its result.
func (s *Service) fetch(ctx context.Context, key, provider string, fn func(context.Context, Source) (any, error)) (any, error) {
	src, ok := s.sources[provider]
	if !ok {
		return nil, tracker.WrapError(tracker.ErrUnknownProvider, provider, "", "no such provider connection")
	}

	if v, ok := s.cache.get(key); ok {
		return v, nil
	}

	// The flight is shared. It must not fail coalesced waiters when
	// the first caller cancels, so it runs detached from the caller's
	// context; the adapter's per-call timeout still bounds it.
	flightCtx := context.WithoutCancel(ctx)

	v, err, shared := s.group.Do(key, func() (any, error) {
		// Double-check under the flight: a racing caller may have
		// populated the cache just before we were queued.
		if v, ok := s.cache.get(key); ok {
			return v, nil
		}
		v, err := fn(flightCtx, src)
		if err != nil {
			return nil, err
		}
		s.cache.set(key, v, s.ttl)
		return v, nil
	})
	if shared {
		log.Debug().Str("key", key).Msg("Coalesced identical in-flight query")
	}
	return v, err
}

func (s *Service) invalidQuery(provider, project, chart, format string, args ...any) error {
	return tracker.WithChart(tracker.WrapError(tracker.ErrInvalidQuery, provider, project, format, args...), chart)
}
