// Package adapter orchestrates provider fetches and turns raw records
// into canonical, chart-specific datasets. It owns retry policy,
// pagination de-duplication and scope-change derivation; all chart math
// lives in the charts package.
package adapter

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"sprintlens/internal/charts"
	"sprintlens/internal/resolver"
	"sprintlens/internal/tracker"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 250 * time.Millisecond
)

// Adapter binds one provider connection to its resolver strategy.
type Adapter struct {
	client     tracker.Client
	resolver   resolver.StatusResolver
	providerID string
	baselines  *BaselineStore

	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
}

// New creates an adapter for a provider connection. The resolver is
// selected from the enumerated provider-type mapping; baselines may be
// nil, disabling scope-change detection.
func New(client tracker.Client, providerID string, providerType tracker.ProviderType, baselines *BaselineStore) *Adapter {
	return &Adapter{
		client:      client,
		resolver:    resolver.ForProvider(providerType),
		providerID:  providerID,
		baselines:   baselines,
		timeout:     defaultTimeout,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
	}
}

// WithTimeout overrides the per-call provider timeout.
func (a *Adapter) WithTimeout(d time.Duration) *Adapter {
	if d > 0 {
		a.timeout = d
	}
	return a
}

// BurndownData is the canonical dataset behind a burndown chart.
type BurndownData struct {
	Sprint       tracker.Sprint
	Tasks        []tracker.Task
	ScopeChanges []tracker.ScopeChangeEvent
	ScopeType    string
}

// BurndownData fetches the sprint and its tasks concurrently, annotates
// them, and derives scope-change events against the committed baseline.
func (a *Adapter) BurndownData(ctx context.Context, projectID, sprintID, scopeType string) (*BurndownData, error) {
	if sprintID == "" {
		return nil, tracker.WrapError(tracker.ErrInvalidQuery, a.providerID, projectID, "sprint id is required for burndown")
	}

	var sprint tracker.Sprint
	var tasks []tracker.Task

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sprint, err = a.fetchSprint(gctx, projectID, sprintID)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = a.fetchTasks(gctx, projectID, sprintID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	annotated := a.annotateSprintTasks(tasks, sprintID)

	var scopeChanges []tracker.ScopeChangeEvent
	if a.baselines != nil {
		scopeChanges = a.baselines.ScopeChanges(sprint, annotated)
	}

	return &BurndownData{
		Sprint:       sprint,
		Tasks:        annotated,
		ScopeChanges: scopeChanges,
		ScopeType:    scopeType,
	}, nil
}

// VelocityData fetches the last sprintCount sprints (by start date) and
// the tasks of each.
func (a *Adapter) VelocityData(ctx context.Context, projectID string, sprintCount int) ([]charts.SprintTasks, error) {
	if sprintCount <= 0 {
		sprintCount = 6
	}

	sprints, err := a.fetchSprints(ctx, projectID)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(sprints, func(x, y tracker.Sprint) int {
		return x.StartDate.Compare(y.StartDate)
	})
	if len(sprints) > sprintCount {
		sprints = sprints[len(sprints)-sprintCount:]
	}

	out := make([]charts.SprintTasks, 0, len(sprints))
	for _, sprint := range sprints {
		tasks, err := a.fetchTasks(ctx, projectID, sprint.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, charts.SprintTasks{
			Sprint: sprint,
			Tasks:  a.annotateSprintTasks(tasks, sprint.ID),
		})
	}
	return out, nil
}

// SprintReportData reuses the burndown dataset: same fetch, same
// annotation, same scope-change derivation.
func (a *Adapter) SprintReportData(ctx context.Context, projectID, sprintID string) (*BurndownData, error) {
	return a.BurndownData(ctx, projectID, sprintID, "points")
}

// CFDData fetches and annotates project tasks for cumulative-flow
// reconstruction. When sprintID is set, the window is the sprint range;
// otherwise a trailing window of days.
func (a *Adapter) CFDData(ctx context.Context, projectID, sprintID string, days int) ([]tracker.Task, charts.AnalysisWindow, error) {
	var window charts.AnalysisWindow

	if sprintID != "" {
		sprint, err := a.fetchSprint(ctx, projectID, sprintID)
		if err != nil {
			return nil, window, err
		}
		window = charts.NewAnalysisWindow(sprint.StartDate, sprint.EndDate, "day")
	} else {
		if days <= 0 {
			days = 30
		}
		window = charts.TrailingWindow(days, time.Now())
	}

	tasks, err := a.fetchTasks(ctx, projectID, sprintID)
	if err != nil {
		return nil, window, err
	}

	// Clients may ignore the sprint hint; membership is enforced on
	// the canonical field here regardless.
	if sprintID != "" {
		inSprint := make([]tracker.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.SprintID == sprintID {
				inSprint = append(inSprint, t)
			}
		}
		tasks = inSprint
	}
	return a.annotateAll(tasks), window, nil
}

// CycleTimeData fetches and annotates tasks completed within the
// trailing window.
func (a *Adapter) CycleTimeData(ctx context.Context, projectID string, days int) ([]tracker.Task, error) {
	if days <= 0 {
		days = 90
	}
	tasks, err := a.fetchTasks(ctx, projectID, "")
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	annotated := a.annotateAll(tasks)
	filtered := make([]tracker.Task, 0, len(annotated))
	for _, t := range annotated {
		if t.Completed && t.CompletionDate != nil && t.CompletionDate.Before(cutoff) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered, nil
}

// WorkDistributionData fetches and annotates tasks, optionally scoped
// to one sprint.
func (a *Adapter) WorkDistributionData(ctx context.Context, projectID, sprintID string) ([]tracker.Task, error) {
	tasks, err := a.fetchTasks(ctx, projectID, sprintID)
	if err != nil {
		return nil, err
	}
	if sprintID != "" {
		return a.annotateSprintTasks(tasks, sprintID), nil
	}
	return a.annotateAll(tasks), nil
}

// IssueTrendData fetches and annotates all project tasks; the trend
// calculator does its own window bucketing.
func (a *Adapter) IssueTrendData(ctx context.Context, projectID string, days int) ([]tracker.Task, charts.AnalysisWindow, error) {
	if days <= 0 {
		days = 30
	}
	tasks, err := a.fetchTasks(ctx, projectID, "")
	if err != nil {
		return nil, charts.AnalysisWindow{}, err
	}
	return a.annotateAll(tasks), charts.TrailingWindow(days, time.Now()), nil
}

// fetchTasks lists tasks with retry and keys them by ID to guard
// against overlapping pages returning the same record twice.
func (a *Adapter) fetchTasks(ctx context.Context, projectID, sprintID string) ([]tracker.Task, error) {
	var tasks []tracker.Task
	err := a.withRetry(ctx, "list_tasks", func(cctx context.Context) error {
		var err error
		tasks, err = a.client.ListTasks(cctx, projectID, sprintID)
		return err
	})
	if err != nil {
		return nil, tracker.WrapError(unwrapKind(err), a.providerID, projectID, "listing tasks: %v", err)
	}
	return dedupeTasks(tasks), nil
}

func (a *Adapter) fetchSprints(ctx context.Context, projectID string) ([]tracker.Sprint, error) {
	var sprints []tracker.Sprint
	err := a.withRetry(ctx, "list_sprints", func(cctx context.Context) error {
		var err error
		sprints, err = a.client.ListSprints(cctx, projectID)
		return err
	})
	if err != nil {
		return nil, tracker.WrapError(unwrapKind(err), a.providerID, projectID, "listing sprints: %v", err)
	}
	return sprints, nil
}

func (a *Adapter) fetchSprint(ctx context.Context, projectID, sprintID string) (tracker.Sprint, error) {
	var sprint tracker.Sprint
	err := a.withRetry(ctx, "get_sprint", func(cctx context.Context) error {
		var err error
		sprint, err = a.client.GetSprint(cctx, sprintID)
		return err
	})
	if err != nil {
		return sprint, tracker.WrapError(unwrapKind(err), a.providerID, projectID, "fetching sprint %s: %v", sprintID, err)
	}
	return sprint, nil
}

// annotateSprintTasks filters to sprint members that count toward
// scope, then annotates copies.
func (a *Adapter) annotateSprintTasks(tasks []tracker.Task, sprintID string) []tracker.Task {
	out := make([]tracker.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.SprintID != sprintID {
			continue
		}
		if !a.resolver.IsBurndownable(t) {
			continue
		}
		out = append(out, resolver.Annotate(a.resolver, t))
	}
	return out
}

func (a *Adapter) annotateAll(tasks []tracker.Task) []tracker.Task {
	return resolver.AnnotateAll(a.resolver, tasks)
}

func dedupeTasks(tasks []tracker.Task) []tracker.Task {
	seen := make(map[string]bool, len(tasks))
	out := make([]tracker.Task, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			log.Debug().Str("task", t.ID).Msg("Dropping duplicate task from overlapping pages")
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
