package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sprintlens/internal/adapter"
	"sprintlens/internal/charts"
	"sprintlens/internal/tracker"
)

// fakeSource counts adapter fetches and optionally delays them so tests
// can force concurrent queries into the same flight.
type fakeSource struct {
	fetches atomic.Int64
	delay   time.Duration
	err     error
	sprints []charts.SprintTasks
}

func (f *fakeSource) roundtrip(ctx context.Context) error {
	f.fetches.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeSource) BurndownData(ctx context.Context, projectID, sprintID, scopeType string) (*adapter.BurndownData, error) {
	if err := f.roundtrip(ctx); err != nil {
		return nil, err
	}
	return &adapter.BurndownData{
		Sprint: tracker.Sprint{ID: sprintID, Name: "Sprint", StartDate: time.Now().AddDate(0, 0, -5), EndDate: time.Now().AddDate(0, 0, 5), Capacity: 10},
	}, nil
}

func (f *fakeSource) VelocityData(ctx context.Context, projectID string, sprintCount int) ([]charts.SprintTasks, error) {
	if err := f.roundtrip(ctx); err != nil {
		return nil, err
	}
	return f.sprints, nil
}

func (f *fakeSource) SprintReportData(ctx context.Context, projectID, sprintID string) (*adapter.BurndownData, error) {
	return f.BurndownData(ctx, projectID, sprintID, "points")
}

func (f *fakeSource) CFDData(ctx context.Context, projectID, sprintID string, days int) ([]tracker.Task, charts.AnalysisWindow, error) {
	if err := f.roundtrip(ctx); err != nil {
		return nil, charts.AnalysisWindow{}, err
	}
	return nil, charts.TrailingWindow(days, time.Now()), nil
}

func (f *fakeSource) CycleTimeData(ctx context.Context, projectID string, days int) ([]tracker.Task, error) {
	if err := f.roundtrip(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeSource) WorkDistributionData(ctx context.Context, projectID, sprintID string) ([]tracker.Task, error) {
	if err := f.roundtrip(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeSource) IssueTrendData(ctx context.Context, projectID string, days int) ([]tracker.Task, charts.AnalysisWindow, error) {
	if err := f.roundtrip(ctx); err != nil {
		return nil, charts.AnalysisWindow{}, err
	}
	return nil, charts.TrailingWindow(days, time.Now()), nil
}

func newService(src Source, ttl time.Duration) *Service {
	return New(map[string]Source{"conn-1": src}, ttl)
}

func TestCacheHitWithinTTL(t *testing.T) {
	src := &fakeSource{}
	svc := newService(src, time.Minute)
	q := BurndownQuery{Provider: "conn-1", ProjectID: "P1", SprintID: "S1"}

	if _, err := svc.Burndown(context.Background(), q); err != nil {
		t.Fatalf("First query failed: %v", err)
	}
	if _, err := svc.Burndown(context.Background(), q); err != nil {
		t.Fatalf("Second query failed: %v", err)
	}

	// Same chart query twice within the TTL: exactly one fetch.
	if got := src.fetches.Load(); got != 1 {
		t.Errorf("Expected 1 adapter fetch, got %d", got)
	}

	// A different parameter tuple is a different cache entry.
	q2 := q
	q2.SprintID = "S2"
	if _, err := svc.Burndown(context.Background(), q2); err != nil {
		t.Fatalf("Third query failed: %v", err)
	}
	if got := src.fetches.Load(); got != 2 {
		t.Errorf("Expected 2 adapter fetches after new parameters, got %d", got)
	}
}

func TestConcurrentQueriesCoalesce(t *testing.T) {
	src := &fakeSource{delay: 50 * time.Millisecond}
	svc := newService(src, time.Minute)
	q := VelocityQuery{Provider: "conn-1", ProjectID: "P1", SprintCount: 4}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Velocity(context.Background(), q); err != nil {
				t.Errorf("Concurrent query failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := src.fetches.Load(); got != 1 {
		t.Errorf("Expected concurrent identical queries to share 1 fetch, got %d", got)
	}
}

func TestProjectSummaryReusesSprintData(t *testing.T) {
	src := &fakeSource{sprints: []charts.SprintTasks{
		{
			Sprint: tracker.Sprint{ID: "S1", Name: "Sprint 1"},
			Tasks: []tracker.Task{
				{ID: "A", Points: 5, Completed: true},
				{ID: "B", Points: 5},
			},
		},
	}}
	svc := newService(src, time.Minute)
	q := ProjectSummaryQuery{Provider: "conn-1", ProjectID: "P1", SprintCount: 3}

	sum, err := svc.ProjectSummary(context.Background(), q)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if sum.ProjectID != "P1" || sum.SprintCount != 1 {
		t.Errorf("Unexpected summary scope: %+v", sum)
	}
	if sum.CompletionRate != 0.5 || sum.CompletedPoints != 5 {
		t.Errorf("Unexpected aggregates: rate=%v completed=%v", sum.CompletionRate, sum.CompletedPoints)
	}

	if _, err := svc.ProjectSummary(context.Background(), q); err != nil {
		t.Fatalf("Second query failed: %v", err)
	}
	if got := src.fetches.Load(); got != 1 {
		t.Errorf("Expected 1 fetch within the TTL, got %d", got)
	}
}

func TestCallerCancelDoesNotFailSharedFlight(t *testing.T) {
	src := &fakeSource{delay: 40 * time.Millisecond}
	svc := newService(src, time.Minute)
	q := VelocityQuery{Provider: "conn-1", ProjectID: "P1", SprintCount: 4}

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		// The originating caller cancels while the fetch is running.
		if _, err := svc.Velocity(ctx, q); err != nil {
			t.Errorf("Originating query failed: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		if _, err := svc.Velocity(context.Background(), q); err != nil {
			t.Errorf("Coalesced query failed: %v", err)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	wg.Wait()

	if got := src.fetches.Load(); got != 1 {
		t.Errorf("Expected the shared flight to finish once, got %d fetches", got)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	src := &fakeSource{}
	svc := newService(src, time.Minute)
	q := CycleTimeQuery{Provider: "conn-1", ProjectID: "P1", Days: 30}

	if _, err := svc.CycleTime(context.Background(), q); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	// Invalidating an unrelated provider leaves the entry alone.
	svc.Invalidate("conn-other")
	if _, err := svc.CycleTime(context.Background(), q); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got := src.fetches.Load(); got != 1 {
		t.Errorf("Unrelated invalidation must not evict, got %d fetches", got)
	}

	// The data-changed signal for this provider forces a refetch.
	svc.Invalidate("conn-1")
	if _, err := svc.CycleTime(context.Background(), q); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got := src.fetches.Load(); got != 2 {
		t.Errorf("Expected refetch after invalidation, got %d fetches", got)
	}
}

func TestErrorTranslation(t *testing.T) {
	src := &fakeSource{err: tracker.WrapError(tracker.ErrProjectNotFound, "conn-1", "P1", "gone")}
	svc := newService(src, time.Minute)

	_, err := svc.CumulativeFlow(context.Background(), CFDQuery{Provider: "conn-1", ProjectID: "P1"})
	if !errors.Is(err, tracker.ErrProjectNotFound) {
		t.Fatalf("Expected ErrProjectNotFound, got %v", err)
	}
	var te *tracker.Error
	if !errors.As(err, &te) || te.Chart != charts.ChartCumulativeFlow {
		t.Errorf("Expected chart context on error, got %+v", err)
	}

	// Errors are not cached: the next call fetches again.
	src.err = nil
	if _, err := svc.CumulativeFlow(context.Background(), CFDQuery{Provider: "conn-1", ProjectID: "P1"}); err != nil {
		t.Fatalf("Recovered query failed: %v", err)
	}
	if got := src.fetches.Load(); got != 2 {
		t.Errorf("Expected 2 fetches (errors never cached), got %d", got)
	}
}

func TestUnknownProviderAndDimension(t *testing.T) {
	svc := newService(&fakeSource{}, time.Minute)

	_, err := svc.Burndown(context.Background(), BurndownQuery{Provider: "nope", ProjectID: "P1", SprintID: "S1"})
	if !errors.Is(err, tracker.ErrUnknownProvider) {
		t.Errorf("Expected ErrUnknownProvider, got %v", err)
	}

	_, err = svc.WorkDistribution(context.Background(), WorkDistributionQuery{Provider: "conn-1", ProjectID: "P1", Dimension: "sprint"})
	if !errors.Is(err, tracker.ErrInvalidQuery) {
		t.Errorf("Expected ErrInvalidQuery for unknown dimension, got %v", err)
	}

	_, err = svc.SprintReport(context.Background(), SprintReportQuery{Provider: "conn-1", ProjectID: "P1"})
	if !errors.Is(err, tracker.ErrInvalidQuery) {
		t.Errorf("Expected ErrInvalidQuery for missing sprint id, got %v", err)
	}
}
