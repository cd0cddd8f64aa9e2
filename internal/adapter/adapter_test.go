package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sprintlens/internal/tracker"
)

// fakeClient is a call-counting tracker.Client test double.
type fakeClient struct {
	tasks   []tracker.Task
	sprints []tracker.Sprint
	sprint  tracker.Sprint

	taskErrs []error // consumed per ListTasks call; nil entries succeed

	listTaskCalls  int
	getSprintCalls int
}

func (f *fakeClient) ListTasks(ctx context.Context, projectID, sprintID string) ([]tracker.Task, error) {
	f.listTaskCalls++
	if len(f.taskErrs) > 0 {
		err := f.taskErrs[0]
		f.taskErrs = f.taskErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.tasks, nil
}

func (f *fakeClient) ListSprints(ctx context.Context, projectID string) ([]tracker.Sprint, error) {
	return f.sprints, nil
}

func (f *fakeClient) GetSprint(ctx context.Context, sprintID string) (tracker.Sprint, error) {
	f.getSprintCalls++
	if f.sprint.ID == "" {
		return tracker.Sprint{}, tracker.ErrSprintNotFound
	}
	return f.sprint, nil
}

func fastAdapter(client tracker.Client) *Adapter {
	a := New(client, "conn-1", tracker.ProviderInternal, nil)
	a.backoffBase = time.Millisecond
	a.timeout = time.Second
	return a
}

func doneTask(id, sprintID string) tracker.Task {
	return tracker.Task{
		ID:        id,
		SprintID:  sprintID,
		CreatedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Raw:       json.RawMessage(`{"status": "Done", "points": 3, "completed_at": "2026-04-05T00:00:00Z"}`),
	}
}

func TestBurndownDataDedupesAndAnnotates(t *testing.T) {
	client := &fakeClient{
		sprint: tracker.Sprint{ID: "S1", StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)},
		tasks: []tracker.Task{
			doneTask("T1", "S1"),
			doneTask("T1", "S1"), // duplicate page overlap
			doneTask("T2", "S1"),
			doneTask("T3", "other-sprint"),
		},
	}

	data, err := fastAdapter(client).BurndownData(context.Background(), "P1", "S1", "points")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(data.Tasks) != 2 {
		t.Fatalf("Expected 2 deduped in-sprint tasks, got %d", len(data.Tasks))
	}
	for _, task := range data.Tasks {
		if !task.Completed || task.Points != 3 {
			t.Errorf("Task %s not annotated: %+v", task.ID, task)
		}
	}
}

func TestBurndownRequiresSprintID(t *testing.T) {
	_, err := fastAdapter(&fakeClient{}).BurndownData(context.Background(), "P1", "", "points")
	if !errors.Is(err, tracker.ErrInvalidQuery) {
		t.Errorf("Expected ErrInvalidQuery, got %v", err)
	}
}

func TestRetryOnTransientFailure(t *testing.T) {
	client := &fakeClient{
		tasks:    []tracker.Task{doneTask("T1", "")},
		taskErrs: []error{tracker.ErrProviderUnavailable, tracker.ErrProviderUnavailable, nil},
	}

	tasks, err := fastAdapter(client).WorkDistributionData(context.Background(), "P1", "")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if client.listTaskCalls != 3 {
		t.Errorf("Expected 3 attempts, got %d", client.listTaskCalls)
	}
	if len(tasks) != 1 {
		t.Errorf("Expected 1 task, got %d", len(tasks))
	}
}

func TestRetryExhaustion(t *testing.T) {
	client := &fakeClient{
		taskErrs: []error{tracker.ErrProviderUnavailable, tracker.ErrProviderUnavailable, tracker.ErrProviderUnavailable},
	}

	_, err := fastAdapter(client).WorkDistributionData(context.Background(), "P1", "")
	if !errors.Is(err, tracker.ErrProviderUnavailable) {
		t.Fatalf("Expected ErrProviderUnavailable after exhaustion, got %v", err)
	}
	if client.listTaskCalls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", client.listTaskCalls)
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	client := &fakeClient{} // GetSprint returns ErrSprintNotFound

	_, err := fastAdapter(client).BurndownData(context.Background(), "P1", "S-missing", "points")
	if !errors.Is(err, tracker.ErrSprintNotFound) {
		t.Fatalf("Expected ErrSprintNotFound, got %v", err)
	}
	if client.getSprintCalls != 1 {
		t.Errorf("Not-found must not retry, got %d attempts", client.getSprintCalls)
	}

	var te *tracker.Error
	if !errors.As(err, &te) || te.Provider != "conn-1" || te.Project != "P1" {
		t.Errorf("Expected provider/project context on error, got %+v", err)
	}
}

func TestCFDDataEnforcesSprintMembership(t *testing.T) {
	// fakeClient.ListTasks ignores the sprint hint entirely, like a
	// client without server-side filtering.
	client := &fakeClient{
		sprint: tracker.Sprint{ID: "S1", StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)},
		tasks: []tracker.Task{
			doneTask("T1", "S1"),
			doneTask("T2", "other-sprint"),
			doneTask("T3", "other-sprint"),
		},
	}

	tasks, _, err := fastAdapter(client).CFDData(context.Background(), "P1", "S1", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected only in-sprint tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.SprintID != "S1" {
			t.Errorf("Task %s from sprint %q leaked into the dataset", task.ID, task.SprintID)
		}
	}

	// Without a sprint, the whole project is in scope.
	all, _, err := fastAdapter(client).CFDData(context.Background(), "P1", "", 30)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 tasks project-wide, got %d", len(all))
	}
}

func TestVelocityDataTrailingSprints(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var sprints []tracker.Sprint
	for i := 0; i < 5; i++ {
		sprints = append(sprints, tracker.Sprint{
			ID:        "S" + string(rune('1'+i)),
			StartDate: start.AddDate(0, 0, 14*i),
		})
	}
	client := &fakeClient{sprints: sprints}

	out, err := fastAdapter(client).VelocityData(context.Background(), "P1", 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("Expected last 3 sprints, got %d", len(out))
	}
	if out[0].Sprint.ID != "S3" || out[2].Sprint.ID != "S5" {
		t.Errorf("Wrong trailing window: %s .. %s", out[0].Sprint.ID, out[2].Sprint.ID)
	}
}
