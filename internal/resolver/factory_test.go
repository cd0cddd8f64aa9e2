package resolver

import (
	"encoding/json"
	"testing"
	"time"

	"sprintlens/internal/tracker"
)

func TestForProviderMapping(t *testing.T) {
	if _, ok := ForProvider(tracker.ProviderJira).(jiraResolver); !ok {
		t.Errorf("Expected jiraResolver for the Jira family")
	}
	if _, ok := ForProvider(tracker.ProviderOpenProject).(openProjectResolver); !ok {
		t.Errorf("Expected openProjectResolver for the OpenProject family")
	}
	if _, ok := ForProvider(tracker.ProviderInternal).(genericResolver); !ok {
		t.Errorf("Expected genericResolver for the internal store")
	}
	if _, ok := ForProvider(tracker.ProviderUnknown).(genericResolver); !ok {
		t.Errorf("Unknown provider types must fall back to the generic resolver")
	}
}

func TestAnnotateDoesNotMutateInput(t *testing.T) {
	original := tracker.Task{
		ID:        "T-1",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Raw:       json.RawMessage(`{"status": "Done", "points": 5, "completed_at": "2026-01-10T00:00:00Z"}`),
	}

	annotated := Annotate(genericResolver{}, original)

	if original.Completed || original.Points != 0 || original.Category != "" {
		t.Errorf("Annotate mutated its input: %+v", original)
	}
	if !annotated.Completed || annotated.Points != 5 {
		t.Errorf("Annotate did not fill canonical fields: %+v", annotated)
	}
}

func TestAnnotateReconcilesCompletionAndCategory(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Jira: resolution set but status category still in progress. The
	// completion flag wins and the category follows.
	task := tracker.Task{
		ID:        "J-1",
		CreatedAt: created,
		Raw:       json.RawMessage(`{"fields": {"resolution": {"name": "Fixed"}, "status": {"statusCategory": {"key": "indeterminate"}}}}`),
	}
	annotated := Annotate(jiraResolver{}, task)

	if !annotated.Completed || annotated.Category != tracker.StatusDone {
		t.Errorf("Completed tasks must read as done, got completed=%v category=%q", annotated.Completed, annotated.Category)
	}

	// Completed tasks with no recorded start fall back to creation.
	if annotated.StartDate == nil || !annotated.StartDate.Equal(created) {
		t.Errorf("Expected creation-time start fallback, got %v", annotated.StartDate)
	}
}

func TestAnnotateNeverDoneAndBlocked(t *testing.T) {
	// A closed-but-flagged payload must not come out both done and blocked.
	task := tracker.Task{
		ID:  "J-2",
		Raw: json.RawMessage(`{"fields": {"resolution": {"name": "Fixed"}, "customfield_10014": "Impediment", "status": {"statusCategory": {"key": "done"}}}}`),
	}
	annotated := Annotate(jiraResolver{}, task)

	if annotated.Category == tracker.StatusBlocked && annotated.Completed {
		t.Errorf("Task annotated as both done and blocked")
	}
	if annotated.Category != tracker.StatusDone {
		t.Errorf("Resolved task should be done, got %q", annotated.Category)
	}
}
