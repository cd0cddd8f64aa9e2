package resolver

import (
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"sprintlens/internal/tracker"
)

// genericResolver is the fallback strategy for the internal task store
// and for unknown provider types: it matches completion by keyword
// containment in a free-text status field and reads flat, conventional
// field names.
type genericResolver struct{}

// statusText handles both a plain string status and a nested
// {"status": {"name": ...}} object.
func (genericResolver) statusText(t tracker.Task) string {
	status := gjson.GetBytes(t.Raw, "status")
	if status.IsObject() {
		return status.Get("name").String()
	}
	return status.String()
}

func (r genericResolver) IsCompleted(t tracker.Task) bool {
	return containsAny(strings.ToLower(r.statusText(t)), doneKeywords)
}

func (r genericResolver) IsBurndownable(t tracker.Task) bool {
	return !strings.Contains(strings.ToLower(r.statusText(t)), "cancel")
}

func (r genericResolver) CompletionDate(t tracker.Task) *time.Time {
	for _, path := range []string{"completed_at", "completedAt", "closed_at"} {
		if ts := parseTime(gjson.GetBytes(t.Raw, path).String()); ts != nil {
			return ts
		}
	}
	// Fall back to the final done transition in the recorded history.
	history := r.StatusHistory(t)
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Category == tracker.StatusDone {
			at := history[i].At
			return &at
		}
	}
	return nil
}

func (r genericResolver) StartDate(t tracker.Task) *time.Time {
	for _, path := range []string{"started_at", "startedAt", "start_date"} {
		if ts := parseTime(gjson.GetBytes(t.Raw, path).String()); ts != nil {
			return ts
		}
	}
	for _, ch := range r.StatusHistory(t) {
		if ch.Category == tracker.StatusInProgress {
			at := ch.At
			return &at
		}
	}
	return nil
}

func (r genericResolver) Category(t tracker.Task) tracker.StatusCategory {
	return categoryFromText(r.statusText(t))
}

func (genericResolver) StoryPoints(t tracker.Task) float64 {
	for _, path := range []string{"points", "story_points", "storyPoints"} {
		if v := gjson.GetBytes(t.Raw, path); v.Exists() && v.Type == gjson.Number {
			return v.Float()
		}
	}
	return 0
}

func (genericResolver) StatusHistory(t tracker.Task) []tracker.StatusChange {
	entries := gjson.GetBytes(t.Raw, "status_history")
	if !entries.IsArray() {
		return nil
	}

	var changes []tracker.StatusChange
	entries.ForEach(func(_, e gjson.Result) bool {
		ts := parseTime(e.Get("timestamp").String())
		if ts == nil {
			log.Warn().Str("task", t.ID).Msg("Skipping status history entry with unparseable timestamp")
			return true
		}
		changes = append(changes, tracker.StatusChange{
			Category: categoryFromText(e.Get("status").String()),
			At:       *ts,
		})
		return true
	})

	slices.SortFunc(changes, func(a, b tracker.StatusChange) int {
		return a.At.Compare(b.At)
	})
	return changes
}
