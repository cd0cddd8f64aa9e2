package resolver

import (
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"sprintlens/internal/tracker"
)

// jiraResolver interprets Jira-family payloads. Completion is signalled
// by a non-empty resolution; the status category comes from Jira's own
// statusCategory key; history is rebuilt from the changelog.
type jiraResolver struct{}

func (jiraResolver) IsCompleted(t tracker.Task) bool {
	return gjson.GetBytes(t.Raw, "fields.resolution.name").String() != ""
}

func (jiraResolver) IsBurndownable(t tracker.Task) bool {
	return !gjson.GetBytes(t.Raw, "fields.issuetype.subtask").Bool()
}

func (r jiraResolver) CompletionDate(t tracker.Task) *time.Time {
	raw := gjson.GetBytes(t.Raw, "fields.resolutiondate").String()
	if raw == "" {
		return nil
	}
	ts := parseTime(raw)
	if ts == nil {
		log.Warn().Str("task", t.ID).Str("value", raw).Msg("Unparseable Jira resolution date, treating as unresolved")
	}
	return ts
}

func (r jiraResolver) StartDate(t tracker.Task) *time.Time {
	for _, ch := range r.StatusHistory(t) {
		if ch.Category == tracker.StatusInProgress {
			at := ch.At
			return &at
		}
	}
	return nil
}

func (r jiraResolver) Category(t tracker.Task) tracker.StatusCategory {
	if r.IsCompleted(t) {
		return tracker.StatusDone
	}

	// Jira's Flagged field marks impediments.
	if flagged := gjson.GetBytes(t.Raw, "fields.customfield_10014"); flagged.Exists() && flagged.Type != gjson.Null {
		return tracker.StatusBlocked
	}

	switch key := gjson.GetBytes(t.Raw, "fields.status.statusCategory.key").String(); key {
	case "new":
		return tracker.StatusTodo
	case "indeterminate":
		return tracker.StatusInProgress
	case "done":
		return tracker.StatusDone
	case "":
		log.Warn().Str("task", t.ID).Msg("Jira payload missing status category, falling back to status name")
		return categoryFromText(gjson.GetBytes(t.Raw, "fields.status.name").String())
	default:
		log.Warn().Str("task", t.ID).Str("key", key).Msg("Unrecognized Jira status category key")
		return categoryFromText(gjson.GetBytes(t.Raw, "fields.status.name").String())
	}
}

func (jiraResolver) StoryPoints(t tracker.Task) float64 {
	// customfield_10016 is the default story-point field on Jira
	// Cloud; some Server instances use 10026.
	for _, path := range []string{"fields.customfield_10016", "fields.customfield_10026"} {
		if v := gjson.GetBytes(t.Raw, path); v.Exists() && v.Type == gjson.Number {
			return v.Float()
		}
	}
	return 0
}

func (jiraResolver) StatusHistory(t tracker.Task) []tracker.StatusChange {
	histories := gjson.GetBytes(t.Raw, "changelog.histories")
	if !histories.Exists() {
		return nil
	}

	var changes []tracker.StatusChange
	histories.ForEach(func(_, h gjson.Result) bool {
		ts := parseTime(h.Get("created").String())
		if ts == nil {
			log.Warn().Str("task", t.ID).Msg("Skipping Jira changelog entry with unparseable timestamp")
			return true
		}
		h.Get("items").ForEach(func(_, item gjson.Result) bool {
			if item.Get("field").String() != "status" {
				return true
			}
			changes = append(changes, tracker.StatusChange{
				Category: categoryFromText(item.Get("toString").String()),
				At:       *ts,
			})
			return true
		})
		return true
	})

	slices.SortFunc(changes, func(a, b tracker.StatusChange) int {
		return a.At.Compare(b.At)
	})
	return changes
}
