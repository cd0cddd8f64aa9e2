package resolver

import (
	"strings"
	"time"

	"sprintlens/internal/tracker"
)

var (
	doneKeywords       = []string{"done", "closed", "completed", "resolved"}
	blockedKeywords    = []string{"blocked", "on hold", "impeded"}
	inProgressKeywords = []string{"progress", "review", "doing", "started", "active", "testing"}
)

// categoryFromText maps a free-text status to a canonical category via
// case-insensitive keyword containment. Unrecognized text is todo.
func categoryFromText(status string) tracker.StatusCategory {
	lower := strings.ToLower(status)
	if containsAny(lower, doneKeywords) {
		return tracker.StatusDone
	}
	if containsAny(lower, blockedKeywords) {
		return tracker.StatusBlocked
	}
	if containsAny(lower, inProgressKeywords) {
		return tracker.StatusInProgress
	}
	return tracker.StatusTodo
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// timeFormats covers the timestamp shapes seen across provider
// payloads, tried in order.
var timeFormats = []string{
	"2006-01-02T15:04:05.000-0700", // Jira
	time.RFC3339,
	"2006-01-02",
}

// parseTime returns nil rather than an error on unparseable input;
// callers treat a missing date as the documented default.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
