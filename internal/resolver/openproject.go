package resolver

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"sprintlens/internal/tracker"
)

// openProjectResolver interprets OpenProject-family payloads. The
// status object carries an isClosed flag, but percentageDone reaching
// 100 also counts as completed even when the flag says otherwise: the
// flag lags behind the progress field on some workflow configurations,
// so the percentage wins the tie-break.
type openProjectResolver struct{}

func (openProjectResolver) IsCompleted(t tracker.Task) bool {
	if gjson.GetBytes(t.Raw, "_embedded.status.isClosed").Bool() {
		return true
	}
	pct := gjson.GetBytes(t.Raw, "percentageDone")
	return pct.Exists() && pct.Float() >= 100
}

func (openProjectResolver) IsBurndownable(t tracker.Task) bool {
	name := strings.ToLower(gjson.GetBytes(t.Raw, "_embedded.status.name").String())
	return !strings.Contains(name, "rejected")
}

func (r openProjectResolver) CompletionDate(t tracker.Task) *time.Time {
	if ts := parseTime(gjson.GetBytes(t.Raw, "closedAt").String()); ts != nil {
		return ts
	}
	// Closed work packages do not always carry closedAt; fall back to
	// the last update, which is the closing transition.
	if r.IsCompleted(t) {
		if ts := parseTime(gjson.GetBytes(t.Raw, "updatedAt").String()); ts != nil {
			return ts
		}
		log.Warn().Str("task", t.ID).Msg("Completed OpenProject work package has no usable completion date")
	}
	return nil
}

func (openProjectResolver) StartDate(t tracker.Task) *time.Time {
	return parseTime(gjson.GetBytes(t.Raw, "startDate").String())
}

func (r openProjectResolver) Category(t tracker.Task) tracker.StatusCategory {
	if r.IsCompleted(t) {
		return tracker.StatusDone
	}
	name := strings.ToLower(gjson.GetBytes(t.Raw, "_embedded.status.name").String())
	if strings.Contains(name, "hold") || strings.Contains(name, "block") {
		return tracker.StatusBlocked
	}
	if gjson.GetBytes(t.Raw, "percentageDone").Float() > 0 {
		return tracker.StatusInProgress
	}
	return categoryFromText(name)
}

func (openProjectResolver) StoryPoints(t tracker.Task) float64 {
	if v := gjson.GetBytes(t.Raw, "storyPoints"); v.Exists() && v.Type == gjson.Number {
		return v.Float()
	}
	return 0
}

// StatusHistory returns nil: OpenProject work-package payloads carry no
// reconstructable transition log, so CFD reconstruction holds the
// current category constant since creation.
func (openProjectResolver) StatusHistory(t tracker.Task) []tracker.StatusChange {
	return nil
}
