package adapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"sprintlens/internal/tracker"
)

// sprintBaseline freezes the committed membership of a sprint at the
// first observation on or after sprint start. Later fetches are diffed
// against it to derive scope-change events.
type sprintBaseline struct {
	SprintID   string             `json:"sprint_id"`
	RecordedAt time.Time          `json:"recorded_at"`
	Tasks      map[string]float64 `json:"tasks"` // task id → points at commitment
}

// BaselineStore persists sprint baselines as JSON under the cache
// directory so scope detection survives restarts. An empty dir keeps
// everything in memory.
type BaselineStore struct {
	mu        sync.Mutex
	dir       string
	baselines map[string]*sprintBaseline
}

func NewBaselineStore(dir string) *BaselineStore {
	return &BaselineStore{
		dir:       dir,
		baselines: make(map[string]*sprintBaseline),
	}
}

// ScopeChanges compares current sprint membership against the committed
// baseline, creating the baseline on first observation. Tasks created
// after sprint start count as additions even on that first pass.
func (s *BaselineStore) ScopeChanges(sprint tracker.Sprint, tasks []tracker.Task) []tracker.ScopeChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	baseline := s.load(sprint.ID)
	now := time.Now().UTC()

	if baseline == nil {
		baseline = &sprintBaseline{
			SprintID:   sprint.ID,
			RecordedAt: now,
			Tasks:      make(map[string]float64),
		}
		for _, t := range tasks {
			// Work created after the sprint started was never part of
			// the commitment.
			if !sprint.StartDate.IsZero() && t.CreatedAt.After(sprint.StartDate) {
				continue
			}
			baseline.Tasks[t.ID] = t.Points
		}
		s.save(baseline)
	}

	var events []tracker.ScopeChangeEvent
	current := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		current[t.ID] = true
		if _, committed := baseline.Tasks[t.ID]; committed {
			continue
		}
		at := t.CreatedAt
		if at.IsZero() || at.Before(sprint.StartDate) {
			at = now
		}
		events = append(events, tracker.ScopeChangeEvent{
			TaskID:     t.ID,
			SprintID:   sprint.ID,
			Change:     tracker.ScopeAdded,
			PointDelta: t.Points,
			At:         at,
		})
	}

	for id, points := range baseline.Tasks {
		if current[id] {
			continue
		}
		events = append(events, tracker.ScopeChangeEvent{
			TaskID:     id,
			SprintID:   sprint.ID,
			Change:     tracker.ScopeRemoved,
			PointDelta: points,
			At:         now,
		})
	}

	slices.SortFunc(events, func(a, b tracker.ScopeChangeEvent) int {
		return a.At.Compare(b.At)
	})
	return events
}

// load returns the cached baseline, reading it from disk on first use.
func (s *BaselineStore) load(sprintID string) *sprintBaseline {
	if b, ok := s.baselines[sprintID]; ok {
		return b
	}
	if s.dir == "" {
		return nil
	}

	data, err := os.ReadFile(s.path(sprintID))
	if err != nil {
		return nil
	}
	var baseline sprintBaseline
	if err := json.Unmarshal(data, &baseline); err != nil {
		log.Warn().Str("sprint", sprintID).Err(err).Msg("Discarding unreadable sprint baseline")
		return nil
	}
	s.baselines[sprintID] = &baseline
	return &baseline
}

func (s *BaselineStore) save(baseline *sprintBaseline) {
	s.baselines[baseline.SprintID] = baseline
	if s.dir == "" {
		return
	}

	data, err := json.MarshalIndent(baseline, "", "  ")
	if err != nil {
		log.Warn().Str("sprint", baseline.SprintID).Err(err).Msg("Failed to encode sprint baseline")
		return
	}
	if err := os.WriteFile(s.path(baseline.SprintID), data, 0644); err != nil {
		log.Warn().Str("sprint", baseline.SprintID).Err(err).Msg("Failed to persist sprint baseline")
	}
}

func (s *BaselineStore) path(sprintID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("baseline-%s.json", sprintID))
}
