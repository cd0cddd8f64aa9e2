// Package localstore implements the tracker.Client interface on top of
// plain JSON files on disk. It is the reference provider for local or
// exported data sets: each project is a directory holding tasks.json
// and sprints.json.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"sprintlens/internal/tracker"
)

const (
	tasksFile   = "tasks.json"
	sprintsFile = "sprints.json"
)

// Store reads tasks and sprints from <dir>/<projectID>/{tasks,sprints}.json.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory does not have to
// exist yet; lookups against a missing root report project-not-found.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// ListTasks returns the project's tasks, filtered to sprintID when it
// is non-empty. Each task keeps its original JSON element in Raw so a
// resolver can inspect fields the canonical model does not carry.
func (s *Store) ListTasks(ctx context.Context, projectID, sprintID string) ([]tracker.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raws, err := s.readArray(projectID, tasksFile)
	if err != nil {
		return nil, err
	}
	tasks := make([]tracker.Task, 0, len(raws))
	for _, raw := range raws {
		var t tracker.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, tracker.WrapError(tracker.ErrMalformedData, "internal", projectID, "decoding task in %s: %v", tasksFile, err)
		}
		t.Raw = raw
		if sprintID != "" && t.SprintID != sprintID {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// ListSprints returns every sprint recorded for the project.
func (s *Store) ListSprints(ctx context.Context, projectID string) ([]tracker.Sprint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raws, err := s.readArray(projectID, sprintsFile)
	if err != nil {
		return nil, err
	}
	sprints := make([]tracker.Sprint, 0, len(raws))
	for _, raw := range raws {
		var sp tracker.Sprint
		if err := json.Unmarshal(raw, &sp); err != nil {
			return nil, tracker.WrapError(tracker.ErrMalformedData, "internal", projectID, "decoding sprint in %s: %v", sprintsFile, err)
		}
		sprints = append(sprints, sp)
	}
	return sprints, nil
}

// GetSprint scans every project directory for the sprint. Sprint IDs
// are expected to be unique across projects in a single data root.
func (s *Store) GetSprint(ctx context.Context, sprintID string) (tracker.Sprint, error) {
	if err := ctx.Err(); err != nil {
		return tracker.Sprint{}, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return tracker.Sprint{}, tracker.WrapError(tracker.ErrSprintNotFound, "internal", "", "sprint %q: no data root at %s", sprintID, s.dir)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sprints, err := s.ListSprints(ctx, entry.Name())
		if err != nil {
			if errors.Is(err, tracker.ErrProjectNotFound) {
				continue
			}
			return tracker.Sprint{}, err
		}
		for _, sp := range sprints {
			if sp.ID == sprintID {
				return sp, nil
			}
		}
	}
	return tracker.Sprint{}, tracker.WrapError(tracker.ErrSprintNotFound, "internal", "", "sprint %q not found", sprintID)
}

// readArray loads a project file as a slice of raw JSON elements.
func (s *Store) readArray(projectID, name string) ([]json.RawMessage, error) {
	if projectID == "" {
		return nil, tracker.WrapError(tracker.ErrProjectNotFound, "internal", projectID, "empty project id")
	}
	path := filepath.Join(s.dir, projectID, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, tracker.WrapError(tracker.ErrProjectNotFound, "internal", projectID, "no %s for project", name)
		}
		return nil, tracker.WrapError(tracker.ErrProviderUnavailable, "internal", projectID, "reading %s: %v", name, err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, tracker.WrapError(tracker.ErrMalformedData, "internal", projectID, "parsing %s: %v", name, err)
	}
	return raws, nil
}
