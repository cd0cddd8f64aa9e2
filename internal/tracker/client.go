package tracker

import (
	"context"
	"strings"
)

// ProviderType identifies a provider family with known workflow
// semantics. Selection is always an exact enumerated mapping; free-text
// connection types that do not match resolve to ProviderUnknown.
type ProviderType string

const (
	ProviderJira        ProviderType = "jira"
	ProviderOpenProject ProviderType = "openproject"
	ProviderInternal    ProviderType = "internal"
	ProviderUnknown     ProviderType = "unknown"
)

// ParseProviderType maps a connection's type string to a provider
// family. Each alias is matched exactly; there is no substring
// inference, so "openproject_v13" is ProviderUnknown and routes to the
// fallback resolver.
func ParseProviderType(s string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jira", "jira_cloud", "jira_dc":
		return ProviderJira
	case "openproject":
		return ProviderOpenProject
	case "internal":
		return ProviderInternal
	default:
		return ProviderUnknown
	}
}

// Client fetches raw task and sprint records from one tracking system.
// Implementations live outside the analytics core; every returned Task
// must carry its untouched raw payload for resolver introspection.
// Errors should wrap the taxonomy kinds in errors.go so the adapter can
// distinguish transient failures from fatal ones.
type Client interface {
	// ListTasks returns the tasks of a project. When sprintID is
	// non-empty, implementations may pre-filter server-side; the
	// adapter filters again on the canonical sprint field either way.
	ListTasks(ctx context.Context, projectID, sprintID string) ([]Task, error)
	ListSprints(ctx context.Context, projectID string) ([]Sprint, error)
	GetSprint(ctx context.Context, sprintID string) (Sprint, error)
}
