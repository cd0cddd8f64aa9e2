package resolver

import (
	"github.com/rs/zerolog/log"

	"sprintlens/internal/tracker"
)

// registry is the explicit provider-family → resolver mapping. The
// internal store uses the generic strategy: its payloads are flat
// documents with free-text statuses.
var registry = map[tracker.ProviderType]StatusResolver{
	tracker.ProviderJira:        jiraResolver{},
	tracker.ProviderOpenProject: openProjectResolver{},
	tracker.ProviderInternal:    genericResolver{},
}

// ForProvider returns the resolver registered for the provider family.
// Unknown types fall back to the generic resolver with a warning; the
// request still succeeds.
func ForProvider(pt tracker.ProviderType) StatusResolver {
	if r, ok := registry[pt]; ok {
		return r
	}
	log.Warn().Str("provider_type", string(pt)).Msg("No resolver registered for provider type, using generic fallback")
	return genericResolver{}
}
