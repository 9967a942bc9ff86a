package registry

import (
	"slices"
	"time"

	"github.com/aretw0/introspection"
)

// RegistryState exposes internal state for observability.
type RegistryState struct {
	Notes           int            `json:"notes"`
	ByState         map[string]int `json:"by_state"`
	Actives         []string       `json:"actives"`
	PendingGeometry int            `json:"pending_geometry"`
	LastRefresh     *time.Time     `json:"last_refresh,omitempty"`
	NotesDirectory  string         `json:"notes_directory"`
	EnabledFolders  []string       `json:"enabled_folders"`
}

// State implements introspection.Introspectable.
func (r *Registry) State() any {
	notes := r.snapshot()
	byState := make(map[string]int)
	for _, n := range notes {
		byState[n.State().String()]++
	}

	var enabled []string
	for name, on := range r.prefs.Folders() {
		if on {
			enabled = append(enabled, name)
		}
	}
	slices.Sort(enabled)

	r.mu.RLock()
	last := r.lastRefresh
	r.mu.RUnlock()

	return RegistryState{
		Notes:           len(notes),
		ByState:         byState,
		Actives:         r.prefs.Actives(),
		PendingGeometry: r.geometry.Pending(),
		LastRefresh:     last,
		NotesDirectory:  r.repo.Path,
		EnabledFolders:  enabled,
	}
}

// ComponentType implements introspection.Component.
func (r *Registry) ComponentType() string {
	return "note-registry"
}

var _ introspection.Introspectable = (*Registry)(nil)
var _ introspection.Component = (*Registry)(nil)
