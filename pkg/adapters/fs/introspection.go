package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState is the snapshot the repository reports for observability.
type RepositoryState struct {
	Path            string     `json:"path"`
	ContentPatterns []string   `json:"content_patterns"`
	WatcherActive   bool       `json:"watcher_active"`
	WatcherStarts   int        `json:"watcher_starts"`
	LastScan        *ScanStats `json:"last_scan,omitempty"`
}

// ScanStats describes the most recent List call.
type ScanStats struct {
	At     time.Time `json:"at"`
	Folder string    `json:"folder,omitempty"`
	Notes  int       `json:"notes"`
}

// stats is the mutable counterpart of RepositoryState, guarded by
// Repository.mu.
type stats struct {
	watcherActive bool
	watcherStarts int
	lastScan      *ScanStats
}

func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := RepositoryState{
		Path:            r.Path,
		ContentPatterns: append([]string(nil), r.config.ContentPatterns...),
		WatcherActive:   r.stats.watcherActive,
		WatcherStarts:   r.stats.watcherStarts,
	}
	if r.stats.lastScan != nil {
		scan := *r.stats.lastScan
		state.LastScan = &scan
	}
	return state
}

func (r *Repository) ComponentType() string {
	return "notes-repository"
}

var (
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)

// setWatcherActive flips the watcher flag. Each activation counts as a start,
// so a supervisor restart shows up as WatcherStarts > 1.
func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if active && !r.stats.watcherActive {
		r.stats.watcherStarts++
	}
	r.stats.watcherActive = active
}

func (r *Repository) recordScan(folder string, notes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.lastScan = &ScanStats{At: time.Now(), Folder: folder, Notes: notes}
}
