// Package registry owns the note entities of a session. It keeps the registry,
// the profiles document and the notes directory in agreement: scanning
// discovers files, reconciliation removes orphans and dead profiles, and the
// lifecycle operations move a note's file, profile, registry slot and
// active-set membership together.
package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/padnote/internal/debounce"
	"github.com/aretw0/padnote/pkg/adapters/fs"
	"github.com/aretw0/padnote/pkg/config"
	"github.com/aretw0/padnote/pkg/core"
	"github.com/aretw0/padnote/pkg/profile"
)

// GeometryDelay is the quiet period before a moved or resized note is saved.
const GeometryDelay = 400 * time.Millisecond

// Registry maps note identities to live note entities.
type Registry struct {
	repo      *fs.Repository
	prefs     *config.Store
	profiles  *profile.Document
	windows   core.WindowFactory
	confirm   core.Confirmer
	clipboard core.Clipboard
	screen    core.Screen
	logger    *slog.Logger
	post      func(func())
	geometry  *debounce.Debouncer

	mu          sync.RWMutex
	notes       map[string]*Note
	lastRefresh *time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithWindowFactory attaches a rendering layer. Notes get headless windows
// without one.
func WithWindowFactory(f core.WindowFactory) Option {
	return func(r *Registry) {
		if f != nil {
			r.windows = f
		}
	}
}

// WithConfirmer sets who answers destructive-operation prompts. Without one
// every prompt is refused.
func WithConfirmer(c core.Confirmer) Option {
	return func(r *Registry) {
		if c != nil {
			r.confirm = c
		}
	}
}

// WithClipboard sets the clipboard used by "Copy to clipboard".
func WithClipboard(c core.Clipboard) Option {
	return func(r *Registry) {
		r.clipboard = c
	}
}

// WithScreen sets the display size used for cascading new notes.
func WithScreen(s core.Screen) Option {
	return func(r *Registry) {
		if s.Width > 0 && s.Height > 0 {
			r.screen = s
		}
	}
}

// WithPoster sets how deferred work (debounced geometry saves) is marshalled
// onto the goroutine that owns the registry.
func WithPoster(post func(func())) Option {
	return func(r *Registry) {
		if post != nil {
			r.post = post
		}
	}
}

// WithGeometryDelay overrides GeometryDelay.
func WithGeometryDelay(d time.Duration) Option {
	return func(r *Registry) {
		r.geometry = debounce.New(d)
	}
}

// New creates an empty registry over the given stores.
func New(repo *fs.Repository, prefs *config.Store, profiles *profile.Document, opts ...Option) *Registry {
	r := &Registry{
		repo:     repo,
		prefs:    prefs,
		profiles: profiles,
		windows:  core.NewHeadlessWindow,
		confirm:  core.DenyAll,
		screen:   core.DefaultScreen,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		post:     func(fn func()) { fn() },
		geometry: debounce.New(GeometryDelay),
		notes:    make(map[string]*Note),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close stops the geometry debouncer and saves the geometry still waiting on
// it. It must run on the goroutine that owns the registry.
func (r *Registry) Close() {
	r.geometry.StopAndWait(time.Second)
	for _, n := range r.snapshot() {
		n.flushGeometry()
	}
}

// Get returns the live note for id.
func (r *Registry) Get(id string) (*Note, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notes[id]
	return n, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Len returns the number of registered notes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notes)
}

// IDs returns the registered identities in List order.
func (r *Registry) IDs() []string {
	notes := r.List()
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID()
	}
	return ids
}

// List returns the notes for display: top-level notes first, then foldered
// notes, each group sorted case-insensitively.
func (r *Registry) List() []*Note {
	notes := r.snapshot()
	ids := make(map[*Note]string, len(notes))
	for _, n := range notes {
		ids[n] = n.ID()
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return lessID(ids[notes[i]], ids[notes[j]])
	})
	return notes
}

func lessID(a, b string) bool {
	af, bf := strings.Contains(a, "/"), strings.Contains(b, "/")
	if af != bf {
		return !af
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func (r *Registry) snapshot() []*Note {
	r.mu.RLock()
	defer r.mu.RUnlock()
	notes := make([]*Note, 0, len(r.notes))
	for _, n := range r.notes {
		notes = append(notes, n)
	}
	return notes
}

func (r *Registry) put(id string, n *Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[id] = n
}

func (r *Registry) drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notes, id)
}

// move rekeys a registry slot. It fails if the slot is gone or the target taken.
func (r *Registry) move(from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[from]
	if !ok {
		return core.ErrNotFound
	}
	if _, taken := r.notes[to]; taken {
		return core.ErrNameConflict
	}
	delete(r.notes, from)
	r.notes[to] = n
	return nil
}

// taken reports whether an identity is used by a registered note or by a
// content file on disk (notes in unloaded folders are not registered).
func (r *Registry) taken(id string) bool {
	return r.Has(id) || r.repo.Exists(id, core.KindText) || r.repo.Exists(id, core.KindImage)
}

type loadMode int

const (
	// loadScan shows the note only if pinned or when notes do not start minimized.
	loadScan loadMode = iota
	loadInteractive
	loadBackground
)

// load builds the entity for a content file and registers it.
func (r *Registry) load(e fs.Entry, mode loadMode) (*Note, error) {
	seed := profile.Seed{
		Index:   r.Len(),
		Screen:  r.screen,
		Default: r.prefs.StyleDefault(),
	}
	if e.Kind == core.KindImage {
		id := e.ID
		seed.ImageSize = func() (int, int, error) { return r.repo.ImageSize(id) }
	}
	prof, err := profile.Open(r.profiles, e.ID, seed)
	if err != nil {
		return nil, err
	}

	n := &Note{
		reg:     r,
		id:      e.ID,
		kind:    e.Kind,
		state:   core.StateNew,
		profile: prof,
		window:  r.windows(e.ID, e.Kind),
	}
	if e.Kind == core.KindText {
		text, err := r.repo.ReadText(e.ID)
		if err != nil {
			return nil, err
		}
		n.content = text
	}
	r.put(e.ID, n)

	show := mode == loadInteractive
	if mode == loadScan {
		show = prof.Style().Pin || !r.prefs.Bool("general", "minimize")
	}
	if show {
		n.display(true)
	} else {
		n.setState(core.StateHidden)
	}
	r.logger.Debug("note loaded", "id", e.ID, "kind", e.Kind, "state", n.State())
	return n, nil
}

// Scan registers every content file in the notes root and in enabled folders
// that is not registered yet. With deleteEmptyNotes set, zero-byte text files
// are deleted instead.
func (r *Registry) Scan(ctx context.Context) error {
	if err := r.scanFolder(ctx, ""); err != nil {
		return err
	}
	return r.LoadFolders(ctx)
}

func (r *Registry) scanFolder(ctx context.Context, folder string) error {
	entries, err := r.repo.List(ctx, folder)
	if err != nil {
		return err
	}
	deleteEmpty := r.prefs.Bool("general", "deleteEmptyNotes")

	var errs []error
	for _, e := range entries {
		if r.Has(e.ID) {
			continue
		}
		if e.Kind == core.KindText && e.Size == 0 && deleteEmpty {
			r.logger.Warn("removed note", "id", e.ID, "reason", "empty")
			if err := r.purge(e.ID, e.Kind); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if _, err := r.load(e, loadScan); err != nil {
			r.logger.Error("failed to load note", "id", e.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// purge deletes an unregistered note's file and profile.
func (r *Registry) purge(id string, kind core.Kind) error {
	if err := r.repo.Remove(id, kind); err != nil {
		return err
	}
	return r.profiles.Delete(id)
}

// ReconcileOrphans removes every registered note whose content file is gone
// and returns their identities. Running it twice without filesystem changes
// does nothing the second time.
func (r *Registry) ReconcileOrphans() []string {
	var removed []string
	for _, n := range r.snapshot() {
		id := n.ID()
		if id == "" || r.repo.Exists(id, n.kind) {
			continue
		}
		r.logger.Warn("removed note", "id", id, "reason", "orphan")
		if err := n.Remove(); err != nil {
			r.logger.Error("failed to remove orphan", "id", id, "error", err)
			continue
		}
		removed = append(removed, id)
	}
	sort.Strings(removed)
	return removed
}

// ReconcileProfiles deletes profile records whose content file is gone.
func (r *Registry) ReconcileProfiles() ([]string, error) {
	removed, err := r.profiles.Prune(func(id string) bool {
		return r.repo.Exists(id, core.KindText) || r.repo.Exists(id, core.KindImage)
	})
	if err != nil {
		r.logger.Error("failed to prune profiles", "error", err)
		return nil, err
	}
	for _, id := range removed {
		r.logger.Info("removed profile", "id", id, "reason", "no content file")
	}
	return removed, nil
}

// DeleteEmptyNotes deletes zero-byte text notes in the root and in every folder.
func (r *Registry) DeleteEmptyNotes(ctx context.Context) ([]string, error) {
	folders, err := r.repo.Folders()
	if err != nil {
		return nil, err
	}
	var removed []string
	var errs []error
	for _, folder := range append([]string{""}, folders...) {
		entries, err := r.repo.List(ctx, folder)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			if e.Kind != core.KindText || e.Size != 0 {
				continue
			}
			r.logger.Warn("removed note", "id", e.ID, "reason", "empty")
			if n, ok := r.Get(e.ID); ok {
				err = n.Remove()
			} else {
				err = r.purge(e.ID, e.Kind)
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}
			removed = append(removed, e.ID)
		}
	}
	return removed, errors.Join(errs...)
}

// Refresh brings the registry in line with the disk: new files are loaded,
// folders synced and orphans removed. The tray menu runs it before showing.
func (r *Registry) Refresh(ctx context.Context) error {
	err := r.Scan(ctx)
	r.ReconcileOrphans()
	if _, perr := r.ReconcileProfiles(); perr != nil {
		err = errors.Join(err, perr)
	}

	now := time.Now()
	r.mu.Lock()
	r.lastRefresh = &now
	r.mu.Unlock()
	return err
}

// HandleEvent applies a notes-directory change observed by the watcher.
func (r *Registry) HandleEvent(ctx context.Context, e core.Event) error {
	switch e.Type {
	case core.EventDelete:
		r.ReconcileOrphans()
		return nil
	case core.EventCreate, core.EventModify:
		// Editors that save by renaming into place only report a create.
		if n, ok := r.Get(e.ID); ok {
			_, err := n.Reload()
			return err
		}
	}
	return r.Scan(ctx)
}

// isActive reports whether id is in the active set.
func (r *Registry) isActive(id string) bool {
	return slices.Contains(r.prefs.Actives(), id)
}

// dropActive removes id from the active set and saves preferences if it was there.
func (r *Registry) dropActive(id string) error {
	actives := r.prefs.Actives()
	i := slices.Index(actives, id)
	if i < 0 {
		return nil
	}
	r.prefs.SetActives(slices.Delete(actives, i, i+1))
	return r.prefs.Save()
}
