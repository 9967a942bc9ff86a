package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/padnote/pkg/core"
)

// Stagger is the cascade offset in pixels between consecutive new notes.
const Stagger = 28

// Seed carries what a store needs to create a record for an unseen note.
type Seed struct {
	// Index orders the note among those being created; it only shifts the
	// initial cascade position.
	Index   int
	Screen  core.Screen
	Default core.Style
	// ImageSize reports the intrinsic size of an image note. Nil for text notes.
	ImageSize func() (width, height int, err error)
}

// Store is the profile of a single note.
type Store struct {
	doc      *Document
	logger   *slog.Logger
	defaults core.Style

	mu      sync.Mutex
	id      string
	style   core.Style
	present map[string]bool
	pending map[string]any
}

// Open returns the store for id, creating the record when it does not exist
// and completing it from the style default when keys are missing.
func Open(doc *Document, id string, seed Seed) (*Store, error) {
	s := &Store{
		doc:      doc,
		logger:   doc.logger,
		defaults: seed.Default,
		id:       id,
		pending:  make(map[string]any),
	}

	rec, ok := doc.Get(id)
	if !ok {
		return s, s.create(seed)
	}

	style, present, err := decodeRecord(rec, seed.Default)
	if err != nil {
		s.logger.Error("profile record unreadable, reseeding", "id", id, "error", err)
		return s, s.create(seed)
	}

	var missing []string
	for _, key := range core.StyleKeys {
		if !present[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		s.logger.Error("profile incomplete, repaired from style default",
			"id", id, "keys", missing, "error", core.ErrMissingKey)
		full := Record(style)
		err := doc.Update(id, func(r map[string]any) {
			for _, key := range missing {
				r[key] = full[key]
			}
		})
		if err != nil {
			return nil, err
		}
		for _, key := range missing {
			present[key] = true
		}
	}

	s.style = style
	s.present = present
	return s, nil
}

// create seeds a new record from the style default at its cascade position.
func (s *Store) create(seed Seed) error {
	style := seed.Default
	if seed.ImageSize != nil {
		if w, h, err := seed.ImageSize(); err != nil {
			s.logger.Warn("image size unavailable, using style default", "id", s.id, "error", err)
		} else {
			style.Width, style.Height = w, h
		}
	}
	screen := seed.Screen
	if screen.Width == 0 {
		screen = core.DefaultScreen
	}
	style.X = screen.Width - style.Width - seed.Index*Stagger
	style.Y = style.Height/2 + seed.Index*Stagger

	rec := Record(style)
	if err := s.doc.Update(s.id, func(r map[string]any) {
		clear(r)
		maps.Copy(r, rec)
	}); err != nil {
		return err
	}

	s.style = style
	s.present = allKeys()
	s.logger.Debug("profile created", "id", s.id, "x", style.X, "y", style.Y)
	return nil
}

// ID returns the note identity the store is keyed by.
func (s *Store) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Style returns the profile as last loaded or saved, without pending changes.
func (s *Store) Style() core.Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style
}

// Query returns a profile key. Keys absent from the record resolve to the
// style default and are logged; unknown keys are core.ErrSchemaCorruption.
func (s *Store) Query(key string) (core.Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(core.StyleKeys, key) {
		err := fmt.Errorf("%w: profile key %s", core.ErrSchemaCorruption, key)
		s.logger.Error("unknown profile key", "id", s.id, "key", key, "error", err)
		return core.Lookup{}, err
	}
	if s.present[key] {
		return core.Lookup{Value: Record(s.style)[key], Status: core.Found}, nil
	}
	s.logger.Error("profile key missing, default used", "id", s.id, "key", key, "error", core.ErrMissingKey)
	return core.Lookup{Value: Record(s.defaults)[key], Status: core.MissingUsedDefault}, nil
}

// Record returns the profile as a record, without pending changes.
func (s *Store) Record() map[string]any {
	return Record(s.Style())
}

// Set stages a change. It is written by the next Save. A value that does not
// fit the key's type is rejected and nothing is staged.
func (s *Store) Set(key string, value any) error {
	if !slices.Contains(core.StyleKeys, key) {
		return fmt.Errorf("%w: profile key %s", core.ErrSchemaCorruption, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record(s.style)
	rec[key] = value
	if _, _, err := decodeRecord(rec, s.defaults); err != nil {
		return fmt.Errorf("invalid value for profile key %s: %w", key, err)
	}
	s.pending[key] = value
	return nil
}

// SetGeometry stages a position and size change.
func (s *Store) SetGeometry(g core.Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending["x"] = g.X
	s.pending["y"] = g.Y
	s.pending["width"] = g.Width
	s.pending["height"] = g.Height
}

// Save reloads the shared document, applies the pending changes to this
// note's record and writes the document. On failure the changes stay pending
// for the next Save.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := maps.Clone(s.pending)
	base := Record(s.style)
	err := s.doc.Update(s.id, func(r map[string]any) {
		if len(r) == 0 {
			// Record vanished from disk; write a complete one.
			maps.Copy(r, base)
		}
		maps.Copy(r, pending)
	})
	if err != nil {
		s.logger.Error("failed to save profile", "id", s.id, "error", err)
		return err
	}
	clear(s.pending)
	return s.reparseLocked()
}

// Load rereads the record from disk, discarding nothing that is pending.
func (s *Store) Load() error {
	if err := s.doc.Load(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reparseLocked()
}

func (s *Store) reparseLocked() error {
	rec, ok := s.doc.Get(s.id)
	if !ok {
		return fmt.Errorf("%w: profile %s", core.ErrNotFound, s.id)
	}
	style, present, err := decodeRecord(rec, s.defaults)
	if err != nil {
		return fmt.Errorf("%w: profile %s: %v", core.ErrCorruptDocument, s.id, err)
	}
	s.style = style
	s.present = present
	return nil
}

// Rename moves the record to newID. A record missing from disk, as after
// the document was rebuilt, is written under newID from the in-memory style.
func (s *Store) Rename(newID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.doc.Rename(s.id, newID)
	if errors.Is(err, core.ErrNotFound) {
		s.logger.Error("profile missing on rename, rewritten from memory",
			"id", s.id, "to", newID, "error", core.ErrMissingKey)
		rec := Record(s.style)
		err = s.doc.Update(newID, func(r map[string]any) {
			clear(r)
			maps.Copy(r, rec)
		})
	}
	if err != nil {
		return err
	}
	s.id = newID
	return nil
}

// Delete removes the record. Deleting twice is a no-op.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Delete(s.id)
}

// Record converts a style into its document form.
func Record(s core.Style) map[string]any {
	return map[string]any{
		"pin":        s.Pin,
		"sizeGrip":   s.SizeGrip,
		"x":          s.X,
		"y":          s.Y,
		"width":      s.Width,
		"height":     s.Height,
		"background": s.Background,
		"foreground": s.Foreground,
		"fontSize":   s.FontSize,
		"fontFamily": s.FontFamily,
	}
}

// decodeRecord fills a style from a record over the given defaults and
// reports which keys the record carried.
func decodeRecord(rec map[string]any, defaults core.Style) (core.Style, map[string]bool, error) {
	present := make(map[string]bool, len(core.StyleKeys))
	for _, key := range core.StyleKeys {
		if _, ok := rec[key]; ok {
			present[key] = true
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return core.Style{}, nil, err
	}
	style := defaults
	if err := json.Unmarshal(data, &style); err != nil {
		return core.Style{}, nil, err
	}
	return style, present, nil
}

func allKeys() map[string]bool {
	present := make(map[string]bool, len(core.StyleKeys))
	for _, key := range core.StyleKeys {
		present[key] = true
	}
	return present
}
