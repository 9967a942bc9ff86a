// Package profile persists per-note style records (position, size, colours,
// font, pin and size-grip flags) in one JSON document shared by every note.
//
// Every mutation reloads the document from disk, applies its own delta and
// rewrites the file. Writers are serialized by the session's event loop, so
// this is last-writer-wins at document granularity without losing updates.
package profile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sort"
	"sync"

	"github.com/aretw0/padnote/pkg/adapters/fs"
	"github.com/aretw0/padnote/pkg/core"
)

// Document is the shared profiles file: note identity to profile record.
type Document struct {
	Path    string
	codec   fs.Codec
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]map[string]any
	dirty   bool
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the document logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDocument creates an empty document bound to path. Call Load to read it.
func NewDocument(path string, opts ...Option) *Document {
	d := &Document{
		Path:    path,
		codec:   fs.NewJSONCodec(false),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		entries: make(map[string]map[string]any),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load reads the document from disk. An absent file is an empty document. A
// corrupt file yields core.ErrCorruptDocument and is rebuilt empty.
func (d *Document) Load() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadLocked()
}

func (d *Document) loadLocked() error {
	var entries map[string]map[string]any
	exists, err := fs.ReadDocument(d.Path, d.codec, &entries)
	if errors.Is(err, core.ErrCorruptDocument) {
		d.logger.Error("profiles unreadable, rebuilding", "path", d.Path, "error", err)
		d.entries = make(map[string]map[string]any)
		if werr := d.writeLocked(); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}
	if err != nil {
		return err
	}
	if !exists || entries == nil {
		entries = make(map[string]map[string]any)
	}
	d.entries = entries
	d.dirty = false
	return nil
}

// Save persists the document if it has unsaved changes.
func (d *Document) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.dirty {
		return nil
	}
	return d.writeLocked()
}

func (d *Document) writeLocked() error {
	if err := fs.WriteDocument(d.Path, d.codec, d.entries); err != nil {
		return err
	}
	d.dirty = false
	return nil
}

// Get returns a copy of a record.
func (d *Document) Get(id string) (map[string]any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.entries[id]
	if !ok {
		return nil, false
	}
	return maps.Clone(rec), true
}

// Has reports whether a record exists for id.
func (d *Document) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[id]
	return ok
}

// Update reloads the document, lets fn edit the record for id (an empty
// record when absent), and writes the document back.
func (d *Document) Update(id string, fn func(rec map[string]any)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.loadLocked(); err != nil && !errors.Is(err, core.ErrCorruptDocument) {
		return err
	}
	rec := d.entries[id]
	if rec == nil {
		rec = make(map[string]any)
	}
	fn(rec)
	d.entries[id] = rec
	return d.writeLocked()
}

// Rename moves a record to a new key. The old key is removed.
func (d *Document) Rename(oldID, newID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.loadLocked(); err != nil && !errors.Is(err, core.ErrCorruptDocument) {
		return err
	}
	rec, ok := d.entries[oldID]
	if !ok {
		return fmt.Errorf("%w: profile %s", core.ErrNotFound, oldID)
	}
	delete(d.entries, oldID)
	d.entries[newID] = rec
	return d.writeLocked()
}

// Delete removes a record. Deleting an absent record is a no-op.
func (d *Document) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.loadLocked(); err != nil && !errors.Is(err, core.ErrCorruptDocument) {
		return err
	}
	if _, ok := d.entries[id]; !ok {
		return nil
	}
	delete(d.entries, id)
	return d.writeLocked()
}

// Prune removes every record for which keep returns false and returns the
// removed identities, sorted. The document is written only if something
// was removed.
func (d *Document) Prune(keep func(id string) bool) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.loadLocked(); err != nil && !errors.Is(err, core.ErrCorruptDocument) {
		return nil, err
	}
	var removed []string
	for id := range d.entries {
		if !keep(id) {
			delete(d.entries, id)
			removed = append(removed, id)
			d.dirty = true
		}
	}
	sort.Strings(removed)
	if !d.dirty {
		return nil, nil
	}
	return removed, d.writeLocked()
}

// IDs returns the identities with a record, sorted.
func (d *Document) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.entries))
	for id := range d.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of records.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
