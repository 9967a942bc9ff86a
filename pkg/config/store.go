package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/padnote/pkg/adapters/fs"
	"github.com/aretw0/padnote/pkg/core"
)

// Store holds the preferences document of one configuration directory.
// Mutations stay in memory until Save.
type Store struct {
	path     string
	codec    fs.Codec
	logger   *slog.Logger
	defaults Preferences
	defTree  map[string]any

	mu      sync.Mutex
	prefs   Preferences
	tree    map[string]any // lazily rebuilt view of prefs for path lookups
	missing map[string]bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report repaired or defaulted values.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaults replaces the default table.
func WithDefaults(p Preferences) Option {
	return func(s *Store) {
		s.defaults = p.Clone()
	}
}

// NewStore creates a store for configDir/preferences.yaml holding the defaults.
// Call Load to read the file.
func NewStore(configDir string, opts ...Option) *Store {
	s := &Store{
		path:     filepath.Join(configDir, PreferencesFile),
		codec:    fs.NewYAMLCodec(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		defaults: Defaults(configDir),
		missing:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.defaults.normalize()
	s.prefs = s.defaults.Clone()

	tree, err := s.toTree(s.defaults)
	if err != nil {
		// The default table is a Go literal; failing to encode it is a bug.
		panic(fmt.Sprintf("config: default preferences do not encode: %v", err))
	}
	s.defTree = tree
	return s
}

// Path returns the preferences file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the preferences file.
//
// An absent file is replaced by the defaults. A file that is empty or
// unparsable yields core.ErrCorruptDocument, and one whose top-level categories
// differ from Categories yields core.ErrSchemaMismatch; in both cases the store
// is reset to the defaults and the defaults are written back. Keys missing from
// a fixed-key category are recorded and served from the defaults.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw map[string]any
	exists, err := fs.ReadDocument(s.path, s.codec, &raw)
	switch {
	case errors.Is(err, core.ErrCorruptDocument):
		s.logger.Error("preferences unreadable, restoring defaults", "path", s.path, "error", err)
		return s.resetLocked(err)
	case err != nil:
		return err
	case !exists:
		s.logger.Info("preferences not found, creating defaults", "path", s.path)
		return s.resetLocked(nil)
	}

	if extra, absent := diffKeys(raw, Categories); len(extra)+len(absent) > 0 {
		err := fmt.Errorf("%w: unexpected %v, missing %v", core.ErrSchemaMismatch, extra, absent)
		s.logger.Error("preferences schema mismatch, restoring defaults", "path", s.path, "error", err)
		return s.resetLocked(err)
	}

	prefs, missing, err := s.decode(raw)
	if err != nil {
		err = fmt.Errorf("%w: %v", core.ErrSchemaMismatch, err)
		s.logger.Error("preferences do not fit the schema, restoring defaults", "path", s.path, "error", err)
		return s.resetLocked(err)
	}

	for key := range missing {
		s.logger.Error("preference missing, default used", "key", key, "error", core.ErrMissingKey)
	}

	s.prefs = prefs
	s.missing = missing
	s.tree = nil
	return nil
}

func (s *Store) resetLocked(cause error) error {
	s.prefs = s.defaults.Clone()
	s.missing = make(map[string]bool)
	s.tree = nil
	if err := s.saveLocked(); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// decode converts a raw document into typed preferences, starting from the
// defaults so absent keys of fixed categories keep their default value.
func (s *Store) decode(raw map[string]any) (Preferences, map[string]bool, error) {
	prefs := s.defaults.Clone()
	prefs.StylePresets = nil
	prefs.Hotkeys = nil
	prefs.Actives = nil
	prefs.Folders = nil

	data, err := s.codec.Encode(raw)
	if err != nil {
		return Preferences{}, nil, err
	}
	if err := s.codec.Decode(data, &prefs); err != nil {
		return Preferences{}, nil, err
	}

	missing := make(map[string]bool)
	for _, category := range fixedCategories {
		section, ok := raw[category].(map[string]any)
		if !ok {
			restoreCategory(&prefs, s.defaults, category)
		}
		for key := range s.defTree[category].(map[string]any) {
			if _, present := section[key]; !present {
				missing[category+"."+key] = true
			}
		}
	}

	prefs.normalize()
	return prefs, missing, nil
}

func restoreCategory(p *Preferences, defaults Preferences, category string) {
	switch category {
	case "general":
		p.General = defaults.General
	case "actions":
		p.Actions = defaults.Actions
	case "styleDefault":
		p.StyleDefault = defaults.StyleDefault
	case "menus":
		p.Menus = defaults.Clone().Menus
	}
}

// Save writes the document atomically. Map keys are sorted and struct fields
// keep their declaration order, so rewrites are stable.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := fs.WriteDocument(s.path, s.codec, s.prefs); err != nil {
		s.logger.Error("failed to save preferences", "path", s.path, "error", err)
		return err
	}
	// Defaulted values are on disk now.
	s.missing = make(map[string]bool)
	return nil
}

// Query descends the document along path. A key that is absent, or was absent
// when the file was loaded, resolves to its default with MissingUsedDefault and
// is logged. A key the default table lacks too yields core.ErrSchemaCorruption.
func (s *Store) Query(path ...string) (core.Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.Join(path, ".")
	tree, err := s.treeLocked()
	if err == nil && !s.missing[key] {
		if v, ok := descend(tree, path); ok {
			return core.Lookup{Value: v, Status: core.Found}, nil
		}
	}

	// Folders, presets, hotkeys and actives are user data: an absent entry is
	// simply not there, never a schema fallback.
	if err == nil && len(path) > 1 && !slices.Contains(fixedCategories, path[0]) {
		return core.Lookup{}, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}

	v, ok := descend(s.defTree, path)
	if !ok {
		err := fmt.Errorf("%w: %s", core.ErrSchemaCorruption, key)
		s.logger.Error("key missing from default schema", "key", key, "error", err)
		return core.Lookup{}, err
	}
	s.logger.Error("preference missing, default used", "key", key, "error", core.ErrMissingKey)
	return core.Lookup{Value: v, Status: core.MissingUsedDefault}, nil
}

// Bool queries a boolean preference, false when unavailable.
func (s *Store) Bool(path ...string) bool {
	res, err := s.Query(path...)
	if err != nil {
		return false
	}
	b, _ := res.Value.(bool)
	return b
}

// String queries a string preference, "" when unavailable.
func (s *Store) String(path ...string) string {
	res, err := s.Query(path...)
	if err != nil {
		return ""
	}
	str, _ := res.Value.(string)
	return str
}

// Set changes one key of a category, or the whole category when key is "".
// The value must fit the schema; a rejected value leaves the document unchanged.
func (s *Store) Set(category, key string, value any) error {
	if !slices.Contains(Categories, category) {
		return fmt.Errorf("%w: %s", core.ErrUnknownCategory, category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.treeLocked()
	if err != nil {
		return err
	}
	updated := make(map[string]any, len(tree))
	for k, v := range tree {
		updated[k] = v
	}

	if key == "" {
		updated[category] = value
	} else {
		section, ok := tree[category].(map[string]any)
		if !ok {
			if tree[category] != nil {
				return fmt.Errorf("category %s has no keys", category)
			}
			section = map[string]any{}
		}
		if slices.Contains(fixedCategories, category) {
			if _, known := s.defTree[category].(map[string]any)[key]; !known {
				return fmt.Errorf("%w: %s.%s is not in the schema", core.ErrMissingKey, category, key)
			}
		}
		next := make(map[string]any, len(section)+1)
		for k, v := range section {
			next[k] = v
		}
		next[key] = value
		updated[category] = next
	}

	var prefs Preferences
	data, err := s.codec.Encode(updated)
	if err != nil {
		return err
	}
	if err := s.codec.Decode(data, &prefs); err != nil {
		return fmt.Errorf("invalid value for %s.%s: %w", category, key, err)
	}
	prefs.normalize()

	s.prefs = prefs
	s.tree = nil
	for k := range s.missing {
		if k == category+"."+key || (key == "" && strings.HasPrefix(k, category+".")) {
			delete(s.missing, k)
		}
	}
	return nil
}

// Preferences returns a copy of the current document.
func (s *Store) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Clone()
}

// Defaults returns a copy of the default table in use.
func (s *Store) Defaults() Preferences {
	return s.defaults.Clone()
}

// Update applies fn to the document in memory.
func (s *Store) Update(fn func(p *Preferences)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.prefs)
	s.prefs.normalize()
	s.tree = nil
}

// NotesDir returns the notes root with "~" expanded.
func (s *Store) NotesDir() string {
	dir := s.String("general", "notesDb")
	if dir == "" {
		dir = s.defaults.General.NotesDb
	}
	return ExpandHome(dir)
}

// StyleDefault returns the style-default record.
func (s *Store) StyleDefault() core.Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.StyleDefault
}

// Actives returns the active-note identities in order.
func (s *Store) Actives() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.prefs.Actives)
}

// SetActives replaces the active-note list.
func (s *Store) SetActives(ids []string) {
	s.Update(func(p *Preferences) {
		p.Actives = slices.Clone(ids)
	})
}

// Folders returns a copy of the folder name to enabled map.
func (s *Store) Folders() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.prefs.Folders))
	for k, v := range s.prefs.Folders {
		out[k] = v
	}
	return out
}

// SetFolder records a folder and whether it is loaded.
func (s *Store) SetFolder(name string, enabled bool) {
	s.Update(func(p *Preferences) {
		p.Folders[name] = enabled
	})
}

// RemoveFolder forgets a folder.
func (s *Store) RemoveFolder(name string) {
	s.Update(func(p *Preferences) {
		delete(p.Folders, name)
	})
}

// StylePreset returns a named colour pair.
func (s *Store) StylePreset(name string) (Preset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs.StylePresets[name]
	return p, ok
}

// StylePresetNames returns the preset names sorted.
func (s *Store) StylePresetNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.prefs.StylePresets))
	for name := range s.prefs.StylePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddStylePreset stores a preset and returns the name it was stored under,
// suffixed with a number when name is already taken.
func (s *Store) AddStylePreset(name string, preset Preset) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.prefs.StylePresets[name]; taken {
		name = core.NextName(name, func(n string) bool {
			_, ok := s.prefs.StylePresets[n]
			return ok
		})
	}
	s.prefs.StylePresets[name] = preset
	s.tree = nil
	return name
}

// HotkeyAction returns the action bound to key under a modifier class
// ("ctrl", "ctrlShift", "shift").
func (s *Store) HotkeyAction(modifier, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	action, ok := s.prefs.Hotkeys[modifier][key]
	return action, ok
}

func (s *Store) treeLocked() (map[string]any, error) {
	if s.tree == nil {
		tree, err := s.toTree(s.prefs)
		if err != nil {
			return nil, err
		}
		s.tree = tree
	}
	return s.tree, nil
}

func (s *Store) toTree(p Preferences) (map[string]any, error) {
	data, err := s.codec.Encode(p)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := s.codec.Decode(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func descend(tree map[string]any, path []string) (any, bool) {
	var cur any = tree
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// diffKeys compares the top-level keys of doc with want.
func diffKeys(doc map[string]any, want []string) (extra, absent []string) {
	for k := range doc {
		if !slices.Contains(want, k) {
			extra = append(extra, k)
		}
	}
	for _, k := range want {
		if _, ok := doc[k]; !ok {
			absent = append(absent, k)
		}
	}
	sort.Strings(extra)
	return extra, absent
}
