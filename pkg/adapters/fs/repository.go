package fs

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/padnote/pkg/core"
)

// DefaultContentPatterns match the content files that back notes.
var DefaultContentPatterns = []string{"*.txt", "*.png"}

// Repository stores note content files under a notes root directory with at
// most one level of folders.
type Repository struct {
	Path   string
	config Config

	mu    sync.RWMutex
	stats stats
}

// Config holds the configuration for the notes repository.
type Config struct {
	Path         string
	Logger       *slog.Logger
	ErrorHandler func(error)
	// ContentPatterns are doublestar patterns matched against file base names.
	ContentPatterns []string
}

// Entry describes one content file found on disk.
type Entry struct {
	ID      string
	Folder  string
	Kind    core.Kind
	Path    string
	Size    int64
	ModTime time.Time
}

// NewRepository creates a new filesystem-backed notes repository.
func NewRepository(config Config) *Repository {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(config.ContentPatterns) == 0 {
		config.ContentPatterns = DefaultContentPatterns
	}
	return &Repository{
		Path:   config.Path,
		config: config,
	}
}

// Begin starts a new compensating transaction.
func (r *Repository) Begin(ctx context.Context) (*Transaction, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return NewTransaction(r.config.Logger), nil
}

// Initialize creates the notes root if needed.
func (r *Repository) Initialize(ctx context.Context) error {
	info, err := os.Stat(r.Path)
	if err == nil && !info.IsDir() {
		return fmt.Errorf("notes path is not a directory: %s", r.Path)
	}
	if err := os.MkdirAll(r.Path, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create notes directory: %v", core.ErrFileSystem, err)
	}
	return nil
}

// FilePath returns the absolute content file path of a note.
func (r *Repository) FilePath(id string, kind core.Kind) string {
	return filepath.Join(r.Path, filepath.FromSlash(id)+kind.Ext())
}

// FolderPath returns the absolute path of a folder.
func (r *Repository) FolderPath(name string) string {
	return filepath.Join(r.Path, filepath.FromSlash(name))
}

// isContent reports whether a base name is a note content file.
func (r *Repository) isContent(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if ok, _ := doublestar.Match(TempFilePrefix+"*", name); ok {
		return false
	}
	for _, pattern := range r.config.ContentPatterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// List enumerates content files in the root (folder "") or in one folder.
// Entries come back sorted by identity.
func (r *Repository) List(ctx context.Context, folder string) ([]Entry, error) {
	dir := r.FolderPath(folder)
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", core.ErrFileSystem, dir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if de.IsDir() || !r.isContent(de.Name()) {
			continue
		}
		ext := filepath.Ext(de.Name())
		kind, ok := core.KindFromExt(ext)
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Vanished between ReadDir and Info.
			continue
		}
		entries = append(entries, Entry{
			ID:      core.JoinID(folder, strings.TrimSuffix(de.Name(), ext)),
			Folder:  folder,
			Kind:    kind,
			Path:    filepath.Join(dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	r.recordScan(folder, len(entries))
	return entries, nil
}

// Folders returns the names of the subdirectories of the notes root.
func (r *Repository) Folders() ([]string, error) {
	dirEntries, err := os.ReadDir(r.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: list folders: %v", core.ErrFileSystem, err)
	}
	var folders []string
	for _, de := range dirEntries {
		if de.IsDir() && !strings.HasPrefix(de.Name(), ".") {
			folders = append(folders, de.Name())
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// Stat returns the entry for a note if its content file exists.
func (r *Repository) Stat(id string, kind core.Kind) (Entry, error) {
	path := r.FilePath(id, kind)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: stat %s: %v", core.ErrFileSystem, path, err)
	}
	folder, _ := core.SplitID(id)
	return Entry{ID: id, Folder: folder, Kind: kind, Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Exists reports whether the note's content file is on disk.
func (r *Repository) Exists(id string, kind core.Kind) bool {
	_, err := os.Stat(r.FilePath(id, kind))
	return err == nil
}

// ReadText returns the content of a text note.
func (r *Repository) ReadText(id string) (string, error) {
	data, err := os.ReadFile(r.FilePath(id, core.KindText))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", core.ErrFileSystem, id, err)
	}
	return string(data), nil
}

// WriteText replaces the content of a text note atomically.
func (r *Repository) WriteText(id, text string) error {
	if err := WriteFileAtomic(r.FilePath(id, core.KindText), []byte(text), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", core.ErrFileSystem, id, err)
	}
	return nil
}

// WriteImage encodes img as PNG and stores it as the note's content.
func (r *Repository) WriteImage(id string, img image.Image) error {
	err := WriteStreamAtomic(r.FilePath(id, core.KindImage), 0o644, func(w io.Writer) error {
		return png.Encode(w, img)
	})
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", core.ErrFileSystem, id, err)
	}
	return nil
}

// ImageSize returns the intrinsic dimensions of an image note.
func (r *Repository) ImageSize(id string) (width, height int, err error) {
	f, err := os.Open(r.FilePath(id, core.KindImage))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: open %s: %v", core.ErrFileSystem, id, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image %s: %w", id, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Rename moves a note's content file to a new identity. It refuses to
// overwrite an existing file.
func (r *Repository) Rename(oldID, newID string, kind core.Kind) error {
	from := r.FilePath(oldID, kind)
	to := r.FilePath(newID, kind)
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("%w: %s", core.ErrNameConflict, newID)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("%w: %v", core.ErrFileSystem, err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("%w: rename %s to %s: %v", core.ErrFileSystem, oldID, newID, err)
	}
	return nil
}

// Remove deletes a note's content file. A missing file is not an error.
func (r *Repository) Remove(id string, kind core.Kind) error {
	if err := os.Remove(r.FilePath(id, kind)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", core.ErrFileSystem, id, err)
	}
	return nil
}

// EnsureFolder creates a folder under the notes root.
func (r *Repository) EnsureFolder(name string) error {
	if err := os.MkdirAll(r.FolderPath(name), 0o755); err != nil {
		return fmt.Errorf("%w: create folder %s: %v", core.ErrFileSystem, name, err)
	}
	return nil
}

// FolderExists reports whether a folder directory is present.
func (r *Repository) FolderExists(name string) bool {
	info, err := os.Stat(r.FolderPath(name))
	return err == nil && info.IsDir()
}

// FolderEmpty reports whether a folder has no entries at all.
func (r *Repository) FolderEmpty(name string) (bool, error) {
	dirEntries, err := os.ReadDir(r.FolderPath(name))
	if err != nil {
		return false, fmt.Errorf("%w: list folder %s: %v", core.ErrFileSystem, name, err)
	}
	return len(dirEntries) == 0, nil
}

// RemoveFolder deletes a folder and everything in it.
func (r *Repository) RemoveFolder(name string) error {
	if name == "" {
		return fmt.Errorf("refusing to remove the notes root")
	}
	if err := os.RemoveAll(r.FolderPath(name)); err != nil {
		return fmt.Errorf("%w: remove folder %s: %v", core.ErrFileSystem, name, err)
	}
	return nil
}

// resolveID maps an absolute content path back to a note identity.
func (r *Repository) resolveID(path string) (string, core.Kind, error) {
	rel, err := filepath.Rel(r.Path, path)
	if err != nil {
		return "", "", err
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || strings.Count(rel, "/") > 1 {
		return "", "", fmt.Errorf("path outside notes layout: %s", path)
	}
	ext := filepath.Ext(rel)
	kind, ok := core.KindFromExt(ext)
	if !ok {
		return "", "", fmt.Errorf("not a content file: %s", path)
	}
	return strings.TrimSuffix(rel, ext), kind, nil
}
