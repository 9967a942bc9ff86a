package registry

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/padnote/pkg/adapters/fs"
	"github.com/aretw0/padnote/pkg/config"
	"github.com/aretw0/padnote/pkg/core"
)

// Seed describes the content of a note being created.
type Seed struct {
	Kind   core.Kind
	Text   string
	Image  image.Image
	Folder string
}

// Create allocates the next free "prefix N" name, writes the content file,
// seeds the profile and registers the note. Interactive notes are displayed,
// others start hidden.
func (r *Registry) Create(ctx context.Context, seed Seed, interactive bool) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind := seed.Kind
	if kind == "" {
		kind = core.KindText
		if seed.Image != nil {
			kind = core.KindImage
		}
	}
	if kind == core.KindImage && seed.Image == nil {
		return nil, errors.New("image note needs an image")
	}

	prefixKey, fallback := "nameText", r.prefs.Defaults().General.NameText
	if kind == core.KindImage {
		prefixKey, fallback = "nameImage", r.prefs.Defaults().General.NameImage
	}
	prefix := core.SanitizeName(r.prefs.String("general", prefixKey))
	if prefix == "" {
		prefix = fallback
	}

	folder := core.SanitizeName(seed.Folder)
	if folder != "" {
		if err := r.ensureFolder(folder); err != nil {
			return nil, err
		}
	}
	id := core.NextName(core.JoinID(folder, prefix), r.taken)

	var err error
	if kind == core.KindImage {
		err = r.repo.WriteImage(id, seed.Image)
	} else {
		err = r.repo.WriteText(id, seed.Text)
	}
	if err != nil {
		r.logger.Error("failed to create note", "id", id, "error", err)
		return nil, err
	}

	entry, err := r.repo.Stat(id, kind)
	if err != nil {
		return nil, err
	}
	mode := loadBackground
	if interactive {
		mode = loadInteractive
	}
	n, err := r.load(entry, mode)
	if err != nil {
		r.logger.Error("failed to create note", "id", id, "error", err)
		r.drop(id)
		if perr := r.purge(id, kind); perr != nil {
			r.logger.Error("failed to clean up note", "id", id, "error", perr)
		}
		return nil, err
	}
	r.logger.Info("created note", "id", id, "kind", kind)
	return n, nil
}

// ensureFolder creates a folder and registers it in preferences as enabled.
func (r *Registry) ensureFolder(folder string) error {
	if err := r.repo.EnsureFolder(folder); err != nil {
		return err
	}
	if _, known := r.prefs.Folders()[folder]; known {
		return nil
	}
	r.prefs.SetFolder(folder, true)
	return r.prefs.Save()
}

// Rename moves the note to newID. The content file, the profile key, the
// registry slot and the active-set membership move together: if any step
// fails, the steps already done are reverted and the note keeps its old name.
// A newID already in use is refused with core.ErrNameConflict.
func (n *Note) Rename(ctx context.Context, newID string) error {
	oldID, err := n.live()
	if err != nil {
		return err
	}
	r := n.reg

	folder, base := core.SplitID(newID)
	folder, base = core.SanitizeName(folder), core.SanitizeName(base)
	if base == "" {
		return fmt.Errorf("invalid note name %q", newID)
	}
	newID = core.JoinID(folder, base)
	if newID == oldID {
		return nil
	}
	if r.taken(newID) {
		err := fmt.Errorf("%w: %s", core.ErrNameConflict, newID)
		r.logger.Error("rename refused", "id", oldID, "to", newID, "error", err)
		return err
	}

	tx, err := r.repo.Begin(ctx)
	if err != nil {
		return err
	}
	if err := n.stageRename(tx, oldID, newID); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("rename failed, keeping old name", "id", oldID, "to", newID, "error", err)
		return err
	}

	n.mu.Lock()
	n.id = newID
	n.mu.Unlock()
	n.window.SetTitle(newID)
	r.logger.Info("renamed note", "from", oldID, "to", newID)
	return nil
}

// stageRename queues the four moves of a rename, each with its undo.
func (n *Note) stageRename(tx *fs.Transaction, oldID, newID string) error {
	r := n.reg
	if err := tx.Stage("file",
		func() error { return r.repo.Rename(oldID, newID, n.kind) },
		func() error { return r.repo.Rename(newID, oldID, n.kind) }); err != nil {
		return err
	}
	if err := tx.Stage("profile",
		func() error { return n.profile.Rename(newID) },
		func() error { return n.profile.Rename(oldID) }); err != nil {
		return err
	}
	if err := tx.Stage("registry",
		func() error { return r.move(oldID, newID) },
		func() error { return r.move(newID, oldID) }); err != nil {
		return err
	}
	if !r.isActive(oldID) {
		return nil
	}
	before := r.prefs.Actives()
	return tx.Stage("actives",
		func() error {
			after := slices.DeleteFunc(slices.Clone(before), func(id string) bool { return id == oldID })
			r.prefs.SetActives(append(after, newID))
			return r.prefs.Save()
		},
		func() error {
			r.prefs.SetActives(before)
			return r.prefs.Save()
		})
}

// MoveToFolder moves the note into folder, or to the root when folder is "".
// The folder is created and registered if needed, and a name clash in the
// target is resolved with a numeric suffix.
func (n *Note) MoveToFolder(ctx context.Context, folder string) error {
	id, err := n.live()
	if err != nil {
		return err
	}
	r := n.reg

	folder = core.SanitizeName(folder)
	if folder != "" {
		if err := r.ensureFolder(folder); err != nil {
			r.logger.Error("failed to prepare folder", "folder", folder, "error", err)
			return err
		}
	}

	_, base := core.SplitID(id)
	newID := core.JoinID(folder, base)
	if newID == id {
		return nil
	}
	if r.taken(newID) {
		newID = core.NextName(newID, r.taken)
	}
	return n.Rename(ctx, newID)
}

// Delete removes the note. With safeDelete set, a note with content is only
// removed if the confirmer agrees. It reports whether the note was removed.
func (n *Note) Delete(ctx context.Context) (bool, error) {
	id, err := n.live()
	if err != nil {
		return false, err
	}
	r := n.reg

	if r.prefs.Bool("general", "safeDelete") && n.hasContent() {
		if !r.confirm.Confirm(ctx, fmt.Sprintf("Please confirm deletion of '%s'", id)) {
			r.logger.Info("deletion cancelled", "id", id)
			return false, nil
		}
	}
	r.logger.Warn("removed note", "id", id, "reason", "user")
	return true, n.Remove()
}

func (n *Note) hasContent() bool {
	if n.kind == core.KindText && n.Content() != "" {
		return true
	}
	entry, err := n.reg.repo.Stat(n.ID(), n.kind)
	return err == nil && entry.Size > 0
}

// Remove tears the note down without asking. The content file goes first:
// if it cannot be deleted nothing else is touched and the note stays alive.
// Afterwards the profile record, active-set membership and registry slot are
// dropped and the window is closed.
func (n *Note) Remove() error {
	id, err := n.live()
	if err != nil {
		return err
	}
	r := n.reg

	if err := r.repo.Remove(id, n.kind); err != nil {
		r.logger.Error("failed to remove note, keeping it", "id", id, "error", err)
		return err
	}
	r.geometry.Cancel(geometryKey(n))

	var errs []error
	if err := n.profile.Delete(); err != nil {
		errs = append(errs, err)
	}
	if err := r.dropActive(id); err != nil {
		errs = append(errs, err)
	}
	r.drop(id)

	n.mu.Lock()
	n.id = ""
	n.state = core.StateRemoved
	n.geom = nil
	n.mu.Unlock()
	n.window.Close()

	if err := errors.Join(errs...); err != nil {
		r.logger.Error("note removed with errors", "id", id, "error", err)
		return err
	}
	return nil
}

// unload drops the entity from the registry without touching its files.
func (n *Note) unload() {
	id, err := n.live()
	if err != nil {
		return
	}
	n.flushGeometry()
	n.reg.geometry.Cancel(geometryKey(n))
	n.reg.drop(id)

	n.mu.Lock()
	n.id = ""
	n.state = core.StateRemoved
	n.mu.Unlock()
	n.window.Close()
}

// SetContent replaces the in-memory text of a text note. Image notes are
// immutable and ignore it.
func (n *Note) SetContent(text string) error {
	if _, err := n.live(); err != nil {
		return err
	}
	if n.kind != core.KindText {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.content != text {
		n.content = text
		n.dirty = true
	}
	return nil
}

// Reload rereads the content file of a text note and reports whether the
// in-memory text changed.
func (n *Note) Reload() (bool, error) {
	id, err := n.live()
	if err != nil {
		return false, err
	}
	if n.kind != core.KindText {
		return false, nil
	}
	text, err := n.reg.repo.ReadText(id)
	if err != nil {
		return false, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if text == n.content {
		return false, nil
	}
	n.content = text
	n.dirty = false
	n.reg.logger.Info("updated note content from disk", "id", id)
	return true, nil
}

// PersistContent writes unsaved text to the content file. A failed write is
// logged and the text stays dirty so the next call retries it.
func (n *Note) PersistContent() error {
	id, err := n.live()
	if err != nil {
		return err
	}
	if n.kind != core.KindText || !n.Dirty() {
		return nil
	}
	text := n.Content()
	if err := n.reg.repo.WriteText(id, text); err != nil {
		n.reg.logger.Error("failed to save note content", "id", id, "error", err)
		return err
	}
	n.mu.Lock()
	if n.content == text {
		n.dirty = false
	}
	n.mu.Unlock()
	return nil
}

// PersistGeometry stores a position and size in the profile. The profile
// document is reloaded before the write.
func (n *Note) PersistGeometry(g core.Geometry) error {
	id, err := n.live()
	if err != nil {
		return err
	}
	n.profile.SetGeometry(g)
	if err := n.profile.Save(); err != nil {
		n.reg.logger.Error("failed to save geometry", "id", id, "error", err)
		return err
	}
	return nil
}

// ScheduleGeometry records a move or resize and saves it once the note has
// been still for the geometry delay.
func (n *Note) ScheduleGeometry(g core.Geometry) error {
	if _, err := n.live(); err != nil {
		return err
	}
	n.mu.Lock()
	n.geom = &g
	n.mu.Unlock()

	r := n.reg
	r.geometry.Trigger(geometryKey(n), func() {
		r.post(n.flushGeometry)
	})
	return nil
}

func (n *Note) flushGeometry() {
	n.mu.Lock()
	g := n.geom
	n.geom = nil
	n.mu.Unlock()
	if g == nil || n.Removed() {
		return
	}
	_ = n.PersistGeometry(*g)
}

func geometryKey(n *Note) string {
	return fmt.Sprintf("%p", n)
}

// Display shows the note at its profile geometry.
func (n *Note) Display() error {
	if _, err := n.live(); err != nil {
		return err
	}
	n.display(true)
	return nil
}

// display shows the window. Without updatePosition a visible window keeps
// its current geometry.
func (n *Note) display(updatePosition bool) {
	style := n.profile.Style()
	g := style.Geometry()
	if !updatePosition && n.window.Visible() {
		g = n.window.Geometry()
	}
	n.window.SetStayOnTop(style.Pin)
	n.window.Show(g)
	n.setState(core.StateDisplayed)
}

// Hide saves the window geometry and hides the note. An empty text note is
// removed instead when deleteEmptyNotes is set.
func (n *Note) Hide() error {
	id, err := n.live()
	if err != nil {
		return err
	}
	r := n.reg

	if g := n.window.Geometry(); g.Width > 0 && g.Height > 0 {
		n.mu.Lock()
		n.geom = nil
		n.mu.Unlock()
		r.geometry.Cancel(geometryKey(n))
		_ = n.PersistGeometry(g)
	}
	n.window.Hide()
	n.setState(core.StateHidden)

	if n.kind == core.KindText && n.Content() == "" && r.prefs.Bool("general", "deleteEmptyNotes") {
		r.logger.Warn("removed note", "id", id, "reason", "empty")
		return n.Remove()
	}
	return nil
}

// TogglePin flips the pin flag. Pinned notes stay on top and are left alone
// by the bulk hide actions.
func (n *Note) TogglePin() error {
	if _, err := n.live(); err != nil {
		return err
	}
	if err := n.profile.Set("pin", !n.Pinned()); err != nil {
		return err
	}
	if err := n.profile.Save(); err != nil {
		return err
	}
	n.display(false)
	return nil
}

// ToggleSizeGrip flips the size-grip flag.
func (n *Note) ToggleSizeGrip() error {
	if _, err := n.live(); err != nil {
		return err
	}
	if err := n.profile.Set("sizeGrip", !n.Style().SizeGrip); err != nil {
		return err
	}
	return n.profile.Save()
}

// SetColors changes the background and foreground colours.
func (n *Note) SetColors(background, foreground string) error {
	if _, err := n.live(); err != nil {
		return err
	}
	if err := n.profile.Set("background", background); err != nil {
		return err
	}
	if err := n.profile.Set("foreground", foreground); err != nil {
		return err
	}
	return n.profile.Save()
}

// ApplyPreset applies a named style preset from preferences.
func (n *Note) ApplyPreset(name string) error {
	preset, ok := n.reg.prefs.StylePreset(name)
	if !ok {
		return fmt.Errorf("%w: style preset %s", core.ErrNotFound, name)
	}
	return n.SetColors(preset.Background, preset.Foreground)
}

// SaveStyleAsPreset stores the note's colours as a style preset and returns
// the name it was stored under. A taken name gets a numeric suffix.
func (n *Note) SaveStyleAsPreset(name string) (string, error) {
	if _, err := n.live(); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("invalid preset name %q", name)
	}
	style := n.profile.Style()
	stored := n.reg.prefs.AddStylePreset(name, config.Preset{
		Background: style.Background,
		Foreground: style.Foreground,
	})
	if err := n.reg.prefs.Save(); err != nil {
		return "", err
	}
	n.reg.logger.Info("saved style preset", "id", n.ID(), "preset", stored)
	return stored, nil
}

// ExportTo writes a copy of the note to path, adding the content extension
// when path lacks it.
func (n *Note) ExportTo(path string) error {
	id, err := n.live()
	if err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(path), n.kind.Ext()) {
		path += n.kind.Ext()
	}

	var data []byte
	if n.kind == core.KindText {
		data = []byte(n.Content())
	} else {
		data, err = os.ReadFile(n.reg.repo.FilePath(id, n.kind))
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", core.ErrFileSystem, id, err)
		}
	}
	if err := fs.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: export %s: %v", core.ErrFileSystem, id, err)
	}
	n.reg.logger.Info("exported note", "id", id, "path", path)
	return nil
}

// CopyToClipboard puts the note on the clipboard: the text of a text note,
// the content file path of an image note.
func (n *Note) CopyToClipboard() error {
	id, err := n.live()
	if err != nil {
		return err
	}
	if n.reg.clipboard == nil {
		return errors.New("no clipboard available")
	}
	if n.kind == core.KindText {
		return n.reg.clipboard.WriteAll(n.Content())
	}
	return n.reg.clipboard.WriteAll(n.reg.repo.FilePath(id, n.kind))
}
