package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Folder describes a notes folder for menus.
type Folder struct {
	Name    string
	Enabled bool
	Files   int
}

// ListFolders returns the folders on disk, sorted case-insensitively, with
// their enabled flag and number of content files.
func (r *Registry) ListFolders(ctx context.Context) ([]Folder, error) {
	names, err := r.repo.Folders()
	if err != nil {
		return nil, err
	}
	known := r.prefs.Folders()

	folders := make([]Folder, 0, len(names))
	for _, name := range names {
		entries, err := r.repo.List(ctx, name)
		if err != nil {
			return nil, err
		}
		enabled, ok := known[name]
		folders = append(folders, Folder{Name: name, Enabled: enabled || !ok, Files: len(entries)})
	}
	sort.SliceStable(folders, func(i, j int) bool {
		return strings.ToLower(folders[i].Name) < strings.ToLower(folders[j].Name)
	})
	return folders, nil
}

// LoadFolders syncs the preferences folder map with the disk (entries for
// vanished folders are dropped, new folders are added enabled) and scans
// every enabled folder.
func (r *Registry) LoadFolders(ctx context.Context) error {
	disk, err := r.repo.Folders()
	if err != nil {
		return err
	}
	known := r.prefs.Folders()

	changed := false
	for name := range known {
		if !slices.Contains(disk, name) {
			r.logger.Info("forgot deleted folder", "folder", name)
			r.prefs.RemoveFolder(name)
			delete(known, name)
			changed = true
		}
	}
	for _, name := range disk {
		if _, ok := known[name]; !ok {
			r.prefs.SetFolder(name, true)
			known[name] = true
			changed = true
		}
	}
	if changed {
		if err := r.prefs.Save(); err != nil {
			r.logger.Error("failed to save folders", "error", err)
		}
	}

	var errs []error
	for _, name := range disk {
		if known[name] {
			if err := r.scanFolder(ctx, name); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// UnloadFolder drops the notes of a folder from the registry and closes their
// windows. Files and profiles are kept. It returns how many notes were unloaded.
func (r *Registry) UnloadFolder(name string) int {
	count := 0
	for _, n := range r.snapshot() {
		if n.Folder() == name {
			n.unload()
			count++
		}
	}
	r.logger.Info("unloaded folder", "folder", name, "notes", count)
	return count
}

// ToggleFolder enables or disables a folder. Disabling unloads its notes.
func (r *Registry) ToggleFolder(ctx context.Context, name string) error {
	enabled, known := r.prefs.Folders()[name]
	if !known {
		enabled = true
	}
	r.prefs.SetFolder(name, !enabled)
	if err := r.prefs.Save(); err != nil {
		return err
	}
	if enabled {
		r.UnloadFolder(name)
	}
	return r.LoadFolders(ctx)
}

// DeleteFolder removes a folder from disk. A folder with content is only
// removed if the confirmer agrees. Notes that lived in it are reconciled away.
// It reports whether the folder was removed.
func (r *Registry) DeleteFolder(ctx context.Context, name string) (bool, error) {
	if name == "" || !r.repo.FolderExists(name) {
		return false, fmt.Errorf("folder %q does not exist", name)
	}
	empty, err := r.repo.FolderEmpty(name)
	if err != nil {
		return false, err
	}
	if !empty && !r.confirm.Confirm(ctx, fmt.Sprintf("Please confirm deletion of folder\n%s", r.repo.FolderPath(name))) {
		r.logger.Info("folder deletion cancelled", "folder", name)
		return false, nil
	}

	if err := r.repo.RemoveFolder(name); err != nil {
		r.logger.Error("failed to remove folder", "folder", name, "error", err)
		return false, err
	}
	r.logger.Warn("removed folder", "folder", name, "reason", "user")

	r.prefs.RemoveFolder(name)
	if err := r.prefs.Save(); err != nil {
		r.logger.Error("failed to save folders", "error", err)
	}
	r.ReconcileOrphans()
	if _, err := r.ReconcileProfiles(); err != nil {
		return true, err
	}
	return true, nil
}
