package platform

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/padnote/pkg/adapters/fs"
	"github.com/aretw0/padnote/pkg/core"
)

// Init prepares configDir for a first session. Preferences are written back
// with any missing key filled in; existing notes and profiles are kept.
func Init(configDir string, opts ...Option) (*App, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create config dir: %v", core.ErrFileSystem, err)
	}
	app, err := Open(configDir, opts...)
	if err != nil {
		return nil, err
	}
	if err := app.Prefs.Save(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(app.Profiles.Path); os.IsNotExist(err) {
		if err := fs.WriteDocument(app.Profiles.Path, fs.NewJSONCodec(false), map[string]any{}); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// NoteInfo summarizes a note on disk.
type NoteInfo struct {
	ID     string
	Kind   core.Kind
	Size   int64
	Folder string
}

// ListNotes reads the notes directory without starting a session: the root
// and every folder, in registry order.
func ListNotes(ctx context.Context, app *App) ([]NoteInfo, error) {
	folders, err := app.Repo.Folders()
	if err != nil {
		return nil, err
	}
	var notes []NoteInfo
	for _, folder := range append([]string{""}, folders...) {
		entries, err := app.Repo.List(ctx, folder)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			notes = append(notes, NoteInfo{ID: e.ID, Kind: e.Kind, Size: e.Size, Folder: e.Folder})
		}
	}
	return notes, nil
}
