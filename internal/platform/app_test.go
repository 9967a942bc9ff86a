package platform

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/padnote/pkg/adapters/clipboard"
	"github.com/aretw0/padnote/pkg/config"
	"github.com/aretw0/padnote/pkg/core"
	"github.com/aretw0/padnote/pkg/session"
)

func testOptions(extra ...Option) []Option {
	return append([]Option{
		WithClipboard(&clipboard.Memory{}),
		WithDevSafety(false),
		WithGeometryDelay(10 * time.Millisecond),
	}, extra...)
}

// shortDir keeps socket paths under the unix socket length limit.
func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "pn")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestOpenCreatesLayout(t *testing.T) {
	dir := t.TempDir()

	app, err := Open(dir, testOptions()...)
	require.NoError(t, err)
	defer app.Close()

	assert.FileExists(t, filepath.Join(dir, config.PreferencesFile))
	assert.DirExists(t, filepath.Join(dir, config.NotesDirName))
	assert.Equal(t, 0, app.Registry.Len())
}

func TestOpenRepairsCorruptDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.PreferencesFile), []byte(":::"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProfilesFile), []byte("{"), 0o644))

	app, err := Open(dir, testOptions()...)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "Untitled", app.Prefs.String("general", "nameText"))
	assert.Equal(t, 0, app.Profiles.Len())
}

func TestStartLoadsNotesAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, config.NotesDirName)
	require.NoError(t, os.MkdirAll(notes, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(notes, "Keep.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(notes, "Blank.txt"), nil, 0o644))

	app, err := Open(dir, testOptions()...)
	require.NoError(t, err)
	defer app.Close()
	require.NoError(t, app.Prefs.Set("general", "deleteEmptyNotes", true))

	require.NoError(t, app.Start(context.Background(), nil))

	assert.True(t, app.Registry.Has("Keep"))
	assert.False(t, app.Registry.Has("Blank"))
	assert.NoFileExists(t, filepath.Join(notes, "Blank.txt"))
}

func TestParseRunsActions(t *testing.T) {
	app, err := Open(t.TempDir(), testOptions()...)
	require.NoError(t, err)
	defer app.Close()
	require.NoError(t, app.Start(context.Background(), nil))

	require.NoError(t, app.Parse(context.Background(), session.CommandActionShort, "New note"))
	assert.True(t, app.Registry.Has("Untitled 1"))

	err = app.Parse(context.Background(), "--bogus", "x")
	assert.Error(t, err)
	assert.Equal(t, 1, app.Registry.Len())
}

func TestClosePersistsContent(t *testing.T) {
	dir := t.TempDir()
	app, err := Open(dir, testOptions()...)
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background(), nil))

	require.NoError(t, app.Parse(context.Background(), session.CommandAction, "New note"))
	n, ok := app.Registry.Get("Untitled 1")
	require.True(t, ok)
	require.NoError(t, n.SetContent("draft"))

	require.NoError(t, app.Close())

	data, err := os.ReadFile(filepath.Join(dir, config.NotesDirName, "Untitled 1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "draft", string(data))
}

func TestInitAndListNotes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")

	app, err := Init(dir, testOptions()...)
	require.NoError(t, err)
	defer app.Close()

	assert.FileExists(t, filepath.Join(dir, config.PreferencesFile))
	assert.FileExists(t, filepath.Join(dir, config.ProfilesFile))

	require.NoError(t, app.Repo.WriteText("b", "x"))
	require.NoError(t, app.Repo.EnsureFolder("Work"))
	require.NoError(t, app.Repo.WriteText("Work/a", "yy"))

	notes, err := ListNotes(context.Background(), app)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, NoteInfo{ID: "b", Kind: core.KindText, Size: 1}, notes[0])
	assert.Equal(t, NoteInfo{ID: "Work/a", Kind: core.KindText, Size: 2, Folder: "Work"}, notes[1])
}

func TestInitKeepsExistingProfiles(t *testing.T) {
	dir := t.TempDir()
	profiles := filepath.Join(dir, config.ProfilesFile)
	require.NoError(t, os.WriteFile(profiles, []byte(`{"Foo":{"pin":true}}`), 0o644))

	app, err := Init(dir, testOptions()...)
	require.NoError(t, err)
	defer app.Close()

	assert.True(t, app.Profiles.Has("Foo"))
}

func TestBootServesSession(t *testing.T) {
	dir := shortDir(t)
	socket := filepath.Join(dir, "s.sock")

	var booted atomic.Pointer[App]
	boot := Boot(dir, testOptions()...)
	coord := session.New(socket, session.WithForwardTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := coord.Run(ctx, session.ActionArgs("New note"), func(ctx context.Context, loop *session.Loop) (session.Session, error) {
			s, err := boot(ctx, loop)
			if err == nil {
				booted.Store(s.(*App))
			}
			return s, err
		})
		done <- err
	}()

	client := session.NewClient(socket, time.Second)
	require.Eventually(t, func() bool {
		_, err := client.Health(context.Background())
		return err == nil
	}, 3*time.Second, 10*time.Millisecond)
	app := booted.Load()
	require.NotNil(t, app)
	assert.True(t, app.Registry.Has("Untitled 1"))

	second := session.New(socket, session.WithForwardTimeout(time.Second))
	require.NoError(t, second.Forward(context.Background(), session.ActionArgs("New note")))
	assert.Eventually(t, func() bool { return app.Registry.Has("Untitled 2") }, time.Second, 10*time.Millisecond)

	// External changes reach the registry through the watcher.
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.NotesDirName, "Outside.txt"), []byte("hi"), 0o644))
	assert.Eventually(t, func() bool { return app.Registry.Has("Outside") }, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.NoFileExists(t, socket)
}
