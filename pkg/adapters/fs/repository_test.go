package fs

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/padnote/pkg/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo := NewRepository(Config{Path: filepath.Join(t.TempDir(), "notes")})
	require.NoError(t, repo.Initialize(context.Background()))
	return repo
}

func TestRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.WriteText("b", "beta"))
	require.NoError(t, repo.WriteText("a", ""))
	require.NoError(t, repo.EnsureFolder("Work"))
	require.NoError(t, repo.WriteText("Work/todo", "x"))
	require.NoError(t, os.WriteFile(filepath.Join(repo.Path, "readme.md"), []byte("no"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repo.Path, TempFilePrefix+"123"), []byte("tmp"), 0o644))

	root, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, root, 2)
	assert.Equal(t, "a", root[0].ID)
	assert.Equal(t, int64(0), root[0].Size)
	assert.Equal(t, "b", root[1].ID)
	assert.Equal(t, core.KindText, root[1].Kind)

	work, err := repo.List(ctx, "Work")
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "Work/todo", work[0].ID)
	assert.Equal(t, "Work", work[0].Folder)

	folders, err := repo.Folders()
	require.NoError(t, err)
	assert.Equal(t, []string{"Work"}, folders)

	state, ok := repo.State().(RepositoryState)
	require.True(t, ok)
	require.NotNil(t, state.LastScan)
	assert.Equal(t, "Work", state.LastScan.Folder)
	assert.Equal(t, 1, state.LastScan.Notes)
}

func TestRepositoryImages(t *testing.T) {
	repo := newTestRepo(t)

	img := image.NewRGBA(image.Rect(0, 0, 40, 25))
	img.Set(1, 1, color.White)
	require.NoError(t, repo.WriteImage("Image", img))

	w, h, err := repo.ImageSize("Image")
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 25, h)

	entry, err := repo.Stat("Image", core.KindImage)
	require.NoError(t, err)
	assert.Equal(t, core.KindImage, entry.Kind)
}

func TestRepositoryRename(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.WriteText("Foo", "hello"))
	require.NoError(t, repo.WriteText("Bar", "taken"))

	t.Run("Refuses To Overwrite", func(t *testing.T) {
		err := repo.Rename("Foo", "Bar", core.KindText)
		assert.ErrorIs(t, err, core.ErrNameConflict)
		assert.True(t, repo.Exists("Foo", core.KindText))
	})

	t.Run("Moves Into Folder", func(t *testing.T) {
		require.NoError(t, repo.Rename("Foo", "Work/Foo", core.KindText))
		assert.False(t, repo.Exists("Foo", core.KindText))

		text, err := repo.ReadText("Work/Foo")
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
	})

	t.Run("Missing Source Is A Filesystem Error", func(t *testing.T) {
		err := repo.Rename("Ghost", "Spirit", core.KindText)
		assert.ErrorIs(t, err, core.ErrFileSystem)
	})
}

func TestRepositoryRemove(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.WriteText("Foo", "x"))

	require.NoError(t, repo.Remove("Foo", core.KindText))
	require.NoError(t, repo.Remove("Foo", core.KindText), "second remove is a no-op")

	_, err := repo.ReadText("Foo")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryFolders(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.EnsureFolder("Old"))

	empty, err := repo.FolderEmpty("Old")
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, repo.WriteText("Old/note", "x"))
	empty, err = repo.FolderEmpty("Old")
	require.NoError(t, err)
	assert.False(t, empty)

	require.NoError(t, repo.RemoveFolder("Old"))
	assert.False(t, repo.FolderExists("Old"))
	assert.Error(t, repo.RemoveFolder(""))
}

func TestResolveID(t *testing.T) {
	repo := newTestRepo(t)

	id, kind, err := repo.resolveID(filepath.Join(repo.Path, "Work", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "Work/a", id)
	assert.Equal(t, core.KindImage, kind)

	_, _, err = repo.resolveID(filepath.Join(repo.Path, "a", "b", "c.txt"))
	assert.Error(t, err)

	_, _, err = repo.resolveID(filepath.Join(repo.Path, "a.md"))
	assert.Error(t, err)
}
