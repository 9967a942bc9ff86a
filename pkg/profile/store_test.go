package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/padnote/pkg/core"
)

var testDefault = core.Style{
	Width:      300,
	Height:     220,
	Background: "#ffff7f",
	Foreground: "#000000",
	FontSize:   9,
	FontFamily: "Sans Serif",
}

func newDoc(t *testing.T) *Document {
	t.Helper()
	doc := NewDocument(filepath.Join(t.TempDir(), "profiles.json"))
	require.NoError(t, doc.Load())
	return doc
}

func seed(index int) Seed {
	return Seed{Index: index, Screen: core.Screen{Width: 1920, Height: 1080}, Default: testDefault}
}

func TestOpenSeedsCascade(t *testing.T) {
	doc := newDoc(t)

	first, err := Open(doc, "Untitled 1", seed(0))
	require.NoError(t, err)
	second, err := Open(doc, "Untitled 2", seed(1))
	require.NoError(t, err)

	assert.Equal(t, 1920-300, first.Style().X)
	assert.Equal(t, 110, first.Style().Y)
	assert.Equal(t, 1920-300-Stagger, second.Style().X)
	assert.Equal(t, 110+Stagger, second.Style().Y)

	reloaded := NewDocument(doc.Path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []string{"Untitled 1", "Untitled 2"}, reloaded.IDs())
}

func TestOpenImageUsesIntrinsicSize(t *testing.T) {
	doc := newDoc(t)
	s := seed(0)
	s.ImageSize = func() (int, int, error) { return 640, 480, nil }

	store, err := Open(doc, "Image 1", s)
	require.NoError(t, err)
	assert.Equal(t, 640, store.Style().Width)
	assert.Equal(t, 480, store.Style().Height)
	assert.Equal(t, 1920-640, store.Style().X)
	assert.Equal(t, 240, store.Style().Y)

	t.Run("Falls Back When Size Unknown", func(t *testing.T) {
		s := seed(0)
		s.ImageSize = func() (int, int, error) { return 0, 0, errors.New("bad image") }
		store, err := Open(doc, "Image 2", s)
		require.NoError(t, err)
		assert.Equal(t, 300, store.Style().Width)
	})
}

func TestOpenRepairsMissingKeys(t *testing.T) {
	doc := newDoc(t)
	require.NoError(t, doc.Update("Foo", func(r map[string]any) {
		r["x"] = 10
		r["y"] = 20
		r["background"] = "#ffffff"
	}))

	store, err := Open(doc, "Foo", seed(3))
	require.NoError(t, err)

	style := store.Style()
	assert.Equal(t, 10, style.X, "existing keys survive the repair")
	assert.Equal(t, "#ffffff", style.Background)
	assert.Equal(t, 300, style.Width)

	rec, ok := doc.Get("Foo")
	require.True(t, ok)
	for _, key := range core.StyleKeys {
		assert.Contains(t, rec, key)
	}
}

func TestQuery(t *testing.T) {
	doc := newDoc(t)
	store, err := Open(doc, "Foo", seed(0))
	require.NoError(t, err)

	res, err := store.Query("width")
	require.NoError(t, err)
	assert.Equal(t, core.Found, res.Status)
	assert.Equal(t, 300, res.Value)

	_, err = store.Query("opacity")
	assert.ErrorIs(t, err, core.ErrSchemaCorruption)
}

func TestSaveReloadsBeforeWrite(t *testing.T) {
	doc := newDoc(t)
	a, err := Open(doc, "A", seed(0))
	require.NoError(t, err)
	b, err := Open(doc, "B", seed(1))
	require.NoError(t, err)

	// Another writer touches B's record on disk behind the document's back.
	other := NewDocument(doc.Path)
	require.NoError(t, other.Load())
	require.NoError(t, other.Update("B", func(r map[string]any) { r["pin"] = true }))

	require.NoError(t, a.Set("background", "#c6efce"))
	require.NoError(t, a.Save())

	require.NoError(t, b.Load())
	assert.True(t, b.Style().Pin, "A's save must not clobber B's update")
	assert.Equal(t, "#c6efce", a.Style().Background)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	doc := newDoc(t)
	store, err := Open(doc, "Foo", seed(0))
	require.NoError(t, err)

	store.SetGeometry(core.Geometry{X: 5, Y: 6, Width: 70, Height: 80})
	require.NoError(t, store.Set("pin", true))
	require.NoError(t, store.Save())
	want := store.Record()

	fresh := NewDocument(doc.Path)
	require.NoError(t, fresh.Load())
	reopened, err := Open(fresh, "Foo", seed(9))
	require.NoError(t, err)
	assert.Equal(t, want, reopened.Record())
}

func TestSetRejectsUnknownKey(t *testing.T) {
	doc := newDoc(t)
	store, err := Open(doc, "Foo", seed(0))
	require.NoError(t, err)
	assert.ErrorIs(t, store.Set("opacity", 1), core.ErrSchemaCorruption)
}

func TestSetRejectsWrongType(t *testing.T) {
	doc := newDoc(t)
	store, err := Open(doc, "Foo", seed(0))
	require.NoError(t, err)

	assert.Error(t, store.Set("width", "wide"))
	assert.Error(t, store.Set("pin", "yes"))
	require.NoError(t, store.Set("width", 420))
	require.NoError(t, store.Save())

	assert.Equal(t, 420, store.Style().Width)
	rec, ok := doc.Get("Foo")
	require.True(t, ok)
	assert.NotEqual(t, "wide", rec["width"])
}

func TestRenameAfterDocumentRebuilt(t *testing.T) {
	doc := newDoc(t)
	store, err := Open(doc, "Foo", seed(0))
	require.NoError(t, err)
	require.NoError(t, store.Set("pin", true))
	require.NoError(t, store.Save())

	require.NoError(t, os.WriteFile(doc.Path, []byte("{garbage"), 0o644))

	require.NoError(t, store.Rename("Bar"))
	assert.Equal(t, "Bar", store.ID())

	reloaded := NewDocument(doc.Path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []string{"Bar"}, reloaded.IDs())
	rec, _ := reloaded.Get("Bar")
	assert.Equal(t, true, rec["pin"])
}

func TestRenameAndDelete(t *testing.T) {
	doc := newDoc(t)
	store, err := Open(doc, "Foo", seed(0))
	require.NoError(t, err)

	require.NoError(t, store.Rename("Work/Foo"))
	assert.Equal(t, "Work/Foo", store.ID())
	assert.False(t, doc.Has("Foo"))
	assert.True(t, doc.Has("Work/Foo"))

	require.NoError(t, store.Delete())
	assert.False(t, doc.Has("Work/Foo"))
	require.NoError(t, store.Delete(), "deleting an absent record is a no-op")

	assert.ErrorIs(t, doc.Rename("Ghost", "Spirit"), core.ErrNotFound)
}

func TestDocumentPrune(t *testing.T) {
	doc := newDoc(t)
	for _, id := range []string{"keep", "drop", "Work/drop"} {
		require.NoError(t, doc.Update(id, func(r map[string]any) { r["pin"] = false }))
	}

	removed, err := doc.Prune(func(id string) bool { return id == "keep" })
	require.NoError(t, err)
	assert.Equal(t, []string{"Work/drop", "drop"}, removed)
	assert.Equal(t, []string{"keep"}, doc.IDs())

	removed, err = doc.Prune(func(id string) bool { return true })
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestDocumentCorruptRebuilt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))

	doc := NewDocument(path)
	assert.ErrorIs(t, doc.Load(), core.ErrCorruptDocument)
	assert.Zero(t, doc.Len())

	again := NewDocument(path)
	require.NoError(t, again.Load(), "rebuilt document is valid")
}
