package registry

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/padnote/pkg/core"
)

func newDispatcher(t *testing.T, clip *memoryClipboard, opts ...DispatcherOption) (*fixture, *Dispatcher) {
	t.Helper()
	f := newFixture(t, WithClipboard(clip))
	return f, NewDispatcher(f.reg, opts...)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestRunUnknownActionIsNoOp(t *testing.T) {
	_, d := newDispatcher(t, &memoryClipboard{})

	err := d.Run(context.Background(), "Launch rockets", "")

	assert.ErrorIs(t, err, core.ErrUnknownAction)
	assert.Zero(t, d.Registry().Len())
}

func TestRunNewNoteIsCaseInsensitive(t *testing.T) {
	_, d := newDispatcher(t, &memoryClipboard{})

	require.NoError(t, d.Run(context.Background(), "new NOTE", ""))

	assert.Equal(t, []string{"Untitled 1"}, d.Registry().IDs())
}

func TestRunExecUsesExecutor(t *testing.T) {
	var ran []string
	_, d := newDispatcher(t, &memoryClipboard{}, WithExecutor(func(_ context.Context, cmd string) error {
		ran = append(ran, cmd)
		return nil
	}))
	ctx := context.Background()

	require.NoError(t, d.Run(ctx, "Exec", "notify-send hi"))
	require.NoError(t, d.Run(ctx, "Exec", ""))

	assert.Equal(t, []string{"notify-send hi"}, ran)
}

func TestRunConfiguredReadsSlots(t *testing.T) {
	var ran []string
	f, d := newDispatcher(t, &memoryClipboard{}, WithExecutor(func(_ context.Context, cmd string) error {
		ran = append(ran, cmd)
		return nil
	}))
	require.NoError(t, f.prefs.Set("actions", "middleAction", "Exec"))
	require.NoError(t, f.prefs.Set("actions", "middleCmd", "xterm"))

	require.NoError(t, d.RunConfigured(context.Background(), SlotMiddle))

	assert.Equal(t, []string{"xterm"}, ran)
}

func TestFetchClipboardTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o644))
	clip := &memoryClipboard{text: path + "\n"}
	_, d := newDispatcher(t, clip)

	fetched, err := d.FetchClipboard(context.Background(), true)
	require.NoError(t, err)
	require.True(t, fetched)

	n, ok := d.Registry().Get("Untitled 1")
	require.True(t, ok)
	assert.Equal(t, "from file", n.Content())
	assert.Empty(t, clip.text, "fetchClear empties the clipboard")
}

func TestFetchClipboardImageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 12, 9), 0o644))
	f, d := newDispatcher(t, &memoryClipboard{text: path})
	require.NoError(t, f.prefs.Set("general", "fetchClear", false))

	fetched, err := d.FetchClipboard(context.Background(), true)
	require.NoError(t, err)
	require.True(t, fetched)

	n, ok := d.Registry().Get("Image 1")
	require.True(t, ok)
	assert.Equal(t, 12, n.Style().Width)
}

func TestFetchClipboardRespectsPreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	f, d := newDispatcher(t, &memoryClipboard{text: path})
	require.NoError(t, f.prefs.Set("general", "fetchTxt", false))

	assert.False(t, d.Fetchable())
	fetched, err := d.FetchClipboard(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Zero(t, d.Registry().Len())
}

func TestFetchClipboardIgnoresEmptyAndPlainText(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	for _, text := range []string{"", "just some words", empty, "https://example.com/doc.pdf"} {
		_, d := newDispatcher(t, &memoryClipboard{text: text})
		assert.False(t, d.Fetchable(), text)
	}
}

func TestFetchClipboardURL(t *testing.T) {
	body := pngBytes(t, 7, 5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(body)
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	clip := &memoryClipboard{text: srv.URL + "/img"}
	f, d := newDispatcher(t, clip, WithHTTPClient(srv.Client()))
	require.NoError(t, f.prefs.Set("general", "fetchUrl", true))
	ctx := context.Background()

	fetched, err := d.FetchClipboard(ctx, true)
	require.NoError(t, err)
	require.True(t, fetched)
	n, ok := d.Registry().Get("Image 1")
	require.True(t, ok)
	assert.Equal(t, 7, n.Style().Width)

	clip.text = srv.URL + "/page"
	fetched, err = d.FetchClipboard(ctx, true)
	assert.ErrorIs(t, err, core.ErrNetworkFetch)
	assert.False(t, fetched)

	clip.text = srv.URL + "/missing"
	_, err = d.FetchClipboard(ctx, true)
	assert.ErrorIs(t, err, core.ErrNetworkFetch)
	assert.Equal(t, 1, d.Registry().Len())
}

func TestFetchClipboardURLTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f, d := newDispatcher(t, &memoryClipboard{text: srv.URL + "/slow"},
		WithHTTPClient(srv.Client()), WithFetchTimeout(50*time.Millisecond))
	require.NoError(t, f.prefs.Set("general", "fetchUrl", true))

	start := time.Now()
	_, err := d.FetchClipboard(context.Background(), true)

	assert.ErrorIs(t, err, core.ErrNetworkFetch)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchClipboardOrNewFallsBack(t *testing.T) {
	_, d := newDispatcher(t, &memoryClipboard{text: "nothing useful"})

	require.NoError(t, d.Run(context.Background(), string(core.ActionFetchClipboardOrNew), ""))

	n, ok := d.Registry().Get("Untitled 1")
	require.True(t, ok)
	assert.Empty(t, n.Content())
}

func TestFetchClipboardOrNewAfterFailedDownload(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f, d := newDispatcher(t, &memoryClipboard{text: srv.URL + "/gone.png"}, WithHTTPClient(srv.Client()))
	require.NoError(t, f.prefs.Set("general", "fetchUrl", true))

	require.NoError(t, d.Run(context.Background(), string(core.ActionFetchClipboardOrNew), ""))

	assert.Equal(t, []string{"Untitled 1"}, d.Registry().IDs())
}

func TestURLCandidateAddsScheme(t *testing.T) {
	f, d := newDispatcher(t, &memoryClipboard{})
	require.NoError(t, f.prefs.Set("general", "fetchUrl", true))

	assert.Equal(t, "http://www.example.com/a.png", d.urlCandidate("www.example.com/a.png"))
	assert.Equal(t, "https://x.org/b.jpg", d.urlCandidate("https://x.org/b.jpg"))
	assert.Empty(t, d.urlCandidate("ftp://x.org/b.jpg"))
}
