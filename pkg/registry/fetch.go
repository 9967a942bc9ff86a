package registry

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/aretw0/padnote/pkg/core"
)

// maxFetchBytes caps a downloaded image.
const maxFetchBytes = 32 << 20

var fetchImageExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"bmp":  true,
	"webp": true,
}

var fetchContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
}

var errNotFetchable = errors.New("clipboard content is not fetchable")

// Fetched is note content found through the clipboard.
type Fetched struct {
	Source string
	Text   string
	Image  image.Image
}

// Seed converts fetched content into a note seed.
func (f Fetched) Seed() Seed {
	if f.Image != nil {
		return Seed{Kind: core.KindImage, Image: f.Image}
	}
	return Seed{Kind: core.KindText, Text: f.Text}
}

// Fetchable reports whether the clipboard currently holds something the
// fetch actions would turn into a note. Remote URLs are not downloaded.
func (d *Dispatcher) Fetchable() bool {
	raw, ok := d.readClipboard()
	if !ok {
		return false
	}
	if _, _, ok := d.localCandidate(raw); ok {
		return true
	}
	return d.urlCandidate(raw) != ""
}

// Probe resolves the clipboard into note content without creating anything.
func (d *Dispatcher) Probe(ctx context.Context) (Fetched, error) {
	raw, ok := d.readClipboard()
	if !ok {
		return Fetched{}, errNotFetchable
	}

	if path, ext, ok := d.localCandidate(raw); ok {
		if ext == "txt" {
			data, err := os.ReadFile(path)
			if err != nil {
				return Fetched{}, fmt.Errorf("%w: %w", core.ErrFileSystem, err)
			}
			return Fetched{Source: path, Text: string(data)}, nil
		}
		img, err := decodeImageFile(path)
		if err != nil {
			return Fetched{}, err
		}
		return Fetched{Source: path, Image: img}, nil
	}

	if url := d.urlCandidate(raw); url != "" {
		img, err := d.download(ctx, url)
		if err != nil {
			return Fetched{}, err
		}
		return Fetched{Source: url, Image: img}, nil
	}
	return Fetched{}, errNotFetchable
}

// FetchClipboard turns the clipboard into a new note when create is set.
// It reports whether the clipboard was fetchable. Download failures are
// logged and returned wrapped in core.ErrNetworkFetch.
func (d *Dispatcher) FetchClipboard(ctx context.Context, create bool) (bool, error) {
	f, err := d.Probe(ctx)
	if errors.Is(err, errNotFetchable) {
		return false, nil
	}
	if err != nil {
		d.logger.Warn("clipboard fetch failed", "error", err)
		return false, err
	}
	if !create {
		return true, nil
	}

	n, err := d.reg.Create(ctx, f.Seed(), true)
	if err != nil {
		return false, err
	}
	d.logger.Info("fetched clipboard", "source", f.Source, "id", n.ID())

	if d.reg.prefs.Bool("general", "fetchClear") {
		if err := d.clipboard.WriteAll(""); err != nil {
			d.logger.Warn("failed to clear clipboard", "error", err)
		} else {
			d.logger.Debug("cleared clipboard")
		}
	}
	return true, nil
}

func (d *Dispatcher) readClipboard() (string, bool) {
	if d.clipboard == nil {
		return "", false
	}
	raw, err := d.clipboard.ReadAll()
	if err != nil {
		d.logger.Debug("clipboard unreadable", "error", err)
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "\n\r") {
		return "", false
	}
	return raw, true
}

// localCandidate accepts a path to a non-empty regular file with a supported
// extension that the preferences allow fetching.
func (d *Dispatcher) localCandidate(raw string) (string, string, bool) {
	path := strings.TrimPrefix(raw, "file://")
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return "", "", false
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch {
	case ext == "txt":
		return path, ext, d.reg.prefs.Bool("general", "fetchTxt")
	case fetchImageExts[ext]:
		return path, ext, d.reg.prefs.Bool("general", "fetchFile")
	}
	return "", "", false
}

// urlCandidate returns the URL to download, or "" when raw is not one.
func (d *Dispatcher) urlCandidate(raw string) string {
	if !d.reg.prefs.Bool("general", "fetchUrl") {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.Contains(lower, ".pdf") {
		return ""
	}
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return raw
	case strings.HasPrefix(lower, "www."):
		return "http://" + raw
	}
	return ""
}

func (d *Dispatcher) download(ctx context.Context, url string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrNetworkFetch, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrNetworkFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", core.ErrNetworkFetch, url, resp.Status)
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !fetchContentTypes[mediaType] {
		return nil, fmt.Errorf("%w: %s is not an image (%q)", core.ErrNetworkFetch, url, resp.Header.Get("Content-Type"))
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrNetworkFetch, err)
	}
	return img, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFileSystem, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}
