package padnote

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/padnote/internal/platform"
	"github.com/aretw0/padnote/pkg/core"
	"github.com/aretw0/padnote/pkg/session"
)

// Version of padnote.
const Version = "0.1.0"

// --- Types ---

// App is a loaded configuration directory: stores, registry and dispatcher.
type App = platform.App

// NoteInfo summarizes a note file on disk.
type NoteInfo = platform.NoteInfo

// --- Configuration ---

// Option defines a functional option for configuring padnote.
type Option = platform.Option

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithScreen sets the display size new notes cascade on.
func WithScreen(s core.Screen) Option {
	return platform.WithScreen(s)
}

// WithWindowFactory attaches the rendering layer.
func WithWindowFactory(f core.WindowFactory) Option {
	return platform.WithWindowFactory(f)
}

// WithConfirmer sets who answers deletion prompts.
func WithConfirmer(c core.Confirmer) Option {
	return platform.WithConfirmer(c)
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c core.Clipboard) Option {
	return platform.WithClipboard(c)
}

// WithHTTPClient sets the client used to fetch image URLs.
func WithHTTPClient(c *http.Client) Option {
	return platform.WithHTTPClient(c)
}

// WithFetchTimeout bounds image URL downloads.
func WithFetchTimeout(d time.Duration) Option {
	return platform.WithFetchTimeout(d)
}

// WithWatch enables or disables watching the notes directory.
func WithWatch(enabled bool) Option {
	return platform.WithWatch(enabled)
}

// WithDevSafety controls the temporary sandbox used by `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// Open loads a configuration directory without starting a session.
func Open(configDir string, opts ...Option) (*App, error) {
	return platform.Open(configDir, opts...)
}

// Init prepares a configuration directory for a first session.
func Init(configDir string, opts ...Option) (*App, error) {
	return platform.Init(configDir, opts...)
}

// Boot returns the function a session.Coordinator calls to start the
// session of configDir.
func Boot(configDir string, opts ...Option) session.Boot {
	return platform.Boot(configDir, opts...)
}

// ListNotes reads the notes on disk, root first, without starting a session.
func ListNotes(ctx context.Context, app *App) ([]NoteInfo, error) {
	return platform.ListNotes(ctx, app)
}

// --- Safety & Utils ---

// ResolveConfigDir applies the flag > PADNOTE_CONFIG_DIR > default chain and
// the dev sandbox.
func ResolveConfigDir(flag string, opts ...Option) (string, error) {
	return platform.ResolveConfigDir(flag, opts...)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
