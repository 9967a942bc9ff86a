package platform

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/padnote/pkg/core"
)

// options holds the wiring configuration of an App.
type options struct {
	logger        *slog.Logger
	screen        core.Screen
	windows       core.WindowFactory
	confirmer     core.Confirmer
	clipboard     core.Clipboard
	httpClient    *http.Client
	fetchTimeout  time.Duration
	geometryDelay time.Duration
	watch         bool
	devSafety     bool
	post          func(func())
}

// Option defines a functional option for configuring an App.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		screen:    core.DefaultScreen,
		watch:     true,
		devSafety: true,
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithScreen sets the display size notes cascade on.
func WithScreen(s core.Screen) Option {
	return func(o *options) {
		o.screen = s
	}
}

// WithWindowFactory attaches a rendering layer. Without one notes get
// headless windows.
func WithWindowFactory(f core.WindowFactory) Option {
	return func(o *options) {
		o.windows = f
	}
}

// WithConfirmer sets who answers deletion prompts. Without one every prompt
// is refused.
func WithConfirmer(c core.Confirmer) Option {
	return func(o *options) {
		o.confirmer = c
	}
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c core.Clipboard) Option {
	return func(o *options) {
		o.clipboard = c
	}
}

// WithHTTPClient sets the client used to fetch image URLs.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithFetchTimeout bounds image URL downloads.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.fetchTimeout = d
	}
}

// WithGeometryDelay overrides the geometry save debounce.
func WithGeometryDelay(d time.Duration) Option {
	return func(o *options) {
		o.geometryDelay = d
	}
}

// WithWatch enables or disables watching the notes directory for external
// changes. Enabled by default.
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.watch = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true) such runs keep their configuration in a temporary
// directory so they never touch the user's real notes.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// withPoster marshals the registry's deferred work onto the session loop.
func withPoster(post func(func())) Option {
	return func(o *options) {
		o.post = post
	}
}
