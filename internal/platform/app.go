// Package platform wires the stores, the registry and the dispatcher of one
// padnote configuration directory into an App, the explicit context object
// handed to the session.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/padnote/pkg/adapters/clipboard"
	"github.com/aretw0/padnote/pkg/adapters/fs"
	padlifecycle "github.com/aretw0/padnote/pkg/adapters/lifecycle"
	"github.com/aretw0/padnote/pkg/config"
	"github.com/aretw0/padnote/pkg/core"
	"github.com/aretw0/padnote/pkg/profile"
	"github.com/aretw0/padnote/pkg/registry"
	"github.com/aretw0/padnote/pkg/session"
)

// App is a padnote session: every store of a configuration directory plus the
// registry built on them.
type App struct {
	ConfigDir  string
	Prefs      *config.Store
	Profiles   *profile.Document
	Repo       *fs.Repository
	Registry   *registry.Registry
	Dispatcher *registry.Dispatcher

	opts      *options
	logger    *slog.Logger
	stopWatch func(context.Context) error
	events    chan core.Event
}

// ResolveConfigDir applies the config dir precedence chain and, for dev runs
// with dev safety on, the sandbox.
func ResolveConfigDir(flag string, opts ...Option) (string, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	dir, err := config.ResolveConfigDir(flag)
	if err != nil {
		return "", err
	}
	return SandboxConfigDir(dir, o.devSafety && IsDevRun()), nil
}

// Open loads the preferences and profiles of configDir and prepares the notes
// directory. Recoverable document problems (corrupt or mismatched files) are
// logged and repaired; Open only fails when the disk cannot be used.
func Open(configDir string, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	prefs := config.NewStore(configDir, config.WithLogger(logger))
	if err := prefs.Load(); err != nil && !recoverable(err) {
		return nil, err
	}

	profiles := profile.NewDocument(filepath.Join(configDir, config.ProfilesFile), profile.WithLogger(logger))
	if err := profiles.Load(); err != nil && !recoverable(err) {
		return nil, err
	}

	repo := fs.NewRepository(fs.Config{
		Path:   prefs.NotesDir(),
		Logger: logger,
		ErrorHandler: func(err error) {
			logger.Error("notes watcher failed", "error", err)
		},
	})
	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}

	clip := o.clipboard
	if clip == nil {
		clip = clipboard.New()
	}

	regOpts := []registry.Option{
		registry.WithLogger(logger),
		registry.WithScreen(o.screen),
		registry.WithClipboard(clip),
	}
	if o.windows != nil {
		regOpts = append(regOpts, registry.WithWindowFactory(o.windows))
	}
	if o.confirmer != nil {
		regOpts = append(regOpts, registry.WithConfirmer(o.confirmer))
	}
	if o.post != nil {
		regOpts = append(regOpts, registry.WithPoster(o.post))
	}
	if o.geometryDelay > 0 {
		regOpts = append(regOpts, registry.WithGeometryDelay(o.geometryDelay))
	}
	reg := registry.New(repo, prefs, profiles, regOpts...)

	dispatcher := registry.NewDispatcher(reg,
		registry.WithHTTPClient(o.httpClient),
		registry.WithFetchTimeout(o.fetchTimeout),
	)

	return &App{
		ConfigDir:  configDir,
		Prefs:      prefs,
		Profiles:   profiles,
		Repo:       repo,
		Registry:   reg,
		Dispatcher: dispatcher,
		opts:       o,
		logger:     logger,
	}, nil
}

func recoverable(err error) bool {
	return errors.Is(err, core.ErrCorruptDocument) || errors.Is(err, core.ErrSchemaMismatch)
}

// Start loads the notes, starts watching the notes directory when a loop is
// given and runs the startup action. Start must run on the loop goroutine.
func (a *App) Start(ctx context.Context, loop *session.Loop) error {
	if err := a.Registry.Scan(ctx); err != nil {
		a.logger.Error("initial scan incomplete", "error", err)
	}
	if a.Prefs.Bool("general", "deleteEmptyNotes") {
		if _, err := a.Registry.DeleteEmptyNotes(ctx); err != nil {
			a.logger.Error("failed to delete empty notes", "error", err)
		}
	}
	if _, err := a.Registry.ReconcileProfiles(); err != nil {
		a.logger.Error("failed to clean profiles", "error", err)
	}

	if loop != nil && a.opts.watch {
		if err := a.watch(ctx, loop); err != nil {
			a.logger.Warn("notes directory is not watched", "error", err)
		}
	}

	if err := a.Dispatcher.RunConfigured(ctx, registry.SlotStartup); err != nil {
		a.logger.Error("startup action failed", "error", err)
	}
	a.logger.Info("session started", "config_dir", a.ConfigDir, "notes", a.Registry.Len())
	return nil
}

// watch feeds notes-directory changes to the registry on the loop.
func (a *App) watch(ctx context.Context, loop *session.Loop) error {
	a.events = make(chan core.Event, 32)
	stop, err := a.Repo.Watch(ctx, a.events)
	if err != nil {
		return err
	}
	a.stopWatch = stop

	src := padlifecycle.NewSource(a.events)
	if err := src.Start(ctx); err != nil {
		return err
	}
	lifecycle.Go(ctx, func(ctx context.Context) error {
		for ev := range src.Events() {
			e, ok := ev.(core.Event)
			if !ok {
				continue
			}
			loop.Post(func() {
				if err := a.Registry.HandleEvent(ctx, e); err != nil {
					a.logger.Error("failed to apply notes change", "id", e.ID, "type", e.Type, "error", err)
				}
			})
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		a.logger.Error("notes event pump panic", "error", err)
	}))
	return nil
}

// Parse implements session.Session.
func (a *App) Parse(ctx context.Context, command, argument string) error {
	return session.Parse(ctx, a.Dispatcher, a.logger, command, argument)
}

// Close saves what is still unsaved and stops the watcher. It implements
// session.Session.
func (a *App) Close() error {
	var errs []error
	if a.stopWatch != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.stopWatch(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop watcher: %w", err))
		}
		cancel()
	}
	a.Registry.Close()
	for _, n := range a.Registry.List() {
		if err := n.PersistContent(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Boot returns the session boot function for configDir.
func Boot(configDir string, opts ...Option) session.Boot {
	return func(ctx context.Context, loop *session.Loop) (session.Session, error) {
		post := withPoster(func(fn func()) {
			_ = loop.Post(fn)
		})
		app, err := Open(configDir, append(slices.Clip(opts), post)...)
		if err != nil {
			return nil, err
		}
		if err := app.Start(ctx, loop); err != nil {
			return nil, err
		}
		return app, nil
	}
}

var _ session.Session = (*App)(nil)
