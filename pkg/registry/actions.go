package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/padnote/pkg/core"
)

// DefaultFetchTimeout bounds a clipboard URL download.
const DefaultFetchTimeout = 10 * time.Second

// Slot names a place in the preferences "actions" category that binds an
// action: the tray clicks and session startup.
type Slot string

const (
	SlotStartup Slot = "startup"
	SlotLeft    Slot = "left"
	SlotMiddle  Slot = "middle"
)

// Dispatcher runs actions from the fixed vocabulary against a registry.
type Dispatcher struct {
	reg          *Registry
	clipboard    core.Clipboard
	client       *http.Client
	fetchTimeout time.Duration
	exec         func(ctx context.Context, command string) error
	logger       *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithFetchClipboard sets the clipboard read by the fetch actions.
func WithFetchClipboard(c core.Clipboard) DispatcherOption {
	return func(d *Dispatcher) {
		d.clipboard = c
	}
}

// WithHTTPClient sets the client used to download clipboard URLs.
func WithHTTPClient(c *http.Client) DispatcherOption {
	return func(d *Dispatcher) {
		if c != nil {
			d.client = c
		}
	}
}

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.fetchTimeout = timeout
		}
	}
}

// WithExecutor replaces how the "Exec" action starts a command.
func WithExecutor(fn func(ctx context.Context, command string) error) DispatcherOption {
	return func(d *Dispatcher) {
		if fn != nil {
			d.exec = fn
		}
	}
}

// NewDispatcher creates a dispatcher for reg. It shares the registry's
// clipboard unless WithFetchClipboard says otherwise.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		reg:          reg,
		clipboard:    reg.clipboard,
		client:       http.DefaultClient,
		fetchTimeout: DefaultFetchTimeout,
		exec:         startDetached,
		logger:       reg.logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher acts on.
func (d *Dispatcher) Registry() *Registry {
	return d.reg
}

// Run executes the named action. cmd is only used by "Exec". Unknown names
// are logged and return core.ErrUnknownAction without side effects.
func (d *Dispatcher) Run(ctx context.Context, name, cmd string) error {
	action, ok := core.ParseAction(name)
	if !ok {
		err := fmt.Errorf("%w: %q", core.ErrUnknownAction, name)
		d.logger.Error("invalid action", "action", name, "error", err)
		return err
	}
	d.logger.Debug("running action", "action", action)

	switch action {
	case core.ActionNone:
		return nil
	case core.ActionNewNote:
		_, err := d.reg.Create(ctx, Seed{Kind: core.KindText}, true)
		return err
	case core.ActionFetchClipboard:
		_, err := d.FetchClipboard(ctx, true)
		return err
	case core.ActionFetchClipboardOrNew:
		fetched, err := d.FetchClipboard(ctx, true)
		if fetched || (err != nil && !errors.Is(err, core.ErrNetworkFetch)) {
			return err
		}
		// A failed download counts as nothing fetched.
		_, err = d.reg.Create(ctx, Seed{Kind: core.KindText}, true)
		return err
	case core.ActionToggleActives:
		return d.reg.ToggleActives()
	case core.ActionHideAll:
		d.reg.HideAll()
		return nil
	case core.ActionShowAll:
		d.reg.ShowAll()
		return nil
	case core.ActionReverseAll:
		d.reg.ReverseAll()
		return nil
	case core.ActionResetPositions:
		return d.reg.ResetPositions(ctx)
	case core.ActionExec:
		if cmd == "" {
			return nil
		}
		d.logger.Info("starting command", "cmd", cmd)
		if err := d.exec(ctx, cmd); err != nil {
			d.logger.Error("failed to start command", "cmd", cmd, "error", err)
			return err
		}
		return nil
	}
	return nil
}

// RunConfigured runs the action bound to a slot in preferences, with the
// slot's command for "Exec".
func (d *Dispatcher) RunConfigured(ctx context.Context, slot Slot) error {
	prefs := d.reg.prefs
	name := prefs.String("actions", string(slot)+"Action")
	cmd := prefs.String("actions", string(slot)+"Cmd")
	if name == "" {
		return nil
	}
	return d.Run(ctx, name, cmd)
}
