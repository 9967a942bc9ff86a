// Package session enforces one running padnote per user. A starting process
// first tries to hand its arguments to an existing session over a unix
// socket; if nobody answers it claims the socket, boots the registry on a
// single event loop and serves parse calls from later processes.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
)

// Outcome tells how Run ended.
type Outcome int

const (
	// OutcomeServed means this process owned the session until shutdown.
	OutcomeServed Outcome = iota + 1
	// OutcomeForwarded means another session took the arguments.
	OutcomeForwarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeServed:
		return "served"
	case OutcomeForwarded:
		return "forwarded"
	}
	return "unknown"
}

// Session is the live state a coordinator serves. Parse and Close are only
// called on the event loop.
type Session interface {
	Parse(ctx context.Context, command, argument string) error
	Close() error
}

// Boot builds the session once this process owns the endpoint. It runs on the
// event loop; the loop is passed so the session can post work to it later.
type Boot func(ctx context.Context, loop *Loop) (Session, error)

// Coordinator decides between forwarding and serving.
type Coordinator struct {
	socket  string
	timeout time.Duration
	logger  *slog.Logger
	client  *Client

	mu        sync.RWMutex
	role      string
	startedAt *time.Time
	requests  int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithForwardTimeout bounds calls to an existing session.
func WithForwardTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a coordinator for the socket path.
func New(socket string, opts ...Option) *Coordinator {
	c := &Coordinator{
		socket:  socket,
		timeout: DefaultForwardTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		role:    "idle",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = NewClient(socket, c.timeout)
	return c
}

// Forward hands args to a running session, or only checks that one answers
// when args is empty. Failures wrap core.ErrRemoteUnreachable.
func (c *Coordinator) Forward(ctx context.Context, args Args) error {
	if args.Empty() {
		_, err := c.client.Health(ctx)
		return err
	}
	resp, err := c.client.Parse(ctx, args.Command, args.Argument)
	if err != nil {
		return err
	}
	c.logger.Info("forwarded to running session", "command", args.Command, "argument", args.Argument, "request_id", resp.RequestID)
	if resp.Error != "" {
		c.logger.Warn("running session rejected command", "request_id", resp.RequestID, "error", resp.Error)
	}
	return nil
}

// Run forwards args to a running session if there is one. Otherwise it claims
// the endpoint, boots the session on a fresh event loop, applies args as the
// first parse call and serves until ctx is done.
func (c *Coordinator) Run(ctx context.Context, args Args, boot Boot) (Outcome, error) {
	err := c.Forward(ctx, args)
	if err == nil {
		c.setRole("client")
		return OutcomeForwarded, nil
	}
	c.logger.Debug("no running session", "socket", c.socket, "error", err)

	ln, err := listenUnix(c.socket)
	if errors.Is(err, errSocketInUse) {
		// Someone may have claimed the socket since the first attempt.
		if ferr := c.Forward(ctx, args); ferr == nil {
			c.setRole("client")
			return OutcomeForwarded, nil
		}
		c.logger.Warn("removing stale session socket", "socket", c.socket)
		if rerr := removeStaleSocket(c.socket); rerr != nil {
			return 0, rerr
		}
		ln, err = listenUnix(c.socket)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to claim session endpoint: %w", err)
	}
	c.setRole("server")

	loop := NewLoop(c.logger)
	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	defer stopLoop()
	lifecycle.Go(loopCtx, loop.Run, lifecycle.WithErrorHandler(func(err error) {
		c.logger.Error("event loop crashed", "error", err)
	}))

	var sess Session
	err = loop.Do(ctx, func() error {
		s, err := boot(ctx, loop)
		sess = s
		return err
	})
	if err != nil {
		ln.Close()
		return 0, fmt.Errorf("failed to start session: %w", err)
	}
	defer func() {
		if err := loop.Do(context.Background(), sess.Close); err != nil {
			c.logger.Error("session close failed", "error", err)
		}
	}()

	if !args.Empty() {
		_ = loop.Do(ctx, func() error {
			return sess.Parse(ctx, args.Command, args.Argument)
		})
	}

	srv := newServer(ln, func(reqCtx context.Context, command, argument string) error {
		return loop.Do(reqCtx, func() error {
			return sess.Parse(ctx, command, argument)
		})
	}, c.logger, c.countRequest)
	if err := srv.serve(ctx); err != nil {
		return OutcomeServed, err
	}
	c.logger.Info("session stopped")
	return OutcomeServed, nil
}

func (c *Coordinator) setRole(role string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.role = role
	if role == "server" {
		now := time.Now()
		c.startedAt = &now
	}
}

func (c *Coordinator) countRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
}

// CoordinatorState exposes internal state for observability.
type CoordinatorState struct {
	Socket    string     `json:"socket"`
	Role      string     `json:"role"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Requests  int        `json:"requests"`
}

// State implements introspection.Introspectable.
func (c *Coordinator) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CoordinatorState{
		Socket:    c.socket,
		Role:      c.role,
		StartedAt: c.startedAt,
		Requests:  c.requests,
	}
}

// ComponentType implements introspection.Component.
func (c *Coordinator) ComponentType() string {
	return "session-coordinator"
}

var _ introspection.Introspectable = (*Coordinator)(nil)
var _ introspection.Component = (*Coordinator)(nil)
