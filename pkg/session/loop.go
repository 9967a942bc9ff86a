package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ErrLoopStopped is returned for work posted after the loop ended.
var ErrLoopStopped = errors.New("event loop stopped")

// Loop runs posted closures one at a time on a single goroutine. Every
// mutation of registry, profile and preferences state goes through it.
type Loop struct {
	tasks   chan func()
	stopped chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

// NewLoop creates a loop. Call Run to start executing posted work.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{
		tasks:   make(chan func(), 64),
		stopped: make(chan struct{}),
		logger:  logger,
	}
}

// Run executes posted closures in order until ctx is done. Work still queued
// at that point is dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.stopped) })
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panicked", "error", fmt.Errorf("panic: %v", r))
		}
	}()
	fn()
}

// Post queues fn and returns without waiting. It reports false once the loop
// has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.stopped:
		return false
	}
}

// Do runs fn on the loop and waits for its result. It must not be called from
// the loop goroutine itself.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if !l.Post(func() { done <- fn() }) {
		return ErrLoopStopped
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		select {
		case err := <-done:
			return err
		default:
			return ErrLoopStopped
		}
	}
}

// Stopped is closed when Run returns.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
