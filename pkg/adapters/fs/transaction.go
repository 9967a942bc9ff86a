package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrTransactionClosed is returned when a committed or rolled back
// transaction is used again.
var ErrTransactionClosed = errors.New("transaction closed")

type step struct {
	name string
	do   func() error
	undo func() error
}

// Transaction runs a sequence of steps that must succeed together. Each step
// carries a compensation; when a step fails, the compensations of the steps
// already applied run in reverse order, so callers observe all or nothing.
type Transaction struct {
	logger  *slog.Logger
	staged  []step
	applied []step
	mu      sync.Mutex
	closed  bool
}

// NewTransaction creates a new transaction.
func NewTransaction(logger *slog.Logger) *Transaction {
	return &Transaction{logger: logger}
}

// Stage appends a step. undo may be nil for steps with nothing to revert.
func (t *Transaction) Stage(name string, do, undo func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransactionClosed
	}

	t.staged = append(t.staged, step{name: name, do: do, undo: undo})
	return nil
}

// Commit applies all staged steps in order.
func (t *Transaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransactionClosed
	}
	t.closed = true

	for _, s := range t.staged {
		if err := ctx.Err(); err != nil {
			t.compensate()
			return err
		}
		if err := s.do(); err != nil {
			t.compensate()
			return fmt.Errorf("%s: %w", s.name, err)
		}
		t.applied = append(t.applied, s)
	}

	t.staged = nil
	return nil
}

// Rollback discards the staged steps of an uncommitted transaction.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.staged = nil
	t.closed = true
	return nil
}

// compensate reverts applied steps, newest first. Compensation failures are
// logged; the remaining compensations still run.
func (t *Transaction) compensate() {
	for i := len(t.applied) - 1; i >= 0; i-- {
		s := t.applied[i]
		if s.undo == nil {
			continue
		}
		if err := s.undo(); err != nil && t.logger != nil {
			t.logger.Error("compensation failed", "step", s.name, "error", err)
		}
	}
	t.applied = nil
}
