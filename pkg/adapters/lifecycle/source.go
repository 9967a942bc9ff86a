// Package lifecycle exposes notes-directory changes as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/padnote/pkg/core"
)

// notesSource queues watcher events until the consumer takes them. While the
// consumer lags, events for a note already in the queue are merged into the
// queued one, so a burst of saves to one note costs a single refresh.
type notesSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source over a watcher channel. Events come out
// as core.Event values, which satisfy lifecycle.Event through String.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &notesSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *notesSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start pumps until ctx ends or the input closes and the queue drains.
func (s *notesSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		var queue []core.Event
		in := s.events
		for in != nil || len(queue) > 0 {
			var out chan lifecycle.Event
			var next lifecycle.Event
			if len(queue) > 0 {
				out, next = s.out, queue[0]
			}
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				queue = coalesce(queue, e)
			case out <- next:
				queue = queue[1:]
			}
		}
		return nil
	})
	return nil
}

// coalesce appends e, or folds it into the queued event for the same note.
// A queued create absorbs later modifications; anything else takes the newer
// type.
func coalesce(queue []core.Event, e core.Event) []core.Event {
	for i := range queue {
		if queue[i].ID != e.ID {
			continue
		}
		if !(queue[i].Type == core.EventCreate && e.Type == core.EventModify) {
			queue[i].Type = e.Type
		}
		return queue
	}
	return append(queue, e)
}
