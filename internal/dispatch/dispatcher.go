package dispatch

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultBufferSize is the event buffer used when none is configured.
const DefaultBufferSize = 64

// Dispatcher is a FIFO hand-off from producers to one consumer.
type Dispatcher struct {
	log *slog.Logger

	events chan Event

	closeOnce   sync.Once
	abandon     chan struct{}
	abandonOnce sync.Once
	serving     sync.Mutex
}

// New creates a Dispatcher buffering up to size events. Sizes below one use DefaultBufferSize.
func New(log *slog.Logger, size int) *Dispatcher {
	if size < 1 {
		size = DefaultBufferSize
	}

	return &Dispatcher{
		log:     log.With("component", "dispatcher"),
		events:  make(chan Event, size),
		abandon: make(chan struct{}),
	}
}

// Post hands ev to the consumer, blocking while the buffer is full.
//
// Post returns false only if the Dispatcher was abandoned before the event could
// be buffered. Post must not be called after Close.
func (d *Dispatcher) Post(ev Event) bool {
	// Prefer delivery when both the buffer and the abandon signal are ready.
	select {
	case d.events <- ev:
		return true
	default:
	}

	select {
	case d.events <- ev:
		return true
	case <-d.abandon:
		d.log.Debug("Dropped event after dispatcher was abandoned", "event", Name(ev))

		return false
	}
}

// Close ends the event stream once all posted events are consumed.
// Only the last producer may call Close. Calling it again is a no-op.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.events)
	})
}

// Abandon releases producers blocked in Post. It is used once the consumer is
// no longer expected to drain events.
func (d *Dispatcher) Abandon() {
	d.abandonOnce.Do(func() {
		close(d.abandon)
	})
}

// Events returns the receive side of the stream. It is closed after Close.
func (d *Dispatcher) Events() <-chan Event {
	return d.events
}

// Serve delivers events to h one at a time until the stream is closed or ctx ends.
//
// Concurrent Serve calls are serialized, so h never sees two events at once.
func (d *Dispatcher) Serve(ctx context.Context, h Handler) error {
	d.serving.Lock()
	defer d.serving.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-d.events:
			if !ok {
				return nil
			}

			h.HandleEvent(ev)
		}
	}
}
