package bus

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrBusClosed is returned when publishing to a closed EventBus.
var ErrBusClosed = errors.New("event bus closed")

// EventBus decouples Slack receivers from the dispatcher. Receivers publish
// from their own goroutines; a single consumer drains events in order.
type EventBus struct {
	inbound chan Event
	done    chan struct{}
	closed  atomic.Bool
}

func NewEventBus() *EventBus {
	return &EventBus{
		inbound: make(chan Event, 100),
		done:    make(chan struct{}),
	}
}

func (b *EventBus) PublishInbound(ctx context.Context, ev Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	select {
	case b.inbound <- ev:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *EventBus) ConsumeInbound(ctx context.Context) (Event, bool) {
	select {
	case ev, ok := <-b.inbound:
		return ev, ok
	case <-b.done:
		return Event{}, false
	case <-ctx.Done():
		return Event{}, false
	}
}

func (b *EventBus) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
	}
}
