package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"dispatch/internal/core/domain/model/event"
)

// DefaultSubscriberBuffer is how many events a slow subscriber may lag behind
// before it starts missing events.
const DefaultSubscriberBuffer = 256

// EventLog is an append-only, in-process event log with live subscribers.
// Publish never waits for a subscriber: a full subscriber buffer drops the event
// for that subscriber only.
type EventLog struct {
	mu     sync.Mutex
	events []event.Event
	subs   map[int]chan event.Event
	nextID int
	buffer int
	logger *slog.Logger
}

func NewEventLog(logger *slog.Logger) *EventLog {
	return &EventLog{
		subs:   make(map[int]chan event.Event),
		buffer: DefaultSubscriberBuffer,
		logger: logger.With("component", "memory-event-log"),
	}
}

func (l *EventLog) Publish(ctx context.Context, events ...event.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range events {
		l.events = append(l.events, e)
		for id, ch := range l.subs {
			select {
			case ch <- e:
			default:
				l.logger.WarnContext(ctx, "subscriber lagging, event dropped",
					"subscriber", id, "type", string(e.Type))
			}
		}
	}
	return nil
}

// Subscribe delivers every event published after the call until ctx is done,
// then closes the channel.
func (l *EventLog) Subscribe(ctx context.Context) (<-chan event.Event, error) {
	ch := make(chan event.Event, l.buffer)

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.subs, id)
		close(ch)
		l.mu.Unlock()
	}()
	return ch, nil
}

// Events returns every event published so far, oldest first.
func (l *EventLog) Events() []event.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}
