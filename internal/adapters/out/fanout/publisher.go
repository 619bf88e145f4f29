// Package fanout sends each batch of events to one authoritative sink and any
// number of best-effort sinks.
package fanout

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/event"
	"dispatch/internal/core/ports"
)

// Publisher returns the primary sink's error. Failures of the other sinks are
// logged and do not fail the publish.
type Publisher struct {
	primary     ports.EventPublisher
	secondaries []namedSink
	logger      *slog.Logger
}

type namedSink struct {
	name string
	sink ports.EventPublisher
}

func NewPublisher(primary ports.EventPublisher, logger *slog.Logger) *Publisher {
	return &Publisher{
		primary: primary,
		logger:  logger.With("component", "event-fanout"),
	}
}

// With adds a best-effort sink. Nil sinks are ignored so optional transports
// can be passed unconditionally.
func (p *Publisher) With(name string, sink ports.EventPublisher) *Publisher {
	if sink != nil {
		p.secondaries = append(p.secondaries, namedSink{name: name, sink: sink})
	}
	return p
}

func (p *Publisher) Publish(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := p.primary.Publish(ctx, events...); err != nil {
		return err
	}

	for _, s := range p.secondaries {
		if err := s.sink.Publish(ctx, events...); err != nil {
			p.logger.WarnContext(ctx, "secondary event sink failed",
				"sink", s.name, "count", len(events), "error", err)
		}
	}
	return nil
}
