package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/event"
	"dispatch/internal/pkg/errs"

	"github.com/jackc/pgx/v5"
)

// Listener tails the event log. Each subscription holds its own connection
// LISTENing on the channel until its context ends.
type Listener struct {
	dsn     string
	channel string
	buffer  int
	logger  *slog.Logger
}

func NewListener(dsn string, channel string, logger *slog.Logger) *Listener {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Listener{
		dsn:     dsn,
		channel: channel,
		buffer:  64,
		logger:  logger.With("component", "event-listener"),
	}
}

func (l *Listener) Subscribe(ctx context.Context) (<-chan event.Event, error) {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return nil, errs.NewStoreError("connect event listener", err)
	}
	if _, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, errs.NewStoreError("listen for events", err)
	}

	out := make(chan event.Event, l.buffer)
	go func() {
		defer close(out)
		defer func() { _ = conn.Close(context.Background()) }()

		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					l.logger.ErrorContext(ctx, "event listener stopped", "error", err)
				}
				return
			}

			var e event.Event
			if err = json.Unmarshal([]byte(n.Payload), &e); err != nil {
				l.logger.WarnContext(ctx, "skipping malformed notification", "error", err)
				continue
			}

			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
