package fanout_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/adapters/out/fanout"
	"dispatch/internal/core/domain/model/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, events ...event.Event) error {
	return m.Called(ctx, events).Error(0)
}

func TestPublisher_PrimaryThenSecondaries(t *testing.T) {
	ctx := context.Background()
	events := []event.Event{event.New(event.OrderCreated, map[string]any{"order_id": "o-1"}, time.Now())}

	primary, amqp, mqtt := new(MockPublisher), new(MockPublisher), new(MockPublisher)
	primary.On("Publish", ctx, events).Return(nil).Once()
	amqp.On("Publish", ctx, events).Return(errors.New("broker down")).Once()
	mqtt.On("Publish", ctx, events).Return(nil).Once()

	p := fanout.NewPublisher(primary, slog.Default()).With("amqp", amqp).With("mqtt", mqtt)

	require.NoError(t, p.Publish(ctx, events...))
	primary.AssertExpectations(t)
	amqp.AssertExpectations(t)
	mqtt.AssertExpectations(t)
}

func TestPublisher_PrimaryFailureStopsFanout(t *testing.T) {
	ctx := context.Background()
	events := []event.Event{event.New(event.OrderReady, map[string]any{"order_id": "o-1"}, time.Now())}

	primary, secondary := new(MockPublisher), new(MockPublisher)
	primary.On("Publish", ctx, events).Return(errors.New("disk full"))

	p := fanout.NewPublisher(primary, slog.Default()).With("amqp", secondary)

	err := p.Publish(ctx, events...)

	assert.ErrorContains(t, err, "disk full")
	secondary.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPublisher_IgnoresNilSinksAndEmptyBatches(t *testing.T) {
	primary := new(MockPublisher)
	p := fanout.NewPublisher(primary, slog.Default()).With("mqtt", nil)

	require.NoError(t, p.Publish(context.Background()))
	primary.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
