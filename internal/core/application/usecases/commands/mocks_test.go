package commands_test

import (
	"context"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) ListExpiredTimers(ctx context.Context, before time.Time) ([]order.WindowTask, error) {
	args := m.Called(ctx, before)
	tasks, _ := args.Get(0).([]order.WindowTask)
	return tasks, args.Error(1)
}

type MockAgentStatsRepository struct{ mock.Mock }

func (m *MockAgentStatsRepository) Get(ctx context.Context, agentID string) (agent.Stats, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(agent.Stats), args.Error(1)
}

func (m *MockAgentStatsRepository) Seed(ctx context.Context, stats agent.Stats) (bool, error) {
	args := m.Called(ctx, stats)
	return args.Bool(0), args.Error(1)
}

func (m *MockAgentStatsRepository) RecordRating(ctx context.Context, agentID string, rating int) (agent.Stats, error) {
	args := m.Called(ctx, agentID, rating)
	return args.Get(0).(agent.Stats), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) AgentStatsRepository() ports.AgentStatsRepository {
	args := m.Called()
	return args.Get(0).(ports.AgentStatsRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockScheduler struct{ mock.Mock }

func (m *MockScheduler) Schedule(task order.WindowTask) {
	m.Called(task)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }
