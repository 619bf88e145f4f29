package memory

import (
	"context"
	"sync"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/pkg/errs"
)

type PositionStore struct {
	mu        sync.RWMutex
	positions map[string]agent.Position
}

func NewPositionStore() *PositionStore {
	return &PositionStore{positions: make(map[string]agent.Position)}
}

func (s *PositionStore) Save(_ context.Context, position agent.Position) error {
	if position.AgentID == "" {
		return errs.NewValueIsRequiredError("agent id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[position.AgentID] = position
	return nil
}

func (s *PositionStore) Get(_ context.Context, agentID string) (agent.Position, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[agentID]
	return p, ok, nil
}
