// Package memory keeps orders, agent records, positions and events in process.
// It backs the engine when no database is configured and drives the
// application tests. Writes made through a UnitOfWork are staged and applied
// atomically at Commit, after the same version checks the SQL store performs.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// Store is the shared state every UnitOfWork reads from and commits into.
type Store struct {
	mu     sync.RWMutex
	orders map[kernel.UUID]storedOrder
	seq    int64
	stats  map[string]agent.Stats
	locks  map[kernel.UUID]chan struct{}
}

type storedOrder struct {
	snapshot order.Snapshot
	seq      int64
}

func NewStore() *Store {
	return &Store{
		orders: make(map[kernel.UUID]storedOrder),
		stats:  make(map[string]agent.Stats),
		locks:  make(map[kernel.UUID]chan struct{}),
	}
}

// lockOrder blocks until the caller holds the order's row lock or ctx ends.
// The lock stands in for the SELECT ... FOR UPDATE the SQL store takes.
func (s *Store) lockOrder(ctx context.Context, id kernel.UUID) error {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	s.mu.Unlock()

	select {
	case l <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errs.NewStoreError("lock order", ctx.Err())
	}
}

func (s *Store) unlockOrder(id kernel.UUID) {
	s.mu.RLock()
	l := s.locks[id]
	s.mu.RUnlock()
	<-l
}

func (s *Store) order(id kernel.UUID) (order.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o.snapshot, ok
}

func (s *Store) agentStats(agentID string) (agent.Stats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[agentID]
	return st, ok
}

// apply validates every staged change against the current state and writes
// them all, or none.
func (s *Store) apply(c *changeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range c.orderIDs {
		staged := c.orders[id]
		current, exists := s.orders[id]
		switch {
		case staged.insert && exists:
			return errs.NewValueIsInvalidErrorWithCause("order id", fmt.Errorf("order %s already exists", id))
		case !staged.insert && !exists:
			return errs.NewObjectNotFoundError("order", id.String())
		case !staged.insert && current.snapshot.Version != staged.expected:
			return errs.NewVersionConflictError("order", id.String(), staged.expected)
		}
	}

	for _, id := range c.orderIDs {
		staged := c.orders[id]
		seq := s.orders[id].seq
		if staged.insert {
			s.seq++
			seq = s.seq
		}
		s.orders[id] = storedOrder{snapshot: staged.snapshot, seq: seq}
	}

	for _, seed := range c.seeds {
		if _, ok := s.stats[seed.AgentID()]; !ok {
			s.stats[seed.AgentID()] = seed
		}
	}
	for _, r := range c.ratings {
		current, ok := s.stats[r.agentID]
		if !ok {
			current, _ = agent.NewStats(r.agentID)
		}
		s.stats[r.agentID] = current.Record(r.rating)
	}
	return nil
}

func (s *Store) listOrders(filter ports.OrderFilter) ([]order.Snapshot, error) {
	s.mu.RLock()
	stored := make([]storedOrder, 0, len(s.orders))
	for _, o := range s.orders {
		if matches(o.snapshot, filter) {
			stored = append(stored, o)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(stored, func(a, b storedOrder) int {
		if c := a.snapshot.CreatedAt.Compare(b.snapshot.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	if filter.Limit > 0 && len(stored) > filter.Limit {
		stored = stored[:filter.Limit]
	}

	out := make([]order.Snapshot, 0, len(stored))
	for _, o := range stored {
		out = append(out, o.snapshot)
	}
	return out, nil
}

func (s *Store) expiredTimers(before time.Time) []order.WindowTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []order.WindowTask
	for id, o := range s.orders {
		t := o.snapshot.Timer
		if o.snapshot.Status != order.Ready || !t.IsOpen() || !t.ExpiresAt().Before(before) {
			continue
		}
		tasks = append(tasks, order.WindowTask{OrderID: id, Kind: t.Kind(), FireAt: t.ExpiresAt()})
	}
	slices.SortFunc(tasks, func(a, b order.WindowTask) int {
		return a.FireAt.Compare(b.FireAt)
	})
	return tasks
}

func matches(s order.Snapshot, f ports.OrderFilter) bool {
	switch {
	case f.ClientID != "" && s.ClientID != f.ClientID:
		return false
	case f.RestaurantID != "" && s.RestaurantID != f.RestaurantID:
		return false
	case len(f.Statuses) > 0 && !slices.Contains(f.Statuses, s.Status):
		return false
	case f.WithOpenTimer && !s.Timer.IsOpen():
		return false
	case f.TimerKind != order.TimerNone && s.Timer.Kind() != f.TimerKind:
		return false
	case f.CandidateID != "" && !slices.Contains(s.Candidates, f.CandidateID):
		return false
	case f.AssignedDriver != "" && s.AssignedDriver != f.AssignedDriver:
		return false
	}
	return true
}
