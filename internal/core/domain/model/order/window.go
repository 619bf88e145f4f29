package order

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// DefaultWindow is the length of both decision windows unless configured otherwise.
const DefaultWindow = 60 * time.Second

// WindowPolicy fixes how long each window stays open.
type WindowPolicy struct {
	Acceptance      time.Duration
	ManagerDecision time.Duration
}

func DefaultWindowPolicy() WindowPolicy {
	return WindowPolicy{Acceptance: DefaultWindow, ManagerDecision: DefaultWindow}
}

func (p WindowPolicy) Validate() error {
	if p.Acceptance <= 0 {
		return errs.NewValueIsOutOfRangeError("acceptance window", p.Acceptance, "0s", "unbounded")
	}
	if p.ManagerDecision <= 0 {
		return errs.NewValueIsOutOfRangeError("manager decision window", p.ManagerDecision, "0s", "unbounded")
	}
	return nil
}

// WindowTask asks the scheduler to re-evaluate OrderID once FireAt is reached.
type WindowTask struct {
	OrderID kernel.UUID
	Kind    TimerKind
	FireAt  time.Time
}
