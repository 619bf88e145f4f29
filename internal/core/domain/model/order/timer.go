package order

import (
	"fmt"
	"time"

	"dispatch/internal/pkg/errs"
)

// TimerKind tags the window an order is waiting on.
type TimerKind int

const (
	TimerNone TimerKind = iota
	AcceptanceWindow
	ManagerDecision
)

func (k TimerKind) String() string {
	switch k {
	case AcceptanceWindow:
		return "acceptance_window"
	case ManagerDecision:
		return "manager_decision"
	default:
		return "none"
	}
}

func ParseTimerKind(s string) (TimerKind, error) {
	switch s {
	case "", "none":
		return TimerNone, nil
	case "acceptance_window":
		return AcceptanceWindow, nil
	case "manager_decision":
		return ManagerDecision, nil
	default:
		return TimerNone, errs.NewValueIsInvalidErrorWithCause("timer kind", fmt.Errorf("%q is not a timer kind", s))
	}
}

// Timer is either absent (kind TimerNone) or one open window with its deadline.
// Opening a window always replaces the previous value, so an order never holds
// more than one timer.
type Timer struct {
	kind      TimerKind
	expiresAt time.Time
	createdAt time.Time
}

func NoTimer() Timer {
	return Timer{}
}

func openTimer(kind TimerKind, now time.Time, window time.Duration) Timer {
	now = now.UTC()
	return Timer{kind: kind, expiresAt: now.Add(window), createdAt: now}
}

// RestoreTimer rebuilds a stored timer. A TimerNone kind ignores the timestamps.
func RestoreTimer(kind TimerKind, expiresAt, createdAt time.Time) (Timer, error) {
	if kind == TimerNone {
		return NoTimer(), nil
	}
	if kind != AcceptanceWindow && kind != ManagerDecision {
		return Timer{}, errs.NewValueIsInvalidError("timer kind")
	}
	if expiresAt.IsZero() {
		return Timer{}, errs.NewValueIsRequiredError("timer expires_at")
	}
	return Timer{kind: kind, expiresAt: expiresAt.UTC(), createdAt: createdAt.UTC()}, nil
}

func (t Timer) Kind() TimerKind      { return t.kind }
func (t Timer) ExpiresAt() time.Time { return t.expiresAt }
func (t Timer) CreatedAt() time.Time { return t.createdAt }

func (t Timer) IsOpen() bool {
	return t.kind != TimerNone
}

// Remaining is the time left before expiry, clamped at zero.
func (t Timer) Remaining(now time.Time) time.Duration {
	if !t.IsOpen() {
		return 0
	}
	if left := t.expiresAt.Sub(now); left > 0 {
		return left
	}
	return 0
}

// Expired reports an open window whose deadline has passed, or no window at all.
func (t Timer) Expired(now time.Time) bool {
	return t.Remaining(now) == 0
}
