package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

var (
	ErrWindowTimerAlreadyStarted = errors.New("window timer already started")
	ErrWindowTimerStopped        = errors.New("window timer stopped")
)

// ExpiryHandler runs the expiry of one window. commands.ExpireWindowCommandHandler
// satisfies it.
type ExpiryHandler interface {
	Handle(ctx context.Context, cmd commands.ExpireWindowCommand) (order.ExpiryOutcome, error)
}

// ExpiryObserver is told about every expiry that ran.
type ExpiryObserver interface {
	ObserveExpiry(kind order.TimerKind, outcome order.ExpiryOutcome, err error)
}

// WindowTimer is the in-process ports.WindowScheduler. Each task gets its own
// time.AfterFunc and fires once; nothing is cancelled when the order moves on,
// the expiry handler re-reads the order and aborts instead.
type WindowTimer struct {
	clock    ports.Clock
	observer ExpiryObserver
	logger   *slog.Logger

	mu      sync.Mutex
	handler ExpiryHandler
	pending map[*time.Timer]struct{}
	held    []order.WindowTask
	stopped bool
	running sync.WaitGroup
}

// NewWindowTimer creates a timer with no handler bound. Tasks that come due
// before Start are held and run once a handler is bound. observer may be nil.
func NewWindowTimer(clock ports.Clock, observer ExpiryObserver, logger *slog.Logger) *WindowTimer {
	return &WindowTimer{
		clock:    clock,
		observer: observer,
		logger:   logger.With("component", "window_timer"),
		pending:  make(map[*time.Timer]struct{}),
	}
}

// Start binds the handler that expiries are delivered to.
func (w *WindowTimer) Start(handler ExpiryHandler) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrWindowTimerStopped
	}
	if w.handler != nil {
		return ErrWindowTimerAlreadyStarted
	}
	w.handler = handler
	for _, task := range w.held {
		w.running.Add(1)
		go func() {
			defer w.running.Done()
			w.fire(handler, task)
		}()
	}
	w.logger.InfoContext(context.Background(), "Window timer started", "held", len(w.held))
	w.held = nil
	return nil
}

// Schedule arms a timer for task.FireAt. A FireAt in the past fires immediately.
func (w *WindowTimer) Schedule(task order.WindowTask) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		w.logger.WarnContext(context.Background(), "dropping window task after stop",
			"order_id", task.OrderID.String(), "kind", task.Kind.String())
		return
	}

	delay := max(task.FireAt.Sub(w.clock.Now()), 0)

	w.running.Add(1)
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		defer w.running.Done()

		w.mu.Lock()
		delete(w.pending, t)
		handler := w.handler
		if handler == nil {
			w.held = append(w.held, task)
		}
		w.mu.Unlock()

		if handler != nil {
			w.fire(handler, task)
		}
	})
	w.pending[t] = struct{}{}
}

// Pending reports the number of armed timers.
func (w *WindowTimer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Stop disarms every pending timer and waits for running expiries to return.
func (w *WindowTimer) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	disarmed := 0
	for t := range w.pending {
		if t.Stop() {
			w.running.Done()
			disarmed++
		}
		delete(w.pending, t)
	}
	disarmed += len(w.held)
	w.held = nil
	w.mu.Unlock()

	w.running.Wait()
	w.logger.InfoContext(context.Background(), "Window timer stopped", "disarmed", disarmed)
}

func (w *WindowTimer) fire(handler ExpiryHandler, task order.WindowTask) {
	ctx := context.Background()
	cmd, err := commands.NewExpireWindowCommand(task)
	if err != nil {
		w.logger.ErrorContext(ctx, "invalid window task", "error", err)
		return
	}

	outcome, err := handler.Handle(ctx, cmd)
	if w.observer != nil {
		w.observer.ObserveExpiry(task.Kind, outcome, err)
	}
}
