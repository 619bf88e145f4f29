package jobs_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"dispatch/internal/adapters/out/catalog"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordingHandler struct {
	mu      sync.Mutex
	tasks   []order.WindowTask
	outcome order.ExpiryOutcome
	err     error
}

func (h *recordingHandler) Handle(_ context.Context, cmd commands.ExpireWindowCommand) (order.ExpiryOutcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks = append(h.tasks, cmd.Task())
	return h.outcome, h.err
}

func (h *recordingHandler) Tasks() []order.WindowTask {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]order.WindowTask(nil), h.tasks...)
}

type expiry struct {
	kind    order.TimerKind
	outcome order.ExpiryOutcome
	err     error
}

type recordingObserver struct {
	mu       sync.Mutex
	expiries []expiry
}

func (o *recordingObserver) ObserveExpiry(kind order.TimerKind, outcome order.ExpiryOutcome, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expiries = append(o.expiries, expiry{kind: kind, outcome: outcome, err: err})
}

func (o *recordingObserver) Expiries() []expiry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]expiry(nil), o.expiries...)
}

func task(fireAt time.Time) order.WindowTask {
	return order.WindowTask{OrderID: kernel.NewUUID(), Kind: order.AcceptanceWindow, FireAt: fireAt}
}

func TestWindowTimer_FiresOnce(t *testing.T) {
	now := time.Now()
	handler := &recordingHandler{outcome: order.NoCandidatesLeft}
	observer := &recordingObserver{}
	timer := jobs.NewWindowTimer(fixedClock{now: now}, observer, discardLogger())
	require.NoError(t, timer.Start(handler))
	defer timer.Stop()

	scheduled := task(now.Add(20 * time.Millisecond))
	timer.Schedule(scheduled)
	assert.Equal(t, 1, timer.Pending())

	require.Eventually(t, func() bool { return len(handler.Tasks()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, scheduled, handler.Tasks()[0])
	require.Eventually(t, func() bool { return len(observer.Expiries()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, expiry{kind: order.AcceptanceWindow, outcome: order.NoCandidatesLeft}, observer.Expiries()[0])
	assert.Equal(t, 0, timer.Pending())

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, handler.Tasks(), 1)
}

func TestWindowTimer_PastDeadlineFiresImmediately(t *testing.T) {
	now := time.Now()
	handler := &recordingHandler{}
	timer := jobs.NewWindowTimer(fixedClock{now: now}, nil, discardLogger())
	require.NoError(t, timer.Start(handler))
	defer timer.Stop()

	timer.Schedule(task(now.Add(-time.Minute)))

	require.Eventually(t, func() bool { return len(handler.Tasks()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestWindowTimer_TaskScheduledBeforeStartRunsAfterBinding(t *testing.T) {
	now := time.Now()
	handler := &recordingHandler{}
	timer := jobs.NewWindowTimer(fixedClock{now: now}, nil, discardLogger())
	defer timer.Stop()

	timer.Schedule(task(now.Add(100 * time.Millisecond)))
	require.NoError(t, timer.Start(handler))

	require.Eventually(t, func() bool { return len(handler.Tasks()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestWindowTimer_TaskDueBeforeStartIsHeldUntilBinding(t *testing.T) {
	now := time.Now()
	handler := &recordingHandler{outcome: order.NoCandidatesLeft}
	observer := &recordingObserver{}
	timer := jobs.NewWindowTimer(fixedClock{now: now}, observer, discardLogger())
	defer timer.Stop()

	due := task(now.Add(-time.Second))
	timer.Schedule(due)
	require.Eventually(t, func() bool { return timer.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, observer.Expiries())

	require.NoError(t, timer.Start(handler))

	require.Eventually(t, func() bool { return len(handler.Tasks()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, due, handler.Tasks()[0])
	require.Eventually(t, func() bool { return len(observer.Expiries()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestWindowTimer_StopDropsHeldTasks(t *testing.T) {
	now := time.Now()
	handler := &recordingHandler{}
	timer := jobs.NewWindowTimer(fixedClock{now: now}, nil, discardLogger())

	timer.Schedule(task(now.Add(-time.Second)))
	require.Eventually(t, func() bool { return timer.Pending() == 0 }, time.Second, 5*time.Millisecond)
	timer.Stop()

	require.ErrorIs(t, timer.Start(handler), jobs.ErrWindowTimerStopped)
	assert.Empty(t, handler.Tasks())
}

func TestWindowTimer_StopDisarmsPendingTimers(t *testing.T) {
	now := time.Now()
	handler := &recordingHandler{}
	timer := jobs.NewWindowTimer(fixedClock{now: now}, nil, discardLogger())
	require.NoError(t, timer.Start(handler))

	timer.Schedule(task(now.Add(time.Hour)))
	timer.Schedule(task(now.Add(2 * time.Hour)))
	require.Equal(t, 2, timer.Pending())

	timer.Stop()

	assert.Equal(t, 0, timer.Pending())
	assert.Empty(t, handler.Tasks())

	timer.Schedule(task(now))
	assert.Equal(t, 0, timer.Pending())
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, handler.Tasks())

	require.ErrorIs(t, timer.Start(handler), jobs.ErrWindowTimerStopped)
}

func TestWindowTimer_StartTwice(t *testing.T) {
	timer := jobs.NewWindowTimer(ports.SystemClock{}, nil, discardLogger())
	defer timer.Stop()

	require.NoError(t, timer.Start(&recordingHandler{}))
	require.ErrorIs(t, timer.Start(&recordingHandler{}), jobs.ErrWindowTimerAlreadyStarted)
}

type commandUoWs struct{ f ports.UnitOfWorkFactory }

func (w commandUoWs) Create() commands.UoW { return w.f.Create() }

type queryRepos struct{ f ports.UnitOfWorkFactory }

func (w queryRepos) Create() queries.Repositories { return w.f.Create() }

func readyOrder(t *testing.T, uows ports.UnitOfWorkFactory, policy order.WindowPolicy, now time.Time) order.WindowTask {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), "client1", "restaurant1",
		[]order.Item{{Name: "Pizza", Quantity: 1, Price: 12.5}}, now)
	require.NoError(t, err)
	restaurant, err := kernel.NewCaller("restaurant1", kernel.RoleRestaurant)
	require.NoError(t, err)
	next, err := o.MarkReady(restaurant, policy, now)
	require.NoError(t, err)

	uow := uows.Create()
	require.NoError(t, uow.Begin(t.Context()))
	require.NoError(t, uow.OrderRepository().Add(t.Context(), o))
	require.NoError(t, uow.Commit(t.Context()))
	return next
}

func TestWindowTimer_ExpiresAcceptanceWindowWithoutCandidates(t *testing.T) {
	logger := discardLogger()
	uows := memory.NewUnitOfWorkFactory(memory.NewStore(), memory.NewEventLog(logger), logger)
	policy := order.WindowPolicy{Acceptance: 30 * time.Millisecond, ManagerDecision: 30 * time.Millisecond}
	clock := ports.SystemClock{}
	restaurant, err := kernel.NewLocation(2.333, 48.865)
	require.NoError(t, err)

	observer := &recordingObserver{}
	timer := jobs.NewWindowTimer(clock, observer, logger)
	expire := commands.NewExpireWindowCommandHandler(commandUoWs{f: uows},
		commands.NewAutoDispatcher(memory.NewPositionStore(), catalog.NewStatic(restaurant, nil)), timer, policy, clock, logger)
	require.NoError(t, timer.Start(expire))
	defer timer.Stop()

	next := readyOrder(t, uows, policy, clock.Now())
	timer.Schedule(next)

	require.Eventually(t, func() bool { return len(observer.Expiries()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, order.NoCandidatesLeft, observer.Expiries()[0].outcome)
	require.NoError(t, observer.Expiries()[0].err)

	o, err := uows.Create().OrderRepository().Get(t.Context(), next.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.Ready, o.Status())
	assert.False(t, o.Timer().IsOpen())
}
