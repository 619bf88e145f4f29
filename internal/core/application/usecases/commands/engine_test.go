package commands_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/event"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/require"
)

// manualClock only moves when a test advances it.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingScheduler keeps tasks so tests decide when windows fire.
type recordingScheduler struct {
	mu    sync.Mutex
	tasks []order.WindowTask
}

func (s *recordingScheduler) Schedule(task order.WindowTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
}

func (s *recordingScheduler) Last(t *testing.T) order.WindowTask {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.tasks, "no window was scheduled")
	return s.tasks[len(s.tasks)-1]
}

func (s *recordingScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

type staticCatalog struct{ location kernel.Location }

func (c staticCatalog) Location(context.Context, string) (kernel.Location, error) {
	return c.location, nil
}

type uowFactory struct{ f ports.UnitOfWorkFactory }

func (w uowFactory) Create() commands.UoW { return w.f.Create() }

// slowUoWs stalls every order write, widening the gap between a command's read
// and its write the way a remote database does.
type slowUoWs struct {
	f     ports.UnitOfWorkFactory
	delay time.Duration
}

func (w slowUoWs) Create() commands.UoW {
	return slowUoW{UnitOfWork: w.f.Create(), delay: w.delay}
}

type slowUoW struct {
	ports.UnitOfWork
	delay time.Duration
}

func (u slowUoW) OrderRepository() ports.OrderRepository {
	return slowOrders{OrderRepository: u.UnitOfWork.OrderRepository(), delay: u.delay}
}

type slowOrders struct {
	ports.OrderRepository
	delay time.Duration
}

func (r slowOrders) Update(ctx context.Context, o *order.Order) error {
	time.Sleep(r.delay)
	return r.OrderRepository.Update(ctx, o)
}

type engine struct {
	clock     *manualClock
	scheduler *recordingScheduler
	events    *memory.EventLog
	positions *memory.PositionStore
	uows      commands.UoWFactory

	create          commands.CreateOrderCommandHandler
	markReady       commands.MarkReadyCommandHandler
	expressInterest commands.ExpressInterestCommandHandler
	managerAssign   commands.ManagerAssignCommandHandler
	forceAuto       commands.ForceAutoAssignCommandHandler
	expire          commands.ExpireWindowCommandHandler
	markDelivered   commands.MarkDeliveredCommandHandler
	cancel          commands.CancelOrderCommandHandler
	rate            commands.RateDriverCommandHandler
	updatePosition  commands.UpdatePositionCommandHandler
	seed            commands.SeedAgentCommandHandler

	client     kernel.Caller
	restaurant kernel.Caller
	manager    kernel.Caller
}

var restaurantLocation, _ = kernel.NewLocation(2.333, 48.865)

func newEngine(t *testing.T) *engine {
	t.Helper()
	return newEngineOver(t, func(f ports.UnitOfWorkFactory) commands.UoWFactory {
		return uowFactory{f: f}
	})
}

// newSlowEngine delays every order write by delay.
func newSlowEngine(t *testing.T, delay time.Duration) *engine {
	t.Helper()
	return newEngineOver(t, func(f ports.UnitOfWorkFactory) commands.UoWFactory {
		return slowUoWs{f: f, delay: delay}
	})
}

func newEngineOver(t *testing.T, wrap func(ports.UnitOfWorkFactory) commands.UoWFactory) *engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := &engine{
		clock:      &manualClock{now: t0},
		scheduler:  &recordingScheduler{},
		events:     memory.NewEventLog(logger),
		positions:  memory.NewPositionStore(),
		client:     mustCaller(t, "client1", kernel.RoleClient),
		restaurant: mustCaller(t, "restaurant1", kernel.RoleRestaurant),
		manager:    mustCaller(t, "manager1", kernel.RoleManager),
	}
	e.uows = wrap(memory.NewUnitOfWorkFactory(memory.NewStore(), e.events, logger))

	policy := order.DefaultWindowPolicy()
	dispatcher := commands.NewAutoDispatcher(e.positions, staticCatalog{location: restaurantLocation})

	e.create = commands.NewCreateOrderCommandHandler(e.uows, e.clock)
	e.markReady = commands.NewMarkReadyCommandHandler(e.uows, e.scheduler, policy, e.clock)
	e.expressInterest = commands.NewExpressInterestCommandHandler(e.uows, e.clock)
	e.managerAssign = commands.NewManagerAssignCommandHandler(e.uows, e.clock)
	e.forceAuto = commands.NewForceAutoAssignCommandHandler(e.uows, dispatcher, e.clock)
	e.expire = commands.NewExpireWindowCommandHandler(e.uows, dispatcher, e.scheduler, policy, e.clock, logger)
	e.markDelivered = commands.NewMarkDeliveredCommandHandler(e.uows, e.clock)
	e.cancel = commands.NewCancelOrderCommandHandler(e.uows, e.clock)
	e.rate = commands.NewRateDriverCommandHandler(e.uows, e.clock)
	e.updatePosition = commands.NewUpdatePositionCommandHandler(e.positions, e.events, e.clock)
	e.seed = commands.NewSeedAgentCommandHandler(e.uows)
	return e
}

func (e *engine) placeOrder(t *testing.T) kernel.UUID {
	t.Helper()
	id := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(id, e.client, "restaurant1", pizza)
	require.NoError(t, err)
	require.NoError(t, e.create.Handle(t.Context(), cmd))
	return id
}

func (e *engine) readyOrder(t *testing.T) kernel.UUID {
	t.Helper()
	id := e.placeOrder(t)
	cmd, err := commands.NewMarkReadyCommand(id, e.restaurant)
	require.NoError(t, err)
	require.NoError(t, e.markReady.Handle(t.Context(), cmd))
	return id
}

func (e *engine) interest(t *testing.T, id kernel.UUID, agentID string) (bool, error) {
	t.Helper()
	cmd, err := commands.NewExpressInterestCommand(id, mustCaller(t, agentID, kernel.RoleDriver))
	require.NoError(t, err)
	return e.expressInterest.Handle(t.Context(), cmd)
}

func (e *engine) fire(t *testing.T, task order.WindowTask) order.ExpiryOutcome {
	t.Helper()
	cmd, err := commands.NewExpireWindowCommand(task)
	require.NoError(t, err)
	outcome, err := e.expire.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return outcome
}

func (e *engine) assignManually(t *testing.T, id kernel.UUID, agentID string) error {
	t.Helper()
	cmd, err := commands.NewManagerAssignCommand(id, e.manager, agentID)
	require.NoError(t, err)
	return e.managerAssign.Handle(t.Context(), cmd)
}

func (e *engine) deliver(t *testing.T, id kernel.UUID) {
	t.Helper()
	cmd, err := commands.NewMarkDeliveredCommand(id, e.manager)
	require.NoError(t, err)
	require.NoError(t, e.markDelivered.Handle(t.Context(), cmd))
}

func (e *engine) rateDriver(t *testing.T, id kernel.UUID, rating int) (agent.Stats, error) {
	t.Helper()
	cmd, err := commands.NewRateDriverCommand(id, e.client, rating)
	require.NoError(t, err)
	return e.rate.Handle(t.Context(), cmd)
}

func (e *engine) seedAgent(t *testing.T, agentID string, avg float64) {
	t.Helper()
	cmd, err := commands.NewSeedAgentCommand(agentID, avg)
	require.NoError(t, err)
	_, err = e.seed.Handle(t.Context(), cmd)
	require.NoError(t, err)
}

func (e *engine) placeAgent(t *testing.T, agentID string, lon, lat float64) {
	t.Helper()
	cmd, err := commands.NewUpdatePositionCommand(mustCaller(t, agentID, kernel.RoleDriver), &lon, &lat)
	require.NoError(t, err)
	_, err = e.updatePosition.Handle(t.Context(), cmd)
	require.NoError(t, err)
}

func (e *engine) load(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	o, err := e.uows.Create().OrderRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return o
}

// eventsFor lists the event types published for one order, oldest first.
func (e *engine) eventsFor(id kernel.UUID) []event.Type {
	var types []event.Type
	for _, ev := range e.events.Events() {
		if ev.OrderID() == id.String() {
			types = append(types, ev.Type)
		}
	}
	return types
}

func (e *engine) lastEvent(t *testing.T, id kernel.UUID, typ event.Type) event.Event {
	t.Helper()
	events := e.events.Events()
	for _, ev := range slices.Backward(events) {
		if ev.OrderID() == id.String() && ev.Type == typ {
			return ev
		}
	}
	t.Fatalf("no %s event for order %s", typ, id)
	return event.Event{}
}
