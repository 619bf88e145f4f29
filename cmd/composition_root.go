package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/catalog"
	"dispatch/internal/adapters/out/fanout"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/adapters/out/mqtt"
	pgstore "dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/eventlog"
	"dispatch/internal/adapters/out/prommetrics"
	"dispatch/internal/adapters/out/rabbitmq"
	"dispatch/internal/adapters/out/redisgeo"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// CompositionRoot owns every adapter of a running engine and builds the use
// case handlers on top of them.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger
	clock  ports.Clock

	uowFactory ports.UnitOfWorkFactory
	events     ports.EventStream
	publisher  *fanout.Publisher
	positions  ports.PositionStore
	catalog    ports.RestaurantCatalog

	registry *prometheus.Registry
	metrics  *prommetrics.Metrics
	timer    *jobs.WindowTimer

	closers []func() error
}

// NewCompositionRoot connects the configured backends. Optional transports
// (Redis, AMQP, MQTT) are only dialled when configured. Call Close when done.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:      cfg,
		logger:   logger,
		clock:    ports.SystemClock{},
		registry: prometheus.NewRegistry(),
	}
	if err := c.build(ctx); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	return c, nil
}

func (c *CompositionRoot) build(ctx context.Context) error {
	c.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := prommetrics.New(c.registry)
	if err != nil {
		return err
	}
	c.metrics = metrics

	var (
		primary ports.EventPublisher
		db      *gorm.DB
		store   *memory.Store
	)
	switch c.cfg.Store.Backend {
	case StorePostgres:
		if db, err = OpenDatabase(c.cfg.Store.DSN); err != nil {
			return err
		}
		c.closers = append(c.closers, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		if err = pgstore.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		primary = eventlog.NewWriter(db, c.cfg.Store.Channel)
		c.events = eventlog.NewListener(c.cfg.Store.DSN, c.cfg.Store.Channel, c.logger)
	default:
		store = memory.NewStore()
		log := memory.NewEventLog(c.logger)
		primary, c.events = log, log
	}

	c.publisher = fanout.NewPublisher(primary, c.logger).With("metrics", c.metrics)
	if err = c.connectTransports(ctx); err != nil {
		return err
	}

	if db != nil {
		c.uowFactory = pgstore.NewGormUnitOfWorkFactory(db, c.publisher, c.logger)
	} else {
		c.uowFactory = memory.NewUnitOfWorkFactory(store, c.publisher, c.logger)
	}

	if c.catalog, err = newCatalog(c.cfg.Restaurants); err != nil {
		return err
	}

	c.timer = jobs.NewWindowTimer(c.clock, c.metrics, c.logger)
	return c.metrics.RegisterPendingWindows(c.timer.Pending)
}

func (c *CompositionRoot) connectTransports(ctx context.Context) error {
	if c.cfg.Redis.URL != "" {
		client, err := redisgeo.Dial(ctx, c.cfg.Redis.URL)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, client.Close)
		c.positions = redisgeo.NewPositionStore(client, c.cfg.Redis.Key)
	} else {
		c.positions = memory.NewPositionStore()
	}

	if c.cfg.AMQP.URL != "" {
		amqp, err := rabbitmq.Dial(c.cfg.AMQP.URL, c.cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, amqp.Close)
		c.publisher.With("amqp", amqp)
	}

	if c.cfg.MQTT.Broker != "" {
		client, err := mqtt.Connect(c.cfg.MQTT.Broker, c.cfg.MQTT.ClientID)
		if err != nil {
			return err
		}
		notifier := mqtt.NewPublisher(client, c.cfg.MQTT.TopicPrefix)
		c.closers = append(c.closers, func() error {
			notifier.Close()
			return nil
		})
		c.publisher.With("mqtt", notifier)
	}
	return nil
}

// OpenDatabase opens the postgres store behind gorm.
func OpenDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

func newCatalog(cfg RestaurantsConfig) (*catalog.Static, error) {
	fallback, err := kernel.NewLocation(cfg.Default.Longitude, cfg.Default.Latitude)
	if err != nil {
		return nil, fmt.Errorf("restaurants.default: %w", err)
	}
	known := make(map[string]kernel.Location, len(cfg.Known))
	for id, loc := range cfg.Known {
		if known[id], err = kernel.NewLocation(loc.Longitude, loc.Latitude); err != nil {
			return nil, fmt.Errorf("restaurants.known.%s: %w", id, err)
		}
	}
	return catalog.NewStatic(fallback, known), nil
}

// Close releases connections in reverse order of acquisition.
func (c *CompositionRoot) Close() error {
	var result []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		result = append(result, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(result...)
}

func (c *CompositionRoot) Registry() *prometheus.Registry {
	return c.registry
}

func (c *CompositionRoot) Metrics() *prommetrics.Metrics {
	return c.metrics
}

func (c *CompositionRoot) EventStream() ports.EventStream {
	return c.events
}

func (c *CompositionRoot) Clock() ports.Clock {
	return c.clock
}

func (c *CompositionRoot) commandUoWs() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) repositories() queries.RepositoriesFactory {
	return FuncRepositoriesFactory(func() queries.Repositories {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) autoDispatcher() commands.AutoDispatcher {
	return commands.NewAutoDispatcher(c.positions, c.catalog)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.commandUoWs(), c.clock)
}

func (c *CompositionRoot) CreateMarkReadyCommandHandler() commands.MarkReadyCommandHandler {
	return commands.NewMarkReadyCommandHandler(c.commandUoWs(), c.timer, c.cfg.Windows.Policy(), c.clock)
}

func (c *CompositionRoot) CreateExpressInterestCommandHandler() commands.ExpressInterestCommandHandler {
	return commands.NewExpressInterestCommandHandler(c.commandUoWs(), c.clock)
}

func (c *CompositionRoot) CreateManagerAssignCommandHandler() commands.ManagerAssignCommandHandler {
	return commands.NewManagerAssignCommandHandler(c.commandUoWs(), c.clock)
}

func (c *CompositionRoot) CreateForceAutoAssignCommandHandler() commands.ForceAutoAssignCommandHandler {
	return commands.NewForceAutoAssignCommandHandler(c.commandUoWs(), c.autoDispatcher(), c.clock)
}

func (c *CompositionRoot) CreateExpireWindowCommandHandler() commands.ExpireWindowCommandHandler {
	return commands.NewExpireWindowCommandHandler(
		c.commandUoWs(), c.autoDispatcher(), c.timer, c.cfg.Windows.Policy(), c.clock, c.logger)
}

func (c *CompositionRoot) CreateMarkDeliveredCommandHandler() commands.MarkDeliveredCommandHandler {
	return commands.NewMarkDeliveredCommandHandler(c.commandUoWs(), c.clock)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.commandUoWs(), c.clock)
}

func (c *CompositionRoot) CreateRateDriverCommandHandler() commands.RateDriverCommandHandler {
	return commands.NewRateDriverCommandHandler(c.commandUoWs(), c.clock)
}

func (c *CompositionRoot) CreateUpdatePositionCommandHandler() commands.UpdatePositionCommandHandler {
	return commands.NewUpdatePositionCommandHandler(c.positions, c.publisher, c.clock)
}

func (c *CompositionRoot) CreateSeedAgentCommandHandler() commands.SeedAgentCommandHandler {
	return commands.NewSeedAgentCommandHandler(c.commandUoWs())
}

// HTTPHandlers builds every handler the HTTP server dispatches to.
func (c *CompositionRoot) HTTPHandlers() httpin.Handlers {
	repos := c.repositories()
	return httpin.Handlers{
		CreateOrder:     c.CreateCreateOrderCommandHandler(),
		MarkReady:       c.CreateMarkReadyCommandHandler(),
		ExpressInterest: c.CreateExpressInterestCommandHandler(),
		ManagerAssign:   c.CreateManagerAssignCommandHandler(),
		ForceAutoAssign: c.CreateForceAutoAssignCommandHandler(),
		MarkDelivered:   c.CreateMarkDeliveredCommandHandler(),
		CancelOrder:     c.CreateCancelOrderCommandHandler(),
		RateDriver:      c.CreateRateDriverCommandHandler(),
		UpdatePosition:  c.CreateUpdatePositionCommandHandler(),

		GetOrder:           queries.NewGetOrderQueryHandler(repos),
		ListOrders:         queries.NewListOrdersQueryHandler(repos),
		GetOrderCandidates: queries.NewGetOrderCandidatesQueryHandler(repos),
		GetTimerStatus:     queries.NewGetTimerStatusQueryHandler(repos, c.clock),
		GetAgentStats:      queries.NewGetAgentStatsQueryHandler(repos),
		GetAgentPosition:   queries.NewGetAgentPositionQueryHandler(c.positions),
		ListActiveTimers:   queries.NewListActiveTimersQueryHandler(repos, c.clock),
	}
}

// JobManager wires the window timer and the recovery sweep to the expiry handler.
func (c *CompositionRoot) JobManager() *jobs.JobManager {
	expire := c.CreateExpireWindowCommandHandler()
	recovery := jobs.NewTimerRecoveryJob(c.repositories(), expire, c.metrics, c.clock,
		c.cfg.Recovery.Schedule, c.cfg.Recovery.Grace, c.logger)
	return jobs.NewJobManager(c.timer, recovery, expire)
}

// SeedAgents creates the configured agent quality records that do not exist yet.
func (c *CompositionRoot) SeedAgents(ctx context.Context) error {
	handler := c.CreateSeedAgentCommandHandler()
	for agentID, avg := range c.cfg.Seeds {
		cmd, err := commands.NewSeedAgentCommand(agentID, avg)
		if err != nil {
			return fmt.Errorf("seed %s: %w", agentID, err)
		}
		created, err := handler.Handle(ctx, cmd)
		if err != nil {
			return fmt.Errorf("seed %s: %w", agentID, err)
		}
		if created {
			c.logger.InfoContext(ctx, "seeded agent", "agent_id", agentID, "avg_rating", avg)
		}
	}
	return nil
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncRepositoriesFactory func() queries.Repositories

func (f FuncRepositoriesFactory) Create() queries.Repositories {
	return f()
}
