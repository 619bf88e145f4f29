package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/ports"

	"github.com/robfig/cron/v3"
)

const (
	DefaultRecoverySchedule = "@every 5s"
	DefaultRecoveryGrace    = 5 * time.Second
)

// TimerRecoveryJob re-fires windows whose stored expiry passed more than grace
// ago without being handled, which happens when the process restarts and the
// in-memory timers are lost. A window that was already handled is no longer
// stored as open, and a late duplicate aborts as superseded.
type TimerRecoveryJob struct {
	repos    queries.RepositoriesFactory
	handler  ExpiryHandler
	observer ExpiryObserver
	clock    ports.Clock
	schedule string
	grace    time.Duration

	cron   *cron.Cron
	logger *slog.Logger
}

func NewTimerRecoveryJob(
	repos queries.RepositoriesFactory,
	handler ExpiryHandler,
	observer ExpiryObserver,
	clock ports.Clock,
	schedule string,
	grace time.Duration,
	logger *slog.Logger,
) *TimerRecoveryJob {
	if schedule == "" {
		schedule = DefaultRecoverySchedule
	}
	return &TimerRecoveryJob{
		repos:    repos,
		handler:  handler,
		observer: observer,
		clock:    clock,
		schedule: schedule,
		grace:    grace,
		cron:     cron.New(),
		logger:   logger.With("component", "timer_recovery_job"),
	}
}

// Start registers the sweep on the cron schedule.
func (j *TimerRecoveryJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		if _, err := j.Sweep(context.Background()); err != nil {
			j.logger.ErrorContext(context.Background(), "Timer recovery sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Timer recovery job started", "schedule", j.schedule)
	return nil
}

// Stop stops the schedule and waits for a running sweep.
func (j *TimerRecoveryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Timer recovery job stopped")
}

// Sweep runs the expiry of every overdue window once and returns how many it ran.
func (j *TimerRecoveryJob) Sweep(ctx context.Context) (int, error) {
	tasks, err := j.repos.Create().OrderRepository().ListExpiredTimers(ctx, j.clock.Now().Add(-j.grace))
	if err != nil {
		return 0, err
	}

	for _, task := range tasks {
		cmd, err := commands.NewExpireWindowCommand(task)
		if err != nil {
			return 0, err
		}
		outcome, err := j.handler.Handle(ctx, cmd)
		if j.observer != nil {
			j.observer.ObserveExpiry(task.Kind, outcome, err)
		}
		if err != nil {
			j.logger.WarnContext(ctx, "overdue window expiry failed",
				"order_id", task.OrderID.String(), "kind", task.Kind.String(), "error", err)
		}
	}

	if len(tasks) > 0 {
		j.logger.InfoContext(ctx, "Recovered overdue windows", "count", len(tasks))
	}
	return len(tasks), nil
}
