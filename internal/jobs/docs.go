// Package jobs runs the background work of the dispatch engine.
//
// # Available Jobs
//
//  1. WindowTimer - fire-once timers (time.AfterFunc) that deliver acceptance and
//     manager-decision window expiries to the expiry handler
//  2. TimerRecoveryJob - cron sweep (github.com/robfig/cron/v3, "@every 5s" by
//     default) that re-fires windows whose expiry is overdue, e.g. after a restart
//
// # Usage
//
//	timer := jobs.NewWindowTimer(clock, metrics, logger)
//	// timer is the ports.WindowScheduler handed to the command handlers
//	expire := commands.NewExpireWindowCommandHandler(uows, dispatcher, timer, policy, clock, logger)
//	recovery := jobs.NewTimerRecoveryJob(repos, expire, metrics, clock, "", 5*time.Second, logger)
//
//	jobManager := jobs.NewJobManager(timer, recovery, expire)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Timers are never cancelled. An expiry that finds the order moved on returns
// order.Superseded without error, so stale and duplicated firings are harmless.
// Handler errors are logged by the handler and counted by the observer.
package jobs
