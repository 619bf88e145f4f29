package jobs

import (
	"fmt"
)

// JobManager starts and stops the background work of the engine: the window
// timer and the recovery sweep that backs it up.
type JobManager struct {
	timer    *WindowTimer
	recovery *TimerRecoveryJob
	handler  ExpiryHandler
}

// NewJobManager takes the timer the command handlers schedule on and the
// handler both jobs deliver expiries to.
func NewJobManager(timer *WindowTimer, recovery *TimerRecoveryJob, handler ExpiryHandler) *JobManager {
	return &JobManager{
		timer:    timer,
		recovery: recovery,
		handler:  handler,
	}
}

// StartAll starts all jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.timer.Start(jm.handler); err != nil {
		return fmt.Errorf("failed to start window timer: %w", err)
	}

	if err := jm.recovery.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.timer.Stop()
		return fmt.Errorf("failed to start timer recovery job: %w", err)
	}

	return nil
}

// StopAll stops the sweep first so it cannot schedule into a stopped timer.
func (jm *JobManager) StopAll() {
	jm.recovery.Stop()
	jm.timer.Stop()
}
