package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobRunner drives the periodic jobs on UTC-anchored cron schedules. The
// hourly cycle runs the sweeper strictly before the dispatcher so a dose
// that just went missed is never also reminded.
type JobRunner struct {
	cron       *cron.Cron
	sweeper    *Sweeper
	dispatcher *Dispatcher
	horizon    *HorizonJob
	risk       *RiskScorer
	logger     *zap.Logger
}

// NewJobRunner creates the periodic job runner
func NewJobRunner(sweeper *Sweeper, dispatcher *Dispatcher, horizon *HorizonJob, risk *RiskScorer, logger *zap.Logger) *JobRunner {
	return &JobRunner{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		sweeper:    sweeper,
		dispatcher: dispatcher,
		horizon:    horizon,
		risk:       risk,
		logger:     logger,
	}
}

// Start registers the schedules and launches the runner
func (r *JobRunner) Start() error {
	if _, err := r.cron.AddFunc("0 * * * *", r.RunHourly); err != nil {
		return fmt.Errorf("failed to schedule hourly cycle: %w", err)
	}
	if _, err := r.cron.AddFunc("30 2 * * *", r.RunNightly); err != nil {
		return fmt.Errorf("failed to schedule nightly cycle: %w", err)
	}
	r.cron.Start()
	r.logger.Info("job runner started")
	return nil
}

// Stop halts the runner and waits for a running cycle to finish
func (r *JobRunner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("job runner stopped")
}

// RunHourly executes one sweep-then-dispatch cycle
func (r *JobRunner) RunHourly() {
	now := time.Now().UTC()
	swept := r.sweeper.Run(now)
	dispatched := r.dispatcher.Run(now)
	r.logger.Info("hourly cycle finished",
		zap.Int("swept", swept.Changed),
		zap.Int("reminders_sent", dispatched.Changed),
		zap.Int("errors", swept.Errors+dispatched.Errors),
	)
}

// RunNightly extends the schedule horizon and refreshes risk assessments
func (r *JobRunner) RunNightly() {
	now := time.Now().UTC()
	extended := r.horizon.Run(now)
	scored := r.risk.Run(now)
	r.logger.Info("nightly cycle finished",
		zap.Int("doses_materialized", extended.Changed),
		zap.Int("medications_scored", scored.Changed),
		zap.Int("errors", extended.Errors+scored.Errors),
	)
}
