package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/bastion/pkg/utils/logging"
)

// Sweeper removes scenario rows that no reader can see
type Sweeper interface {
	SweepStaleScenarios(ctx context.Context, grace time.Duration) (int, error)
}

// ScenarioSweepWorker periodically removes scenario rows left behind by
// failed rollbacks and superseding steps
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Rows younger than grace may belong to a regeneration in progress
type ScenarioSweepWorker struct {
	sweeper  Sweeper
	interval time.Duration
	grace    time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewScenarioSweepWorker creates a new worker for sweeping stale scenarios
func NewScenarioSweepWorker(sweeper Sweeper, interval, grace time.Duration) *ScenarioSweepWorker {
	return &ScenarioSweepWorker{
		sweeper:  sweeper,
		interval: interval,
		grace:    grace,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop without blocking
func (w *ScenarioSweepWorker) Start(ctx context.Context) {
	logging.Default().Info("Scenario sweep worker starting",
		"interval", w.interval.String(),
		"grace", w.grace.String())

	go w.run(ctx)
}

// Stop signals the worker to stop and waits for completion
func (w *ScenarioSweepWorker) Stop() {
	logging.Default().Info("Scenario sweep worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Scenario sweep worker stopped")
}

// run is the main worker loop (runs in goroutine)
func (w *ScenarioSweepWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)

		case <-w.stopCh:
			logging.Default().Info("Scenario sweep worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Scenario sweep worker context cancelled")
			return
		}
	}
}

func (w *ScenarioSweepWorker) sweep(ctx context.Context) {
	start := time.Now()
	swept, err := w.sweeper.SweepStaleScenarios(ctx, w.grace)
	if err != nil {
		// Log error but continue worker
		logging.Default().Error("Scenario sweep failed (will retry next interval)",
			"error", err.Error())
		return
	}
	logging.Default().Debug("Scenario sweep completed",
		"swept", swept,
		"duration", time.Since(start).String())
}
