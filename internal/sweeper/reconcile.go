package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tiperlive/reconciler/internal/adapter"
	"github.com/tiperlive/reconciler/internal/reconciler"
)

const (
	DefaultIdleInterval = time.Minute // Time to sleep when the last pass drained the queue
)

// ReconcileSweeperConfig holds configuration for the reconcile sweeper
type ReconcileSweeperConfig struct {
	// BatchSize is the discovery bound of one pass; a pass that discovers fewer units means the queue is drained
	BatchSize int
	// IdleInterval is the sleep between passes once the queue is drained
	IdleInterval time.Duration
	// RetryInitialInterval and RetryMaxInterval bound the backoff after a failed pass
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// reconcileSweeper implements the Sweeper interface by running reconciliation passes back to back
type reconcileSweeper struct {
	config    ReconcileSweeperConfig
	runner    reconciler.Runner
	clock     adapter.Clock
	log       *zap.Logger
	retry     *backoff.ExponentialBackOff
	running   atomic.Bool
	stopOnce  sync.Once
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewReconcileSweeper creates a new reconcile sweeper
func NewReconcileSweeper(config ReconcileSweeperConfig, runner reconciler.Runner, clock adapter.Clock, log *zap.Logger) Sweeper {
	if config.BatchSize <= 0 {
		config.BatchSize = reconciler.DefaultBatchSize
	}
	if config.IdleInterval <= 0 {
		config.IdleInterval = DefaultIdleInterval
	}
	if config.RetryInitialInterval <= 0 {
		config.RetryInitialInterval = 5 * time.Second
	}
	if config.RetryMaxInterval <= 0 {
		config.RetryMaxInterval = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = config.RetryInitialInterval
	retry.MaxInterval = config.RetryMaxInterval
	retry.MaxElapsedTime = 0 // Never give up; the sweeper only stops on request
	retry.Multiplier = 2.0
	retry.RandomizationFactor = 0.5
	retry.Reset()

	return &reconcileSweeper{
		config:    config,
		runner:    runner,
		clock:     clock,
		log:       log,
		retry:     retry,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *reconcileSweeper) Name() string {
	return "reconcile-sweeper"
}

// Start runs reconciliation passes until the context is canceled or Stop is called
func (s *reconcileSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	s.log.Info("Starting reconcile sweeper",
		zap.Int("batchSize", s.config.BatchSize),
		zap.Duration("idleInterval", s.config.IdleInterval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reconcile sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			s.log.Info("Reconcile sweeper stop requested")
			return nil
		default:
			s.runCycle(ctx)
		}
	}
}

// runCycle runs one pass and sleeps as needed before the next one
func (s *reconcileSweeper) runCycle(ctx context.Context) {
	result, err := s.runner.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		wait := s.retry.NextBackOff()
		s.log.Error("Reconciliation pass failed, retrying",
			zap.Error(err),
			zap.Duration("nextRetryIn", wait))
		s.sleep(ctx, wait)
		return
	}
	drained := result.Discovered < s.config.BatchSize

	if len(result.Failures) > 0 && result.Succeeded+result.Skipped == 0 {
		// Every unit failed; rerunning at once would only retry the same units
		wait := s.retry.NextBackOff()
		if drained {
			wait = max(wait, s.config.IdleInterval)
		}
		s.log.Warn("Reconciliation pass made no progress, backing off",
			zap.String("runID", result.RunID),
			zap.Int("failed", len(result.Failures)),
			zap.Duration("nextRunIn", wait))
		s.sleep(ctx, wait)
		return
	}
	s.retry.Reset()

	if len(result.Failures) > 0 {
		s.log.Warn("Reconciliation pass had unit failures",
			zap.String("runID", result.RunID),
			zap.Int("failed", len(result.Failures)))
	}

	if drained {
		// Queue drained; wait for new snapshots
		s.sleep(ctx, s.config.IdleInterval)
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *reconcileSweeper) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil // Not running
	}

	s.log.Info("Stopping reconcile sweeper")

	s.stopOnce.Do(func() {
		close(s.stopChan)
	})

	// Wait for the in-flight pass to finish, but respect context cancellation
	select {
	case <-s.stoppedCh:
		s.log.Info("Reconcile sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.log.Warn("Reconcile sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// sleep sleeps for the given duration but can be interrupted by context cancellation or Stop
func (s *reconcileSweeper) sleep(ctx context.Context, duration time.Duration) {
	select {
	case <-s.clock.After(duration):
	case <-ctx.Done():
	case <-s.stopChan:
	}
}
