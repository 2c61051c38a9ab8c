package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tiperlive/reconciler/internal/adapter"
	"github.com/tiperlive/reconciler/internal/catalog"
	"github.com/tiperlive/reconciler/internal/domain"
	"github.com/tiperlive/reconciler/internal/logger"
	"github.com/tiperlive/reconciler/internal/merge"
	"github.com/tiperlive/reconciler/internal/messaging"
	"github.com/tiperlive/reconciler/internal/store"
)

const DefaultBatchSize = 1000

// Config holds the settings of one reconciliation pass
type Config struct {
	// BatchSize bounds the number of units discovered per pass
	BatchSize int
	// WorkerPoolSize is the number of units reconciled concurrently; 1 runs them in order
	WorkerPoolSize int
	// UnitsPerSecond caps the unit start rate; 0 disables the limit
	UnitsPerSecond float64
}

// Runner runs reconciliation passes
//
//go:generate mockgen -source=reconciler.go -destination=../mocks/reconciler.go -package=mocks -mock_names=Runner=MockRunner
type Runner interface {
	// RunOnce reconciles one bounded batch of pending units.
	// It only returns an error when the pass could not start; unit errors are reported in the result.
	RunOnce(ctx context.Context) (*domain.RunResult, error)
}

type reconciler struct {
	cfg       Config
	store     store.Store
	merger    merge.Merger
	upserter  catalog.Upserter
	publisher messaging.Publisher
	clock     adapter.Clock
	limiter   *rate.Limiter
	log       *zap.Logger
}

// New creates a reconciliation driver
func New(
	cfg Config,
	st store.Store,
	merger merge.Merger,
	upserter catalog.Upserter,
	publisher messaging.Publisher,
	clock adapter.Clock,
	log *zap.Logger,
) Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 1
	}
	if publisher == nil {
		publisher = messaging.NewNopPublisher()
	}
	if log == nil {
		log = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.UnitsPerSecond > 0 {
		burst := max(1, cfg.WorkerPoolSize)
		limiter = rate.NewLimiter(rate.Limit(cfg.UnitsPerSecond), burst)
	}

	return &reconciler{
		cfg:       cfg,
		store:     st,
		merger:    merger,
		upserter:  upserter,
		publisher: publisher,
		clock:     clock,
		limiter:   limiter,
		log:       log,
	}
}

// unitOutcome is what a committed unit produced
type unitOutcome struct {
	skipReason    domain.SkipReason
	snapshotCount int
	contentHash   string
	upsert        *catalog.UpsertResult
}

func (o *unitOutcome) skipped() bool {
	return o.skipReason != domain.SkipReasonNone
}

// RunOnce discovers pending units and reconciles each in its own transaction
func (r *reconciler) RunOnce(ctx context.Context) (*domain.RunResult, error) {
	runID := ulid.Make().String()
	log := logger.WithContext(r.log, ctx).With(zap.String("runID", runID))

	result := &domain.RunResult{
		RunID:     runID,
		Failures:  []domain.UnitFailure{},
		StartedAt: r.clock.Now(),
	}

	keys, err := r.store.GetPendingUnits(ctx, r.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to discover pending units: %w", err)
	}
	result.Discovered = len(keys)

	log.Info("Starting reconciliation pass",
		zap.Int("units", len(keys)),
		zap.Int("batchSize", r.cfg.BatchSize),
		zap.Int("workerPoolSize", r.cfg.WorkerPoolSize))

	var mu sync.Mutex
	record := func(key domain.UnitKey, outcome *unitOutcome, err error) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case err != nil:
			result.Failures = append(result.Failures, domain.UnitFailure{Key: key, Err: err})
		case outcome.skipped():
			result.Skipped++
		default:
			result.Succeeded++
		}
	}

	process := func(key domain.UnitKey) {
		if err := r.wait(ctx); err != nil {
			record(key, nil, err)
			return
		}

		outcome, err := r.reconcileUnit(ctx, key)
		if err != nil {
			log.Error("Failed to reconcile unit", zap.Error(err), zap.Stringer("unit", key))
			record(key, nil, err)
			r.recordFailure(ctx, log, key, err)
			return
		}
		record(key, outcome, nil)

		if outcome.skipped() {
			log.Info("Skipped unit",
				zap.Stringer("unit", key),
				zap.String("reason", string(outcome.skipReason)),
				zap.Int("snapshots", outcome.snapshotCount))
			return
		}
		r.publish(ctx, log, runID, key, outcome)
	}

	if r.cfg.WorkerPoolSize == 1 {
		for _, key := range keys {
			process(key)
		}
	} else {
		// Discovery yields each (external id, source) pair once, so workers never share a unit
		pool := pond.NewPool(r.cfg.WorkerPoolSize, pond.WithQueueSize(len(keys)))
		for _, key := range keys {
			pool.Submit(func() {
				process(key)
			})
		}
		pool.StopAndWait()
	}

	result.FinishedAt = r.clock.Now()

	log.Info("Reconciliation pass completed",
		zap.Int("discovered", result.Discovered),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failures)),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))

	return result, nil
}

// wait blocks on the rate limiter, if any, and refuses to start a unit after cancellation
func (r *reconciler) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("unit not started: %w", err)
	}
	if r.limiter == nil {
		return nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("unit not started: %w", err)
	}
	return nil
}

// reconcileUnit merges, upserts and consumes one unit inside a single transaction.
// Any error rolls the whole unit back, leaving its snapshots pending for the next pass.
func (r *reconciler) reconcileUnit(ctx context.Context, key domain.UnitKey) (*unitOutcome, error) {
	var outcome *unitOutcome

	err := r.store.WithUnitTx(ctx, func(tx store.UnitStore) error {
		snapshots, err := tx.GetPendingSnapshots(ctx, key)
		if err != nil {
			return err
		}

		merged, err := r.merger.Merge(key, snapshots)
		if err != nil {
			return fmt.Errorf("failed to merge snapshots: %w", err)
		}

		o := &unitOutcome{
			skipReason:    merged.SkipReason,
			snapshotCount: len(merged.SnapshotIDs),
			contentHash:   merged.ContentHash,
		}

		if !merged.Skipped() {
			o.upsert, err = r.upserter.Upsert(ctx, tx, merged.Product, merged.ContentHash)
			if err != nil {
				return err
			}
		}

		if err := tx.ClearUnitFailure(ctx, key); err != nil {
			return err
		}
		if err := tx.MarkSnapshotsConsumed(ctx, merged.SnapshotIDs, r.clock.Now()); err != nil {
			return err
		}

		outcome = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// recordFailure stores a rolled back attempt so the next discovery serves other units first.
// Canceled units are not recorded; they did not fail on their own.
func (r *reconciler) recordFailure(ctx context.Context, log *zap.Logger, key domain.UnitKey, cause error) {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return
	}
	if err := r.store.RecordUnitFailure(ctx, key, cause.Error(), r.clock.Now()); err != nil {
		log.Warn("Failed to record unit failure", zap.Error(err), zap.Stringer("unit", key))
	}
}

// publish announces a committed unit. Failures are logged only; the unit is already durable.
func (r *reconciler) publish(ctx context.Context, log *zap.Logger, runID string, key domain.UnitKey, outcome *unitOutcome) {
	event := &domain.ProductReconciledEvent{
		EventID:           ulid.Make().String(),
		RunID:             runID,
		ProductID:         outcome.upsert.ProductID,
		ExternalProductID: key.ExternalProductID,
		SourceName:        key.SourceName,
		Created:           outcome.upsert.Created,
		Changed:           outcome.upsert.Changed,
		ContentHash:       outcome.contentHash,
		SnapshotCount:     outcome.snapshotCount,
		ReconciledAt:      r.clock.Now(),
	}

	if err := r.publisher.PublishProductReconciled(ctx, event); err != nil {
		log.Warn("Failed to publish product reconciled event",
			zap.Error(err),
			zap.Stringer("unit", key),
			zap.Int64("productID", event.ProductID))
		return
	}

	log.Debug("Reconciled unit",
		zap.Stringer("unit", key),
		zap.Int64("productID", event.ProductID),
		zap.Bool("created", event.Created),
		zap.Bool("changed", event.Changed),
		zap.Int("facets", outcome.upsert.LinkedCount))
}
