package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tiperlive/reconciler/internal/adapter"
	"github.com/tiperlive/reconciler/internal/catalog"
	"github.com/tiperlive/reconciler/internal/config"
	"github.com/tiperlive/reconciler/internal/logger"
	"github.com/tiperlive/reconciler/internal/merge"
	"github.com/tiperlive/reconciler/internal/messaging"
	"github.com/tiperlive/reconciler/internal/providers/jetstream"
	"github.com/tiperlive/reconciler/internal/reconciler"
	"github.com/tiperlive/reconciler/internal/store"
)

// app holds the wired dependencies shared by every subcommand
type app struct {
	cfg       *config.ReconcilerConfig
	log       *logger.Logger
	clock     adapter.Clock
	codec     adapter.Codec
	db        *gorm.DB
	store     store.Store
	publisher messaging.Publisher
}

// newApp loads configuration, builds the logger and connects to the database.
// The publisher is only connected when withPublisher is set.
func newApp(ctx context.Context, opts *rootOptions, withPublisher bool) (*app, error) {
	config.ChdirRepoRoot()
	cfg, err := config.LoadReconcilerConfig(opts.configFile, opts.envPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.debug {
		cfg.Debug = true
	}

	log, err := logger.New(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "reconciler",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		clock:     adapter.NewClock(),
		codec:     adapter.NewCodec(),
		publisher: messaging.NewNopPublisher(),
	}

	a.db, err = openDatabase(ctx, cfg.Database, log.Logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store.NewPGStore(a.db, store.Options{LockTimeout: cfg.Reconcile.LockTimeout})

	if withPublisher && cfg.NATS.URL != "" {
		a.publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), a.codec, log.Logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		log.Info("Connected to NATS", zap.String("stream", cfg.NATS.StreamName))
	}

	return a, nil
}

// runner wires the reconciliation driver from the loaded configuration
func (a *app) runner() reconciler.Runner {
	merger := merge.NewMerger(merge.Config{
		EmptyTitlePolicy: merge.EmptyTitlePolicy(a.cfg.Reconcile.EmptyTitlePolicy),
		TitleSentinel:    a.cfg.Reconcile.TitleSentinel,
	}, a.codec)
	upserter := catalog.NewUpserter(catalog.NewDictionary())

	return reconciler.New(reconciler.Config{
		BatchSize:      a.cfg.Reconcile.BatchSize,
		WorkerPoolSize: a.cfg.Reconcile.WorkerPoolSize,
		UnitsPerSecond: a.cfg.Reconcile.UnitsPerSecond,
	}, a.store, merger, upserter, a.publisher, a.clock, a.log.Logger)
}

// close releases the publisher, the database and flushes the logger
func (a *app) close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.db != nil {
		closeDatabase(a.db)
	}
	a.log.Flush(2 * time.Second)
}

// openDatabase connects with retries and applies the pool settings
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var db *gorm.DB
	var sqlDB *sql.DB

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = time.Minute

	operation := func() error {
		conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return err
		}
		connDB, err := conn.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := connDB.PingContext(ctx); err != nil {
			_ = connDB.Close()
			return err
		}
		db, sqlDB = conn, connDB
		return nil
	}

	notify := func(err error, next time.Duration) {
		log.Warn("Database not reachable, retrying",
			zap.Error(err),
			zap.String("host", cfg.Host),
			zap.Duration("next_retry_in", next))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPoolSettings(db, sqlDB, cfg); err != nil {
		return nil, err
	}
	log.Info("Connected to database",
		zap.String("host", cfg.Host),
		zap.String("dbname", cfg.DBName),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return db, nil
}

// applyPoolSettings configures the pool of a freshly opened database and closes conn on failure
func applyPoolSettings(db *gorm.DB, conn io.Closer, cfg config.DatabaseConfig) error {
	if err := store.ConfigureConnectionPool(db, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to configure connection pool: %w", err)
	}
	return nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
