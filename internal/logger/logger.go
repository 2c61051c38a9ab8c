package logger

import (
	"context"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Debug           bool
	SentryDSN       string
	SentryClient    *sentry.Client
	BreadcrumbLevel zapcore.Level
	Tags            map[string]string
}

// Logger is a zap logger that may forward errors to sentry.
// It is built once by the binary and passed to the components that log.
type Logger struct {
	*zap.Logger
	sentryClient *sentry.Client
}

// New builds a logger with optional sentry integration
func New(cfg Config) (*Logger, error) {
	var zapConfig zap.Config
	if cfg.Debug {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	if cfg.SentryDSN == "" && cfg.SentryClient == nil {
		return &Logger{Logger: baseLogger}, nil
	}

	sentryClient := cfg.SentryClient
	if sentryClient == nil {
		sentryClient, err = sentry.NewClient(sentry.ClientOptions{
			Dsn:   cfg.SentryDSN,
			Debug: cfg.Debug,
		})
		if err != nil {
			return nil, err
		}
	}

	breadcrumbLevel := cfg.BreadcrumbLevel
	if breadcrumbLevel == zapcore.InvalidLevel {
		breadcrumbLevel = zapcore.InfoLevel
	}

	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   breadcrumbLevel,
		Tags:              cfg.Tags,
	}, zapsentry.NewSentryClientFromClient(sentryClient))
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger:       zapsentry.AttachCoreToLogger(core, baseLogger),
		sentryClient: sentryClient,
	}, nil
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Flush syncs zap and flushes any buffered sentry events
func (l *Logger) Flush(timeout time.Duration) {
	_ = l.Sync()
	if l.sentryClient != nil {
		l.sentryClient.Flush(timeout)
	}
}

// WithContext attaches the sentry scope carried by ctx, if any
func WithContext(log *zap.Logger, ctx context.Context) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	if ctx == nil {
		return log
	}
	return log.With(zapsentry.Context(ctx))
}
