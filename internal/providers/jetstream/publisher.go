package jetstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/tiperlive/reconciler/internal/adapter"
	"github.com/tiperlive/reconciler/internal/domain"
	"github.com/tiperlive/reconciler/internal/messaging"
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type publisher struct {
	nc            adapter.NatsConn
	js            adapter.JetStream
	subjectPrefix string
	codec         adapter.Codec
	log           *zap.Logger
}

// NewPublisher connects to NATS, makes sure the stream exists and returns a publisher for it
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream, codec adapter.Codec, log *zap.Logger) (messaging.Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Error("Disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	prefix := strings.TrimSuffix(cfg.SubjectPrefix, ".")
	if err := js.EnsureStream(ctx, cfg.StreamName, []string{prefix + ".>"}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}

	return &publisher{
		nc:            nc,
		js:            js,
		subjectPrefix: prefix,
		codec:         codec,
		log:           log,
	}, nil
}

// PublishProductReconciled publishes a product reconciled event to NATS JetStream
func (p *publisher) PublishProductReconciled(ctx context.Context, event *domain.ProductReconciledEvent) error {
	p.log.Debug("Publishing product reconciled event",
		zap.String("eventID", event.EventID),
		zap.Int64("productID", event.ProductID))

	data, err := p.codec.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Event id doubles as the JetStream dedup id
	_, err = p.js.Publish(ctx, p.buildSubject(event), data, natsjs.WithMsgID(event.EventID))
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// buildSubject constructs the NATS subject based on the event
func (p *publisher) buildSubject(event *domain.ProductReconciledEvent) string {
	// Format: {prefix}.product.reconciled.{source}
	// e.g., reconciler.product.reconciled.duga
	source := strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(event.SourceName)
	if source == "" {
		source = "unknown"
	}

	return fmt.Sprintf("%s.product.reconciled.%s", p.subjectPrefix, source)
}

// Close drains pending publishes and closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	if err := p.nc.Drain(); err != nil {
		p.log.Warn("Failed to drain NATS connection", zap.Error(err))
		p.nc.Close()
	}
}
