package messaging

import (
	"context"

	"github.com/tiperlive/reconciler/internal/domain"
)

// Publisher defines the interface for publishing reconciliation events to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishProductReconciled announces a committed product reconciliation
	PublishProductReconciled(ctx context.Context, event *domain.ProductReconciledEvent) error
	// Close closes the connection
	Close()
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event, used when no broker is configured
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishProductReconciled(context.Context, *domain.ProductReconciledEvent) error {
	return nil
}

func (nopPublisher) Close() {}
