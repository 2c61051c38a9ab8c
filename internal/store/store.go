package store

import (
	"context"
	"time"

	"github.com/tiperlive/reconciler/internal/domain"
	"github.com/tiperlive/reconciler/internal/store/schema"
)

// CreateRawSnapshotInput represents the data needed to append a raw snapshot
type CreateRawSnapshotInput struct {
	ExternalProductID string
	SourceName        string
	Payload           []byte
	CapturedAt        time.Time
}

// UpsertProductResult reports how an upsert affected the products table
type UpsertProductResult struct {
	ProductID int64
	// Created is true when no product existed for the external id
	Created bool
	// Changed is true when the content hash differs from the stored one
	Changed bool
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore,UnitStore=MockUnitStore
type Store interface {
	// GetPendingUnits returns distinct (external id, source) pairs with unconsumed snapshots.
	// Units without a recorded failure come first, oldest pending first; failed units follow, least recently failed first.
	GetPendingUnits(ctx context.Context, limit int) ([]domain.UnitKey, error)
	// RecordUnitFailure records a rolled back attempt of a unit so discovery can rotate it behind other work
	RecordUnitFailure(ctx context.Context, key domain.UnitKey, cause string, failedAt time.Time) error
	// WithUnitTx runs fn inside one transaction, committing when fn returns nil and rolling back otherwise
	WithUnitTx(ctx context.Context, fn func(tx UnitStore) error) error
	// CreateRawSnapshot appends a raw snapshot
	CreateRawSnapshot(ctx context.Context, input CreateRawSnapshotInput) (*schema.RawSnapshot, error)
	// GetProductByExternalID retrieves a product by its external id
	GetProductByExternalID(ctx context.Context, externalProductID string) (*schema.Product, error)
	// GetProductCategories retrieves the categories linked to a product
	GetProductCategories(ctx context.Context, productID int64) ([]schema.Category, error)
	// CountPendingSnapshots counts snapshots not yet consumed
	CountPendingSnapshots(ctx context.Context) (int64, error)
}

// UnitStore defines the operations available inside one unit-of-work transaction
type UnitStore interface {
	// GetPendingSnapshots locks and returns the unconsumed snapshots of a unit, newest first
	GetPendingSnapshots(ctx context.Context, key domain.UnitKey) ([]schema.RawSnapshot, error)
	// UpsertProduct inserts or fully overwrites the product keyed by external id
	UpsertProduct(ctx context.Context, product *schema.Product) (*UpsertProductResult, error)
	// FindCategory returns the category for (type, name), or nil when absent
	FindCategory(ctx context.Context, categoryType schema.CategoryType, name string) (*schema.Category, error)
	// InsertCategory inserts a category, returning ErrUniqueViolation when (type, name) already exists
	InsertCategory(ctx context.Context, categoryType schema.CategoryType, name string) (*schema.Category, error)
	// LinkProductCategory links a product to a category if the link is absent
	LinkProductCategory(ctx context.Context, productID, categoryID int64) error
	// MarkSnapshotsConsumed stamps consumed_at on every given snapshot that is still pending
	MarkSnapshotsConsumed(ctx context.Context, snapshotIDs []int64, consumedAt time.Time) error
	// ClearUnitFailure forgets the recorded failure of a unit, if any
	ClearUnitFailure(ctx context.Context, key domain.UnitKey) error
}
