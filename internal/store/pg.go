package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tiperlive/reconciler/internal/domain"
	"github.com/tiperlive/reconciler/internal/store/schema"
)

// productUpdateColumns are overwritten when a product already exists; created_at is kept
var productUpdateColumns = []string{
	"title",
	"original_title",
	"caption",
	"maker_name",
	"item_no",
	"url",
	"affiliate_url",
	"price",
	"volume",
	"release_date",
	"main_image_url",
	"og_image_url",
	"sample_movie_url",
	"sample_movie_capture_url",
	"genres",
	"performers",
	"series",
	"source_name",
	"main_snapshot_id",
	"content_hash",
	"updated_at",
}

// maxFailureCauseLength bounds the error text kept per failed unit
const maxFailureCauseLength = 2000

// Options tunes the PostgreSQL store
type Options struct {
	// LockTimeout bounds how long a unit transaction waits on row locks; zero keeps the server default
	LockTimeout time.Duration
}

type pgStore struct {
	db   *gorm.DB
	opts Options
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB, opts ...Options) Store {
	s := &pgStore{db: db}
	if len(opts) > 0 {
		s.opts = opts[0]
	}
	return s
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	// Set defaults if not provided
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// GetPendingUnits returns distinct pending (external id, source) pairs.
// Units with a recorded failure sort after the rest, least recently failed first.
func (s *pgStore) GetPendingUnits(ctx context.Context, limit int) ([]domain.UnitKey, error) {
	var rows []struct {
		ExternalProductID string
		SourceName        string
	}
	err := s.db.WithContext(ctx).
		Table("raw_snapshots AS rs").
		Select("rs.external_product_id, rs.source_name").
		Joins("LEFT JOIN unit_failures AS uf ON uf.external_product_id = rs.external_product_id AND uf.source_name = rs.source_name").
		Where("rs.consumed_at IS NULL").
		Group("rs.external_product_id, rs.source_name, uf.last_failed_at").
		Order("uf.last_failed_at ASC NULLS FIRST, MIN(rs.captured_at) ASC, MIN(rs.id) ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending units: %w", err)
	}

	units := make([]domain.UnitKey, 0, len(rows))
	for _, r := range rows {
		units = append(units, domain.UnitKey{
			ExternalProductID: r.ExternalProductID,
			SourceName:        r.SourceName,
		})
	}
	return units, nil
}

// WithUnitTx runs fn inside a transaction scoped to one unit of work.
// The transaction is committed when fn returns nil and rolled back on error or panic.
func (s *pgStore) WithUnitTx(ctx context.Context, fn func(tx UnitStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.setLockTimeout(tx); err != nil {
			return err
		}
		return fn(&pgStore{db: tx, opts: s.opts})
	})
}

func (s *pgStore) setLockTimeout(tx *gorm.DB) error {
	if s.opts.LockTimeout <= 0 {
		return nil
	}
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.opts.LockTimeout.Milliseconds())
	if err := tx.Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}
	return nil
}

// RecordUnitFailure upserts the failure row of a unit, counting consecutive attempts
func (s *pgStore) RecordUnitFailure(ctx context.Context, key domain.UnitKey, cause string, failedAt time.Time) error {
	if len(cause) > maxFailureCauseLength {
		cause = cause[:maxFailureCauseLength]
	}
	failure := schema.UnitFailure{
		ExternalProductID: key.ExternalProductID,
		SourceName:        key.SourceName,
		FailedAttempts:    1,
		LastError:         strings.ToValidUTF8(cause, ""),
		LastFailedAt:      failedAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.setLockTimeout(tx); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_product_id"}, {Name: "source_name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"failed_attempts": gorm.Expr("unit_failures.failed_attempts + 1"),
				"last_error":      gorm.Expr("EXCLUDED.last_error"),
				"last_failed_at":  gorm.Expr("EXCLUDED.last_failed_at"),
			}),
		}).Create(&failure).Error
	})
	if err != nil {
		return fmt.Errorf("failed to record unit failure: %w", err)
	}
	return nil
}

// CreateRawSnapshot appends a raw snapshot
func (s *pgStore) CreateRawSnapshot(ctx context.Context, input CreateRawSnapshotInput) (*schema.RawSnapshot, error) {
	snapshot := schema.RawSnapshot{
		ExternalProductID: input.ExternalProductID,
		SourceName:        input.SourceName,
		Payload:           datatypes.JSON(input.Payload),
		CapturedAt:        input.CapturedAt,
	}
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}

	if err := s.db.WithContext(ctx).Create(&snapshot).Error; err != nil {
		return nil, fmt.Errorf("failed to create raw snapshot: %w", err)
	}
	return &snapshot, nil
}

// GetProductByExternalID retrieves a product by its external id
func (s *pgStore) GetProductByExternalID(ctx context.Context, externalProductID string) (*schema.Product, error) {
	var product schema.Product
	err := s.db.WithContext(ctx).Where("external_product_id = ?", externalProductID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// GetProductCategories retrieves the categories linked to a product, ordered by type then name
func (s *pgStore) GetProductCategories(ctx context.Context, productID int64) ([]schema.Category, error) {
	var categories []schema.Category
	err := s.db.WithContext(ctx).
		Joins("JOIN product_categories ON product_categories.category_id = categories.id").
		Where("product_categories.product_id = ?", productID).
		Order("categories.type ASC, categories.name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get product categories: %w", err)
	}
	return categories, nil
}

// CountPendingSnapshots counts snapshots not yet consumed
func (s *pgStore) CountPendingSnapshots(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.RawSnapshot{}).Where("consumed_at IS NULL").Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending snapshots: %w", err)
	}
	return count, nil
}

// GetPendingSnapshots locks and returns the unconsumed snapshots of a unit, newest first
func (s *pgStore) GetPendingSnapshots(ctx context.Context, key domain.UnitKey) ([]schema.RawSnapshot, error) {
	var snapshots []schema.RawSnapshot
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_product_id = ? AND source_name = ? AND consumed_at IS NULL", key.ExternalProductID, key.SourceName).
		Order("captured_at DESC, id DESC").
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending snapshots: %w", err)
	}
	return snapshots, nil
}

// UpsertProduct inserts or fully overwrites the product keyed by external id
func (s *pgStore) UpsertProduct(ctx context.Context, product *schema.Product) (*UpsertProductResult, error) {
	// Lock the existing row so concurrent reconciliations of the same external id serialize
	var existing schema.Product
	found := true
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "content_hash").
		Where("external_product_id = ?", product.ExternalProductID).
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to lock product: %w", err)
		}
		found = false
	}

	product.ID = 0
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_product_id"}},
			DoUpdates: clause.AssignmentColumns(productUpdateColumns),
		}).
		Create(product).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert product: %w", err)
	}

	if product.ID == 0 {
		if err := s.db.WithContext(ctx).
			Select("id").
			Where("external_product_id = ?", product.ExternalProductID).
			First(product).Error; err != nil {
			return nil, fmt.Errorf("failed to get upserted product id: %w", err)
		}
	}

	return &UpsertProductResult{
		ProductID: product.ID,
		Created:   !found,
		Changed:   !found || existing.ContentHash != product.ContentHash,
	}, nil
}

// FindCategory returns the category for (type, name), or nil when absent
func (s *pgStore) FindCategory(ctx context.Context, categoryType schema.CategoryType, name string) (*schema.Category, error) {
	var category schema.Category
	err := s.db.WithContext(ctx).
		Where("type = ? AND name = ?", categoryType, name).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &category, nil
}

// InsertCategory inserts a category inside a savepoint so that a unique violation
// leaves the enclosing transaction usable for the follow-up lookup
func (s *pgStore) InsertCategory(ctx context.Context, categoryType schema.CategoryType, name string) (*schema.Category, error) {
	category := schema.Category{Type: categoryType, Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&category).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category %s/%s", ErrUniqueViolation, categoryType, name)
		}
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}
	return &category, nil
}

// LinkProductCategory links a product to a category if the link is absent
func (s *pgStore) LinkProductCategory(ctx context.Context, productID, categoryID int64) error {
	link := schema.ProductCategory{ProductID: productID, CategoryID: categoryID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "category_id"}},
			DoNothing: true,
		}).
		Create(&link).Error
	if err != nil {
		return fmt.Errorf("failed to link product category: %w", err)
	}
	return nil
}

// MarkSnapshotsConsumed stamps consumed_at on every given snapshot that is still pending.
// Fewer affected rows than ids means another writer consumed part of the unit.
func (s *pgStore) MarkSnapshotsConsumed(ctx context.Context, snapshotIDs []int64, consumedAt time.Time) error {
	if len(snapshotIDs) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).
		Model(&schema.RawSnapshot{}).
		Where("id IN ? AND consumed_at IS NULL", snapshotIDs).
		Update("consumed_at", consumedAt)
	if result.Error != nil {
		return fmt.Errorf("failed to mark snapshots consumed: %w", result.Error)
	}
	if result.RowsAffected != int64(len(snapshotIDs)) {
		return fmt.Errorf("%w: marked %d of %d snapshots", domain.ErrSnapshotAlreadyConsumed, result.RowsAffected, len(snapshotIDs))
	}
	return nil
}

// ClearUnitFailure deletes the failure row of a unit
func (s *pgStore) ClearUnitFailure(ctx context.Context, key domain.UnitKey) error {
	err := s.db.WithContext(ctx).
		Where("external_product_id = ? AND source_name = ?", key.ExternalProductID, key.SourceName).
		Delete(&schema.UnitFailure{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear unit failure: %w", err)
	}
	return nil
}
