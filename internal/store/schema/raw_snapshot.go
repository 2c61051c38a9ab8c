package schema

import (
	"time"

	"gorm.io/datatypes"
)

// RawSnapshot represents the raw_snapshots table - one upstream API response for one product at one point in time
type RawSnapshot struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ExternalProductID is the identifier assigned by the upstream source (may be blank for malformed payloads)
	ExternalProductID string `gorm:"column:external_product_id;not null;default:'';type:text;index:idx_raw_snapshots_pending,priority:1,where:consumed_at IS NULL"`
	// SourceName identifies the upstream catalog (e.g., "duga")
	SourceName string `gorm:"column:source_name;not null;type:text;index:idx_raw_snapshots_pending,priority:2,where:consumed_at IS NULL"`
	// Payload is the raw upstream document
	Payload datatypes.JSON `gorm:"column:payload;not null;type:jsonb"`
	// CapturedAt is when the upstream document was fetched
	CapturedAt time.Time `gorm:"column:captured_at;not null;default:now();type:timestamptz"`
	// ConsumedAt is set once the snapshot has been reconciled; nil means pending
	ConsumedAt *time.Time `gorm:"column:consumed_at;type:timestamptz"`
}

// TableName specifies the table name for the RawSnapshot model
func (RawSnapshot) TableName() string {
	return "raw_snapshots"
}
