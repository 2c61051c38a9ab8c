package schema

import "time"

// UnitFailure represents the unit_failures table - the last failed reconciliation of an
// (external product id, source) unit. The row is removed when the unit next commits.
type UnitFailure struct {
	// ExternalProductID and SourceName identify the unit
	ExternalProductID string `gorm:"column:external_product_id;primaryKey;type:text"`
	SourceName        string `gorm:"column:source_name;primaryKey;type:text"`
	// FailedAttempts counts consecutive failed attempts
	FailedAttempts int `gorm:"column:failed_attempts;not null;default:1"`
	// LastError contains the error message of the last failed attempt
	LastError string `gorm:"column:last_error;not null;default:'';type:text"`
	// LastFailedAt is the timestamp of the last failed attempt
	LastFailedAt time.Time `gorm:"column:last_failed_at;not null;type:timestamptz"`
}

// TableName specifies the table name for the UnitFailure model
func (UnitFailure) TableName() string {
	return "unit_failures"
}
