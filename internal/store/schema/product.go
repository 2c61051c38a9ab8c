package schema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FacetNames is a list of facet names stored as a JSONB array
type FacetNames []string

// Scan implements the sql.Scanner interface for reading from database
func (f *FacetNames) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to scan FacetNames: unexpected type %T", value)
	}

	return json.Unmarshal(bytes, f)
}

// Value implements the driver.Valuer interface for writing to database
func (f FacetNames) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(f))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Product represents the products table - the canonical record reconciled from raw snapshots
type Product struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ExternalProductID is the upstream identifier, unique across products
	ExternalProductID string `gorm:"column:external_product_id;not null;uniqueIndex:idx_products_external_product_id;type:text"`
	// Title is never empty; a sentinel is stored when the source has none
	Title         string  `gorm:"column:title;not null;type:text"`
	OriginalTitle *string `gorm:"column:original_title;type:text"`
	Caption       *string `gorm:"column:caption;type:text"`
	// MakerName is also linked as a label category
	MakerName    *string `gorm:"column:maker_name;type:text"`
	ItemNo       *string `gorm:"column:item_no;type:text"`
	URL          *string `gorm:"column:url;type:text"`
	AffiliateURL *string `gorm:"column:affiliate_url;type:text"`
	Price        float64 `gorm:"column:price;not null;default:0;type:numeric(12,2)"`
	Volume       int     `gorm:"column:volume;not null;default:0"`
	// ReleaseDate is nil when the source date could not be parsed
	ReleaseDate           *time.Time `gorm:"column:release_date;type:date"`
	MainImageURL          *string    `gorm:"column:main_image_url;type:text"`
	OGImageURL            *string    `gorm:"column:og_image_url;type:text"`
	SampleMovieURL        *string    `gorm:"column:sample_movie_url;type:text"`
	SampleMovieCaptureURL *string    `gorm:"column:sample_movie_capture_url;type:text"`
	// Genres, Performers and Series are the union of every snapshot ever reconciled
	Genres     FacetNames `gorm:"column:genres;not null;default:'[]';type:jsonb"`
	Performers FacetNames `gorm:"column:performers;not null;default:'[]';type:jsonb"`
	Series     FacetNames `gorm:"column:series;not null;default:'[]';type:jsonb"`
	SourceName string     `gorm:"column:source_name;not null;type:text"`
	// MainSnapshotID references the newest raw snapshot of the last reconciliation
	MainSnapshotID int64 `gorm:"column:main_snapshot_id;not null;index:idx_products_main_snapshot_id"`
	// ContentHash is the hex SHA-256 of the canonical (JCS) merged product
	ContentHash string    `gorm:"column:content_hash;not null;default:'';type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
