package schema

import (
	"time"
)

// CategoryType is the facet dimension of a category
type CategoryType string

const (
	CategoryTypeGenre     CategoryType = "genre"
	CategoryTypePerformer CategoryType = "performer"
	CategoryTypeSeries    CategoryType = "series"
	CategoryTypeLabel     CategoryType = "label"
)

// Category represents the categories table - the shared facet dictionary
type Category struct {
	ID   int64        `gorm:"column:id;primaryKey;autoIncrement"`
	Type CategoryType `gorm:"column:type;not null;type:text;uniqueIndex:idx_categories_type_name,priority:1"`
	Name string       `gorm:"column:name;not null;type:text;uniqueIndex:idx_categories_type_name,priority:2"`
	// CreatedAt is the timestamp when this facet was first referenced
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// ProductCategory represents the product_categories table - links between products and categories.
// Links are never removed by reconciliation.
type ProductCategory struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID  int64     `gorm:"column:product_id;not null;uniqueIndex:idx_product_categories_product_category,priority:1"`
	CategoryID int64     `gorm:"column:category_id;not null;uniqueIndex:idx_product_categories_product_category,priority:2;index:idx_product_categories_category_id"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ProductCategory model
func (ProductCategory) TableName() string {
	return "product_categories"
}
