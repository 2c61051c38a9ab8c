// Package catalog writes merged products and their facets into the canonical store.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/tiperlive/reconciler/internal/domain"
	"github.com/tiperlive/reconciler/internal/store"
	"github.com/tiperlive/reconciler/internal/store/schema"
)

// Dictionary resolves facets to stable category ids
//
//go:generate mockgen -source=dictionary.go -destination=../mocks/dictionary.go -package=mocks -mock_names=Dictionary=MockDictionary
type Dictionary interface {
	// Resolve returns the id of the (type, name) category, creating it when absent.
	// It never commits or rolls back tx.
	Resolve(ctx context.Context, tx store.UnitStore, facet domain.Facet) (int64, error)
}

type dictionary struct{}

// NewDictionary creates a new category dictionary
func NewDictionary() Dictionary {
	return &dictionary{}
}

// Resolve looks the category up, inserts it when missing, and on a unique violation
// re-queries exactly once. A row that is still missing after that is an inconsistency.
func (d *dictionary) Resolve(ctx context.Context, tx store.UnitStore, facet domain.Facet) (int64, error) {
	categoryType, err := toCategoryType(facet.Type)
	if err != nil {
		return 0, err
	}

	category, err := tx.FindCategory(ctx, categoryType, facet.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to find category: %w", err)
	}
	if category != nil {
		return category.ID, nil
	}

	category, err = tx.InsertCategory(ctx, categoryType, facet.Name)
	if err == nil {
		return category.ID, nil
	}
	if !errors.Is(err, store.ErrUniqueViolation) {
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}

	// a concurrent writer created it first
	category, err = tx.FindCategory(ctx, categoryType, facet.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to re-query category after conflict: %w", err)
	}
	if category == nil {
		return 0, fmt.Errorf("%w: %s/%s", domain.ErrCategoryInconsistent, facet.Type, facet.Name)
	}
	return category.ID, nil
}

func toCategoryType(t domain.FacetType) (schema.CategoryType, error) {
	switch t {
	case domain.FacetTypeGenre:
		return schema.CategoryTypeGenre, nil
	case domain.FacetTypePerformer:
		return schema.CategoryTypePerformer, nil
	case domain.FacetTypeSeries:
		return schema.CategoryTypeSeries, nil
	case domain.FacetTypeLabel:
		return schema.CategoryTypeLabel, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidFacetType, t)
	}
}
