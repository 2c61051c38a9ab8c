package catalog

import (
	"context"
	"fmt"

	"github.com/tiperlive/reconciler/internal/domain"
	"github.com/tiperlive/reconciler/internal/store"
	"github.com/tiperlive/reconciler/internal/store/schema"
)

// UpsertResult reports the product written for one unit
type UpsertResult struct {
	ProductID   int64
	Created     bool
	Changed     bool
	LinkedCount int
}

// Upserter writes a merged product and links its facets
//
//go:generate mockgen -source=upsert.go -destination=../mocks/upsert.go -package=mocks -mock_names=Upserter=MockUpserter
type Upserter interface {
	Upsert(ctx context.Context, tx store.UnitStore, product *domain.MergedProduct, contentHash string) (*UpsertResult, error)
}

type upserter struct {
	dictionary Dictionary
}

// NewUpserter creates a new canonical upserter
func NewUpserter(dictionary Dictionary) Upserter {
	return &upserter{dictionary: dictionary}
}

// Upsert fully overwrites the product keyed by external id, then links every genre,
// performer and series facet plus the maker as a label. Existing links are never removed.
func (u *upserter) Upsert(ctx context.Context, tx store.UnitStore, product *domain.MergedProduct, contentHash string) (*UpsertResult, error) {
	res, err := tx.UpsertProduct(ctx, toSchemaProduct(product, contentHash))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert product: %w", err)
	}

	result := &UpsertResult{
		ProductID: res.ProductID,
		Created:   res.Created,
		Changed:   res.Changed,
	}

	for _, facet := range product.Facets() {
		categoryID, err := u.dictionary.Resolve(ctx, tx, facet)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s facet %q: %w", facet.Type, facet.Name, err)
		}
		if err := tx.LinkProductCategory(ctx, res.ProductID, categoryID); err != nil {
			return nil, fmt.Errorf("failed to link %s facet %q: %w", facet.Type, facet.Name, err)
		}
		result.LinkedCount++
	}

	return result, nil
}

func toSchemaProduct(p *domain.MergedProduct, contentHash string) *schema.Product {
	return &schema.Product{
		ExternalProductID:     p.ExternalProductID,
		Title:                 p.Title,
		OriginalTitle:         p.OriginalTitle,
		Caption:               p.Caption,
		MakerName:             p.MakerName,
		ItemNo:                p.ItemNo,
		URL:                   p.URL,
		AffiliateURL:          p.AffiliateURL,
		Price:                 p.Price,
		Volume:                p.Volume,
		ReleaseDate:           p.ReleaseDate,
		MainImageURL:          p.MainImageURL,
		OGImageURL:            p.OGImageURL,
		SampleMovieURL:        p.SampleMovieURL,
		SampleMovieCaptureURL: p.SampleMovieCaptureURL,
		Genres:                schema.FacetNames(p.Genres),
		Performers:            schema.FacetNames(p.Performers),
		Series:                schema.FacetNames(p.Series),
		SourceName:            p.SourceName,
		MainSnapshotID:        p.MainSnapshotID,
		ContentHash:           contentHash,
	}
}
