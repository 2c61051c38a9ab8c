package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiperlive/reconciler/internal/catalog"
	"github.com/tiperlive/reconciler/internal/domain"
	"github.com/tiperlive/reconciler/internal/mocks"
	"github.com/tiperlive/reconciler/internal/store"
	"github.com/tiperlive/reconciler/internal/store/schema"
)

func mergedProduct() *domain.MergedProduct {
	maker := "Maker A"
	return &domain.MergedProduct{
		ExternalProductID: "X1",
		SourceName:        "duga",
		Title:             "Title",
		MakerName:         &maker,
		Price:             2000,
		Genres:            []string{"Action", "Drama"},
		Performers:        []string{"Hanako"},
		Series:            []string{},
		MainSnapshotID:    11,
	}
}

func TestUpserter_Upsert(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tx := mocks.NewMockUnitStore(ctrl)
	dict := mocks.NewMockDictionary(ctrl)
	product := mergedProduct()

	tx.EXPECT().UpsertProduct(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, p *schema.Product) (*store.UpsertProductResult, error) {
			assert.Equal(t, "X1", p.ExternalProductID)
			assert.Equal(t, "Title", p.Title)
			assert.Equal(t, schema.FacetNames{"Action", "Drama"}, p.Genres)
			assert.Equal(t, int64(11), p.MainSnapshotID)
			assert.Equal(t, "hash", p.ContentHash)
			return &store.UpsertProductResult{ProductID: 42, Created: true, Changed: true}, nil
		})

	ids := map[domain.Facet]int64{
		{Type: domain.FacetTypeGenre, Name: "Action"}:     1,
		{Type: domain.FacetTypeGenre, Name: "Drama"}:      2,
		{Type: domain.FacetTypePerformer, Name: "Hanako"}: 3,
		{Type: domain.FacetTypeLabel, Name: "Maker A"}:    4,
	}
	for facet, id := range ids {
		dict.EXPECT().Resolve(ctx, tx, facet).Return(id, nil)
		tx.EXPECT().LinkProductCategory(ctx, int64(42), id).Return(nil)
	}

	result, err := catalog.NewUpserter(dict).Upsert(ctx, tx, product, "hash")
	require.NoError(t, err)
	assert.Equal(t, &catalog.UpsertResult{ProductID: 42, Created: true, Changed: true, LinkedCount: 4}, result)
}

func TestUpserter_Upsert_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("upsert fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		tx := mocks.NewMockUnitStore(ctrl)
		tx.EXPECT().UpsertProduct(ctx, gomock.Any()).Return(nil, errors.New("boom"))

		_, err := catalog.NewUpserter(mocks.NewMockDictionary(ctrl)).Upsert(ctx, tx, mergedProduct(), "h")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("resolve fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		tx := mocks.NewMockUnitStore(ctrl)
		dict := mocks.NewMockDictionary(ctrl)
		tx.EXPECT().UpsertProduct(ctx, gomock.Any()).Return(&store.UpsertProductResult{ProductID: 1}, nil)
		dict.EXPECT().Resolve(ctx, tx, gomock.Any()).Return(int64(0), domain.ErrCategoryInconsistent)

		_, err := catalog.NewUpserter(dict).Upsert(ctx, tx, mergedProduct(), "h")
		assert.ErrorIs(t, err, domain.ErrCategoryInconsistent)
	})

	t.Run("link fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		tx := mocks.NewMockUnitStore(ctrl)
		dict := mocks.NewMockDictionary(ctrl)
		tx.EXPECT().UpsertProduct(ctx, gomock.Any()).Return(&store.UpsertProductResult{ProductID: 1}, nil)
		dict.EXPECT().Resolve(ctx, tx, gomock.Any()).Return(int64(5), nil)
		tx.EXPECT().LinkProductCategory(ctx, int64(1), int64(5)).Return(errors.New("fk violation"))

		_, err := catalog.NewUpserter(dict).Upsert(ctx, tx, mergedProduct(), "h")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fk violation")
	})
}
