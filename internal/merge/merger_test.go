package merge_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/tiperlive/reconciler/internal/adapter"
	"github.com/tiperlive/reconciler/internal/domain"
	"github.com/tiperlive/reconciler/internal/merge"
	"github.com/tiperlive/reconciler/internal/store/schema"
)

var key = domain.UnitKey{ExternalProductID: "X1", SourceName: "duga"}

func newMerger(cfg merge.Config) merge.Merger {
	return merge.NewMerger(cfg, adapter.NewCodec())
}

func snapshot(id int64, capturedAt string, payload string) schema.RawSnapshot {
	t, err := time.Parse(time.RFC3339, capturedAt)
	if err != nil {
		panic(err)
	}
	return schema.RawSnapshot{
		ID:                id,
		ExternalProductID: "X1",
		SourceName:        "duga",
		Payload:           datatypes.JSON(payload),
		CapturedAt:        t,
	}
}

func loadFixture(t *testing.T, name string) []schema.RawSnapshot {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	var rows []struct {
		ID         int64           `json:"id"`
		CapturedAt time.Time       `json:"captured_at"`
		Payload    json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &rows))

	snapshots := make([]schema.RawSnapshot, 0, len(rows))
	for _, r := range rows {
		snapshots = append(snapshots, schema.RawSnapshot{
			ID:         r.ID,
			SourceName: "duga",
			Payload:    datatypes.JSON(r.Payload),
			CapturedAt: r.CapturedAt,
		})
	}
	return snapshots
}

func TestMerge_Golden(t *testing.T) {
	result, err := newMerger(merge.Config{}).Merge(key, loadFixture(t, "duga_x1.json"))
	require.NoError(t, err)
	require.False(t, result.Skipped())
	assert.Equal(t, []int64{11, 10}, result.SnapshotIDs)

	out, err := json.MarshalIndent(result.Product, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "duga_x1", append(out, '\n'))
}

func TestMerge_UnionAndMainSelection(t *testing.T) {
	a := snapshot(1, "2024-01-01T00:00:00Z", `{"title": "A", "genres": [{"name": "Action"}]}`)
	b := snapshot(2, "2024-01-02T00:00:00Z", `{"title": "B", "genres": [{"name": "Drama"}]}`)

	for name, input := range map[string][]schema.RawSnapshot{
		"oldest first": {a, b},
		"newest first": {b, a},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := newMerger(merge.Config{}).Merge(key, input)
			require.NoError(t, err)
			require.NotNil(t, result.Product)

			assert.Equal(t, "B", result.Product.Title)
			assert.Equal(t, int64(2), result.Product.MainSnapshotID)
			assert.Equal(t, []string{"Action", "Drama"}, result.Product.Genres)
			assert.Equal(t, []int64{2, 1}, result.SnapshotIDs)
		})
	}
}

func TestMerge_TieBreaksOnLargerID(t *testing.T) {
	a := snapshot(7, "2024-01-01T00:00:00Z", `{"title": "seven"}`)
	b := snapshot(9, "2024-01-01T00:00:00Z", `{"title": "nine"}`)

	result, err := newMerger(merge.Config{}).Merge(key, []schema.RawSnapshot{b, a})
	require.NoError(t, err)
	assert.Equal(t, "nine", result.Product.Title)
	assert.Equal(t, int64(9), result.Product.MainSnapshotID)
}

func TestMerge_UnionEqualsPerSnapshotFacets(t *testing.T) {
	snapshots := []schema.RawSnapshot{
		snapshot(1, "2024-01-01T00:00:00Z", `{"title": "t", "category": [{"data": {"name": "Action"}}], "performer": [{"data": {"name": "Hanako"}}]}`),
		snapshot(2, "2024-01-02T00:00:00Z", `{"item": {"title": "t", "genres": {"genre": [{"name": "Drama"}]}, "actresses": [{"name": "Yuki"}], "series": {"name": "Saga"}}}`),
		snapshot(3, "2024-01-03T00:00:00Z", `{"title": "t", "genres": {"data": [{"name": "Action"}, {"name": "Comedy"}]}}`),
	}

	m := newMerger(merge.Config{})

	want := map[string][]string{}
	for _, s := range snapshots {
		r, err := m.Merge(key, []schema.RawSnapshot{s})
		require.NoError(t, err)
		want["genres"] = append(want["genres"], r.Product.Genres...)
		want["performers"] = append(want["performers"], r.Product.Performers...)
		want["series"] = append(want["series"], r.Product.Series...)
	}

	result, err := m.Merge(key, snapshots)
	require.NoError(t, err)
	assert.ElementsMatch(t, dedupe(want["genres"]), result.Product.Genres)
	assert.ElementsMatch(t, dedupe(want["performers"]), result.Product.Performers)
	assert.ElementsMatch(t, dedupe(want["series"]), result.Product.Series)
	assert.Equal(t, []string{"Action", "Comedy", "Drama"}, result.Product.Genres)
}

func TestMerge_ShapeTolerance(t *testing.T) {
	payloads := []string{
		`{"title": "t", "genres": [{"name": "Action"}, {"name": "Drama"}]}`,
		`{"title": "t", "genres": {"genre": [{"name": "Action"}, {"name": "Drama"}]}}`,
		`{"title": "t", "genres": {"data": [{"name": "Action"}, {"name": "Drama"}]}}`,
		`{"title": "t", "category": [{"data": {"name": "Action"}}, {"data": {"name": "Drama"}}]}`,
		`{"title": "t", "category": [{"data": {"data": {"name": "Drama"}}}, {"data": {"data": {"name": "Action"}}}]}`,
	}

	m := newMerger(merge.Config{})
	for _, p := range payloads {
		t.Run(p, func(t *testing.T) {
			result, err := m.Merge(key, []schema.RawSnapshot{snapshot(1, "2024-01-01T00:00:00Z", p)})
			require.NoError(t, err)
			assert.Equal(t, []string{"Action", "Drama"}, result.Product.Genres)
		})
	}
}

func TestMerge_EmptyExternalID(t *testing.T) {
	snapshots := []schema.RawSnapshot{
		snapshot(3, "2024-01-01T00:00:00Z", `{"title": "t"}`),
		snapshot(4, "2024-01-02T00:00:00Z", `{"title": "t"}`),
	}

	for _, id := range []string{"", "   "} {
		result, err := newMerger(merge.Config{}).Merge(domain.UnitKey{ExternalProductID: id, SourceName: "duga"}, snapshots)
		require.NoError(t, err)
		assert.True(t, result.Skipped())
		assert.Equal(t, domain.SkipReasonEmptyExternalID, result.SkipReason)
		assert.Nil(t, result.Product)
		assert.Equal(t, []int64{4, 3}, result.SnapshotIDs)
	}
}

func TestMerge_EmptyTitlePolicy(t *testing.T) {
	snapshots := []schema.RawSnapshot{snapshot(1, "2024-01-01T00:00:00Z", `{"title": "  ", "makername": "M"}`)}

	t.Run("default sentinel", func(t *testing.T) {
		result, err := newMerger(merge.Config{}).Merge(key, snapshots)
		require.NoError(t, err)
		require.NotNil(t, result.Product)
		assert.Equal(t, merge.DefaultTitleSentinel, result.Product.Title)
	})

	t.Run("custom sentinel", func(t *testing.T) {
		result, err := newMerger(merge.Config{
			EmptyTitlePolicy: merge.EmptyTitleSentinel,
			TitleSentinel:    "タイトル未設定",
		}).Merge(key, snapshots)
		require.NoError(t, err)
		assert.Equal(t, "タイトル未設定", result.Product.Title)
	})

	t.Run("skip", func(t *testing.T) {
		result, err := newMerger(merge.Config{EmptyTitlePolicy: merge.EmptyTitleSkip}).Merge(key, snapshots)
		require.NoError(t, err)
		assert.Equal(t, domain.SkipReasonEmptyTitle, result.SkipReason)
		assert.Nil(t, result.Product)
		assert.Equal(t, []int64{1}, result.SnapshotIDs)
	})
}

func TestMerge_ScalarParsing(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, p *domain.MergedProduct)
	}{
		{
			name:    "price with separator",
			payload: `{"title": "t", "price": "1,500円"}`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				assert.Equal(t, 1500.0, p.Price)
			},
		},
		{
			name:    "price range",
			payload: `{"title": "t", "price": "～2,000円"}`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				assert.Equal(t, 2000.0, p.Price)
			},
		},
		{
			name:    "unparseable price and date",
			payload: `{"title": "t", "price": "free", "release_date": "someday"}`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				assert.Equal(t, 0.0, p.Price)
				assert.Nil(t, p.ReleaseDate)
			},
		},
		{
			name:    "non-finite prices are replaced",
			payload: `{"title": "t", "price": "Infinity円", "volume": "NaN"}`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				assert.Equal(t, 0.0, p.Price)
				assert.Equal(t, 0, p.Volume)
			},
		},
		{
			name:    "nan price",
			payload: `{"title": "t", "price": "NaN"}`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				assert.Equal(t, 0.0, p.Price)
			},
		},
		{
			name:    "price beyond the price column",
			payload: `{"title": "t", "price": "99,999,999,999円"}`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				assert.Equal(t, 0.0, p.Price)
			},
		},
		{
			name:    "largest storable price is kept",
			payload: `{"title": "t", "price": "9,999,999,999.99円"}`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				assert.Equal(t, 9999999999.99, p.Price)
			},
		},
		{
			name:    "volume beyond the volume column",
			payload: `{"title": "t", "volume": 99999999999}`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				assert.Equal(t, 0, p.Volume)
			},
		},
		{
			name:    "volume string beyond the volume column",
			payload: `{"title": "t", "volume": "-3000000000"}`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				assert.Equal(t, 0, p.Volume)
			},
		},
		{
			name:    "date falls back to opendate",
			payload: `{"title": "t", "release_date": "", "opendate": "2023/12/24"}`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				require.NotNil(t, p.ReleaseDate)
				assert.Equal(t, "2023-12-24", p.ReleaseDate.Format("2006-01-02"))
			},
		},
		{
			name:    "non object payload",
			payload: `[1, 2, 3]`,
			check: func(t *testing.T, p *domain.MergedProduct) {
				assert.Equal(t, merge.DefaultTitleSentinel, p.Title)
				assert.Empty(t, p.Genres)
				assert.Nil(t, p.MakerName)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newMerger(merge.Config{}).Merge(key, []schema.RawSnapshot{snapshot(1, "2024-01-01T00:00:00Z", tt.payload)})
			require.NoError(t, err)
			require.NotNil(t, result.Product)
			tt.check(t, result.Product)
		})
	}
}

func TestMerge_ContentHash(t *testing.T) {
	m := newMerger(merge.Config{})

	first, err := m.Merge(key, []schema.RawSnapshot{snapshot(1, "2024-01-01T00:00:00Z", `{"title": "t", "price": 100}`)})
	require.NoError(t, err)
	refetched, err := m.Merge(key, []schema.RawSnapshot{snapshot(2, "2024-01-02T00:00:00Z", `{"title": "t", "price": "100円"}`)})
	require.NoError(t, err)
	changed, err := m.Merge(key, []schema.RawSnapshot{snapshot(3, "2024-01-03T00:00:00Z", `{"title": "t", "price": 200}`)})
	require.NoError(t, err)

	assert.Len(t, first.ContentHash, 64)
	assert.Equal(t, first.ContentHash, refetched.ContentHash)
	assert.NotEqual(t, first.ContentHash, changed.ContentHash)
}

func TestMerge_NonFinitePriceStillHashes(t *testing.T) {
	m := newMerger(merge.Config{})

	for _, price := range []string{`"NaN"`, `"Infinity円"`, `"-Inf"`} {
		result, err := m.Merge(key, []schema.RawSnapshot{snapshot(1, "2024-01-01T00:00:00Z", `{"title": "t", "price": `+price+`}`)})
		require.NoError(t, err, price)
		require.NotNil(t, result.Product, price)
		assert.Len(t, result.ContentHash, 64, price)
	}
}

func TestMerge_NoSnapshots(t *testing.T) {
	result, err := newMerger(merge.Config{}).Merge(key, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SkipReasonNoPending, result.SkipReason)
	assert.Empty(t, result.SnapshotIDs)
}

func dedupe(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
