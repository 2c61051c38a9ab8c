package merge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/tiperlive/reconciler/internal/adapter"
	"github.com/tiperlive/reconciler/internal/domain"
	"github.com/tiperlive/reconciler/internal/extract"
	"github.com/tiperlive/reconciler/internal/normalize"
	"github.com/tiperlive/reconciler/internal/store/schema"
)

// EmptyTitlePolicy decides what happens to a unit whose main snapshot has no title
type EmptyTitlePolicy string

const (
	// EmptyTitleSentinel keeps the product and stores the configured sentinel title
	EmptyTitleSentinel EmptyTitlePolicy = "sentinel"
	// EmptyTitleSkip consumes the snapshots without writing a product
	EmptyTitleSkip EmptyTitlePolicy = "skip"

	DefaultTitleSentinel = "Untitled"
)

// IsValidEmptyTitlePolicy checks if a policy is known
func IsValidEmptyTitlePolicy(p EmptyTitlePolicy) bool {
	return p == EmptyTitleSentinel || p == EmptyTitleSkip
}

// Config holds merge policy settings
type Config struct {
	EmptyTitlePolicy EmptyTitlePolicy
	TitleSentinel    string
}

// facetSource is a payload key holding a facet collection and its wrapped-list inner key
type facetSource struct {
	key   string
	inner string
}

var (
	genreSources = []facetSource{
		{key: "genres", inner: "genre"},
		{key: "category", inner: "category"},
	}
	performerSources = []facetSource{
		{key: "actresses", inner: "actress"},
		{key: "performer", inner: "performer"},
	}

	originalTitleKeys = []string{"original_title", "originaltitle"}
	releaseDateKeys   = []string{"release_date", "releasedate", "opendate"}
	makerNameKeys     = []string{"maker_name", "makername"}
	itemNoKeys        = []string{"item_no", "itemno"}
	affiliateURLKeys  = []string{"affiliate_url", "affiliateurl"}
)

// Result is the outcome of merging one unit
type Result struct {
	// Product is nil when the unit is skipped
	Product    *domain.MergedProduct
	SkipReason domain.SkipReason
	// SnapshotIDs are every snapshot of the unit, consumed whether or not the unit is skipped
	SnapshotIDs []int64
	// ContentHash is the hex SHA-256 of the canonical product JSON, excluding the main snapshot reference
	ContentHash string
}

// Skipped reports whether the unit produced no product
func (r *Result) Skipped() bool {
	return r.SkipReason != domain.SkipReasonNone
}

// Merger merges the pending snapshots of one unit into a canonical product
//
//go:generate mockgen -source=merger.go -destination=../mocks/merger.go -package=mocks -mock_names=Merger=MockMerger
type Merger interface {
	Merge(key domain.UnitKey, snapshots []schema.RawSnapshot) (*Result, error)
}

type merger struct {
	cfg   Config
	codec adapter.Codec
}

// NewMerger creates a new snapshot merger
func NewMerger(cfg Config, codec adapter.Codec) Merger {
	if !IsValidEmptyTitlePolicy(cfg.EmptyTitlePolicy) {
		cfg.EmptyTitlePolicy = EmptyTitleSentinel
	}
	if strings.TrimSpace(cfg.TitleSentinel) == "" {
		cfg.TitleSentinel = DefaultTitleSentinel
	}
	return &merger{cfg: cfg, codec: codec}
}

// Merge selects the newest snapshot as main and unions facets across all of them
func (m *merger) Merge(key domain.UnitKey, snapshots []schema.RawSnapshot) (*Result, error) {
	ordered := SortNewestFirst(snapshots)

	result := &Result{SnapshotIDs: make([]int64, 0, len(ordered))}
	for _, s := range ordered {
		result.SnapshotIDs = append(result.SnapshotIDs, s.ID)
	}

	if len(ordered) == 0 {
		result.SkipReason = domain.SkipReasonNoPending
		return result, nil
	}

	externalID := strings.TrimSpace(key.ExternalProductID)
	if externalID == "" {
		result.SkipReason = domain.SkipReasonEmptyExternalID
		return result, nil
	}

	items := make([]any, len(ordered))
	for i, s := range ordered {
		items[i] = m.item(s)
	}
	main := items[0]

	title := extract.CleanString(extract.Get(main, "title"))
	if title == nil {
		if m.cfg.EmptyTitlePolicy == EmptyTitleSkip {
			result.SkipReason = domain.SkipReasonEmptyTitle
			return result, nil
		}
		sentinel := m.cfg.TitleSentinel
		title = &sentinel
	}

	product := &domain.MergedProduct{
		ExternalProductID: externalID,
		SourceName:        key.SourceName,
		Title:             *title,
		OriginalTitle:     firstString(main, originalTitleKeys),
		Caption:           extract.CleanString(extract.Get(main, "caption")),
		MakerName:         firstString(main, makerNameKeys),
		ItemNo:            firstString(main, itemNoKeys),
		URL:               extract.CleanString(extract.Get(main, "url")),
		AffiliateURL:      firstString(main, affiliateURLKeys),
		Price:             storablePrice(extract.ParseCurrency(extract.Get(main, "price"))),
		Volume:            storableVolume(extract.ToInt(extract.Get(main, "volume"), 0)),
		ReleaseDate:       firstDate(main, releaseDateKeys),
		MainSnapshotID:    ordered[0].ID,
	}
	product.SampleMovieURL, product.SampleMovieCaptureURL = normalize.SampleMovie(main)

	var primary, og []string
	var genres, performers, series []string
	for _, item := range items {
		primary = append(primary, normalize.PrimaryImageCandidates(item)...)
		og = append(og, normalize.OGImageCandidates(item)...)
		genres = append(genres, facetNames(item, genreSources)...)
		performers = append(performers, facetNames(item, performerSources)...)
		series = append(series, normalize.SeriesNames(extract.Get(item, "series"))...)
	}
	product.MainImageURL = normalize.SelectFirst(primary)
	product.OGImageURL = normalize.SelectFirst(og)
	product.Genres = union(genres)
	product.Performers = union(performers)
	product.Series = union(series)

	hash, err := m.contentHash(product)
	if err != nil {
		return nil, err
	}

	result.Product = product
	result.ContentHash = hash
	return result, nil
}

// item decodes a payload and unwraps the {"item": {...}} envelope of newer API versions
func (m *merger) item(s schema.RawSnapshot) any {
	var payload any
	if len(s.Payload) == 0 || m.codec.Unmarshal(s.Payload, &payload) != nil {
		return map[string]any{}
	}

	root, ok := payload.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	if inner, ok := root["item"].(map[string]any); ok {
		return inner
	}
	return root
}

func (m *merger) contentHash(p *domain.MergedProduct) (string, error) {
	hashable := *p
	hashable.MainSnapshotID = 0

	canonical, err := m.codec.Canonical(&hashable)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize merged product: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// products.price is NUMERIC(12,2) and products.volume is INTEGER
const maxStorablePrice = 9_999_999_999.99

// storablePrice replaces prices that would overflow the price column with 0
func storablePrice(p float64) float64 {
	if math.Abs(math.Round(p*100)/100) > maxStorablePrice {
		return 0
	}
	return p
}

// storableVolume replaces volumes outside the INTEGER range with 0
func storableVolume(v int) int {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0
	}
	return v
}

// SortNewestFirst orders snapshots by captured-at descending, then id descending
func SortNewestFirst(snapshots []schema.RawSnapshot) []schema.RawSnapshot {
	ordered := slices.Clone(snapshots)
	slices.SortStableFunc(ordered, func(a, b schema.RawSnapshot) int {
		if c := b.CapturedAt.Compare(a.CapturedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		default:
			return 0
		}
	})
	return ordered
}

func facetNames(item any, sources []facetSource) []string {
	var names []string
	for _, src := range sources {
		_, found := normalize.Facets(extract.Get(item, src.key), src.inner)
		names = append(names, found...)
	}
	return names
}

func firstString(item any, keys []string) *string {
	for _, key := range keys {
		if s := extract.CleanString(extract.Get(item, key)); s != nil {
			return s
		}
	}
	return nil
}

func firstDate(item any, keys []string) *time.Time {
	for _, key := range keys {
		if t, ok := extract.ParseDate(extract.Get(item, key)); ok {
			return &t
		}
	}
	return nil
}

// union returns the sorted set of values
func union(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
