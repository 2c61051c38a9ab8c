package domain

import (
	"fmt"
	"time"
)

// FacetType represents the category dimension a facet belongs to
type FacetType string

const (
	FacetTypeGenre     FacetType = "genre"
	FacetTypePerformer FacetType = "performer"
	FacetTypeSeries    FacetType = "series"
	FacetTypeLabel     FacetType = "label"
)

// IsValidFacetType checks if a facet type is valid
func IsValidFacetType(t FacetType) bool {
	return t == FacetTypeGenre ||
		t == FacetTypePerformer ||
		t == FacetTypeSeries ||
		t == FacetTypeLabel
}

// UnitKey identifies one unit of work: an external product id within one source
type UnitKey struct {
	ExternalProductID string `json:"external_product_id"`
	SourceName        string `json:"source_name"`
}

func (k UnitKey) String() string {
	return fmt.Sprintf("%s:%s", k.SourceName, k.ExternalProductID)
}

// SkipReason explains why a unit was consumed without a product write
type SkipReason string

const (
	SkipReasonNone            SkipReason = ""
	SkipReasonEmptyExternalID SkipReason = "empty_external_id"
	SkipReasonEmptyTitle      SkipReason = "empty_title"
	SkipReasonNoPending       SkipReason = "no_pending_snapshots"
)

// Facet is a named value within a facet type
type Facet struct {
	Type FacetType `json:"type"`
	Name string    `json:"name"`
}

// MergedProduct is the canonical view of a unit after merging all of its pending snapshots
type MergedProduct struct {
	ExternalProductID     string     `json:"external_product_id"`
	SourceName            string     `json:"source_name"`
	Title                 string     `json:"title"`
	OriginalTitle         *string    `json:"original_title"`
	Caption               *string    `json:"caption"`
	MakerName             *string    `json:"maker_name"`
	ItemNo                *string    `json:"item_no"`
	URL                   *string    `json:"url"`
	AffiliateURL          *string    `json:"affiliate_url"`
	Price                 float64    `json:"price"`
	Volume                int        `json:"volume"`
	ReleaseDate           *time.Time `json:"release_date"`
	MainImageURL          *string    `json:"main_image_url"`
	OGImageURL            *string    `json:"og_image_url"`
	SampleMovieURL        *string    `json:"sample_movie_url"`
	SampleMovieCaptureURL *string    `json:"sample_movie_capture_url"`
	Genres                []string   `json:"genres"`
	Performers            []string   `json:"performers"`
	Series                []string   `json:"series"`
	MainSnapshotID        int64      `json:"main_snapshot_id"`
}

// Facets returns every facet the product links to, including the maker as a label
func (p *MergedProduct) Facets() []Facet {
	facets := make([]Facet, 0, len(p.Genres)+len(p.Performers)+len(p.Series)+1)
	for _, name := range p.Genres {
		facets = append(facets, Facet{Type: FacetTypeGenre, Name: name})
	}
	for _, name := range p.Performers {
		facets = append(facets, Facet{Type: FacetTypePerformer, Name: name})
	}
	for _, name := range p.Series {
		facets = append(facets, Facet{Type: FacetTypeSeries, Name: name})
	}
	if p.MakerName != nil {
		facets = append(facets, Facet{Type: FacetTypeLabel, Name: *p.MakerName})
	}
	return facets
}

// UnitFailure records one unit that could not be reconciled in a run
type UnitFailure struct {
	Key UnitKey `json:"key"`
	Err error   `json:"-"`
}

func (f UnitFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Key, f.Err)
}

// RunResult summarizes one reconciliation pass
type RunResult struct {
	RunID      string        `json:"run_id"`
	Discovered int           `json:"discovered"`
	Succeeded  int           `json:"succeeded"`
	Skipped    int           `json:"skipped"`
	Failures   []UnitFailure `json:"failures"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// ProductReconciledEvent is published after a unit commits
type ProductReconciledEvent struct {
	EventID           string    `json:"event_id"`
	RunID             string    `json:"run_id"`
	ProductID         int64     `json:"product_id"`
	ExternalProductID string    `json:"external_product_id"`
	SourceName        string    `json:"source_name"`
	Created           bool      `json:"created"`
	Changed           bool      `json:"changed"`
	ContentHash       string    `json:"content_hash"`
	SnapshotCount     int       `json:"snapshot_count"`
	ReconciledAt      time.Time `json:"reconciled_at"`
}
