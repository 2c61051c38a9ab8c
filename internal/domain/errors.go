package domain

import "errors"

var (
	// ErrCategoryInconsistent is returned when a category insert reports a unique
	// violation but the row is still not visible on re-query
	ErrCategoryInconsistent = errors.New("category inconsistent after unique violation")

	// ErrSnapshotAlreadyConsumed is returned when a snapshot was consumed by another writer
	ErrSnapshotAlreadyConsumed = errors.New("snapshot already consumed")

	// ErrEmptyExternalID is returned when a unit has no usable external product id
	ErrEmptyExternalID = errors.New("empty external product id")

	// ErrInvalidFacetType is returned for an unknown facet type
	ErrInvalidFacetType = errors.New("invalid facet type")
)
