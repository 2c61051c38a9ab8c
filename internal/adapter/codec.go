package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Codec defines JSON encoding operations, including RFC 8785 canonical form
//
//go:generate mockgen -source=codec.go -destination=../mocks/codec.go -package=mocks -mock_names=Codec=MockCodec
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Canonical marshals v and rewrites the result into JCS canonical form
	Canonical(v any) ([]byte, error)
}

// RealCodec implements Codec with encoding/json and jcs
type RealCodec struct{}

// NewCodec creates a new real codec
func NewCodec() Codec {
	return &RealCodec{}
}

func (c *RealCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *RealCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *RealCodec) Canonical(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}

	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize: %w", err)
	}

	return canonical, nil
}
