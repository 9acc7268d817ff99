// internal/codec/codec.go

// Package codec serializes partial results for checkpointing. The engine
// only ever sees the Codec contract, so the wire format is swappable.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
)

// Codec encodes and decodes one partial-result value.
type Codec[P any] interface {
	Encode(P) ([]byte, error)
	Decode([]byte) (P, error)
}

// JSON marshals partials with encoding/json.
type JSON[P any] struct{}

func (JSON[P]) Encode(p P) ([]byte, error) { return json.Marshal(p) }

func (JSON[P]) Decode(data []byte) (P, error) {
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("codec: decode: %w", err)
	}
	return p, nil
}

// Snappy block-compresses an inner codec's payload. Partial k-mer maps are
// highly repetitive, so checkpoints typically shrink several-fold.
type Snappy[P any] struct {
	Inner Codec[P]
}

// NewSnappyJSON is the default checkpoint codec.
func NewSnappyJSON[P any]() Snappy[P] { return Snappy[P]{Inner: JSON[P]{}} }

func (c Snappy[P]) Encode(p P) ([]byte, error) {
	raw, err := c.Inner.Encode(p)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func (c Snappy[P]) Decode(data []byte) (P, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		var zero P
		return zero, fmt.Errorf("codec: snappy: %w", err)
	}
	return c.Inner.Decode(raw)
}
