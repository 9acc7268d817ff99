// core/kmer/sketch.go
package kmer

import (
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"
)

// Sketch is a Bloom-filter sketch of the distinct k-mer set: constant memory
// per chunk regardless of cardinality.
//
// Merge rule: bitwise union of filters with identical geometry. Merging
// sketches built with different bit or hash counts is refused.
type Sketch struct {
	Bits   uint               `json:"bits"`
	Hashes uint               `json:"hashes"`
	Added  uint64             `json:"added"` // insertions, duplicates included
	Filter *bloom.BloomFilter `json:"filter"`
}

// NewSketch allocates a sketch with the given filter geometry.
func NewSketch(bits, hashes uint) *Sketch {
	return &Sketch{Bits: bits, Hashes: hashes, Filter: bloom.New(bits, hashes)}
}

// Add inserts every k-length window of seq.
func (s *Sketch) Add(seq []byte, k int) {
	if k < 1 || len(seq) < k {
		return
	}
	for i := 0; i+k <= len(seq); i++ {
		s.Filter.Add(seq[i : i+k])
		s.Added++
	}
}

// Merge unions o into s and returns s.
func (s *Sketch) Merge(o *Sketch) (*Sketch, error) {
	if o == nil {
		return s, nil
	}
	if s == nil || s.Filter == nil {
		return o, nil
	}
	if s.Bits != o.Bits || s.Hashes != o.Hashes {
		return nil, fmt.Errorf("sketch geometry mismatch: %d/%d vs %d/%d bits/hashes", s.Bits, s.Hashes, o.Bits, o.Hashes)
	}
	if err := s.Filter.Merge(o.Filter); err != nil {
		return nil, fmt.Errorf("sketch merge: %w", err)
	}
	s.Added += o.Added
	return s, nil
}

// EstimateDistinct approximates the number of distinct k-mers inserted.
func (s *Sketch) EstimateDistinct() uint32 {
	if s == nil || s.Filter == nil {
		return 0
	}
	return s.Filter.ApproximatedSize()
}
