// internal/writers/formats.go

// Package writers renders merged aggregates. All writers emit rows in a
// deterministic order so identical merges produce byte-identical files.
package writers

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"chunkfold-core/debruijn"
	"chunkfold-core/kmer"
)

// JSON writes v as indented JSON. encoding/json sorts map keys, which keeps
// the output deterministic.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// CountsTSV writes kmer<TAB>count rows in lexicographic k-mer order.
func CountsTSV(w io.Writer, c kmer.Counts) error {
	keys := make([]string, 0, len(c))
	for km := range c {
		keys = append(keys, km)
	}
	sort.Strings(keys)
	for _, km := range keys {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", km, c[km]); err != nil {
			return err
		}
	}
	return nil
}

// SetText writes one k-mer per line in lexicographic order.
func SetText(w io.Writer, s kmer.DistinctSet) error {
	for _, km := range s.Sorted() {
		if _, err := fmt.Fprintln(w, km); err != nil {
			return err
		}
	}
	return nil
}

// SetJSON writes the sorted member list as a JSON array.
func SetJSON(w io.Writer, s kmer.DistinctSet) error {
	return JSON(w, s.Sorted())
}

// SketchSummary is the human-facing read-out of a Bloom sketch.
type SketchSummary struct {
	Bits             uint   `json:"bits"`
	Hashes           uint   `json:"hashes"`
	Added            uint64 `json:"added"`
	EstimateDistinct uint32 `json:"estimate_distinct"`
}

// SketchJSON summarizes a sketch; the raw filter stays in the partial dir.
func SketchJSON(w io.Writer, s *kmer.Sketch) error {
	return JSON(w, SketchSummary{
		Bits:             s.Bits,
		Hashes:           s.Hashes,
		Added:            s.Added,
		EstimateDistinct: s.EstimateDistinct(),
	})
}

// GraphTSV writes prefix<TAB>base<TAB>count rows ordered by prefix, base.
func GraphTSV(w io.Writer, g *debruijn.Graph) error {
	for _, e := range g.SortedEdges() {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", e.Prefix, e.Base, e.Count); err != nil {
			return err
		}
	}
	return nil
}
