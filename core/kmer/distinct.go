// core/kmer/distinct.go
package kmer

import "sort"

// DistinctSet records which k-mers were seen at least once.
//
// Merge rule: set union.
type DistinctSet map[string]struct{}

// Add inserts every k-length window of seq.
func (s DistinctSet) Add(seq []byte, k int) {
	if k < 1 || len(seq) < k {
		return
	}
	for i := 0; i+k <= len(seq); i++ {
		s[string(seq[i:i+k])] = struct{}{}
	}
}

// Merge folds o into s and returns s.
func (s DistinctSet) Merge(o DistinctSet) (DistinctSet, error) {
	for km := range o {
		s[km] = struct{}{}
	}
	return s, nil
}

// Sorted returns the members in lexicographic order.
func (s DistinctSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for km := range s {
		out = append(out, km)
	}
	sort.Strings(out)
	return out
}
