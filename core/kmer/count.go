// core/kmer/count.go

// Package kmer holds the per-chunk k-mer aggregates and their merge rules.
// Every Merge here is associative and commutative, which is what makes
// out-of-order parallel completion safe.
package kmer

// Counts maps a k-mer to its occurrence count.
//
// Merge rule: per-key addition. Overwriting instead of summing is the
// classic bug in partial-map merging, so the rule is stated here once and
// tested against fold order.
type Counts map[string]uint64

// Add counts every k-length window of seq. Sequences shorter than k
// contribute nothing. Bytes are taken as-is; callers normalize case if they
// care.
func (c Counts) Add(seq []byte, k int) {
	if k < 1 || len(seq) < k {
		return
	}
	for i := 0; i+k <= len(seq); i++ {
		c[string(seq[i:i+k])]++
	}
}

// Merge folds o into c and returns c.
func (c Counts) Merge(o Counts) (Counts, error) {
	for km, n := range o {
		c[km] += n
	}
	return c, nil
}

// Total returns the sum of all counts.
func (c Counts) Total() uint64 {
	var t uint64
	for _, n := range c {
		t += n
	}
	return t
}

// Filter returns a new map holding only k-mers with count >= min.
func (c Counts) Filter(min uint64) Counts {
	if min <= 1 {
		return c
	}
	out := make(Counts, len(c))
	for km, n := range c {
		if n >= min {
			out[km] = n
		}
	}
	return out
}
