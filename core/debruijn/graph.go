// core/debruijn/graph.go

// Package debruijn builds a minimal de Bruijn graph: each (k-1)-mer prefix
// carries a count per outgoing base.
package debruijn

import (
	"fmt"
	"sort"
)

// Graph is the adjacency aggregate for one or more chunks.
//
// Merge rule: per-edge count addition. Thresholding is applied only after
// the final merge, so low-coverage edges split across chunks are not lost.
type Graph struct {
	K         int                          `json:"k"`
	Adjacency map[string]map[string]uint64 `json:"adjacency"`
}

// New returns an empty graph for k-mers of length k.
func New(k int) *Graph {
	return &Graph{K: k, Adjacency: make(map[string]map[string]uint64)}
}

// AddSeq splits seq into k-mers and records one prefix→base edge per k-mer.
func (g *Graph) AddSeq(seq []byte) {
	k := g.K
	if k < 2 || len(seq) < k {
		return
	}
	for i := 0; i+k <= len(seq); i++ {
		kmer := seq[i : i+k]
		g.addEdge(string(kmer[:k-1]), string(kmer[k-1:]), 1)
	}
}

func (g *Graph) addEdge(prefix, base string, n uint64) {
	edges := g.Adjacency[prefix]
	if edges == nil {
		edges = make(map[string]uint64, 4)
		g.Adjacency[prefix] = edges
	}
	edges[base] += n
}

// Merge folds o into g and returns g. Graphs built with different k cannot
// be combined.
func (g *Graph) Merge(o *Graph) (*Graph, error) {
	if o == nil {
		return g, nil
	}
	if g == nil || g.Adjacency == nil {
		return o, nil
	}
	if o.K != 0 && g.K != 0 && o.K != g.K {
		return nil, fmt.Errorf("debruijn: cannot merge k=%d graph into k=%d graph", o.K, g.K)
	}
	if g.K == 0 {
		g.K = o.K
	}
	for prefix, edges := range o.Adjacency {
		for base, n := range edges {
			g.addEdge(prefix, base, n)
		}
	}
	return g, nil
}

// Threshold returns a new graph keeping only edges with count >= min.
// Prefixes left with no edges are dropped.
func (g *Graph) Threshold(min uint64) *Graph {
	if min <= 1 {
		return g
	}
	out := New(g.K)
	for prefix, edges := range g.Adjacency {
		for base, n := range edges {
			if n >= min {
				out.addEdge(prefix, base, n)
			}
		}
	}
	return out
}

// Nodes returns the number of prefix nodes.
func (g *Graph) Nodes() int { return len(g.Adjacency) }

// Edges returns the number of distinct edges and the total edge count.
func (g *Graph) Edges() (distinct int, total uint64) {
	for _, edges := range g.Adjacency {
		distinct += len(edges)
		for _, n := range edges {
			total += n
		}
	}
	return distinct, total
}

// Edge is one adjacency entry in deterministic listing order.
type Edge struct {
	Prefix string
	Base   string
	Count  uint64
}

// SortedEdges lists all edges ordered by prefix then base.
func (g *Graph) SortedEdges() []Edge {
	out := make([]Edge, 0, len(g.Adjacency))
	for prefix, edges := range g.Adjacency {
		for base, n := range edges {
			out = append(out, Edge{Prefix: prefix, Base: base, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Prefix != out[j].Prefix {
			return out[i].Prefix < out[j].Prefix
		}
		return out[i].Base < out[j].Base
	})
	return out
}
