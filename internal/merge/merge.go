// internal/merge/merge.go

// Package merge folds checkpointed partial results into the final aggregate.
// The fold relies on the aggregate's Merge being associative and
// commutative: workers finish out of order and store listing order is not
// specified, yet the result must be identical either way.
package merge

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"chunkfold/internal/codec"
	"chunkfold/internal/store"
)

// Mergeable is the combination contract every aggregate implements.
type Mergeable[P any] interface {
	Merge(P) (P, error)
}

// IncompleteError reports the exact chunk indices missing from the store, so
// a caller can resume by re-running only those.
type IncompleteError struct {
	Missing []int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("merge: %d chunk(s) missing: %v", len(e.Missing), e.Missing)
}

// Options controls one merge pass.
type Options struct {
	Expected   int  // total chunk count; indices 0..Expected-1 must be present
	BestEffort bool // fold whatever is present instead of failing
	Readers    int  // concurrent store reads (<=0 means 4)
}

// Merge reads the partials for indices 0..Expected-1, decodes them, and
// folds them into zero. The missing index set is always returned; with
// BestEffort it is advisory, otherwise a non-empty set is an
// *IncompleteError. Read or decode failures are fatal: a merge cannot
// proceed without its data.
func Merge[P Mergeable[P]](ctx context.Context, st store.Store, dec codec.Codec[P], zero P, o Options) (P, []int, error) {
	readers := o.Readers
	if readers <= 0 {
		readers = 4
	}

	present, err := st.List(ctx)
	if err != nil {
		return zero, nil, err
	}
	have := make(map[int]struct{}, len(present))
	for _, idx := range present {
		if idx >= o.Expected {
			return zero, nil, fmt.Errorf("merge: store holds chunk %d but only %d chunk(s) were expected; wrong partial dir?", idx, o.Expected)
		}
		have[idx] = struct{}{}
	}
	var missing []int
	for idx := 0; idx < o.Expected; idx++ {
		if _, ok := have[idx]; !ok {
			missing = append(missing, idx)
		}
	}
	if len(missing) > 0 && !o.BestEffort {
		return zero, missing, &IncompleteError{Missing: missing}
	}

	// Decode in parallel (I/O bound), fold sequentially. Fold order follows
	// the listing, but the commutative rule makes that irrelevant.
	parts := make([]P, len(present))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readers)
	for i, idx := range present {
		i, idx := i, idx
		g.Go(func() error {
			data, err := st.Get(gctx, idx)
			if err != nil {
				return err
			}
			p, err := dec.Decode(data)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", idx, err)
			}
			parts[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return zero, missing, err
	}

	acc := zero
	for i, p := range parts {
		var err error
		acc, err = acc.Merge(p)
		if err != nil {
			return zero, missing, fmt.Errorf("merge: chunk %d: %w", present[i], err)
		}
	}
	return acc, missing, nil
}
