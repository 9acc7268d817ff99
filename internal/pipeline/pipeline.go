// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"chunkfold-core/chunk"

	"github.com/sirupsen/logrus"

	"chunkfold/internal/codec"
	"chunkfold/internal/store"
)

// Func computes one chunk's partial result. It must be a pure function of
// the chunk: no shared mutable state, so chunks stay independently
// retryable.
type Func[P any] func(ctx context.Context, c chunk.Chunk) (P, error)

// Config controls the worker pool.
type Config struct {
	Workers      int           // <=0 means runtime.NumCPU()
	Retries      int           // retries after the first attempt
	RetryBackoff time.Duration // base backoff, doubled per retry (default 100ms)
	ChunkTimeout time.Duration // per-chunk wall clock; 0 disables
}

// DefaultRetries is applied by callers that expose --retries.
const DefaultRetries = 1

// ChunkFailure records a chunk that exhausted its retries.
type ChunkFailure struct {
	Index    int
	Attempts int
	Err      error
}

// Report summarizes one run. Index slices are sorted ascending.
type Report struct {
	Chunks    int // chunks enumerated from the source, including skipped
	Records   int
	Completed []int // stored during this run
	Skipped   []int // already present before this run (resume)
	Failed    []ChunkFailure
}

// FailedIndices returns the failed chunk indices in ascending order.
func (r *Report) FailedIndices() []int {
	out := make([]int, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Index)
	}
	sort.Ints(out)
	return out
}

// Run drives the map phase: chunks from src are fanned out to a bounded
// worker pool; each worker encodes and checkpoints its partial result before
// taking the next chunk. A chunk that keeps failing is recorded and isolated
// — sibling chunks continue. Indices already present in st are skipped, which
// is what makes a crashed run resumable.
//
// Cancellation is honored between chunks: an in-flight chunk finishes (or
// times out) before its worker exits, so no half-processed chunk is ever
// the last thing a worker did without a checkpoint decision.
func Run[P any](ctx context.Context, cfg Config, src *chunk.Source, process Func[P], enc codec.Codec[P], st store.Store) (*Report, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	present, err := st.List(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[int]struct{}, len(present))
	for _, idx := range present {
		done[idx] = struct{}{}
	}

	var (
		rep Report
		mu  sync.Mutex
	)

	// Bounded queue: the feeder blocks here once all workers are busy, so
	// splitting never runs ahead of processing by more than the queue depth.
	jobs := make(chan *chunk.Chunk, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for c := range jobs {
				if ctx.Err() != nil {
					continue // drain without processing
				}
				idx, attempts, err := handle(ctx, cfg, backoff, process, enc, st, c)
				mu.Lock()
				if err != nil {
					rep.Failed = append(rep.Failed, ChunkFailure{Index: idx, Attempts: attempts, Err: err})
				} else {
					rep.Completed = append(rep.Completed, idx)
				}
				mu.Unlock()
			}
		}()
	}

	var srcErr error
feed:
	for {
		if ctx.Err() != nil {
			break
		}
		c, err := src.Next()
		if err != nil {
			srcErr = err
			break
		}
		if c == nil {
			break
		}
		mu.Lock()
		rep.Chunks++
		rep.Records += len(c.Records)
		mu.Unlock()
		if _, ok := done[c.Index]; ok {
			mu.Lock()
			rep.Skipped = append(rep.Skipped, c.Index)
			mu.Unlock()
			logrus.WithField("chunk", c.Index).Debug("partial already present, skipping")
			continue
		}
		select {
		case jobs <- c:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	sort.Ints(rep.Completed)
	sort.Ints(rep.Skipped)
	sort.Slice(rep.Failed, func(i, j int) bool { return rep.Failed[i].Index < rep.Failed[j].Index })

	if srcErr != nil {
		return &rep, srcErr
	}
	if err := ctx.Err(); err != nil {
		return &rep, err
	}
	return &rep, nil
}

// handle runs one chunk through the retry loop and checkpoints the result.
// Store write failures are retried exactly like process failures.
func handle[P any](ctx context.Context, cfg Config, backoff time.Duration, process Func[P], enc codec.Codec[P], st store.Store, c *chunk.Chunk) (index, attempts int, err error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.Retries; attempt++ {
		if attempt > 0 {
			wait := backoff << (attempt - 1)
			logrus.WithFields(logrus.Fields{
				"chunk":   c.Index,
				"attempt": attempt + 1,
				"backoff": wait,
			}).WithError(lastErr).Warn("retrying chunk")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return c.Index, attempt, lastErr
			}
		}
		attempts = attempt + 1

		p, perr := runChunk(ctx, cfg.ChunkTimeout, process, c)
		if perr != nil {
			lastErr = perr
			continue
		}
		data, eerr := enc.Encode(p)
		if eerr != nil {
			lastErr = eerr
			continue
		}
		if serr := st.Put(ctx, c.Index, data); serr != nil {
			lastErr = serr
			continue
		}
		logrus.WithFields(logrus.Fields{
			"chunk":   c.Index,
			"records": len(c.Records),
			"bytes":   len(data),
		}).Debug("chunk checkpointed")
		return c.Index, attempts, nil
	}
	logrus.WithFields(logrus.Fields{
		"chunk":    c.Index,
		"attempts": attempts,
	}).WithError(lastErr).Error("chunk failed permanently")
	return c.Index, attempts, lastErr
}

// runChunk invokes process, converting panics to errors and enforcing the
// per-chunk timeout. A timed-out attempt is abandoned (its eventual result
// goes to a buffered channel nobody reads) and counted as a failure.
func runChunk[P any](ctx context.Context, timeout time.Duration, process Func[P], c *chunk.Chunk) (P, error) {
	type result struct {
		p   P
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero P
				ch <- result{zero, fmt.Errorf("chunk %d: process panic: %v", c.Index, r)}
			}
		}()
		p, err := process(ctx, *c)
		ch <- result{p, err}
	}()

	var timeoutC <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timeoutC = t.C
	}
	select {
	case r := <-ch:
		return r.p, r.err
	case <-timeoutC:
		var zero P
		return zero, fmt.Errorf("chunk %d: timed out after %s", c.Index, timeout)
	}
}
