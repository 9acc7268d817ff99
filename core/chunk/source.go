// core/chunk/source.go
package chunk

import (
	"errors"
	"fmt"
	"io"

	"chunkfold-core/fasta"
)

// RecordReader is the input collaborator contract. Format decoding lives
// behind it; the chunker only pulls records.
type RecordReader interface {
	Next() (fasta.Record, error) // io.EOF at end of input
}

// Chunk is an ordered, bounded group of records. Index is assigned at split
// time, starts at 0, and serves as the checkpoint and merge key.
// Concatenating all chunks in index order reproduces the input stream.
type Chunk struct {
	Index   int
	Records []fasta.Record
}

// SourceError reports a failed read together with the 0-based ordinal of the
// record at which the stream broke. Chunk boundaries cannot be trusted past
// this point, so the run must abort rather than skip.
type SourceError struct {
	Record int
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("chunk source: record %d: %v", e.Record, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Source partitions a record stream into fixed-size chunks. It buffers only
// the chunk currently being assembled.
type Source struct {
	r    RecordReader
	size int
	next int // next chunk index to assign
	read int // records consumed so far
	done bool
	err  error // sticky
}

// NewSource fails fast on a chunk size below 1.
func NewSource(r RecordReader, size int) (*Source, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1, got %d", size)
	}
	return &Source{r: r, size: size}, nil
}

// Next returns the next chunk, or (nil, nil) once the input is exhausted.
// Every chunk holds exactly the configured size except possibly the final
// one. Errors are sticky.
func (s *Source) Next() (*Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.done {
		return nil, nil
	}
	recs := make([]fasta.Record, 0, s.size)
	for len(recs) < s.size {
		rec, err := s.r.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		if err != nil {
			s.err = &SourceError{Record: s.read, Err: err}
			return nil, s.err
		}
		s.read++
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	c := &Chunk{Index: s.next, Records: recs}
	s.next++
	return c, nil
}

// Records reports how many records have been consumed so far.
func (s *Source) Records() int { return s.read }

// Chunks reports how many chunks have been produced so far.
func (s *Source) Chunks() int { return s.next }
