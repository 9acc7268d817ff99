// core/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Record is one parsed sequence read. Sequences are kept as raw bytes;
// FASTQ quality strings are validated and dropped.
type Record struct {
	ID  string
	Seq []byte
}

const maxLine = 64 * 1024 * 1024 // allow very long single-line sequences (64 MiB)

// Reader streams Records from FASTA or FASTQ input. The format is detected
// from the first non-blank byte ('>' = FASTA, '@' = FASTQ).
type Reader struct {
	sc      *bufio.Scanner
	line    int // 1-based line number of the last scanned line
	pending []byte
	hasPend bool
	started bool
	fastq   bool
	nextID  string // pending FASTA header, already stripped
	hasNext bool
	err     error // sticky
}

// NewReader wraps r. The underlying format is not inspected until the first
// call to Next.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return &Reader{sc: sc}
}

// Next returns the next record, or io.EOF when the input is exhausted.
// Parse errors identify the offending line and are sticky.
func (r *Reader) Next() (Record, error) {
	if r.err != nil {
		return Record{}, r.err
	}
	rec, err := r.next()
	if err != nil && err != io.EOF {
		r.err = err
	}
	return rec, err
}

func (r *Reader) next() (Record, error) {
	if !r.started {
		line, ok := r.readLine()
		if !ok {
			if err := r.sc.Err(); err != nil {
				return Record{}, fmt.Errorf("fasta: scan: %w", err)
			}
			return Record{}, io.EOF
		}
		switch line[0] {
		case '>':
			r.nextID = headerID(line[1:])
			r.hasNext = true
		case '@':
			r.fastq = true
			r.unread(line)
		default:
			return Record{}, fmt.Errorf("fasta: line %d: expected '>' or '@' header, got %q", r.line, line[0])
		}
		r.started = true
	}
	if r.fastq {
		return r.nextFastq()
	}
	return r.nextFasta()
}

func (r *Reader) nextFasta() (Record, error) {
	if !r.hasNext {
		if err := r.sc.Err(); err != nil {
			return Record{}, fmt.Errorf("fasta: scan: %w", err)
		}
		return Record{}, io.EOF
	}
	rec := Record{ID: r.nextID}
	r.nextID = ""
	r.hasNext = false
	seq := make([]byte, 0, 256)
	for {
		line, ok := r.readLine()
		if !ok {
			break
		}
		if line[0] == '>' {
			r.nextID = headerID(line[1:])
			r.hasNext = true
			break
		}
		seq = append(seq, bytes.TrimSpace(line)...)
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, fmt.Errorf("fasta: scan: %w", err)
	}
	rec.Seq = seq
	return rec, nil
}

func (r *Reader) nextFastq() (Record, error) {
	head, ok := r.readLine()
	if !ok {
		if err := r.sc.Err(); err != nil {
			return Record{}, fmt.Errorf("fastq: scan: %w", err)
		}
		return Record{}, io.EOF
	}
	if head[0] != '@' {
		return Record{}, fmt.Errorf("fastq: line %d: expected '@' header", r.line)
	}
	id := headerID(head[1:])
	seq, ok := r.readLine()
	if !ok {
		return Record{}, fmt.Errorf("fastq: line %d: truncated record (missing sequence)", r.line)
	}
	seq = append([]byte(nil), bytes.TrimSpace(seq)...)
	plus, ok := r.readLine()
	if !ok || plus[0] != '+' {
		return Record{}, fmt.Errorf("fastq: line %d: expected '+' separator", r.line)
	}
	qual, ok := r.readLine()
	if !ok {
		return Record{}, fmt.Errorf("fastq: line %d: truncated record (missing quality)", r.line)
	}
	if n := len(bytes.TrimSpace(qual)); n != len(seq) {
		return Record{}, fmt.Errorf("fastq: line %d: quality length %d != sequence length %d", r.line, n, len(seq))
	}
	return Record{ID: id, Seq: seq}, nil
}

// readLine yields the next non-blank line. The returned slice is only valid
// until the next call, so callers must copy what they keep.
func (r *Reader) readLine() ([]byte, bool) {
	if r.hasPend {
		r.hasPend = false
		return r.pending, true
	}
	for r.sc.Scan() {
		r.line++
		line := r.sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return line, true
	}
	return nil, false
}

func (r *Reader) unread(line []byte) {
	r.pending = append(r.pending[:0], line...)
	r.hasPend = true
}

func headerID(hdr []byte) string {
	hdr = bytes.TrimSpace(hdr)
	if i := bytes.IndexAny(hdr, " \t"); i >= 0 {
		return string(hdr[:i])
	}
	return string(hdr)
}
