// core/fasta/open.go
package fasta

import (
	"bufio"
	"io"
	"os"

	"github.com/klauspost/pgzip"
)

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open returns a reader for path; "-" means stdin. Gzip input is detected by
// magic number (1F 8B) rather than extension, so pipes and process
// substitution work, and is decompressed with pgzip.
func Open(path string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	if path == "-" {
		rc = io.NopCloser(os.Stdin)
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		rc = fh
	}
	br := bufio.NewReaderSize(rc, 64*1024)
	sig, err := br.Peek(2)
	if err == nil && sig[0] == 0x1f && sig[1] == 0x8b {
		gr, gerr := pgzip.NewReader(br)
		if gerr != nil {
			_ = rc.Close()
			return nil, gerr
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, rc}}, nil
	}
	return &multiReadCloser{Reader: br, closers: []io.Closer{rc}}, nil
}
