// core/fasta/files.go
package fasta

import (
	"fmt"
	"io"
)

// FileReader streams records from a list of paths in order, opening each
// file lazily. It satisfies the record-reader contract used by chunking.
type FileReader struct {
	paths []string
	pos   int
	cur   *Reader
	rc    io.ReadCloser
}

// OpenFiles builds a FileReader over paths. No file is touched until the
// first Next call.
func OpenFiles(paths ...string) *FileReader {
	return &FileReader{paths: paths}
}

// Next returns the next record across all files, or io.EOF after the last
// record of the last file. Errors are prefixed with the offending path.
func (f *FileReader) Next() (Record, error) {
	for {
		if f.cur == nil {
			if f.pos >= len(f.paths) {
				return Record{}, io.EOF
			}
			rc, err := Open(f.paths[f.pos])
			if err != nil {
				return Record{}, fmt.Errorf("%s: %w", f.paths[f.pos], err)
			}
			f.rc = rc
			f.cur = NewReader(rc)
		}
		rec, err := f.cur.Next()
		if err == io.EOF {
			_ = f.rc.Close()
			f.cur, f.rc = nil, nil
			f.pos++
			continue
		}
		if err != nil {
			return Record{}, fmt.Errorf("%s: %w", f.paths[f.pos], err)
		}
		return rec, nil
	}
}

// Close releases the currently open file, if any.
func (f *FileReader) Close() error {
	if f.rc != nil {
		err := f.rc.Close()
		f.cur, f.rc = nil, nil
		return err
	}
	return nil
}
