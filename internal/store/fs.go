// internal/store/fs.go
package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

const (
	fsPrefix = "partial-"
	fsSuffix = ".bin"
)

// fsHeader is magic ("CFP1") plus a murmur3-64 checksum of the payload.
// The checksum catches torn or bit-rotted partials on resume; a bad
// checkpoint must fail the merge read, not feed it garbage.
const fsHeaderLen = 4 + 8

var fsMagic = [4]byte{'C', 'F', 'P', '1'}

// FS stores one file per chunk under dir, named partial-<index zero-padded
// to 10 digits>.bin so a directory listing recovers the index set. Writes go
// to a temp file in the same directory and are renamed into place.
type FS struct {
	dir string
}

// NewFS creates dir if needed.
func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Op: "init", Index: -1, Err: err}
	}
	return &FS{dir: dir}, nil
}

func (s *FS) path(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%010d%s", fsPrefix, index, fsSuffix))
}

func (s *FS) Put(_ context.Context, index int, data []byte) error {
	buf := make([]byte, fsHeaderLen+len(data))
	copy(buf, fsMagic[:])
	binary.LittleEndian.PutUint64(buf[4:fsHeaderLen], murmur3.Sum64(data))
	copy(buf[fsHeaderLen:], data)

	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf("%s%010d-*.tmp", fsPrefix, index))
	if err != nil {
		return &Error{Op: "put", Index: index, Err: err}
	}
	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return &Error{Op: "put", Index: index, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return &Error{Op: "put", Index: index, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path(index)); err != nil {
		_ = os.Remove(tmp.Name())
		return &Error{Op: "put", Index: index, Err: err}
	}
	return nil
}

func (s *FS) Get(_ context.Context, index int) ([]byte, error) {
	buf, err := os.ReadFile(s.path(index))
	if os.IsNotExist(err) {
		return nil, &Error{Op: "get", Index: index, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &Error{Op: "get", Index: index, Err: err}
	}
	if len(buf) < fsHeaderLen || string(buf[:4]) != string(fsMagic[:]) {
		return nil, &Error{Op: "get", Index: index, Err: fmt.Errorf("malformed partial file")}
	}
	data := buf[fsHeaderLen:]
	want := binary.LittleEndian.Uint64(buf[4:fsHeaderLen])
	if got := murmur3.Sum64(data); got != want {
		return nil, &Error{Op: "get", Index: index, Err: fmt.Errorf("checksum mismatch: stored %016x, computed %016x", want, got)}
	}
	return data, nil
}

func (s *FS) List(_ context.Context) ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &Error{Op: "list", Index: -1, Err: err}
	}
	var out []int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, fsPrefix) || !strings.HasSuffix(name, fsSuffix) {
			continue // manifest, temp leftovers, anything else
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, fsPrefix), fsSuffix))
		if err != nil {
			continue
		}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}

func (s *FS) Delete(_ context.Context, index int) error {
	if err := os.Remove(s.path(index)); err != nil && !os.IsNotExist(err) {
		return &Error{Op: "delete", Index: index, Err: err}
	}
	return nil
}

func (s *FS) Close() error { return nil }
