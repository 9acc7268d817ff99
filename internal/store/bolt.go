// internal/store/bolt.go
package store

import (
	"context"
	"encoding/binary"
	"time"

	"go.etcd.io/bbolt"
)

var boltBucket = []byte("partials")

// Bolt keeps all partials in a single bbolt database, keyed by the chunk
// index encoded big-endian so cursor order equals index order. Useful when a
// run produces more chunks than a directory comfortably holds.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt opens (or creates) the database at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, &Error{Op: "init", Index: -1, Err: err}
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, &Error{Op: "init", Index: -1, Err: err}
	}
	return &Bolt{db: db}, nil
}

func boltKey(index int) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(index))
	return k[:]
}

func (s *Bolt) Put(_ context.Context, index int, data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put(boltKey(index), data)
	})
	if err != nil {
		return &Error{Op: "put", Index: index, Err: err}
	}
	return nil
}

func (s *Bolt) Get(_ context.Context, index int) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(boltBucket).Get(boltKey(index)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, &Error{Op: "get", Index: index, Err: err}
	}
	if data == nil {
		return nil, &Error{Op: "get", Index: index, Err: ErrNotFound}
	}
	return data, nil
}

func (s *Bolt) List(_ context.Context) ([]int, error) {
	var out []int
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			out = append(out, int(binary.BigEndian.Uint64(k)))
		}
		return nil
	})
	if err != nil {
		return nil, &Error{Op: "list", Index: -1, Err: err}
	}
	return out, nil
}

func (s *Bolt) Delete(_ context.Context, index int) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(boltKey(index))
	})
	if err != nil {
		return &Error{Op: "delete", Index: index, Err: err}
	}
	return nil
}

// Close must be called to release the database file.
func (s *Bolt) Close() error { return s.db.Close() }
