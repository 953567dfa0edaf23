// Package checkpoint persists per-file read offsets so tailing can resume
// where it stopped after a restart.
package checkpoint

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/samber/lo"
	bolt "go.etcd.io/bbolt"
)

var bucketOffsets = []byte("offsets")

// Store records byte offsets keyed by file path in a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the checkpoint database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create checkpoint directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketOffsets)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create offsets bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Offset returns the saved offset for file. ok is false when none exists.
func (s *Store) Offset(file string) (offset int64, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketOffsets).Get([]byte(file))
		if v == nil {
			return nil
		}
		if len(v) != 8 {
			return fmt.Errorf("checkpoint for %s is corrupt (%d bytes)", file, len(v))
		}
		offset, ok = int64(binary.BigEndian.Uint64(v)), true
		return nil
	})
	return offset, ok, err
}

// Save stores the offset for file.
func (s *Store) Save(file string, offset int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(offset))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOffsets).Put([]byte(file), buf[:])
	})
}

// Delete forgets the offset for file.
func (s *Store) Delete(file string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOffsets).Delete([]byte(file))
	})
}

// All returns every saved offset.
func (s *Store) All() (map[string]int64, error) {
	out := make(map[string]int64)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOffsets).ForEach(func(k, v []byte) error {
			if len(v) != 8 {
				return nil // skip corrupt entries
			}
			out[string(k)] = int64(binary.BigEndian.Uint64(v))
			return nil
		})
	})
	return out, err
}

// Retain drops offsets for every file not listed in files, so inputs removed
// from the config do not resume from a stale position if they come back.
// It returns the removed paths in sorted order.
func (s *Store) Retain(files []string) ([]string, error) {
	all, err := s.All()
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	stale := lo.Without(lo.Keys(all), files...)
	slices.Sort(stale)
	for _, f := range stale {
		if err := s.Delete(f); err != nil {
			return nil, fmt.Errorf("delete checkpoint for %s: %w", f, err)
		}
	}
	return stale, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
