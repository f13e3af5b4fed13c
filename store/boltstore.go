package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	entriesBucket  = []byte("entries")
	modifiedBucket = []byte("modified")
)

// BoltStore is a Store backed by a single bbolt database file. The database
// is opened for each call so several processes can share the file.
type BoltStore struct {
	path    string
	timeout time.Duration
}

// NewBoltStore creates a BoltStore over the database at path. The file and
// its directory are created on first use.
func NewBoltStore(path string) *BoltStore {
	return &BoltStore{path: path, timeout: time.Second}
}

func (s *BoltStore) open() (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, err
	}
	return bolt.Open(s.path, 0o600, &bolt.Options{Timeout: s.timeout})
}

func (s *BoltStore) List(_ context.Context) ([]Info, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer func() { _ = db.Close() }()

	var infos []Info
	err = db.View(func(tx *bolt.Tx) error {
		entries := tx.Bucket(entriesBucket)
		if entries == nil {
			return nil
		}
		modified := tx.Bucket(modifiedBucket)
		return entries.ForEach(func(k, v []byte) error {
			info := Info{Key: string(k), Size: int64(len(v))}
			if modified != nil {
				info.Modified = parseModified(modified.Get(k))
			}
			infos = append(infos, info)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return infos, nil
}

func (s *BoltStore) Load(_ context.Context, keys ...string) ([]Entry, error) {
	for _, key := range keys {
		if err := ValidateKey(key); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) && len(keys) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keys[0])
	}

	db, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer func() { _ = db.Close() }()

	entries := make([]Entry, 0, len(keys))
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		for _, key := range keys {
			var v []byte
			if b != nil {
				v = b.Get([]byte(key))
			}
			if v == nil {
				return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
			}
			// values are only valid for the life of the transaction
			entries = append(entries, Entry{Key: key, Value: append([]byte(nil), v...)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *BoltStore) Save(_ context.Context, entries ...Entry) error {
	for _, e := range entries {
		if err := ValidateKey(e.Key); err != nil {
			return err
		}
	}

	db, err := s.open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	defer func() { _ = db.Close() }()

	now := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(entriesBucket)
		if err != nil {
			return err
		}
		m, err := tx.CreateBucketIfNotExists(modifiedBucket)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := b.Put([]byte(e.Key), e.Value); err != nil {
				return err
			}
			if err := m.Put([]byte(e.Key), now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

// Delete removes each key in one transaction. A missing key aborts the
// whole batch.
func (s *BoltStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		if err := ValidateKey(key); err != nil {
			return err
		}
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) && len(keys) > 0 {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, keys[0])
	}

	db, err := s.open()
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	defer func() { _ = db.Close() }()

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		m := tx.Bucket(modifiedBucket)
		for _, key := range keys {
			k := []byte(key)
			if b == nil || b.Get(k) == nil {
				return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
			}
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("delete failed: %s: %w", key, err)
			}
			if m != nil {
				if err := m.Delete(k); err != nil {
					return fmt.Errorf("delete failed: %s: %w", key, err)
				}
			}
		}
		return nil
	})
}

func parseModified(b []byte) time.Time {
	if b == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, string(b))
	if err != nil {
		return time.Time{}
	}
	return t
}
