package storage

import (
	"context"
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
	"go.etcd.io/bbolt"

	"sheets/internal/grid"
)

var sheetsBucket = []byte("sheets")

// BoltStore persists snapshots in a bbolt file, one JSON document per sheet id.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (creating when missing) the database file at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sheetsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init %s: %w", path, err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Path() string { return s.db.Path() }

func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) Save(ctx context.Context, id string, data grid.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrEmptyID
	}
	if data == nil {
		data = grid.Snapshot{}
	}

	value, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sheetsBucket).Put([]byte(id), value)
	})
}

func (s *BoltStore) Load(ctx context.Context, id string) (grid.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(sheetsBucket).Get([]byte(id))
		if v == nil {
			return fmt.Errorf("%s: %w", id, ErrSheetNotFound)
		}
		// v points into the mmap and is only valid inside the transaction;
		// sonic may keep references into its input.
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var data grid.Snapshot
	if err = json.Unmarshal(value, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	if data == nil {
		data = grid.Snapshot{}
	}
	return data, nil
}

// IDs lists the stored sheet ids in key order.
func (s *BoltStore) IDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(sheetsBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}
