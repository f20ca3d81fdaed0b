package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pario-ai/aigateway/pkg/models"
)

var quotaBucket = []byte("quotas")

// BoltStore keeps quota documents as JSON values in a bbolt bucket keyed by
// quota id.
type BoltStore struct {
	db        *bolt.DB
	closeOnce sync.Once
}

var _ Store = (*BoltStore)(nil)

// NewBolt opens (or creates) a bbolt ledger file at path.
func NewBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(quotaBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Insert(_ context.Context, q models.Quota) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quota: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(quotaBucket).Put([]byte(q.ID), data)
	})
}

// scan collects matching documents inside tx.
func scan(tx *bolt.Tx, f Filter) ([]models.Quota, error) {
	var out []models.Quota
	err := tx.Bucket(quotaBucket).ForEach(func(_, v []byte) error {
		var q models.Quota
		if err := json.Unmarshal(v, &q); err != nil {
			return fmt.Errorf("decode quota: %w", err)
		}
		if f.Match(q) {
			out = append(out, q)
		}
		return nil
	})
	sortByCreated(out)
	return out, err
}

func put(tx *bolt.Tx, q models.Quota) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quota: %w", err)
	}
	return tx.Bucket(quotaBucket).Put([]byte(q.ID), data)
}

func (s *BoltStore) Find(_ context.Context, f Filter) ([]models.Quota, error) {
	var out []models.Quota
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = scan(tx, f)
		return err
	})
	return out, err
}

func (s *BoltStore) FindOneAndUpdate(_ context.Context, f Filter, u Update) (*models.Quota, error) {
	var found *models.Quota
	err := s.db.Update(func(tx *bolt.Tx) error {
		qs, err := scan(tx, f)
		if err != nil || len(qs) == 0 {
			return err
		}
		q := qs[0]
		u.Apply(&q)
		found = &q
		return put(tx, q)
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *BoltStore) UpdateMany(_ context.Context, f Filter, u Update) (int64, error) {
	var n int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		qs, err := scan(tx, f)
		if err != nil {
			return err
		}
		for _, q := range qs {
			u.Apply(&q)
			if err := put(tx, q); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *BoltStore) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.db.Close() })
	return err
}
