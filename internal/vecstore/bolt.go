package vecstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketRecords = []byte("records")
	bucketMeta    = []byte("meta")
	keyDimension  = []byte("dimension")
)

// BoltStore implements Store on a bbolt file. It is the embedded per-client
// backend: a single file, no server, suitable for the CLI and for
// deployments that keep the whole index on one machine.
type BoltStore struct {
	db        *bbolt.DB
	dimension int
}

// boltRecord is the persisted form of a Record
type boltRecord struct {
	ID          string    `json:"id"`
	ChangelogID int64     `json:"changelog_id"`
	Version     string    `json:"version"`
	Product     string    `json:"product,omitempty"`
	Content     string    `json:"content"`
	Vector      []float32 `json:"vector"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewBoltStore opens (creating if needed) a bbolt-backed vector store
func NewBoltStore(path string, dimension int) (*BoltStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidRecord)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRecords); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}

		// Enforce a single dimension per file, like the SQLite backend
		stored := meta.Get(keyDimension)
		if stored == nil {
			return meta.Put(keyDimension, []byte(strconv.Itoa(dimension)))
		}
		existing, err := strconv.Atoi(string(stored))
		if err != nil {
			return fmt.Errorf("corrupt dimension metadata %q", stored)
		}
		if existing != dimension {
			return fmt.Errorf("%w: store was created with dimension %d, opened with %d", ErrDimensionMismatch, existing, dimension)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db, dimension: dimension}, nil
}

func (s *BoltStore) Upsert(ctx context.Context, record Record) error {
	if err := record.Validate(s.dimension); err != nil {
		return err
	}

	data, err := json.Marshal(boltRecord{
		ID:          record.ID,
		ChangelogID: record.Meta.ChangelogID,
		Version:     record.Meta.Version,
		Product:     record.Meta.Product,
		Content:     record.Content,
		Vector:      record.Vector,
		CreatedAt:   record.Meta.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", record.ID, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).Put([]byte(record.ID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrStoreUnavailable, record.ID, err)
	}
	return nil
}

func (s *BoltStore) GetAll(ctx context.Context) ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		// bbolt iterates keys in byte order, so the scan order is stable
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			var br boltRecord
			if err := json.Unmarshal(v, &br); err != nil {
				return fmt.Errorf("unmarshal record %s: %w", k, err)
			}
			records = append(records, recordFromBolt(br))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return records, nil
}

func (s *BoltStore) DeleteByChangelogID(ctx context.Context, changelogID int64) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		var toDelete [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			var br boltRecord
			if err := json.Unmarshal(v, &br); err != nil {
				return err
			}
			if br.ChangelogID == changelogID {
				key := make([]byte, len(k))
				copy(key, k)
				toDelete = append(toDelete, key)
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range toDelete {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: delete changelog %d: %v", ErrStoreUnavailable, changelogID, err)
	}
	return nil
}

func (s *BoltStore) DeleteByID(ctx context.Context, id string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStoreUnavailable, id, err)
	}
	return nil
}

func (s *BoltStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketRecords).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

func (s *BoltStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketRecords); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketRecords)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: clear: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *BoltStore) Dimension() int {
	return s.dimension
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func recordFromBolt(br boltRecord) Record {
	return Record{
		ID:      br.ID,
		Content: br.Content,
		Vector:  br.Vector,
		Meta: RecordMeta{
			ChangelogID: br.ChangelogID,
			Version:     br.Version,
			Product:     br.Product,
			CreatedAt:   br.CreatedAt,
		},
	}
}
