package dataset

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	snapshotBucket = "dataset"
	recordsKey     = "records"
	savedAtKey     = "saved_at"
)

// Snapshot persists the last successfully fetched dataset in a local BoltDB
// file. It sits between the live store and the embedded seed in the loader's
// fallback chain, so a store outage degrades to recent real data rather than
// straight to toy data.
type Snapshot struct {
	db *bbolt.DB
}

// NewSnapshot opens (or creates) the snapshot database under dataPath.
func NewSnapshot(dataPath string) (*Snapshot, error) {
	dbPath := filepath.Join(dataPath, "scrap-dataset.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket)); err != nil {
			return fmt.Errorf("create dataset bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Snapshot{db: db}, nil
}

func (s *Snapshot) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save replaces the stored snapshot with the given cleaned records.
func (s *Snapshot) Save(records []Record) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(snapshotBucket))

		data, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("marshal records: %w", err)
		}
		if err := b.Put([]byte(recordsKey), data); err != nil {
			return err
		}
		return b.Put([]byte(savedAtKey), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// Load returns the stored snapshot and the time it was saved. A missing or
// empty snapshot returns no records and no error.
func (s *Snapshot) Load() ([]Record, time.Time, error) {
	var records []Record
	var savedAt time.Time

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(snapshotBucket))

		data := b.Get([]byte(recordsKey))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("unmarshal records: %w", err)
		}

		if ts := b.Get([]byte(savedAtKey)); ts != nil {
			if t, err := time.Parse(time.RFC3339, string(ts)); err == nil {
				savedAt = t
			}
		}
		return nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	return records, savedAt, nil
}
