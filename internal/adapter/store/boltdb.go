package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"fuzzydex/internal/domain"
)

var (
	bucketRecords = []byte("records")
	bucketMeta    = []byte("meta")
)

// BoltStore is a fact catalog in a bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketRecords, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

// storedRecord keeps the insertion sequence so listings follow import order
// instead of key order.
type storedRecord struct {
	Seq    uint64        `json:"seq"`
	Record domain.Record `json:"record"`
}

func validateRecord(rec domain.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: record without id", domain.ErrValidation)
	}
	return nil
}

func putRecord(b *bbolt.Bucket, rec domain.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	stored := storedRecord{Record: rec}
	if existing := b.Get([]byte(rec.ID)); existing != nil {
		var prev storedRecord
		if err := json.Unmarshal(existing, &prev); err != nil {
			return err
		}
		stored.Seq = prev.Seq
	} else {
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		stored.Seq = seq
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return b.Put([]byte(rec.ID), data)
}

// PutRecord stores rec, replacing any record with the same ID but keeping
// its position.
func (s *BoltStore) PutRecord(rec domain.Record) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putRecord(tx.Bucket(bucketRecords), rec)
	})
}

// PutRecords stores recs in one transaction.
func (s *BoltStore) PutRecords(recs []domain.Record) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		for _, rec := range recs {
			if err := putRecord(b, rec); err != nil {
				return fmt.Errorf("record %q: %w", rec.ID, err)
			}
		}
		return nil
	})
}

func (s *BoltStore) GetRecord(id string) (domain.Record, error) {
	var rec domain.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: record not found: %s", domain.ErrLookup, id)
		}
		var stored storedRecord
		if err := json.Unmarshal(data, &stored); err != nil {
			return err
		}
		rec = stored.Record
		return nil
	})
	return rec, err
}

// ListRecords returns every record in the order it was first stored.
func (s *BoltStore) ListRecords() ([]domain.Record, error) {
	var stored []storedRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			var sr storedRecord
			if err := json.Unmarshal(v, &sr); err != nil {
				return fmt.Errorf("decode record %s: %w", k, err)
			}
			stored = append(stored, sr)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(stored, func(i, j int) bool { return stored[i].Seq < stored[j].Seq })
	records := make([]domain.Record, len(stored))
	for i, sr := range stored {
		records[i] = sr.Record
	}
	return records, nil
}

func (s *BoltStore) DeleteRecord(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: record not found: %s", domain.ErrLookup, id)
		}
		return b.Delete([]byte(id))
	})
}

func (s *BoltStore) Stats() (domain.CatalogStats, error) {
	records, err := s.ListRecords()
	if err != nil {
		return domain.CatalogStats{}, err
	}
	return domain.SummarizeRecords(records), nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
