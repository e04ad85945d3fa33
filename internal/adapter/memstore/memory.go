package memstore

import (
	"fmt"
	"sync"

	"fuzzydex/internal/domain"
)

// MemoryStore is a fact catalog held in memory. It is safe for concurrent
// use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.Record
	order   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]domain.Record),
	}
}

func (s *MemoryStore) put(rec domain.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: record without id", domain.ErrValidation)
	}
	if _, exists := s.records[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) PutRecord(rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(rec)
}

// PutRecords stores recs, storing none if any is invalid.
func (s *MemoryStore) PutRecords(recs []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		if rec.ID == "" {
			return fmt.Errorf("%w: record without id", domain.ErrValidation)
		}
	}
	for _, rec := range recs {
		if err := s.put(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) GetRecord(id string) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.Record{}, fmt.Errorf("%w: record not found: %s", domain.ErrLookup, id)
	}
	return rec, nil
}

func (s *MemoryStore) ListRecords() ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.Record, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.records[id])
	}
	return records, nil
}

func (s *MemoryStore) DeleteRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: record not found: %s", domain.ErrLookup, id)
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Stats() (domain.CatalogStats, error) {
	records, _ := s.ListRecords()
	return domain.SummarizeRecords(records), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
