package port

import "fuzzydex/internal/domain"

// FactCatalog stores the source records a multidimensional index is built
// from.
type FactCatalog interface {
	PutRecord(rec domain.Record) error

	PutRecords(recs []domain.Record) error

	GetRecord(id string) (domain.Record, error)

	ListRecords() ([]domain.Record, error)

	DeleteRecord(id string) error

	Stats() (domain.CatalogStats, error)

	Close() error
}

// RecordLoader decodes fact records from a file.
type RecordLoader interface {
	Load(path string) ([]domain.Record, error)
}
