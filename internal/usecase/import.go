package usecase

import (
	"fmt"

	"fuzzydex/internal/adapter/loader"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/logging"
	"fuzzydex/internal/port"
)

// ImportUseCase loads fact files into the catalog.
type ImportUseCase struct {
	catalog port.FactCatalog
	walker  port.FileWalker
	opts    loader.Options
	log     *logging.Logger
}

// NewImportUseCase creates a new import use case.
func NewImportUseCase(
	catalog port.FactCatalog,
	walker port.FileWalker,
	opts loader.Options,
	log *logging.Logger,
) *ImportUseCase {
	if log == nil {
		log = logging.Discard()
	}
	return &ImportUseCase{
		catalog: catalog,
		walker:  walker,
		opts:    opts,
		log:     log,
	}
}

// ImportResult contains the results of an import.
type ImportResult struct {
	FilesImported  int
	FilesFailed    int
	RecordsStored  int
	RecordsDeleted int
	Errors         []string
}

// Import loads every fact file under root. Records previously imported from
// a loaded file but no longer present in it are deleted. progress, when set,
// is called after each file.
func (u *ImportUseCase) Import(root string, progress func(done, total int)) (*ImportResult, error) {
	result := &ImportResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	existing, err := u.catalog.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to list existing records: %w", err)
	}
	bySource := make(map[string][]string)
	for _, rec := range existing {
		bySource[rec.Source] = append(bySource[rec.Source], rec.ID)
	}

	for i, file := range files {
		stored, deleted, err := u.importFile(file, bySource[file.Path])
		if err != nil {
			u.log.Warnf("skipping %s: %v", file.RelPath, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to import %s: %v", file.RelPath, err))
		} else {
			u.log.Debugf("imported %d records from %s", stored, file.RelPath)
			result.FilesImported++
			result.RecordsStored += stored
			result.RecordsDeleted += deleted
		}
		if progress != nil {
			progress(i+1, len(files))
		}
	}

	return result, nil
}

func (u *ImportUseCase) importFile(file port.FileInfo, previous []string) (int, int, error) {
	records, err := loader.Load(file.Path, u.opts)
	if err != nil {
		return 0, 0, err
	}

	if err := u.catalog.PutRecords(records); err != nil {
		return 0, 0, fmt.Errorf("failed to store records: %w", err)
	}

	current := make(map[string]bool, len(records))
	for _, rec := range records {
		current[rec.ID] = true
	}

	deleted := 0
	for _, id := range previous {
		if current[id] {
			continue
		}
		rec, err := u.catalog.GetRecord(id)
		if err != nil {
			continue
		}
		// The record may have moved to another file since.
		if rec.Source != file.Path {
			continue
		}
		if err := u.catalog.DeleteRecord(id); err != nil {
			return len(records), deleted, fmt.Errorf("failed to delete stale record %s: %w", id, err)
		}
		deleted++
	}

	return len(records), deleted, nil
}

// ImportRecords stores records that did not come from a file.
func (u *ImportUseCase) ImportRecords(records []domain.Record) error {
	return u.catalog.PutRecords(records)
}
