package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fuzzydex/internal/domain"
)

// CSVLoader reads one record per row. The first row names the columns.
type CSVLoader struct {
	opts Options
}

func NewCSVLoader(opts Options) *CSVLoader {
	return &CSVLoader{opts: opts}
}

func (l *CSVLoader) Load(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := l.Read(f, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Read decodes CSV from r, tagging records with source.
func (l *CSVLoader) Read(r io.Reader, source string) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.TrimSpace(h)] = i
		header[i] = strings.TrimSpace(h)
	}

	idCol, ok := columns[l.opts.idField()]
	if !ok {
		return nil, fmt.Errorf("%w: missing id column %q", domain.ErrValidation, l.opts.idField())
	}
	maps := l.opts.mappings(header)
	dims := make([]string, 0, len(maps))
	for _, m := range maps {
		if _, ok := columns[m.source]; !ok {
			return nil, fmt.Errorf("%w: missing column %q for dimension %s", domain.ErrValidation, m.source, m.dimension)
		}
		dims = append(dims, m.dimension)
	}

	var records []domain.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		values := make(map[string][]string, len(maps))
		for _, m := range maps {
			if col := columns[m.source]; col < len(row) {
				values[m.dimension] = l.opts.split(row[col])
			}
		}
		id := ""
		if idCol < len(row) {
			id = row[idCol]
		}
		rec, err := newRecord(id, source, dims, values)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
