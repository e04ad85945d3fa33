// Package loader decodes fact records from CSV, JSON and YAML files.
package loader

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"fuzzydex/internal/domain"
	"fuzzydex/internal/port"
)

// Options maps source fields onto index dimensions.
type Options struct {
	IDField string
	// Fields maps a dimension to its source column, gjson path or YAML key.
	// When empty every field except the ID becomes a dimension of the same
	// name.
	Fields map[string]string
	// AliasSeparator splits a field into a primary value and aliases.
	AliasSeparator string
}

func (o Options) idField() string {
	if o.IDField == "" {
		return "id"
	}
	return o.IDField
}

// mapping pairs a dimension with the field it is read from.
type mapping struct {
	dimension string
	source    string
}

// mappings resolves the configured fields, or derives them from the fields
// present in the source, preserving their order.
func (o Options) mappings(available []string) []mapping {
	if len(o.Fields) > 0 {
		dims := make([]string, 0, len(o.Fields))
		for dim := range o.Fields {
			dims = append(dims, dim)
		}
		sort.Strings(dims)
		out := make([]mapping, 0, len(dims))
		for _, dim := range dims {
			src := o.Fields[dim]
			if src == "" {
				src = dim
			}
			out = append(out, mapping{dimension: dim, source: src})
		}
		return out
	}

	out := make([]mapping, 0, len(available))
	for _, f := range available {
		if f != o.idField() {
			out = append(out, mapping{dimension: f, source: f})
		}
	}
	return out
}

// split breaks a raw field into trimmed, non-empty values.
func (o Options) split(raw string) []string {
	parts := []string{raw}
	if o.AliasSeparator != "" {
		parts = strings.Split(raw, o.AliasSeparator)
	}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// newRecord turns the values read for each dimension into a record. The
// first value of a dimension is its attribute, the rest are aliases.
func newRecord(id, source string, dims []string, values map[string][]string) (domain.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Record{}, fmt.Errorf("%w: record without id", domain.ErrValidation)
	}

	rec := domain.Record{ID: id, Source: source}
	for _, dim := range dims {
		vals := values[dim]
		if len(vals) == 0 {
			continue
		}
		attr, err := domain.NewAttribute(dim, vals[0])
		if err != nil {
			return domain.Record{}, err
		}
		rec.Attributes = append(rec.Attributes, attr)
		for _, alias := range vals[1:] {
			rec.Aliases = append(rec.Aliases, domain.Attribute{Name: dim, Value: alias})
		}
	}
	return rec, nil
}

// ForPath returns the loader for path's extension.
func ForPath(path string, opts Options) (port.RecordLoader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVLoader(opts), nil
	case ".json", ".jsonl", ".ndjson":
		return NewJSONLoader(opts), nil
	case ".yaml", ".yml":
		return NewYAMLLoader(opts), nil
	default:
		return nil, fmt.Errorf("%w: unsupported fact file %s", domain.ErrValidation, path)
	}
}

// Load decodes path with the loader for its extension.
func Load(path string, opts Options) ([]domain.Record, error) {
	l, err := ForPath(path, opts)
	if err != nil {
		return nil, err
	}
	return l.Load(path)
}

// Parse decodes content already read into memory, choosing the format from
// name's extension. name is recorded as each record's source.
func Parse(name string, content []byte, opts Options) ([]domain.Record, error) {
	l, err := ForPath(name, opts)
	if err != nil {
		return nil, err
	}
	switch l := l.(type) {
	case *CSVLoader:
		return l.Read(bytes.NewReader(content), name)
	case *JSONLoader:
		return l.Parse(string(content), name)
	case *YAMLLoader:
		return l.Parse(content, name)
	}
	return nil, fmt.Errorf("%w: unsupported fact file %s", domain.ErrValidation, name)
}
