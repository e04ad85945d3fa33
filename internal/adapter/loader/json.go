package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"fuzzydex/internal/domain"
)

// JSONLoader reads a JSON array of objects, or one object per line.
// Dimension fields are gjson paths, so nested values can be indexed.
type JSONLoader struct {
	opts Options
}

func NewJSONLoader(opts Options) *JSONLoader {
	return &JSONLoader{opts: opts}
}

func (l *JSONLoader) Load(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := l.Parse(string(data), path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse decodes JSON text, tagging records with source.
func (l *JSONLoader) Parse(text, source string) ([]domain.Record, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	var objects []gjson.Result
	if strings.HasPrefix(trimmed, "[") {
		if !gjson.Valid(trimmed) {
			return nil, fmt.Errorf("%w: invalid JSON", domain.ErrValidation)
		}
		objects = gjson.Parse(trimmed).Array()
	} else {
		var invalid bool
		gjson.ForEachLine(trimmed, func(line gjson.Result) bool {
			if !gjson.Valid(line.Raw) {
				invalid = true
				return false
			}
			objects = append(objects, line)
			return true
		})
		if invalid {
			return nil, fmt.Errorf("%w: invalid JSON line", domain.ErrValidation)
		}
	}

	records := make([]domain.Record, 0, len(objects))
	for i, obj := range objects {
		if !obj.IsObject() {
			return nil, fmt.Errorf("%w: element %d is not an object", domain.ErrValidation, i)
		}
		rec, err := l.record(obj, source)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (l *JSONLoader) record(obj gjson.Result, source string) (domain.Record, error) {
	var keys []string
	obj.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})

	maps := l.opts.mappings(keys)
	dims := make([]string, 0, len(maps))
	values := make(map[string][]string, len(maps))
	for _, m := range maps {
		dims = append(dims, m.dimension)
		values[m.dimension] = l.values(obj.Get(m.source))
	}

	return newRecord(obj.Get(l.opts.idField()).String(), source, dims, values)
}

// values flattens a field: arrays give one value per element, scalars are
// split on the alias separator.
func (l *JSONLoader) values(field gjson.Result) []string {
	if !field.Exists() || field.Type == gjson.Null {
		return nil
	}
	if field.IsArray() {
		var out []string
		for _, item := range field.Array() {
			out = append(out, l.opts.split(item.String())...)
		}
		return out
	}
	return l.opts.split(field.String())
}
