package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fuzzydex/internal/domain"
)

// YAMLLoader reads a YAML sequence of mappings.
type YAMLLoader struct {
	opts Options
}

func NewYAMLLoader(opts Options) *YAMLLoader {
	return &YAMLLoader{opts: opts}
}

func (l *YAMLLoader) Load(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := l.Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse decodes YAML, tagging records with source. Field order follows the
// document.
func (l *YAMLLoader) Parse(data []byte, source string) ([]domain.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: expected a list of facts", domain.ErrValidation)
	}

	records := make([]domain.Record, 0, len(root.Content))
	for i, item := range root.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: item %d is not a mapping", domain.ErrValidation, i)
		}
		rec, err := l.record(item, source)
		if err != nil {
			return nil, fmt.Errorf("item %d (line %d): %w", i, item.Line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (l *YAMLLoader) record(node *yaml.Node, source string) (domain.Record, error) {
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		fields[key] = node.Content[i+1]
		keys = append(keys, key)
	}

	maps := l.opts.mappings(keys)
	dims := make([]string, 0, len(maps))
	values := make(map[string][]string, len(maps))
	for _, m := range maps {
		dims = append(dims, m.dimension)
		v, err := l.values(fields[m.source])
		if err != nil {
			return domain.Record{}, fmt.Errorf("field %s: %w", m.source, err)
		}
		values[m.dimension] = v
	}

	id := ""
	if n, ok := fields[l.opts.idField()]; ok && n.Kind == yaml.ScalarNode {
		id = n.Value
	}
	return newRecord(id, source, dims, values)
}

func (l *YAMLLoader) values(node *yaml.Node) ([]string, error) {
	if node == nil {
		return nil, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return l.opts.split(node.Value), nil
	case yaml.SequenceNode:
		var out []string
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: nested values are not supported", domain.ErrValidation)
			}
			out = append(out, l.opts.split(item.Value)...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: nested values are not supported", domain.ErrValidation)
	}
}
