package domain

import (
	"fmt"
	"reflect"
)

// Attribute is a named string value used to index a fact in one dimension.
type Attribute struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// NewAttribute builds an attribute, rejecting an empty name.
func NewAttribute(name, value string) (Attribute, error) {
	if name == "" {
		return Attribute{}, fmt.Errorf("%w: attribute name is empty", ErrValidation)
	}
	return Attribute{Name: name, Value: value}, nil
}

// Pair is a key/value tuple.
type Pair[K any, V any] struct {
	Key   K
	Value V
}

// KV builds a Pair.
func KV[K any, V any](key K, value V) Pair[K, V] {
	return Pair[K, V]{Key: key, Value: value}
}

// Entity holds attributes by name, in insertion order. A name may be added once.
type Entity struct {
	order []string
	attrs map[string]Attribute
}

// NewEntity creates an empty entity.
func NewEntity() *Entity {
	return &Entity{attrs: make(map[string]Attribute)}
}

// AddAttribute adds attr, failing if an attribute of the same name exists.
func (e *Entity) AddAttribute(attr Attribute) error {
	if attr.Name == "" {
		return fmt.Errorf("%w: attribute name is empty", ErrValidation)
	}
	if _, exists := e.attrs[attr.Name]; exists {
		return fmt.Errorf("%w: attribute %q already set", ErrState, attr.Name)
	}
	e.attrs[attr.Name] = attr
	e.order = append(e.order, attr.Name)
	return nil
}

// AddAll adds every attribute, stopping at the first failure.
func (e *Entity) AddAll(attrs []Attribute) error {
	for _, a := range attrs {
		if err := e.AddAttribute(a); err != nil {
			return err
		}
	}
	return nil
}

// Attribute returns the attribute called name.
func (e *Entity) Attribute(name string) (Attribute, bool) {
	a, ok := e.attrs[name]
	return a, ok
}

// SetAttribute replaces an existing attribute.
func (e *Entity) SetAttribute(attr Attribute) error {
	if _, exists := e.attrs[attr.Name]; !exists {
		return fmt.Errorf("%w: attribute %q not set", ErrLookup, attr.Name)
	}
	e.attrs[attr.Name] = attr
	return nil
}

// Attributes returns the attributes in insertion order.
func (e *Entity) Attributes() []Attribute {
	out := make([]Attribute, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.attrs[name])
	}
	return out
}

// Record is a fact as stored in the catalog: an identifier, one attribute per
// dimension, and any extra aliases for those dimensions.
type Record struct {
	ID         string      `json:"id"`
	Attributes []Attribute `json:"attributes"`
	Aliases    []Attribute `json:"aliases,omitempty"`
	Source     string      `json:"source,omitempty"`
}

// ScoredFact is a resolved fact with its combined score.
type ScoredFact struct {
	Fact  string  `json:"fact"`
	Score float64 `json:"score"`
	Count int     `json:"count,omitempty"`
}

// CatalogStats summarises a fact catalog.
type CatalogStats struct {
	TotalFacts   int            `json:"total_facts"`
	TotalAliases int            `json:"total_aliases"`
	Dimensions   map[string]int `json:"dimensions"`
}

// IsNil reports whether v is nil, including typed nil pointers, maps,
// slices, channels and funcs stored in an interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// SummarizeRecords counts facts, aliases and per-dimension attribute values.
func SummarizeRecords(records []Record) CatalogStats {
	stats := CatalogStats{Dimensions: make(map[string]int)}
	for _, r := range records {
		stats.TotalFacts++
		stats.TotalAliases += len(r.Aliases)
		for _, a := range r.Attributes {
			stats.Dimensions[a.Name]++
		}
		for _, a := range r.Aliases {
			stats.Dimensions[a.Name]++
		}
	}
	return stats
}
