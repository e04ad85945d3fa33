// Package multidex composes named fuzzy indexes into a single index over
// facts described by several attributes.
package multidex

import (
	"fmt"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"fuzzydex/internal/adapter/fuzzyindex"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/port"
	"fuzzydex/internal/ranked"
)

// Index resolves facts through one fuzzy index per dimension. Scores from
// each dimension are folded together with weighted joins in query order.
type Index[V comparable] struct {
	dimensions map[string]port.MutableIndex[V]
	order      []string
	facts      *linkedhashset.Set
	opts       ranked.Options
}

// New returns an index that tracks facts and validates them on insert.
func New[V comparable]() *Index[V] {
	return NewWithOptions[V](ranked.DefaultOptions())
}

// NewWithOptions returns an index whose AddIndexDimension dimensions rank
// results with opts.
func NewWithOptions[V comparable](opts ranked.Options) *Index[V] {
	return &Index[V]{
		dimensions: make(map[string]port.MutableIndex[V]),
		facts:      linkedhashset.New(),
		opts:       opts,
	}
}

// DisableFactValidation stops tracking facts. Duplicate facts are then
// accepted and AddIndexMembersForExistingFact no longer checks the fact.
func (x *Index[V]) DisableFactValidation() {
	x.facts = nil
}

// ValidatesFacts reports whether facts are tracked.
func (x *Index[V]) ValidatesFacts() bool { return x.facts != nil }

// AddIndexDimension registers a scanning index under name.
func (x *Index[V]) AddIndexDimension(name string) error {
	return x.AddDimension(name, fuzzyindex.NewScanIndexWithOptions[V](x.opts))
}

// AddDimension registers idx under name.
func (x *Index[V]) AddDimension(name string, idx port.MutableIndex[V]) error {
	if name == "" {
		return fmt.Errorf("%w: dimension name is empty", domain.ErrValidation)
	}
	if domain.IsNil(idx) {
		return fmt.Errorf("%w: nil index for dimension %q", domain.ErrValidation, name)
	}
	if _, exists := x.dimensions[name]; exists {
		return fmt.Errorf("%w: dimension %q already registered", domain.ErrState, name)
	}
	x.dimensions[name] = idx
	x.order = append(x.order, name)
	return nil
}

// Index returns the dimension registered under name.
func (x *Index[V]) Index(name string) (port.MutableIndex[V], error) {
	idx, ok := x.dimensions[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown dimension %q", domain.ErrLookup, name)
	}
	return idx, nil
}

// Dimensions returns the dimension names in registration order.
func (x *Index[V]) Dimensions() []string {
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// AddFact indexes fact under each attribute's dimension. When facts are
// tracked a fact can only be added once.
func (x *Index[V]) AddFact(fact V, attrs ...domain.Attribute) error {
	if domain.IsNil(fact) {
		return fmt.Errorf("%w: nil fact", domain.ErrValidation)
	}
	if x.facts != nil && x.facts.Contains(fact) {
		return fmt.Errorf("%w: fact %v already exists", domain.ErrState, fact)
	}
	if err := x.index(fact, attrs); err != nil {
		return err
	}
	if x.facts != nil {
		x.facts.Add(fact)
	}
	return nil
}

// AddIndexMembersForExistingFact indexes further attributes, such as
// aliases, for a fact that was already added.
func (x *Index[V]) AddIndexMembersForExistingFact(fact V, attrs ...domain.Attribute) error {
	if domain.IsNil(fact) {
		return fmt.Errorf("%w: nil fact", domain.ErrValidation)
	}
	if x.facts != nil && !x.facts.Contains(fact) {
		return fmt.Errorf("%w: fact %v does not exist", domain.ErrState, fact)
	}
	return x.index(fact, attrs)
}

// index checks every dimension before adding anything, so a bad attribute
// leaves the index unchanged.
func (x *Index[V]) index(fact V, attrs []domain.Attribute) error {
	targets := make([]port.MutableIndex[V], len(attrs))
	for i, a := range attrs {
		idx, err := x.Index(a.Name)
		if err != nil {
			return err
		}
		targets[i] = idx
	}
	for i, a := range attrs {
		if err := targets[i].AddEntry(a.Value, fact); err != nil {
			return fmt.Errorf("dimension %s: %w", a.Name, err)
		}
	}
	return nil
}

// Facts lists tracked facts in insertion order. It is empty when fact
// validation is disabled.
func (x *Index[V]) Facts() []V {
	if x.facts == nil {
		return nil
	}
	values := x.facts.Values()
	out := make([]V, 0, len(values))
	for _, v := range values {
		out = append(out, v.(V))
	}
	return out
}

// FactCount returns the number of tracked facts.
func (x *Index[V]) FactCount() int {
	if x.facts == nil {
		return 0
	}
	return x.facts.Size()
}

// QueryExact returns the facts matching every term exactly.
func (x *Index[V]) QueryExact(q domain.Query) (*ranked.Set[V], error) {
	return x.fold(q,
		func(idx port.MutableIndex[V], m domain.Query) (*ranked.Set[V], error) {
			return idx.QueryExact(m)
		},
		func(acc, next *ranked.Set[V], lWeight, rWeight float64) (*ranked.Set[V], error) {
			return acc.WeightedInsideJoin(next, lWeight, rWeight)
		})
}

// QueryNearest returns the facts that are the nearest match in every term's
// dimension.
func (x *Index[V]) QueryNearest(q domain.Query) (*ranked.Set[V], error) {
	return x.fold(q,
		func(idx port.MutableIndex[V], m domain.Query) (*ranked.Set[V], error) {
			return idx.QueryNearest(m)
		},
		func(acc, next *ranked.Set[V], lWeight, rWeight float64) (*ranked.Set[V], error) {
			return acc.WeightedInsideJoin(next, lWeight, rWeight)
		})
}

// QueryRanked ranks facts by their per-dimension edit distances. A fact
// missing from a dimension is scored at the set's worst score, and joined
// scores past threshold are dropped.
func (x *Index[V]) QueryRanked(threshold float64, q domain.Query) (*ranked.Set[V], error) {
	return x.fold(q,
		func(idx port.MutableIndex[V], m domain.Query) (*ranked.Set[V], error) {
			return idx.QueryRanked(threshold, m)
		},
		func(acc, next *ranked.Set[V], lWeight, rWeight float64) (*ranked.Set[V], error) {
			return acc.WeightedLeftOuterJoin(next, lWeight, rWeight, threshold)
		})
}

type lookupFunc[V comparable] func(idx port.MutableIndex[V], m domain.Query) (*ranked.Set[V], error)

type joinFunc[V comparable] func(acc, next *ranked.Set[V], lWeight, rWeight float64) (*ranked.Set[V], error)

// fold resolves the first term on its own, then joins each further term
// into the running result with the previous and current dimension weights.
func (x *Index[V]) fold(q domain.Query, lookup lookupFunc[V], join joinFunc[V]) (*ranked.Set[V], error) {
	terms, err := q.Subqueries()
	if err != nil {
		return nil, err
	}

	var (
		result     *ranked.Set[V]
		prevWeight float64
	)
	for i, term := range terms {
		idx, err := x.Index(term.Dimension)
		if err != nil {
			return nil, err
		}
		set, err := lookup(idx, domain.NewMatch(term.Dimension, term.Key))
		if err != nil {
			return nil, fmt.Errorf("dimension %s: %w", term.Dimension, err)
		}
		if i == 0 {
			result, prevWeight = set, idx.Weight()
			continue
		}
		result, err = join(result, set, prevWeight, idx.Weight())
		if err != nil {
			return nil, fmt.Errorf("join %s: %w", term.Dimension, err)
		}
		prevWeight = idx.Weight()
	}
	return result, nil
}
