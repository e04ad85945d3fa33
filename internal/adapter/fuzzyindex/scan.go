package fuzzyindex

import (
	"fmt"

	"fuzzydex/internal/domain"
	"fuzzydex/internal/ranked"
)

// ScanIndex keeps its entries in insertion order and compares every key
// on each fuzzy lookup.
type ScanIndex[V comparable] struct {
	entries   entryList[V]
	weight    float64
	tolerance int
	opts      ranked.Options
}

func NewScanIndex[V comparable]() *ScanIndex[V] {
	return NewScanIndexWithOptions[V](ranked.DefaultOptions())
}

// NewScanIndexWithOptions returns an index whose result sets use opts.
func NewScanIndexWithOptions[V comparable](opts ranked.Options) *ScanIndex[V] {
	return &ScanIndex[V]{
		weight:    DefaultWeight,
		tolerance: DefaultTolerance,
		opts:      opts,
	}
}

func (x *ScanIndex[V]) Weight() float64 { return x.weight }

func (x *ScanIndex[V]) SetWeight(weight float64) { x.weight = weight }

func (x *ScanIndex[V]) Tolerance() int { return x.tolerance }

func (x *ScanIndex[V]) SetTolerance(tolerance int) error {
	if tolerance < 0 {
		return fmt.Errorf("%w: tolerance %d is negative", domain.ErrValidation, tolerance)
	}
	x.tolerance = tolerance
	return nil
}

// Len returns the number of entries.
func (x *ScanIndex[V]) Len() int { return len(x.entries) }

// AddEntry appends a key/value pair. Duplicate keys and values are kept.
func (x *ScanIndex[V]) AddEntry(key string, value V) error {
	if err := checkValue(key, value); err != nil {
		return err
	}
	x.entries = append(x.entries, domain.KV(key, value))
	return nil
}

func (x *ScanIndex[V]) ExactMatch(key string) (V, bool) {
	return x.entries.exact(key)
}

func (x *ScanIndex[V]) NearestMatch(key string) (V, bool) {
	return x.entries.nearest(key)
}

func (x *ScanIndex[V]) ExactMatches(key string) (*ranked.Set[V], error) {
	return x.entries.exactMatches(key, x.opts)
}

func (x *ScanIndex[V]) RankedMatches(key string) (*ranked.Set[V], error) {
	return x.entries.within(key, x.tolerance, x.opts)
}

func (x *ScanIndex[V]) RankedMatchesWithinTolerance(key string, tolerance int) (*ranked.Set[V], error) {
	return x.entries.within(key, tolerance, x.opts)
}

func (x *ScanIndex[V]) QueryExact(q domain.Query) (*ranked.Set[V], error) {
	key, err := matchKey(q)
	if err != nil {
		return nil, err
	}
	return x.ExactMatches(key)
}

func (x *ScanIndex[V]) QueryNearest(q domain.Query) (*ranked.Set[V], error) {
	key, err := matchKey(q)
	if err != nil {
		return nil, err
	}
	value, found := x.NearestMatch(key)
	return nearestSet(value, found, x.opts)
}

// QueryRanked ranks by tolerance only; threshold applies when results are
// joined across dimensions.
func (x *ScanIndex[V]) QueryRanked(threshold float64, q domain.Query) (*ranked.Set[V], error) {
	key, err := matchKey(q)
	if err != nil {
		return nil, err
	}
	return x.RankedMatches(key)
}
