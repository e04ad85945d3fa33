// Package fuzzyindex provides key to value multimaps answering exact, nearest
// and edit-distance ranked lookups.
package fuzzyindex

import (
	"fmt"

	"fuzzydex/internal/adapter/analyzer"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/ranked"
)

const (
	// DefaultRanking is the score given to exact and nearest hits.
	DefaultRanking = 1.0
	DefaultWeight  = 1.0
	// DefaultTolerance is the largest edit distance RankedMatches keeps.
	DefaultTolerance = 6
)

type entryList[V comparable] []domain.Pair[string, V]

func (l entryList[V]) exact(key string) (V, bool) {
	for _, e := range l {
		if e.Key == key {
			return e.Value, true
		}
	}
	var zero V
	return zero, false
}

// nearest returns the value of the closest key, first seen on ties.
func (l entryList[V]) nearest(key string) (V, bool) {
	var best V
	bestDist := -1
	for _, e := range l {
		d := analyzer.LevenshteinScanline(key, e.Key)
		if bestDist < 0 || d < bestDist {
			best, bestDist = e.Value, d
			if d == 0 {
				break
			}
		}
	}
	return best, bestDist >= 0
}

func (l entryList[V]) exactMatches(key string, opts ranked.Options) (*ranked.Set[V], error) {
	out := ranked.NewWithOptions[V](opts)
	for _, e := range l {
		if e.Key != key {
			continue
		}
		if err := out.Add(DefaultRanking, e.Value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (l entryList[V]) within(key string, tolerance int, opts ranked.Options) (*ranked.Set[V], error) {
	if tolerance < 0 {
		return nil, fmt.Errorf("%w: tolerance %d is negative", domain.ErrValidation, tolerance)
	}
	out := ranked.NewWithOptions[V](opts)
	for _, e := range l {
		d := analyzer.LevenshteinScanline(key, e.Key)
		if d > tolerance {
			continue
		}
		if err := out.Add(float64(d), e.Value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func checkValue[V comparable](key string, value V) error {
	if domain.IsNil(value) {
		return fmt.Errorf("%w: nil value for key %q", domain.ErrValidation, key)
	}
	return nil
}

func matchKey(q domain.Query) (string, error) {
	m, err := q.AsMatch()
	if err != nil {
		return "", err
	}
	return m.Key, nil
}

// nearestSet wraps a nearest hit in a set scored DefaultRanking.
func nearestSet[V comparable](value V, found bool, opts ranked.Options) (*ranked.Set[V], error) {
	out := ranked.NewWithOptions[V](opts)
	if !found {
		return out, nil
	}
	if err := out.Add(DefaultRanking, value); err != nil {
		return nil, err
	}
	return out, nil
}
