package port

import (
	"fuzzydex/internal/domain"
	"fuzzydex/internal/ranked"
)

// Querier resolves queries to ranked sets of values.
type Querier[V comparable] interface {
	QueryExact(q domain.Query) (*ranked.Set[V], error)

	QueryNearest(q domain.Query) (*ranked.Set[V], error)

	// QueryRanked returns every value within the index's tolerance, ranked by
	// distance. Multidimensional indexes drop joined scores above threshold.
	QueryRanked(threshold float64, q domain.Query) (*ranked.Set[V], error)
}

// Index is a fuzzy key to value multimap.
type Index[V comparable] interface {
	Querier[V]

	Weight() float64

	ExactMatch(key string) (V, bool)

	NearestMatch(key string) (V, bool)

	ExactMatches(key string) (*ranked.Set[V], error)

	RankedMatches(key string) (*ranked.Set[V], error)
}

// MutableIndex is an Index that can be built incrementally.
type MutableIndex[V comparable] interface {
	Index[V]

	SetWeight(weight float64)

	AddEntry(key string, value V) error
}
