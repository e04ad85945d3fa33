package fuzzyindex

import (
	"fmt"

	"fuzzydex/internal/adapter/analyzer"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/ranked"
)

// BucketIndex groups entries by their encoded key. Fuzzy lookups only scan
// the bucket the query key encodes to.
type BucketIndex[V comparable] struct {
	encoder   analyzer.KeyEncoder
	buckets   map[string]entryList[V]
	size      int
	weight    float64
	tolerance int
	opts      ranked.Options
}

// NewBucketIndex returns a bucketed index. A nil encoder selects
// analyzer.StemEncoder.
func NewBucketIndex[V comparable](encoder analyzer.KeyEncoder) *BucketIndex[V] {
	return NewBucketIndexWithOptions[V](encoder, ranked.DefaultOptions())
}

func NewBucketIndexWithOptions[V comparable](encoder analyzer.KeyEncoder, opts ranked.Options) *BucketIndex[V] {
	if encoder == nil {
		encoder = analyzer.StemEncoder{}
	}
	return &BucketIndex[V]{
		encoder:   encoder,
		buckets:   make(map[string]entryList[V]),
		weight:    DefaultWeight,
		tolerance: DefaultTolerance,
		opts:      opts,
	}
}

func (x *BucketIndex[V]) Weight() float64 { return x.weight }

func (x *BucketIndex[V]) SetWeight(weight float64) { x.weight = weight }

func (x *BucketIndex[V]) Tolerance() int { return x.tolerance }

func (x *BucketIndex[V]) SetTolerance(tolerance int) error {
	if tolerance < 0 {
		return fmt.Errorf("%w: tolerance %d is negative", domain.ErrValidation, tolerance)
	}
	x.tolerance = tolerance
	return nil
}

func (x *BucketIndex[V]) Len() int { return x.size }

// Buckets returns the number of distinct encoded keys.
func (x *BucketIndex[V]) Buckets() int { return len(x.buckets) }

func (x *BucketIndex[V]) AddEntry(key string, value V) error {
	if err := checkValue(key, value); err != nil {
		return err
	}
	code := x.encoder.Encode(key)
	x.buckets[code] = append(x.buckets[code], domain.KV(key, value))
	x.size++
	return nil
}

func (x *BucketIndex[V]) bucket(key string) entryList[V] {
	return x.buckets[x.encoder.Encode(key)]
}

func (x *BucketIndex[V]) ExactMatch(key string) (V, bool) {
	return x.bucket(key).exact(key)
}

func (x *BucketIndex[V]) NearestMatch(key string) (V, bool) {
	return x.bucket(key).nearest(key)
}

func (x *BucketIndex[V]) ExactMatches(key string) (*ranked.Set[V], error) {
	return x.bucket(key).exactMatches(key, x.opts)
}

func (x *BucketIndex[V]) RankedMatches(key string) (*ranked.Set[V], error) {
	return x.bucket(key).within(key, x.tolerance, x.opts)
}

func (x *BucketIndex[V]) RankedMatchesWithinTolerance(key string, tolerance int) (*ranked.Set[V], error) {
	return x.bucket(key).within(key, tolerance, x.opts)
}

func (x *BucketIndex[V]) QueryExact(q domain.Query) (*ranked.Set[V], error) {
	key, err := matchKey(q)
	if err != nil {
		return nil, err
	}
	return x.ExactMatches(key)
}

func (x *BucketIndex[V]) QueryNearest(q domain.Query) (*ranked.Set[V], error) {
	key, err := matchKey(q)
	if err != nil {
		return nil, err
	}
	value, found := x.NearestMatch(key)
	return nearestSet(value, found, x.opts)
}

func (x *BucketIndex[V]) QueryRanked(threshold float64, q domain.Query) (*ranked.Set[V], error) {
	key, err := matchKey(q)
	if err != nil {
		return nil, err
	}
	return x.RankedMatches(key)
}
