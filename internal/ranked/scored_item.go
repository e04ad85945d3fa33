// Package ranked provides a score-ordered multiset of items and the weighted
// joins used to combine per-dimension match results.
package ranked

import (
	"cmp"
	"fmt"
	"hash/maphash"

	"fuzzydex/internal/domain"
)

// DefaultEpsilon is the score distance under which two scores share a rank.
const DefaultEpsilon = 0.0004

// Comparer is implemented by items that carry their own ordering. It is used
// to separate different items whose scores fall in the same epsilon band.
type Comparer[T any] interface {
	Compare(other T) int
}

var itemSeed = maphash.MakeSeed()

// ScoredItem pairs an item with a non-negative score.
//
// Two scored items rank equal when their scores are within epsilon of each
// other and their items are equal. Different items in the same band are
// ordered by the items themselves, so they are never grouped together.
//
// The band is not transitive: a and c may both be within epsilon of b but not
// of each other, so insertion order can decide which group a near score
// joins. Different items with no natural order, the same hash and the same
// printed form compare as less than each other in both directions.
type ScoredItem[T comparable] struct {
	score   float64
	item    T
	epsilon float64
}

// NewScoredItem validates and builds a scored item.
func NewScoredItem[T comparable](score float64, item T) (ScoredItem[T], error) {
	if err := validateScore(score); err != nil {
		return ScoredItem[T]{}, err
	}
	if domain.IsNil(any(item)) {
		return ScoredItem[T]{}, fmt.Errorf("%w: item is nil", domain.ErrValidation)
	}
	return ScoredItem[T]{score: score, item: item}, nil
}

func validateScore(score float64) error {
	if !(score >= 0) {
		return fmt.Errorf("%w: score %v is negative", domain.ErrValidation, score)
	}
	return nil
}

// Score returns the item's score.
func (s ScoredItem[T]) Score() float64 { return s.score }

// Item returns the scored item.
func (s ScoredItem[T]) Item() T { return s.item }

// Epsilon returns the comparison band width.
func (s ScoredItem[T]) Epsilon() float64 {
	if s.epsilon == 0 {
		return DefaultEpsilon
	}
	return s.epsilon
}

// SetScore changes the score. Changing a scored item that is already held by
// a Set has no effect on the Set, which stores its own copy.
func (s *ScoredItem[T]) SetScore(score float64) error {
	if err := validateScore(score); err != nil {
		return err
	}
	s.score = score
	return nil
}

// SetItem changes the item.
func (s *ScoredItem[T]) SetItem(item T) error {
	if domain.IsNil(any(item)) {
		return fmt.Errorf("%w: item is nil", domain.ErrValidation)
	}
	s.item = item
	return nil
}

// SetComparisonThreshold sets the epsilon band; it must be positive.
func (s *ScoredItem[T]) SetComparisonThreshold(epsilon float64) error {
	if !(epsilon > 0) {
		return fmt.Errorf("%w: comparison threshold must be greater than zero, got %v", domain.ErrValidation, epsilon)
	}
	s.epsilon = epsilon
	return nil
}

// Compare orders s against o using s's epsilon band.
func (s ScoredItem[T]) Compare(o ScoredItem[T]) int {
	diff := s.score - o.score
	if diff < 0 {
		diff = -diff
	}
	if diff < s.Epsilon() {
		return compareItems(s.item, o.item)
	}
	if s.score < o.score {
		return -1
	}
	return 1
}

// Equal reports whether both hold the same item, whatever their scores.
func (s ScoredItem[T]) Equal(o ScoredItem[T]) bool {
	return s.item == o.item
}

func (s ScoredItem[T]) String() string {
	return fmt.Sprintf("%v(%.4f)", s.item, s.score)
}

// compareItems orders two items: equal items are 0, otherwise the items' own
// ordering when they have one, otherwise a hash order that never reports 0.
func compareItems[T comparable](a, b T) int {
	if a == b {
		return 0
	}
	switch x := any(a).(type) {
	case Comparer[T]:
		return x.Compare(b)
	case string:
		return cmp.Compare(x, any(b).(string))
	case int:
		return cmp.Compare(x, any(b).(int))
	case int8:
		return cmp.Compare(x, any(b).(int8))
	case int16:
		return cmp.Compare(x, any(b).(int16))
	case int32:
		return cmp.Compare(x, any(b).(int32))
	case int64:
		return cmp.Compare(x, any(b).(int64))
	case uint:
		return cmp.Compare(x, any(b).(uint))
	case uint8:
		return cmp.Compare(x, any(b).(uint8))
	case uint16:
		return cmp.Compare(x, any(b).(uint16))
	case uint32:
		return cmp.Compare(x, any(b).(uint32))
	case uint64:
		return cmp.Compare(x, any(b).(uint64))
	case float32:
		return cmp.Compare(x, any(b).(float32))
	case float64:
		return cmp.Compare(x, any(b).(float64))
	}

	return compareOpaque(a, b, maphash.Comparable(itemSeed, a), maphash.Comparable(itemSeed, b))
}

// compareOpaque orders different items without a natural order by their
// hashes, then by their printed form when the hashes collide. Items that
// also print the same are reported as -1 both ways.
func compareOpaque[T comparable](a, b T, ha, hb uint64) int {
	switch {
	case ha < hb:
		return -1
	case ha > hb:
		return 1
	}
	if sa, sb := fmt.Sprint(a), fmt.Sprint(b); sa != sb {
		return cmp.Compare(sa, sb)
	}
	return -1
}
