package ranked

import (
	"fmt"
	"math"
	"strings"

	"github.com/emirpasic/gods/trees/redblacktree"

	"fuzzydex/internal/domain"
)

// Order is the direction of a Set.
type Order int

const (
	// Ascending puts the lowest score first; lower is better.
	Ascending Order = iota
	// Descending puts the highest score first; higher is better.
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// Bound says whether a range endpoint is included.
type Bound int

const (
	Open Bound = iota
	Closed
)

const (
	// DefaultMaxScore is the score given to a missing side of an ascending join.
	DefaultMaxScore = math.MaxFloat32
	// DefaultMinScore is the score given to a missing side of a descending join.
	DefaultMinScore = math.SmallestNonzeroFloat32
)

// Options configures a Set. Zero or negative MaxScore, MinScore and Epsilon
// fall back to the defaults; use WithMaxScore or WithMinScore to make 0 a
// real sentinel.
type Options struct {
	Order    Order
	MaxScore float64
	MinScore float64
	// Epsilon is the comparison band given to items created by Add.
	Epsilon float64

	maxScoreSet bool
	minScoreSet bool
}

// WithMaxScore returns o with an explicit ascending sentinel, which may be 0.
func (o Options) WithMaxScore(score float64) Options {
	o.MaxScore = score
	o.maxScoreSet = true
	return o
}

// WithMinScore returns o with an explicit descending sentinel, which may be 0.
func (o Options) WithMinScore(score float64) Options {
	o.MinScore = score
	o.minScoreSet = true
	return o
}

// DefaultOptions returns an ascending configuration with default sentinels.
func DefaultOptions() Options {
	return Options{
		Order:    Ascending,
		MaxScore: DefaultMaxScore,
		MinScore: DefaultMinScore,
		Epsilon:  DefaultEpsilon,
	}
}

func (o Options) normalized() Options {
	if o.MaxScore < 0 || (o.MaxScore == 0 && !o.maxScoreSet) {
		o.MaxScore = DefaultMaxScore
	}
	if o.MinScore < 0 || (o.MinScore == 0 && !o.minScoreSet) {
		o.MinScore = DefaultMinScore
	}
	if !(o.Epsilon > 0) {
		o.Epsilon = DefaultEpsilon
	}
	return o
}

// Entry is a distinct element of a Set with its number of occurrences.
type Entry[T comparable] struct {
	Element ScoredItem[T]
	Count   int
}

type bucket[T comparable] struct {
	elem  ScoredItem[T]
	count int
}

// Set is a sorted multiset of scored items.
//
// Elements are grouped by the ScoredItem ordering, not by item equality: two
// insertions of the same item with scores inside the epsilon band count as
// one element occurring twice, while the same item at distant scores is two
// elements. The first insertion of a group is kept as its representative.
//
// A Set is not safe for concurrent use.
type Set[T comparable] struct {
	opts Options
	tree *redblacktree.Tree
	size int
}

// New returns an empty ascending Set.
func New[T comparable]() *Set[T] {
	return NewWithOptions[T](DefaultOptions())
}

// NewWithOptions returns an empty Set configured by opts.
func NewWithOptions[T comparable](opts Options) *Set[T] {
	opts = opts.normalized()
	s := &Set[T]{opts: opts}
	order := opts.Order
	s.tree = redblacktree.NewWith(func(a, b interface{}) int {
		c := a.(ScoredItem[T]).Compare(b.(ScoredItem[T]))
		if order == Descending {
			return -c
		}
		return c
	})
	return s
}

// derive returns an empty Set with the same configuration.
func (s *Set[T]) derive() *Set[T] {
	return NewWithOptions[T](s.opts)
}

// Options returns the configuration of the Set.
func (s *Set[T]) Options() Options { return s.opts }

// Order returns the direction of the Set.
func (s *Set[T]) Order() Order { return s.opts.Order }

// MaxScore is the missing-side sentinel for ascending joins.
func (s *Set[T]) MaxScore() float64 { return s.opts.MaxScore }

// MinScore is the missing-side sentinel for descending joins.
func (s *Set[T]) MinScore() float64 { return s.opts.MinScore }

func (s *Set[T]) compare(a, b ScoredItem[T]) int {
	return s.tree.Comparator(a, b)
}

// Add inserts item with score once.
func (s *Set[T]) Add(score float64, item T) error {
	e, err := NewScoredItem(score, item)
	if err != nil {
		return err
	}
	e.epsilon = s.opts.Epsilon
	s.insert(e, 1)
	return nil
}

// AddItem inserts n occurrences of e and returns the count before the call.
func (s *Set[T]) AddItem(e ScoredItem[T], n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: occurrences %d is negative", domain.ErrValidation, n)
	}
	if _, err := NewScoredItem(e.score, e.item); err != nil {
		return 0, err
	}
	prev := s.Count(e)
	if n > 0 {
		s.insert(e, n)
	}
	return prev, nil
}

func (s *Set[T]) insert(e ScoredItem[T], n int) {
	if v, found := s.tree.Get(e); found {
		b := v.(bucket[T])
		b.count += n
		// Re-put under the representative so the node key never drifts.
		s.tree.Put(b.elem, b)
	} else {
		s.tree.Put(e, bucket[T]{elem: e, count: n})
	}
	s.size += n
}

// Remove drops up to n occurrences of e and returns the count before the call.
func (s *Set[T]) Remove(e ScoredItem[T], n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: occurrences %d is negative", domain.ErrValidation, n)
	}
	v, found := s.tree.Get(e)
	if !found {
		return 0, nil
	}
	b := v.(bucket[T])
	prev := b.count
	if n >= b.count {
		s.tree.Remove(b.elem)
		s.size -= b.count
		return prev, nil
	}
	b.count -= n
	s.tree.Put(b.elem, b)
	s.size -= n
	return prev, nil
}

// SetCount sets the occurrences of e to n and returns the previous count.
func (s *Set[T]) SetCount(e ScoredItem[T], n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: occurrences %d is negative", domain.ErrValidation, n)
	}
	prev := s.Count(e)
	switch {
	case n > prev:
		return s.AddItem(e, n-prev)
	case n < prev:
		return s.Remove(e, prev-n)
	}
	return prev, nil
}

// Count returns how many occurrences of e's group the Set holds.
func (s *Set[T]) Count(e ScoredItem[T]) int {
	v, found := s.tree.Get(e)
	if !found {
		return 0
	}
	return v.(bucket[T]).count
}

// Contains reports whether e's group is present.
func (s *Set[T]) Contains(e ScoredItem[T]) bool {
	_, found := s.tree.Get(e)
	return found
}

// Size returns the number of occurrences, counting duplicates.
func (s *Set[T]) Size() int { return s.size }

// IsEmpty reports whether the Set holds nothing.
func (s *Set[T]) IsEmpty() bool { return s.size == 0 }

// Each calls fn for every occurrence in order until fn returns false.
func (s *Set[T]) Each(fn func(ScoredItem[T]) bool) {
	it := s.tree.Iterator()
	for it.Next() {
		b := it.Value().(bucket[T])
		for i := 0; i < b.count; i++ {
			if !fn(b.elem) {
				return
			}
		}
	}
}

// Items returns every occurrence in order.
func (s *Set[T]) Items() []ScoredItem[T] {
	out := make([]ScoredItem[T], 0, s.size)
	s.Each(func(e ScoredItem[T]) bool {
		out = append(out, e)
		return true
	})
	return out
}

// ElementSet returns the distinct elements in order.
func (s *Set[T]) ElementSet() []ScoredItem[T] {
	out := make([]ScoredItem[T], 0, s.tree.Size())
	it := s.tree.Iterator()
	for it.Next() {
		out = append(out, it.Value().(bucket[T]).elem)
	}
	return out
}

// EntrySet returns the distinct elements with their counts, in order.
func (s *Set[T]) EntrySet() []Entry[T] {
	out := make([]Entry[T], 0, s.tree.Size())
	it := s.tree.Iterator()
	for it.Next() {
		b := it.Value().(bucket[T])
		out = append(out, Entry[T]{Element: b.elem, Count: b.count})
	}
	return out
}

// TopEntries returns at most k entries from the front of the Set.
func (s *Set[T]) TopEntries(k int) []Entry[T] {
	if k <= 0 {
		return nil
	}
	out := make([]Entry[T], 0, min(k, s.tree.Size()))
	it := s.tree.Iterator()
	for it.Next() && len(out) < k {
		b := it.Value().(bucket[T])
		out = append(out, Entry[T]{Element: b.elem, Count: b.count})
	}
	return out
}

// FirstEntry returns the best-ranked entry.
func (s *Set[T]) FirstEntry() (Entry[T], bool) {
	n := s.tree.Left()
	if n == nil {
		return Entry[T]{}, false
	}
	b := n.Value.(bucket[T])
	return Entry[T]{Element: b.elem, Count: b.count}, true
}

// LastEntry returns the worst-ranked entry.
func (s *Set[T]) LastEntry() (Entry[T], bool) {
	n := s.tree.Right()
	if n == nil {
		return Entry[T]{}, false
	}
	b := n.Value.(bucket[T])
	return Entry[T]{Element: b.elem, Count: b.count}, true
}

// PollFirstEntry removes and returns the best-ranked entry.
func (s *Set[T]) PollFirstEntry() (Entry[T], bool) {
	e, ok := s.FirstEntry()
	if ok {
		s.tree.Remove(e.Element)
		s.size -= e.Count
	}
	return e, ok
}

// PollLastEntry removes and returns the worst-ranked entry.
func (s *Set[T]) PollLastEntry() (Entry[T], bool) {
	e, ok := s.LastEntry()
	if ok {
		s.tree.Remove(e.Element)
		s.size -= e.Count
	}
	return e, ok
}

// HeadSet returns a copy of the entries ranked before upper (or equal to it
// when bound is Closed).
func (s *Set[T]) HeadSet(upper ScoredItem[T], bound Bound) *Set[T] {
	out := s.derive()
	it := s.tree.Iterator()
	for it.Next() {
		b := it.Value().(bucket[T])
		c := s.compare(b.elem, upper)
		if c > 0 || (c == 0 && bound == Open) {
			break
		}
		out.insert(b.elem, b.count)
	}
	return out
}

// TailSet returns a copy of the entries ranked after lower (or equal to it
// when bound is Closed).
func (s *Set[T]) TailSet(lower ScoredItem[T], bound Bound) *Set[T] {
	out := s.derive()
	it := s.tree.Iterator()
	it.End()
	for it.Prev() {
		b := it.Value().(bucket[T])
		c := s.compare(b.elem, lower)
		if c < 0 || (c == 0 && bound == Open) {
			break
		}
		out.insert(b.elem, b.count)
	}
	return out
}

// SubSet returns a copy of the entries between lower and upper.
func (s *Set[T]) SubSet(lower ScoredItem[T], lowerBound Bound, upper ScoredItem[T], upperBound Bound) (*Set[T], error) {
	if s.compare(lower, upper) > 0 {
		return nil, fmt.Errorf("%w: lower bound %v ranks after upper bound %v", domain.ErrValidation, lower, upper)
	}
	out := s.derive()
	it := s.tree.Iterator()
	for it.Next() {
		b := it.Value().(bucket[T])
		lc := s.compare(b.elem, lower)
		if lc < 0 || (lc == 0 && lowerBound == Open) {
			continue
		}
		uc := s.compare(b.elem, upper)
		if uc > 0 || (uc == 0 && upperBound == Open) {
			break
		}
		out.insert(b.elem, b.count)
	}
	return out, nil
}

// Descending returns a copy of the Set in the opposite direction.
func (s *Set[T]) Descending() *Set[T] {
	opts := s.opts
	if opts.Order == Descending {
		opts.Order = Ascending
	} else {
		opts.Order = Descending
	}
	out := NewWithOptions[T](opts)
	for _, e := range s.EntrySet() {
		out.insert(e.Element, e.Count)
	}
	return out
}

// Clone returns an independent copy of the Set.
func (s *Set[T]) Clone() *Set[T] {
	out := s.derive()
	for _, e := range s.EntrySet() {
		out.insert(e.Element, e.Count)
	}
	return out
}

func (s *Set[T]) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, e := range s.EntrySet() {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(e.Element.String())
		if e.Count > 1 {
			fmt.Fprintf(&sb, "x%d", e.Count)
		}
	}
	sb.WriteString("]")
	return sb.String()
}
