package ranked

import "fmt"

// Accumulator sums a per-item weight across repeated additions and turns the
// totals into a ranked Set.
type Accumulator[T comparable] struct {
	weight float64
	totals map[T]float64
	order  []T
}

// NewAccumulator returns an Accumulator adding weight per occurrence.
// A non-positive weight means 1.
func NewAccumulator[T comparable](weight float64) *Accumulator[T] {
	if !(weight > 0) {
		weight = 1
	}
	return &Accumulator[T]{
		weight: weight,
		totals: make(map[T]float64),
	}
}

// Add counts one occurrence of item.
func (a *Accumulator[T]) Add(item T) {
	a.AddQuantity(item, 1)
}

// AddQuantity counts qty occurrences of item.
func (a *Accumulator[T]) AddQuantity(item T, qty float64) {
	if _, seen := a.totals[item]; !seen {
		a.order = append(a.order, item)
	}
	a.totals[item] += a.weight * qty
}

// Total returns the accumulated score of item.
func (a *Accumulator[T]) Total(item T) float64 {
	return a.totals[item]
}

// Len returns the number of distinct items.
func (a *Accumulator[T]) Len() int {
	return len(a.order)
}

// Rankings returns the totals as a Set ordered by opts.
func (a *Accumulator[T]) Rankings(opts Options) (*Set[T], error) {
	results := NewWithOptions[T](opts)
	for _, item := range a.order {
		if err := results.Add(a.totals[item], item); err != nil {
			return nil, fmt.Errorf("total for %v: %w", item, err)
		}
	}
	return results, nil
}
