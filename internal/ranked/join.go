package ranked

import (
	"fmt"

	"fuzzydex/internal/domain"
)

// joinIndex maps each item of s to its best-ranked element, and keeps the
// items in rank order for the right-only pass of an outer join. When s holds
// an item more than once the first occurrence in rank order wins, not the
// last one inserted.
func (s *Set[T]) joinIndex() (map[T]ScoredItem[T], []T) {
	index := make(map[T]ScoredItem[T], s.tree.Size())
	order := make([]T, 0, s.tree.Size())
	s.Each(func(e ScoredItem[T]) bool {
		if _, seen := index[e.item]; !seen {
			index[e.item] = e
			order = append(order, e.item)
		}
		return true
	})
	return index, order
}

func validateJoin[T comparable](r *Set[T], lWeight, rWeight float64) error {
	if r == nil {
		return fmt.Errorf("%w: join with a nil set", domain.ErrValidation)
	}
	if !(lWeight >= 0) || !(rWeight >= 0) {
		return fmt.Errorf("%w: join weights must be non-negative, got %v and %v", domain.ErrValidation, lWeight, rWeight)
	}
	return nil
}

// missingScore is the score assumed for an item absent from one side of a
// join. It sits at the bad end of the ranking.
func (s *Set[T]) missingScore() float64 {
	if s.opts.Order == Descending {
		return s.opts.MinScore
	}
	return s.opts.MaxScore
}

func (s *Set[T]) admits(score, threshold float64) bool {
	if s.opts.Order == Descending {
		return score >= threshold
	}
	return score <= threshold
}

func (s *Set[T]) scored(score float64, item T) ScoredItem[T] {
	return ScoredItem[T]{score: score, item: item, epsilon: s.opts.Epsilon}
}

// WeightedInsideJoin returns the items present in both s and r. Each result
// is scored (lScore*lWeight + rScore*rWeight) / 2 and keeps the left item.
// Every occurrence on the left is joined, so left duplicates stay duplicated.
func (s *Set[T]) WeightedInsideJoin(r *Set[T], lWeight, rWeight float64) (*Set[T], error) {
	if err := validateJoin(r, lWeight, rWeight); err != nil {
		return nil, err
	}

	results := s.derive()
	index, _ := r.joinIndex()

	s.Each(func(l ScoredItem[T]) bool {
		if m, ok := index[l.item]; ok {
			results.insert(s.scored((l.score*lWeight+m.score*rWeight)/2, l.item), 1)
		}
		return true
	})

	return results, nil
}

// WeightedLeftOuterJoin returns the items present in s, r or both. A side
// that lacks the item contributes the missing-score sentinel, which pushes
// partial matches toward the bad end. Results that do not pass threshold
// (score <= threshold ascending, >= descending) are dropped.
//
// With a fully permissive threshold the result holds at least
// |L| + |R| - |L∩R| elements.
func (s *Set[T]) WeightedLeftOuterJoin(r *Set[T], lWeight, rWeight, threshold float64) (*Set[T], error) {
	if err := validateJoin(r, lWeight, rWeight); err != nil {
		return nil, err
	}
	if !(threshold >= 0) {
		return nil, fmt.Errorf("%w: threshold %v is negative", domain.ErrValidation, threshold)
	}

	results := s.derive()
	index, order := r.joinIndex()
	missing := s.missingScore()

	s.Each(func(l ScoredItem[T]) bool {
		lScore := l.score * lWeight
		rScore := missing * rWeight
		m, ok := index[l.item]
		if ok {
			rScore = m.score * rWeight
		}

		score := (lScore + rScore) / 2
		if s.admits(score, threshold) {
			results.insert(s.scored(score, l.item), 1)
		}

		// A consumed right element is not offered again in the right-only pass.
		if ok {
			delete(index, l.item)
		}
		return true
	})

	for _, item := range order {
		m, ok := index[item]
		if !ok {
			continue
		}
		score := (missing*lWeight + m.score*rWeight) / 2
		if s.admits(score, threshold) {
			results.insert(s.scored(score, item), 1)
		}
	}

	return results, nil
}
