package usecase

import (
	"fmt"

	"fuzzydex/internal/adapter/cache"
	"fuzzydex/internal/adapter/multidex"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/ranked"
)

// ResolveUseCase answers queries against a built index.
type ResolveUseCase struct {
	index    *multidex.Index[string]
	cache    *cache.QueryCache
	resolver cache.Resolver
}

// NewResolveUseCase creates a resolve use case. A nil queryCache disables
// caching.
func NewResolveUseCase(index *multidex.Index[string], queryCache *cache.QueryCache) *ResolveUseCase {
	u := &ResolveUseCase{
		index: index,
		cache: queryCache,
	}
	u.resolver = indexResolver{index: index}
	if queryCache != nil {
		u.resolver = cache.NewCachedResolver(u.resolver, queryCache)
	}
	return u
}

// Resolve runs req and returns at most req.TopK facts, best first.
func (u *ResolveUseCase) Resolve(req domain.ResolveRequest) ([]domain.ScoredFact, error) {
	return u.resolver.Resolve(req)
}

// AddFact indexes a new fact and invalidates cached results.
func (u *ResolveUseCase) AddFact(fact string, attrs ...domain.Attribute) error {
	if err := u.index.AddFact(fact, attrs...); err != nil {
		return err
	}
	u.invalidate()
	return nil
}

// AddAliases indexes extra attributes for an existing fact and invalidates
// cached results.
func (u *ResolveUseCase) AddAliases(fact string, attrs ...domain.Attribute) error {
	if err := u.index.AddIndexMembersForExistingFact(fact, attrs...); err != nil {
		return err
	}
	u.invalidate()
	return nil
}

func (u *ResolveUseCase) invalidate() {
	if u.cache != nil {
		u.cache.Invalidate()
	}
}

type indexResolver struct {
	index *multidex.Index[string]
}

func (r indexResolver) Resolve(req domain.ResolveRequest) ([]domain.ScoredFact, error) {
	var (
		set *ranked.Set[string]
		err error
	)
	switch req.Mode {
	case domain.ExactMode:
		set, err = r.index.QueryExact(req.Query)
	case domain.NearestMode:
		set, err = r.index.QueryNearest(req.Query)
	case domain.RankedMode:
		set, err = r.index.QueryRanked(req.Threshold, req.Query)
	default:
		return nil, fmt.Errorf("%w: unknown query mode %q", domain.ErrValidation, req.Mode)
	}
	if err != nil {
		return nil, err
	}

	entries := set.EntrySet()
	if req.TopK > 0 {
		entries = set.TopEntries(req.TopK)
	}
	results := make([]domain.ScoredFact, 0, len(entries))
	for _, e := range entries {
		results = append(results, domain.ScoredFact{
			Fact:  e.Element.Item(),
			Score: e.Element.Score(),
			Count: e.Count,
		})
	}
	return results, nil
}
