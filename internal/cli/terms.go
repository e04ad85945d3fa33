package cli

import (
	"fmt"
	"strings"

	"fuzzydex/internal/domain"
)

// parseTerms turns "dimension=key" arguments into a query. A single term
// yields a match query, several an n-ary one.
func parseTerms(args []string) (domain.Query, error) {
	if len(args) == 0 {
		return domain.Query{}, fmt.Errorf("%w: at least one dimension=key term is required", domain.ErrValidation)
	}

	matches := make([]domain.Match, 0, len(args))
	for _, arg := range args {
		dim, key, ok := strings.Cut(arg, "=")
		dim = strings.TrimSpace(dim)
		if !ok || dim == "" {
			return domain.Query{}, fmt.Errorf("%w: term %q is not dimension=key", domain.ErrValidation, arg)
		}
		matches = append(matches, domain.Match{Dimension: dim, Key: key})
	}

	if len(matches) == 1 {
		return domain.NewMatch(matches[0].Dimension, matches[0].Key), nil
	}
	return domain.NewNAry(matches...), nil
}
