package domain

import (
	"fmt"
	"strings"
)

// QueryKind tags the shape of a Query.
type QueryKind int

const (
	// MatchQuery targets a single dimension.
	MatchQuery QueryKind = iota + 1
	// NAryQuery is an ordered sequence of matches, one per dimension.
	NAryQuery
)

func (k QueryKind) String() string {
	switch k {
	case MatchQuery:
		return "match"
	case NAryQuery:
		return "n-ary"
	default:
		return fmt.Sprintf("QueryKind(%d)", int(k))
	}
}

// Match asks one dimension for entries near Key.
type Match struct {
	Dimension string `json:"dimension"`
	Key       string `json:"key"`
}

// Query is either a single Match or an N-ary sequence of them.
type Query struct {
	Kind  QueryKind
	Terms []Match
}

// NewMatch builds a single-dimension query.
func NewMatch(dimension, key string) Query {
	return Query{Kind: MatchQuery, Terms: []Match{{Dimension: dimension, Key: key}}}
}

// NewNAry builds a query over several dimensions, resolved in the given order.
func NewNAry(matches ...Match) Query {
	terms := make([]Match, len(matches))
	copy(terms, matches)
	return Query{Kind: NAryQuery, Terms: terms}
}

// QueryFromAttributes builds an N-ary query with one match per attribute.
func QueryFromAttributes(attrs ...Attribute) Query {
	terms := make([]Match, 0, len(attrs))
	for _, a := range attrs {
		terms = append(terms, Match{Dimension: a.Name, Key: a.Value})
	}
	return Query{Kind: NAryQuery, Terms: terms}
}

// AsMatch returns the single match of a MatchQuery.
func (q Query) AsMatch() (Match, error) {
	switch q.Kind {
	case MatchQuery:
		if len(q.Terms) != 1 {
			return Match{}, fmt.Errorf("%w: match query with %d terms", ErrQueryShape, len(q.Terms))
		}
		return q.Terms[0], nil
	case NAryQuery:
		return Match{}, fmt.Errorf("%w: expected a match query, got %s", ErrQueryShape, q.Kind)
	default:
		return Match{}, fmt.Errorf("%w: %s", ErrQueryShape, q.Kind)
	}
}

// Subqueries returns the matches to resolve in order. A match query is
// treated as a one-term N-ary query.
func (q Query) Subqueries() ([]Match, error) {
	switch q.Kind {
	case MatchQuery:
		m, err := q.AsMatch()
		if err != nil {
			return nil, err
		}
		return []Match{m}, nil
	case NAryQuery:
		if len(q.Terms) == 0 {
			return nil, fmt.Errorf("%w: n-ary query has no terms", ErrQueryShape)
		}
		return q.Terms, nil
	default:
		return nil, fmt.Errorf("%w: expected a match or n-ary query, got %s", ErrQueryShape, q.Kind)
	}
}

func (q Query) String() string {
	parts := make([]string, 0, len(q.Terms))
	for _, t := range q.Terms {
		parts = append(parts, t.Dimension+"="+t.Key)
	}
	return q.Kind.String() + "(" + strings.Join(parts, ", ") + ")"
}

// QueryMode selects how a query is resolved.
type QueryMode string

const (
	ExactMode   QueryMode = "exact"
	NearestMode QueryMode = "nearest"
	RankedMode  QueryMode = "ranked"
)

// ParseQueryMode parses "exact", "nearest" or "ranked".
func ParseQueryMode(s string) (QueryMode, error) {
	switch m := QueryMode(strings.ToLower(s)); m {
	case ExactMode, NearestMode, RankedMode:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown query mode %q", ErrValidation, s)
	}
}

// ResolveRequest is a query together with how to resolve and trim it.
type ResolveRequest struct {
	Mode      QueryMode
	Threshold float64 // ranked mode only
	Query     Query
	TopK      int // 0 = all
}
