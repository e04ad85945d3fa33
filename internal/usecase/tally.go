package usecase

import (
	"fmt"

	"fuzzydex/internal/domain"
	"fuzzydex/internal/port"
	"fuzzydex/internal/ranked"
)

// ValueCount is how many records share a dimension value.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Tally counts the records holding each value of dimension, most common
// first. Aliases count when withAliases is set.
func Tally(catalog port.FactCatalog, dimension string, withAliases bool) ([]ValueCount, error) {
	records, err := catalog.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	acc := ranked.NewAccumulator[string](1)
	for _, rec := range records {
		attrs := rec.Attributes
		if withAliases {
			attrs = append(append([]domain.Attribute(nil), attrs...), rec.Aliases...)
		}
		for _, a := range attrs {
			if a.Name == dimension {
				acc.Add(a.Value)
			}
		}
	}

	rankings, err := acc.Rankings(ranked.Options{Order: ranked.Descending})
	if err != nil {
		return nil, err
	}
	out := make([]ValueCount, 0, acc.Len())
	for _, e := range rankings.EntrySet() {
		out = append(out, ValueCount{
			Value: e.Element.Item(),
			Count: int(acc.Total(e.Element.Item())),
		})
	}
	return out, nil
}
