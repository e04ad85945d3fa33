package ranked

import (
	"errors"
	"math"
	"testing"

	"fuzzydex/internal/domain"
)

func fixtureSets(t *testing.T) (*Set[string], *Set[string]) {
	t.Helper()
	a := New[string]()
	mustAdd(t, a, 1.0, "x")
	mustAdd(t, a, 2.0, "y")
	b := New[string]()
	mustAdd(t, b, 3.0, "x")
	mustAdd(t, b, 4.0, "z")
	return a, b
}

func TestWeightedInsideJoin_Fixture(t *testing.T) {
	a, b := fixtureSets(t)

	joined, err := a.WeightedInsideJoin(b, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if joined.Size() != 1 {
		t.Fatalf("expected exactly one element, got %v", joined)
	}
	first, _ := joined.FirstEntry()
	if first.Element.Item() != "x" || first.Element.Score() != 2.0 {
		t.Errorf("expected x scored 2.0, got %v", first.Element)
	}
}

func TestWeightedInsideJoin_Weights(t *testing.T) {
	a := New[string]()
	mustAdd(t, a, 1, "x")
	b := New[string]()
	mustAdd(t, b, 3, "x")

	joined, err := a.WeightedInsideJoin(b, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	first, _ := joined.FirstEntry()
	if first.Element.Score() != 3.5 {
		t.Errorf("expected (1*1 + 3*2)/2 = 3.5, got %v", first.Element.Score())
	}
}

func TestWeightedInsideJoin_LeftDuplicatesKept(t *testing.T) {
	a := New[string]()
	mustAdd(t, a, 1, "x")
	mustAdd(t, a, 1, "x")
	b := New[string]()
	mustAdd(t, b, 1, "x")

	joined, err := a.WeightedInsideJoin(b, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if joined.Size() != 2 {
		t.Errorf("expected both left occurrences joined, got %v", joined)
	}
}

func TestWeightedInsideJoin_UsesBestRightElement(t *testing.T) {
	a := New[string]()
	mustAdd(t, a, 0, "x")
	b := New[string]()
	mustAdd(t, b, 4, "x")
	mustAdd(t, b, 2, "x")

	joined, err := a.WeightedInsideJoin(b, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	first, _ := joined.FirstEntry()
	if first.Element.Score() != 1 {
		t.Errorf("expected the best right score (2) to be used, got %v", first.Element.Score())
	}
}

func TestWeightedLeftOuterJoin_Fixture(t *testing.T) {
	a, b := fixtureSets(t)

	joined, err := a.WeightedLeftOuterJoin(b, 1, 1, a.MaxScore())
	if err != nil {
		t.Fatal(err)
	}
	// |A| + |B| - |A∩B|
	if joined.Size() < 3 {
		t.Fatalf("expected at least 3 elements, got %v", joined)
	}

	scores := map[string]float64{}
	for _, e := range joined.ElementSet() {
		scores[e.Item()] = e.Score()
	}
	if scores["x"] != 2.0 {
		t.Errorf("expected x scored 2.0, got %v", scores["x"])
	}
	sentinel := a.MaxScore()
	wantY := (2.0 + sentinel) / 2
	wantZ := (sentinel + 4.0) / 2
	if scores["y"] != wantY {
		t.Errorf("expected y penalised to %v, got %v", wantY, scores["y"])
	}
	if scores["z"] != wantZ {
		t.Errorf("expected z penalised to %v, got %v", wantZ, scores["z"])
	}

	first, _ := joined.FirstEntry()
	if first.Element.Item() != "x" {
		t.Errorf("expected the full match first, got %v", first.Element)
	}
}

func TestWeightedLeftOuterJoin_Threshold(t *testing.T) {
	a, b := fixtureSets(t)

	joined, err := a.WeightedLeftOuterJoin(b, 1, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if joined.Size() != 1 {
		t.Errorf("expected only the full match under threshold 10, got %v", joined)
	}
}

func TestWeightedLeftOuterJoin_ConsumesMatchedRight(t *testing.T) {
	a := New[string]()
	mustAdd(t, a, 1, "x")
	mustAdd(t, a, 1, "x")
	b := New[string]()
	mustAdd(t, b, 1, "x")

	joined, err := a.WeightedLeftOuterJoin(b, 1, 1, a.MaxScore())
	if err != nil {
		t.Fatal(err)
	}
	entries := joined.EntrySet()
	if len(entries) != 2 {
		t.Fatalf("expected a matched and a penalised occurrence, got %v", joined)
	}
	if entries[0].Element.Score() != 1 || entries[1].Element.Score() <= 1 {
		t.Errorf("expected second occurrence to receive the sentinel, got %v", joined)
	}
}

func TestWeightedLeftOuterJoin_Descending(t *testing.T) {
	opts := Options{Order: Descending}
	a := NewWithOptions[string](opts)
	mustAdd(t, a, 5, "x")
	mustAdd(t, a, 3, "y")
	b := NewWithOptions[string](opts)
	mustAdd(t, b, 4, "x")

	joined, err := a.WeightedLeftOuterJoin(b, 1, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if joined.Order() != Descending {
		t.Errorf("expected the join to keep descending order")
	}
	if joined.Size() != 2 {
		t.Fatalf("expected 2 elements, got %v", joined)
	}
	first, _ := joined.FirstEntry()
	if first.Element.Item() != "x" || first.Element.Score() != 4.5 {
		t.Errorf("expected x scored 4.5 first, got %v", first.Element)
	}
	last, _ := joined.LastEntry()
	if math.Abs(last.Element.Score()-1.5) > 1e-9 {
		t.Errorf("expected y penalised toward the minimum, got %v", last.Element.Score())
	}

	strict, err := a.WeightedLeftOuterJoin(b, 1, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if strict.Size() != 1 {
		t.Errorf("expected only scores >= 2, got %v", strict)
	}
}

func TestJoins_Validation(t *testing.T) {
	a, b := fixtureSets(t)

	if _, err := a.WeightedInsideJoin(nil, 1, 1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for nil set, got %v", err)
	}
	if _, err := a.WeightedInsideJoin(b, -1, 1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for negative weight, got %v", err)
	}
	if _, err := a.WeightedLeftOuterJoin(nil, 1, 1, 1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for nil set, got %v", err)
	}
	if _, err := a.WeightedLeftOuterJoin(b, 1, 1, -1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for negative threshold, got %v", err)
	}
}

func TestWeightedLeftOuterJoin_CustomSentinel(t *testing.T) {
	a := NewWithOptions[string](Options{MaxScore: 10})
	mustAdd(t, a, 2, "y")
	b := NewWithOptions[string](Options{MaxScore: 10})

	joined, err := a.WeightedLeftOuterJoin(b, 1, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	first, _ := joined.FirstEntry()
	if first.Element.Score() != 6 {
		t.Errorf("expected (2 + 10)/2 = 6, got %v", first.Element.Score())
	}
}

func TestWeightedLeftOuterJoin_ZeroSentinel(t *testing.T) {
	opts := Options{Order: Descending}.WithMinScore(0)
	a := NewWithOptions[string](opts)
	mustAdd(t, a, 5, "x")
	mustAdd(t, a, 3, "y")
	b := NewWithOptions[string](opts)
	mustAdd(t, b, 4, "x")

	if a.MinScore() != 0 {
		t.Fatalf("expected an explicit zero sentinel, got %v", a.MinScore())
	}
	joined, err := a.WeightedLeftOuterJoin(b, 1, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	last, _ := joined.LastEntry()
	if last.Element.Item() != "y" || last.Element.Score() != 1.5 {
		t.Errorf("expected y scored (3 + 0)/2 = 1.5, got %v", last.Element)
	}
	if joined.MinScore() != 0 {
		t.Errorf("expected the join to keep the zero sentinel, got %v", joined.MinScore())
	}
}
