package multidex

import (
	"errors"
	"math/rand"
	"strconv"
	"testing"

	"fuzzydex/internal/adapter/fuzzyindex"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/port"
	"fuzzydex/internal/ranked"
)

var _ port.Querier[string] = (*Index[string])(nil)

func attr(t *testing.T, name, value string) domain.Attribute {
	t.Helper()
	a, err := domain.NewAttribute(name, value)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func weightedFixture(t *testing.T) *Index[string] {
	t.Helper()
	x := New[string]()
	if err := x.AddIndexDimension("name"); err != nil {
		t.Fatal(err)
	}
	city := fuzzyindex.NewScanIndex[string]()
	city.SetWeight(2)
	if err := x.AddDimension("city", city); err != nil {
		t.Fatal(err)
	}
	if err := x.AddFact("f1", attr(t, "name", "alice"), attr(t, "city", "paris")); err != nil {
		t.Fatal(err)
	}
	if err := x.AddFact("f2", attr(t, "name", "bob"), attr(t, "city", "berlin")); err != nil {
		t.Fatal(err)
	}
	return x
}

func TestIndex_WeightedExact(t *testing.T) {
	x := weightedFixture(t)

	got, err := x.QueryExact(domain.NewNAry(
		domain.Match{Dimension: "name", Key: "alice"},
		domain.Match{Dimension: "city", Key: "paris"},
	))
	if err != nil {
		t.Fatal(err)
	}
	if got.Size() != 1 {
		t.Fatalf("expected one fact, got %v", got)
	}
	first, _ := got.FirstEntry()
	if first.Element.Item() != "f1" || first.Element.Score() != 1.5 {
		t.Errorf("expected f1 scored (1*1 + 1*2)/2 = 1.5, got %v", first.Element)
	}
}

func TestIndex_ChainedWeightsUsePreviousDimension(t *testing.T) {
	x := New[string]()
	for _, d := range []struct {
		name   string
		weight float64
	}{{"a", 1}, {"b", 2}, {"c", 4}} {
		idx := fuzzyindex.NewScanIndex[string]()
		idx.SetWeight(d.weight)
		if err := x.AddDimension(d.name, idx); err != nil {
			t.Fatal(err)
		}
	}
	if err := x.AddFact("f1", attr(t, "a", "k"), attr(t, "b", "k"), attr(t, "c", "k")); err != nil {
		t.Fatal(err)
	}

	got, err := x.QueryExact(domain.QueryFromAttributes(
		attr(t, "a", "k"),
		attr(t, "b", "k"),
		attr(t, "c", "k"),
	))
	if err != nil {
		t.Fatal(err)
	}
	first, ok := got.FirstEntry()
	// ((1*1 + 1*2)/2 * 2 + 1*4) / 2
	if !ok || first.Element.Item() != "f1" || first.Element.Score() != 3.5 {
		t.Errorf("expected f1 scored 3.5, got %v", got)
	}
}

func TestIndex_RankedFactMissingFromDimension(t *testing.T) {
	x := New[string]()
	for _, d := range []string{"name", "city"} {
		if err := x.AddIndexDimension(d); err != nil {
			t.Fatal(err)
		}
	}
	if err := x.AddFact("f1", attr(t, "name", "alice"), attr(t, "city", "paris")); err != nil {
		t.Fatal(err)
	}
	if err := x.AddFact("f2", attr(t, "name", "alice")); err != nil {
		t.Fatal(err)
	}
	q := domain.QueryFromAttributes(attr(t, "name", "alice"), attr(t, "city", "paris"))

	permissive, err := x.QueryRanked(ranked.DefaultMaxScore, q)
	if err != nil {
		t.Fatal(err)
	}
	if permissive.Size() != 2 {
		t.Fatalf("expected both facts under the maximum threshold, got %v", permissive)
	}
	last, _ := permissive.LastEntry()
	if last.Element.Item() != "f2" || last.Element.Score() != ranked.DefaultMaxScore/2 {
		t.Errorf("expected f2 penalised to half the sentinel, got %v", last.Element)
	}

	strict, err := x.QueryRanked(10, q)
	if err != nil {
		t.Fatal(err)
	}
	if strict.Size() != 1 {
		t.Fatalf("expected only f1 under threshold 10, got %v", strict)
	}
	if first, _ := strict.FirstEntry(); first.Element.Item() != "f1" || first.Element.Score() != 0 {
		t.Errorf("expected f1 at 0, got %v", first.Element)
	}
}

func TestIndex_SingleMatchQuery(t *testing.T) {
	x := weightedFixture(t)

	got, err := x.QueryExact(domain.NewMatch("city", "berlin"))
	if err != nil {
		t.Fatal(err)
	}
	first, ok := got.FirstEntry()
	if !ok || first.Element.Item() != "f2" || first.Element.Score() != fuzzyindex.DefaultRanking {
		t.Errorf("expected f2 at the default ranking, got %v", got)
	}
}

func TestIndex_MismatchedTermsDropFact(t *testing.T) {
	x := weightedFixture(t)

	got, err := x.QueryExact(domain.QueryFromAttributes(
		attr(t, "name", "alice"),
		attr(t, "city", "berlin"),
	))
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsEmpty() {
		t.Errorf("expected no fact matching both terms, got %v", got)
	}
}

func TestIndex_UnknownDimension(t *testing.T) {
	x := weightedFixture(t)

	if err := x.AddFact("f3", attr(t, "planet", "mars")); !errors.Is(err, domain.ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
	if _, err := x.QueryNearest(domain.NewMatch("planet", "mars")); !errors.Is(err, domain.ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
	if _, err := x.Index("planet"); !errors.Is(err, domain.ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
}

func TestIndex_FailedAddLeavesIndexUnchanged(t *testing.T) {
	x := weightedFixture(t)

	err := x.AddFact("f3", attr(t, "name", "carol"), attr(t, "planet", "mars"))
	if !errors.Is(err, domain.ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
	names, _ := x.Index("name")
	if _, ok := names.ExactMatch("carol"); ok {
		t.Error("expected carol not to be indexed")
	}
	if x.FactCount() != 2 {
		t.Errorf("expected 2 tracked facts, got %d", x.FactCount())
	}
}

func TestIndex_DuplicateFacts(t *testing.T) {
	x := weightedFixture(t)

	if err := x.AddFact("f1", attr(t, "name", "alicia")); !errors.Is(err, domain.ErrState) {
		t.Errorf("expected ErrState, got %v", err)
	}
	if err := x.AddIndexMembersForExistingFact("f9", attr(t, "name", "zed")); !errors.Is(err, domain.ErrState) {
		t.Errorf("expected ErrState for an unknown fact, got %v", err)
	}

	x.DisableFactValidation()
	if x.ValidatesFacts() {
		t.Fatal("expected validation to be off")
	}
	if err := x.AddFact("f1", attr(t, "name", "alicia")); err != nil {
		t.Errorf("expected duplicate fact to be accepted, got %v", err)
	}
	if err := x.AddIndexMembersForExistingFact("f9", attr(t, "name", "zed")); err != nil {
		t.Errorf("expected members for an unknown fact to be accepted, got %v", err)
	}
	if x.Facts() != nil {
		t.Errorf("expected no fact listing, got %v", x.Facts())
	}
}

func TestIndex_AliasesAndFacts(t *testing.T) {
	x := weightedFixture(t)

	if err := x.AddIndexMembersForExistingFact("f1", attr(t, "name", "ally")); err != nil {
		t.Fatal(err)
	}
	got, err := x.QueryExact(domain.NewMatch("name", "ally"))
	if err != nil {
		t.Fatal(err)
	}
	if first, ok := got.FirstEntry(); !ok || first.Element.Item() != "f1" {
		t.Errorf("expected the alias to resolve to f1, got %v", got)
	}

	facts := x.Facts()
	if len(facts) != 2 || facts[0] != "f1" || facts[1] != "f2" {
		t.Errorf("expected [f1 f2], got %v", facts)
	}
	if dims := x.Dimensions(); len(dims) != 2 || dims[0] != "name" || dims[1] != "city" {
		t.Errorf("expected [name city], got %v", dims)
	}
}

func TestIndex_AddDimensionValidation(t *testing.T) {
	x := New[string]()
	if err := x.AddIndexDimension(""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := x.AddDimension("d", nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := x.AddIndexDimension("d"); err != nil {
		t.Fatal(err)
	}
	if err := x.AddIndexDimension("d"); !errors.Is(err, domain.ErrState) {
		t.Errorf("expected ErrState, got %v", err)
	}
}

func TestIndex_QueryShape(t *testing.T) {
	x := weightedFixture(t)

	if _, err := x.QueryRanked(10, domain.NewNAry()); !errors.Is(err, domain.ErrQueryShape) {
		t.Errorf("expected ErrQueryShape for an empty query, got %v", err)
	}
	if _, err := x.QueryExact(domain.Query{}); !errors.Is(err, domain.ErrQueryShape) {
		t.Errorf("expected ErrQueryShape for an untagged query, got %v", err)
	}
}

func TestIndex_RankedThreshold(t *testing.T) {
	x := weightedFixture(t)
	q := domain.NewNAry(
		domain.Match{Dimension: "name", Key: "alise"},
		domain.Match{Dimension: "city", Key: "pariss"},
	)

	got, err := x.QueryRanked(10, q)
	if err != nil {
		t.Fatal(err)
	}
	first, ok := got.FirstEntry()
	if !ok || first.Element.Item() != "f1" {
		t.Fatalf("expected f1 first, got %v", got)
	}
	// name distance 1, city distance 1: (1*1 + 1*2)/2
	if first.Element.Score() != 1.5 {
		t.Errorf("expected 1.5, got %v", first.Element.Score())
	}

	strict, err := x.QueryRanked(1, q)
	if err != nil {
		t.Fatal(err)
	}
	if !strict.IsEmpty() {
		t.Errorf("expected nothing under threshold 1, got %v", strict)
	}
}

const wordChars = " ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvw"

func randomWord(rng *rand.Rand, length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = wordChars[rng.Intn(len(wordChars))]
	}
	return string(buf)
}

func populate(t *testing.T, x *Index[string], rng *rand.Rand, count, dims int) [][]domain.Attribute {
	t.Helper()
	master := make([][]domain.Attribute, count)
	for i := 0; i < count; i++ {
		master[i] = make([]domain.Attribute, dims)
		for j := 0; j < dims; j++ {
			master[i][j] = attr(t, "index"+strconv.Itoa(j), randomWord(rng, 10))
		}
		if err := x.AddFact(strconv.Itoa(i), master[i]...); err != nil {
			t.Fatal(err)
		}
	}
	return master
}

func bucketedIndex(t *testing.T, dims int) *Index[string] {
	t.Helper()
	x := New[string]()
	for j := 0; j < dims; j++ {
		if err := x.AddDimension("index"+strconv.Itoa(j), fuzzyindex.NewBucketIndex[string](nil)); err != nil {
			t.Fatal(err)
		}
	}
	return x
}

func TestIndex_RandomNearestIsPrecise(t *testing.T) {
	rng := rand.New(rand.NewSource(1024))
	x := bucketedIndex(t, 3)
	master := populate(t, x, rng, 1000, 3)

	for probe := 0; probe < 200; probe++ {
		fact := rng.Intn(len(master))
		got, err := x.QueryNearest(domain.QueryFromAttributes(master[fact]...))
		if err != nil {
			t.Fatal(err)
		}
		first, ok := got.FirstEntry()
		if !ok || first.Element.Item() != strconv.Itoa(fact) {
			t.Fatalf("probe %d: expected fact %d first, got %v", probe, fact, got)
		}
	}
}

func TestIndex_RandomRankedFindsFact(t *testing.T) {
	rng := rand.New(rand.NewSource(1024))
	x := New[string]()
	for j := 0; j < 3; j++ {
		if err := x.AddIndexDimension("index" + strconv.Itoa(j)); err != nil {
			t.Fatal(err)
		}
	}
	master := populate(t, x, rng, 500, 3)

	for probe := 0; probe < 50; probe++ {
		fact := rng.Intn(len(master))
		got, err := x.QueryRanked(10, domain.QueryFromAttributes(master[fact]...))
		if err != nil {
			t.Fatal(err)
		}
		first, ok := got.FirstEntry()
		if !ok || first.Element.Item() != strconv.Itoa(fact) {
			t.Fatalf("probe %d: expected fact %d first, got %v", probe, fact, first)
		}
	}
}
