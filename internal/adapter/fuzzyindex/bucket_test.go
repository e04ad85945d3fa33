package fuzzyindex

import (
	"errors"
	"math"
	"testing"

	"fuzzydex/internal/adapter/analyzer"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/port"
)

var _ port.MutableIndex[string] = (*BucketIndex[string])(nil)

func bucketFixture(t *testing.T) *BucketIndex[string] {
	t.Helper()
	x := NewBucketIndex[string](nil)
	entries := []domain.Pair[string, string]{
		domain.KV("alpha", "alpha1"),
		domain.KV("baker", "baker1"),
		domain.KV("charlie", "charlie1"),
		domain.KV("charlie1", "charlie2"),
		domain.KV("charlie2", "charlie3"),
		domain.KV("delta", "delta1"),
		domain.KV("eager", "eager1"),
		domain.KV("foxtrot", "foxtrot1"),
		domain.KV("epsilon", "epsilon1"),
	}
	for _, e := range entries {
		if err := x.AddEntry(e.Key, e.Value); err != nil {
			t.Fatal(err)
		}
	}
	return x
}

func TestBucketIndex_SetWeight(t *testing.T) {
	x := bucketFixture(t)
	x.SetWeight(2.0)
	if math.Abs(x.Weight()-2.0) > 0.0001 {
		t.Errorf("expected weight 2.0, got %v", x.Weight())
	}
}

func TestBucketIndex_ExactAndNearest(t *testing.T) {
	x := bucketFixture(t)

	if v, ok := x.ExactMatch("foxtrot"); !ok || v != "foxtrot1" {
		t.Errorf("expected foxtrot1, got %q (%v)", v, ok)
	}
	if v, ok := x.NearestMatch("foxtrot"); !ok || v != "foxtrot1" {
		t.Errorf("expected foxtrot1, got %q (%v)", v, ok)
	}
	if v, ok := x.NearestMatch("charlie9"); !ok || v != "charlie1" {
		t.Errorf("expected charlie1 as the first closest, got %q (%v)", v, ok)
	}
	if _, ok := x.ExactMatch("zulu"); ok {
		t.Error("expected no exact match for zulu")
	}
}

func TestBucketIndex_RankedMatches(t *testing.T) {
	x := bucketFixture(t)

	baker, err := x.RankedMatches("baker")
	if err != nil {
		t.Fatal(err)
	}
	if baker.Size() != 1 {
		t.Fatalf("expected 1 match for baker, got %v", baker)
	}
	if first, _ := baker.FirstEntry(); first.Element.Item() != "baker1" {
		t.Errorf("expected baker1, got %v", first.Element)
	}

	charlie, err := x.RankedMatches("charlie")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"charlie1", "charlie2", "charlie3"}
	wantScores := []float64{0, 1, 1}
	got := charlie.Items()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, charlie)
	}
	for i, e := range got {
		if e.Item() != want[i] || e.Score() != wantScores[i] {
			t.Errorf("position %d: expected %s(%v), got %v", i, want[i], wantScores[i], e)
		}
	}
}

func TestBucketIndex_ToleranceAppliesInsideBucket(t *testing.T) {
	x := bucketFixture(t)
	// Same bucket as "charlie", two edits away.
	if err := x.AddEntry("charlie99", "charlie4"); err != nil {
		t.Fatal(err)
	}

	tight, err := x.RankedMatchesWithinTolerance("charlie", 1)
	if err != nil {
		t.Fatal(err)
	}
	if tight.Size() != 3 {
		t.Errorf("expected 3 matches within distance 1, got %v", tight)
	}
	for _, e := range tight.Items() {
		if e.Item() == "charlie4" {
			t.Errorf("expected charlie4 beyond tolerance 1, got %v", tight)
		}
	}

	loose, err := x.RankedMatchesWithinTolerance("charlie", 2)
	if err != nil {
		t.Fatal(err)
	}
	if loose.Size() != 4 {
		t.Errorf("expected 4 matches within distance 2, got %v", loose)
	}
	if last, _ := loose.LastEntry(); last.Element.Item() != "charlie4" || last.Element.Score() != 2 {
		t.Errorf("expected charlie4 last at distance 2, got %v", last.Element)
	}
	if _, err := x.RankedMatchesWithinTolerance("charlie", -1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestBucketIndex_IdentityEncoder(t *testing.T) {
	x := NewBucketIndex[string](analyzer.IdentityEncoder{})
	for _, k := range []string{"charlie", "charlie1"} {
		if err := x.AddEntry(k, k); err != nil {
			t.Fatal(err)
		}
	}
	if x.Buckets() != 2 || x.Len() != 2 {
		t.Errorf("expected 2 buckets of one entry, got %d buckets / %d entries", x.Buckets(), x.Len())
	}
	got, err := x.RankedMatches("charlie")
	if err != nil {
		t.Fatal(err)
	}
	if got.Size() != 1 {
		t.Errorf("expected only the identical bucket to be scanned, got %v", got)
	}
}

func TestBucketIndex_QueryShape(t *testing.T) {
	x := bucketFixture(t)
	nary := domain.NewNAry(domain.Match{Dimension: "d", Key: "alpha"})

	if _, err := x.QueryExact(nary); !errors.Is(err, domain.ErrQueryShape) {
		t.Errorf("expected ErrQueryShape, got %v", err)
	}
	if _, err := x.QueryRanked(10, nary); !errors.Is(err, domain.ErrQueryShape) {
		t.Errorf("expected ErrQueryShape, got %v", err)
	}

	res, err := x.QueryNearest(domain.NewMatch("d", "delta"))
	if err != nil {
		t.Fatal(err)
	}
	if first, _ := res.FirstEntry(); first.Element.Item() != "delta1" || first.Element.Score() != DefaultRanking {
		t.Errorf("expected delta1 at the default ranking, got %v", res)
	}

	empty, err := x.QueryNearest(domain.NewMatch("d", "zulu"))
	if err != nil {
		t.Fatal(err)
	}
	if !empty.IsEmpty() {
		t.Errorf("expected no nearest match outside any bucket, got %v", empty)
	}
}
