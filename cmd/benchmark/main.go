package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"fuzzydex/internal/adapter/analyzer"
	"fuzzydex/internal/adapter/fuzzyindex"
	"fuzzydex/internal/adapter/multidex"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/port"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

func main() {
	facts := flag.Int("facts", 5000, "Number of random facts")
	dims := flag.Int("dims", 3, "Number of dimensions")
	probes := flag.Int("probes", 200, "Number of queries per benchmark")
	typos := flag.Int("typos", 2, "Edits applied to each key of a sloppy query")
	kind := flag.String("kind", "bucket", "Dimension kind: scan or bucket")
	threshold := flag.Float64("threshold", 10, "Ranked query threshold")
	seed := flag.Int64("seed", 1024, "Random seed")
	flag.Parse()

	if *facts <= 0 || *dims <= 0 || *probes <= 0 {
		fmt.Println("Usage: go run cmd/benchmark/main.go -facts 5000 -dims 3 -kind bucket")
		fmt.Println("\nBenchmarks:")
		fmt.Println("  1. Precise nearest (query with a stored fact's exact keys)")
		fmt.Println("  2. Sloppy ranked (query with keys carrying random typos)")
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))

	idx := multidex.New[string]()
	for d := 0; d < *dims; d++ {
		dim, err := newDimension(*kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := idx.AddDimension("dim"+strconv.Itoa(d), dim); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("FUZZY INDEX BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	master := make([][]domain.Attribute, *facts)
	start := time.Now()
	for i := range master {
		attrs := make([]domain.Attribute, *dims)
		for d := range attrs {
			attrs[d] = domain.Attribute{Name: "dim" + strconv.Itoa(d), Value: randomKey(rng)}
		}
		master[i] = attrs
		if err := idx.AddFact(strconv.Itoa(i), attrs...); err != nil {
			fmt.Fprintf(os.Stderr, "Error adding fact %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Facts indexed: %d over %d %s dimensions in %v\n", *facts, *dims, *kind, time.Since(start))
	fmt.Println()

	run("Precise nearest", *probes, func() (bool, error) {
		fact := rng.Intn(len(master))
		got, err := idx.QueryNearest(domain.QueryFromAttributes(master[fact]...))
		if err != nil {
			return false, err
		}
		first, ok := got.FirstEntry()
		return ok && first.Element.Item() == strconv.Itoa(fact), nil
	})

	run("Sloppy ranked", *probes, func() (bool, error) {
		fact := rng.Intn(len(master))
		attrs := make([]domain.Attribute, len(master[fact]))
		for d, a := range master[fact] {
			attrs[d] = domain.Attribute{Name: a.Name, Value: mutate(rng, a.Value, *typos)}
		}
		got, err := idx.QueryRanked(*threshold, domain.QueryFromAttributes(attrs...))
		if err != nil {
			return false, err
		}
		first, ok := got.FirstEntry()
		return ok && first.Element.Item() == strconv.Itoa(fact), nil
	})
}

func newDimension(kind string) (port.MutableIndex[string], error) {
	switch kind {
	case "scan":
		return fuzzyindex.NewScanIndex[string](), nil
	case "bucket":
		return fuzzyindex.NewBucketIndex[string](analyzer.StemEncoder{}), nil
	default:
		return nil, fmt.Errorf("unknown dimension kind: %s", kind)
	}
}

func run(name string, probes int, probe func() (bool, error)) {
	fmt.Printf("%s\n", name)
	fmt.Println(strings.Repeat("-", 70))

	hits := 0
	start := time.Now()
	for i := 0; i < probes; i++ {
		hit, err := probe()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query error: %v\n", err)
			os.Exit(1)
		}
		if hit {
			hits++
		}
	}
	elapsed := time.Since(start)

	rate := float64(hits) / float64(probes)
	rating := "POOR"
	if rate > 0.95 {
		rating = "GOOD"
	} else if rate > 0.7 {
		rating = "OK"
	}

	fmt.Printf("  Top-1 hits:   %d/%d (%.1f%%) %s\n", hits, probes, rate*100, rating)
	fmt.Printf("  Total time:   %v\n", elapsed)
	fmt.Printf("  Per query:    %v\n\n", elapsed/time.Duration(probes))
}

func randomKey(rng *rand.Rand) string {
	n := 4 + rng.Intn(8)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[rng.Intn(len(alphabet))])
	}
	return b.String()
}

// mutate applies n random substitutions, insertions or deletions to key.
func mutate(rng *rand.Rand, key string, n int) string {
	b := []byte(key)
	for i := 0; i < n; i++ {
		c := alphabet[rng.Intn(len(alphabet))]
		switch op := rng.Intn(3); {
		case op == 0 && len(b) > 0:
			b[rng.Intn(len(b))] = c
		case op == 1 || len(b) == 0:
			at := rng.Intn(len(b) + 1)
			b = append(b[:at], append([]byte{c}, b[at:]...)...)
		default:
			at := rng.Intn(len(b))
			b = append(b[:at], b[at+1:]...)
		}
	}
	return string(b)
}
