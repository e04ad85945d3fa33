package analyzer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// KeyEncoder maps an index key to the bucket it is stored under.
type KeyEncoder interface {
	Encode(key string) string
}

// IdentityEncoder buckets keys by their exact value.
type IdentityEncoder struct{}

func (IdentityEncoder) Encode(key string) string { return key }

// FoldEncoder buckets keys that differ only in Unicode form, case or
// surrounding and repeated whitespace.
type FoldEncoder struct{}

func (FoldEncoder) Encode(key string) string {
	folded := cases.Fold().String(norm.NFKC.String(key))
	return strings.Join(strings.Fields(folded), " ")
}

// StemEncoder folds the key, keeps only its letter runs and reduces each to
// its English stem, so "Charlie", "charlie2" and "charlies" share a bucket.
// Keys without letters fall back to their folded form.
type StemEncoder struct {
	// StemStopWords also stems words like "being" or "having".
	StemStopWords bool
}

func (e StemEncoder) Encode(key string) string {
	folded := FoldEncoder{}.Encode(key)
	words := splitWords(folded)
	if len(words) == 0 {
		return folded
	}
	for i, w := range words {
		words[i] = english.Stem(w, e.StemStopWords)
	}
	return strings.Join(words, " ")
}

// splitWords splits text into runs of letters.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// NewEncoder returns the encoder registered under name: "identity", "fold"
// or "stem". An empty name selects "stem".
func NewEncoder(name string) (KeyEncoder, error) {
	switch strings.ToLower(name) {
	case "identity", "exact":
		return IdentityEncoder{}, nil
	case "fold":
		return FoldEncoder{}, nil
	case "stem", "":
		return StemEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown key encoder: %s", name)
	}
}
