package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fuzzydex/internal/domain"
)

func values(rec domain.Record) map[string]string {
	out := make(map[string]string)
	for _, a := range rec.Attributes {
		out[a.Name] = a.Value
	}
	return out
}

func aliases(rec domain.Record, dim string) []string {
	var out []string
	for _, a := range rec.Aliases {
		if a.Name == dim {
			out = append(out, a.Value)
		}
	}
	return out
}

func TestCSVLoader(t *testing.T) {
	input := `id,name,city
1,alice|ally|al,paris
2, bob ,
3,carol,berlin
`
	recs, err := NewCSVLoader(Options{AliasSeparator: "|"}).Read(strings.NewReader(input), "people.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}

	first := recs[0]
	if first.ID != "1" || first.Source != "people.csv" {
		t.Errorf("unexpected record header: %+v", first)
	}
	if v := values(first); v["name"] != "alice" || v["city"] != "paris" {
		t.Errorf("unexpected attributes: %v", v)
	}
	if got := aliases(first, "name"); len(got) != 2 || got[0] != "ally" || got[1] != "al" {
		t.Errorf("expected aliases [ally al], got %v", got)
	}

	second := values(recs[1])
	if second["name"] != "bob" {
		t.Errorf("expected trimmed bob, got %q", second["name"])
	}
	if _, ok := second["city"]; ok {
		t.Errorf("expected the empty city to be skipped, got %v", second)
	}
}

func TestCSVLoader_FieldMapping(t *testing.T) {
	input := "key,full_name,town\nk1,Alice Smith,Paris\n"
	opts := Options{IDField: "key", Fields: map[string]string{"name": "full_name", "city": "town"}}

	recs, err := NewCSVLoader(opts).Read(strings.NewReader(input), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != "k1" {
		t.Fatalf("unexpected records: %+v", recs)
	}
	// Mapped dimensions are ordered by name.
	attrs := recs[0].Attributes
	if len(attrs) != 2 || attrs[0].Name != "city" || attrs[1].Value != "Alice Smith" {
		t.Errorf("unexpected attributes: %+v", attrs)
	}
}

func TestCSVLoader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  Options
	}{
		{"missing id column", "name\nalice\n", Options{}},
		{"missing mapped column", "id,name\n1,alice\n", Options{Fields: map[string]string{"city": "town"}}},
		{"empty id", "id,name\n,alice\n", Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVLoader(tt.opts).Read(strings.NewReader(tt.input), "")
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}

	recs, err := NewCSVLoader(Options{}).Read(strings.NewReader(""), "")
	if err != nil || recs != nil {
		t.Errorf("expected an empty file to give no records, got %v %v", recs, err)
	}
}

func TestJSONLoader_Array(t *testing.T) {
	input := `[
  {"id": 7, "name": "alice", "address": {"city": "paris"}, "nick": ["ally", "al"]},
  {"id": "b", "name": "bob", "address": {"city": null}}
]`
	opts := Options{Fields: map[string]string{"name": "name", "city": "address.city", "nick": "nick"}}

	recs, err := NewJSONLoader(opts).Parse(input, "people.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "7" {
		t.Errorf("expected numeric id as text, got %q", recs[0].ID)
	}
	if v := values(recs[0]); v["city"] != "paris" || v["nick"] != "ally" {
		t.Errorf("unexpected attributes: %v", v)
	}
	if got := aliases(recs[0], "nick"); len(got) != 1 || got[0] != "al" {
		t.Errorf("expected alias al, got %v", got)
	}
	if _, ok := values(recs[1])["city"]; ok {
		t.Errorf("expected null city to be skipped, got %v", values(recs[1]))
	}
}

func TestJSONLoader_LinesAndAutoFields(t *testing.T) {
	input := `{"id": "1", "name": "alice", "city": "paris"}
{"id": "2", "name": "bob", "city": "berlin"}
`
	recs, err := NewJSONLoader(Options{}).Parse(input, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	attrs := recs[1].Attributes
	if len(attrs) != 2 || attrs[0].Name != "name" || attrs[1].Name != "city" {
		t.Errorf("expected document field order, got %+v", attrs)
	}
}

func TestJSONLoader_Errors(t *testing.T) {
	for _, input := range []string{`[{"id": 1,]`, `[1, 2]`, `[{"name": "x"}]`} {
		if _, err := NewJSONLoader(Options{}).Parse(input, ""); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Parse(%s): expected ErrValidation, got %v", input, err)
		}
	}
}

func TestYAMLLoader(t *testing.T) {
	input := `
- id: f1
  name: alice
  city: paris
  nick: [ally, al]
- id: 2
  name: bob | bobby
  city: ~
`
	recs, err := NewYAMLLoader(Options{AliasSeparator: "|"}).Parse([]byte(input), "people.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if attrs := recs[0].Attributes; len(attrs) != 3 || attrs[0].Name != "name" || attrs[2].Name != "nick" {
		t.Errorf("expected document field order, got %+v", attrs)
	}
	if got := aliases(recs[0], "nick"); len(got) != 1 || got[0] != "al" {
		t.Errorf("expected alias al, got %v", got)
	}
	if recs[1].ID != "2" || values(recs[1])["name"] != "bob" {
		t.Errorf("unexpected second record: %+v", recs[1])
	}
	if got := aliases(recs[1], "name"); len(got) != 1 || got[0] != "bobby" {
		t.Errorf("expected alias bobby, got %v", got)
	}
	if _, ok := values(recs[1])["city"]; ok {
		t.Error("expected a null city to be skipped")
	}
}

func TestYAMLLoader_Errors(t *testing.T) {
	tests := []string{
		"id: 1\nname: alice\n",
		"- just a string\n",
		"- id: 1\n  name: {first: a}\n",
	}
	for _, input := range tests {
		if _, err := NewYAMLLoader(Options{}).Parse([]byte(input), ""); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Parse(%q): expected ErrValidation, got %v", input, err)
		}
	}
}

func TestLoad_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.csv":  "id,name\n1,alice\n",
		"b.json": `[{"id": "2", "name": "bob"}]`,
		"c.yml":  "- id: 3\n  name: carol\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	for name := range files {
		recs, err := Load(filepath.Join(dir, name), Options{})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(recs) != 1 || values(recs[0])["name"] == "" {
			t.Errorf("%s: unexpected records %+v", name, recs)
		}
	}

	if _, err := Load(filepath.Join(dir, "d.txt"), Options{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for an unknown extension, got %v", err)
	}
}

func TestParse_InMemory(t *testing.T) {
	recs, err := Parse("people.ndjson", []byte("{\"id\":\"1\",\"name\":\"alice\"}\n{\"id\":\"2\",\"name\":\"bob\"}\n"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[1].Source != "people.ndjson" {
		t.Errorf("expected the name as source, got %q", recs[1].Source)
	}

	recs, err = Parse("people.csv", []byte("id,name\n7,carol\n"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != "7" {
		t.Errorf("unexpected records %+v", recs)
	}

	if _, err := Parse("people.txt", nil, Options{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
