//go:build js && wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"

	"fuzzydex/config"
	"fuzzydex/internal/adapter/loader"
	"fuzzydex/internal/adapter/memstore"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/logging"
	"fuzzydex/internal/usecase"
)

var (
	cfg      *config.Config
	store    *memstore.MemoryStore
	importUC *usecase.ImportUseCase
	resolver *usecase.ResolveUseCase
)

func init() {
	cfg = config.DefaultConfig()
	reset()
}

func reset() {
	store = memstore.NewMemoryStore()
	importUC = usecase.NewImportUseCase(store, nil, loader.Options{
		IDField:        cfg.Import.IDField,
		AliasSeparator: cfg.Import.AliasSeparator,
	}, logging.Discard())
	resolver = nil
}

func main() {
	c := make(chan struct{})

	js.Global().Set("fuzzydexLoad", js.FuncOf(loadFacts))
	js.Global().Set("fuzzydexQuery", js.FuncOf(queryFacts))
	js.Global().Set("fuzzydexClear", js.FuncOf(clearFacts))
	js.Global().Set("fuzzydexStats", js.FuncOf(getStats))

	<-c
}

func loadFacts(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: fuzzydexLoad(filename, content)")
	}

	filename := args[0].String()
	content := args[1].String()

	records, err := loader.Parse(filename, []byte(content), loader.Options{
		IDField:        cfg.Import.IDField,
		AliasSeparator: cfg.Import.AliasSeparator,
	})
	if err != nil {
		return makeError("parsing failed: " + err.Error())
	}
	if err := importUC.ImportRecords(records); err != nil {
		return makeError("import failed: " + err.Error())
	}
	// The index is rebuilt on the next query.
	resolver = nil

	return makeResult(map[string]interface{}{
		"success":  true,
		"records":  len(records),
		"filename": filename,
	})
}

func queryFacts(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: fuzzydexQuery(\"dim=key ...\", [mode], [topK])")
	}

	req := domain.ResolveRequest{
		Mode:      domain.RankedMode,
		Threshold: cfg.Query.Threshold,
		TopK:      cfg.Query.TopK,
	}
	if len(args) > 1 && args[1].String() != "" {
		mode, err := domain.ParseQueryMode(args[1].String())
		if err != nil {
			return makeError(err.Error())
		}
		req.Mode = mode
	}
	if len(args) > 2 {
		req.TopK = args[2].Int()
	}

	var matches []domain.Match
	for _, term := range strings.Fields(args[0].String()) {
		dim, key, ok := strings.Cut(term, "=")
		if !ok || dim == "" {
			return makeError("terms must be dim=key: " + term)
		}
		matches = append(matches, domain.Match{Dimension: dim, Key: key})
	}
	if len(matches) == 0 {
		return makeError("no query terms")
	}
	req.Query = domain.NewNAry(matches...)
	if len(matches) == 1 {
		req.Query = domain.NewMatch(matches[0].Dimension, matches[0].Key)
	}

	if resolver == nil {
		idx, _, err := usecase.NewBuildUseCase(store, cfg, logging.Discard()).Build(nil)
		if err != nil {
			return makeError("build failed: " + err.Error())
		}
		resolver = usecase.NewResolveUseCase(idx, nil)
	}

	results, err := resolver.Resolve(req)
	if err != nil {
		return makeError("query failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		rec, _ := store.GetRecord(r.Fact)
		attrs := make(map[string]string, len(rec.Attributes))
		for _, a := range rec.Attributes {
			attrs[a.Name] = a.Value
		}
		output = append(output, map[string]interface{}{
			"fact":       r.Fact,
			"score":      r.Score,
			"attributes": attrs,
		})
	}

	return makeResult(map[string]interface{}{
		"results": output,
		"query":   req.Query.String(),
	})
}

func clearFacts(this js.Value, args []js.Value) interface{} {
	reset()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	stats, _ := store.Stats()
	return makeResult(map[string]interface{}{
		"totalFacts":   stats.TotalFacts,
		"totalAliases": stats.TotalAliases,
		"dimensions":   stats.Dimensions,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
