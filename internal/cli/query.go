package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fuzzydex/internal/adapter/cache"
	"fuzzydex/internal/domain"
	"fuzzydex/internal/port"
	"fuzzydex/internal/usecase"
)

var (
	queryMode      string
	queryThreshold float64
	queryTopK      int
	queryJSON      bool
	queryBatch     string
	queryShowAttrs bool
)

var queryCmd = &cobra.Command{
	Use:   "query [dimension=key ...]",
	Short: "Resolve facts matching approximate keys",
	Long: `Resolve the facts whose attributes best match the given keys.
Each term names a dimension and the key to look up in it; the order of the
terms decides how their scores are combined.

Modes:
  exact    facts matching every key exactly
  nearest  facts matching the closest key in every dimension
  ranked   every fact, ranked by weighted edit distance under --threshold

Examples:
  fuzzydex query name=alise
  fuzzydex query --mode nearest name=alise city=pariss
  fuzzydex query --batch queries.txt --json       # One query per line
  echo "name=bob" | fuzzydex query --batch -`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryMode, "mode", "m", "", "exact, nearest or ranked (default from config)")
	queryCmd.Flags().Float64VarP(&queryThreshold, "threshold", "t", -1, "ranked score threshold (default from config)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", -1, "number of results (0 = all, default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().StringVar(&queryBatch, "batch", "", "read one query per line from a file (- for stdin)")
	queryCmd.Flags().BoolVar(&queryShowAttrs, "attributes", false, "print the attributes of each fact")
}

type queryOutput struct {
	Query   string              `json:"query"`
	Results []domain.ScoredFact `json:"results"`
	Error   string              `json:"error,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryBatch == "" && len(args) == 0 {
		return fmt.Errorf("no query terms given")
	}

	req, err := baseRequest()
	if err != nil {
		return err
	}

	st, err := openCatalog()
	if err != nil {
		return err
	}
	defer st.Close()

	buildUC := usecase.NewBuildUseCase(st, GetConfig(), logger)
	idx, built, err := buildUC.Build(newProgress("Building"))
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	logger.Debugf("indexed %d facts (%d aliases) in %s", built.FactsIndexed, built.AliasesIndexed, formatDuration(built.Duration))

	var queryCache *cache.QueryCache
	if c := GetConfig().Cache; c.Enabled {
		queryCache = cache.NewQueryCache(c.MaxSize, c.TTL)
	}
	resolveUC := usecase.NewResolveUseCase(idx, queryCache)

	if queryBatch == "" {
		q, err := parseTerms(args)
		if err != nil {
			return err
		}
		req.Query = q
		results, err := resolveUC.Resolve(req)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		return printResults(st, queryOutput{Query: q.String(), Results: results})
	}

	return runBatch(st, resolveUC, req)
}

// baseRequest builds a request from the flags, falling back to config.
func baseRequest() (domain.ResolveRequest, error) {
	qc := GetConfig().Query

	mode := queryMode
	if mode == "" {
		mode = qc.Mode
	}
	parsed, err := domain.ParseQueryMode(mode)
	if err != nil {
		return domain.ResolveRequest{}, err
	}

	req := domain.ResolveRequest{
		Mode:      parsed,
		Threshold: qc.Threshold,
		TopK:      qc.TopK,
	}
	if queryThreshold >= 0 {
		req.Threshold = queryThreshold
	}
	if queryTopK >= 0 {
		req.TopK = queryTopK
	}
	return req, nil
}

func runBatch(catalog port.FactCatalog, resolveUC *usecase.ResolveUseCase, base domain.ResolveRequest) error {
	var in io.Reader = os.Stdin
	if queryBatch != "-" {
		f, err := os.Open(queryBatch)
		if err != nil {
			return fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		in = f
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		out := queryOutput{Query: line}
		q, err := parseTerms(strings.Fields(line))
		if err == nil {
			req := base
			req.Query = q
			out.Query = q.String()
			out.Results, err = resolveUC.Resolve(req)
		}
		if err != nil {
			logger.Warnf("query %q failed: %v", line, err)
			out.Error = err.Error()
		}

		if err := printResults(catalog, out); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func printResults(catalog port.FactCatalog, out queryOutput) error {
	if queryJSON {
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%s\n", out.Query)
	if out.Error != "" {
		fmt.Printf("  error: %s\n", out.Error)
		return nil
	}
	if len(out.Results) == 0 {
		fmt.Println("  no matching facts")
		return nil
	}

	for i, r := range out.Results {
		fmt.Printf("  %2d. %-24s %8.3f", i+1, r.Fact, r.Score)
		if r.Count > 1 {
			fmt.Printf("  x%d", r.Count)
		}
		fmt.Println()

		if !queryShowAttrs {
			continue
		}
		rec, err := catalog.GetRecord(r.Fact)
		if err != nil {
			continue
		}
		for _, a := range rec.Attributes {
			fmt.Printf("        %s: %s\n", a.Name, a.Value)
		}
	}
	return nil
}
