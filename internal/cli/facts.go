package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"fuzzydex/internal/usecase"
)

var (
	factsJSON    bool
	factsStats   bool
	factsTally   string
	factsAliases bool
	factsLimit   int
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Inspect the fact catalog",
	Long: `List the facts stored in the catalog, summarise it, or count the
most common values of one dimension.

Examples:
  fuzzydex facts                      # List facts in import order
  fuzzydex facts --stats              # Facts and values per dimension
  fuzzydex facts --tally city -n 5    # Five most common cities`,
	Args: cobra.NoArgs,
	RunE: runFacts,
}

func init() {
	rootCmd.AddCommand(factsCmd)
	factsCmd.Flags().BoolVar(&factsJSON, "json", false, "output as JSON")
	factsCmd.Flags().BoolVar(&factsStats, "stats", false, "show catalog statistics")
	factsCmd.Flags().StringVar(&factsTally, "tally", "", "count the values of a dimension")
	factsCmd.Flags().BoolVar(&factsAliases, "aliases", false, "include aliases in --tally")
	factsCmd.Flags().IntVarP(&factsLimit, "limit", "n", 0, "maximum number of rows (0 = all)")
}

func runFacts(cmd *cobra.Command, args []string) error {
	st, err := openCatalog()
	if err != nil {
		return err
	}
	defer st.Close()

	switch {
	case factsTally != "":
		counts, err := usecase.Tally(st, factsTally, factsAliases)
		if err != nil {
			return err
		}
		if factsLimit > 0 && len(counts) > factsLimit {
			counts = counts[:factsLimit]
		}
		if factsJSON {
			return printJSON(counts)
		}
		for _, c := range counts {
			fmt.Printf("%6d  %s\n", c.Count, c.Value)
		}
		return nil

	case factsStats:
		stats, err := st.Stats()
		if err != nil {
			return err
		}
		if factsJSON {
			return printJSON(stats)
		}
		fmt.Printf("Facts:   %d\n", stats.TotalFacts)
		fmt.Printf("Aliases: %d\n", stats.TotalAliases)
		dims := make([]string, 0, len(stats.Dimensions))
		for d := range stats.Dimensions {
			dims = append(dims, d)
		}
		sort.Strings(dims)
		fmt.Println("Dimensions:")
		for _, d := range dims {
			fmt.Printf("  %-20s %d\n", d, stats.Dimensions[d])
		}
		return nil
	}

	records, err := st.ListRecords()
	if err != nil {
		return err
	}
	if factsLimit > 0 && len(records) > factsLimit {
		records = records[:factsLimit]
	}
	if factsJSON {
		return printJSON(records)
	}
	for _, rec := range records {
		parts := make([]string, 0, len(rec.Attributes))
		for _, a := range rec.Attributes {
			parts = append(parts, a.Name+"="+a.Value)
		}
		line := rec.ID + "  " + strings.Join(parts, " ")
		if len(rec.Aliases) > 0 {
			line += fmt.Sprintf("  (+%d aliases)", len(rec.Aliases))
		}
		fmt.Println(line)
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
