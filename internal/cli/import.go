package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fuzzydex/config"
	"fuzzydex/internal/adapter/fs"
	"fuzzydex/internal/adapter/loader"
	"fuzzydex/internal/adapter/store"
	"fuzzydex/internal/usecase"
)

var importReset bool

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import fact files into the catalog",
	Long: `Import CSV, JSON and YAML fact files into the catalog.
The catalog is stored in .fuzzydex/catalog.db within the root directory.
Records removed from a file since its last import are deleted.

Examples:
  fuzzydex import .                # Import every fact file below the root
  fuzzydex import people.csv       # Import a single file
  fuzzydex import --reset data/    # Drop the catalog before importing`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importReset, "reset", false, "clear the catalog before importing")
}

func importOptions(cfg *config.Config) loader.Options {
	return loader.Options{
		IDField:        cfg.Import.IDField,
		Fields:         cfg.Import.Fields,
		AliasSeparator: cfg.Import.AliasSeparator,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	root := GetRootDir()
	path := root
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	cfg := GetConfig()

	if err := config.EnsureDataDir(root); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", config.DataDirName, err)
	}

	dbPath := config.CatalogPath(root)
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer st.Close()

	migration, err := st.CheckMigration(cfg)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}

	switch {
	case importReset || migration.NeedsReimport:
		if migration.NeedsReimport {
			fmt.Printf("Re-import required: %s\n", migration.Reason)
		}
		fmt.Println("Clearing existing catalog...")
		if err := st.Clear(); err != nil {
			return fmt.Errorf("failed to clear catalog: %w", err)
		}
	case migration.NeedsMigration:
		logger.Infof("running schema migration: %s", migration.Reason)
		if err := st.Migrate(cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	walker := fs.NewWalker(cfg.Import.Includes, cfg.Import.Excludes)
	importUC := usecase.NewImportUseCase(st, walker, importOptions(cfg), logger)

	fmt.Printf("Scanning %s...\n", path)
	result, err := importUC.Import(path, newProgress("Importing"))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if err := st.Migrate(cfg); err != nil {
		return fmt.Errorf("failed to update schema info: %w", err)
	}

	stats, err := st.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("\nImport complete:\n")
	fmt.Printf("  Files imported:  %d\n", result.FilesImported)
	fmt.Printf("  Files failed:    %d\n", result.FilesFailed)
	fmt.Printf("  Records stored:  %d\n", result.RecordsStored)
	fmt.Printf("  Records deleted: %d (removed from their file)\n", result.RecordsDeleted)
	fmt.Printf("  Catalog facts:   %d (%d aliases)\n", stats.TotalFacts, stats.TotalAliases)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nCatalog stored at: %s\n", dbPath)
	return nil
}
