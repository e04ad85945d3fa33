package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fuzzydex/config"
	"fuzzydex/internal/adapter/store"
	"fuzzydex/internal/logging"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
	logger   *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fuzzydex",
	Short: "Fuzzy multidimensional fact lookup",
	Long: `fuzzydex imports facts from CSV, JSON and YAML files and resolves
approximate queries against them, ranking facts by weighted edit distance
across several attributes.

Example usage:
  fuzzydex import data/                          # Import fact files
  fuzzydex query name=alise city=pariss          # Ranked lookup
  fuzzydex query --mode exact name=alice         # Exact lookup
  fuzzydex facts --tally city                    # Most common cities`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = logging.NewStderr(cfg.Logging.Level)
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./fuzzydex.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from config)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// openCatalog opens the existing catalog under the root directory.
func openCatalog() (*store.BoltStore, error) {
	dbPath := config.CatalogPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no catalog found. Run 'fuzzydex import' first")
	}
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if reimport, reason, err := st.NeedsReimport(GetConfig()); err != nil {
		st.Close()
		return nil, err
	} else if reimport {
		logger.Warnf("catalog is stale (%s); run 'fuzzydex import --reset'", reason)
	}
	return st, nil
}
