package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/pscompat"
	"github.com/jward/pscompat/internal/config"
	"github.com/jward/pscompat/internal/logging"
	"github.com/jward/pscompat/internal/store"
)

var (
	flagConfig     string
	flagFormat     string
	flagLogLevel   string
	flagProfileDir string
	flagCatalog    string
)

// Set by the root command before any subcommand runs.
var (
	cfg    *config.Config
	logger *slog.Logger
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pscompat",
	Short:         "PowerShell compatibility profiles",
	Long:          "pscompat extracts, inspects, unions and checks PowerShell compatibility profiles: JSON snapshots of the commands, modules and .NET types a PowerShell runtime provides.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return setup(cmd)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: $PSCOMPAT_CONFIG, then <user config dir>/pscompat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&flagProfileDir, "profile-dir", "", "directory holding profile files")
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "SQLite catalog path")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(commandCmd)
	rootCmd.AddCommand(typeCmd)
	rootCmd.AddCommand(unionCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(catalogCmd)
}

// setup loads the configuration, applies flag overrides and builds the
// logger.
func setup(cmd *cobra.Command) error {
	c, path, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("profile-dir") {
		c.ProfileDir = flagProfileDir
	}
	if cmd.Flags().Changed("catalog") {
		c.Catalog = flagCatalog
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel = flagLogLevel
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	cfg = c
	logger = logging.New(os.Stderr, level)
	if path != "" {
		logger.Debug("config loaded", "path", path)
	}
	return nil
}

// newCache builds a profile cache wired to the configured catalog.
func newCache() (*pscompat.Cache, error) {
	opts := []pscompat.Option{
		pscompat.WithLogger(logger),
		pscompat.WithWorkers(cfg.Workers),
	}
	if cfg.Catalog != "" {
		s, err := openCatalog(cfg.Catalog)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pscompat.WithCatalog(s))
	}
	return pscompat.NewCache(opts...), nil
}

// openCatalog opens the catalog database, creating its directory.
func openCatalog(path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return s, nil
}

// resolveProfilePath turns a profile argument into a file path. An argument
// naming an existing file, or ending in .json, is used as is; anything else
// is taken as a profile id in dir.
func resolveProfilePath(arg, dir string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	if strings.EqualFold(filepath.Ext(arg), ".json") || strings.ContainsRune(arg, filepath.Separator) {
		return arg
	}
	return filepath.Join(dir, arg+".json")
}
