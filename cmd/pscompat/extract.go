package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/pscompat/internal/codec"
	"github.com/jward/pscompat/internal/extract"
	"github.com/jward/pscompat/internal/store"
)

var (
	flagDump   string
	flagID     string
	flagOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build a profile from a runtime dump",
	Long:  "Reads a JSON dump of a PowerShell runtime (modules, assemblies, accelerators, platform) and writes the compatibility profile built from it. Items that fail are reported as warnings and left out.",
	Args:  cobra.NoArgs,
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&flagDump, "dump", "", "runtime dump file (required)")
	extractCmd.Flags().StringVar(&flagID, "id", "", "profile id (required)")
	extractCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file (default: <profile dir>/<id>.json)")
	_ = extractCmd.MarkFlagRequired("dump")
	_ = extractCmd.MarkFlagRequired("id")
}

func runExtract(cmd *cobra.Command, args []string) error {
	dump, err := extract.LoadDump(flagDump)
	if err != nil {
		return outputError("extract", err)
	}

	x := extract.New(extract.WithWorkers(cfg.Workers))
	d, errs, err := x.Extract(cmd.Context(), dump, flagID)
	if err != nil {
		return outputError("extract", err)
	}

	warnings := make([]string, 0, len(errs))
	for _, e := range errs {
		logger.Warn("extraction skipped item", "kind", e.Kind, "item", e.Item, "err", e.Err)
		warnings = append(warnings, e.Error())
	}

	out := flagOutput
	if out == "" {
		out = filepath.Join(cfg.ProfileDir, flagID+".json")
	}
	if err := codec.WriteFile(out, d); err != nil {
		return outputError("extract", fmt.Errorf("writing profile: %w", err))
	}
	logger.Info("profile written", "id", flagID, "path", out, "skipped", len(errs))

	s := store.Summarize(out, d, time.Now())
	if cfg.Catalog != "" {
		if err := recordProfile(s); err != nil {
			logger.Warn("catalog update failed", "id", flagID, "err", err)
		}
	}

	return outputResult(CLIResult{
		Command: "extract",
		Results: CLIExtract{
			ID:       flagID,
			Path:     out,
			Modules:  s.ModuleCount,
			Commands: s.CommandCount,
			Types:    s.TypeCount,
			Warnings: warnings,
		},
	})
}

func recordProfile(s *store.Profile) error {
	catalog, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	defer catalog.Close()
	return catalog.UpsertProfile(s)
}
