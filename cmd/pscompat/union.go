package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/pscompat/internal/store"
)

var flagExclude string

var unionCmd = &cobra.Command{
	Use:   "union [dir]",
	Short: "Build or reuse the union of every profile in a directory",
	Long:  "Loads every profile in dir (default: the profile directory) except files matching --exclude, and returns their union. A valid union file already in dir is reused; otherwise the union is built and written there.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUnion,
}

var flagFamily string

var errNoCatalog = errors.New("no catalog configured (set catalog in the config file or pass --catalog)")

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the profile catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued profiles",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogUnionsCmd = &cobra.Command{
	Use:   "unions <profile-id>",
	Short: "List catalogued unions built from a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogUnions,
}

func init() {
	unionCmd.Flags().StringVar(&flagExclude, "exclude", "", "doublestar pattern of file names to skip (default: config union_exclude)")
	catalogListCmd.Flags().StringVar(&flagFamily, "family", "", "only profiles of this OS family (Windows|Linux|MacOS)")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogUnionsCmd)
}

func runUnion(cmd *cobra.Command, args []string) error {
	dir := cfg.ProfileDir
	if len(args) > 0 {
		dir = args[0]
	}
	exclude := cfg.UnionExclude
	if flagExclude != "" {
		exclude = flagExclude
	}

	c, err := newCache()
	if err != nil {
		return outputError("union", err)
	}
	defer c.Close()

	u, err := c.GetOrBuildUnion(cmd.Context(), dir, exclude)
	if err != nil {
		return outputError("union", err)
	}
	c.Wait()
	return outputResult(CLIResult{
		Command: "union",
		Results: profileToCLI(store.Summarize(u.Path, u.Data, time.Time{})),
	})
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	if cfg.Catalog == "" {
		return outputError("catalog list", errNoCatalog)
	}
	s, err := openCatalog(cfg.Catalog)
	if err != nil {
		return outputError("catalog list", err)
	}
	defer s.Close()

	profiles, err := s.Profiles(flagFamily)
	if err != nil {
		return outputError("catalog list", err)
	}
	results := make([]CLIProfile, 0, len(profiles))
	for _, p := range profiles {
		results = append(results, profileToCLI(p))
	}
	total := len(results)
	return outputResult(CLIResult{Command: "catalog list", Results: results, TotalCount: &total})
}

func runCatalogUnions(cmd *cobra.Command, args []string) error {
	if cfg.Catalog == "" {
		return outputError("catalog unions", errNoCatalog)
	}
	s, err := openCatalog(cfg.Catalog)
	if err != nil {
		return outputError("catalog unions", err)
	}
	defer s.Close()

	id := args[0]
	p, err := s.ProfileByID(id)
	if err != nil {
		return outputError("catalog unions", err)
	}
	if p == nil {
		all, err := s.Profiles("")
		if err != nil {
			return outputError("catalog unions", err)
		}
		ids := make([]string, len(all))
		for i, p := range all {
			ids[i] = p.ID
		}
		return outputError("catalog unions", notFound("profile", id, ids))
	}

	unionIDs, err := s.UnionsContaining(id)
	if err != nil {
		return outputError("catalog unions", err)
	}
	results := make([]CLIProfile, 0, len(unionIDs))
	for _, uid := range unionIDs {
		u, err := s.ProfileByID(uid)
		if err != nil {
			return outputError("catalog unions", err)
		}
		if u != nil {
			results = append(results, profileToCLI(u))
		}
	}
	total := len(results)
	return outputResult(CLIResult{Command: "catalog unions", Results: results, TotalCount: &total})
}
