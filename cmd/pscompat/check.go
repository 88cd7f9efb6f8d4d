package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/pscompat/internal/query"
	"github.com/jward/pscompat/internal/runtime"
	"github.com/jward/pscompat/scripts"
)

var (
	flagProfiles   []string
	flagCommands   []string
	flagTypes      []string
	flagScriptsDir string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check command and type references against profiles",
	Long: `Runs the check scripts against each --profile and reports every command,
parameter or type reference the profile does not provide. A command reference
is a name or alias followed by parameter names, e.g. "gci -Path -Recurse".
Exits non-zero when an error-severity problem is found.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringArrayVar(&flagProfiles, "profile", nil, "profile path or id to check against (repeatable; default: the union of the profile directory)")
	checkCmd.Flags().StringArrayVar(&flagCommands, "command", nil, "command reference (repeatable)")
	checkCmd.Flags().StringArrayVar(&flagTypes, "type", nil, "type reference (repeatable)")
	checkCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "load check scripts from disk path instead of embedded (default: config check_scripts)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := newCache()
	if err != nil {
		return outputError("check", err)
	}
	defer c.Close()

	in := &runtime.Input{Commands: flagCommands, Types: flagTypes}
	if len(flagProfiles) == 0 {
		u, err := c.GetOrBuildUnion(ctx, cfg.ProfileDir, cfg.UnionExclude)
		if err != nil {
			return outputError("check", err)
		}
		in.Targets = []*query.Profile{u.View}
	} else {
		paths := make([]string, len(flagProfiles))
		for i, arg := range flagProfiles {
			paths[i] = resolveProfilePath(arg, cfg.ProfileDir)
		}
		loaded, err := c.LoadAll(ctx, paths)
		if err != nil {
			return outputError("check", err)
		}
		for _, p := range loaded {
			in.Targets = append(in.Targets, p.View)
		}
	}

	rt := newCheckRuntime()
	diags, err := rt.CheckAll(ctx, in)
	if err != nil {
		return outputError("check", err)
	}

	total := len(diags)
	if diags == nil {
		diags = []runtime.Diagnostic{}
	}
	if err := outputResult(CLIResult{Command: "check", Results: diags, TotalCount: &total}); err != nil {
		return err
	}
	if n := countErrors(diags); n > 0 {
		errorHandled = true
		return fmt.Errorf("%d compatibility errors", n)
	}
	return nil
}

func newCheckRuntime() *runtime.Runtime {
	dir := cfg.CheckScripts
	if flagScriptsDir != "" {
		dir = flagScriptsDir
	}
	if dir != "" {
		return runtime.NewRuntime(dir, runtime.WithLogger(logger))
	}
	return runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.Checks()), runtime.WithLogger(logger))
}

func countErrors(diags []runtime.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == "error" {
			n++
		}
	}
	return n
}
