package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/pscompat"
	"github.com/jward/pscompat/internal/profile"
	"github.com/jward/pscompat/internal/query"
	"github.com/jward/pscompat/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show <profile>",
	Short: "Summarize a profile",
	Long:  "Loads a profile, given as a file path or an id in the profile directory, and prints its platform and counts.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var commandCmd = &cobra.Command{
	Use:   "command <profile> <name>",
	Short: "Look up a command or alias in a profile",
	Args:  cobra.ExactArgs(2),
	RunE:  runCommand,
}

var typeCmd = &cobra.Command{
	Use:   "type <profile> <ref>",
	Short: "Resolve a type reference in a profile",
	Long:  "Resolves a type reference such as int, [System.IO.File], string[] or List[int] and lists the type's members.",
	Args:  cobra.ExactArgs(2),
	RunE:  runType,
}

// loadProfile loads one profile through a fresh cache.
func loadProfile(ctx context.Context, arg string) (*pscompat.Profile, error) {
	c, err := newCache()
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Load(ctx, resolveProfilePath(arg, cfg.ProfileDir))
}

func runShow(cmd *cobra.Command, args []string) error {
	p, err := loadProfile(cmd.Context(), args[0])
	if err != nil {
		return outputError("show", err)
	}
	return outputResult(CLIResult{
		Command: "show",
		Results: profileToCLI(store.Summarize(p.Path, p.Data, time.Time{})),
	})
}

func runCommand(cmd *cobra.Command, args []string) error {
	p, err := loadProfile(cmd.Context(), args[0])
	if err != nil {
		return outputError("command", err)
	}
	cmds := p.Runtime().Commands()
	c, ok := cmds.Lookup(args[1])
	if !ok {
		return outputError("command", notFound("command", args[1], slices.Concat(cmds.Names(), cmds.AliasNames())))
	}
	return outputResult(CLIResult{Command: "command", Results: commandToCLI(args[1], c)})
}

func runType(cmd *cobra.Command, args []string) error {
	p, err := loadProfile(cmd.Context(), args[0])
	if err != nil {
		return outputError("type", err)
	}
	types := p.Runtime().Types()
	info, ok := types.Resolve(args[1])
	if !ok {
		return outputError("type", notFound("type", args[1], types.Names()))
	}
	return outputResult(CLIResult{Command: "type", Results: typeToCLI(args[1], info)})
}

func profileToCLI(s *store.Profile) CLIProfile {
	return CLIProfile{
		ID:            s.ID,
		Path:          s.Path,
		OSFamily:      s.OSFamily,
		OSName:        s.OSName,
		Architecture:  s.Architecture,
		PSVersion:     s.PSVersion,
		PSEdition:     s.PSEdition,
		DotnetRuntime: s.DotnetRuntime,
		Union:         s.Union,
		Constituents:  s.Constituents,
		ModuleCount:   s.ModuleCount,
		CommandCount:  s.CommandCount,
		TypeCount:     s.TypeCount,
		LoadedAt:      s.LoadedAt,
	}
}

func commandToCLI(q string, c *query.Command) CLICommand {
	out := CLICommand{
		Query:         q,
		Name:          c.Name,
		Kind:          c.Kind.String(),
		Module:        c.Module,
		ModuleVersion: c.ModuleVersion,
		CmdletBinding: c.CmdletBinding,
		OutputType:    c.Data.OutputType,
		ParameterSets: c.Data.ParameterSets,
		Parameters:    []CLIParameter{},
	}
	aliases := make(map[string][]string)
	for alias, target := range c.Data.ParameterAliases.All() {
		key := profile.FoldKey(target)
		aliases[key] = append(aliases[key], alias)
	}
	for name, pd := range c.Data.Parameters.All() {
		out.Parameters = append(out.Parameters, CLIParameter{
			Name:    name,
			Type:    pd.Type,
			Aliases: aliases[profile.FoldKey(name)],
			Dynamic: pd.Dynamic,
		})
	}
	return out
}

func typeToCLI(q string, info query.TypeInfo) CLIType {
	out := CLIType{
		Query:    q,
		Name:     info.Name,
		Assembly: info.Assembly,
		IsArray:  info.IsArray,
	}
	if info.Data != nil {
		out.Instance = membersToCLI(info.Data.Instance)
		out.Static = membersToCLI(info.Data.Static)
	}
	return out
}

func membersToCLI(m *profile.MemberData) *CLIMember {
	if m == nil {
		return nil
	}
	return &CLIMember{
		Constructors: len(m.Constructors),
		Fields:       m.Fields.Keys(),
		Properties:   m.Properties.Keys(),
		Methods:      m.Methods.Keys(),
		Events:       m.Events.Keys(),
		NestedTypes:  m.NestedTypes.Keys(),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func countLabel(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
