package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jward/pscompat/internal/runtime"
)

var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputResultText renders a CLIResult in human-readable form.
func outputResultText(w io.Writer, result CLIResult) error {
	if result.Error != "" {
		_, err := fmt.Fprintf(w, "Error: %s\n", result.Error)
		return err
	}
	switch r := result.Results.(type) {
	case CLIProfile:
		formatProfileText(w, r)
	case []CLIProfile:
		formatProfilesText(w, r)
	case CLICommand:
		formatCommandText(w, r)
	case CLIType:
		formatTypeText(w, r)
	case CLIExtract:
		formatExtractText(w, r)
	case []runtime.Diagnostic:
		formatDiagnosticsText(w, r)
	default:
		_, err := fmt.Fprintf(w, "%v\n", r)
		return err
	}
	return nil
}

// formatProfileText formats one profile summary as readable text.
func formatProfileText(w io.Writer, p CLIProfile) {
	fmt.Fprintf(w, "Profile %s\n", p.ID)
	fmt.Fprintln(w, strings.Repeat("=", len("Profile ")+len(p.ID)))
	if p.Path != "" {
		fmt.Fprintf(w, "Path:       %s\n", p.Path)
	}
	if p.Union {
		fmt.Fprintf(w, "Union of:   %s\n", strings.Join(p.Constituents, ", "))
	} else {
		fmt.Fprintf(w, "OS:         %s (%s, %s)\n", p.OSName, p.OSFamily, p.Architecture)
		fmt.Fprintf(w, "PowerShell: %s %s\n", p.PSVersion, p.PSEdition)
		fmt.Fprintf(w, ".NET:       %s\n", p.DotnetRuntime)
	}
	fmt.Fprintf(w, "Contents:   %s, %s, %s\n",
		countLabel(p.ModuleCount, "module"),
		countLabel(p.CommandCount, "command"),
		countLabel(p.TypeCount, "type"))
}

// formatProfilesText formats catalog records as aligned columns.
func formatProfilesText(w io.Writer, profiles []CLIProfile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFAMILY\tPOWERSHELL\tCOMMANDS\tTYPES\tLOADED\tPATH")
	for _, p := range profiles {
		family, ps := p.OSFamily, strings.TrimSpace(p.PSVersion+" "+p.PSEdition)
		if p.Union {
			family, ps = "union", "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			p.ID, family, ps, p.CommandCount, p.TypeCount, formatTime(p.LoadedAt), p.Path)
	}
	tw.Flush()
}

// formatCommandText formats a command and its parameters.
func formatCommandText(w io.Writer, c CLICommand) {
	fmt.Fprintf(w, "%s (%s) from %s %s\n", c.Name, c.Kind, c.Module, c.ModuleVersion)
	if len(c.OutputType) > 0 {
		fmt.Fprintf(w, "Output: %s\n", strings.Join(c.OutputType, ", "))
	}
	if len(c.Parameters) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAMETER\tTYPE\tALIASES")
	for _, p := range c.Parameters {
		name := p.Name
		if p.Dynamic {
			name += " (dynamic)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, p.Type, strings.Join(p.Aliases, ", "))
	}
	tw.Flush()
}

// formatTypeText formats a type and its member names.
func formatTypeText(w io.Writer, t CLIType) {
	name := t.Name
	if t.IsArray {
		name += "[]"
	}
	fmt.Fprintf(w, "%s [%s]\n", name, t.Assembly)
	formatMembersText(w, "static", t.Static)
	formatMembersText(w, "instance", t.Instance)
}

func formatMembersText(w io.Writer, side string, m *CLIMember) {
	if m == nil {
		return
	}
	groups := []struct {
		label string
		names []string
	}{
		{"fields", m.Fields},
		{"properties", m.Properties},
		{"methods", m.Methods},
		{"events", m.Events},
		{"nested types", m.NestedTypes},
	}
	if m.Constructors > 0 {
		fmt.Fprintf(w, "  %s constructors: %d\n", side, m.Constructors)
	}
	for _, g := range groups {
		if len(g.names) > 0 {
			fmt.Fprintf(w, "  %s %s: %s\n", side, g.label, strings.Join(g.names, ", "))
		}
	}
}

func formatExtractText(w io.Writer, e CLIExtract) {
	fmt.Fprintf(w, "Wrote %s to %s (%s, %s, %s)\n", e.ID, e.Path,
		countLabel(e.Modules, "module"), countLabel(e.Commands, "command"), countLabel(e.Types, "type"))
	for _, warning := range e.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

// formatDiagnosticsText formats check results as "target: severity: message" lines.
func formatDiagnosticsText(w io.Writer, diags []runtime.Diagnostic) {
	if len(diags) == 0 {
		fmt.Fprintln(w, "No compatibility problems found.")
		return
	}
	for _, d := range diags {
		fmt.Fprintf(w, "%s: %s: %s [%s]\n", d.Target, d.Severity, d.Message, d.Rule)
	}
}
