package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pscompat/internal/profile/profiletest"
	"github.com/jward/pscompat/internal/query"
	"github.com/jward/pscompat/internal/runtime"
)

func TestResolveProfilePath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	existing := filepath.Join(dir, "linux")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o644))

	assert.Equal(t, existing, resolveProfilePath(existing, "profiles"))
	assert.Equal(t, "some.json", resolveProfilePath("some.json", "profiles"))
	assert.Equal(t, filepath.Join("a", "b"), resolveProfilePath(filepath.Join("a", "b"), "profiles"))
	assert.Equal(t, filepath.Join("profiles", "win10_ps51.json"), resolveProfilePath("win10_ps51", "profiles"))
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.ErrorContains(t, validateFormat("yaml"), `invalid format "yaml"`)
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	names := []string{"Get-ChildItem", "Get-Content", "Set-Content", "Write-Output", "gci", "ls"}
	got := suggest("GetChild", names)
	require.NotEmpty(t, got)
	assert.Equal(t, "Get-ChildItem", got[0])
	assert.Empty(t, suggest("zzz", names))

	many := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"}
	assert.Len(t, suggest("a", many), maxSuggestions)
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	err := notFound("command", "Write-Outpt", []string{"Write-Output", "Write-Host"})
	assert.ErrorContains(t, err, `command "Write-Outpt" not found; did you mean: Write-Output`)
	assert.EqualError(t, notFound("type", "Qqq", []string{"System.String"}), `type "Qqq" not found`)
}

func TestCommandToCLI(t *testing.T) {
	t.Parallel()

	p := query.New(profiletest.Sample("linux"))
	c, ok := p.Runtime().Commands().Lookup("ls")
	require.True(t, ok)

	got := commandToCLI("ls", c)
	assert.Equal(t, "ls", got.Query)
	assert.Equal(t, "Get-ChildItem", got.Name)
	assert.Equal(t, "Cmdlet", got.Kind)
	assert.Equal(t, "7.0.0.0", got.ModuleVersion)
	require.Len(t, got.Parameters, 2)
	assert.Equal(t, "LiteralPath", got.Parameters[0].Name)
	assert.ElementsMatch(t, []string{"LP", "PSPath"}, got.Parameters[0].Aliases)
	assert.Equal(t, "Path", got.Parameters[1].Name)
	assert.Empty(t, got.Parameters[1].Aliases)
}

func TestTypeToCLI(t *testing.T) {
	t.Parallel()

	p := query.New(profiletest.Sample("linux"))
	info, ok := p.Runtime().Types().Resolve("string[]")
	require.True(t, ok)

	got := typeToCLI("string[]", info)
	assert.Equal(t, "System.String", got.Name)
	assert.True(t, got.IsArray)
	require.NotNil(t, got.Instance)
	assert.Equal(t, 2, got.Instance.Constructors)
	assert.Equal(t, []string{"Length"}, got.Instance.Properties)
	assert.Equal(t, []string{"Substring"}, got.Instance.Methods)
	require.NotNil(t, got.Static)
	assert.Equal(t, []string{"Empty"}, got.Static.Fields)
}

func TestOutputResultText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result CLIResult
		want   []string
	}{
		{
			name:   "error",
			result: CLIResult{Command: "show", Error: "boom"},
			want:   []string{"Error: boom"},
		},
		{
			name: "profile",
			result: CLIResult{Results: CLIProfile{
				ID: "linux", OSName: "Ubuntu", OSFamily: "Linux", Architecture: "X64",
				PSVersion: "7.2.1", PSEdition: "Core", ModuleCount: 1, CommandCount: 2,
			}},
			want: []string{"Profile linux", "PowerShell: 7.2.1 Core", "1 module, 2 commands, 0 types"},
		},
		{
			name: "union",
			result: CLIResult{Results: CLIProfile{
				ID: "union_00000001", Union: true, Constituents: []string{"a", "b"},
			}},
			want: []string{"Union of:   a, b"},
		},
		{
			name:   "catalog",
			result: CLIResult{Results: []CLIProfile{{ID: "a", OSFamily: "Linux"}, {ID: "u", Union: true}}},
			want:   []string{"ID", "FAMILY", "a", "Linux", "u", "union"},
		},
		{
			name: "command",
			result: CLIResult{Results: CLICommand{
				Name: "Get-ChildItem", Kind: "Cmdlet", Module: "M", ModuleVersion: "1.0",
				Parameters: []CLIParameter{{Name: "Path", Type: "System.String[]", Aliases: []string{"p"}, Dynamic: true}},
			}},
			want: []string{"Get-ChildItem (Cmdlet) from M 1.0", "Path (dynamic)", "System.String[]"},
		},
		{
			name: "type",
			result: CLIResult{Results: CLIType{
				Name: "System.String", Assembly: "System.Private.CoreLib", IsArray: true,
				Static: &CLIMember{Fields: []string{"Empty"}},
			}},
			want: []string{"System.String[] [System.Private.CoreLib]", "static fields: Empty"},
		},
		{
			name:   "no diagnostics",
			result: CLIResult{Results: []runtime.Diagnostic{}},
			want:   []string{"No compatibility problems found."},
		},
		{
			name: "diagnostics",
			result: CLIResult{Results: []runtime.Diagnostic{
				{Rule: "type-missing", Severity: "error", Target: "linux", Message: "type X is not available"},
			}},
			want: []string{"linux: error: type X is not available [type-missing]"},
		},
		{
			name:   "extract",
			result: CLIResult{Results: CLIExtract{ID: "x", Path: "x.json", Modules: 1, Warnings: []string{"bad type"}}},
			want:   []string{"Wrote x to x.json (1 module, 0 commands, 0 types)", "warning: bad type"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, outputResultText(&buf, tt.result))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestCountErrors(t *testing.T) {
	t.Parallel()
	diags := []runtime.Diagnostic{{Severity: "error"}, {Severity: "warning"}, {Severity: "error"}}
	assert.Equal(t, 2, countErrors(diags))
	assert.Zero(t, countErrors(nil))
}
