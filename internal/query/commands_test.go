package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pscompat/internal/profile"
	"github.com/jward/pscompat/internal/profile/profiletest"
)

func TestCommands_LookupByNameAndAlias(t *testing.T) {
	t.Parallel()
	cmds := New(profiletest.Sample("p")).Runtime().Commands()

	byName, ok := cmds.Lookup("Get-ChildItem")
	require.True(t, ok)
	assert.Equal(t, "Get-ChildItem", byName.Name)
	assert.Equal(t, Cmdlet, byName.Kind)
	assert.Equal(t, "Microsoft.PowerShell.Management", byName.Module)
	assert.Equal(t, "7.0.0.0", byName.ModuleVersion)

	for _, alias := range []string{"gci", "GCI", "ls", "get-childitem"} {
		cmd, ok := cmds.Lookup(alias)
		require.True(t, ok, alias)
		assert.Same(t, byName, cmd, alias)
		assert.Same(t, byName.Data, cmd.Data, alias)
	}

	fn, ok := cmds.Lookup("get-drive")
	require.True(t, ok)
	assert.Equal(t, Function, fn.Kind)
	assert.True(t, fn.CmdletBinding)

	_, ok = cmds.Lookup("Remove-Universe")
	assert.False(t, ok)
}

func TestCommands_DataPointsIntoProfile(t *testing.T) {
	t.Parallel()
	d := profiletest.Sample("p")
	cmds := New(d).Runtime().Commands()

	mod, ok := d.Runtime.Modules.Get("Microsoft.PowerShell.Management")
	require.True(t, ok)
	gci, ok := mod["7.0.0.0"].Cmdlets.Get("Get-ChildItem")
	require.True(t, ok)

	cmd, ok := cmds.Lookup("ls")
	require.True(t, ok)
	assert.Same(t, &gci.CommandData, cmd.Data)
}

func TestCommand_Parameter(t *testing.T) {
	t.Parallel()
	cmds := New(profiletest.Sample("p")).Runtime().Commands()
	gci, ok := cmds.Lookup("gci")
	require.True(t, ok)

	tests := []struct {
		in     string
		want   string
		common bool
	}{
		{"Path", "Path", false},
		{"path", "Path", false},
		{"LP", "LiteralPath", false},
		{"pspath", "LiteralPath", false},
		{"Verbose", "Verbose", true},
		{"vb", "Verbose", true},
	}
	for _, tt := range tests {
		p, ok := gci.Parameter(tt.in)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.want, p.Name, tt.in)
		assert.Equal(t, tt.common, p.Common, tt.in)
		assert.NotNil(t, p.Data, tt.in)
	}

	_, ok = gci.Parameter("Recurse")
	assert.False(t, ok)
}

func TestCommand_ParameterCommonOnlyForAdvancedCommands(t *testing.T) {
	t.Parallel()

	d := profiletest.Sample("p")
	mod, _ := d.Runtime.Modules.Get("Microsoft.PowerShell.Management")
	simple := &profile.FunctionData{}
	mod["7.0.0.0"].Functions.Set("prompt", simple)

	cmds := New(d).Runtime().Commands()

	advanced, ok := cmds.Lookup("Get-Drive")
	require.True(t, ok)
	_, ok = advanced.Parameter("Verbose")
	assert.True(t, ok)

	plain, ok := cmds.Lookup("prompt")
	require.True(t, ok)
	_, ok = plain.Parameter("Verbose")
	assert.False(t, ok)
}

func TestCommands_HighestModuleVersionWins(t *testing.T) {
	t.Parallel()

	older := &profile.ModuleData{}
	older.Cmdlets.Set("Get-Thing", &profile.CmdletData{})
	older.Aliases.Set("gt", "Get-Thing")
	newer := &profile.ModuleData{}
	newer.Cmdlets.Set("Get-Thing", &profile.CmdletData{})
	odd := &profile.ModuleData{}
	odd.Cmdlets.Set("Get-Thing", &profile.CmdletData{})

	rt := &profile.RuntimeData{}
	rt.Modules.Set("Things", map[string]*profile.ModuleData{
		"1.9.0":    older,
		"1.10.0":   newer,
		"not-semv": odd,
	})

	cmds := New(&profile.Data{ID: "p", Runtime: rt}).Runtime().Commands()
	cmd, ok := cmds.Lookup("Get-Thing")
	require.True(t, ok)
	assert.Equal(t, "1.10.0", cmd.ModuleVersion)

	byAlias, ok := cmds.Lookup("gt")
	require.True(t, ok)
	assert.Same(t, cmd, byAlias)
}

func TestCommands_AliasToUnknownCommandIsSkipped(t *testing.T) {
	t.Parallel()

	d := profiletest.Sample("p")
	mod, _ := d.Runtime.Modules.Get("Microsoft.PowerShell.Management")
	mod["7.0.0.0"].Aliases.Set("ghost", "Get-Ghost")

	cmds := New(d).Runtime().Commands()
	_, ok := cmds.Lookup("ghost")
	assert.False(t, ok)
	assert.Equal(t, []string{"gci", "ls"}, cmds.AliasNames())
}

func TestCommands_Names(t *testing.T) {
	t.Parallel()
	cmds := New(profiletest.Sample("p")).Runtime().Commands()
	assert.Equal(t, []string{"Get-ChildItem", "Get-Drive"}, cmds.Names())
}

func TestSortVersionsDesc(t *testing.T) {
	t.Parallel()
	versions := map[string]*profile.ModuleData{
		"1.0": nil, "2.0.1": nil, "10.0": nil, "b": nil, "a": nil, "2.0.1-rc.1": nil,
	}
	assert.Equal(t, []string{"10.0", "2.0.1", "2.0.1-rc.1", "1.0", "a", "b"}, sortVersionsDesc(versions))
}

func TestRuntime_Accessors(t *testing.T) {
	t.Parallel()
	p := New(profiletest.Sample("linux"))

	assert.Equal(t, "linux", p.ID())
	require.NotNil(t, p.Platform())
	assert.Equal(t, profile.OSFamilyLinux, p.Platform().OperatingSystem.Family)

	native, ok := p.Runtime().NativeCommands("BASH")
	require.True(t, ok)
	require.Len(t, native, 1)
	assert.Equal(t, "/usr/bin/bash", native[0].Path)

	versions, ok := p.Runtime().Module("microsoft.powershell.management")
	require.True(t, ok)
	assert.Contains(t, versions, "7.0.0.0")

	assert.Same(t, p.Runtime().Types(), p.Runtime().Types())
	assert.Same(t, p.Runtime().Commands(), p.Runtime().Commands())
}
