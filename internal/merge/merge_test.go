package merge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pscompat/internal/profile"
	"github.com/jward/pscompat/internal/profile/profiletest"
)

// windows returns a profile that overlaps the sample on Get-ChildItem and
// System.String and adds things of its own.
func windows() *profile.Data {
	d := profiletest.Sample("win10_ps7")
	d.Platform.OperatingSystem.Family = profile.OSFamilyWindows

	mod, _ := d.Runtime.Modules.Get("Microsoft.PowerShell.Management")
	m := mod["7.0.0.0"]
	gci, _ := m.Cmdlets.Get("Get-ChildItem")
	path, _ := gci.Parameters.Get("Path")
	path.ParameterSets.Set("Items", profile.ParameterSetData{Flags: profile.Mandatory | profile.ValueFromPipeline, Position: 0})
	gci.Parameters.Set("Attributes", &profile.ParameterData{Type: "System.IO.FileAttributes", Dynamic: true})
	gci.OutputType = append(gci.OutputType, "System.Object")
	m.Aliases.Set("dir", "Get-ChildItem")
	m.Cmdlets.Set("Get-WmiObject", &profile.CmdletData{})

	d.Runtime.NativeCommands.Set("where.exe", []profile.NativeCommandData{{Path: `C:\Windows\System32\where.exe`}})

	corelib, _ := d.Runtime.Types.Assemblies.Get("System.Private.CoreLib")
	str, _ := corelib.Type("System", "String")
	str.Instance.Constructors = append(str.Instance.Constructors, []string{"System.ReadOnlySpan`1[System.Char]"})
	sub, _ := str.Instance.Methods.Get("Substring")
	sub.OverloadParameters = append(sub.OverloadParameters, []string{"System.Index"})
	str.Instance.Properties.Set("Length", profile.PropertyData{Type: "System.Int32", Accessors: profile.AccessorGet | profile.AccessorSet})
	corelib.AddType("Microsoft.Win32", "Registry", &profile.TypeData{Static: &profile.MemberData{}})

	d.Runtime.Types.TypeAccelerators.Set("wmi", profile.TypeAcceleratorData{Type: "System.Management.ManagementObject"})
	return d
}

func TestProfiles_Union(t *testing.T) {
	t.Parallel()

	linux := profiletest.Sample("ubuntu20_ps7")
	u := Profiles([]*profile.Data{linux, windows()}, "union_x")

	assert.Equal(t, "union_x", u.ID)
	assert.Nil(t, u.Platform)
	assert.Equal(t, []string{"ubuntu20_ps7", "win10_ps7"}, u.ConstituentIDs)
	assert.True(t, u.IsUnion())

	mod, ok := u.Runtime.Modules.Get("Microsoft.PowerShell.Management")
	require.True(t, ok)
	m := mod["7.0.0.0"]
	assert.True(t, m.Cmdlets.Has("Get-WmiObject"))
	assert.True(t, m.Functions.Has("Get-Drive"))
	assert.ElementsMatch(t, []string{"dir", "gci", "ls"}, m.Aliases.Keys())

	gci, _ := m.Cmdlets.Get("Get-ChildItem")
	assert.Equal(t, []string{"System.IO.FileInfo", "System.IO.DirectoryInfo", "System.Object"}, gci.OutputType)
	assert.True(t, gci.Parameters.Has("Attributes"))

	path, _ := gci.Parameters.Get("Path")
	items, _ := path.ParameterSets.Get("Items")
	assert.False(t, items.Flags.Has(profile.Mandatory), "mandatory only on one platform")
	assert.True(t, items.Flags.Has(profile.ValueFromPipeline|profile.ValueFromPipelineByPropertyName))

	native, ok := u.Runtime.NativeCommands.Get("where.exe")
	require.True(t, ok)
	assert.Len(t, native, 1)
	bash, _ := u.Runtime.NativeCommands.Get("bash")
	assert.Len(t, bash, 1, "identical entries collapse")

	corelib, _ := u.Runtime.Types.Assemblies.Get("System.Private.CoreLib")
	_, ok = corelib.Type("Microsoft.Win32", "Registry")
	assert.True(t, ok)
	str, _ := corelib.Type("System", "String")
	assert.Len(t, str.Instance.Constructors, 3)
	sub, _ := str.Instance.Methods.Get("Substring")
	assert.Len(t, sub.OverloadParameters, 3)
	length, _ := str.Instance.Properties.Get("Length")
	assert.Equal(t, profile.AccessorGet|profile.AccessorSet, length.Accessors)

	assert.True(t, u.Runtime.Types.TypeAccelerators.Has("wmi"))
	assert.True(t, u.Runtime.Types.TypeAccelerators.Has("int"))
	assert.True(t, u.Runtime.Common.Parameters.Has("Verbose"))
}

func TestProfiles_OrderIndependent(t *testing.T) {
	t.Parallel()

	a := Profiles([]*profile.Data{profiletest.Sample("ubuntu20_ps7"), windows()}, "union_x")
	b := Profiles([]*profile.Data{windows(), profiletest.Sample("ubuntu20_ps7")}, "union_x")

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestProfiles_DoesNotModifyInputs(t *testing.T) {
	t.Parallel()

	linux := profiletest.Sample("ubuntu20_ps7")
	win := windows()
	before, err := json.Marshal(linux)
	require.NoError(t, err)

	u := Profiles([]*profile.Data{linux, win}, "union_x")

	mod, _ := u.Runtime.Modules.Get("Microsoft.PowerShell.Management")
	gci, _ := mod["7.0.0.0"].Cmdlets.Get("Get-ChildItem")
	gci.Parameters.Set("Added", &profile.ParameterData{})

	after, err := json.Marshal(linux)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))

	orig, _ := linux.Runtime.Modules.Get("Microsoft.PowerShell.Management")
	origGci, _ := orig["7.0.0.0"].Cmdlets.Get("Get-ChildItem")
	assert.NotSame(t, origGci, gci)
}

func TestProfiles_FlattensUnionInputs(t *testing.T) {
	t.Parallel()

	inner := Profiles([]*profile.Data{profiletest.Sample("a"), profiletest.Sample("b")}, "union_ab")
	outer := Profiles([]*profile.Data{inner, profiletest.Sample("c"), nil}, "union_abc")
	assert.Equal(t, []string{"a", "b", "c"}, outer.ConstituentIDs)
}

func TestProfiles_Empty(t *testing.T) {
	t.Parallel()

	u := Profiles(nil, "union_00000000")
	assert.Equal(t, "union_00000000", u.ID)
	assert.Empty(t, u.ConstituentIDs)
	require.NotNil(t, u.Runtime)
	assert.Nil(t, u.Runtime.Types)
}

func TestParameters_DynamicOnlyWhenDynamicEverywhere(t *testing.T) {
	t.Parallel()

	var dst profile.FoldMap[*profile.ParameterData]
	dst.Set("P", &profile.ParameterData{Dynamic: true})
	var src profile.FoldMap[*profile.ParameterData]
	src.Set("p", &profile.ParameterData{Type: "System.Int32"})

	parameters(&dst, src)
	p, _ := dst.Get("P")
	assert.False(t, p.Dynamic)
	assert.Equal(t, "System.Int32", p.Type)
}
