// Package profiletest builds small, fully populated profiles for tests.
package profiletest

import (
	"github.com/google/uuid"

	"github.com/jward/pscompat/internal/profile"
)

// ManagementGUID is the module GUID used for Microsoft.PowerShell.Management.
var ManagementGUID = uuid.MustParse("eefcb906-b326-4e99-9f54-8b4bb6ef3c6d")

// Sample returns a profile with one module, common parameters, a native
// command, type accelerators and a small assembly. Every call returns a new
// independent value.
func Sample(id string) *profile.Data {
	version := profile.PSVersion{Major: 7, Minor: 2, Build: 1, Revision: -1}

	d := &profile.Data{
		ID:            id,
		SchemaVersion: profile.SchemaVersion,
		Runtime: &profile.RuntimeData{
			Types:  sampleTypes(),
			Common: sampleCommon(),
		},
		Platform: &profile.PlatformData{
			OperatingSystem: &profile.OperatingSystemData{
				Name:                "Ubuntu 20.04",
				Family:              profile.OSFamilyLinux,
				Architecture:        profile.ArchX64,
				Version:             "5.4.0",
				DistributionID:      "ubuntu",
				DistributionVersion: "20.04",
			},
			PowerShell: &profile.PowerShellData{
				Version:             &version,
				Edition:             "Core",
				CompatibleVersions:  []string{"1.0", "2.0", "3.0", "4.0", "5.0", "5.1", "6.0", "7.0"},
				ProcessArchitecture: profile.ArchX64,
			},
			Dotnet: &profile.DotnetData{
				ClrVersion: "6.0.1",
				Runtime:    profile.DotnetCore,
			},
		},
	}
	d.Runtime.Modules.Set("Microsoft.PowerShell.Management", map[string]*profile.ModuleData{
		"7.0.0.0": sampleModule(),
	})
	d.Runtime.NativeCommands.Set("bash", []profile.NativeCommandData{
		{Version: "5.0.17.0", Path: "/usr/bin/bash"},
	})
	return d
}

func sampleModule() *profile.ModuleData {
	gci := &profile.CmdletData{}
	gci.OutputType = []string{"System.IO.FileInfo", "System.IO.DirectoryInfo"}
	gci.ParameterSets = []string{"Items", "LiteralItems"}
	gci.DefaultParameterSet = "Items"

	path := &profile.ParameterData{Type: "System.String[]"}
	path.ParameterSets.Set("Items", profile.ParameterSetData{
		Flags:    profile.ValueFromPipeline | profile.ValueFromPipelineByPropertyName,
		Position: 0,
	})
	gci.Parameters.Set("Path", path)

	literal := &profile.ParameterData{Type: "System.String[]"}
	literal.ParameterSets.Set("LiteralItems", profile.ParameterSetData{
		Flags:    profile.Mandatory | profile.ValueFromPipelineByPropertyName,
		Position: profile.NoPosition,
	})
	gci.Parameters.Set("LiteralPath", literal)
	gci.ParameterAliases.Set("PSPath", "LiteralPath")
	gci.ParameterAliases.Set("LP", "LiteralPath")

	fn := &profile.FunctionData{CmdletBinding: true}
	name := &profile.ParameterData{Type: "System.String"}
	name.ParameterSets.Set("__AllParameterSets", profile.ParameterSetData{
		Flags:    profile.Mandatory,
		Position: 0,
	})
	fn.Parameters.Set("Name", name)

	m := &profile.ModuleData{
		GUID:      ManagementGUID,
		Variables: []string{"ManagementPreference"},
	}
	m.Cmdlets.Set("Get-ChildItem", gci)
	m.Functions.Set("Get-Drive", fn)
	m.Aliases.Set("gci", "Get-ChildItem")
	m.Aliases.Set("ls", "Get-ChildItem")
	return m
}

func sampleCommon() *profile.CommonData {
	c := &profile.CommonData{}
	verbose := &profile.ParameterData{Type: "System.Management.Automation.SwitchParameter"}
	verbose.ParameterSets.Set("__AllParameterSets", profile.ParameterSetData{Position: profile.NoPosition})
	c.Parameters.Set("Verbose", verbose)
	c.ParameterAliases.Set("vb", "Verbose")
	return c
}

func sampleTypes() *profile.AvailableTypeData {
	types := &profile.AvailableTypeData{}
	types.TypeAccelerators.Set("int", profile.TypeAcceleratorData{
		Assembly: "System.Private.CoreLib",
		Type:     "System.Int32",
	})
	types.TypeAccelerators.Set("string", profile.TypeAcceleratorData{
		Assembly: "System.Private.CoreLib",
		Type:     "System.String",
	})

	corelib := &profile.AssemblyData{
		AssemblyName: profile.AssemblyNameData{
			Name:           "System.Private.CoreLib",
			Version:        "6.0.0.0",
			Culture:        "neutral",
			PublicKeyToken: []byte{0x7c, 0xec, 0x85, 0xd7, 0xbe, 0xa7, 0x79, 0x8e},
		},
	}

	str := &profile.TypeData{
		Instance: &profile.MemberData{
			Constructors: [][]string{{"System.Char[]"}, {"System.Char", "System.Int32"}},
		},
		Static: &profile.MemberData{},
	}
	str.Instance.Properties.Set("Length", profile.PropertyData{Type: "System.Int32", Accessors: profile.AccessorGet})
	str.Instance.Methods.Set("Substring", &profile.MethodData{
		ReturnType:         "System.String",
		OverloadParameters: [][]string{{"System.Int32"}, {"System.Int32", "System.Int32"}},
	})
	str.Instance.Indexers = []profile.IndexerData{
		{ItemType: "System.Char", Parameters: []string{"System.Int32"}, Accessors: profile.AccessorGet},
	}
	str.Static.Fields.Set("Empty", profile.FieldData{Type: "System.String"})
	corelib.AddType("System", "String", str)

	i32 := &profile.TypeData{Static: &profile.MemberData{}}
	i32.Static.Fields.Set("MaxValue", profile.FieldData{Type: "System.Int32"})
	corelib.AddType("System", "Int32", i32)

	list := &profile.TypeData{Instance: &profile.MemberData{}}
	list.Instance.Methods.Set("Add", &profile.MethodData{
		ReturnType:         "System.Void",
		OverloadParameters: [][]string{{"<T>"}},
	})
	list.Instance.Events.Set("Changed", profile.EventData{HandlerType: "System.EventHandler", IsMulticast: true})
	corelib.AddType("System.Collections.Generic", "List`1", list)

	types.Assemblies.Set("System.Private.CoreLib", corelib)
	return types
}
