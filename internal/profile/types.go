package profile

import (
	"encoding/json"
	"math"

	"github.com/google/uuid"
)

// SchemaVersion is the profile schema version written by this package.
const SchemaVersion = "1.0"

// NoPosition marks a parameter that has no position in a parameter set.
const NoPosition = math.MinInt32

// Data is a platform compatibility profile: the commands, parameters and
// types available on one PowerShell installation, or the union of several.
//
// Id and ConstituentIDs are case-sensitive. Platform is nil only for the
// any-platform union profile.
type Data struct {
	ID             string        `json:"Id"`
	SchemaVersion  string        `json:"ProfileSchemaVersion"`
	ConstituentIDs []string      `json:"ConstituentProfiles,omitempty"`
	Runtime        *RuntimeData  `json:"Runtime,omitempty"`
	Platform       *PlatformData `json:"Platform,omitempty"`
}

// RuntimeData describes what the PowerShell runtime exposes.
type RuntimeData struct {
	Types *AvailableTypeData `json:"Types,omitempty"`

	// Modules maps module name to module version to module.
	Modules        FoldMap[map[string]*ModuleData] `json:"Modules,omitzero"`
	Common         *CommonData                     `json:"Common,omitempty"`
	NativeCommands FoldMap[[]NativeCommandData]    `json:"NativeCommands,omitzero"`
}

// CommonData holds the parameters every cmdlet and advanced function gets.
type CommonData struct {
	Parameters       FoldMap[*ParameterData] `json:"Parameters,omitzero"`
	ParameterAliases FoldMap[string]         `json:"ParameterAliases,omitzero"`
}

// ModuleData describes one version of a PowerShell module.
type ModuleData struct {
	GUID      uuid.UUID              `json:"Guid"`
	Cmdlets   FoldMap[*CmdletData]   `json:"Cmdlets,omitzero"`
	Functions FoldMap[*FunctionData] `json:"Functions,omitzero"`
	Variables []string               `json:"Variables,omitempty"`

	// Aliases maps alias name to the name of the command it points at.
	Aliases FoldMap[string] `json:"Aliases,omitzero"`
}

// CommandData is the part of a command shared by cmdlets and functions.
type CommandData struct {
	OutputType []string `json:"OutputType,omitempty"`

	// ParameterSets is nil when the command has only the implicit default set.
	ParameterSets       []string                `json:"ParameterSets,omitempty"`
	DefaultParameterSet string                  `json:"DefaultParameterSet,omitempty"`
	Parameters          FoldMap[*ParameterData] `json:"Parameters,omitzero"`

	// ParameterAliases maps alias to canonical parameter name.
	ParameterAliases FoldMap[string] `json:"ParameterAliases,omitzero"`
}

// CmdletData describes a compiled cmdlet.
type CmdletData struct {
	CommandData
}

// FunctionData describes a script function.
type FunctionData struct {
	CommandData
	CmdletBinding bool `json:"CmdletBinding,omitempty"`
}

// ParameterData describes one command parameter.
type ParameterData struct {
	Type          string                    `json:"Type,omitempty"`
	Dynamic       bool                      `json:"Dynamic,omitempty"`
	ParameterSets FoldMap[ParameterSetData] `json:"ParameterSets,omitzero"`
}

// ParameterSetData describes a parameter's role in one parameter set.
// Position is NoPosition when the parameter is not positional.
type ParameterSetData struct {
	Flags    ParameterSetFlag
	Position int
}

type parameterSetWire struct {
	Flags    ParameterSetFlag `json:"Flags,omitzero"`
	Position *int             `json:"Position,omitempty"`
}

func (p ParameterSetData) MarshalJSON() ([]byte, error) {
	w := parameterSetWire{Flags: p.Flags}
	if p.Position != NoPosition {
		pos := p.Position
		w.Position = &pos
	}
	return json.Marshal(w)
}

func (p *ParameterSetData) UnmarshalJSON(data []byte) error {
	var w parameterSetWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.Flags = w.Flags
	p.Position = NoPosition
	if w.Position != nil {
		p.Position = *w.Position
	}
	return nil
}

// NativeCommandData describes an executable found on the search path.
type NativeCommandData struct {
	Version string `json:"Version,omitempty"`
	Path    string `json:"Path,omitempty"`
}

// AvailableTypeData lists the .NET types loaded in the runtime.
type AvailableTypeData struct {
	TypeAccelerators FoldMap[TypeAcceleratorData] `json:"TypeAccelerators,omitzero"`
	Assemblies       FoldMap[*AssemblyData]       `json:"Assemblies,omitzero"`
}

// TypeAcceleratorData is the target of a type accelerator such as [int].
type TypeAcceleratorData struct {
	Assembly string `json:"Assembly,omitempty"`
	Type     string `json:"Type"`
}

// AssemblyData describes one loaded assembly and its public types.
type AssemblyData struct {
	AssemblyName AssemblyNameData `json:"AssemblyName"`

	// Types maps namespace to type name to type. The global namespace is "".
	Types FoldMap[FoldMap[*TypeData]] `json:"Types,omitzero"`
}

// AddType stores td under namespace and name.
func (a *AssemblyData) AddType(namespace, name string, td *TypeData) {
	ns, _ := a.Types.Get(namespace)
	ns.Set(name, td)
	a.Types.Set(namespace, ns)
}

// Type returns the type stored under namespace and name.
func (a *AssemblyData) Type(namespace, name string) (*TypeData, bool) {
	ns, ok := a.Types.Get(namespace)
	if !ok {
		return nil, false
	}
	return ns.Get(name)
}

// AssemblyNameData is a strong assembly name.
type AssemblyNameData struct {
	Name           string `json:"Name"`
	Version        string `json:"Version,omitempty"`
	Culture        string `json:"Culture,omitempty"`
	PublicKeyToken []byte `json:"PublicKeyToken,omitempty"`
}

// TypeData describes a type's public surface. Either member set may be nil.
type TypeData struct {
	IsEnum   bool        `json:"IsEnum,omitempty"`
	Instance *MemberData `json:"Instance,omitempty"`
	Static   *MemberData `json:"Static,omitempty"`
}

// MemberData is the set of members of a type for one binding (static or
// instance).
type MemberData struct {
	// Constructors holds one parameter type list per overload.
	Constructors [][]string            `json:"Constructors,omitempty"`
	Fields       FoldMap[FieldData]    `json:"Fields,omitzero"`
	Properties   FoldMap[PropertyData] `json:"Properties,omitzero"`
	Methods      FoldMap[*MethodData]  `json:"Methods,omitzero"`
	Events       FoldMap[EventData]    `json:"Events,omitzero"`
	Indexers     []IndexerData         `json:"Indexers,omitempty"`
	NestedTypes  FoldMap[*TypeData]    `json:"NestedTypes,omitzero"`
}

// FieldData describes a field.
type FieldData struct {
	Type string `json:"Type"`
}

// PropertyData describes a property.
type PropertyData struct {
	Type      string    `json:"Type"`
	Accessors Accessors `json:"Accessors,omitzero"`
}

// MethodData describes all overloads of a method name.
type MethodData struct {
	ReturnType         string     `json:"ReturnType"`
	OverloadParameters [][]string `json:"OverloadParameters,omitempty"`
}

// EventData describes an event.
type EventData struct {
	HandlerType string `json:"HandlerType"`
	IsMulticast bool   `json:"IsMulticast,omitempty"`
}

// IndexerData describes one indexer overload.
type IndexerData struct {
	ItemType   string    `json:"ItemType"`
	Parameters []string  `json:"Parameters,omitempty"`
	Accessors  Accessors `json:"Accessors,omitzero"`
}

// PlatformData describes the platform a profile was collected on.
type PlatformData struct {
	OperatingSystem *OperatingSystemData `json:"OperatingSystem,omitempty"`
	PowerShell      *PowerShellData      `json:"PowerShell,omitempty"`
	Dotnet          *DotnetData          `json:"Dotnet,omitempty"`
}

// OperatingSystemData describes the host operating system.
type OperatingSystemData struct {
	Name                       string       `json:"Name,omitempty"`
	Description                string       `json:"Description,omitempty"`
	Platform                   string       `json:"Platform,omitempty"`
	Family                     OSFamily     `json:"Family"`
	Architecture               Architecture `json:"Architecture"`
	Version                    string       `json:"Version,omitempty"`
	ServicePack                string       `json:"ServicePack,omitempty"`
	SkuID                      uint32       `json:"SkuId,omitempty"`
	DistributionID             string       `json:"DistributionId,omitempty"`
	DistributionVersion        string       `json:"DistributionVersion,omitempty"`
	DistributionPublishVersion string       `json:"DistributionPublishVersion,omitempty"`
}

// PowerShellData describes the PowerShell installation.
type PowerShellData struct {
	Version                 *PSVersion   `json:"Version,omitempty"`
	Edition                 string       `json:"Edition,omitempty"`
	CompatibleVersions      []string     `json:"CompatibleVersions,omitempty"`
	RemotingProtocolVersion string       `json:"RemotingProtocolVersion,omitempty"`
	SerializationVersion    string       `json:"SerializationVersion,omitempty"`
	WSManStackVersion       string       `json:"WSManStackVersion,omitempty"`
	ProcessArchitecture     Architecture `json:"ProcessArchitecture"`
}

// DotnetData describes the .NET runtime.
type DotnetData struct {
	ClrVersion string        `json:"ClrVersion,omitempty"`
	Runtime    DotnetRuntime `json:"Runtime"`
}
