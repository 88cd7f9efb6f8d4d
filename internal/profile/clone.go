package profile

import "slices"

// Clone functions return fully independent copies: no map, slice or pointer
// reachable from the result is shared with the receiver. Leaf records
// (ParameterSetData, FieldData, PropertyData, EventData, TypeAcceleratorData,
// NativeCommandData, PSVersion) are plain values and copy on assignment.

func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	return &Data{
		ID:             d.ID,
		SchemaVersion:  d.SchemaVersion,
		ConstituentIDs: slices.Clone(d.ConstituentIDs),
		Runtime:        d.Runtime.Clone(),
		Platform:       d.Platform.Clone(),
	}
}

func (r *RuntimeData) Clone() *RuntimeData {
	if r == nil {
		return nil
	}
	return &RuntimeData{
		Types: r.Types.Clone(),
		Modules: r.Modules.Clone(func(versions map[string]*ModuleData) map[string]*ModuleData {
			if versions == nil {
				return nil
			}
			out := make(map[string]*ModuleData, len(versions))
			for v, m := range versions {
				out[v] = m.Clone()
			}
			return out
		}),
		Common: r.Common.Clone(),
		NativeCommands: r.NativeCommands.Clone(func(cmds []NativeCommandData) []NativeCommandData {
			return slices.Clone(cmds)
		}),
	}
}

func (c *CommonData) Clone() *CommonData {
	if c == nil {
		return nil
	}
	return &CommonData{
		Parameters:       c.Parameters.Clone((*ParameterData).Clone),
		ParameterAliases: c.ParameterAliases.Clone(nil),
	}
}

func (m *ModuleData) Clone() *ModuleData {
	if m == nil {
		return nil
	}
	return &ModuleData{
		GUID:      m.GUID,
		Cmdlets:   m.Cmdlets.Clone((*CmdletData).Clone),
		Functions: m.Functions.Clone((*FunctionData).Clone),
		Variables: slices.Clone(m.Variables),
		Aliases:   m.Aliases.Clone(nil),
	}
}

func (c *CommandData) cloneInto(out *CommandData) {
	out.OutputType = slices.Clone(c.OutputType)
	out.ParameterSets = slices.Clone(c.ParameterSets)
	out.DefaultParameterSet = c.DefaultParameterSet
	out.Parameters = c.Parameters.Clone((*ParameterData).Clone)
	out.ParameterAliases = c.ParameterAliases.Clone(nil)
}

func (c *CmdletData) Clone() *CmdletData {
	if c == nil {
		return nil
	}
	out := &CmdletData{}
	c.CommandData.cloneInto(&out.CommandData)
	return out
}

func (f *FunctionData) Clone() *FunctionData {
	if f == nil {
		return nil
	}
	out := &FunctionData{CmdletBinding: f.CmdletBinding}
	f.CommandData.cloneInto(&out.CommandData)
	return out
}

func (p *ParameterData) Clone() *ParameterData {
	if p == nil {
		return nil
	}
	return &ParameterData{
		Type:          p.Type,
		Dynamic:       p.Dynamic,
		ParameterSets: p.ParameterSets.Clone(nil),
	}
}

func (a *AvailableTypeData) Clone() *AvailableTypeData {
	if a == nil {
		return nil
	}
	return &AvailableTypeData{
		TypeAccelerators: a.TypeAccelerators.Clone(nil),
		Assemblies:       a.Assemblies.Clone((*AssemblyData).Clone),
	}
}

func (a *AssemblyData) Clone() *AssemblyData {
	if a == nil {
		return nil
	}
	return &AssemblyData{
		AssemblyName: a.AssemblyName.Clone(),
		Types: a.Types.Clone(func(ns FoldMap[*TypeData]) FoldMap[*TypeData] {
			return ns.Clone((*TypeData).Clone)
		}),
	}
}

func (n AssemblyNameData) Clone() AssemblyNameData {
	n.PublicKeyToken = slices.Clone(n.PublicKeyToken)
	return n
}

func (t *TypeData) Clone() *TypeData {
	if t == nil {
		return nil
	}
	return &TypeData{
		IsEnum:   t.IsEnum,
		Instance: t.Instance.Clone(),
		Static:   t.Static.Clone(),
	}
}

func (m *MemberData) Clone() *MemberData {
	if m == nil {
		return nil
	}
	out := &MemberData{
		Constructors: cloneSignatures(m.Constructors),
		Fields:       m.Fields.Clone(nil),
		Properties:   m.Properties.Clone(nil),
		Methods:      m.Methods.Clone((*MethodData).Clone),
		Events:       m.Events.Clone(nil),
		NestedTypes:  m.NestedTypes.Clone((*TypeData).Clone),
	}
	if m.Indexers != nil {
		out.Indexers = make([]IndexerData, len(m.Indexers))
		for i, ix := range m.Indexers {
			ix.Parameters = slices.Clone(ix.Parameters)
			out.Indexers[i] = ix
		}
	}
	return out
}

func (m *MethodData) Clone() *MethodData {
	if m == nil {
		return nil
	}
	return &MethodData{
		ReturnType:         m.ReturnType,
		OverloadParameters: cloneSignatures(m.OverloadParameters),
	}
}

func cloneSignatures(sigs [][]string) [][]string {
	if sigs == nil {
		return nil
	}
	out := make([][]string, len(sigs))
	for i, s := range sigs {
		out[i] = slices.Clone(s)
	}
	return out
}

func (p *PlatformData) Clone() *PlatformData {
	if p == nil {
		return nil
	}
	out := &PlatformData{}
	if p.OperatingSystem != nil {
		os := *p.OperatingSystem
		out.OperatingSystem = &os
	}
	if p.PowerShell != nil {
		ps := *p.PowerShell
		ps.CompatibleVersions = slices.Clone(ps.CompatibleVersions)
		if ps.Version != nil {
			v := *ps.Version
			ps.Version = &v
		}
		out.PowerShell = &ps
	}
	if p.Dotnet != nil {
		dn := *p.Dotnet
		out.Dotnet = &dn
	}
	return out
}
