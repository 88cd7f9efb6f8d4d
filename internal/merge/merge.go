// Package merge builds union profiles: one profile holding every module,
// command, parameter and type found in any of its inputs.
//
// The inputs are never modified; everything in the result is freshly
// copied. Where inputs disagree on a scalar (a parameter's type, a method's
// return type) the first input in id order wins, so the result does not
// depend on the order the inputs are passed in.
package merge

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/jward/pscompat/internal/profile"
)

// Profiles merges profiles into a union profile with the given id. The
// result has no platform and lists the ids of its inputs as constituents.
// A union input contributes its own constituents rather than its id.
func Profiles(profiles []*profile.Data, unionID string) *profile.Data {
	ordered := slices.DeleteFunc(slices.Clone(profiles), func(p *profile.Data) bool { return p == nil })
	slices.SortStableFunc(ordered, func(a, b *profile.Data) int { return strings.Compare(a.ID, b.ID) })

	var ids []string
	rt := &profile.RuntimeData{}
	for _, p := range ordered {
		if p.IsUnion() {
			ids = append(ids, p.ConstituentIDs...)
		} else {
			ids = append(ids, p.ID)
		}
		runtimeData(rt, p.Runtime)
	}
	return &profile.Data{
		ID:             unionID,
		SchemaVersion:  profile.SchemaVersion,
		ConstituentIDs: profile.SortedIDs(ids),
		Runtime:        rt,
	}
}

func runtimeData(dst, src *profile.RuntimeData) {
	if src == nil {
		return
	}
	if src.Types != nil {
		if dst.Types == nil {
			dst.Types = &profile.AvailableTypeData{}
		}
		types(dst.Types, src.Types)
	}
	for name, versions := range src.Modules.All() {
		have, _ := dst.Modules.Get(name)
		if have == nil {
			have = make(map[string]*profile.ModuleData, len(versions))
		}
		for v, m := range versions {
			if prev, ok := have[v]; ok && prev != nil {
				module(prev, m)
			} else {
				have[v] = m.Clone()
			}
		}
		dst.Modules.Set(name, have)
	}
	if src.Common != nil {
		if dst.Common == nil {
			dst.Common = &profile.CommonData{}
		}
		parameters(&dst.Common.Parameters, src.Common.Parameters)
		aliases(&dst.Common.ParameterAliases, src.Common.ParameterAliases)
	}
	for name, cmds := range src.NativeCommands.All() {
		have, _ := dst.NativeCommands.Get(name)
		for _, c := range cmds {
			if !slices.Contains(have, c) {
				have = append(have, c)
			}
		}
		dst.NativeCommands.Set(name, have)
	}
}

func module(dst, src *profile.ModuleData) {
	if src == nil {
		return
	}
	if dst.GUID == uuid.Nil {
		dst.GUID = src.GUID
	}
	for name, c := range src.Cmdlets.All() {
		if prev, ok := dst.Cmdlets.Get(name); ok && prev != nil && c != nil {
			command(&prev.CommandData, &c.CommandData)
			continue
		}
		if !dst.Cmdlets.Has(name) {
			dst.Cmdlets.Set(name, c.Clone())
		}
	}
	for name, f := range src.Functions.All() {
		if prev, ok := dst.Functions.Get(name); ok && prev != nil && f != nil {
			command(&prev.CommandData, &f.CommandData)
			prev.CmdletBinding = prev.CmdletBinding || f.CmdletBinding
			continue
		}
		if !dst.Functions.Has(name) {
			dst.Functions.Set(name, f.Clone())
		}
	}
	dst.Variables = union(dst.Variables, src.Variables)
	aliases(&dst.Aliases, src.Aliases)
}

func command(dst, src *profile.CommandData) {
	dst.OutputType = union(dst.OutputType, src.OutputType)
	dst.ParameterSets = union(dst.ParameterSets, src.ParameterSets)
	if dst.DefaultParameterSet == "" {
		dst.DefaultParameterSet = src.DefaultParameterSet
	}
	parameters(&dst.Parameters, src.Parameters)
	aliases(&dst.ParameterAliases, src.ParameterAliases)
}

// parameters merges src into dst. A parameter is dynamic only if it is
// dynamic everywhere it appears. Within a shared parameter set it is
// mandatory only if mandatory everywhere, while the pipeline flags
// accumulate.
func parameters(dst *profile.FoldMap[*profile.ParameterData], src profile.FoldMap[*profile.ParameterData]) {
	for name, p := range src.All() {
		prev, ok := dst.Get(name)
		if !ok || prev == nil {
			dst.Set(name, p.Clone())
			continue
		}
		if p == nil {
			continue
		}
		if prev.Type == "" {
			prev.Type = p.Type
		}
		prev.Dynamic = prev.Dynamic && p.Dynamic
		for set, sd := range p.ParameterSets.All() {
			have, ok := prev.ParameterSets.Get(set)
			if !ok {
				prev.ParameterSets.Set(set, sd)
				continue
			}
			mandatory := have.Flags & sd.Flags & profile.Mandatory
			have.Flags = (have.Flags|sd.Flags)&^profile.Mandatory | mandatory
			if have.Position == profile.NoPosition {
				have.Position = sd.Position
			}
			prev.ParameterSets.Set(set, have)
		}
	}
}

func aliases(dst *profile.FoldMap[string], src profile.FoldMap[string]) {
	for alias, target := range src.All() {
		if !dst.Has(alias) {
			dst.Set(alias, target)
		}
	}
}

// union appends the elements of b missing from a. Nil stays nil when both
// are nil.
func union(a, b []string) []string {
	for _, s := range b {
		if !slices.Contains(a, s) {
			a = append(a, s)
		}
	}
	return a
}
