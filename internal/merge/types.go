package merge

import (
	"slices"

	"github.com/jward/pscompat/internal/profile"
)

func types(dst, src *profile.AvailableTypeData) {
	for name, acc := range src.TypeAccelerators.All() {
		if !dst.TypeAccelerators.Has(name) {
			dst.TypeAccelerators.Set(name, acc)
		}
	}
	for name, asm := range src.Assemblies.All() {
		prev, ok := dst.Assemblies.Get(name)
		if !ok || prev == nil {
			dst.Assemblies.Set(name, asm.Clone())
			continue
		}
		if asm == nil {
			continue
		}
		for ns, byName := range asm.Types.All() {
			for tn, td := range byName.All() {
				if have, ok := prev.Type(ns, tn); ok && have != nil {
					typeData(have, td)
				} else {
					prev.AddType(ns, tn, td.Clone())
				}
			}
		}
	}
}

func typeData(dst, src *profile.TypeData) {
	if src == nil {
		return
	}
	dst.IsEnum = dst.IsEnum || src.IsEnum
	dst.Instance = members(dst.Instance, src.Instance)
	dst.Static = members(dst.Static, src.Static)
}

func members(dst, src *profile.MemberData) *profile.MemberData {
	if src == nil {
		return dst
	}
	if dst == nil {
		return src.Clone()
	}
	dst.Constructors = signatures(dst.Constructors, src.Constructors)
	for name, f := range src.Fields.All() {
		if !dst.Fields.Has(name) {
			dst.Fields.Set(name, f)
		}
	}
	for name, p := range src.Properties.All() {
		have, ok := dst.Properties.Get(name)
		if !ok {
			have = p
		}
		have.Accessors |= p.Accessors
		dst.Properties.Set(name, have)
	}
	for name, m := range src.Methods.All() {
		have, ok := dst.Methods.Get(name)
		if !ok || have == nil {
			dst.Methods.Set(name, m.Clone())
			continue
		}
		if m != nil {
			have.OverloadParameters = signatures(have.OverloadParameters, m.OverloadParameters)
		}
	}
	for name, e := range src.Events.All() {
		if !dst.Events.Has(name) {
			dst.Events.Set(name, e)
		}
	}
	for _, ix := range src.Indexers {
		i := slices.IndexFunc(dst.Indexers, func(have profile.IndexerData) bool {
			return slices.Equal(have.Parameters, ix.Parameters)
		})
		if i < 0 {
			ix.Parameters = slices.Clone(ix.Parameters)
			dst.Indexers = append(dst.Indexers, ix)
			continue
		}
		dst.Indexers[i].Accessors |= ix.Accessors
	}
	for name, nt := range src.NestedTypes.All() {
		if have, ok := dst.NestedTypes.Get(name); ok && have != nil {
			typeData(have, nt)
		} else {
			dst.NestedTypes.Set(name, nt.Clone())
		}
	}
	return dst
}

// signatures appends the parameter lists of b that a lacks.
func signatures(a, b [][]string) [][]string {
	for _, sig := range b {
		if !slices.ContainsFunc(a, func(have []string) bool { return slices.Equal(have, sig) }) {
			a = append(a, slices.Clone(sig))
		}
	}
	return a
}
