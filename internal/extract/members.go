package extract

import (
	"strings"

	"github.com/jward/pscompat/internal/profile"
)

// MemberKind tags the variants of Member.
type MemberKind int

const (
	KindField MemberKind = iota
	KindProperty
	KindMethod
	KindEvent
	KindIndexer
	KindConstructor
	KindNestedType
)

var memberKindNames = []string{"Field", "Property", "Method", "Event", "Indexer", "Constructor", "NestedType"}

func (k MemberKind) String() string {
	if k >= 0 && int(k) < len(memberKindNames) {
		return memberKindNames[k]
	}
	return "Unknown"
}

func (k MemberKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *MemberKind) UnmarshalText(text []byte) error {
	for i, n := range memberKindNames {
		if strings.EqualFold(n, string(text)) {
			*k = MemberKind(i)
			return nil
		}
	}
	return &profile.ParseError{Input: string(text), Reason: "unknown member kind"}
}

// overloadable kinds are matched by parameter signature rather than by
// name alone.
func (k MemberKind) overloadable() bool {
	return k == KindMethod || k == KindConstructor || k == KindIndexer
}

// Member is one public member declared by a type.
//
// Type is the field, property or indexer item type, the method return type
// (nil for void) or the event handler type. Parameters applies to methods,
// constructors and indexers.
type Member struct {
	Kind       MemberKind        `json:"kind"`
	Name       string            `json:"name,omitempty"`
	Static     bool              `json:"static,omitempty"`
	Type       *TypeRef          `json:"type,omitempty"`
	Parameters []*TypeRef        `json:"parameters,omitempty"`
	Accessors  profile.Accessors `json:"accessors,omitzero"`
	Multicast  bool              `json:"multicast,omitempty"`
}

// accessorPrefixes mark compiler-generated methods behind properties,
// events and operators.
var accessorPrefixes = []string{"get_", "set_", "add_", "remove_", "op_"}

func isAccessorMethod(m *Member) bool {
	if m.Kind != KindMethod {
		return false
	}
	for _, p := range accessorPrefixes {
		if strings.HasPrefix(m.Name, p) {
			return true
		}
	}
	return false
}

// candidate is a member paired with the type that declares it, with
// generic parameters of that type already substituted.
type candidate struct {
	member *Member
	on     *Type
	typ    *TypeRef
	params []*TypeRef
	sig    string
	nested *Type
}

func newCandidate(m *Member, on *Type, env map[string]*TypeRef) candidate {
	c := candidate{member: m, on: on, typ: substitute(m.Type, env)}
	if len(m.Parameters) > 0 {
		c.params = make([]*TypeRef, len(m.Parameters))
		names := make([]string, len(m.Parameters))
		for i, p := range m.Parameters {
			c.params[i] = substitute(p, env)
			names[i] = c.params[i].FullName()
		}
		c.sig = strings.Join(names, ",")
	}
	return c
}

// groupKey is the identity under which two candidates compete. Fields,
// properties, events and nested types compete by name; methods by name and
// signature; constructors and indexers by signature only.
func (c candidate) groupKey() string {
	k := c.member.Kind
	switch k {
	case KindConstructor, KindIndexer:
		return k.String() + "\x00" + c.sig
	case KindMethod:
		return k.String() + "\x00" + profile.FoldKey(c.member.Name) + "\x00" + c.sig
	default:
		return k.String() + "\x00" + profile.FoldKey(c.member.Name)
	}
}

// resolveOverrides collapses candidates that redeclare the same member,
// keeping the declaration on the most derived type. Candidates that do not
// collide are kept in input order. isSubclass(a, b) reports whether a
// derives from b.
func resolveOverrides(cands []candidate, isSubclass func(a, b *Type) bool) []candidate {
	out := make([]candidate, 0, len(cands))
	seen := make(map[string]int, len(cands))
	for _, c := range cands {
		key := c.groupKey()
		i, ok := seen[key]
		if !ok {
			seen[key] = len(out)
			out = append(out, c)
			continue
		}
		if isSubclass(c.on, out[i].on) {
			out[i] = c
		}
	}
	return out
}

// memberData assembles resolved candidates into a profile member set. It
// returns nil when there are no members.
func (b *typeBuilder) memberData(cands []candidate) *profile.MemberData {
	if len(cands) == 0 {
		return nil
	}
	md := &profile.MemberData{}
	for _, c := range cands {
		m := c.member
		switch m.Kind {
		case KindConstructor:
			md.Constructors = append(md.Constructors, renderAll(c.params))
		case KindField:
			md.Fields.Set(m.Name, profile.FieldData{Type: renderType(c.typ)})
		case KindProperty:
			md.Properties.Set(m.Name, profile.PropertyData{Type: renderType(c.typ), Accessors: m.Accessors})
		case KindMethod:
			method, ok := md.Methods.Get(m.Name)
			if !ok {
				method = &profile.MethodData{ReturnType: renderType(c.typ)}
				md.Methods.Set(m.Name, method)
			}
			method.OverloadParameters = append(method.OverloadParameters, renderAll(c.params))
		case KindEvent:
			md.Events.Set(m.Name, profile.EventData{HandlerType: renderType(c.typ), IsMulticast: m.Multicast})
		case KindIndexer:
			md.Indexers = append(md.Indexers, profile.IndexerData{
				ItemType:   renderType(c.typ),
				Parameters: renderAll(c.params),
				Accessors:  m.Accessors,
			})
		case KindNestedType:
			if td := b.typeData(c.nested); td != nil {
				md.NestedTypes.Set(c.nested.Name, td)
			}
		}
	}
	return md
}

func renderType(r *TypeRef) string {
	if r == nil {
		return "System.Void"
	}
	return r.FullName()
}

func renderAll(refs []*TypeRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.FullName()
	}
	return out
}
