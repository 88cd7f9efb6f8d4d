package query

import (
	"strconv"
	"strings"
	"sync"

	"github.com/jward/pscompat/internal/profile"
)

// TypeInfo is a resolved type.
//
// For an array reference the info describes the element type and IsArray
// is set.
type TypeInfo struct {
	// Name is the full name as stored, e.g. System.Collections.Generic.List`1.
	Name     string
	Assembly string
	Data     *profile.TypeData
	IsArray  bool
}

// HasMember reports whether the type declares or inherits a field,
// property, method, event or nested type called name on the static or
// instance side.
func (t TypeInfo) HasMember(static bool, name string) bool {
	if t.Data == nil {
		return false
	}
	md := t.Data.Instance
	if static {
		md = t.Data.Static
	}
	if md == nil {
		return false
	}
	return md.Fields.Has(name) ||
		md.Properties.Has(name) ||
		md.Methods.Has(name) ||
		md.Events.Has(name) ||
		md.NestedTypes.Has(name)
}

// Types resolves type references against the assemblies and type
// accelerators of a profile.
type Types struct {
	data *profile.AvailableTypeData

	once   sync.Once
	byName map[string]TypeInfo
	names  []string
}

func newTypes(d *profile.AvailableTypeData) *Types {
	if d == nil {
		d = &profile.AvailableTypeData{}
	}
	return &Types{data: d}
}

func (t *Types) index() {
	t.once.Do(func() {
		t.byName = make(map[string]TypeInfo)
		for asmName, asm := range t.data.Assemblies.All() {
			if asm == nil {
				continue
			}
			for ns, types := range asm.Types.All() {
				for name, td := range types.All() {
					t.add(qualify(ns, name), qualify(ns, stripArity(name)), asmName, td)
				}
			}
		}
	})
}

// add indexes td under its exact name, under its arity-stripped name when
// that differs, and recurses into nested types. An exact name always wins
// over a stripped alias of another type.
func (t *Types) add(exact, stripped, assembly string, td *profile.TypeData) {
	info := TypeInfo{Name: exact, Assembly: assembly, Data: td}
	key := profile.FoldKey(exact)
	if prev, ok := t.byName[key]; !ok || profile.FoldKey(prev.Name) != key {
		t.byName[key] = info
		t.names = append(t.names, exact)
	}
	if stripped != exact {
		if _, ok := t.byName[profile.FoldKey(stripped)]; !ok {
			t.byName[profile.FoldKey(stripped)] = info
		}
	}
	if td == nil || td.Instance == nil {
		return
	}
	for name, nested := range td.Instance.NestedTypes.All() {
		t.add(exact+"+"+name, stripped+"+"+stripArity(name), assembly, nested)
	}
}

// Names returns the exact full name of every indexed type.
func (t *Types) Names() []string {
	t.index()
	return t.names
}

// Accelerator returns the target of a type accelerator.
func (t *Types) Accelerator(name string) (profile.TypeAcceleratorData, bool) {
	return t.data.TypeAccelerators.Get(name)
}

// Resolve resolves a type reference as PowerShell would: "[int]", "int",
// "String", "System.String[]", "List[string]" and
// "System.Collections.Generic.List`1" are all accepted. Names go through
// the accelerator table first and are retried with an implicit "System."
// prefix when not found directly.
func (t *Types) Resolve(ref string) (TypeInfo, bool) {
	t.index()
	return t.resolve(strings.TrimSpace(ref), 0)
}

// maxDepth bounds recursion through brackets and generic arguments.
const maxDepth = 32

func (t *Types) resolve(ref string, depth int) (TypeInfo, bool) {
	if ref == "" || depth > maxDepth {
		return TypeInfo{}, false
	}
	if inner, ok := unbracket(ref); ok {
		return t.resolve(strings.TrimSpace(inner), depth+1)
	}
	if strings.HasSuffix(ref, "]") {
		open := matchingOpen(ref)
		if open <= 0 {
			return TypeInfo{}, false
		}
		base, inside := ref[:open], ref[open+1:len(ref)-1]
		if strings.Trim(inside, ", ") == "" {
			info, ok := t.resolve(base, depth+1)
			info.IsArray = ok
			return info, ok
		}
		return t.resolveGeneric(base, splitArgs(inside), depth)
	}
	return t.lookup(ref)
}

func (t *Types) resolveGeneric(base string, args []string, depth int) (TypeInfo, bool) {
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if strings.HasPrefix(arg, "<") && strings.HasSuffix(arg, ">") {
			continue
		}
		if _, ok := t.resolve(arg, depth+1); !ok {
			return TypeInfo{}, false
		}
	}
	if !strings.Contains(base, "`") {
		if info, ok := t.lookup(base + "`" + strconv.Itoa(len(args))); ok {
			return info, true
		}
	}
	return t.lookup(base)
}

// lookup canonicalizes a plain name: accelerator, then direct, then with a
// System. prefix.
func (t *Types) lookup(name string) (TypeInfo, bool) {
	if acc, ok := t.data.TypeAccelerators.Get(name); ok {
		name = acc.Type
	}
	if info, ok := t.byName[profile.FoldKey(name)]; ok {
		return info, true
	}
	if info, ok := t.byName[profile.FoldKey("System."+name)]; ok {
		return info, true
	}
	return TypeInfo{}, false
}

// unbracket strips one pair of enclosing brackets, as in "[int]" or
// "[string[]]".
func unbracket(ref string) (string, bool) {
	if len(ref) < 2 || ref[0] != '[' || ref[len(ref)-1] != ']' {
		return "", false
	}
	if matchingOpen(ref) != 0 {
		return "", false
	}
	return ref[1 : len(ref)-1], true
}

// matchingOpen returns the index of the '[' matching the final ']' of ref,
// or -1.
func matchingOpen(ref string) int {
	depth := 0
	for i := len(ref) - 1; i >= 0; i-- {
		switch ref[i] {
		case ']':
			depth++
		case '[':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitArgs splits a generic argument list on top-level commas.
func splitArgs(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

func stripArity(name string) string {
	if i := strings.IndexByte(name, '`'); i >= 0 {
		return name[:i]
	}
	return name
}
