package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FullName renders r the way type names appear in a profile:
// Namespace.Outer+Inner[Arg,Arg] with arity suffixes removed, generic
// parameters as <T>, and [] or & appended for arrays and by-refs.
func (r *TypeRef) FullName() string {
	var b strings.Builder
	writeTypeName(&b, r)
	return b.String()
}

func writeTypeName(b *strings.Builder, r *TypeRef) {
	switch {
	case r.GenericParameter:
		b.WriteByte('<')
		b.WriteString(r.Name)
		b.WriteByte('>')
	case r.Element != nil:
		writeTypeName(b, r.Element)
		if r.ByRef {
			b.WriteByte('&')
			return
		}
		b.WriteByte('[')
		for i := 1; i < r.ArrayRank; i++ {
			b.WriteByte(',')
		}
		b.WriteByte(']')
	default:
		writeQualifiedName(b, r)
		if len(r.GenericArgs) == 0 {
			return
		}
		b.WriteByte('[')
		for i, arg := range r.GenericArgs {
			if i > 0 {
				b.WriteByte(',')
			}
			writeTypeName(b, arg)
		}
		b.WriteByte(']')
	}
}

func writeQualifiedName(b *strings.Builder, r *TypeRef) {
	if r.DeclaringType != nil {
		writeQualifiedName(b, r.DeclaringType)
		b.WriteByte('+')
	} else if r.Namespace != "" {
		b.WriteString(r.Namespace)
		b.WriteByte('.')
	}
	b.WriteString(StripArity(r.Name))
}

// StripArity removes a CLR `N generic arity suffix from name.
func StripArity(name string) string {
	if i := strings.IndexByte(name, '`'); i >= 0 {
		return name[:i]
	}
	return name
}

// substitute returns r with generic parameters replaced from env. Parameters
// missing from env are left unresolved. r itself is never modified.
func substitute(r *TypeRef, env map[string]*TypeRef) *TypeRef {
	if r == nil || len(env) == 0 {
		return r
	}
	if r.GenericParameter {
		if sub, ok := env[r.Name]; ok {
			return sub
		}
		return r
	}
	out := *r
	out.Element = substitute(r.Element, env)
	if len(r.GenericArgs) > 0 {
		out.GenericArgs = make([]*TypeRef, len(r.GenericArgs))
		for i, arg := range r.GenericArgs {
			out.GenericArgs[i] = substitute(arg, env)
		}
	}
	return &out
}

// ParseTypeRef parses the short textual form used in hand-written dumps:
// "Ns.Name", "Ns.Outer+Inner", "<T>", with any number of trailing "[]",
// "[,]" or a final "&". Generic arguments need the object form.
func ParseTypeRef(s string) (*TypeRef, error) {
	if s == "" {
		return nil, fmt.Errorf("empty type reference")
	}
	if strings.HasSuffix(s, "&") {
		elem, err := ParseTypeRef(s[:len(s)-1])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Element: elem, ByRef: true}, nil
	}
	if strings.HasSuffix(s, "]") {
		open := strings.LastIndexByte(s, '[')
		dims := s[open+1 : len(s)-1]
		if open <= 0 || strings.Trim(dims, ",") != "" {
			return nil, fmt.Errorf("type reference %q: generic arguments need the object form", s)
		}
		elem, err := ParseTypeRef(s[:open])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Element: elem, ArrayRank: len(dims) + 1}, nil
	}
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		return &TypeRef{Name: s[1 : len(s)-1], GenericParameter: true}, nil
	}

	parts := strings.Split(s, "+")
	var ref *TypeRef
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("type reference %q: empty name", s)
		}
		if i == 0 {
			ns, name := "", part
			if dot := strings.LastIndexByte(part, '.'); dot >= 0 {
				ns, name = part[:dot], part[dot+1:]
			}
			ref = &TypeRef{Namespace: ns, Name: name}
			continue
		}
		ref = &TypeRef{Name: part, DeclaringType: ref}
	}
	return ref, nil
}

// UnmarshalJSON accepts either the object form or the short string form
// understood by ParseTypeRef.
func (r *TypeRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTypeRef(s)
		if err != nil {
			return err
		}
		*r = *parsed
		return nil
	}
	type plain TypeRef
	return json.Unmarshal(data, (*plain)(r))
}
