package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/risor-io/risor/object"

	"github.com/jward/pscompat/internal/query"
)

// host holds the state behind the check globals of one script run.
type host struct {
	in   *Input
	byID map[string]*query.Profile

	mu    sync.Mutex
	diags []Diagnostic
}

func newHost(in *Input) *host {
	h := &host{in: in, byID: make(map[string]*query.Profile, len(in.Targets))}
	for _, p := range in.Targets {
		h.byID[p.ID()] = p
	}
	return h
}

func (h *host) diagnostics() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Diagnostic, len(h.diags))
	copy(out, h.diags)
	return out
}

// globals builds the values check scripts see:
//
//	targets                          list of profile ids
//	command_refs                     list of {ref, name, parameters}
//	type_refs                        list of type reference strings
//	lookup_command(id, name)         {name, kind, module, module_version} or nil
//	command_parameter(id, cmd, p)    {name, common} or nil
//	resolve_type(id, ref)            {name, assembly, is_array} or nil
//	has_member(id, ref, name[, static])
//	native_command(id, name)         bool
//	report({rule, severity, target, subject, message})
func (h *host) globals() map[string]any {
	targets := make([]object.Object, 0, len(h.in.Targets))
	for _, p := range h.in.Targets {
		targets = append(targets, object.NewString(p.ID()))
	}
	cmds := make([]object.Object, 0, len(h.in.Commands))
	for _, ref := range h.in.Commands {
		name, params := ParseCommandRef(ref)
		if name == "" {
			continue
		}
		cmds = append(cmds, object.NewMap(map[string]object.Object{
			"ref":        object.NewString(ref),
			"name":       object.NewString(name),
			"parameters": stringList(params),
		}))
	}
	types := make([]string, 0, len(h.in.Types))
	for _, ref := range h.in.Types {
		if ref = strings.TrimSpace(ref); ref != "" {
			types = append(types, ref)
		}
	}

	return map[string]any{
		"targets":           object.NewList(targets),
		"command_refs":      object.NewList(cmds),
		"type_refs":         stringList(types),
		"lookup_command":    h.lookupCommandFn(),
		"command_parameter": h.commandParameterFn(),
		"resolve_type":      h.resolveTypeFn(),
		"has_member":        h.hasMemberFn(),
		"native_command":    h.nativeCommandFn(),
		"report":            h.reportFn(),
	}
}

// ParseCommandRef splits "gci -Path -Recurse" into the command name and
// parameter names without their dashes.
func ParseCommandRef(ref string) (string, []string) {
	fields := strings.Fields(ref)
	if len(fields) == 0 {
		return "", nil
	}
	var params []string
	for _, f := range fields[1:] {
		if p := strings.TrimLeft(f, "-"); p != "" {
			params = append(params, strings.TrimSuffix(p, ":"))
		}
	}
	return fields[0], params
}

func (h *host) target(fn string, arg object.Object) (*query.Profile, *object.Error) {
	id, err := toString(arg)
	if err != nil {
		return nil, object.Errorf("%s: target: %v", fn, err)
	}
	p, ok := h.byID[id]
	if !ok {
		return nil, object.Errorf("%s: unknown target %q", fn, id)
	}
	return p, nil
}

func (h *host) lookupCommandFn() *object.Builtin {
	return object.NewBuiltin("lookup_command", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("lookup_command", 2, len(args))
		}
		p, errObj := h.target("lookup_command", args[0])
		if errObj != nil {
			return errObj
		}
		name, err := toString(args[1])
		if err != nil {
			return object.Errorf("lookup_command: name: %v", err)
		}
		cmd, ok := p.Runtime().Commands().Lookup(name)
		if !ok {
			return object.Nil
		}
		return object.NewMap(map[string]object.Object{
			"name":           object.NewString(cmd.Name),
			"kind":           object.NewString(cmd.Kind.String()),
			"module":         object.NewString(cmd.Module),
			"module_version": object.NewString(cmd.ModuleVersion),
		})
	})
}

func (h *host) commandParameterFn() *object.Builtin {
	return object.NewBuiltin("command_parameter", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("command_parameter", 3, len(args))
		}
		p, errObj := h.target("command_parameter", args[0])
		if errObj != nil {
			return errObj
		}
		name, err := toString(args[1])
		if err != nil {
			return object.Errorf("command_parameter: command: %v", err)
		}
		param, err := toString(args[2])
		if err != nil {
			return object.Errorf("command_parameter: parameter: %v", err)
		}
		cmd, ok := p.Runtime().Commands().Lookup(name)
		if !ok {
			return object.Nil
		}
		found, ok := cmd.Parameter(param)
		if !ok {
			return object.Nil
		}
		return object.NewMap(map[string]object.Object{
			"name":   object.NewString(found.Name),
			"common": object.NewBool(found.Common),
		})
	})
}

func (h *host) resolveTypeFn() *object.Builtin {
	return object.NewBuiltin("resolve_type", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("resolve_type", 2, len(args))
		}
		p, errObj := h.target("resolve_type", args[0])
		if errObj != nil {
			return errObj
		}
		ref, err := toString(args[1])
		if err != nil {
			return object.Errorf("resolve_type: ref: %v", err)
		}
		info, ok := p.Runtime().Types().Resolve(ref)
		if !ok {
			return object.Nil
		}
		return object.NewMap(map[string]object.Object{
			"name":     object.NewString(info.Name),
			"assembly": object.NewString(info.Assembly),
			"is_array": object.NewBool(info.IsArray),
		})
	})
}

func (h *host) hasMemberFn() *object.Builtin {
	return object.NewBuiltin("has_member", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 && len(args) != 4 {
			return object.Errorf("has_member: expected 3 or 4 arguments, got %d", len(args))
		}
		p, errObj := h.target("has_member", args[0])
		if errObj != nil {
			return errObj
		}
		ref, err := toString(args[1])
		if err != nil {
			return object.Errorf("has_member: ref: %v", err)
		}
		member, err := toString(args[2])
		if err != nil {
			return object.Errorf("has_member: name: %v", err)
		}
		static := false
		if len(args) == 4 {
			b, ok := args[3].(*object.Bool)
			if !ok {
				return object.Errorf("has_member: static must be a bool, got %s", args[3].Type())
			}
			static = b.Value()
		}
		info, ok := p.Runtime().Types().Resolve(ref)
		return object.NewBool(ok && info.HasMember(static, member))
	})
}

func (h *host) nativeCommandFn() *object.Builtin {
	return object.NewBuiltin("native_command", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("native_command", 2, len(args))
		}
		p, errObj := h.target("native_command", args[0])
		if errObj != nil {
			return errObj
		}
		name, err := toString(args[1])
		if err != nil {
			return object.Errorf("native_command: name: %v", err)
		}
		_, ok := p.Runtime().NativeCommands(name)
		return object.NewBool(ok)
	})
}

// reportFn creates "report". Risor cannot construct Go structs, so it
// accepts a map and builds the Diagnostic Go-side.
func (h *host) reportFn() *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("report", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("report: %v", err)
		}
		d := Diagnostic{
			Rule:     getString(m, "rule"),
			Severity: getStringDefault(m, "severity", "warning"),
			Target:   getString(m, "target"),
			Subject:  getString(m, "subject"),
			Message:  getString(m, "message"),
		}
		if d.Rule == "" || d.Message == "" {
			return object.Errorf("report: rule and message are required")
		}
		h.mu.Lock()
		h.diags = append(h.diags, d)
		h.mu.Unlock()
		return object.Nil
	})
}

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getStringDefault(m map[string]object.Object, key, def string) string {
	v := getString(m, key)
	if v == "" {
		return def
	}
	return v
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

func stringList(values []string) *object.List {
	items := make([]object.Object, len(values))
	for i, v := range values {
		items[i] = object.NewString(v)
	}
	return object.NewList(items)
}
