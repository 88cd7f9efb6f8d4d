// Package extract builds profiles from the assemblies and modules a
// PowerShell runtime has loaded.
//
// A Source reports each type with only the members it declares. The
// extractor walks the base type chain to flatten the instance surface,
// resolves overrides against overloads, and renders every type name the
// way it is stored in a profile. Failures of single assemblies, types or
// modules are collected and the item is skipped; the rest of the profile
// is still produced.
package extract

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/jward/pscompat/internal/profile"
)

// Extractor turns a Source into a profile.
type Extractor struct {
	workers int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithWorkers bounds the number of assemblies reflected concurrently.
func WithWorkers(n int) Option {
	return func(x *Extractor) {
		if n > 0 {
			x.workers = n
		}
	}
}

// New returns an Extractor.
func New(opts ...Option) *Extractor {
	x := &Extractor{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract builds the profile id from src. The returned errors describe
// items that were skipped; the profile is usable regardless. A non-nil
// error is returned only when ctx is done.
func (x *Extractor) Extract(ctx context.Context, src Source, id string) (*profile.Data, []*profile.ExtractionError, error) {
	var errs []*profile.ExtractionError
	fail := func(kind, item string, err error) {
		errs = append(errs, &profile.ExtractionError{Kind: kind, Item: item, Err: err})
	}

	rt := &profile.RuntimeData{}

	assemblies, err := src.Assemblies(ctx)
	if err != nil {
		fail("assemblies", "*", err)
	}
	accelerators, err := src.TypeAccelerators(ctx)
	if err != nil {
		fail("accelerators", "*", err)
	}
	types, typeErrs, err := x.ExtractTypes(ctx, assemblies, accelerators)
	if err != nil {
		return nil, nil, err
	}
	rt.Types = types
	errs = append(errs, typeErrs...)

	modules, err := src.Modules(ctx)
	if err != nil {
		fail("modules", "*", err)
	}

	var common []*Parameter
	if cs, ok := src.(CommonParameterSource); ok {
		if common, err = cs.CommonParameters(ctx); err != nil {
			fail("common parameters", "*", err)
		}
	}
	if len(common) > 0 {
		rt.Common = commonData(common)
	}

	mods, modErrs := ExtractModules(modules, common)
	rt.Modules = mods
	errs = append(errs, modErrs...)

	if ns, ok := src.(NativeCommandSource); ok {
		native, err := ns.NativeCommands(ctx)
		if err != nil {
			fail("native commands", "*", err)
		}
		for name, cmds := range native {
			rt.NativeCommands.Set(name, cmds)
		}
	}

	platform := &profile.PlatformData{}
	if ps, ok := src.(PlatformSource); ok {
		p, err := ps.Platform(ctx)
		switch {
		case err != nil:
			fail("platform", "*", err)
		case p != nil:
			platform = p
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return &profile.Data{
		ID:            id,
		SchemaVersion: profile.SchemaVersion,
		Runtime:       rt,
		Platform:      platform,
	}, errs, nil
}

// ExtractTypes reflects every assembly and resolves type accelerators.
// Assemblies are processed concurrently; the result does not depend on
// scheduling.
func (x *Extractor) ExtractTypes(ctx context.Context, assemblies []*Assembly, accelerators map[string]string) (*profile.AvailableTypeData, []*profile.ExtractionError, error) {
	ix := newTypeIndex(assemblies)

	results := make([]*profile.AssemblyData, len(assemblies))
	perAssembly := make([][]*profile.ExtractionError, len(assemblies))

	p := pool.New().WithMaxGoroutines(x.workers)
	for i, a := range assemblies {
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			results[i], perAssembly[i] = ix.assemblyData(a)
		})
	}
	p.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	types := &profile.AvailableTypeData{}
	var errs []*profile.ExtractionError
	for i, ad := range results {
		errs = append(errs, perAssembly[i]...)
		if ad == nil {
			continue
		}
		if _, dup := types.Assemblies.Get(ad.AssemblyName.Name); dup {
			continue
		}
		types.Assemblies.Set(ad.AssemblyName.Name, ad)
	}

	for name, target := range accelerators {
		acc := profile.TypeAcceleratorData{Type: target}
		if e, ok := ix.types[target]; ok {
			acc.Assembly = e.assembly
		}
		types.TypeAccelerators.Set(name, acc)
	}
	return types, errs, nil
}

type indexedType struct {
	t        *Type
	assembly string
}

// typeIndex finds type definitions by key across all assemblies, so that
// base types in other assemblies can be walked.
type typeIndex struct {
	types  map[string]indexedType
	nested map[string][]*Type
}

func newTypeIndex(assemblies []*Assembly) *typeIndex {
	ix := &typeIndex{
		types:  make(map[string]indexedType),
		nested: make(map[string][]*Type),
	}
	for _, a := range assemblies {
		if a == nil || a.LoadError != "" {
			continue
		}
		for _, t := range a.Types {
			if t.LoadError != "" {
				continue
			}
			key := t.Key()
			if _, dup := ix.types[key]; dup {
				continue
			}
			ix.types[key] = indexedType{t: t, assembly: a.Name.Name}
			if t.DeclaringType != "" {
				ix.nested[t.DeclaringType] = append(ix.nested[t.DeclaringType], t)
			}
		}
	}
	return ix
}

func (ix *typeIndex) base(t *Type) (*Type, error) {
	if t.Base == nil {
		return nil, nil
	}
	e, ok := ix.types[t.Base.Key()]
	if !ok {
		return nil, fmt.Errorf("base type %s not loaded", t.Base.FullName())
	}
	return e.t, nil
}

// isSubclass reports whether a derives, directly or not, from b.
func (ix *typeIndex) isSubclass(a, b *Type) bool {
	seen := map[*Type]bool{}
	for cur := a; cur != nil && !seen[cur]; {
		seen[cur] = true
		next, err := ix.base(cur)
		if err != nil {
			return false
		}
		if next == b {
			return true
		}
		cur = next
	}
	return false
}

func (ix *typeIndex) assemblyData(a *Assembly) (*profile.AssemblyData, []*profile.ExtractionError) {
	if a == nil {
		return nil, nil
	}
	if a.LoadError != "" {
		return nil, []*profile.ExtractionError{{Kind: "assembly", Item: a.Name.Name, Err: errors.New(a.LoadError)}}
	}
	b := &typeBuilder{ix: ix}
	ad := &profile.AssemblyData{AssemblyName: a.Name.Clone()}
	for _, t := range a.Types {
		if t.DeclaringType != "" {
			continue
		}
		if td := b.typeData(t); td != nil {
			ad.AddType(t.Namespace, t.Name, td)
		}
	}
	return ad, b.errs
}

// typeBuilder renders the types of one assembly. It is not safe for
// concurrent use.
type typeBuilder struct {
	ix    *typeIndex
	errs  []*profile.ExtractionError
	stack []*Type
}

// typeData returns the profile record for t, or nil after recording an
// error when t cannot be reflected.
func (b *typeBuilder) typeData(t *Type) *profile.TypeData {
	for _, open := range b.stack {
		if open == t {
			return nil
		}
	}
	b.stack = append(b.stack, t)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	if err := t.check(); err != nil {
		b.fail(t, err)
		return nil
	}
	instance, err := b.instanceCandidates(t)
	if err != nil {
		b.fail(t, err)
		return nil
	}
	return &profile.TypeData{
		IsEnum:   t.IsEnum,
		Static:   b.memberData(resolveOverrides(staticCandidates(t), b.ix.isSubclass)),
		Instance: b.memberData(resolveOverrides(instance, b.ix.isSubclass)),
	}
}

func (b *typeBuilder) fail(t *Type, err error) {
	b.errs = append(b.errs, &profile.ExtractionError{Kind: "type", Item: t.Key(), Err: err})
}

func staticCandidates(t *Type) []candidate {
	var out []candidate
	for i := range t.Members {
		m := &t.Members[i]
		if !m.Static || m.Kind == KindConstructor || m.Kind == KindNestedType || isAccessorMethod(m) {
			continue
		}
		out = append(out, newCandidate(m, t, nil))
	}
	return out
}

// instanceCandidates flattens the instance members of t and its bases,
// most derived first. Constructors are taken from t only. Generic
// arguments given to each base are substituted into inherited signatures.
func (b *typeBuilder) instanceCandidates(t *Type) ([]candidate, error) {
	var out []candidate
	var env map[string]*TypeRef
	seen := map[*Type]bool{}
	for cur := t; cur != nil; {
		if seen[cur] {
			return nil, fmt.Errorf("inheritance cycle at %s", cur.Key())
		}
		seen[cur] = true

		for i := range cur.Members {
			m := &cur.Members[i]
			if m.Static || m.Kind == KindNestedType || isAccessorMethod(m) {
				continue
			}
			if m.Kind == KindConstructor && cur != t {
				continue
			}
			out = append(out, newCandidate(m, cur, env))
		}
		for _, nt := range b.ix.nested[cur.Key()] {
			out = append(out, candidate{
				member: &Member{Kind: KindNestedType, Name: nt.Name},
				on:     cur,
				nested: nt,
			})
		}

		next, err := b.ix.base(cur)
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		if env, err = baseEnv(cur.Base, next, env); err != nil {
			return nil, err
		}
		cur = next
	}
	return out, nil
}

// baseEnv maps the generic parameters of base to the arguments ref gives
// them, resolved in the current environment.
func baseEnv(ref *TypeRef, base *Type, env map[string]*TypeRef) (map[string]*TypeRef, error) {
	if len(base.GenericParameters) == 0 {
		return nil, nil
	}
	if len(ref.GenericArgs) != len(base.GenericParameters) {
		return nil, fmt.Errorf("base type %s: %d generic arguments for %d parameters",
			base.Key(), len(ref.GenericArgs), len(base.GenericParameters))
	}
	next := make(map[string]*TypeRef, len(base.GenericParameters))
	for i, name := range base.GenericParameters {
		next[name] = substitute(ref.GenericArgs[i], env)
	}
	return next, nil
}

// check validates the members of t before any rendering.
func (t *Type) check() error {
	if t.LoadError != "" {
		return errors.New(t.LoadError)
	}
	for i := range t.Members {
		m := &t.Members[i]
		switch m.Kind {
		case KindField, KindProperty, KindEvent, KindIndexer:
			if m.Type == nil {
				return fmt.Errorf("%s %s has no type", m.Kind, m.Name)
			}
		case KindNestedType:
			return fmt.Errorf("nested type %s must be listed as a type with declaringType", m.Name)
		}
		for _, p := range m.Parameters {
			if p == nil {
				return fmt.Errorf("%s %s has a nil parameter type", m.Kind, m.Name)
			}
		}
	}
	return nil
}

// ExtractModules converts loaded modules into the profile module table.
// Common parameters are left out of cmdlets and advanced functions, which
// receive them implicitly.
func ExtractModules(modules []*Module, common []*Parameter) (profile.FoldMap[map[string]*profile.ModuleData], []*profile.ExtractionError) {
	commonNames := make(map[string]bool, len(common))
	for _, p := range common {
		commonNames[profile.FoldKey(p.Name)] = true
	}

	results := make([]*profile.ModuleData, len(modules))
	failures := make([]error, len(modules))
	p := pool.New()
	for i, m := range modules {
		if m == nil {
			continue
		}
		p.Go(func() {
			results[i], failures[i] = moduleData(m, commonNames)
		})
	}
	p.Wait()

	var out profile.FoldMap[map[string]*profile.ModuleData]
	var errs []*profile.ExtractionError
	for i, m := range modules {
		if failures[i] != nil {
			errs = append(errs, &profile.ExtractionError{Kind: "module", Item: m.Name, Err: failures[i]})
			continue
		}
		if results[i] == nil {
			continue
		}
		versions, _ := out.Get(m.Name)
		if versions == nil {
			versions = make(map[string]*profile.ModuleData)
		}
		if _, dup := versions[m.Version]; !dup {
			versions[m.Version] = results[i]
		}
		out.Set(m.Name, versions)
	}
	return out, errs
}

func moduleData(m *Module, commonNames map[string]bool) (*profile.ModuleData, error) {
	if m.LoadError != "" {
		return nil, errors.New(m.LoadError)
	}
	md := &profile.ModuleData{GUID: m.GUID}
	if len(m.Variables) > 0 {
		md.Variables = append([]string(nil), m.Variables...)
	}
	for alias, target := range m.Aliases {
		md.Aliases.Set(alias, target)
	}
	for _, c := range m.Commands {
		if c == nil || c.Name == "" {
			return nil, fmt.Errorf("command without a name")
		}
		var skip map[string]bool
		if c.advanced() {
			skip = commonNames
		}
		cd := commandData(c, skip)
		switch c.Kind {
		case KindCmdlet:
			md.Cmdlets.Set(c.Name, &profile.CmdletData{CommandData: cd})
		case KindFunction:
			md.Functions.Set(c.Name, &profile.FunctionData{CommandData: cd, CmdletBinding: c.CmdletBinding})
		default:
			return nil, fmt.Errorf("command %s: unknown kind %d", c.Name, c.Kind)
		}
	}
	return md, nil
}

// allParameterSets is the implicit set a parameter belongs to when it names
// no set of its own.
const allParameterSets = "__AllParameterSets"

func commandData(c *Command, skip map[string]bool) profile.CommandData {
	cd := profile.CommandData{
		DefaultParameterSet: c.DefaultParameterSet,
	}
	if len(c.OutputType) > 0 {
		cd.OutputType = append([]string(nil), c.OutputType...)
	}
	sets := map[string]bool{}
	addSet := func(name string) {
		if name == "" || name == allParameterSets || sets[name] {
			return
		}
		sets[name] = true
		cd.ParameterSets = append(cd.ParameterSets, name)
	}
	for _, p := range c.Parameters {
		if skip[profile.FoldKey(p.Name)] {
			continue
		}
		cd.Parameters.Set(p.Name, parameterData(p))
		for _, a := range p.Aliases {
			cd.ParameterAliases.Set(a, p.Name)
		}
		for _, s := range p.Sets {
			addSet(s.Name)
		}
	}
	if cd.ParameterSets != nil {
		addSet(c.DefaultParameterSet)
	}
	return cd
}

func parameterData(p *Parameter) *profile.ParameterData {
	pd := &profile.ParameterData{Type: p.Type, Dynamic: p.Dynamic}
	sets := p.Sets
	if len(sets) == 0 {
		sets = []ParameterSet{{Name: allParameterSets}}
	}
	for _, s := range sets {
		psd := profile.ParameterSetData{Position: profile.NoPosition}
		if s.Position != nil {
			psd.Position = *s.Position
		}
		if s.Mandatory {
			psd.Flags |= profile.Mandatory
		}
		if s.ValueFromPipeline {
			psd.Flags |= profile.ValueFromPipeline
		}
		if s.ValueFromPipelineByPropertyName {
			psd.Flags |= profile.ValueFromPipelineByPropertyName
		}
		if s.ValueFromRemainingArguments {
			psd.Flags |= profile.ValueFromRemainingArguments
		}
		name := s.Name
		if name == "" {
			name = allParameterSets
		}
		pd.ParameterSets.Set(name, psd)
	}
	return pd
}

func commonData(params []*Parameter) *profile.CommonData {
	c := &profile.CommonData{}
	for _, p := range params {
		c.Parameters.Set(p.Name, parameterData(p))
		for _, a := range p.Aliases {
			c.ParameterAliases.Set(a, p.Name)
		}
	}
	return c
}
