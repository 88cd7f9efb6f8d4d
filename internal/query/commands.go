package query

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/jward/pscompat/internal/profile"
)

// CommandKind tells cmdlets from functions.
type CommandKind int

const (
	Cmdlet CommandKind = iota
	Function
)

func (k CommandKind) String() string {
	if k == Function {
		return "Function"
	}
	return "Cmdlet"
}

// Command is a command found in a profile, with the module that provides
// it.
type Command struct {
	Name          string
	Kind          CommandKind
	Module        string
	ModuleVersion string
	CmdletBinding bool

	// Data points into the wrapped profile.
	Data *profile.CommandData

	common *profile.CommonData
}

// Parameter is a parameter resolved on a command.
type Parameter struct {
	Name   string
	Data   *profile.ParameterData
	Common bool
}

// Parameter resolves name against the command's parameters and their
// aliases, then, for cmdlets and advanced functions, against the common
// parameters.
func (c *Command) Parameter(name string) (Parameter, bool) {
	if p, ok := lookupParameter(c.Data.Parameters, c.Data.ParameterAliases, name); ok {
		return p, true
	}
	if c.Kind == Function && !c.CmdletBinding || c.common == nil {
		return Parameter{}, false
	}
	p, ok := lookupParameter(c.common.Parameters, c.common.ParameterAliases, name)
	p.Common = ok
	return p, ok
}

func lookupParameter(params profile.FoldMap[*profile.ParameterData], aliases profile.FoldMap[string], name string) (Parameter, bool) {
	if pd, ok := params.Get(name); ok {
		return Parameter{Name: canonicalKey(params.Keys(), name), Data: pd}, true
	}
	if target, ok := aliases.Get(name); ok {
		if pd, ok := params.Get(target); ok {
			return Parameter{Name: canonicalKey(params.Keys(), target), Data: pd}, true
		}
	}
	return Parameter{}, false
}

// canonicalKey returns the stored spelling of name among keys.
func canonicalKey(keys []string, name string) string {
	for _, k := range keys {
		if profile.FoldKey(k) == profile.FoldKey(name) {
			return k
		}
	}
	return name
}

// Commands resolves command names and aliases across every module of a
// profile.
type Commands struct {
	data *profile.RuntimeData

	once    sync.Once
	primary map[string]*Command
	aliases map[string]*Command
}

func newCommands(d *profile.RuntimeData) *Commands {
	return &Commands{data: d}
}

// index builds the primary table from every cmdlet and function, then the
// alias table pointing at the same entries. Null module versions and
// commands are skipped. When several modules or
// versions define a name, modules are taken in name order and the highest
// version of each wins.
func (c *Commands) index() {
	c.once.Do(func() {
		c.primary = make(map[string]*Command)
		c.aliases = make(map[string]*Command)

		type loaded struct {
			name, version string
			data          *profile.ModuleData
		}
		var mods []loaded
		for name, versions := range c.data.Modules.All() {
			for _, v := range sortVersionsDesc(versions) {
				if versions[v] == nil {
					continue
				}
				mods = append(mods, loaded{name, v, versions[v]})
			}
		}

		for _, m := range mods {
			for name, cd := range m.data.Cmdlets.All() {
				if cd == nil {
					continue
				}
				c.addPrimary(&Command{
					Name: name, Kind: Cmdlet, Module: m.name, ModuleVersion: m.version,
					Data: &cd.CommandData, common: c.data.Common,
				})
			}
			for name, fd := range m.data.Functions.All() {
				if fd == nil {
					continue
				}
				c.addPrimary(&Command{
					Name: name, Kind: Function, Module: m.name, ModuleVersion: m.version,
					CmdletBinding: fd.CmdletBinding, Data: &fd.CommandData, common: c.data.Common,
				})
			}
		}
		for _, m := range mods {
			for alias, target := range m.data.Aliases.All() {
				cmd, ok := c.primary[profile.FoldKey(target)]
				if !ok {
					continue
				}
				if _, taken := c.aliases[profile.FoldKey(alias)]; !taken {
					c.aliases[profile.FoldKey(alias)] = cmd
				}
			}
		}
	})
}

func (c *Commands) addPrimary(cmd *Command) {
	key := profile.FoldKey(cmd.Name)
	if _, taken := c.primary[key]; !taken {
		c.primary[key] = cmd
	}
}

// Lookup finds a command by name or alias. Names take precedence over
// aliases; an alias returns the same *Command as its target's name.
func (c *Commands) Lookup(name string) (*Command, bool) {
	c.index()
	key := profile.FoldKey(name)
	if cmd, ok := c.primary[key]; ok {
		return cmd, true
	}
	cmd, ok := c.aliases[key]
	return cmd, ok
}

// Names returns every command name in sorted order.
func (c *Commands) Names() []string {
	c.index()
	names := make([]string, 0, len(c.primary))
	for _, cmd := range c.primary {
		names = append(names, cmd.Name)
	}
	sort.Strings(names)
	return names
}

// AliasNames returns every alias that resolves to a known command.
func (c *Commands) AliasNames() []string {
	c.index()
	names := make([]string, 0, len(c.aliases))
	for _, m := range c.data.Modules.All() {
		for _, md := range m {
			if md == nil {
				continue
			}
			for alias, target := range md.Aliases.All() {
				if _, ok := c.primary[profile.FoldKey(target)]; ok {
					names = append(names, alias)
				}
			}
		}
	}
	sort.Strings(names)
	return slices.Compact(names)
}

// sortVersionsDesc orders version keys highest first. Keys that are not
// PowerShell versions sort after the parsable ones, by string.
func sortVersionsDesc(versions map[string]*profile.ModuleData) []string {
	keys := make([]string, 0, len(versions))
	for k := range versions {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		va, errA := profile.ParsePSVersion(a)
		vb, errB := profile.ParsePSVersion(b)
		switch {
		case errA == nil && errB == nil:
			if c := vb.Compare(va); c != 0 {
				return c
			}
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		}
		return strings.Compare(a, b)
	})
	return keys
}
