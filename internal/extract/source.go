package extract

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jward/pscompat/internal/profile"
)

// Source enumerates what a live PowerShell runtime has loaded.
type Source interface {
	Assemblies(ctx context.Context) ([]*Assembly, error)
	Modules(ctx context.Context) ([]*Module, error)

	// TypeAccelerators maps accelerator name to the key of the type it
	// names, such as "int" to "System.Int32".
	TypeAccelerators(ctx context.Context) (map[string]string, error)
}

// PlatformSource is implemented by sources that can describe their host.
type PlatformSource interface {
	Platform(ctx context.Context) (*profile.PlatformData, error)
}

// CommonParameterSource is implemented by sources that report the common
// parameters shared by cmdlets and advanced functions.
type CommonParameterSource interface {
	CommonParameters(ctx context.Context) ([]*Parameter, error)
}

// NativeCommandSource is implemented by sources that report executables
// on the search path.
type NativeCommandSource interface {
	NativeCommands(ctx context.Context) (map[string][]profile.NativeCommandData, error)
}

// Assembly is one loaded assembly as reported by a Source.
type Assembly struct {
	Name  profile.AssemblyNameData `json:"name"`
	Types []*Type                  `json:"types,omitempty"`

	// LoadError is set when the assembly could not be reflected at all.
	LoadError string `json:"loadError,omitempty"`
}

// Type is a type definition together with the members it declares itself.
// Inherited members are found by following Base.
type Type struct {
	Namespace string `json:"namespace,omitempty"`

	// Name is the CLR name, including any `N arity suffix.
	Name string `json:"name"`

	// DeclaringType is the key of the enclosing type of a nested type.
	DeclaringType string `json:"declaringType,omitempty"`

	GenericParameters []string `json:"genericParameters,omitempty"`
	Base              *TypeRef `json:"base,omitempty"`
	IsEnum            bool     `json:"isEnum,omitempty"`
	Members           []Member `json:"members,omitempty"`
	LoadError         string   `json:"loadError,omitempty"`
}

// Key identifies the type definition: namespace, nesting and arity, but no
// generic arguments.
func (t *Type) Key() string {
	if t.DeclaringType != "" {
		return t.DeclaringType + "+" + t.Name
	}
	return qualify(t.Namespace, t.Name)
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// TypeRef is a reference to a type from a member signature or a base type
// list. Exactly one of the shapes applies: a generic parameter, an array or
// by-ref over Element, or a named (possibly generic) type.
type TypeRef struct {
	Namespace        string     `json:"namespace,omitempty"`
	Name             string     `json:"name,omitempty"`
	DeclaringType    *TypeRef   `json:"declaringType,omitempty"`
	GenericArgs      []*TypeRef `json:"genericArgs,omitempty"`
	GenericParameter bool       `json:"genericParameter,omitempty"`
	Element          *TypeRef   `json:"element,omitempty"`
	ArrayRank        int        `json:"arrayRank,omitempty"`
	ByRef            bool       `json:"byRef,omitempty"`
}

// Key returns the key of the referenced type definition.
func (r *TypeRef) Key() string {
	if r.DeclaringType != nil {
		return r.DeclaringType.Key() + "+" + r.Name
	}
	return qualify(r.Namespace, r.Name)
}

// Module is a loaded script module.
type Module struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	GUID      uuid.UUID         `json:"guid"`
	Commands  []*Command        `json:"commands,omitempty"`
	Aliases   map[string]string `json:"aliases,omitempty"`
	Variables []string          `json:"variables,omitempty"`
	LoadError string            `json:"loadError,omitempty"`
}

// CommandKind distinguishes compiled cmdlets from script functions.
type CommandKind int

const (
	KindCmdlet CommandKind = iota
	KindFunction
)

var commandKindNames = []string{"Cmdlet", "Function"}

func (k CommandKind) String() string {
	if int(k) < len(commandKindNames) {
		return commandKindNames[k]
	}
	return "Unknown"
}

func (k CommandKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *CommandKind) UnmarshalText(text []byte) error {
	for i, n := range commandKindNames {
		if strings.EqualFold(n, string(text)) {
			*k = CommandKind(i)
			return nil
		}
	}
	return &profile.ParseError{Input: string(text), Reason: "unknown command kind"}
}

// Command is a command exported by a module.
type Command struct {
	Name                string       `json:"name"`
	Kind                CommandKind  `json:"kind"`
	CmdletBinding       bool         `json:"cmdletBinding,omitempty"`
	OutputType          []string     `json:"outputType,omitempty"`
	DefaultParameterSet string       `json:"defaultParameterSet,omitempty"`
	Parameters          []*Parameter `json:"parameters,omitempty"`
}

// advanced reports whether the command receives the common parameters.
func (c *Command) advanced() bool {
	return c.Kind == KindCmdlet || c.CmdletBinding
}

// Parameter is one parameter of a command.
type Parameter struct {
	Name    string         `json:"name"`
	Type    string         `json:"type,omitempty"`
	Aliases []string       `json:"aliases,omitempty"`
	Dynamic bool           `json:"dynamic,omitempty"`
	Sets    []ParameterSet `json:"sets,omitempty"`
}

// ParameterSet is a parameter's attributes within one parameter set.
type ParameterSet struct {
	Name                            string `json:"name"`
	Mandatory                       bool   `json:"mandatory,omitempty"`
	ValueFromPipeline               bool   `json:"valueFromPipeline,omitempty"`
	ValueFromPipelineByPropertyName bool   `json:"valueFromPipelineByPropertyName,omitempty"`
	ValueFromRemainingArguments     bool   `json:"valueFromRemainingArguments,omitempty"`
	Position                        *int   `json:"position,omitempty"`
}
