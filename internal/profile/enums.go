package profile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OSFamily is the broad operating system family of a platform.
type OSFamily int

const (
	OSFamilyOther OSFamily = iota
	OSFamilyWindows
	OSFamilyMacOS
	OSFamilyLinux
)

var osFamilyNames = []string{"Other", "Windows", "MacOS", "Linux"}

func (f OSFamily) String() string { return enumName(osFamilyNames, int(f)) }

func (f OSFamily) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *OSFamily) UnmarshalText(text []byte) error {
	i, err := enumValue("OS family", osFamilyNames, string(text))
	*f = OSFamily(i)
	return err
}

// Architecture is a processor architecture.
type Architecture int

const (
	ArchX86 Architecture = iota
	ArchX64
	ArchArm
	ArchArm64
)

var architectureNames = []string{"X86", "X64", "Arm", "Arm64"}

func (a Architecture) String() string { return enumName(architectureNames, int(a)) }

func (a Architecture) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Architecture) UnmarshalText(text []byte) error {
	i, err := enumValue("architecture", architectureNames, string(text))
	*a = Architecture(i)
	return err
}

// DotnetRuntime is the flavour of .NET a platform runs on.
type DotnetRuntime int

const (
	DotnetOther DotnetRuntime = iota
	DotnetFramework
	DotnetCore
)

var dotnetRuntimeNames = []string{"Other", "Framework", "Core"}

func (r DotnetRuntime) String() string { return enumName(dotnetRuntimeNames, int(r)) }

func (r DotnetRuntime) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *DotnetRuntime) UnmarshalText(text []byte) error {
	i, err := enumValue("dotnet runtime", dotnetRuntimeNames, string(text))
	*r = DotnetRuntime(i)
	return err
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%d", i)
	}
	return names[i]
}

func enumValue(what string, names []string, s string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, &ParseError{Input: s, Reason: "unknown " + what}
}

// ParameterSetFlag is a set of parameter attributes within one parameter set.
type ParameterSetFlag uint8

const (
	Mandatory ParameterSetFlag = 1 << iota
	ValueFromPipeline
	ValueFromPipelineByPropertyName
	ValueFromRemainingArguments
)

var parameterSetFlagNames = []string{
	"Mandatory",
	"ValueFromPipeline",
	"ValueFromPipelineByPropertyName",
	"ValueFromRemainingArguments",
}

// Has reports whether every flag in want is set.
func (f ParameterSetFlag) Has(want ParameterSetFlag) bool { return f&want == want }

func (f ParameterSetFlag) String() string {
	return strings.Join(flagNames(parameterSetFlagNames, uint8(f)), ", ")
}

// MarshalJSON writes the set as an array of flag names.
func (f ParameterSetFlag) MarshalJSON() ([]byte, error) {
	return json.Marshal(flagNames(parameterSetFlagNames, uint8(f)))
}

func (f *ParameterSetFlag) UnmarshalJSON(data []byte) error {
	v, err := parseFlags("parameter set flag", parameterSetFlagNames, data)
	*f = ParameterSetFlag(v)
	return err
}

// Accessors records which accessors a property or indexer exposes.
type Accessors uint8

const (
	AccessorGet Accessors = 1 << iota
	AccessorSet
)

var accessorNames = []string{"Get", "Set"}

// Has reports whether every accessor in want is present.
func (a Accessors) Has(want Accessors) bool { return a&want == want }

func (a Accessors) String() string { return strings.Join(flagNames(accessorNames, uint8(a)), ", ") }

func (a Accessors) MarshalJSON() ([]byte, error) {
	return json.Marshal(flagNames(accessorNames, uint8(a)))
}

func (a *Accessors) UnmarshalJSON(data []byte) error {
	v, err := parseFlags("accessor", accessorNames, data)
	*a = Accessors(v)
	return err
}

func flagNames(names []string, v uint8) []string {
	out := []string{}
	for i, n := range names {
		if v&(1<<i) != 0 {
			out = append(out, n)
		}
	}
	return out
}

func parseFlags(what string, names []string, data []byte) (uint8, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return 0, &ParseError{Input: string(data), Reason: what + " list", Err: err}
	}
	var v uint8
	for _, s := range list {
		i, err := enumValue(what, names, s)
		if err != nil {
			return 0, err
		}
		v |= 1 << i
	}
	return v, nil
}
