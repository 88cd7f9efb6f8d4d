package main

import "time"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIProfile summarizes one profile.
type CLIProfile struct {
	ID            string    `json:"id"`
	Path          string    `json:"path,omitempty"`
	OSFamily      string    `json:"os_family,omitempty"`
	OSName        string    `json:"os_name,omitempty"`
	Architecture  string    `json:"architecture,omitempty"`
	PSVersion     string    `json:"ps_version,omitempty"`
	PSEdition     string    `json:"ps_edition,omitempty"`
	DotnetRuntime string    `json:"dotnet_runtime,omitempty"`
	Union         bool      `json:"union,omitempty"`
	Constituents  []string  `json:"constituents,omitempty"`
	ModuleCount   int       `json:"module_count"`
	CommandCount  int       `json:"command_count"`
	TypeCount     int       `json:"type_count"`
	LoadedAt      time.Time `json:"loaded_at,omitzero"`
}

// CLICommand describes a resolved command.
type CLICommand struct {
	Query         string         `json:"query"`
	Name          string         `json:"name"`
	Kind          string         `json:"kind"`
	Module        string         `json:"module"`
	ModuleVersion string         `json:"module_version"`
	CmdletBinding bool           `json:"cmdlet_binding,omitempty"`
	OutputType    []string       `json:"output_type,omitempty"`
	ParameterSets []string       `json:"parameter_sets,omitempty"`
	Parameters    []CLIParameter `json:"parameters"`
}

// CLIParameter describes one parameter of a command.
type CLIParameter struct {
	Name    string   `json:"name"`
	Type    string   `json:"type,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
	Dynamic bool     `json:"dynamic,omitempty"`
}

// CLIType describes a resolved type.
type CLIType struct {
	Query    string     `json:"query"`
	Name     string     `json:"name"`
	Assembly string     `json:"assembly"`
	IsArray  bool       `json:"is_array,omitempty"`
	Instance *CLIMember `json:"instance,omitempty"`
	Static   *CLIMember `json:"static,omitempty"`
}

// CLIMember lists the member names of one side of a type.
type CLIMember struct {
	Constructors int      `json:"constructors,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	Properties   []string `json:"properties,omitempty"`
	Methods      []string `json:"methods,omitempty"`
	Events       []string `json:"events,omitempty"`
	NestedTypes  []string `json:"nested_types,omitempty"`
}

// CLIExtract reports the outcome of an extraction.
type CLIExtract struct {
	ID       string   `json:"id"`
	Path     string   `json:"path"`
	Modules  int      `json:"modules"`
	Commands int      `json:"commands"`
	Types    int      `json:"types"`
	Warnings []string `json:"warnings,omitempty"`
}
