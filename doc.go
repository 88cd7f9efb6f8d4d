// Package pscompat loads and queries PowerShell compatibility profiles:
// records of which modules, commands, parameters and .NET types exist on a
// given PowerShell installation.
//
// # Pipeline
//
// Profiles move through three stages:
//
//  1. Extract: a reflection dump taken on the target platform is turned into
//     a profile, resolving member overrides against overloads along each
//     type's base chain (see cmd/pscompat extract).
//
//  2. Load: a [Cache] reads profile files at most once per path and wraps
//     them in query views that resolve command names, aliases and type
//     references.
//
//  3. Union: [Cache.GetOrBuildUnion] merges every profile in a directory
//     into one "anything seen anywhere" profile, reusing the union file on
//     disk while it still matches its constituents.
//
// Command and type references are checked against loaded profiles by Risor
// scripts run through internal/runtime (see cmd/pscompat check).
//
// # Usage
//
//	c := pscompat.NewCache()
//	defer c.Close()
//
//	p, err := c.Load(ctx, "profiles/win10_x64_5.1.json")
//	if err != nil { ... }
//	cmd, ok := p.Runtime().Commands().Lookup("gci")
//	typ, ok := p.Runtime().Types().Resolve("[string[]]")
//
//	u, err := c.GetOrBuildUnion(ctx, "profiles", pscompat.DefaultUnionPattern)
//
// # Errors
//
// Loading reports [ParseError] for malformed documents and version strings,
// [NotFoundError] for missing files and [IOError] for other filesystem
// failures. A union file that no longer matches its constituents is
// replaced silently; [ValidationError] only ever reaches the logger.
package pscompat
