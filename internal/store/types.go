package store

import (
	"time"

	"github.com/jward/pscompat/internal/profile"
)

// Profile is the catalog summary of one profile file.
type Profile struct {
	ID            string
	Path          string
	SchemaVersion string
	OSFamily      string
	OSName        string
	Architecture  string
	PSVersion     string
	PSEdition     string
	DotnetRuntime string
	Union         bool
	ModuleCount   int
	CommandCount  int
	TypeCount     int
	LoadedAt      time.Time

	// Constituents is set for union profiles only, sorted.
	Constituents []string
}

// Summarize builds the catalog record for d, loaded from path at loadedAt.
func Summarize(path string, d *profile.Data, loadedAt time.Time) *Profile {
	p := &Profile{
		ID:            d.ID,
		Path:          path,
		SchemaVersion: d.SchemaVersion,
		Union:         d.IsUnion(),
		LoadedAt:      loadedAt,
	}
	if p.Union {
		p.Constituents = profile.SortedIDs(d.ConstituentIDs)
	}
	if pl := d.Platform; pl != nil {
		if os := pl.OperatingSystem; os != nil {
			p.OSFamily = os.Family.String()
			p.OSName = os.Name
			p.Architecture = os.Architecture.String()
		}
		if ps := pl.PowerShell; ps != nil {
			if ps.Version != nil {
				p.PSVersion = ps.Version.String()
			}
			p.PSEdition = ps.Edition
		}
		if pl.Dotnet != nil {
			p.DotnetRuntime = pl.Dotnet.Runtime.String()
		}
	}
	if rt := d.Runtime; rt != nil {
		for _, versions := range rt.Modules.All() {
			for _, m := range versions {
				p.ModuleCount++
				if m != nil {
					p.CommandCount += m.Cmdlets.Len() + m.Functions.Len()
				}
			}
		}
		if rt.Types != nil {
			for _, asm := range rt.Types.Assemblies.All() {
				if asm == nil {
					continue
				}
				for _, types := range asm.Types.All() {
					p.TypeCount += types.Len()
				}
			}
		}
	}
	return p
}
