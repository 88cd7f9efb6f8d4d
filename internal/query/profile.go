// Package query wraps raw profiles in read-only views with lookup indexes.
//
// Indexes are derived on first use and kept for the life of the view. Views
// may be shared between goroutines; the profile they wrap must not be
// mutated afterwards.
package query

import (
	"sync"

	"github.com/jward/pscompat/internal/profile"
)

// Profile is a read view over one profile.
type Profile struct {
	data    *profile.Data
	runtime *Runtime
}

// New returns a view over d.
func New(d *profile.Data) *Profile {
	return &Profile{data: d, runtime: newRuntime(d.Runtime)}
}

// Data returns the wrapped profile.
func (p *Profile) Data() *profile.Data { return p.data }

// ID returns the profile id.
func (p *Profile) ID() string { return p.data.ID }

// Platform returns the platform description, nil for the any-platform union.
func (p *Profile) Platform() *profile.PlatformData { return p.data.Platform }

// Runtime returns the runtime view.
func (p *Profile) Runtime() *Runtime { return p.runtime }

// Runtime is a read view over the runtime section of a profile.
type Runtime struct {
	data *profile.RuntimeData

	typesOnce sync.Once
	types     *Types

	commandsOnce sync.Once
	commands     *Commands
}

func newRuntime(d *profile.RuntimeData) *Runtime {
	if d == nil {
		d = &profile.RuntimeData{}
	}
	return &Runtime{data: d}
}

// Data returns the wrapped runtime record.
func (r *Runtime) Data() *profile.RuntimeData { return r.data }

// Types returns the type view.
func (r *Runtime) Types() *Types {
	r.typesOnce.Do(func() { r.types = newTypes(r.data.Types) })
	return r.types
}

// Commands returns the command view.
func (r *Runtime) Commands() *Commands {
	r.commandsOnce.Do(func() { r.commands = newCommands(r.data) })
	return r.commands
}

// NativeCommands returns the executables known under name.
func (r *Runtime) NativeCommands(name string) ([]profile.NativeCommandData, bool) {
	return r.data.NativeCommands.Get(name)
}

// Module returns every loaded version of the named module.
func (r *Runtime) Module(name string) (map[string]*profile.ModuleData, bool) {
	return r.data.Modules.Get(name)
}
