package extract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/jward/pscompat/internal/profile"
)

// Dump is a reflection dump written by a collector running inside
// PowerShell. It implements Source and every optional source interface, so
// profiles can be built on machines without the runtime.
type Dump struct {
	Host             *profile.PlatformData                  `json:"platform,omitempty"`
	LoadedAssemblies []*Assembly                            `json:"assemblies,omitempty"`
	LoadedModules    []*Module                              `json:"modules,omitempty"`
	Accelerators     map[string]string                      `json:"typeAccelerators,omitempty"`
	Common           []*Parameter                           `json:"commonParameters,omitempty"`
	Native           map[string][]profile.NativeCommandData `json:"nativeCommands,omitempty"`
}

var (
	_ Source                = (*Dump)(nil)
	_ PlatformSource        = (*Dump)(nil)
	_ CommonParameterSource = (*Dump)(nil)
	_ NativeCommandSource   = (*Dump)(nil)
)

// ReadDump decodes a dump from r.
func ReadDump(r io.Reader) (*Dump, error) {
	var d Dump
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, &profile.ParseError{Reason: "invalid reflection dump", Err: err}
	}
	return &d, nil
}

// LoadDump reads the dump file at path.
func LoadDump(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &profile.NotFoundError{Path: path}
		}
		return nil, &profile.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	d, err := ReadDump(f)
	if err != nil {
		var pe *profile.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return d, nil
}

func (d *Dump) Assemblies(context.Context) ([]*Assembly, error) { return d.LoadedAssemblies, nil }

func (d *Dump) Modules(context.Context) ([]*Module, error) { return d.LoadedModules, nil }

func (d *Dump) TypeAccelerators(context.Context) (map[string]string, error) {
	return d.Accelerators, nil
}

func (d *Dump) Platform(context.Context) (*profile.PlatformData, error) {
	return d.Host.Clone(), nil
}

func (d *Dump) CommonParameters(context.Context) ([]*Parameter, error) {
	return d.Common, nil
}

func (d *Dump) NativeCommands(context.Context) (map[string][]profile.NativeCommandData, error) {
	return d.Native, nil
}
