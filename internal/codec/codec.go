// Package codec reads and writes profiles in their JSON wire format.
//
// Unknown fields are ignored on read, missing fields take their zero value
// and a missing ProfileSchemaVersion is taken to be "1.0". Profiles written
// by a newer major schema version are rejected.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/blang/semver/v4"

	"github.com/jward/pscompat/internal/profile"
)

// SupportedMajor is the highest ProfileSchemaVersion major this package reads.
const SupportedMajor = 1

// Opener opens a profile file for reading.
type Opener func(path string) (io.ReadCloser, error)

// OpenFile is the default Opener.
func OpenFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Option configures Encode and WriteFile.
type Option func(*encoder)

type encoder struct {
	indent string
}

// WithIndent writes indented JSON using the given indent per level.
func WithIndent(indent string) Option {
	return func(e *encoder) { e.indent = indent }
}

// Encode writes d to w. A profile with no schema version is written with
// the current one.
func Encode(w io.Writer, d *profile.Data, opts ...Option) error {
	var e encoder
	for _, opt := range opts {
		opt(&e)
	}
	if d.SchemaVersion == "" {
		cp := *d
		cp.SchemaVersion = profile.SchemaVersion
		d = &cp
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if e.indent != "" {
		enc.SetIndent("", e.indent)
	}
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("codec: encode %s: %w", d.ID, err)
	}
	return nil
}

// Decode reads one profile from r.
func Decode(r io.Reader) (*profile.Data, error) {
	return decode(r, "")
}

// DecodeNamed is Decode with path recorded in any returned *ParseError.
func DecodeNamed(r io.Reader, path string) (*profile.Data, error) {
	return decode(r, path)
}

func decode(r io.Reader, path string) (*profile.Data, error) {
	var d profile.Data
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, &profile.ParseError{Path: path, Reason: "invalid profile json", Err: err}
	}
	if err := checkSchema(&d, path); err != nil {
		return nil, err
	}
	return &d, nil
}

func checkSchema(d *profile.Data, path string) error {
	if d.SchemaVersion == "" {
		d.SchemaVersion = profile.SchemaVersion
		return nil
	}
	v, err := semver.ParseTolerant(d.SchemaVersion)
	if err != nil {
		return &profile.ParseError{Path: path, Input: d.SchemaVersion, Reason: "schema version", Err: err}
	}
	if v.Major > SupportedMajor {
		return &profile.ParseError{
			Path:   path,
			Input:  d.SchemaVersion,
			Reason: fmt.Sprintf("unsupported schema major version %d", v.Major),
		}
	}
	return nil
}

// ReadFile loads the profile at path.
func ReadFile(path string) (*profile.Data, error) {
	return ReadFileWith(OpenFile, path)
}

// ReadFileWith loads the profile at path through open. A missing file is
// reported as *profile.NotFoundError and any other open failure as
// *profile.IOError.
func ReadFileWith(open Opener, path string) (*profile.Data, error) {
	rc, err := open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer rc.Close()
	return decode(rc, path)
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &profile.NotFoundError{Path: path}
	}
	return &profile.IOError{Op: "open", Path: path, Err: err}
}

// WriteFile writes d to path, creating parent directories as needed. The
// file is written to a temporary name and renamed into place so readers
// never observe a partial profile.
func WriteFile(path string, d *profile.Data, opts ...Option) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &profile.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &profile.IOError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, d, opts...); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return &profile.IOError{Op: "write", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &profile.IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
