// Package scripts holds the built-in compatibility check scripts.
package scripts

import (
	"embed"
	"io/fs"
)

//go:embed checks/*.risor
var checks embed.FS

// Checks returns the built-in check scripts, one .risor file per check at
// the root of the returned FS.
func Checks() fs.FS {
	sub, err := fs.Sub(checks, "checks")
	if err != nil {
		panic(err)
	}
	return sub
}
