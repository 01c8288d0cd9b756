// Package backends holds what the module source implementations share: the
// identifiers used to select them and a Chain that overlays several sources
// into one inventory.
package backends

import (
	"errors"
	"io"

	"typeidx/internal/inventory"
)

// BackendID uniquely identifies a backend type
type BackendID string

const (
	// BackendManifest reads a declared TOML or YAML inventory
	BackendManifest BackendID = "manifest"
	// BackendSnapshot reads a stored SQLite snapshot
	BackendSnapshot BackendID = "snapshot"
	// BackendSCIP reads a SCIP index
	BackendSCIP BackendID = "scip"
	// BackendPackages loads Go packages with go/packages
	BackendPackages BackendID = "packages"
	// BackendTreeSitter parses a Go source tree
	BackendTreeSitter BackendID = "treesitter"
	// BackendSelf reflects over types registered in the running process
	BackendSelf BackendID = "self"
)

// Backend is a ModuleSource that knows which kind of backend it is.
type Backend interface {
	inventory.ModuleSource

	// ID returns the unique identifier for this backend
	ID() BackendID
}

// Close closes src if it holds resources.
func Close(src inventory.ModuleSource) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// CloseAll closes every source that holds resources and joins the errors.
func CloseAll(srcs ...inventory.ModuleSource) error {
	var errs []error
	for _, src := range srcs {
		if err := Close(src); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
