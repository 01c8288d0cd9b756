//go:build !cgo

package treesitter

import (
	"context"

	"typeidx/internal/backends"
	"typeidx/internal/errors"
	"typeidx/internal/inventory"
	"typeidx/internal/logging"
)

// Source is a parsed source tree.
// This stub is used when CGO is not available.
type Source struct {
	*inventory.Memory
	root string
}

// ID implements backends.Backend.
func (s *Source) ID() backends.BackendID { return backends.BackendTreeSitter }

// Root returns the scanned directory.
func (s *Source) Root() string { return s.root }

// Available reports whether tree-sitter parsing is compiled in.
func Available() bool { return false }

// Scan always fails when CGO is not available.
func Scan(ctx context.Context, root string, logger *logging.Logger) (*Source, error) {
	return nil, errors.NewError(errors.SourceUnavailable,
		"tree-sitter source scanning requires a cgo-enabled build", nil, nil)
}
