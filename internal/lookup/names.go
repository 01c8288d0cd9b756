package lookup

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"typeidx/internal/errors"
)

// folders holds Casers for reuse; a Caser must not be shared between
// goroutines.
var folders = sync.Pool{
	New: func() interface{} { return cases.Fold() },
}

// foldName returns the case-folded form of a simple type name. Index keys and
// negative cache keys are always folded. Folding is full Unicode folding, so
// "Straße" and "STRASSE" share a key.
func foldName(name string) string {
	c := folders.Get().(cases.Caser)
	defer folders.Put(c)
	return c.String(name)
}

func requireScope(scope string) error {
	if strings.TrimSpace(scope) == "" {
		return errors.Invalid("scopeName", "scope name must not be empty or whitespace")
	}
	return nil
}

func requireClassName(className string) error {
	if strings.TrimSpace(className) == "" {
		return errors.Invalid("className", "type name must not be empty or whitespace")
	}
	return nil
}
