// Package inventory defines the boundary between the type index and whatever
// supplies modules and their types: a host process, a go/packages load, a SCIP
// index, a source tree or a stored snapshot.
//
// Modules and types are opaque handles. The index only needs a module's fully
// qualified identifier and a type's simple name; backends attach whatever else
// they know (qualified names, kinds, reflect.Type values) to their own concrete
// types.
package inventory

import (
	"fmt"
)

// Module is an already-loaded unit of compiled code.
type Module interface {
	// ID is the fully-qualified module identifier used for scope prefix matching.
	ID() string
}

// Type is a handle to a concrete type definition.
type Type interface {
	// Name is the simple, unqualified type name.
	Name() string
}

// Qualified is implemented by types that know their fully-qualified name.
type Qualified interface {
	QualifiedName() string
}

// Versioned is implemented by modules that carry a version.
type Versioned interface {
	ModuleVersion() string
}

// Kinded is implemented by types that can report what kind of type they are
// (struct, interface, class, ...).
type Kinded interface {
	Kind() string
}

// TypeList is the result of enumerating one module's types. Enumeration may
// partially fail: Types holds what loaded, Failures describes what did not.
type TypeList struct {
	Types    []Type
	Failures []error
}

// Partial reports whether any type failed to load.
func (l TypeList) Partial() bool {
	return len(l.Failures) > 0
}

// ModuleSource provides the host's module inventory.
type ModuleSource interface {
	// LoadedModules returns a point-in-time snapshot of all loaded modules in
	// host enumeration order.
	LoadedModules() []Module

	// Types lists the types defined in m. It never fails as a whole; failures
	// are reported per item in the returned list.
	Types(m Module) TypeList
}

// LoadError describes a single item that could not be loaded from a module.
type LoadError struct {
	Module string
	Item   string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("module %s: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("module %s: %s: %v", e.Module, e.Item, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// QualifiedNameOf returns t's qualified name if it has one, its simple name
// otherwise.
func QualifiedNameOf(t Type) string {
	if q, ok := t.(Qualified); ok {
		if name := q.QualifiedName(); name != "" {
			return name
		}
	}
	return t.Name()
}

// KindOf returns t's kind, or "" when the backend does not know it.
func KindOf(t Type) string {
	if k, ok := t.(Kinded); ok {
		return k.Kind()
	}
	return ""
}
