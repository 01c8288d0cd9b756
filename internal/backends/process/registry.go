// Package process exposes types registered by the running program as a
// ModuleSource. Go keeps no runtime list of defined types, so programs
// register the types they want to be discoverable; each Go package path is
// one module.
package process

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"
	"sync"

	"typeidx/internal/backends"
	"typeidx/internal/inventory"
)

// Type is a registered Go type.
type Type struct {
	rt reflect.Type
}

// Name implements inventory.Type.
func (t *Type) Name() string { return t.rt.Name() }

// QualifiedName implements inventory.Qualified.
func (t *Type) QualifiedName() string { return t.rt.PkgPath() + "." + t.rt.Name() }

// Kind implements inventory.Kinded.
func (t *Type) Kind() string { return t.rt.Kind().String() }

// Reflect returns the underlying reflect.Type.
func (t *Type) Reflect() reflect.Type { return t.rt }

// Package is one Go package path with at least one registered type.
type Package struct {
	Path    string
	Version string
}

// ID implements inventory.Module.
func (p *Package) ID() string { return p.Path }

// ModuleVersion implements inventory.Versioned.
func (p *Package) ModuleVersion() string { return p.Version }

// Loader produces types for a package on demand.
type Loader func() ([]reflect.Type, error)

type entry struct {
	pkg     *Package
	types   []inventory.Type
	seen    map[reflect.Type]bool
	loaders []Loader
}

// Registry is a process-local ModuleSource. Packages are enumerated in the
// order their first type was registered. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	order   []*entry
	entries map[string]*entry
	build   *debug.BuildInfo
}

// NewRegistry creates an empty registry. Package versions come from the
// binary's build information when it is available.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]*entry)}
	if info, ok := debug.ReadBuildInfo(); ok {
		r.build = info
	}
	return r
}

// Register adds the given types. Pointer types register their element type.
// Only named, package-level types can be registered.
func (r *Registry) Register(types ...reflect.Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range types {
		rt, err := named(rt)
		if err != nil {
			return err
		}
		e := r.entryLocked(rt.PkgPath())
		if !e.seen[rt] {
			e.seen[rt] = true
			e.types = append(e.types, &Type{rt: rt})
		}
	}
	return nil
}

// RegisterValues registers the dynamic type of each value.
func (r *Registry) RegisterValues(values ...interface{}) error {
	types := make([]reflect.Type, 0, len(values))
	for _, v := range values {
		types = append(types, reflect.TypeOf(v))
	}
	return r.Register(types...)
}

// RegisterLazy attaches a loader to pkgPath. Loaders run every time the
// package's types are listed; types they return that cannot be registered,
// and any error they return, are reported as load failures of the package.
func (r *Registry) RegisterLazy(pkgPath string, load Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(pkgPath)
	e.loaders = append(e.loaders, load)
}

func (r *Registry) entryLocked(pkgPath string) *entry {
	if e, ok := r.entries[pkgPath]; ok {
		return e
	}
	e := &entry{
		pkg:  &Package{Path: pkgPath, Version: r.versionOf(pkgPath)},
		seen: make(map[reflect.Type]bool),
	}
	r.entries[pkgPath] = e
	r.order = append(r.order, e)
	return e
}

// versionOf finds the build-info module that provides pkgPath, preferring the
// longest matching module path.
func (r *Registry) versionOf(pkgPath string) string {
	if r.build == nil {
		return ""
	}
	best, version := "", ""
	consider := func(m *debug.Module) {
		if m == nil || m.Path == "" {
			return
		}
		if pkgPath == m.Path || strings.HasPrefix(pkgPath, m.Path+"/") {
			if len(m.Path) > len(best) {
				best, version = m.Path, m.Version
				if m.Replace != nil && m.Replace.Version != "" {
					version = m.Replace.Version
				}
			}
		}
	}
	consider(&r.build.Main)
	for _, dep := range r.build.Deps {
		consider(dep)
	}
	return version
}

func named(rt reflect.Type) (reflect.Type, error) {
	if rt == nil {
		return nil, fmt.Errorf("cannot register nil type")
	}
	for rt.Kind() == reflect.Pointer && rt.Name() == "" {
		rt = rt.Elem()
	}
	if rt.Name() == "" || rt.PkgPath() == "" {
		return nil, fmt.Errorf("cannot register %s: only named package-level types are supported", rt)
	}
	return rt, nil
}

// ID implements backends.Backend.
func (r *Registry) ID() backends.BackendID { return backends.BackendSelf }

// LoadedModules implements inventory.ModuleSource.
func (r *Registry) LoadedModules() []inventory.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]inventory.Module, 0, len(r.order))
	for _, e := range r.order {
		out = append(out, e.pkg)
	}
	return out
}

// Types implements inventory.ModuleSource.
func (r *Registry) Types(m inventory.Module) inventory.TypeList {
	r.mu.RLock()
	e, ok := r.entries[m.ID()]
	var list inventory.TypeList
	var loaders []Loader
	if ok {
		list.Types = append(list.Types, e.types...)
		loaders = append(loaders, e.loaders...)
	}
	r.mu.RUnlock()

	for _, load := range loaders {
		types, err := load()
		if err != nil {
			list.Failures = append(list.Failures, &inventory.LoadError{Module: m.ID(), Err: err})
		}
		for _, rt := range types {
			rt, err := named(rt)
			if err == nil && rt.PkgPath() != m.ID() {
				err = fmt.Errorf("type %s belongs to package %s", rt, rt.PkgPath())
			}
			if err != nil {
				list.Failures = append(list.Failures, &inventory.LoadError{Module: m.ID(), Err: err})
				continue
			}
			list.Types = append(list.Types, &Type{rt: rt})
		}
	}
	return list
}

// Default is the registry used by the package-level helpers.
var Default = NewRegistry()

// Register adds T to the Default registry.
func Register[T any]() error {
	return Default.Register(reflect.TypeFor[T]())
}
