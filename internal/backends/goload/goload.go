// Package goload loads Go packages with golang.org/x/tools/go/packages and
// serves their package-scope type names as a ModuleSource. Each loaded
// package is one module, identified by its import path.
package goload

import (
	"context"
	"fmt"
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"

	"typeidx/internal/backends"
	"typeidx/internal/errors"
	"typeidx/internal/inventory"
	"typeidx/internal/logging"
)

const loadMode = packages.NeedName | packages.NeedModule | packages.NeedTypes |
	packages.NeedSyntax | packages.NeedTypesInfo

// Package is a loaded Go package.
type Package struct {
	Path    string
	Dir     string
	Version string

	pkg *packages.Package
}

// ID implements inventory.Module.
func (p *Package) ID() string { return p.Path }

// ModuleVersion implements inventory.Versioned.
func (p *Package) ModuleVersion() string { return p.Version }

// Type is a package-scope type name.
type Type struct {
	obj *types.TypeName
}

// Name implements inventory.Type.
func (t *Type) Name() string { return t.obj.Name() }

// QualifiedName implements inventory.Qualified.
func (t *Type) QualifiedName() string { return t.obj.Pkg().Path() + "." + t.obj.Name() }

// Kind implements inventory.Kinded.
func (t *Type) Kind() string {
	if t.obj.IsAlias() {
		return "alias"
	}
	switch t.obj.Type().Underlying().(type) {
	case *types.Struct:
		return "struct"
	case *types.Interface:
		return "interface"
	case *types.Signature:
		return "func"
	case *types.Map:
		return "map"
	case *types.Slice, *types.Array:
		return "slice"
	case *types.Basic:
		return "basic"
	default:
		return "other"
	}
}

// Object returns the type-checker object for the type.
func (t *Type) Object() *types.TypeName { return t.obj }

// Source is the result of one packages.Load call.
type Source struct {
	pkgs   []*Package
	byPath map[string]*Package
	logger *logging.Logger
}

// Load loads patterns relative to dir. Packages are enumerated in import
// path order.
func Load(ctx context.Context, dir string, patterns []string, logger *logging.Logger) (*Source, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     dir,
		Tests:   false,
	}
	loaded, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, errors.NewError(errors.SourceUnavailable,
			fmt.Sprintf("cannot load Go packages %v in %s", patterns, dir), err, nil)
	}

	sort.Slice(loaded, func(i, j int) bool { return loaded[i].PkgPath < loaded[j].PkgPath })

	s := &Source{byPath: make(map[string]*Package, len(loaded)), logger: logger}
	for _, p := range loaded {
		if p.PkgPath == "" {
			continue
		}
		pkg := &Package{Path: p.PkgPath, Dir: dir, pkg: p}
		if p.Module != nil {
			pkg.Version = p.Module.Version
			pkg.Dir = p.Module.Dir
		}
		s.pkgs = append(s.pkgs, pkg)
		s.byPath[p.PkgPath] = pkg
	}

	logger.Debug("Go packages loaded", map[string]interface{}{
		"dir":      dir,
		"patterns": patterns,
		"packages": len(s.pkgs),
	})
	return s, nil
}

// ID implements backends.Backend.
func (s *Source) ID() backends.BackendID { return backends.BackendPackages }

// LoadedModules implements inventory.ModuleSource.
func (s *Source) LoadedModules() []inventory.Module {
	out := make([]inventory.Module, 0, len(s.pkgs))
	for _, p := range s.pkgs {
		out = append(out, p)
	}
	return out
}

// Types implements inventory.ModuleSource. Types are listed in declaration
// order. Package errors are reported as failures alongside whatever the type
// checker still managed to produce.
func (s *Source) Types(m inventory.Module) inventory.TypeList {
	var list inventory.TypeList
	p, ok := s.byPath[m.ID()]
	if !ok {
		return list
	}

	for _, e := range p.pkg.Errors {
		list.Failures = append(list.Failures, &inventory.LoadError{Module: p.Path, Err: e})
	}
	if p.pkg.Types == nil {
		return list
	}

	scope := p.pkg.Types.Scope()
	var objs []*types.TypeName
	for _, name := range scope.Names() {
		if tn, ok := scope.Lookup(name).(*types.TypeName); ok {
			objs = append(objs, tn)
		}
	}
	sort.SliceStable(objs, func(i, j int) bool { return objs[i].Pos() < objs[j].Pos() })
	for _, tn := range objs {
		list.Types = append(list.Types, &Type{obj: tn})
	}
	return list
}
