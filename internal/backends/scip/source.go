// Package scip serves the type symbols defined in a SCIP index as a
// ModuleSource. A module is the namespace path of a symbol (for scip-go, the
// package import path); its types are the top-level type symbols defined in
// the index's documents.
package scip

import (
	"fmt"
	"path"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"

	"typeidx/internal/backends"
	"typeidx/internal/inventory"
	"typeidx/internal/logging"
)

// Module is a namespace found in the index.
type Module struct {
	Path    string
	Package string
	Version string
}

// ID implements inventory.Module.
func (m *Module) ID() string { return m.Path }

// ModuleVersion implements inventory.Versioned.
func (m *Module) ModuleVersion() string { return m.Version }

// Type is a type symbol.
type Type struct {
	Symbol      string
	Simple      string
	ModulePath  string
	Category    string
	DisplayName string
}

// Name implements inventory.Type.
func (t *Type) Name() string { return t.Simple }

// QualifiedName implements inventory.Qualified.
func (t *Type) QualifiedName() string { return t.ModulePath + "." + t.Simple }

// Kind implements inventory.Kinded.
func (t *Type) Kind() string { return t.Category }

type moduleEntry struct {
	module   *Module
	types    []inventory.Type
	failures []error
}

// Source is an index converted for lookup. It is immutable once built.
type Source struct {
	meta    Metadata
	order   []*moduleEntry
	modules map[string]*moduleEntry
}

// FromIndex converts a decoded index.
func FromIndex(index *scippb.Index, logger *logging.Logger) *Source {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Source{
		meta:    convertMetadata(index.GetMetadata()),
		modules: make(map[string]*moduleEntry),
	}

	seen := make(map[string]bool)
	var types, failures int
	for _, doc := range index.GetDocuments() {
		var bad []*scippb.SymbolInformation
		docModule := ""
		for _, info := range doc.GetSymbols() {
			symbol := info.GetSymbol()
			if symbol == "" || scippb.IsLocalSymbol(symbol) || seen[symbol] {
				continue
			}
			seen[symbol] = true

			parsed, err := scippb.ParseSymbol(symbol)
			if err != nil {
				bad = append(bad, info)
				continue
			}
			mod, name, ok := typeSymbol(parsed)
			if mod == nil {
				continue
			}
			if docModule == "" {
				docModule = mod.Path
			}
			e := s.entry(mod)
			if !ok {
				continue
			}
			e.types = append(e.types, &Type{
				Symbol:      symbol,
				Simple:      name,
				ModulePath:  mod.Path,
				Category:    kindName(info.GetKind()),
				DisplayName: info.GetDisplayName(),
			})
			types++
		}

		if len(bad) > 0 {
			if docModule == "" {
				docModule = path.Dir(doc.GetRelativePath())
			}
			e := s.entry(&Module{Path: docModule})
			for _, info := range bad {
				e.failures = append(e.failures, &inventory.LoadError{
					Module: docModule,
					Item:   info.GetSymbol(),
					Err:    fmt.Errorf("unparseable symbol in %s", doc.GetRelativePath()),
				})
			}
			failures += len(bad)
		}
	}

	logger.Debug("SCIP index converted", map[string]interface{}{
		"tool":     s.meta.Tool,
		"modules":  len(s.order),
		"types":    types,
		"failures": failures,
	})
	return s
}

func (s *Source) entry(mod *Module) *moduleEntry {
	if e, ok := s.modules[mod.Path]; ok {
		return e
	}
	e := &moduleEntry{module: mod}
	s.modules[mod.Path] = e
	s.order = append(s.order, e)
	return e
}

// typeSymbol splits a parsed symbol into its namespace module and, when the
// symbol is a top-level type, the type's name. mod is nil for symbols without
// a usable namespace or package.
func typeSymbol(sym *scippb.Symbol) (mod *Module, name string, ok bool) {
	descriptors := sym.GetDescriptors()
	var namespaces []string
	i := 0
	for ; i < len(descriptors); i++ {
		if descriptors[i].GetSuffix() != scippb.Descriptor_Namespace {
			break
		}
		namespaces = append(namespaces, descriptors[i].GetName())
	}

	pkg := sym.GetPackage()
	modulePath := strings.Join(namespaces, "/")
	if modulePath == "" {
		modulePath = pkg.GetName()
	}
	if modulePath == "" {
		return nil, "", false
	}
	mod = &Module{Path: modulePath, Package: pkg.GetName(), Version: pkg.GetVersion()}

	rest := descriptors[i:]
	if len(rest) != 1 || rest[0].GetSuffix() != scippb.Descriptor_Type || rest[0].GetName() == "" {
		return mod, "", false
	}
	return mod, rest[0].GetName(), true
}

func kindName(k scippb.SymbolInformation_Kind) string {
	if k == scippb.SymbolInformation_UnspecifiedKind {
		return ""
	}
	return strings.ToLower(k.String())
}

// ID implements backends.Backend.
func (s *Source) ID() backends.BackendID { return backends.BackendSCIP }

// Metadata returns what the index says about the indexer that produced it.
func (s *Source) Metadata() Metadata { return s.meta }

// LoadedModules implements inventory.ModuleSource.
func (s *Source) LoadedModules() []inventory.Module {
	out := make([]inventory.Module, 0, len(s.order))
	for _, e := range s.order {
		out = append(out, e.module)
	}
	return out
}

// Types implements inventory.ModuleSource.
func (s *Source) Types(m inventory.Module) inventory.TypeList {
	e, ok := s.modules[m.ID()]
	if !ok {
		return inventory.TypeList{}
	}
	return inventory.TypeList{
		Types:    append([]inventory.Type(nil), e.types...),
		Failures: append([]error(nil), e.failures...),
	}
}
