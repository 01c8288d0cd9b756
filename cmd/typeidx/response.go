package main

import (
	"typeidx/internal/backends/snapshot"
	"typeidx/internal/inventory"
	"typeidx/internal/lookup"
)

// TypeView is the printable form of a type descriptor.
type TypeView struct {
	Name          string `json:"name" yaml:"name"`
	QualifiedName string `json:"qualifiedName" yaml:"qualifiedName"`
	Kind          string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// ModuleView is the printable form of a module.
type ModuleView struct {
	ID      string `json:"id" yaml:"id"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// LookupResponse is the result of the lookup command. Not finding a type is
// a normal result, not an error.
type LookupResponse struct {
	Name     string        `json:"name" yaml:"name"`
	Scope    string        `json:"scope" yaml:"scope"`
	Found    bool          `json:"found" yaml:"found"`
	Type     *TypeView     `json:"type,omitempty" yaml:"type,omitempty"`
	Explicit []string      `json:"explicitModules,omitempty" yaml:"explicitModules,omitempty"`
	Stats    *lookup.Stats `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// ModulesResponse is the result of the modules command.
type ModulesResponse struct {
	Scope   string       `json:"scope" yaml:"scope"`
	Modules []ModuleView `json:"modules" yaml:"modules"`
}

// SnapshotResponse is the result of the snapshot command.
type SnapshotResponse struct {
	Out     string         `json:"out" yaml:"out"`
	Format  string         `json:"format" yaml:"format"`
	Modules int            `json:"modules" yaml:"modules"`
	Types   int            `json:"types" yaml:"types"`
	Info    *snapshot.Info `json:"info,omitempty" yaml:"info,omitempty"`
}

// VerifyResponse is the result of snapshot verify.
type VerifyResponse struct {
	Path  string        `json:"path" yaml:"path"`
	Valid bool          `json:"valid" yaml:"valid"`
	Info  snapshot.Info `json:"info" yaml:"info"`
}

// ConfigInitResponse is the result of config init.
type ConfigInitResponse struct {
	Path        string `json:"path" yaml:"path"`
	Overwritten bool   `json:"overwritten" yaml:"overwritten"`
}

// VersionResponse is the result of the version command.
type VersionResponse struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
}

func typeView(t inventory.Type) *TypeView {
	if t == nil {
		return nil
	}
	return &TypeView{
		Name:          t.Name(),
		QualifiedName: inventory.QualifiedNameOf(t),
		Kind:          inventory.KindOf(t),
	}
}

func moduleViews(mods []inventory.Module) []ModuleView {
	views := make([]ModuleView, 0, len(mods))
	for _, m := range mods {
		v := ModuleView{ID: m.ID()}
		if ver, ok := m.(inventory.Versioned); ok {
			v.Version = ver.ModuleVersion()
		}
		views = append(views, v)
	}
	return views
}
