package inventory

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"typeidx/internal/compression"
)

// ManifestVersion is the schema version written by WriteManifest.
const ManifestVersion = 1

// ManifestFile is the on-disk form of a declared inventory. TOML and YAML
// encodings are supported, optionally zstd-compressed.
type ManifestFile struct {
	Version int              `toml:"version" yaml:"version"`
	Modules []ManifestModule `toml:"module" yaml:"modules"`
}

// ManifestModule declares one module and its types in enumeration order.
type ManifestModule struct {
	ID       string         `toml:"id" yaml:"id"`
	Version  string         `toml:"version,omitempty" yaml:"version,omitempty"`
	Types    []ManifestType `toml:"type,omitempty" yaml:"types,omitempty"`
	Failures []string       `toml:"failures,omitempty" yaml:"failures,omitempty"`
}

// ManifestType declares one type.
type ManifestType struct {
	Name      string `toml:"name" yaml:"name"`
	Qualified string `toml:"qualified,omitempty" yaml:"qualified,omitempty"`
	Kind      string `toml:"kind,omitempty" yaml:"kind,omitempty"`
}

type manifestFormat int

const (
	formatTOML manifestFormat = iota
	formatYAML
)

func formatFor(path string) (manifestFormat, error) {
	switch strings.ToLower(filepath.Ext(compression.BaseName(path))) {
	case ".toml":
		return formatTOML, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("unsupported manifest extension: %s", path)
	}
}

// IsManifestPath reports whether path has a manifest extension.
func IsManifestPath(path string) bool {
	_, err := formatFor(path)
	return err == nil
}

// ParseManifest decodes a manifest file from disk.
func ParseManifest(path string) (*ManifestFile, error) {
	format, err := formatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := compression.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var mf ManifestFile
	switch format {
	case formatTOML:
		err = toml.Unmarshal(data, &mf)
	case formatYAML:
		err = yaml.Unmarshal(data, &mf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if mf.Version < 1 {
		mf.Version = 1
	}
	return &mf, nil
}

// LoadManifest parses a manifest into an in-memory inventory.
func LoadManifest(path string) (*Memory, error) {
	mf, err := ParseManifest(path)
	if err != nil {
		return nil, err
	}
	return mf.Memory()
}

// Memory converts the manifest into an in-memory inventory.
func (mf *ManifestFile) Memory() (*Memory, error) {
	mem := NewMemory()
	for i, mod := range mf.Modules {
		if strings.TrimSpace(mod.ID) == "" {
			return nil, fmt.Errorf("manifest module %d is missing required 'id' field", i)
		}
		types := make([]Type, 0, len(mod.Types))
		for j, t := range mod.Types {
			if strings.TrimSpace(t.Name) == "" {
				return nil, fmt.Errorf("manifest module %s: type %d is missing required 'name' field", mod.ID, j)
			}
			qualified := t.Qualified
			if qualified == "" {
				qualified = mod.ID + "." + t.Name
			}
			types = append(types, &Descriptor{
				Simple:    t.Name,
				Qualified: qualified,
				Category:  t.Kind,
				Module:    mod.ID,
			})
		}
		mem.Add(&Unit{Identifier: mod.ID, Version: mod.Version}, types...)
		mem.Fail(mod.ID, mod.Failures...)
	}
	return mem, nil
}

// Capture enumerates every module and type of src into a manifest.
func Capture(src ModuleSource) *ManifestFile {
	mf := &ManifestFile{Version: ManifestVersion}
	for _, mod := range src.LoadedModules() {
		entry := ManifestModule{ID: mod.ID()}
		if v, ok := mod.(Versioned); ok {
			entry.Version = v.ModuleVersion()
		}

		list := src.Types(mod)
		for _, t := range list.Types {
			entry.Types = append(entry.Types, ManifestType{
				Name:      t.Name(),
				Qualified: QualifiedNameOf(t),
				Kind:      KindOf(t),
			})
		}
		for _, f := range list.Failures {
			entry.Failures = append(entry.Failures, failureMessage(mod.ID(), f))
		}
		mf.Modules = append(mf.Modules, entry)
	}
	return mf
}

// failureMessage drops the module prefix a LoadError would add, so that
// captured failures read back unchanged.
func failureMessage(moduleID string, err error) string {
	var le *LoadError
	if errors.As(err, &le) && le.Module == moduleID && le.Item == "" && le.Err != nil {
		return le.Err.Error()
	}
	return err.Error()
}

// WriteManifest captures src and writes it to path. The encoding follows the
// extension; a trailing .zst compresses the output.
func WriteManifest(path string, src ModuleSource) error {
	format, err := formatFor(path)
	if err != nil {
		return err
	}
	mf := Capture(src)

	var data []byte
	switch format {
	case formatTOML:
		data, err = toml.Marshal(mf)
	case formatYAML:
		data, err = yaml.Marshal(mf)
	}
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := compression.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
