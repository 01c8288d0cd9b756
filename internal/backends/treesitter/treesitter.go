//go:build cgo

package treesitter

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"typeidx/internal/backends"
	"typeidx/internal/errors"
	"typeidx/internal/inventory"
	"typeidx/internal/logging"
)

// Source is a parsed source tree.
type Source struct {
	*inventory.Memory
	root string
}

// ID implements backends.Backend.
func (s *Source) ID() backends.BackendID { return backends.BackendTreeSitter }

// Root returns the scanned directory.
func (s *Source) Root() string { return s.root }

// Available reports whether tree-sitter parsing is compiled in.
func Available() bool { return true }

// Scan walks root in lexical order and parses every non-test Go file.
// Files that cannot be read, and files with syntax errors, are reported as
// failures of their directory's module; declarations tree-sitter could still
// recover are kept.
func Scan(ctx context.Context, root string, logger *logging.Logger) (*Source, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.NewError(errors.SourceUnavailable,
			fmt.Sprintf("source tree not found at %s", root), err, nil)
	}

	rootModule, ok := modulePath(root)
	if !ok {
		rootModule = filepath.Base(root)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	mem := inventory.NewMemory()
	// moduleRoots maps directories holding a go.mod to their module path.
	moduleRoots := map[string]string{root: rootModule}
	var files, failures int

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			mod := moduleFor(moduleRoots, root, filepath.Dir(p))
			mem.Add(inventory.NewUnit(mod))
			mem.Fail(mod, walkErr.Error())
			failures++
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != root {
				if skipDir(d) {
					return filepath.SkipDir
				}
				if mp, ok := modulePath(p); ok {
					moduleRoots[p] = mp
				}
			}
			return nil
		}
		if !sourceFile(d.Name()) {
			return nil
		}

		mod := moduleFor(moduleRoots, root, filepath.Dir(p))
		files++
		types, err := parseFile(ctx, parser, p, mod)
		mem.Add(inventory.NewUnit(mod), types...)
		if err != nil {
			mem.Fail(mod, err.Error())
			failures++
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewError(errors.SourceUnavailable,
			fmt.Sprintf("scan of %s aborted", root), err, nil)
	}

	logger.Debug("Source tree parsed", map[string]interface{}{
		"root":     root,
		"files":    files,
		"modules":  len(mem.LoadedModules()),
		"failures": failures,
	})
	return &Source{Memory: mem, root: root}, nil
}

// moduleFor names the module of dir: the nearest enclosing go.mod module
// path joined with dir's path below that go.mod.
func moduleFor(moduleRoots map[string]string, root, dir string) string {
	for d := dir; ; d = filepath.Dir(d) {
		if mp, ok := moduleRoots[d]; ok {
			rel, err := filepath.Rel(d, dir)
			if err != nil {
				return mp
			}
			return importPath(mp, rel)
		}
		if d == filepath.Dir(d) {
			return moduleRoots[root]
		}
	}
}

// parseFile returns the package-level types declared in file. A non-nil
// error means the file could not be read or contains syntax errors.
func parseFile(ctx context.Context, parser *sitter.Parser, file, module string) ([]inventory.Type, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(file), err)
	}
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(file), err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var types []inventory.Type
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		if decl.Type() != "type_declaration" {
			continue
		}
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			spec := decl.NamedChild(j)
			if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
				continue
			}
			name := spec.ChildByFieldName("name")
			if name == nil {
				continue
			}
			types = append(types, &inventory.Descriptor{
				Simple:    name.Content(src),
				Qualified: module + "." + name.Content(src),
				Category:  specKind(spec),
				Module:    module,
			})
		}
	}

	if root.HasError() {
		return types, fmt.Errorf("syntax errors in %s", filepath.Base(file))
	}
	return types, nil
}

func specKind(spec *sitter.Node) string {
	if spec.Type() == "type_alias" {
		return "alias"
	}
	t := spec.ChildByFieldName("type")
	if t == nil {
		return ""
	}
	switch t.Type() {
	case "struct_type":
		return "struct"
	case "interface_type":
		return "interface"
	case "function_type":
		return "func"
	case "map_type":
		return "map"
	case "slice_type", "array_type":
		return "slice"
	default:
		return "named"
	}
}
