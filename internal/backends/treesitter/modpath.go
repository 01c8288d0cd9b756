// Package treesitter parses a Go source tree with tree-sitter and serves the
// package-level type declarations it finds as a ModuleSource. Each directory
// holding non-test Go files is one module, named by the enclosing go.mod
// module path and the directory's path below it.
package treesitter

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// modulePath reads the module path declared by dir/go.mod. ok is false when
// there is no go.mod or it declares no module.
func modulePath(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", false
	}
	mp := modfile.ModulePath(data)
	return mp, mp != ""
}

// importPath joins a module path and a slash-separated relative directory.
func importPath(module, rel string) string {
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return module
	}
	return path.Join(module, rel)
}

// skipDir reports directories the go tool ignores.
func skipDir(d fs.DirEntry) bool {
	name := d.Name()
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "testdata" || name == "vendor"
}

// sourceFile reports whether name is a non-test Go source file.
func sourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}
