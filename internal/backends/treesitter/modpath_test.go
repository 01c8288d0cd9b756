package treesitter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestModulePath(t *testing.T) {
	dir := t.TempDir()
	if _, ok := modulePath(dir); ok {
		t.Error("modulePath() ok without go.mod")
	}
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/acme\n\ngo 1.24\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, ok := modulePath(dir); !ok || got != "example.com/acme" {
		t.Errorf("modulePath() = %q, %v", got, ok)
	}
}

func TestImportPath(t *testing.T) {
	tests := []struct{ module, rel, want string }{
		{"example.com/acme", ".", "example.com/acme"},
		{"example.com/acme", "", "example.com/acme"},
		{"example.com/acme", filepath.Join("core", "parts"), "example.com/acme/core/parts"},
	}
	for _, tt := range tests {
		if got := importPath(tt.module, tt.rel); got != tt.want {
			t.Errorf("importPath(%q, %q) = %q, want %q", tt.module, tt.rel, got, tt.want)
		}
	}
}

func TestSourceFile(t *testing.T) {
	for name, want := range map[string]bool{
		"widget.go":      true,
		"widget_test.go": false,
		"README.md":      false,
	} {
		if got := sourceFile(name); got != want {
			t.Errorf("sourceFile(%q) = %v, want %v", name, got, want)
		}
	}
}
