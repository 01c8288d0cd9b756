package compression

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestReadWriteFile(t *testing.T) {
	payload := bytes.Repeat([]byte("module = \"Acme.Widgets\"\n"), 200)

	tests := []struct {
		name       string
		file       string
		compressed bool
	}{
		{"plain", "inventory.toml", false},
		{"zstd", "inventory.toml.zst", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := WriteFile(path, payload, 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if tt.compressed == bytes.Equal(raw, payload) {
				t.Errorf("on-disk bytes compressed = %v, want %v", !bytes.Equal(raw, payload), tt.compressed)
			}
			if tt.compressed && len(raw) >= len(payload) {
				t.Errorf("compressed size %d not smaller than %d", len(raw), len(payload))
			}

			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Error("ReadFile() did not return the original payload")
			}
		})
	}
}

func TestReadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml.zst")
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Error("ReadFile() on corrupt frame should fail")
	}
}

func TestBaseName(t *testing.T) {
	if got := BaseName("a/inventory.yaml.zst"); got != "a/inventory.yaml" {
		t.Errorf("BaseName() = %q", got)
	}
	if got := BaseName("index.scip"); got != "index.scip" {
		t.Errorf("BaseName() = %q", got)
	}
	if IsCompressed("index.scip") || !IsCompressed("index.scip.zst") {
		t.Error("IsCompressed() misclassified suffix")
	}
}
