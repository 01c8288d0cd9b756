package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"typeidx/internal/logging"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshots", "inventory.db")
	db, err := Create(path, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := setupTestDB(t)

	if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
		t.Fatalf("Database file was not created at %s", db.Path())
	}
	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}

	for _, table := range []string{"meta", "modules", "types", "failures"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestInsertAndRead(t *testing.T) {
	db := setupTestDB(t)

	err := db.WithTx(func(tx *sql.Tx) error {
		if err := InsertModule(tx, ModuleRecord{Ord: 0, ID: "Acme.Core", Version: "1.0.0"}); err != nil {
			return err
		}
		if err := InsertModule(tx, ModuleRecord{Ord: 1, ID: "Acme.Extras"}); err != nil {
			return err
		}
		if err := InsertTypes(tx, []TypeRecord{
			{ModuleOrd: 0, Ord: 1, Name: "Gadget", QualifiedName: "Acme.Core.Gadget"},
			{ModuleOrd: 0, Ord: 0, Name: "Widget", QualifiedName: "Acme.Core.Widget", Kind: "struct"},
		}); err != nil {
			return err
		}
		if err := InsertFailures(tx, []FailureRecord{{ModuleOrd: 1, Ord: 0, Message: "type Broken: bad"}}); err != nil {
			return err
		}
		return SetMeta(tx, "digest", "abc")
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	mods, err := db.Modules()
	if err != nil {
		t.Fatal(err)
	}
	want := []ModuleRecord{{Ord: 0, ID: "Acme.Core", Version: "1.0.0"}, {Ord: 1, ID: "Acme.Extras"}}
	if diff := cmp.Diff(want, mods); diff != "" {
		t.Errorf("Modules() mismatch (-want +got):\n%s", diff)
	}

	types, err := db.Types(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 2 || types[0].Name != "Widget" || types[1].Name != "Gadget" {
		t.Errorf("Types(0) = %+v, want Widget then Gadget", types)
	}

	failures, err := db.Failures(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 || failures[0].Message != "type Broken: bad" {
		t.Errorf("Failures(1) = %+v", failures)
	}

	meta, err := db.Meta()
	if err != nil {
		t.Fatal(err)
	}
	if meta["digest"] != "abc" {
		t.Errorf("Meta() = %v", meta)
	}
}

func TestWithTx_RollsBack(t *testing.T) {
	db := setupTestDB(t)

	err := db.WithTx(func(tx *sql.Tx) error {
		if err := InsertModule(tx, ModuleRecord{Ord: 0, ID: "Acme"}); err != nil {
			return err
		}
		return InsertModule(tx, ModuleRecord{Ord: 1, ID: "Acme"})
	})
	if err == nil {
		t.Fatal("duplicate module id should fail")
	}

	mods, err := db.Modules()
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 0 {
		t.Errorf("rolled back transaction left %d modules", len(mods))
	}
}

func TestOpen(t *testing.T) {
	db := setupTestDB(t)
	path := db.Path()

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	reopened.Close()

	if _, err := Open(filepath.Join(t.TempDir(), "missing.db"), nil); err == nil {
		t.Error("Open() of a missing file should fail")
	}
}

func TestOpen_RejectsForeignDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Exec("CREATE TABLE unrelated (x INTEGER)"); err != nil {
		t.Fatal(err)
	}
	conn.Close()

	_, err = Open(path, nil)
	if err == nil || !strings.Contains(err.Error(), "schema version") {
		t.Errorf("Open() error = %v, want schema version error", err)
	}
}

func TestCreate_ReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	if err := db.WithTx(func(tx *sql.Tx) error {
		return InsertModule(tx, ModuleRecord{Ord: 0, ID: "Old"})
	}); err != nil {
		t.Fatal(err)
	}
	path := db.Path()
	db.Close()

	fresh, err := Create(path, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer fresh.Close()

	mods, err := fresh.Modules()
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 0 {
		t.Errorf("Create() kept %d old modules", len(mods))
	}
}
