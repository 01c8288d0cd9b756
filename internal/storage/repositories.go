package storage

import (
	"database/sql"
	"fmt"
)

// ModuleRecord is a row of the modules table
type ModuleRecord struct {
	Ord     int
	ID      string
	Version string
}

// TypeRecord is a row of the types table
type TypeRecord struct {
	ModuleOrd     int
	Ord           int
	Name          string
	QualifiedName string
	Kind          string
}

// FailureRecord is a row of the failures table
type FailureRecord struct {
	ModuleOrd int
	Ord       int
	Message   string
}

// InsertModule inserts a module row
func InsertModule(tx *sql.Tx, m ModuleRecord) error {
	_, err := tx.Exec(`
		INSERT INTO modules (ord, module_id, version) VALUES (?, ?, ?)
	`, m.Ord, m.ID, m.Version)
	if err != nil {
		return fmt.Errorf("failed to insert module %s: %w", m.ID, err)
	}
	return nil
}

// InsertTypes inserts type rows with a single prepared statement
func InsertTypes(tx *sql.Tx, types []TypeRecord) error {
	if len(types) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO types (module_ord, ord, name, qualified_name, kind) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare type insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range types {
		if _, err := stmt.Exec(t.ModuleOrd, t.Ord, t.Name, t.QualifiedName, t.Kind); err != nil {
			return fmt.Errorf("failed to insert type %s: %w", t.Name, err)
		}
	}
	return nil
}

// InsertFailures inserts failure rows
func InsertFailures(tx *sql.Tx, failures []FailureRecord) error {
	for _, f := range failures {
		if _, err := tx.Exec(`
			INSERT INTO failures (module_ord, ord, message) VALUES (?, ?, ?)
		`, f.ModuleOrd, f.Ord, f.Message); err != nil {
			return fmt.Errorf("failed to insert failure: %w", err)
		}
	}
	return nil
}

// SetMeta upserts a meta key
func SetMeta(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

// Meta returns all meta entries
func (db *DB) Meta() (map[string]string, error) {
	rows, err := db.Query("SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("failed to query meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan meta: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meta: %w", err)
	}
	return meta, nil
}

// Modules returns all modules in enumeration order
func (db *DB) Modules() ([]ModuleRecord, error) {
	rows, err := db.Query("SELECT ord, module_id, version FROM modules ORDER BY ord")
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	var mods []ModuleRecord
	for rows.Next() {
		var m ModuleRecord
		if err := rows.Scan(&m.Ord, &m.ID, &m.Version); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		mods = append(mods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating modules: %w", err)
	}
	return mods, nil
}

// Types returns the types of one module in enumeration order
func (db *DB) Types(moduleOrd int) ([]TypeRecord, error) {
	rows, err := db.Query(`
		SELECT module_ord, ord, name, qualified_name, kind
		FROM types
		WHERE module_ord = ?
		ORDER BY ord
	`, moduleOrd)
	if err != nil {
		return nil, fmt.Errorf("failed to query types: %w", err)
	}
	defer rows.Close()

	var types []TypeRecord
	for rows.Next() {
		var t TypeRecord
		if err := rows.Scan(&t.ModuleOrd, &t.Ord, &t.Name, &t.QualifiedName, &t.Kind); err != nil {
			return nil, fmt.Errorf("failed to scan type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating types: %w", err)
	}
	return types, nil
}

// Failures returns the recorded load failures of one module
func (db *DB) Failures(moduleOrd int) ([]FailureRecord, error) {
	rows, err := db.Query(`
		SELECT module_ord, ord, message FROM failures WHERE module_ord = ? ORDER BY ord
	`, moduleOrd)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var failures []FailureRecord
	for rows.Next() {
		var f FailureRecord
		if err := rows.Scan(&f.ModuleOrd, &f.Ord, &f.Message); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating failures: %w", err)
	}
	return failures, nil
}
