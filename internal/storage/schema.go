package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createMetaTable(tx); err != nil {
			return err
		}
		if err := createModulesTable(tx); err != nil {
			return err
		}
		if err := createTypesTable(tx); err != nil {
			return err
		}
		if err := createFailuresTable(tx); err != nil {
			return err
		}

		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Debug("Snapshot schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})
		return nil
	})
}

// checkSchema rejects databases written by a different schema version
func (db *DB) checkSchema() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != currentSchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d (want %d)", version, currentSchemaVersion)
	}
	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("DELETE FROM schema_version")
	if err != nil {
		return err
	}
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

func createMetaTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}
	return nil
}

// createModulesTable creates the modules table. ord preserves enumeration order.
func createModulesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS modules (
			ord INTEGER PRIMARY KEY,
			module_id TEXT NOT NULL UNIQUE,
			version TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create modules table: %w", err)
	}
	return nil
}

func createTypesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS types (
			module_ord INTEGER NOT NULL,
			ord INTEGER NOT NULL,
			name TEXT NOT NULL,
			qualified_name TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT '',

			PRIMARY KEY (module_ord, ord),
			FOREIGN KEY (module_ord) REFERENCES modules(ord) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create types table: %w", err)
	}

	if _, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_types_name ON types(name)"); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

func createFailuresTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS failures (
			module_ord INTEGER NOT NULL,
			ord INTEGER NOT NULL,
			message TEXT NOT NULL,

			PRIMARY KEY (module_ord, ord),
			FOREIGN KEY (module_ord) REFERENCES modules(ord) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create failures table: %w", err)
	}
	return nil
}
