package snapshot

import (
	"fmt"

	"typeidx/internal/backends"
	"typeidx/internal/errors"
	"typeidx/internal/inventory"
	"typeidx/internal/logging"
	"typeidx/internal/storage"
)

// Source serves a stored snapshot. The module list is read once at Open;
// types are read from the database on each Types call.
type Source struct {
	db      *storage.DB
	logger  *logging.Logger
	info    Info
	modules []inventory.Module
	byID    map[string]*module
}

type module struct {
	inventory.Unit
	ord int
}

// Open opens the snapshot at path.
func Open(path string, logger *logging.Logger) (*Source, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	db, err := storage.Open(path, logger)
	if err != nil {
		return nil, errors.NewError(errors.SourceUnavailable, "cannot open snapshot", err,
			errors.GetSuggestedFixes(errors.SnapshotInvalid))
	}

	s, err := load(db, logger)
	if err != nil {
		db.Close()
		return nil, errors.NewError(errors.SnapshotInvalid, "snapshot is unreadable", err,
			errors.GetSuggestedFixes(errors.SnapshotInvalid))
	}
	return s, nil
}

func load(db *storage.DB, logger *logging.Logger) (*Source, error) {
	meta, err := db.Meta()
	if err != nil {
		return nil, err
	}
	info, err := infoFromMeta(db.Path(), meta)
	if err != nil {
		return nil, err
	}
	records, err := db.Modules()
	if err != nil {
		return nil, err
	}
	if len(records) != info.Modules {
		return nil, fmt.Errorf("snapshot lists %d modules, metadata says %d", len(records), info.Modules)
	}

	s := &Source{
		db:      db,
		logger:  logger,
		info:    info,
		modules: make([]inventory.Module, 0, len(records)),
		byID:    make(map[string]*module, len(records)),
	}
	for _, r := range records {
		m := &module{Unit: inventory.Unit{Identifier: r.ID, Version: r.Version}, ord: r.Ord}
		s.modules = append(s.modules, m)
		s.byID[r.ID] = m
	}
	logger.Debug("Snapshot opened", map[string]interface{}{
		"path":    info.Path,
		"id":      info.ID,
		"modules": info.Modules,
	})
	return s, nil
}

// ID implements backends.Backend.
func (s *Source) ID() backends.BackendID { return backends.BackendSnapshot }

// Info returns the snapshot's metadata.
func (s *Source) Info() Info { return s.info }

// LoadedModules implements inventory.ModuleSource.
func (s *Source) LoadedModules() []inventory.Module {
	out := make([]inventory.Module, len(s.modules))
	copy(out, s.modules)
	return out
}

// Types implements inventory.ModuleSource. Database errors are reported as
// failures of the module.
func (s *Source) Types(m inventory.Module) inventory.TypeList {
	mod, ok := s.byID[m.ID()]
	if !ok {
		return inventory.TypeList{}
	}

	var list inventory.TypeList
	records, err := s.db.Types(mod.ord)
	if err != nil {
		list.Failures = append(list.Failures, &inventory.LoadError{Module: mod.Identifier, Err: err})
	}
	for _, r := range records {
		list.Types = append(list.Types, &inventory.Descriptor{
			Simple:    r.Name,
			Qualified: r.QualifiedName,
			Category:  r.Kind,
			Module:    mod.Identifier,
		})
	}

	failures, err := s.db.Failures(mod.ord)
	if err != nil {
		list.Failures = append(list.Failures, &inventory.LoadError{Module: mod.Identifier, Err: err})
	}
	for _, f := range failures {
		list.Failures = append(list.Failures, &inventory.LoadError{
			Module: mod.Identifier,
			Err:    fmt.Errorf("%s", f.Message),
		})
	}
	return list
}

// Verify recomputes the content digest and compares it with the stored one.
func (s *Source) Verify() error {
	got := Digest(inventory.Capture(s))
	if got != s.info.Digest {
		return errors.NewError(errors.SnapshotInvalid,
			fmt.Sprintf("snapshot digest mismatch: stored %s, computed %s", s.info.Digest, got), nil,
			errors.GetSuggestedFixes(errors.SnapshotInvalid))
	}
	return nil
}

// Close closes the underlying database.
func (s *Source) Close() error {
	return s.db.Close()
}
