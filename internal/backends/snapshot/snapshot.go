// Package snapshot stores a complete module inventory in a SQLite database
// and serves it back as a ModuleSource.
package snapshot

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"typeidx/internal/backends"
	"typeidx/internal/errors"
	"typeidx/internal/inventory"
	"typeidx/internal/logging"
	"typeidx/internal/storage"
	"typeidx/internal/version"
)

const (
	metaSnapshotID = "snapshot_id"
	metaDigest     = "digest"
	metaCreatedAt  = "created_at"
	metaTool       = "tool_version"
	metaModules    = "module_count"
	metaTypes      = "type_count"
)

// Info describes a stored snapshot.
type Info struct {
	ID        string    `json:"id" yaml:"id"`
	Digest    string    `json:"digest" yaml:"digest"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Tool      string    `json:"tool,omitempty" yaml:"tool,omitempty"`
	Modules   int       `json:"modules" yaml:"modules"`
	Types     int       `json:"types" yaml:"types"`
	Path      string    `json:"path" yaml:"path"`
}

// Save enumerates src and writes it to a new database at path, replacing
// any existing file. Everything is written in one transaction.
func Save(path string, src inventory.ModuleSource, logger *logging.Logger) (*Info, error) {
	mf := inventory.Capture(src)

	db, err := storage.Create(path, logger)
	if err != nil {
		return nil, errors.NewError(errors.SourceUnavailable, "cannot create snapshot", err, nil)
	}
	defer db.Close()

	info := &Info{
		ID:        uuid.NewString(),
		Digest:    Digest(mf),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Tool:      version.Version,
		Modules:   len(mf.Modules),
		Path:      path,
	}
	for _, m := range mf.Modules {
		info.Types += len(m.Types)
	}

	err = db.WithTx(func(tx *sql.Tx) error {
		for ord, m := range mf.Modules {
			if err := storage.InsertModule(tx, storage.ModuleRecord{Ord: ord, ID: m.ID, Version: m.Version}); err != nil {
				return err
			}
			types := make([]storage.TypeRecord, 0, len(m.Types))
			for i, t := range m.Types {
				types = append(types, storage.TypeRecord{
					ModuleOrd:     ord,
					Ord:           i,
					Name:          t.Name,
					QualifiedName: t.Qualified,
					Kind:          t.Kind,
				})
			}
			if err := storage.InsertTypes(tx, types); err != nil {
				return err
			}
			failures := make([]storage.FailureRecord, 0, len(m.Failures))
			for i, msg := range m.Failures {
				failures = append(failures, storage.FailureRecord{ModuleOrd: ord, Ord: i, Message: msg})
			}
			if err := storage.InsertFailures(tx, failures); err != nil {
				return err
			}
		}
		for k, v := range info.meta() {
			if err := storage.SetMeta(tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewError(errors.InternalError, "failed to write snapshot", err, nil)
	}

	logger.Info("Snapshot written", map[string]interface{}{
		"path":    path,
		"id":      info.ID,
		"modules": info.Modules,
		"types":   info.Types,
	})
	return info, nil
}

func (i *Info) meta() map[string]string {
	return map[string]string{
		metaSnapshotID: i.ID,
		metaDigest:     i.Digest,
		metaCreatedAt:  i.CreatedAt.Format(time.RFC3339),
		metaTool:       i.Tool,
		metaModules:    strconv.Itoa(i.Modules),
		metaTypes:      strconv.Itoa(i.Types),
	}
}

func infoFromMeta(path string, meta map[string]string) (Info, error) {
	info := Info{
		ID:     meta[metaSnapshotID],
		Digest: meta[metaDigest],
		Tool:   meta[metaTool],
		Path:   path,
	}
	if info.ID == "" || info.Digest == "" {
		return info, fmt.Errorf("snapshot metadata is incomplete")
	}
	var err error
	if info.CreatedAt, err = time.Parse(time.RFC3339, meta[metaCreatedAt]); err != nil {
		return info, fmt.Errorf("bad %s: %w", metaCreatedAt, err)
	}
	if info.Modules, err = strconv.Atoi(meta[metaModules]); err != nil {
		return info, fmt.Errorf("bad %s: %w", metaModules, err)
	}
	if info.Types, err = strconv.Atoi(meta[metaTypes]); err != nil {
		return info, fmt.Errorf("bad %s: %w", metaTypes, err)
	}
	return info, nil
}

// Digest returns the hex BLAKE2b-256 digest of a captured inventory. It covers
// module order, type order and failure messages.
func Digest(mf *inventory.ManifestFile) string {
	h, _ := blake2b.New256(nil)
	for _, m := range mf.Modules {
		writeRecord(h, "m", m.ID, m.Version)
		for _, t := range m.Types {
			writeRecord(h, "t", t.Name, t.Qualified, t.Kind)
		}
		for _, f := range m.Failures {
			writeRecord(h, "f", f)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeRecord(w io.Writer, fields ...string) {
	for _, f := range fields {
		_, _ = io.WriteString(w, strconv.Quote(f))
		_, _ = w.Write([]byte{0})
	}
	_, _ = w.Write([]byte{'\n'})
}

var _ backends.Backend = (*Source)(nil)
