package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"typeidx/internal/backends/snapshot"
	"typeidx/internal/compression"
	"typeidx/internal/errors"
	"typeidx/internal/inventory"
	"typeidx/internal/logging"
)

var snapshotOut string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write the configured source to a snapshot or manifest",
	Long: `Enumerate every module and type of the configured source and store them.

The output format follows the file extension: .db or .sqlite writes a SQLite
snapshot, .toml, .yaml or .yml writes a manifest. A trailing .zst compresses
a manifest.

Examples:
  typeidx snapshot --source packages --path . --out .typeidx/inventory.db
  typeidx snapshot --source scip --path index.scip --out inventory.toml.zst`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

var snapshotVerifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Check a snapshot against its recorded digest",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotVerify,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotOut, "out", "", "Output file (.db, .sqlite, .toml, .yaml, optionally .zst)")
	_ = snapshotCmd.MarkFlagRequired("out")

	snapshotCmd.AddCommand(snapshotVerifyCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(configFlag, flagOverrides())
	if err != nil {
		return err
	}
	logger := newLogger(s.cfg)
	eng, err := newEngine(cmd.Context(), s, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	resp, err := writeSnapshot(snapshotOut, eng.source, logger)
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

// writeSnapshot stores src at out in the format its extension names.
func writeSnapshot(out string, src inventory.ModuleSource, logger *logging.Logger) (*SnapshotResponse, error) {
	if inventory.IsManifestPath(out) {
		mem, err := inventory.Capture(src).Memory()
		if err != nil {
			return nil, errors.NewError(errors.InternalError, "cannot capture inventory", err, nil)
		}
		if err := inventory.WriteManifest(out, mem); err != nil {
			return nil, errors.NewError(errors.SourceUnavailable, "cannot write manifest", err, nil)
		}
		resp := &SnapshotResponse{Out: out, Format: "manifest"}
		for _, m := range mem.LoadedModules() {
			resp.Modules++
			resp.Types += len(mem.Types(m).Types)
		}
		return resp, nil
	}

	switch strings.ToLower(filepath.Ext(out)) {
	case ".db", ".sqlite":
		info, err := snapshot.Save(out, src, logger)
		if err != nil {
			return nil, err
		}
		return &SnapshotResponse{
			Out:     out,
			Format:  "sqlite",
			Modules: info.Modules,
			Types:   info.Types,
			Info:    info,
		}, nil
	}
	return nil, errors.Invalid("out", "unsupported snapshot file %q: use .db, .sqlite, .toml or .yaml (optionally %s)",
		filepath.Base(out), compression.Suffix)
}

func runSnapshotVerify(cmd *cobra.Command, args []string) error {
	resp, err := verifySnapshot(args[0], logging.NewNopLogger())
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

func verifySnapshot(path string, logger *logging.Logger) (*VerifyResponse, error) {
	src, err := snapshot.Open(path, logger)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if err := src.Verify(); err != nil {
		return nil, err
	}
	return &VerifyResponse{Path: path, Valid: true, Info: src.Info()}, nil
}
