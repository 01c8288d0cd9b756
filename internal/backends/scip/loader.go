package scip

import (
	"fmt"
	"os"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"typeidx/internal/compression"
	"typeidx/internal/errors"
	"typeidx/internal/logging"
)

// Metadata describes the indexer that produced an index
type Metadata struct {
	Tool          string `json:"tool,omitempty" yaml:"tool,omitempty"`
	ToolVersion   string `json:"toolVersion,omitempty" yaml:"toolVersion,omitempty"`
	ProjectRoot   string `json:"projectRoot,omitempty" yaml:"projectRoot,omitempty"`
	IndexedCommit string `json:"indexedCommit,omitempty" yaml:"indexedCommit,omitempty"`
}

// Load reads a SCIP index from path. A .zst suffix marks a zstd-compressed
// index.
func Load(path string, logger *logging.Logger) (*Source, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewError(
			errors.SourceUnavailable,
			fmt.Sprintf("SCIP index not found at %s", path),
			err,
			errors.GetSuggestedFixes(errors.SourceUnavailable),
		)
	}

	data, err := compression.ReadFile(path)
	if err != nil {
		return nil, errors.NewError(
			errors.SourceUnavailable,
			fmt.Sprintf("Failed to read SCIP index from %s", path),
			err,
			nil,
		)
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, errors.NewError(
			errors.SnapshotInvalid,
			fmt.Sprintf("Failed to parse SCIP index from %s", path),
			err,
			[]errors.FixAction{
				{
					Type:        errors.RunCommand,
					Command:     "scip print --index=" + path,
					Safe:        true,
					Description: "Verify SCIP index is valid",
				},
			},
		)
	}

	return FromIndex(&index, logger), nil
}

func convertMetadata(meta *scippb.Metadata) Metadata {
	if meta == nil {
		return Metadata{}
	}
	m := Metadata{ProjectRoot: meta.ProjectRoot}
	if meta.ToolInfo != nil {
		m.Tool = meta.ToolInfo.Name
		m.ToolVersion = meta.ToolInfo.Version
		m.IndexedCommit = extractCommit(meta.ToolInfo.Arguments, meta.ToolInfo.Version)
	}
	return m
}

// extractCommit looks for the indexed commit in indexer arguments, falling
// back to a version string that looks like a commit hash
func extractCommit(args []string, version string) string {
	for i, arg := range args {
		for _, prefix := range []string{"--commit=", "--git-commit=", "--module-version="} {
			if v, ok := strings.CutPrefix(arg, prefix); ok && v != "" {
				return v
			}
		}
		if arg == "-c" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if looksLikeCommitHash(version) {
		return version
	}
	return ""
}

func looksLikeCommitHash(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
