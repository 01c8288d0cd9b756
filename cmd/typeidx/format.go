package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"typeidx/internal/lookup"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// printResponse writes resp to w in the --format output format.
func printResponse(w io.Writer, resp interface{}) error {
	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *LookupResponse:
		return formatLookupHuman(v), nil
	case *ModulesResponse:
		return formatModulesHuman(v), nil
	case *SnapshotResponse:
		return formatSnapshotHuman(v), nil
	case *VerifyResponse:
		return formatVerifyHuman(v), nil
	case *ConfigInitResponse:
		return fmt.Sprintf("Wrote %s", v.Path), nil
	case *VersionResponse:
		return fmt.Sprintf("typeidx version %s\nCommit: %s\nBuilt: %s", v.Version, v.Commit, v.BuildDate), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatLookupHuman(resp *LookupResponse) string {
	var b strings.Builder
	if resp.Found {
		fmt.Fprintf(&b, "%s -> %s", resp.Name, resp.Type.QualifiedName)
		if resp.Type.Kind != "" {
			fmt.Fprintf(&b, " (%s)", resp.Type.Kind)
		}
	} else {
		fmt.Fprintf(&b, "No type named %q in scope %q", resp.Name, resp.Scope)
	}
	if len(resp.Explicit) > 0 {
		fmt.Fprintf(&b, "\nSearched: %s", strings.Join(resp.Explicit, ", "))
	}
	if resp.Stats != nil {
		b.WriteString("\n")
		b.WriteString(formatStatsHuman(resp.Stats))
	}
	return b.String()
}

func formatStatsHuman(s *lookup.Stats) string {
	var b strings.Builder
	b.WriteString("Stats:\n")
	fmt.Fprintf(&b, "  Module sets built: %d\n", s.ModuleSetBuilds)
	fmt.Fprintf(&b, "  Indexes built:     %d\n", s.IndexBuilds)
	fmt.Fprintf(&b, "  Modules scanned:   %d\n", s.ModulesScanned)
	fmt.Fprintf(&b, "  Types indexed:     %d\n", s.TypesIndexed)
	fmt.Fprintf(&b, "  Load failures:     %d\n", s.LoadFailures)
	fmt.Fprintf(&b, "  Collisions:        %d\n", s.Collisions)
	fmt.Fprintf(&b, "  Lookups:           %d (hits %d, misses %d, negative hits %d, explicit %d)",
		s.Lookups, s.Hits, s.Misses, s.NegativeHits, s.ExplicitScans)
	return b.String()
}

func formatModulesHuman(resp *ModulesResponse) string {
	var b strings.Builder
	noun := "modules"
	if len(resp.Modules) == 1 {
		noun = "module"
	}
	fmt.Fprintf(&b, "Scope %q: %d %s", resp.Scope, len(resp.Modules), noun)
	for _, m := range resp.Modules {
		b.WriteString("\n  ")
		b.WriteString(m.ID)
		if m.Version != "" {
			b.WriteString("@" + m.Version)
		}
	}
	return b.String()
}

func formatSnapshotHuman(resp *SnapshotResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Wrote %s %s: %d modules, %d types", resp.Format, resp.Out, resp.Modules, resp.Types)
	if resp.Info != nil {
		fmt.Fprintf(&b, "\n  ID:     %s\n  Digest: %s", resp.Info.ID, resp.Info.Digest)
	}
	return b.String()
}

func formatVerifyHuman(resp *VerifyResponse) string {
	return fmt.Sprintf("Snapshot %s is valid: %d modules, %d types\n  ID:      %s\n  Digest:  %s\n  Created: %s",
		resp.Path, resp.Info.Modules, resp.Info.Types, resp.Info.ID, resp.Info.Digest,
		resp.Info.CreatedAt.Format(time.RFC3339))
}
