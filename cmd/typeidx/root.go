package main

import (
	"github.com/spf13/cobra"

	"typeidx/internal/version"
)

var (
	// sourceFlag overrides source.kind from the config
	sourceFlag string
	// pathFlags override source.path; several paths are overlaid in order
	pathFlags    []string
	formatFlag   string
	logLevelFlag string
	configFlag   string
	warmFlags    []string
)

var rootCmd = &cobra.Command{
	Use:   "typeidx",
	Short: "typeidx - cached type lookup across loaded modules",
	Long: `typeidx resolves simple type names within a scope, the set of loaded modules
whose identifiers start with the scope. Modules come from a configured source:
a declared manifest, a stored snapshot, a SCIP index, a go/packages load, a
tree-sitter parse of a Go tree, or the typeidx binary itself.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("typeidx version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&sourceFlag, "source", "",
		"Module source: manifest, snapshot, scip, packages, treesitter or self (default: from config)")
	flags.StringSliceVar(&pathFlags, "path", nil,
		"Source location; repeat to overlay several sources of the same kind")
	flags.StringVar(&formatFlag, "format", string(FormatHuman), "Output format (json, yaml, human)")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error or off (default: from config)")
	flags.StringVar(&configFlag, "config", "", "Config file (default: .typeidx/config.toml)")
	flags.StringSliceVar(&warmFlags, "warm", nil, "Scopes to index before the command runs")
}
