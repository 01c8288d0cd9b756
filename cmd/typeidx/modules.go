package main

import (
	"github.com/spf13/cobra"
)

var modulesScope string

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the modules a scope resolves to",
	Long: `List the loaded modules whose identifiers start with the scope, in source
enumeration order. The match is an ordinal, case-sensitive prefix match.

Examples:
  typeidx modules --scope Acme
  typeidx modules --scope example.com/acme --source packages --path .`,
	Args: cobra.NoArgs,
	RunE: runModules,
}

func init() {
	modulesCmd.Flags().StringVar(&modulesScope, "scope", "", "Scope (module identifier prefix)")
	rootCmd.AddCommand(modulesCmd)
}

func runModules(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(configFlag, flagOverrides())
	if err != nil {
		return err
	}
	eng, err := newEngine(cmd.Context(), s, newLogger(s.cfg))
	if err != nil {
		return err
	}
	defer eng.Close()

	resp, err := eng.modules(modulesScope)
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

func (e *engine) modules(scope string) (*ModulesResponse, error) {
	mods, err := e.svc.ModulesForScopeCached(scope)
	if err != nil {
		return nil, err
	}
	return &ModulesResponse{Scope: scope, Modules: moduleViews(mods)}, nil
}
