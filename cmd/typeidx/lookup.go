package main

import (
	"github.com/spf13/cobra"
)

var (
	lookupScope   string
	lookupModules []string
	lookupStats   bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Find a type by simple name within a scope",
	Long: `Find the first type named <name> (case-insensitively) in the modules whose
identifiers start with the scope. With --module the named modules are searched
instead, in the given order, and nothing is cached.

Examples:
  typeidx lookup Widget --scope Acme
  typeidx lookup widget --scope Acme.Core --format=json
  typeidx lookup Rotor --scope Globex --module Globex.Engine --module Globex.Parts`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&lookupScope, "scope", "", "Scope (module identifier prefix) to search")
	lookupCmd.Flags().StringSliceVar(&lookupModules, "module", nil, "Search exactly these modules instead of the scope's")
	lookupCmd.Flags().BoolVar(&lookupStats, "stats", false, "Include index statistics")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(configFlag, flagOverrides())
	if err != nil {
		return err
	}
	eng, err := newEngine(cmd.Context(), s, newLogger(s.cfg))
	if err != nil {
		return err
	}
	defer eng.Close()

	resp, err := eng.lookup(args[0], lookupScope, lookupModules, lookupStats)
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

// lookup runs one cached lookup. moduleIDs, when present, select the
// explicit modules to search.
func (e *engine) lookup(name, scope string, moduleIDs []string, withStats bool) (*LookupResponse, error) {
	explicit, err := e.modulesByID(moduleIDs)
	if err != nil {
		return nil, err
	}
	t, found, err := e.svc.TypeByNameCached(name, scope, explicit...)
	if err != nil {
		return nil, err
	}

	resp := &LookupResponse{
		Name:     name,
		Scope:    scope,
		Found:    found,
		Explicit: moduleIDs,
	}
	if found {
		resp.Type = typeView(t)
	}
	if withStats {
		stats := e.svc.Stats()
		resp.Stats = &stats
	}
	return resp, nil
}
