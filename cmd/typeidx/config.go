package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"typeidx/internal/config"
	"typeidx/internal/errors"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage typeidx configuration",
	Long:  "View and manage typeidx configuration stored in .typeidx/config.toml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration",
	Long: `Write the default configuration to .typeidx/config.toml in the current
directory. An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after environment and command-line overrides.

Examples:
  typeidx config show
  typeidx config show --source scip --path index.scip --format=json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}
	resp, err := initConfig(root, configForce)
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

// initConfig writes the default configuration under root.
func initConfig(root string, force bool) (*ConfigInitResponse, error) {
	path := config.Path(root)
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if exists && !force {
		return nil, errors.NewError(errors.ConfigInvalid,
			fmt.Sprintf("config already exists at %s", path), nil,
			errors.GetSuggestedFixes(errors.ConfigInvalid))
	}
	if err := config.DefaultConfig().Save(root); err != nil {
		return nil, errors.NewError(errors.InternalError, "cannot write config", err, nil)
	}
	return &ConfigInitResponse{Path: path, Overwritten: exists}, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(configFlag, flagOverrides())
	if err != nil {
		return err
	}
	if OutputFormat(formatFlag) != FormatHuman {
		return printResponse(cmd.OutOrStdout(), s.cfg)
	}
	out, err := configTOML(s.cfg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func configTOML(cfg *config.Config) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
