package main

import (
	"os"
	"strings"

	"typeidx/internal/config"
	"typeidx/internal/errors"
	"typeidx/internal/logging"
)

// overrides are command-line values that take precedence over the config.
type overrides struct {
	Source   string
	Paths    []string
	LogLevel string
	Warm     []string
}

func flagOverrides() overrides {
	return overrides{
		Source:   sourceFlag,
		Paths:    pathFlags,
		LogLevel: logLevelFlag,
		Warm:     warmFlags,
	}
}

// apply writes o into cfg and returns the source paths to open.
func (o overrides) apply(cfg *config.Config) []string {
	if o.Source != "" {
		cfg.Source.Kind = strings.ToLower(strings.TrimSpace(o.Source))
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	cfg.Index.WarmScopes = append(cfg.Index.WarmScopes, o.Warm...)

	if cfg.Source.Kind == config.SourceSelf {
		return nil
	}
	if len(o.Paths) > 0 {
		cfg.Source.Path = o.Paths[0]
		return append([]string(nil), o.Paths...)
	}
	return []string{cfg.Source.Path}
}

// settings is the resolved configuration for one command invocation.
type settings struct {
	cfg   *config.Config
	paths []string
}

// loadSettings reads the config file named by --config, or the project
// config under the working directory, and applies o.
func loadSettings(configPath string, o overrides) (*settings, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfigFromPath(configPath)
	} else {
		var root string
		if root, err = os.Getwd(); err == nil {
			cfg, err = config.LoadConfig(root)
		}
	}
	if err != nil {
		return nil, configError(err)
	}

	paths := o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, configError(err)
	}
	return &settings{cfg: cfg, paths: paths}, nil
}

func configError(err error) error {
	return errors.NewError(errors.ConfigInvalid, "invalid configuration", err,
		errors.GetSuggestedFixes(errors.ConfigInvalid))
}

// newLogger creates the stderr logger configured by cfg.
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.ParseFormat(cfg.Logging.Format),
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
}
