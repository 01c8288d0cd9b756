package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// Dir is the per-project directory holding the config file and snapshots.
const Dir = ".typeidx"

// EnvPrefix prefixes environment overrides, e.g. TYPEIDX_SOURCE_KIND.
const EnvPrefix = "TYPEIDX"

// Source kinds understood by the CLI.
const (
	SourceManifest   = "manifest"
	SourceSnapshot   = "snapshot"
	SourceSCIP       = "scip"
	SourcePackages   = "packages"
	SourceTreeSitter = "treesitter"
	SourceSelf       = "self"
)

var validSourceKinds = map[string]bool{
	SourceManifest:   true,
	SourceSnapshot:   true,
	SourceSCIP:       true,
	SourcePackages:   true,
	SourceTreeSitter: true,
	SourceSelf:       true,
}

// Config represents the complete typeidx configuration
type Config struct {
	Version int `json:"version" mapstructure:"version" toml:"version"`

	Source  SourceConfig  `json:"source" mapstructure:"source" toml:"source"`
	Index   IndexConfig   `json:"index" mapstructure:"index" toml:"index"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging" toml:"logging"`
}

// SourceConfig selects the module inventory the index is built from
type SourceConfig struct {
	Kind     string   `json:"kind" mapstructure:"kind" toml:"kind"`
	Path     string   `json:"path" mapstructure:"path" toml:"path"`
	Patterns []string `json:"patterns" mapstructure:"patterns" toml:"patterns"`
}

// IndexConfig contains type index settings
type IndexConfig struct {
	// WarmScopes are built eagerly when the service starts
	WarmScopes []string `json:"warmScopes" mapstructure:"warmScopes" toml:"warmScopes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format" toml:"format"`
	Level  string `json:"level" mapstructure:"level" toml:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Source: SourceConfig{
			Kind:     SourceManifest,
			Path:     filepath.Join(Dir, "inventory.toml"),
			Patterns: []string{"./..."},
		},
		Index: IndexConfig{
			WarmScopes: []string{},
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("source.kind", def.Source.Kind)
	v.SetDefault("source.path", def.Source.Path)
	v.SetDefault("source.patterns", def.Source.Patterns)
	v.SetDefault("index.warmScopes", def.Index.WarmScopes)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from <root>/.typeidx/config.{toml,json,yaml}.
// A missing file yields the defaults with environment overrides applied.
func LoadConfig(root string) (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(root, Dir))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &ConfigError{Field: "file", Message: err.Error()}
		}
	}
	return unmarshal(v)
}

// LoadConfigFromPath loads configuration from an explicit file. The format
// is taken from the file extension.
func LoadConfigFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ConfigError{Field: "file", Message: err.Error()}
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigError{Field: "file", Message: err.Error()}
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "", Message: err.Error()}
	}
	return &cfg, nil
}

// Path returns the location Save writes to for the given root.
func Path(root string) string {
	return filepath.Join(root, Dir, "config.toml")
}

// Save writes the configuration to <root>/.typeidx/config.toml
func (c *Config) Save(root string) error {
	if err := os.MkdirAll(filepath.Join(root, Dir), 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", Dir, err)
	}

	f, err := os.Create(Path(root))
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if !validSourceKinds[c.Source.Kind] {
		return &ConfigError{Field: "source.kind", Message: fmt.Sprintf("unknown source kind %q", c.Source.Kind)}
	}
	if c.Source.Kind != SourceSelf && strings.TrimSpace(c.Source.Path) == "" {
		return &ConfigError{Field: "source.path", Message: "path is required for source " + c.Source.Kind}
	}
	for i, scope := range c.Index.WarmScopes {
		if strings.TrimSpace(scope) == "" {
			return &ConfigError{Field: fmt.Sprintf("index.warmScopes[%d]", i), Message: "scope must not be empty"}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return "config error in field '" + e.Field + "': " + e.Message
}
