// # internal/core/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int               `toml:"version"`
	Root          string            `toml:"root"`
	Scan          Scan              `toml:"scan"`
	Resolve       Resolve           `toml:"resolve"`
	Extract       Extract           `toml:"extract"`
	Aliases       map[string]string `toml:"aliases"`
	Watch         Watch             `toml:"watch"`
	DB            Database          `toml:"db"`
	Prompt        Prompt            `toml:"prompt"`
	Observability Observability     `toml:"observability"`
}

type Scan struct {
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

type Resolve struct {
	Depth    int `toml:"depth"`
	MaxDepth int `toml:"max_depth"`
	MaxFiles int `toml:"max_files"`
}

type Extract struct {
	Engine string `toml:"engine"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
	// RatePerSecond caps watcher-triggered re-resolutions.
	RatePerSecond float64 `toml:"rate_per_second"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Prompt struct {
	Header    string `toml:"header"`
	Clipboard bool   `toml:"clipboard"`
}

type Observability struct {
	Enabled      bool   `toml:"enabled"`
	Listen       string `toml:"listen"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Load reads a TOML config, applies defaults, and validates. A missing
// file surfaces as the read error; callers that want a configless run
// fall back to Default() on os.IsNotExist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateRoot(&cfg); err != nil {
		return nil, err
	}
	if err := validateResolve(&cfg); err != nil {
		return nil, err
	}
	if err := validateExtract(&cfg); err != nil {
		return nil, err
	}
	if err := validateAliases(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	if abs, err := filepath.Abs(cfg.Root); err == nil {
		cfg.Root = abs
	}
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Root) == "" {
		cfg.Root = "."
	}

	if len(cfg.Scan.ExcludeDirs) == 0 {
		cfg.Scan.ExcludeDirs = []string{
			".git", "node_modules", "__pycache__", ".venv", "venv",
			"dist", "build", ".next", "target",
		}
	}

	if cfg.Resolve.Depth == 0 {
		cfg.Resolve.Depth = 1
	}
	if cfg.Resolve.MaxDepth == 0 {
		cfg.Resolve.MaxDepth = 5
	}

	if strings.TrimSpace(cfg.Extract.Engine) == "" {
		cfg.Extract.Engine = "regex"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RatePerSecond == 0 {
		cfg.Watch.RatePerSecond = 2
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "related.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.Listen) == "" {
		cfg.Observability.Listen = "127.0.0.1:9190"
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("version must be 1, got %d", cfg.Version)
	}
	return nil
}

func validateRoot(cfg *Config) error {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		return fmt.Errorf("root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("root %q is not a usable path: %w", root, err)
	}
	cfg.Root = abs
	return nil
}

func validateResolve(cfg *Config) error {
	if cfg.Resolve.MaxDepth < 1 {
		return fmt.Errorf("resolve.max_depth must be >= 1, got %d", cfg.Resolve.MaxDepth)
	}
	if cfg.Resolve.Depth < 1 || cfg.Resolve.Depth > cfg.Resolve.MaxDepth {
		return fmt.Errorf("resolve.depth must be in [1, %d], got %d", cfg.Resolve.MaxDepth, cfg.Resolve.Depth)
	}
	if cfg.Resolve.MaxFiles < 0 {
		return fmt.Errorf("resolve.max_files must be >= 0, got %d", cfg.Resolve.MaxFiles)
	}
	return nil
}

func validateExtract(cfg *Config) error {
	engine := strings.ToLower(strings.TrimSpace(cfg.Extract.Engine))
	switch engine {
	case "regex", "treesitter":
		cfg.Extract.Engine = engine
		return nil
	}
	return fmt.Errorf("extract.engine must be one of: regex, treesitter; got %q", cfg.Extract.Engine)
}

func validateAliases(cfg *Config) error {
	for prefix, target := range cfg.Aliases {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("aliases: prefix must not be empty")
		}
		if filepath.IsAbs(target) {
			return fmt.Errorf("aliases[%q]: target must be relative to root, got %q", prefix, target)
		}
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty when db.enabled")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Enabled && strings.TrimSpace(cfg.Observability.Listen) == "" {
		return fmt.Errorf("observability.listen must not be empty when observability.enabled")
	}
	return nil
}
