package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures user settings for toolchains, scratches and diffing.
type Config struct {
	Version       int            `yaml:"version"`
	ToolchainsDir string         `yaml:"toolchains_dir,omitempty"`
	ScratchesDir  string         `yaml:"scratches_dir,omitempty"`
	Diff          DiffConfig     `yaml:"diff"`
	Compile       CompileConfig  `yaml:"compile"`
	Download      DownloadConfig `yaml:"download"`
}

// DiffConfig locates asm-differ and controls how it is invoked.
type DiffConfig struct {
	ToolDir      string `yaml:"tool_dir,omitempty"`
	Python       string `yaml:"python"`
	Exchange     string `yaml:"exchange"`
	CacheEntries int    `yaml:"cache_entries"`
}

// CompileConfig tunes the watch loop.
type CompileConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// DownloadConfig bounds toolchain archive downloads.
type DownloadConfig struct {
	TimeoutSec int `yaml:"timeout_s"`
}

// Default returns the baseline configuration. Empty directories are filled in
// from the resolved home directory by the caller.
func Default() Config {
	return Config{
		Version: 1,
		Diff: DiffConfig{
			Python:       defaultPython(),
			Exchange:     "job",
			CacheEntries: 64,
		},
		Compile: CompileConfig{
			DebounceMS: 500,
		},
		Download: DownloadConfig{
			TimeoutSec: 300,
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Diff.Python == "" {
		c.Diff.Python = defaults.Diff.Python
	}
	if c.Diff.Exchange == "" {
		c.Diff.Exchange = defaults.Diff.Exchange
	}
	if c.Diff.CacheEntries == 0 {
		c.Diff.CacheEntries = defaults.Diff.CacheEntries
	}
	if c.Compile.DebounceMS == 0 {
		c.Compile.DebounceMS = defaults.Compile.DebounceMS
	}
	if c.Download.TimeoutSec == 0 {
		c.Download.TimeoutSec = defaults.Download.TimeoutSec
	}
}

// Debounce is the quiet period before a watched edit triggers a compile.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Compile.DebounceMS) * time.Millisecond
}

// DownloadTimeout bounds a single archive download.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSec) * time.Second
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

// Save writes the configuration to path.
func (c Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
