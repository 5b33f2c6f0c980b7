package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/xyproto/env/v2"
)

// Environment variables that override the config file.
const (
	EnvHome          = "DECOMPDESK_HOME"
	EnvToolchainsDir = "DECOMPDESK_TOOLCHAINS_DIR"
	EnvPython        = "DECOMPDESK_PYTHON"
)

// LoadEnv loads KEY=value pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment overrides onto c.
func (c *Config) ApplyEnv() {
	if env.Has(EnvToolchainsDir) {
		c.ToolchainsDir = env.Str(EnvToolchainsDir)
	}
	c.Diff.Python = env.Str(EnvPython, c.Diff.Python)
}

// HomeOverride returns DECOMPDESK_HOME, or "" when unset.
func HomeOverride() string {
	return env.Str(EnvHome)
}

func defaultPython() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}
