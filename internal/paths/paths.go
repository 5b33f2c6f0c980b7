package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"decompdesk/internal/config"
)

// Paths captures canonical locations under the decompdesk home directory.
type Paths struct {
	Home          string
	ConfigFile    string
	EnvFile       string
	ToolchainsDir string
	ScratchesDir  string
	DiffToolDir   string
	VenvDir       string
	LogsDir       string
	LedgerFile    string
}

// Resolve determines the home directory from the --home flag, then
// DECOMPDESK_HOME, then the per-OS application data directory.
func Resolve(homeFlag string) (Paths, error) {
	home := strings.TrimSpace(homeFlag)
	if home == "" {
		home = config.HomeOverride()
	}
	if home == "" {
		var err error
		home, err = defaultHome()
		if err != nil {
			return Paths{}, err
		}
	}
	abs, err := filepath.Abs(home)
	if err != nil {
		return Paths{}, fmt.Errorf("resolve home: %w", err)
	}
	return newPaths(abs), nil
}

func defaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "DecompDesk"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "DecompDesk"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "DecompDesk"), nil
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "decompdesk"), nil
		}
		return filepath.Join(home, ".local", "share", "decompdesk"), nil
	}
}

func newPaths(home string) Paths {
	return Paths{
		Home:          home,
		ConfigFile:    filepath.Join(home, "config.yaml"),
		EnvFile:       filepath.Join(home, ".env"),
		ToolchainsDir: filepath.Join(home, "compilers"),
		ScratchesDir:  filepath.Join(home, "scratches"),
		DiffToolDir:   filepath.Join(home, "bin"),
		VenvDir:       filepath.Join(home, "venv"),
		LogsDir:       filepath.Join(home, "logs"),
		LedgerFile:    filepath.Join(home, "installs.db"),
	}
}

// ApplyConfig lets configured directories override the home layout. Relative
// values are resolved against the home directory.
func ApplyConfig(p Paths, cfg config.Config) Paths {
	if dir := strings.TrimSpace(cfg.ToolchainsDir); dir != "" {
		p.ToolchainsDir = resolveHomePath(p.Home, dir)
	}
	if dir := strings.TrimSpace(cfg.ScratchesDir); dir != "" {
		p.ScratchesDir = resolveHomePath(p.Home, dir)
	}
	if dir := strings.TrimSpace(cfg.Diff.ToolDir); dir != "" {
		p.DiffToolDir = resolveHomePath(p.Home, dir)
	}
	return p
}

func resolveHomePath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// VenvPython returns the interpreter of the home virtualenv.
func (p Paths) VenvPython() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(p.VenvDir, "Scripts", "python.exe")
	}
	return filepath.Join(p.VenvDir, "bin", "python3")
}

// EnsureDirs creates the home hierarchy.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.Home, p.ToolchainsDir, p.ScratchesDir, p.DiffToolDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
