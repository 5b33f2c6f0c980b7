package paths

import (
	"os"
	"path/filepath"
	"testing"

	"decompdesk/internal/config"
)

func TestResolveHomeFlag(t *testing.T) {
	home := t.TempDir()
	p, err := Resolve(home)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Home != home {
		t.Fatalf("home = %s", p.Home)
	}
	if p.ToolchainsDir != filepath.Join(home, "compilers") {
		t.Fatalf("toolchains dir = %s", p.ToolchainsDir)
	}
	if p.LedgerFile != filepath.Join(home, "installs.db") {
		t.Fatalf("ledger = %s", p.LedgerFile)
	}
}

func TestResolveEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	p, err := Resolve("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Home != home {
		t.Fatalf("home = %s, want %s", p.Home, home)
	}
}

func TestApplyConfigRelativeAndAbsolute(t *testing.T) {
	home := t.TempDir()
	p := newPaths(home)

	abs := filepath.Join(t.TempDir(), "msvc")
	cfg := config.Config{ToolchainsDir: abs, ScratchesDir: "work"}
	cfg.Diff.ToolDir = "asm-differ"

	applied := ApplyConfig(p, cfg)
	if applied.ToolchainsDir != abs {
		t.Fatalf("toolchains dir = %s", applied.ToolchainsDir)
	}
	if applied.ScratchesDir != filepath.Join(home, "work") {
		t.Fatalf("scratches dir = %s", applied.ScratchesDir)
	}
	if applied.DiffToolDir != filepath.Join(home, "asm-differ") {
		t.Fatalf("diff tool dir = %s", applied.DiffToolDir)
	}
}

func TestApplyConfigNoOverrides(t *testing.T) {
	p := newPaths(t.TempDir())
	if applied := ApplyConfig(p, config.Config{}); applied != p {
		t.Fatalf("expected paths unchanged, got %+v", applied)
	}
}

func TestEnsureDirsAndExists(t *testing.T) {
	p := newPaths(filepath.Join(t.TempDir(), "home"))
	if err := p.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	for _, dir := range []string{p.ToolchainsDir, p.ScratchesDir, p.DiffToolDir, p.LogsDir} {
		ok, err := DirExists(dir)
		if err != nil || !ok {
			t.Fatalf("DirExists(%s) = %v, %v", dir, ok, err)
		}
	}
	if ok, _ := FileExists(p.ToolchainsDir); ok {
		t.Fatal("a directory is not a file")
	}
	if err := os.WriteFile(p.ConfigFile, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, err := FileExists(p.ConfigFile); err != nil || !ok {
		t.Fatalf("FileExists = %v, %v", ok, err)
	}
}
