package logx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewWritesToLogsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, closer, err := New(dir, "toolchains install")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Printf("install %s", "msvc6.0")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("logs dir entries = %v, %v", entries, err)
	}
	if name := entries[0].Name(); !strings.HasSuffix(name, "-toolchains-install.log") {
		t.Fatalf("log file name = %q", name)
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "install msvc6.0") {
		t.Fatalf("log contents = %q", data)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 5; i++ {
		name := fmt.Sprintf("2024010%d-120000-compile.log", i)
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Prune(dir, 2); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"20240104-120000-compile.log", "20240105-120000-compile.log", "notes.txt"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("remaining files (-want +got):\n%s", diff)
	}

	if err := Prune(filepath.Join(dir, "missing"), 2); err != nil {
		t.Fatalf("Prune(missing) = %v", err)
	}
}
