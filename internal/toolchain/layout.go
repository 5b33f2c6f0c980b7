package toolchain

import "path/filepath"

// Layout locates the parts of an installed toolchain.
type Layout struct {
	Dir        string
	BinDir     string
	IncludeDir string
}

func newLayout(dir string) Layout {
	return Layout{
		Dir:        dir,
		BinDir:     filepath.Join(dir, "Bin"),
		IncludeDir: filepath.Join(dir, "Include"),
	}
}

// Overlay returns the environment the compiler expects: Bin is prepended to
// PATH and INCLUDE is replaced.
func (l Layout) Overlay() map[string]string {
	return map[string]string{
		"PATH":    l.BinDir,
		"INCLUDE": l.IncludeDir,
	}
}
