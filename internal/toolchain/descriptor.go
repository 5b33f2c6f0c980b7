package toolchain

import (
	"sort"

	"decompdesk/internal/platform"
)

const PlatformWin32 = "win32"

// Descriptor identifies one installable compiler toolchain.
type Descriptor struct {
	Platform    string       `json:"platform" yaml:"platform"`
	Version     string       `json:"version" yaml:"version"`
	DownloadURL string       `json:"download_url" yaml:"download_url"`
	Compiler    string       `json:"compiler" yaml:"compiler"`
	ObjectExt   string       `json:"object_ext" yaml:"object_ext"`
	ABI         platform.ABI `json:"abi" yaml:"abi"`
	// StripComponents drops the wrapper directory GitHub adds to source
	// archive zips.
	StripComponents int `json:"strip_components,omitempty" yaml:"strip_components,omitempty"`
}

// Key returns "platform/version".
func (d Descriptor) Key() string {
	return d.Platform + "/" + d.Version
}

func (d Descriptor) String() string {
	return d.Key()
}

const (
	omniBladeWin9x = "https://github.com/OmniBlade/decomp.me/releases/download/msvcwin9x/"
)

func msvc(version, url string, strip int) Descriptor {
	return Descriptor{
		Platform:        PlatformWin32,
		Version:         version,
		DownloadURL:     url,
		Compiler:        "cl.exe",
		ObjectExt:       ".obj",
		ABI:             platform.ABIWindows,
		StripComponents: strip,
	}
}

var builtinCatalog = []Descriptor{
	msvc("msvc4.0", "https://github.com/itsmattkc/MSVC400/archive/821e942fd95bd16d01649401de7943ef87ae9f54.zip", 1),
	msvc("msvc4.1", "https://github.com/decompme/compilers/releases/download/compilers/msvc4.1.tar.gz", 0),
	msvc("msvc4.2", "https://github.com/itsmattkc/MSVC420/archive/df2c13aad74c094988c6c7e784234c2e778a0e91.zip", 1),
	msvc("msvc6.0", omniBladeWin9x+"msvc6.0.tar.gz", 0),
	msvc("msvc6.3", omniBladeWin9x+"msvc6.3.tar.gz", 0),
	msvc("msvc6.4", omniBladeWin9x+"msvc6.4.tar.gz", 0),
	msvc("msvc6.5", omniBladeWin9x+"msvc6.5.tar.gz", 0),
	msvc("msvc6.5pp", omniBladeWin9x+"msvc6.5pp.tar.gz", 0),
	msvc("msvc6.6", omniBladeWin9x+"msvc6.6.tar.gz", 0),
	msvc("msvc7.0", "https://github.com/roblabla/MSVC-7.0-Portable/releases/download/release/msvc7.0.tar.gz", 0),
	msvc("msvc7.1", omniBladeWin9x+"msvc7.0.tar.gz", 0),
	msvc("msvc8.0", "https://github.com/widberg/msvc8.0/archive/d6c4aa208c8345c78a9f68ba6ef911ee94c6a6e1.zip", 1),
	msvc("msvc8.0p", "https://github.com/widberg/msvc8.0/archive/52c8293f8b8d6441c594cf096542290c17a4d70e.zip", 1),
}

// Catalog returns the compiled-in toolchain list.
func Catalog() []Descriptor {
	return append([]Descriptor(nil), builtinCatalog...)
}

// Platforms returns the distinct platforms in catalog, sorted.
func Platforms(catalog []Descriptor) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range catalog {
		if !seen[d.Platform] {
			seen[d.Platform] = true
			out = append(out, d.Platform)
		}
	}
	sort.Strings(out)
	return out
}
