package platform

import (
	"os"
	"runtime"
	"sort"
	"strings"
)

// ABI names the binary interface a tool was built for.
type ABI string

const (
	ABIWindows ABI = "windows"
	ABIPOSIX   ABI = "posix"
)

// HostABI returns the ABI of programs native to hostOS.
func HostABI(hostOS string) ABI {
	if hostOS == "windows" {
		return ABIWindows
	}
	return ABIPOSIX
}

// Strategy is the way a tool is launched on the current host.
type Strategy int

const (
	// StrategyNative runs the tool directly.
	StrategyNative Strategy = iota
	// StrategySubsystem runs a POSIX tool from a Windows host through wsl.
	StrategySubsystem
	// StrategyCompat runs a Windows tool from a POSIX host through wine.
	StrategyCompat
)

func (s Strategy) String() string {
	switch s {
	case StrategyNative:
		return "native"
	case StrategySubsystem:
		return "subsystem"
	case StrategyCompat:
		return "compat"
	default:
		return "unknown"
	}
}

// Invocation is a tool run described in the tool's own terms.
type Invocation struct {
	Executable string
	Args       []string
	Dir        string
	// Env is an overlay applied on top of the inherited environment.
	Env map[string]string
}

// LaunchSpec is the host-level process description produced by an Adapter.
type LaunchSpec struct {
	Program string
	Args    []string
	Dir     string
	Env     []string
}

// CommandLine renders the launch for logs and diagnostics.
func (l LaunchSpec) CommandLine() string {
	parts := make([]string, 0, len(l.Args)+1)
	parts = append(parts, l.Program)
	parts = append(parts, l.Args...)
	return strings.Join(parts, " ")
}

// Adapter turns invocations into launch specs for one strategy.
type Adapter struct {
	Strategy Strategy
	HostOS   string
	// Launcher overrides the wrapper program ("wine" or "wsl").
	Launcher string
	// Environ supplies the inherited environment. os.Environ is used when nil.
	Environ func() []string
}

// Select picks the strategy for running a tool built for abi on hostOS.
func Select(hostOS string, abi ABI) Adapter {
	adapter := Adapter{Strategy: StrategyNative, HostOS: hostOS}
	switch {
	case abi == ABIWindows && hostOS != "windows":
		adapter.Strategy = StrategyCompat
		adapter.Launcher = "wine"
	case abi == ABIPOSIX && hostOS == "windows":
		adapter.Strategy = StrategySubsystem
		adapter.Launcher = "wsl"
	}
	return adapter
}

// SelectHost is Select for the running host.
func SelectHost(abi ABI) Adapter {
	return Select(runtime.GOOS, abi)
}

// Prepare builds the launch spec for inv.
func (a Adapter) Prepare(inv Invocation) LaunchSpec {
	switch a.Strategy {
	case StrategyCompat:
		return a.prepareCompat(inv)
	case StrategySubsystem:
		return a.prepareSubsystem(inv)
	default:
		return LaunchSpec{
			Program: inv.Executable,
			Args:    append([]string(nil), inv.Args...),
			Dir:     inv.Dir,
			Env:     MergeEnv(a.baseEnv(), inv.Env, a.listSeparator()),
		}
	}
}

func (a Adapter) prepareCompat(inv Invocation) LaunchSpec {
	overlay := make(map[string]string, len(inv.Env))
	for key, value := range inv.Env {
		translated := translateList(value, ":", ";", ToWinePath)
		if strings.EqualFold(key, "PATH") {
			// wine derives the Windows PATH from the registry and WINEPATH.
			key = "WINEPATH"
		}
		overlay[key] = translated
	}

	composed := make([]string, 0, len(inv.Args)+1)
	composed = append(composed, cmdQuote(inv.Executable))
	for _, arg := range inv.Args {
		composed = append(composed, cmdQuote(arg))
	}

	return LaunchSpec{
		Program: a.launcher("wine"),
		Args:    []string{"cmd.exe", "/c", strings.Join(composed, " ")},
		Dir:     inv.Dir,
		Env:     MergeEnv(a.baseEnv(), overlay, ";"),
	}
}

func (a Adapter) prepareSubsystem(inv Invocation) LaunchSpec {
	var script strings.Builder
	if inv.Dir != "" {
		script.WriteString("cd ")
		script.WriteString(shQuote(ToWSLPath(inv.Dir)))
		script.WriteString(" && ")
	}

	keys := make([]string, 0, len(inv.Env))
	for key := range inv.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := translateList(inv.Env[key], ";", ":", ToWSLPath)
		if strings.EqualFold(key, "PATH") {
			script.WriteString("PATH=" + shQuote(value) + `:"$PATH" `)
			continue
		}
		script.WriteString(key + "=" + shQuote(value) + " ")
	}

	script.WriteString(shQuote(ToWSLPath(inv.Executable)))
	for _, arg := range inv.Args {
		script.WriteByte(' ')
		script.WriteString(shQuote(ToWSLPath(arg)))
	}

	return LaunchSpec{
		Program: a.launcher("wsl"),
		Args:    []string{"sh", "-c", script.String()},
		Dir:     inv.Dir,
		Env:     MergeEnv(a.baseEnv(), nil, ";"),
	}
}

func (a Adapter) launcher(fallback string) string {
	if a.Launcher != "" {
		return a.Launcher
	}
	return fallback
}

func (a Adapter) baseEnv() []string {
	if a.Environ != nil {
		return a.Environ()
	}
	return os.Environ()
}

func (a Adapter) listSeparator() string {
	if a.HostOS == "windows" {
		return ";"
	}
	return ":"
}

func translateList(value, fromSep, toSep string, translate func(string) string) string {
	if value == "" {
		return value
	}
	items := strings.Split(value, fromSep)
	if fromSep == ":" && isDrivePath(value) {
		// A single Windows path; its drive colon is not a list separator.
		items = []string{value}
	}
	for i, item := range items {
		items[i] = translate(item)
	}
	return strings.Join(items, toSep)
}

func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func cmdQuote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
