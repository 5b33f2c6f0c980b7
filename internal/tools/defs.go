package tools

import (
	"runtime"
	"sort"

	"decompdesk/internal/platform"
)

var toolDefinitions = map[string]ToolDefinition{
	"python3": {
		Name:           "python3",
		Executable:     "python3",
		ABI:            platform.ABIPOSIX,
		MinimumVersion: "3.6",
		VersionSwitch:  "--version",
	},
	"wine": {
		Name:          "wine",
		Executable:    "wine",
		ABI:           platform.ABIPOSIX,
		VersionSwitch: "--version",
		Hosts:         func(goos string) bool { return goos != "windows" },
	},
	"wsl": {
		Name:       "wsl",
		Executable: executableName("wsl"),
		ABI:        platform.ABIWindows,
		Hosts:      func(goos string) bool { return goos == "windows" },
	},
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

// KnownTools returns the names of the tools needed on hostOS.
func KnownTools(hostOS string) []string {
	names := make([]string, 0, len(toolDefinitions))
	for name, def := range toolDefinitions {
		if def.Hosts != nil && !def.Hosts(hostOS) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition returns the tool definition for the provided name.
func Definition(name string) (ToolDefinition, bool) {
	def, ok := toolDefinitions[name]
	return def, ok
}
