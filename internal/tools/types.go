package tools

import "decompdesk/internal/platform"

type Source string

const (
	SourceUnknown   Source = ""
	SourceSystem    Source = "system"
	SourceConfig    Source = "config"
	SourceSubsystem Source = "subsystem"
)

// Status captures the resolved state for a host tool.
type Status struct {
	Tool      string   `json:"tool"`
	Version   string   `json:"version,omitempty"`
	Minimum   string   `json:"minimum,omitempty"`
	Source    Source   `json:"source"`
	Path      string   `json:"path,omitempty"`
	Satisfied bool     `json:"satisfied"`
	Error     string   `json:"error,omitempty"`
	Notes     []string `json:"notes,omitempty"`
}

// ToolDefinition contains what is needed to find and version a tool.
type ToolDefinition struct {
	Name       string
	Executable string
	// ABI decides whether the tool is reached directly or through wsl.
	ABI            platform.ABI
	MinimumVersion string
	// VersionSwitch is empty for tools only checked for presence.
	VersionSwitch string
	// Hosts limits the tool to some host systems. Nil means every host.
	Hosts func(goos string) bool
}
