package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"decompdesk/internal/platform"
)

func readVersion(ctx context.Context, executor platform.Executor, def ToolDefinition, program string) (string, error) {
	result, err := executor.Execute(ctx, platform.Invocation{
		Executable: program,
		Args:       []string{def.VersionSwitch},
	})
	if err != nil {
		return "", fmt.Errorf("%s version: %w", def.Name, err)
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("%s version: exit status %d: %s", def.Name, result.ExitCode, firstLine(strings.TrimSpace(result.Output())))
	}

	// Older interpreters print their version on stderr.
	line := firstLine(strings.TrimSpace(result.Stdout))
	if line == "" {
		line = firstLine(strings.TrimSpace(result.Stderr))
	}
	return normalizeVersion(line), nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

var versionRegex = regexp.MustCompile(`([0-9]+)(?:\.([0-9]+))?(?:\.([0-9]+))?`)

// normalizeVersion extracts "3.11.4" from "Python 3.11.4" or "9.0" from
// "wine-9.0 (Staging)".
func normalizeVersion(line string) string {
	match := versionRegex.FindString(line)
	if match == "" {
		return line
	}
	return match
}

func meetsMinimum(version, minimum string) bool {
	if minimum == "" {
		return true
	}
	if version == "" {
		return false
	}

	vParts := numericParts(version)
	mParts := numericParts(minimum)
	for len(vParts) < len(mParts) {
		vParts = append(vParts, 0)
	}
	for len(mParts) < len(vParts) {
		mParts = append(mParts, 0)
	}
	for i := 0; i < len(vParts) && i < len(mParts); i++ {
		if vParts[i] > mParts[i] {
			return true
		}
		if vParts[i] < mParts[i] {
			return false
		}
	}
	return true
}

func numericParts(version string) []int {
	var parts []int
	current := strings.Builder{}
	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			val, _ := strconv.Atoi(current.String())
			parts = append(parts, val)
			current.Reset()
		}
	}
	if current.Len() > 0 {
		val, _ := strconv.Atoi(current.String())
		parts = append(parts, val)
	}
	return parts
}
