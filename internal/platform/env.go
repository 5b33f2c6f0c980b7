package platform

import (
	"runtime"
	"sort"
	"strings"
)

// Keys whose overlay value is prepended to the inherited value.
var prependKeys = map[string]bool{
	"PATH":     true,
	"WINEPATH": true,
}

var foldEnvKeys = runtime.GOOS == "windows"

// MergeEnv applies overlay to base, a list of KEY=VALUE pairs. PATH and
// WINEPATH are prepended to any inherited value using sep; every other key
// replaces the inherited value. Inherited order is kept and new keys are
// appended in sorted order.
func MergeEnv(base []string, overlay map[string]string, sep string) []string {
	out := make([]string, 0, len(base)+len(overlay))
	applied := make(map[string]bool, len(overlay))

	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			out = append(out, kv)
			continue
		}
		overlayKey, found := lookupOverlay(overlay, key)
		if !found {
			out = append(out, kv)
			continue
		}
		applied[overlayKey] = true
		out = append(out, key+"="+mergeValue(overlayKey, overlay[overlayKey], value, sep))
	}

	var added []string
	for key := range overlay {
		if !applied[key] {
			added = append(added, key)
		}
	}
	sort.Strings(added)
	for _, key := range added {
		out = append(out, key+"="+overlay[key])
	}
	return out
}

// EnvValue returns the last value of key in env.
func EnvValue(env []string, key string) string {
	value := ""
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && sameKey(k, key) {
			value = v
		}
	}
	return value
}

func lookupOverlay(overlay map[string]string, key string) (string, bool) {
	if _, ok := overlay[key]; ok {
		return key, true
	}
	if !foldEnvKeys {
		return "", false
	}
	for candidate := range overlay {
		if strings.EqualFold(candidate, key) {
			return candidate, true
		}
	}
	return "", false
}

func mergeValue(key, overlay, inherited, sep string) string {
	if !prependKeys[strings.ToUpper(key)] || inherited == "" {
		return overlay
	}
	if overlay == "" {
		return inherited
	}
	return overlay + sep + inherited
}

func sameKey(a, b string) bool {
	if foldEnvKeys {
		return strings.EqualFold(a, b)
	}
	return a == b
}
