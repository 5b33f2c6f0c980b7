package platform

import (
	"strings"
	"unicode"
)

// ToWSLPath rewrites a Windows drive path into its /mnt mount inside the
// Linux subsystem: C:\Users\x\proj becomes /mnt/c/Users/x/proj. Anything
// that is not a drive path is returned unchanged.
func ToWSLPath(p string) string {
	if !isDrivePath(p) {
		return p
	}
	drive := string(unicode.ToLower(rune(p[0])))
	rest := strings.ReplaceAll(p[2:], `\`, "/")
	rest = strings.TrimRight(rest, "/")
	if rest == "" {
		return "/mnt/" + drive
	}
	return "/mnt/" + drive + rest
}

// ToWinePath maps an absolute host path onto wine's Z: drive, which exposes
// the Unix root: /home/u/x becomes Z:\home\u\x. Relative paths and paths
// that already carry a drive letter are returned unchanged.
func ToWinePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return p
	}
	return `Z:` + strings.ReplaceAll(p, "/", `\`)
}

func isDrivePath(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return false
	}
	return len(p) == 2 || p[2] == '\\' || p[2] == '/'
}
