package platform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin:/bin", "INCLUDE=/old/include", "LANG=C", "MALFORMED"}
	overlay := map[string]string{
		"PATH":    "/tc/Bin",
		"INCLUDE": "/tc/Include",
		"LIB":     "/tc/Lib",
	}

	got := MergeEnv(base, overlay, ":")
	want := []string{
		"PATH=/tc/Bin:/usr/bin:/bin",
		"INCLUDE=/tc/Include",
		"LANG=C",
		"MALFORMED",
		"LIB=/tc/Lib",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("MergeEnv mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeEnvPathWithoutInheritedValue(t *testing.T) {
	got := MergeEnv([]string{"HOME=/h"}, map[string]string{"PATH": "/tc/Bin"}, ":")
	want := []string{"HOME=/h", "PATH=/tc/Bin"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("MergeEnv mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeEnvEmptyOverlayKeepsBase(t *testing.T) {
	base := []string{"A=1", "B=2"}
	if diff := cmp.Diff(base, MergeEnv(base, nil, ":")); diff != "" {
		t.Fatalf("MergeEnv mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvValueReturnsLastAssignment(t *testing.T) {
	env := []string{"PATH=/a", "X=1", "PATH=/b"}
	if got := EnvValue(env, "PATH"); got != "/b" {
		t.Fatalf("EnvValue = %q, want /b", got)
	}
	if got := EnvValue(env, "MISSING"); got != "" {
		t.Fatalf("EnvValue(MISSING) = %q", got)
	}
}
