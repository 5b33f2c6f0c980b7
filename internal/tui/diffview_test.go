package tui

import (
	"strings"
	"testing"

	"decompdesk/internal/diff"
)

func TestDiffViewPlain(t *testing.T) {
	result := diff.Result{
		BaseText:     "push ebp\nmov ebp, esp\n\n",
		CurrentText:  "push ebp\n\nret\n",
		CurrentScore: 150,
		MaxScore:     600,
	}
	out := DiffView{Width: 60}.Render(result)

	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[0], "TARGET") || !strings.Contains(lines[0], "CURRENT") {
		t.Fatalf("missing headers: %q", lines[0])
	}
	for i, want := range [][2]string{{"push ebp", "push ebp"}, {"mov ebp, esp", ""}, {"", "ret"}} {
		line := lines[i+1]
		left, right, ok := strings.Cut(line, " | ")
		if !ok {
			t.Fatalf("line %d has no gutter: %q", i+1, line)
		}
		if strings.TrimSpace(left) != want[0] || strings.TrimSpace(right) != want[1] {
			t.Fatalf("line %d = %q | %q, want %q | %q", i+1, left, right, want[0], want[1])
		}
	}
	if !strings.Contains(out, "score 150/600 (75.00%)") {
		t.Fatalf("missing score footer:\n%s", out)
	}
}

func TestDiffViewPerfectScore(t *testing.T) {
	out := DiffView{}.Score(diff.Result{CurrentScore: 0, MaxScore: 600})
	if out != "score 0/600 (100%)" {
		t.Fatalf("score = %q", out)
	}
}
