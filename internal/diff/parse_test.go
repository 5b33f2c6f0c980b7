package diff

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const foldingDocument = `{
  "arch_str": "i686",
  "header": {"base": [], "current": []},
  "rows": [
    {"key": "0", "base": {"text": [{"text": "A"}]}, "current": {"text": [{"text": "A", "format": "diff_change"}]}},
    {"key": "1", "base": {"text": [{"text": "B"}]}},
    {"key": "2", "current": {"text": [{"text": "C"}]}}
  ],
  "current_score": 150,
  "max_score": 600
}`

func TestParseFoldsRows(t *testing.T) {
	result, err := Parse([]byte(foldingDocument))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Result{
		BaseText:     "A\nB\n\n",
		CurrentText:  "A\n\nC\n",
		CurrentScore: 150,
		MaxScore:     600,
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConcatenatesSegments(t *testing.T) {
	doc := `{"rows": [{"base": {"text": [{"text": "mov "}, {"text": "eax"}, {"text": ", 1"}]},
	                   "current": {"text": []}}],
	         "current_score": 0, "max_score": 100}`
	result, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.BaseText != "mov eax, 1\n" || result.CurrentText != "\n" {
		t.Fatalf("base=%q current=%q", result.BaseText, result.CurrentText)
	}
}

func TestFoldKeepsLineCountsAligned(t *testing.T) {
	a := &Side{Text: []Segment{{Text: "a"}}}
	b := &Side{Text: []Segment{{Text: "b"}, {Text: "c"}}}
	empty := &Side{}
	split := &Side{Text: []Segment{{Text: "mov eax,\n1"}}}
	crlf := &Side{Text: []Segment{{Text: "a\r\n"}, {Text: "\rb"}}}
	patterns := []Row{
		{Base: split, Current: a},
		{Current: crlf},
		{Base: a, Current: b},
		{Base: a},
		{Current: b},
		{},
		{Base: empty, Current: empty},
		{Base: empty},
	}

	// Every sequence of up to four rows drawn from patterns.
	var check func(prefix []Row, depth int)
	check = func(prefix []Row, depth int) {
		base, current := Fold(prefix)
		if strings.Count(base, "\n") != strings.Count(current, "\n") {
			t.Fatalf("unaligned fold for %d rows: base=%q current=%q", len(prefix), base, current)
		}
		if depth == 0 {
			return
		}
		for _, row := range patterns {
			check(append(append([]Row(nil), prefix...), row), depth-1)
		}
	}
	check(nil, 4)
}

func TestParseFlattensLineBreaksInSegments(t *testing.T) {
	doc := `{"rows": [{"base": {"text": [{"text": "mov eax,\n1"}]},
	                   "current": {"text": [{"text": "mov eax, 1"}]}}],
	         "current_score": 0, "max_score": 100}`
	result, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.BaseText != "mov eax, 1\n" || result.CurrentText != "mov eax, 1\n" {
		t.Fatalf("base=%q current=%q", result.BaseText, result.CurrentText)
	}
}

func TestFoldSkipsEmptyRows(t *testing.T) {
	base, current := Fold([]Row{{}, {}, {}})
	if base != "" || current != "" {
		t.Fatalf("expected empty output, got base=%q current=%q", base, current)
	}
}

func TestParseSchemaDrift(t *testing.T) {
	cases := map[string]string{
		"not json":            `{"rows": [`,
		"top-level array":     `[]`,
		"top-level null":      `null`,
		"missing rows":        `{"current_score": 0, "max_score": 0}`,
		"rows not array":      `{"rows": {}, "current_score": 0, "max_score": 0}`,
		"row not object":      `{"rows": [1], "current_score": 0, "max_score": 0}`,
		"side missing text":   `{"rows": [{"base": {}}], "current_score": 0, "max_score": 0}`,
		"text not array":      `{"rows": [{"base": {"text": "mov"}}], "current_score": 0, "max_score": 0}`,
		"segment not object":  `{"rows": [{"base": {"text": ["mov"]}}], "current_score": 0, "max_score": 0}`,
		"segment text number": `{"rows": [{"base": {"text": [{"text": 1}]}}], "current_score": 0, "max_score": 0}`,
		"segment text null":   `{"rows": [{"base": {"text": [{"text": null}]}}], "current_score": 0, "max_score": 0}`,
		"missing score":       `{"rows": [], "max_score": 0}`,
		"score string":        `{"rows": [], "current_score": "3", "max_score": 10}`,
		"missing max score":   `{"rows": [], "current_score": 0}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := Parse([]byte(doc))
			var diffErr *Error
			if !errors.As(err, &diffErr) || diffErr.Kind != KindDecode {
				t.Fatalf("expected KindDecode error, got %v", err)
			}
			if result != (Result{}) {
				t.Fatalf("expected no partial result, got %+v", result)
			}
		})
	}
}

func TestParseRows(t *testing.T) {
	rows, err := ParseRows([]byte(foldingDocument))
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	if len(rows) != 3 || rows[1].Current != nil || rows[2].Base != nil {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestMatchPercent(t *testing.T) {
	cases := []struct {
		score, max int
		want       string
	}{
		{0, 600, "100%"},
		{150, 600, "75.00%"},
		{1, 3, "66.67%"},
		{600, 600, "0.00%"},
		{900, 600, "0.00%"},
		{0, 0, "100%"},
		{5, 0, "0.00%"},
	}
	for _, tc := range cases {
		got := Result{CurrentScore: tc.score, MaxScore: tc.max}.MatchPercent()
		if got != tc.want {
			t.Errorf("MatchPercent(%d/%d) = %q, want %q", tc.score, tc.max, got, tc.want)
		}
	}
}

func TestLines(t *testing.T) {
	if diff := cmp.Diff([]string{"A", "", "C"}, Lines("A\n\nC\n")); diff != "" {
		t.Fatalf("Lines mismatch (-want +got):\n%s", diff)
	}
	if Lines("") != nil {
		t.Fatal("Lines(\"\") should be nil")
	}
}

func TestParseCompileResponse(t *testing.T) {
	wantDiff := Result{BaseText: "A\nB\n\n", CurrentText: "A\n\nC\n", CurrentScore: 150, MaxScore: 600}

	nested := `{"diff_output": ` + foldingDocument + `, "compiler_output": "warning C4013", "success": true}`
	quoted, err := json.Marshal(foldingDocument)
	if err != nil {
		t.Fatal(err)
	}
	stringified := `{"diff_output": ` + string(quoted) + `, "compiler_output": "", "success": false}`

	cases := []struct {
		name string
		doc  string
		want CompileResponse
	}{
		{"nested", nested, CompileResponse{Diff: wantDiff, CompilerOutput: "warning C4013", Success: true}},
		{"string encoded", stringified, CompileResponse{Diff: wantDiff, Success: false}},
		{"bare document", foldingDocument, CompileResponse{Diff: wantDiff, Success: true}},
		{"failed without diff", `{"diff_output": null, "compiler_output": "error C2143", "success": false}`, CompileResponse{CompilerOutput: "error C2143"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCompileResponse([]byte(tc.doc))
			if err != nil {
				t.Fatalf("ParseCompileResponse: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCompileResponseRejectsBrokenDiff(t *testing.T) {
	_, err := ParseCompileResponse([]byte(`{"diff_output": {"rows": [], "max_score": 1}}`))
	var diffErr *Error
	if !errors.As(err, &diffErr) || diffErr.Kind != KindDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}
