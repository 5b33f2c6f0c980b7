package diff

import (
	"fmt"
	"strings"
)

// Segment is one formatted run of text inside a diff cell.
type Segment struct {
	Text string `json:"text"`
}

// Side is one column of a diff row.
type Side struct {
	Text []Segment `json:"text"`
}

// lineBreaks flattens breaks inside segment text so a Side is always exactly
// one line of folded output.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Line concatenates the segments of s. Embedded line breaks become spaces.
func (s Side) Line() string {
	var b strings.Builder
	for _, seg := range s.Text {
		lineBreaks.WriteString(&b, seg.Text)
	}
	return b.String()
}

// Row pairs the target (Base) and compiled (Current) instruction. Either side
// may be missing.
type Row struct {
	Base    *Side `json:"base,omitempty"`
	Current *Side `json:"current,omitempty"`
}

// Result is a folded diff: two texts with the same number of lines and the
// tool's score. A lower score is a closer match; zero is identical.
type Result struct {
	BaseText     string `json:"base_text"`
	CurrentText  string `json:"current_text"`
	CurrentScore int    `json:"current_score"`
	MaxScore     int    `json:"max_score"`
}

// Fold turns rows into two line-aligned texts. A row with one side emits an
// empty line for the other; a row with neither side emits nothing.
func Fold(rows []Row) (base, current string) {
	var b, c strings.Builder
	for _, row := range rows {
		if row.Base == nil && row.Current == nil {
			continue
		}
		if row.Base != nil {
			b.WriteString(row.Base.Line())
		}
		b.WriteByte('\n')
		if row.Current != nil {
			c.WriteString(row.Current.Line())
		}
		c.WriteByte('\n')
	}
	return b.String(), c.String()
}

// Perfect reports a zero score.
func (r Result) Perfect() bool {
	return r.CurrentScore == 0
}

// MatchRatio is the match as a fraction in [0, 1].
func (r Result) MatchRatio() float64 {
	if r.MaxScore <= 0 {
		if r.CurrentScore == 0 {
			return 1
		}
		return 0
	}
	ratio := 1 - float64(r.CurrentScore)/float64(r.MaxScore)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// MatchPercent formats the match like "87.50%"; a full match is "100%".
func (r Result) MatchPercent() string {
	pct := r.MatchRatio() * 100
	if pct >= 100 {
		return "100%"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// Lines splits a folded text into its lines without the trailing empty one.
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
