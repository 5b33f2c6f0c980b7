package diff

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Parse decodes diff.py's JSON output. The document must hold a rows array,
// where every present side carries a text array of segments with a string
// text field, plus numeric current_score and max_score. Any deviation is a
// KindDecode error and no partial result is returned.
func Parse(data []byte) (Result, error) {
	rows, currentScore, maxScore, err := parseDocument(data)
	if err != nil {
		return Result{}, err
	}
	base, current := Fold(rows)
	return Result{
		BaseText:     base,
		CurrentText:  current,
		CurrentScore: currentScore,
		MaxScore:     maxScore,
	}, nil
}

// ParseRows decodes only the rows of a diff document, validated like Parse.
func ParseRows(data []byte) ([]Row, error) {
	rows, _, _, err := parseDocument(data)
	return rows, err
}

func parseDocument(data []byte) ([]Row, int, int, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, 0, decodeErr("decode diff output: %w", err)
	}
	if doc == nil {
		return nil, 0, 0, decodeErr("diff output is not an object")
	}

	rawRows, ok := doc["rows"]
	if !ok || isNull(rawRows) {
		return nil, 0, 0, decodeErr("diff output has no rows")
	}
	var rowList []json.RawMessage
	if err := json.Unmarshal(rawRows, &rowList); err != nil {
		return nil, 0, 0, decodeErr("rows: %w", err)
	}

	rows := make([]Row, 0, len(rowList))
	for i, rawRow := range rowList {
		row, err := parseRow(rawRow)
		if err != nil {
			return nil, 0, 0, decodeErr("rows[%d]: %w", i, err)
		}
		rows = append(rows, row)
	}

	currentScore, err := requireInt(doc, "current_score")
	if err != nil {
		return nil, 0, 0, decodeErr("%w", err)
	}
	maxScore, err := requireInt(doc, "max_score")
	if err != nil {
		return nil, 0, 0, decodeErr("%w", err)
	}
	return rows, currentScore, maxScore, nil
}

func parseRow(raw json.RawMessage) (Row, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Row{}, err
	}
	if fields == nil {
		return Row{}, fmt.Errorf("row is not an object")
	}
	var row Row
	for _, name := range []string{"base", "current"} {
		rawSide, ok := fields[name]
		if !ok || isNull(rawSide) {
			continue
		}
		side, err := parseSide(rawSide)
		if err != nil {
			return Row{}, fmt.Errorf("%s: %v", name, err)
		}
		if name == "base" {
			row.Base = side
		} else {
			row.Current = side
		}
	}
	return row, nil
}

func parseSide(raw json.RawMessage) (*Side, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("side is not an object")
	}
	rawText, ok := fields["text"]
	if !ok || isNull(rawText) {
		return nil, fmt.Errorf("missing text")
	}
	var segments []json.RawMessage
	if err := json.Unmarshal(rawText, &segments); err != nil {
		return nil, fmt.Errorf("text: %v", err)
	}

	side := &Side{Text: make([]Segment, 0, len(segments))}
	for i, rawSeg := range segments {
		var segFields map[string]json.RawMessage
		if err := json.Unmarshal(rawSeg, &segFields); err != nil || segFields == nil {
			return nil, fmt.Errorf("text[%d]: segment is not an object", i)
		}
		rawValue, ok := segFields["text"]
		if !ok || isNull(rawValue) {
			return nil, fmt.Errorf("text[%d]: missing text", i)
		}
		var value string
		if err := json.Unmarshal(rawValue, &value); err != nil {
			return nil, fmt.Errorf("text[%d]: text is not a string", i)
		}
		side.Text = append(side.Text, Segment{Text: value})
	}
	return side, nil
}

func requireInt(doc map[string]json.RawMessage, key string) (int, error) {
	raw, ok := doc[key]
	if !ok || isNull(raw) {
		return 0, fmt.Errorf("missing %s", key)
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("%s is not a number", key)
	}
	return int(value), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// CompileResponse is a compile result returned by a remote build server: the
// diff document nested under diff_output plus the compiler's own output.
type CompileResponse struct {
	Diff           Result `json:"diff"`
	CompilerOutput string `json:"compiler_output"`
	Success        bool   `json:"success"`
}

// ParseCompileResponse accepts either a remote compile response, whose diff
// sits under diff_output, or a bare diff document. A failed compile may carry
// no diff at all.
func ParseCompileResponse(data []byte) (CompileResponse, error) {
	var envelope struct {
		DiffOutput     json.RawMessage `json:"diff_output"`
		CompilerOutput string          `json:"compiler_output"`
		Success        *bool           `json:"success"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return CompileResponse{}, decodeErr("decode compile response: %w", err)
	}
	if len(envelope.DiffOutput) == 0 || isNull(envelope.DiffOutput) {
		if envelope.Success != nil && !*envelope.Success {
			return CompileResponse{CompilerOutput: envelope.CompilerOutput}, nil
		}
		result, err := Parse(data)
		if err != nil {
			return CompileResponse{}, err
		}
		return CompileResponse{Diff: result, Success: true}, nil
	}

	inner := envelope.DiffOutput
	// Some servers send the document as a JSON string.
	var encoded string
	if json.Unmarshal(inner, &encoded) == nil {
		inner = json.RawMessage(encoded)
	}
	result, err := Parse(inner)
	if err != nil {
		return CompileResponse{}, err
	}
	resp := CompileResponse{Diff: result, CompilerOutput: envelope.CompilerOutput, Success: true}
	if envelope.Success != nil {
		resp.Success = *envelope.Success
	}
	return resp, nil
}
