package scratch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
)

// MissingEntryError names a required file absent from an exported scratch.
type MissingEntryError struct {
	Entry string
}

func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("exported scratch has no %s", e.Entry)
}

// ImportResult summarises an imported export.
type ImportResult struct {
	// HasAsm is set when the export carried target.s.
	HasAsm bool
}

// exportFiles maps entries of an exported scratch zip to workspace files.
// The export's code.c is the user's source, stored here as src.c.
var exportFiles = []struct {
	entry    string
	file     string
	required bool
}{
	{TargetObject, TargetObject, true},
	{CurrentObject, CurrentObject, true},
	{CodeFile, SourceFile, true},
	{ContextFile, ContextFile, true},
	{TargetAsm, TargetAsm, false},
}

// ImportExport unpacks an exported scratch zip into the workspace. Every
// required entry is checked before anything is written.
func (w *Workspace) ImportExport(data []byte) (ImportResult, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ImportResult{}, fmt.Errorf("open exported scratch: %w", err)
	}
	entries := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		entries[f.Name] = f
	}

	for _, ef := range exportFiles {
		if _, ok := entries[ef.entry]; !ok && ef.required {
			return ImportResult{}, &MissingEntryError{Entry: ef.entry}
		}
	}

	var result ImportResult
	for _, ef := range exportFiles {
		f, ok := entries[ef.entry]
		if !ok {
			continue
		}
		if err := writeEntry(f, w.Path(ef.file)); err != nil {
			return ImportResult{}, err
		}
		if ef.entry == TargetAsm {
			result.HasAsm = true
		}
	}
	if err := os.WriteFile(w.Path(CodeFile), []byte(codeWrapper), 0o644); err != nil {
		return ImportResult{}, fmt.Errorf("write %s: %w", CodeFile, err)
	}
	return result, nil
}

func writeEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
