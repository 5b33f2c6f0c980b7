package scratch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"decompdesk/internal/compile"
	"decompdesk/internal/toolchain"
)

// Files kept in a scratch workspace.
const (
	MetaFile      = "scratch.yaml"
	CodeFile      = "code.c"
	ContextFile   = "ctx.c"
	SourceFile    = "src.c"
	TargetObject  = "target.o"
	CurrentObject = "current.o"
	TargetAsm     = "target.s"
)

// codeWrapper is compiled instead of src.c so context declarations come first.
const codeWrapper = "#include \"ctx.c\"\n#include \"src.c\""

// Meta is the scratch description stored in scratch.yaml.
type Meta struct {
	Slug          string `json:"slug" yaml:"slug"`
	Name          string `json:"name" yaml:"name"`
	Platform      string `json:"platform" yaml:"platform"`
	Compiler      string `json:"compiler" yaml:"compiler"`
	CompilerFlags string `json:"compiler_flags" yaml:"compiler_flags"`
	Score         *int   `json:"score,omitempty" yaml:"score,omitempty"`
	MaxScore      *int   `json:"max_score,omitempty" yaml:"max_score,omitempty"`
}

// Workspace is the working directory of one scratch.
type Workspace struct {
	Dir  string
	Slug string
	Meta Meta
}

// ErrInvalidSlug is returned for slugs that are not a single path element.
var ErrInvalidSlug = errors.New("invalid scratch slug")

// Open creates or reopens the workspace {root}/{slug}, loads scratch.yaml
// when present and writes the code.c wrapper.
func Open(root, slug string) (*Workspace, error) {
	if err := validateSlug(slug); err != nil {
		return nil, err
	}
	dir := filepath.Join(root, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	ws := &Workspace{Dir: dir, Slug: slug, Meta: Meta{Slug: slug}}
	if err := ws.loadMeta(); err != nil {
		return nil, err
	}
	if err := os.WriteFile(ws.Path(CodeFile), []byte(codeWrapper), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", CodeFile, err)
	}
	return ws, nil
}

func validateSlug(slug string) error {
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, `/\:`) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

func (w *Workspace) loadMeta() error {
	data, err := os.ReadFile(w.Path(MetaFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", MetaFile, err)
	}
	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("parse %s: %w", MetaFile, err)
	}
	if meta.Slug == "" {
		meta.Slug = w.Slug
	}
	w.Meta = meta
	return nil
}

// SaveMeta writes scratch.yaml.
func (w *Workspace) SaveMeta() error {
	data, err := yaml.Marshal(w.Meta)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", MetaFile, err)
	}
	if err := os.WriteFile(w.Path(MetaFile), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", MetaFile, err)
	}
	return nil
}

// WriteSources stores the context and source and refreshes the wrapper.
func (w *Workspace) WriteSources(context, source string) error {
	files := []struct{ name, body string }{
		{ContextFile, context},
		{SourceFile, source},
		{CodeFile, codeWrapper},
	}
	for _, f := range files {
		if err := os.WriteFile(w.Path(f.name), []byte(f.body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

// ReadSources returns the context and source. Missing files read as empty.
func (w *Workspace) ReadSources() (context, source string, err error) {
	read := func(name string) (string, error) {
		data, err := os.ReadFile(w.Path(name))
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		return string(data), nil
	}
	if context, err = read(ContextFile); err != nil {
		return "", "", err
	}
	if source, err = read(SourceFile); err != nil {
		return "", "", err
	}
	return context, source, nil
}

// WatchedFiles lists the files whose edits should trigger a compile.
func (w *Workspace) WatchedFiles() []string {
	return []string{w.Path(ContextFile), w.Path(SourceFile)}
}

// Job describes a local compile of the workspace with tc. A nil tc yields a
// job that routes to the remote compiler.
func (w *Workspace) Job(tc *toolchain.Descriptor) compile.Job {
	return compile.Job{
		Target:    w.Slug,
		Dir:       w.Dir,
		Source:    CodeFile,
		Flags:     w.Meta.CompilerFlags,
		Symbol:    w.Meta.Name,
		Expected:  w.Path(TargetObject),
		Toolchain: tc,
	}
}

// RecordScore stores the latest diff score in scratch.yaml.
func (w *Workspace) RecordScore(score, maxScore int) error {
	w.Meta.Score = &score
	w.Meta.MaxScore = &maxScore
	return w.SaveMeta()
}

// List returns the metadata of every workspace under root that has a
// scratch.yaml, sorted by slug. A missing root lists nothing.
func List(root string) ([]Meta, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list scratches: %w", err)
	}
	var metas []Meta
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ws := &Workspace{Dir: filepath.Join(root, entry.Name()), Slug: entry.Name(), Meta: Meta{Slug: entry.Name()}}
		if _, err := os.Stat(ws.Path(MetaFile)); err != nil {
			continue
		}
		if err := ws.loadMeta(); err != nil {
			return nil, err
		}
		metas = append(metas, ws.Meta)
	}
	return metas, nil
}
