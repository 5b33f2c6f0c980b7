package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	paths  []string
	signal chan string
}

func newRecorder() *recorder {
	return &recorder{signal: make(chan string, 64)}
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.signal <- path
}

func (r *recorder) wait(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-r.signal:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("no change reported for %s", want)
		}
	}
}

func (r *recorder) seen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.paths {
		if p == path {
			return true
		}
	}
	return false
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherReportsWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.c")
	ctxFile := filepath.Join(dir, "ctx.c")
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, src, "int a;")
	writeFile(t, ctxFile, "")
	writeFile(t, other, "")

	rec := newRecorder()
	w, err := New(rec.record)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	for _, path := range []string{src, ctxFile} {
		if err := w.Add(path); err != nil {
			t.Fatalf("Add(%s): %v", path, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeFile(t, other, "ignored change")
	writeFile(t, src, "int a; int b;")
	rec.wait(t, src)

	writeFile(t, ctxFile, "typedef int s32;")
	rec.wait(t, ctxFile)

	if rec.seen(other) {
		t.Fatalf("unwatched file %s was reported", other)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcherRunStopsOnClose(t *testing.T) {
	w, err := New(func(string) {})
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	if err := w.Add(filepath.Join(t.TempDir(), "x.c")); err == nil {
		t.Fatal("Add after Close should fail")
	}
}

func TestPollerDetectsSizeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.c")

	rec := newRecorder()
	p := NewPoller(rec.record)
	p.Interval = 10 * time.Millisecond
	if err := p.Add(path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	writeFile(t, path, "created")
	rec.wait(t, path)

	writeFile(t, path, "created and grown")
	rec.wait(t, path)
}

func TestPollerIgnoresDeletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.c")
	writeFile(t, path, "x")

	p := NewPoller(func(string) { t.Error("deletion reported as change") })
	if err := p.Add(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	changed, closed := p.scan()
	if closed || len(changed) != 0 {
		t.Fatalf("scan = %v, %v", changed, closed)
	}
}
