//go:build linux

package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Directory events that mean a watched file now has new contents. Editors
// that save by renaming a temp file over the original produce IN_MOVED_TO.
const watchMask = unix.IN_CLOSE_WRITE | unix.IN_MODIFY | unix.IN_MOVED_TO | unix.IN_CREATE

// Watcher reports edits to a set of files using inotify on their parent
// directories.
type Watcher struct {
	fd       int
	onChange func(string)

	mu     sync.Mutex
	dirs   map[int]string
	wds    map[string]int
	files  map[string]bool
	closed bool
}

// New creates a watcher that calls onChange with the absolute path of every
// changed file.
func New(onChange func(string)) (*Watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}
	return &Watcher{
		fd:       fd,
		onChange: onChange,
		dirs:     make(map[int]string),
		wds:      make(map[string]int),
		files:    make(map[string]bool),
	}, nil
}

// Add starts watching path.
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("watcher closed")
	}
	if _, ok := w.wds[dir]; !ok {
		wd, err := unix.InotifyAddWatch(w.fd, dir, watchMask)
		if err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.wds[dir] = wd
		w.dirs[wd] = dir
	}
	w.files[absPath] = true
	return nil
}

// Run delivers events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	buf := make([]byte, (unix.SizeofInotifyEvent+unix.NAME_MAX+1)*16)
	pollFds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}

	for {
		if ctx.Err() != nil || w.isClosed() {
			return nil
		}
		n, err := unix.Poll(pollFds, 100)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll inotify: %w", err)
		}
		if n == 0 {
			continue
		}

		n, err = unix.Read(w.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			if w.isClosed() {
				return nil
			}
			return fmt.Errorf("read inotify events: %w", err)
		}
		for _, path := range w.parse(buf[:n]) {
			w.onChange(path)
		}
	}
}

func (w *Watcher) parse(buf []byte) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var changed []string
	seen := map[string]bool{}
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buf) {
		event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameStart := offset + unix.SizeofInotifyEvent
		nameEnd := nameStart + int(event.Len)
		if nameEnd > len(buf) {
			break
		}
		name := string(bytes.TrimRight(buf[nameStart:nameEnd], "\x00"))
		offset = nameEnd

		if event.Mask&watchMask == 0 || name == "" {
			continue
		}
		dir, ok := w.dirs[int(event.Wd)]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if w.files[path] && !seen[path] {
			seen[path] = true
			changed = append(changed, path)
		}
	}
	return changed
}

func (w *Watcher) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Close releases the inotify descriptor.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return unix.Close(w.fd)
}
