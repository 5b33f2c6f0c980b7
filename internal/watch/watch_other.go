//go:build !linux

package watch

import "context"

// Watcher reports edits to a set of files. Hosts without inotify poll.
type Watcher struct {
	poller *Poller
}

// New creates a watcher that calls onChange with the absolute path of every
// changed file.
func New(onChange func(string)) (*Watcher, error) {
	return &Watcher{poller: NewPoller(onChange)}, nil
}

// Add starts watching path.
func (w *Watcher) Add(path string) error {
	return w.poller.Add(path)
}

// Run delivers events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	return w.poller.Run(ctx)
}

// Close releases the watcher.
func (w *Watcher) Close() error {
	return w.poller.Close()
}
