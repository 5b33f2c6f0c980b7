package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultPollInterval is how often a Poller stats its files.
const DefaultPollInterval = 250 * time.Millisecond

type fileStamp struct {
	modTime time.Time
	size    int64
	exists  bool
}

func stamp(path string) fileStamp {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size(), exists: true}
}

// Poller detects changes by comparing modification time and size.
type Poller struct {
	Interval time.Duration

	onChange func(string)
	mu       sync.Mutex
	files    map[string]fileStamp
	closed   bool
}

// NewPoller creates a poller reporting changed paths to onChange.
func NewPoller(onChange func(string)) *Poller {
	return &Poller{
		Interval: DefaultPollInterval,
		onChange: onChange,
		files:    make(map[string]fileStamp),
	}
}

// Add starts tracking path. The file does not have to exist yet.
func (p *Poller) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("watcher closed")
	}
	p.files[absPath] = stamp(absPath)
	return nil
}

// Run polls until ctx is done or the poller is closed.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		changed, closed := p.scan()
		if closed {
			return nil
		}
		for _, path := range changed {
			p.onChange(path)
		}
	}
}

func (p *Poller) scan() ([]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, true
	}
	var changed []string
	for path, old := range p.files {
		current := stamp(path)
		if current != old {
			p.files[path] = current
			if current.exists {
				changed = append(changed, path)
			}
		}
	}
	return changed, false
}

// Close stops Run.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
