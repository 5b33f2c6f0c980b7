package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// StatusWriter prints a spinning status line while a compile or diff runs.
// The line is rewritten in place every 100ms.
type StatusWriter struct {
	w       io.Writer
	mu      sync.Mutex
	message string
	started time.Time
	done    chan struct{}
	stopped bool
}

// NewStatusWriter starts a background spinner rendering to w.
func NewStatusWriter(w io.Writer) *StatusWriter {
	sw := &StatusWriter{
		w:       w,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	go sw.loop()
	return sw
}

// Update changes the message and restarts the elapsed timer.
func (sw *StatusWriter) Update(msg string) {
	sw.mu.Lock()
	sw.message = msg
	sw.started = time.Now()
	sw.mu.Unlock()
}

// Finish stops the spinner and leaves line in its place, followed by the
// time spent in the last phase.
func (sw *StatusWriter) Finish(line string) {
	sw.mu.Lock()
	elapsed := time.Since(sw.started)
	sw.mu.Unlock()
	sw.Stop()
	fmt.Fprintf(sw.w, "%s (%s)\n", line, formatElapsed(elapsed))
}

// Stop clears the status line and stops the spinner.
func (sw *StatusWriter) Stop() {
	sw.mu.Lock()
	if sw.stopped {
		sw.mu.Unlock()
		return
	}
	sw.stopped = true
	close(sw.done)
	fmt.Fprint(sw.w, "\r\033[K")
	sw.mu.Unlock()
}

func (sw *StatusWriter) loop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-sw.done:
			return
		case <-ticker.C:
		}
		sw.mu.Lock()
		if !sw.stopped {
			fmt.Fprintf(sw.w, "\r\033[K%s %s (%s)", spinnerFrames[frame%len(spinnerFrames)], sw.message, formatElapsed(time.Since(sw.started)))
		}
		sw.mu.Unlock()
	}
}

// formatElapsed formats a duration for display in the status line.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
