package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork creates a bubbletea program, launches workFn in a goroutine,
// and blocks until the program exits. Closing the program early (ctrl+c)
// does not stop workFn; callers cancel their own context for that.
func RunWithWork(out io.Writer, model ProgressModel, workFn func(send func(tea.Msg))) error {
	p := tea.NewProgram(model, tea.WithOutput(out))

	go func() {
		// Let bubbletea render the initial frame before updates arrive.
		time.Sleep(50 * time.Millisecond)
		workFn(p.Send)
		p.Send(WorkDoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(ProgressModel); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

// ProgressReporter returns a byte progress callback that updates row key.
// Updates are throttled so large downloads do not flood the program.
func ProgressReporter(send func(tea.Msg), key string) func(read, total int64) {
	var last time.Time
	return func(read, total int64) {
		now := time.Now()
		if read != total && now.Sub(last) < 100*time.Millisecond {
			return
		}
		last = now
		send(RowProgressMsg{Key: key, Read: read, Total: total})
	}
}
