package cli

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/spf13/cobra"

	"decompdesk/internal/compile"
	"decompdesk/internal/watch"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <slug>",
		Short: "Recompile a scratch whenever its sources change",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := newCompileSession(a, args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	var printMu sync.Mutex

	compileOnce := func() {
		report, outcome, err := session.run(ctx)
		if errors.Is(err, compile.ErrInFlight) {
			a.logger.Printf("watch %s: compile already running, change dropped", session.ws.Slug)
			return
		}
		printMu.Lock()
		defer printMu.Unlock()
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		if outputJSON {
			emitWatchJSON(cmd, a.logger, session.ws.Slug, report)
			return
		}
		printOutcome(out, session.ws.Meta.Compiler, outcome)
	}

	debouncer := compile.NewDebouncer(a.cfg.Debounce(), compileOnce)
	defer debouncer.Stop()

	watcher, err := watch.New(func(path string) {
		a.logger.Printf("watch %s: %s changed", session.ws.Slug, path)
		debouncer.Trigger()
	})
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, path := range session.ws.WatchedFiles() {
		if err := watcher.Add(path); err != nil {
			return err
		}
	}

	if !outputJSON {
		fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", session.ws.Dir)
	}
	compileOnce()
	return watcher.Run(ctx)
}

// emitWatchJSON writes one report. A failed write is logged and the watch
// keeps running.
func emitWatchJSON(cmd *cobra.Command, logger *log.Logger, slug string, v any) {
	if err := writeJSON(cmd, v); err != nil {
		logger.Printf("watch %s: %v", slug, err)
	}
}
