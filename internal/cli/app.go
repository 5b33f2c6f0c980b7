package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"decompdesk/internal/compile"
	"decompdesk/internal/config"
	"decompdesk/internal/diff"
	"decompdesk/internal/logx"
	"decompdesk/internal/paths"
	"decompdesk/internal/platform"
	"decompdesk/internal/toolchain"
)

// app bundles the resolved home layout, configuration and log for one
// command invocation.
type app struct {
	paths  paths.Paths
	cfg    config.Config
	logger *log.Logger

	closers []io.Closer
}

// loadApp resolves the home directory, loads .env files and config.yaml and
// opens a log file named after cmd.
func loadApp(cmd *cobra.Command) (*app, error) {
	// A .env in the working directory may point at another home.
	if err := config.LoadEnv(".env"); err != nil {
		return nil, err
	}
	pp, err := paths.Resolve(homeDir)
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnv(pp.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	pp = paths.ApplyConfig(pp, cfg)

	if cfg.Diff.Python == config.Default().Diff.Python {
		if ok, _ := paths.FileExists(pp.VenvPython()); ok {
			cfg.Diff.Python = pp.VenvPython()
		}
	}

	a := &app{paths: pp, cfg: cfg}
	logger, closer, err := logx.New(pp.LogsDir, commandName(cmd))
	if err != nil {
		a.logger = logx.Discard()
	} else {
		a.logger = logger
		a.closers = append(a.closers, closer)
	}
	return a, nil
}

// commandName is cmd's path without the program name, e.g. "toolchains install".
func commandName(cmd *cobra.Command) string {
	name := cmd.CommandPath()
	if root := cmd.Root(); root != cmd {
		name = strings.TrimPrefix(name, root.Name()+" ")
	}
	return name
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
	a.closers = nil
}

// registry opens the toolchain registry with the install ledger attached.
// A ledger held by another process is logged and skipped.
func (a *app) registry() *toolchain.Registry {
	opts := []toolchain.Option{toolchain.WithLogger(a.logger)}
	ledger, err := toolchain.OpenLedger(a.paths.LedgerFile)
	if err != nil {
		a.logger.Printf("install ledger unavailable: %v", err)
	} else {
		opts = append(opts, toolchain.WithLedger(ledger))
		a.closers = append(a.closers, ledger)
	}
	return toolchain.NewRegistry(a.paths.ToolchainsDir, opts...)
}

func (a *app) fetcher(progress func(read, total int64)) toolchain.Fetcher {
	return toolchain.Fetcher{
		Client:   &http.Client{Timeout: a.cfg.DownloadTimeout()},
		Progress: progress,
	}
}

func (a *app) pipeline() (*diff.Pipeline, error) {
	mode, err := diff.ParseExchangeMode(a.cfg.Diff.Exchange)
	if err != nil {
		return nil, err
	}
	var cache *diff.Cache
	if n := a.cfg.Diff.CacheEntries; n > 0 {
		if cache, err = diff.NewCache(n); err != nil {
			return nil, err
		}
	}
	return &diff.Pipeline{
		ToolDir: a.paths.DiffToolDir,
		Python:  a.cfg.Diff.Python,
		Mode:    mode,
		Executor: platform.Executor{
			Adapter: platform.SelectHost(platform.ABIPOSIX),
			Runner:  platform.CmdRunner{},
			Logger:  a.logger,
		},
		Cache:  cache,
		Logger: a.logger,
	}, nil
}

func (a *app) orchestrator(reg *toolchain.Registry, differ compile.Differ) *compile.Orchestrator {
	return &compile.Orchestrator{
		Toolchains: reg,
		Differ:     differ,
		Runner:     platform.CmdRunner{},
		Logger:     a.logger,
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(data)); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func joinComma(items []string) string {
	if len(items) == 0 {
		return ""
	}
	result := items[0]
	for _, item := range items[1:] {
		result += ", " + item
	}
	return result
}
