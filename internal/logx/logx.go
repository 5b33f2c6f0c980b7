package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// KeepLogs is how many log files Prune leaves behind.
const KeepLogs = 20

// New opens a log file named after the current time and command inside
// logsDir, e.g. 20240102-150405-compile.log, and removes old logs beyond
// KeepLogs. Close the returned closer when done.
func New(logsDir, command string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}
	if err := Prune(logsDir, KeepLogs-1); err != nil {
		return nil, nil, err
	}

	name := time.Now().Format("20060102-150405")
	if command != "" {
		name += "-" + strings.ReplaceAll(command, " ", "-")
	}
	file, err := os.OpenFile(filepath.Join(logsDir, name+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := log.New(file, "", log.LstdFlags|log.Lmicroseconds)
	return logger, file, nil
}

// Prune deletes the oldest .log files in logsDir until at most keep remain.
// Names start with a timestamp, so lexical order is age order.
func Prune(logsDir string, keep int) error {
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list logs: %w", err)
	}
	var logs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			logs = append(logs, e.Name())
		}
	}
	if len(logs) <= keep {
		return nil
	}
	sort.Strings(logs)
	for _, name := range logs[:len(logs)-max(keep, 0)] {
		if err := os.Remove(filepath.Join(logsDir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("prune log %s: %w", name, err)
		}
	}
	return nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
