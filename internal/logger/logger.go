// Package logger is the process-wide log for docsearch. Debug, Info, Warn
// and Section are verbose-only (--verbose); Error always prints. Everything
// goes to stderr because the MCP stdio transport owns stdout.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
)

var (
	mu         sync.RWMutex
	verbose    bool
	timestamps bool
	output     io.Writer = os.Stderr
)

// now is replaced in tests.
var now = time.Now

// SetVerbose enables or disables verbose-only levels.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose-only levels print.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetTimestamps prefixes every line with the local time. The MCP server
// turns this on since its log outlives any single command.
func SetTimestamps(on bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = on
}

// SetOutput redirects the log; tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug traces pipeline internals in verbose mode.
func Debug(format string, args ...any) { logf(levelDebug, format, args...) }

// Info reports progress in verbose mode.
func Info(format string, args ...any) { logf(levelInfo, format, args...) }

// Warn is used for degraded paths: dense-only search, skipped reranking,
// per-collection failures.
func Warn(format string, args ...any) { logf(levelWarn, format, args...) }

// Error prints regardless of verbose mode.
func Error(format string, args ...any) { logf(levelError, format, args...) }

// Section prints a blank line and a header in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n%s=== %s ===\n", prefix(), name)
	}
}

func logf(lvl level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && lvl != levelError {
		return
	}
	fmt.Fprintf(output, "%s[%s] %s\n", prefix(), lvl, fmt.Sprintf(format, args...))
}

// prefix must be called with mu held.
func prefix() string {
	if !timestamps {
		return ""
	}
	return now().Format(time.DateTime) + " "
}
