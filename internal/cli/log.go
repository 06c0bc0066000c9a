// Package cli implements the ecomap command-line interface.
//
// This package provides commands for inspecting company tables, building
// and rendering ecosystem maps, editing saved maps in the terminal, serving
// the HTTP editor API and managing the artifact cache. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - columns: Show the columns of a CSV or JSON file and the suggested mapping
//   - build: Import a table, lay it out and export it (optionally --watch)
//   - render: Export a saved map
//   - edit: Move, resize and recolor boxes of a saved map in the terminal
//   - serve: Run the HTTP API
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --quiet
// (-q) for warnings only; ECOMAP_LOG_LEVEL sets the default. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/matzehuels/ecomap/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// EnvLogLevel names the environment variable that sets the default level.
const EnvLogLevel = "ECOMAP_LOG_LEVEL"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// ResolveLevel picks the log level: --verbose wins over --quiet, and
// both win over env (the value of EnvLogLevel). An empty env means info.
func ResolveLevel(verbose, quiet bool, env string) (log.Level, error) {
	switch {
	case verbose:
		return log.DebugLevel, nil
	case quiet:
		return log.WarnLevel, nil
	}
	env = strings.TrimSpace(env)
	if env == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(env))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	return level, nil
}

// timer measures a command. mark logs the time since the previous mark
// at debug level; done logs the total at info level.
type timer struct {
	logger      *log.Logger
	start, last time.Time
}

func startTimer(l *log.Logger) *timer {
	now := time.Now()
	return &timer{logger: l, start: now, last: now}
}

func (t *timer) mark(stage string) {
	now := time.Now()
	t.logger.Debug(stage, "took", now.Sub(t.last).Round(time.Millisecond))
	t.last = now
}

func (t *timer) done(format string, args ...any) {
	elapsed := time.Since(t.start).Round(time.Millisecond)
	t.logger.Infof(format+" (%s)", append(args, elapsed)...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the command logger, or log.Default outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
