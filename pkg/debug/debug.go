// Package debug provides the process logger for bugdash.
//
// Logging is quiet by default: only warnings and errors are recorded, and
// only when a sink is configured. Setting BUGDASH_DEBUG enables debug-level
// records written as JSON lines to a log file:
//
//	BUGDASH_DEBUG=1 bugdash
//
// The file defaults to $XDG_STATE_HOME/bugdash/debug.log and can be
// overridden with BUGDASH_LOG_FILE. Packages log through L(), which is a
// no-op logger until Setup runs.
//
// Usage:
//
//	import "github.com/vanderheijden86/bugdash/pkg/debug"
//
//	func myFunc() {
//	    debug.Log("processing %d bugs", count)
//	    defer debug.LogEnterExit("myFunc")()
//	}
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// enabled is true when BUGDASH_DEBUG is set
	enabled atomic.Bool
	current atomic.Pointer[zap.Logger]
)

func init() {
	enabled.Store(os.Getenv("BUGDASH_DEBUG") != "")
	current.Store(zap.NewNop())
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of debug logging. It only affects
// loggers built by Setup afterwards and the Log helpers.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// L returns the process logger.
func L() *zap.Logger {
	return current.Load()
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// SetLogger replaces the process logger and returns a func restoring the
// previous one. Tests use it with an observer core.
func SetLogger(l *zap.Logger) (restore func()) {
	if l == nil {
		l = zap.NewNop()
	}
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

// Options configures Setup.
type Options struct {
	// LogFile overrides the debug log path. When empty, a file is only
	// opened if debug logging is enabled.
	LogFile string
	// Extra cores receive every record alongside the file (for example the
	// TUI status bar).
	Extra []zapcore.Core
}

// StateDir returns the XDG state directory for bugdash.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "bugdash")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "bugdash")
}

// DefaultLogPath is where debug records go when BUGDASH_LOG_FILE is unset.
func DefaultLogPath() string {
	if p := os.Getenv("BUGDASH_LOG_FILE"); p != "" {
		return p
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "debug.log")
}

// Setup builds the process logger, installs it as L(), and returns it with
// a cleanup func that syncs, restores the previous logger and closes the
// log file.
func Setup(opts Options) (*zap.Logger, func(), error) {
	level := zapcore.WarnLevel
	if Enabled() {
		level = zapcore.DebugLevel
	}

	var cores []zapcore.Core
	closeFile := func() {}

	path := opts.LogFile
	if path == "" && Enabled() {
		path = DefaultLogPath()
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level))
		closeFile = func() { _ = f.Close() }
	}
	cores = append(cores, opts.Extra...)

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	restore := SetLogger(l)
	return l, func() {
		_ = l.Sync()
		restore()
		closeFile()
	}, nil
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !Enabled() {
		return
	}
	L().Sugar().Debugf(format, args...)
}

// LogTiming writes a timing record if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !Enabled() {
		return
	}
	L().Debug("timing", zap.String("op", name), zap.Duration("took", d))
}

// LogEnterExit logs function entry and exit with timing.
// Usage:
//
//	func myFunc() {
//	    defer debug.LogEnterExit("myFunc")()
//	    // ...
//	}
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	L().Debug("enter", zap.String("func", name))
	start := time.Now()
	return func() {
		L().Debug("exit", zap.String("func", name), zap.Duration("took", time.Since(start)))
	}
}
