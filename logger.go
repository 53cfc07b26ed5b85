package frameloop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/frameloop/shader"
	"github.com/gogpu/wgpu/hal"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for frameloop, the shader package and the
// HAL backends. By default frameloop produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used by frameloop:
//   - [slog.LevelDebug]: per-frame diagnostics (chain rebuilds, pipeline selection)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, surface configured)
//   - [slog.LevelWarn]: deferred or skipped frames
//   - [slog.LevelError]: fatal frame errors
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	shader.SetLogger(l)
	hal.SetLogger(l)
}

// Logger returns the current logger used by frameloop.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// slogger returns the package logger. All logging in frameloop goes
// through this function.
func slogger() *slog.Logger { return loggerPtr.Load() }
