package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gogpu/gputypes"
)

// isAuto reports whether s selects the default.
func isAuto(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "auto")
}

func lookup[T any](kind, name string, table map[string]T) (T, error) {
	v, ok := table[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: unknown %s %q", ErrInvalid, kind, name)
	}
	return v, nil
}

var backends = map[string]gputypes.Backend{
	"vulkan": gputypes.BackendVulkan,
	"metal":  gputypes.BackendMetal,
	"dx12":   gputypes.BackendDX12,
	"gl":     gputypes.BackendGL,
	"noop":   gputypes.BackendEmpty,
}

// BackendVariant returns the requested HAL backend. ok is false for "auto".
func (c Config) BackendVariant() (variant gputypes.Backend, ok bool, err error) {
	if isAuto(c.GPU.Backend) {
		return gputypes.BackendEmpty, false, nil
	}
	variant, err = lookup("backend", c.GPU.Backend, backends)
	return variant, err == nil, err
}

var powerPreferences = map[string]gputypes.PowerPreference{
	"none":             gputypes.PowerPreferenceNone,
	"low-power":        gputypes.PowerPreferenceLowPower,
	"high-performance": gputypes.PowerPreferenceHighPerformance,
}

// Power returns the adapter power preference.
func (c Config) Power() (gputypes.PowerPreference, error) {
	if isAuto(c.GPU.PowerPreference) {
		return gputypes.PowerPreferenceNone, nil
	}
	return lookup("power preference", c.GPU.PowerPreference, powerPreferences)
}

var presentModes = map[string]gputypes.PresentMode{
	"fifo":         gputypes.PresentModeFifo,
	"fifo-relaxed": gputypes.PresentModeFifoRelaxed,
	"immediate":    gputypes.PresentModeImmediate,
	"mailbox":      gputypes.PresentModeMailbox,
}

// Present returns the requested present mode; "auto" is Undefined and
// lets the surface pick.
func (c Config) Present() (gputypes.PresentMode, error) {
	if isAuto(c.GPU.PresentMode) {
		return gputypes.PresentModeUndefined, nil
	}
	return lookup("present mode", c.GPU.PresentMode, presentModes)
}

var textureFormats = map[string]gputypes.TextureFormat{
	"bgra8unorm-srgb": gputypes.TextureFormatBGRA8UnormSrgb,
	"bgra8unorm":      gputypes.TextureFormatBGRA8Unorm,
	"rgba8unorm-srgb": gputypes.TextureFormatRGBA8UnormSrgb,
	"rgba8unorm":      gputypes.TextureFormatRGBA8Unorm,
}

// TextureFormat returns the requested surface format; "auto" is Undefined.
func (c Config) TextureFormat() (gputypes.TextureFormat, error) {
	if isAuto(c.GPU.Format) {
		return gputypes.TextureFormatUndefined, nil
	}
	return lookup("format", c.GPU.Format, textureFormats)
}

// LogLevel parses the log level (debug, info, warn, error). Empty is info.
func (c Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(c.Log.Level) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	return l, nil
}

// LogFormat is the output encoding of the demo logger.
type LogFormat uint8

const (
	LogFormatAuto LogFormat = iota
	LogFormatText
	LogFormatJSON
)

var logFormats = map[string]LogFormat{
	"text": LogFormatText,
	"json": LogFormatJSON,
}

// LogFormat returns the configured log encoding.
func (c Config) LogFormat() (LogFormat, error) {
	if isAuto(c.Log.Format) {
		return LogFormatAuto, nil
	}
	return lookup("log format", c.Log.Format, logFormats)
}
