package frameloop

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrDeviceUnavailable is returned by Initialize when no adapter is
	// compatible with the surface target or the device cannot be opened.
	ErrDeviceUnavailable = errors.New("frameloop: no compatible GPU device")

	// ErrShaderLink is returned when a shader binary is malformed, does not
	// match the declared vertex layout, or the pipeline cannot be built.
	ErrShaderLink = errors.New("frameloop: shader link failed")

	// ErrFatal marks a frame failure the render loop cannot recover from
	// (device lost, out of memory).
	ErrFatal = errors.New("frameloop: fatal frame error")

	// ErrFrameDeferred reports that the presentable-image chain was lost and
	// rebuilt; the frame was not drawn.
	ErrFrameDeferred = errors.New("frameloop: frame deferred after chain rebuild")

	// ErrFrameSkipped reports a transient presentation error; the frame was
	// not drawn and the chain remains valid.
	ErrFrameSkipped = errors.New("frameloop: frame skipped")

	// ErrZeroArea is returned when a surface is created with a zero
	// dimension.
	ErrZeroArea = errors.New("frameloop: surface width and height must be non-zero")

	// ErrImageOutstanding is returned when the chain is rebuilt while an
	// acquired image has not been released.
	ErrImageOutstanding = errors.New("frameloop: acquired image not released")

	// ErrRendererFailed is returned by Render after a fatal error has
	// terminated the renderer.
	ErrRendererFailed = errors.New("frameloop: renderer stopped after fatal error")

	// ErrClosed is returned when using a destroyed context or state.
	ErrClosed = errors.New("frameloop: use of closed context")
)

// Severity classifies an error by how the render loop must react to it.
type Severity uint8

const (
	// SeverityNone means no error.
	SeverityNone Severity = iota
	// SeveritySkip: log and skip the frame; the loop continues.
	SeveritySkip
	// SeverityDeferred: the chain was rebuilt; the frame is skipped.
	SeverityDeferred
	// SeverityFatal: terminate the render loop.
	SeverityFatal
	// SeverityBuildFatal: initialization failed; abort startup.
	SeverityBuildFatal
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "None"
	case SeveritySkip:
		return "Skip"
	case SeverityDeferred:
		return "Deferred"
	case SeverityFatal:
		return "Fatal"
	case SeverityBuildFatal:
		return "BuildFatal"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

// FrameError describes a failed frame operation.
type FrameError struct {
	Severity Severity
	Op       string
	Err      error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frameloop: %s: %v", e.Op, e.Err)
}

// Unwrap returns the sentinel for the severity and the underlying cause so
// that errors.Is matches both.
func (e *FrameError) Unwrap() []error {
	var sentinel error
	switch e.Severity {
	case SeverityFatal:
		sentinel = ErrFatal
	case SeverityDeferred:
		sentinel = ErrFrameDeferred
	case SeveritySkip:
		sentinel = ErrFrameSkipped
	}
	if sentinel == nil {
		return []error{e.Err}
	}
	return []error{sentinel, e.Err}
}

func frameError(sev Severity, op string, err error) error {
	return &FrameError{Severity: sev, Op: op, Err: err}
}

// Classify returns the severity of err.
func Classify(err error) Severity {
	if err == nil {
		return SeverityNone
	}
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Severity
	}
	switch {
	case errors.Is(err, ErrShaderLink), errors.Is(err, ErrDeviceUnavailable):
		return SeverityBuildFatal
	case errors.Is(err, ErrFatal), errors.Is(err, ErrRendererFailed), errors.Is(err, ErrClosed),
		errors.Is(err, hal.ErrDeviceLost), errors.Is(err, hal.ErrDeviceOutOfMemory):
		return SeverityFatal
	case errors.Is(err, ErrFrameDeferred),
		errors.Is(err, hal.ErrSurfaceLost), errors.Is(err, hal.ErrSurfaceOutdated):
		return SeverityDeferred
	default:
		return SeveritySkip
	}
}

// IsFatal reports whether err must stop the render loop or startup.
func IsFatal(err error) bool {
	s := Classify(err)
	return s == SeverityFatal || s == SeverityBuildFatal
}
