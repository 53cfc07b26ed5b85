package frameloop

import (
	"math"

	"github.com/gogpu/gputypes"
)

// InputState is the externally owned input the renderer reads each frame.
// The render loop only reads it; the event loop that owns it writes it
// between frames.
type InputState struct {
	// Alternate selects PipelineAlternate when set.
	Alternate bool

	// Clear is the raw clear-color input. Each channel is wrapped into
	// [0, 1) when the frame is recorded.
	Clear [3]float64
}

// ClearColor is a normalized RGBA clear color.
type ClearColor struct {
	R, G, B, A float64
}

// NormalizeClearColor wraps each raw channel modulo 1.0 and sets alpha to 1.
// Negative and non-finite channels become 0.
func NormalizeClearColor(raw [3]float64) ClearColor {
	return ClearColor{
		R: wrapUnit(raw[0]),
		G: wrapUnit(raw[1]),
		B: wrapUnit(raw[2]),
		A: 1.0,
	}
}

// wrapUnit maps v into [0, 1).
func wrapUnit(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	f := math.Mod(v, 1.0)
	if f >= 1.0 {
		return 0
	}
	return f
}

func (c ClearColor) gpu() gputypes.Color {
	return gputypes.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Event is a window event offered to State.Input.
type Event interface {
	event()
}

// ResizeEvent reports a new window client size in physical pixels.
type ResizeEvent struct {
	Width, Height uint32
}

// CursorEvent reports a cursor position in window coordinates.
type CursorEvent struct {
	X, Y float64
}

// KeyEvent reports a key press by name.
type KeyEvent struct {
	Name    string
	Pressed bool
}

func (ResizeEvent) event() {}
func (CursorEvent) event() {}
func (KeyEvent) event()    {}
