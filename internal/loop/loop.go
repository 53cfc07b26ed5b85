// Package loop drives a frameloop renderer from window events.
//
// Escape or a close request ends the loop. Space toggles the alternate
// pipeline. Cursor movement feeds the clear color. Resizes are queued on
// the renderer and applied before the next frame. A fatal frame error
// ends the loop with that error.
package loop

import (
	"context"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/frameloop"
)

// Renderer is the render side of the loop. *frameloop.State implements it.
type Renderer interface {
	RequestResize(width, height uint32)
	Input(ev frameloop.Event) bool
	Render(input *frameloop.InputState) error
}

// Host is the window side of the loop.
type Host interface {
	// Events returns the source the loop registers its callbacks on.
	Events() gpucontext.EventSource

	// PollEvents dispatches pending window events on the calling goroutine.
	PollEvents()

	// ShouldClose reports whether the window was asked to close.
	ShouldClose() bool
}

// Loop owns the input state between frames.
//
// Event callbacks must be delivered on the goroutine that calls Run,
// which is what Host.PollEvents does.
type Loop struct {
	r      Renderer
	input  frameloop.InputState
	quit   bool
	frames uint64
}

// New returns a loop rendering through r and registers its handlers on
// events.
func New(r Renderer, events gpucontext.EventSource) *Loop {
	l := &Loop{r: r}
	events.OnKeyPress(l.keyPressed)
	events.OnKeyRelease(l.keyReleased)
	events.OnMouseMove(l.cursorMoved)
	events.OnResize(l.resized)
	return l
}

// Input returns a copy of the current input state.
func (l *Loop) Input() frameloop.InputState { return l.input }

// Frames returns the number of Render calls made by Run.
func (l *Loop) Frames() uint64 { return l.frames }

// Quit ends Run after the current iteration.
func (l *Loop) Quit() { l.quit = true }

// Run polls host and renders one frame per iteration until the window
// closes, Quit is called, ctx is done, or a frame fails fatally.
func (l *Loop) Run(ctx context.Context, host Host) error {
	log := frameloop.Logger()
	log.Info("loop: started")
	for {
		if err := ctx.Err(); err != nil {
			log.Info("loop: canceled", "frames", l.frames)
			return nil
		}
		host.PollEvents()
		if l.quit || host.ShouldClose() {
			log.Info("loop: exit requested", "frames", l.frames)
			return nil
		}
		err := l.r.Render(&l.input)
		l.frames++
		if err != nil {
			log.Error("loop: frame failed", "frame", l.frames, "error", err)
			return fmt.Errorf("loop: frame %d: %w", l.frames, err)
		}
	}
}

func (l *Loop) keyPressed(key gpucontext.Key, _ gpucontext.Modifiers) {
	if l.r.Input(frameloop.KeyEvent{Name: keyName(key), Pressed: true}) {
		return
	}
	switch key {
	case gpucontext.KeyEscape:
		l.quit = true
	case gpucontext.KeySpace:
		l.input.Alternate = !l.input.Alternate
		frameloop.Logger().Debug("loop: pipeline toggled", "alternate", l.input.Alternate)
	}
}

func (l *Loop) keyReleased(key gpucontext.Key, _ gpucontext.Modifiers) {
	l.r.Input(frameloop.KeyEvent{Name: keyName(key), Pressed: false})
}

func (l *Loop) cursorMoved(x, y float64) {
	if l.r.Input(frameloop.CursorEvent{X: x, Y: y}) {
		return
	}
	l.input.Clear = [3]float64{x, y, x + y}
}

func (l *Loop) resized(width, height int) {
	w, h := clampSize(width), clampSize(height)
	if l.r.Input(frameloop.ResizeEvent{Width: w, Height: h}) {
		return
	}
	l.r.RequestResize(w, h)
}

func clampSize(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}

func keyName(key gpucontext.Key) string {
	switch key {
	case gpucontext.KeyEscape:
		return "escape"
	case gpucontext.KeySpace:
		return "space"
	default:
		return fmt.Sprintf("key%d", key)
	}
}
