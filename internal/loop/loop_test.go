package loop

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/frameloop"
)

type fakeRenderer struct {
	inputs  []frameloop.InputState
	events  []frameloop.Event
	resizes [][2]uint32
	errs    []error
	consume bool
}

func (r *fakeRenderer) RequestResize(w, h uint32) { r.resizes = append(r.resizes, [2]uint32{w, h}) }

func (r *fakeRenderer) Input(ev frameloop.Event) bool {
	r.events = append(r.events, ev)
	return r.consume
}

func (r *fakeRenderer) Render(in *frameloop.InputState) error {
	r.inputs = append(r.inputs, *in)
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return err
	}
	return nil
}

// fakeHost records callbacks and replays one scripted batch of events per
// PollEvents call.
type fakeHost struct {
	gpucontext.NullEventSource

	onKey     func(gpucontext.Key, gpucontext.Modifiers)
	onRelease func(gpucontext.Key, gpucontext.Modifiers)
	onMove    func(float64, float64)
	onResize  func(int, int)

	script []func(*fakeHost)
	polls  int
	closed bool
}

func (h *fakeHost) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers))   { h.onKey = fn }
func (h *fakeHost) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) { h.onRelease = fn }
func (h *fakeHost) OnMouseMove(fn func(float64, float64))                       { h.onMove = fn }
func (h *fakeHost) OnResize(fn func(int, int))                                  { h.onResize = fn }

func (h *fakeHost) Events() gpucontext.EventSource { return h }
func (h *fakeHost) ShouldClose() bool              { return h.closed }

func (h *fakeHost) PollEvents() {
	if h.polls < len(h.script) {
		h.script[h.polls](h)
	} else {
		h.closed = true
	}
	h.polls++
}

func press(k gpucontext.Key) func(*fakeHost) {
	return func(h *fakeHost) {
		h.onKey(k, 0)
		h.onRelease(k, 0)
	}
}

func idle(*fakeHost) {}

func newLoop(t *testing.T, script ...func(*fakeHost)) (*Loop, *fakeRenderer, *fakeHost) {
	t.Helper()
	r := &fakeRenderer{}
	h := &fakeHost{script: script}
	l := New(r, h.Events())
	require.NotNil(t, h.onKey)
	require.NotNil(t, h.onMove)
	require.NotNil(t, h.onResize)
	return l, r, h
}

func TestRunRendersEachTick(t *testing.T) {
	l, r, h := newLoop(t, idle, idle, idle)
	require.NoError(t, l.Run(context.Background(), h))
	assert.Len(t, r.inputs, 3)
	assert.Equal(t, uint64(3), l.Frames())
}

func TestSpaceTogglesPipeline(t *testing.T) {
	l, r, h := newLoop(t, idle, press(gpucontext.KeySpace), idle, press(gpucontext.KeySpace))
	require.NoError(t, l.Run(context.Background(), h))

	require.Len(t, r.inputs, 4)
	assert.False(t, r.inputs[0].Alternate)
	assert.True(t, r.inputs[1].Alternate)
	assert.True(t, r.inputs[2].Alternate)
	assert.False(t, r.inputs[3].Alternate)
}

func TestEscapeExits(t *testing.T) {
	l, r, h := newLoop(t, idle, press(gpucontext.KeyEscape), idle)
	require.NoError(t, l.Run(context.Background(), h))
	assert.Len(t, r.inputs, 1)
	assert.False(t, h.closed)
}

func TestCursorDrivesClear(t *testing.T) {
	l, r, h := newLoop(t, func(h *fakeHost) { h.onMove(100, 200.3) })
	require.NoError(t, l.Run(context.Background(), h))

	require.Len(t, r.inputs, 1)
	assert.Equal(t, [3]float64{100, 200.3, 300.3}, r.inputs[0].Clear)
	assert.Equal(t, r.inputs[0], l.Input())
	assert.Contains(t, r.events, frameloop.Event(frameloop.CursorEvent{X: 100, Y: 200.3}))
}

func TestResizeQueuesOnRenderer(t *testing.T) {
	l, r, h := newLoop(t, func(h *fakeHost) {
		h.onResize(1024, 768)
		h.onResize(-5, 10)
	})
	require.NoError(t, l.Run(context.Background(), h))
	assert.Equal(t, [][2]uint32{{1024, 768}, {0, 10}}, r.resizes)
}

func TestConsumedEventsAreNotHandled(t *testing.T) {
	l, r, h := newLoop(t, func(h *fakeHost) {
		h.onKey(gpucontext.KeySpace, 0)
		h.onMove(1, 2)
		h.onResize(10, 10)
	})
	r.consume = true
	require.NoError(t, l.Run(context.Background(), h))

	assert.False(t, l.Input().Alternate)
	assert.Equal(t, [3]float64{}, l.Input().Clear)
	assert.Empty(t, r.resizes)
	assert.Len(t, r.events, 3)
}

func TestFatalFrameEndsLoop(t *testing.T) {
	fatal := errors.Join(frameloop.ErrFatal, errors.New("device lost"))
	l, r, h := newLoop(t, idle, idle, idle, idle)
	r.errs = []error{nil, fatal}

	err := l.Run(context.Background(), h)
	require.Error(t, err)
	assert.ErrorIs(t, err, frameloop.ErrFatal)
	assert.Len(t, r.inputs, 2)
}

func TestRunStopsOnCancel(t *testing.T) {
	l, r, h := newLoop(t, idle, idle)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, l.Run(ctx, h))
	assert.Empty(t, r.inputs)
}

func TestQuit(t *testing.T) {
	l, r, h := newLoop(t, idle, idle)
	l.Quit()
	require.NoError(t, l.Run(context.Background(), h))
	assert.Empty(t, r.inputs)
}

func TestKeyName(t *testing.T) {
	assert.Equal(t, "escape", keyName(gpucontext.KeyEscape))
	assert.Equal(t, "space", keyName(gpucontext.KeySpace))
	assert.Equal(t, "key1", keyName(gpucontext.KeyA))
}
