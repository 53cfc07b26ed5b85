package window

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/wgpu/hal/metal"

	"github.com/gogpu/frameloop"
)

// nativeTarget backs the window's content view with a CAMetalLayer and
// returns the layer as the window handle.
func nativeTarget(glw *glfw.Window) (frameloop.SurfaceTarget, error) {
	win := metal.ID(uintptr(unsafe.Pointer(glw.GetCocoaWindow())))
	view := metal.MsgSend(win, metal.Sel("contentView"))
	if view == 0 {
		return frameloop.SurfaceTarget{}, fmt.Errorf("%w: window has no content view", ErrUnsupportedPlatform)
	}
	layer := metal.MsgSend(metal.ID(metal.GetClass("CAMetalLayer")), metal.Sel("layer"))
	if layer == 0 {
		return frameloop.SurfaceTarget{}, fmt.Errorf("%w: cannot create CAMetalLayer", ErrUnsupportedPlatform)
	}
	metal.MsgSend(view, metal.Sel("setWantsLayer:"), 1)
	metal.MsgSend(view, metal.Sel("setLayer:"), uintptr(layer))
	return frameloop.SurfaceTarget{Window: uintptr(layer)}, nil
}
