package window

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/frameloop"
)

// nativeTarget leaves Display zero; the backend uses the module handle.
func nativeTarget(glw *glfw.Window) (frameloop.SurfaceTarget, error) {
	return frameloop.SurfaceTarget{
		Window: uintptr(unsafe.Pointer(glw.GetWin32Window())),
	}, nil
}
