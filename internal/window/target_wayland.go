//go:build (linux || freebsd) && wayland

package window

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/frameloop"
)

func nativeTarget(glw *glfw.Window) (frameloop.SurfaceTarget, error) {
	return frameloop.SurfaceTarget{
		Display: uintptr(unsafe.Pointer(glfw.GetWaylandDisplay())),
		Window:  uintptr(unsafe.Pointer(glw.GetWaylandWindow())),
	}, nil
}
