//go:build !linux && !freebsd && !windows && !darwin

package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/frameloop"
)

func nativeTarget(*glfw.Window) (frameloop.SurfaceTarget, error) {
	return frameloop.SurfaceTarget{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
}
