// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package window hosts a frameloop renderer in a glfw window.
//
// glfw must be driven from the main OS thread. Callers lock it with
// runtime.LockOSThread before calling Open and run the loop on the same
// goroutine.
package window

import (
	"errors"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/frameloop"
)

// ErrUnsupportedPlatform is returned when native handles cannot be
// obtained on this platform.
var ErrUnsupportedPlatform = errors.New("window: unsupported platform")

// Window is a glfw window without a client API. It implements
// gpucontext.EventSource for the callbacks the render loop uses.
type Window struct {
	gpucontext.NullEventSource

	glw *glfw.Window

	onKeyPress   func(gpucontext.Key, gpucontext.Modifiers)
	onKeyRelease func(gpucontext.Key, gpucontext.Modifiers)
	onMouseMove  func(x, y float64)
	onResize     func(width, height int)
}

var _ gpucontext.EventSource = (*Window)(nil)

// Open initializes glfw and creates a resizable window of the given size.
func Open(title string, width, height int) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("window: glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	glw, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: create: %w", err)
	}

	w := &Window{glw: glw}
	glw.SetKeyCallback(w.keyCallback)
	glw.SetCursorPosCallback(w.cursorCallback)
	glw.SetFramebufferSizeCallback(w.framebufferCallback)
	glw.SetContentScaleCallback(w.scaleCallback)
	frameloop.Logger().Info("window: opened", "title", title, "width", width, "height", height)
	return w, nil
}

// Target returns the native handles a presentation surface is created on.
func (w *Window) Target() (frameloop.SurfaceTarget, error) {
	return nativeTarget(w.glw)
}

// FramebufferSize returns the drawable size in pixels.
func (w *Window) FramebufferSize() (width, height uint32) {
	fw, fh := w.glw.GetFramebufferSize()
	return uint32(max(fw, 0)), uint32(max(fh, 0))
}

// Events returns w.
func (w *Window) Events() gpucontext.EventSource { return w }

// PollEvents dispatches pending events to the registered callbacks.
func (w *Window) PollEvents() { glfw.PollEvents() }

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool { return w.glw.ShouldClose() }

// Close destroys the window and terminates glfw.
func (w *Window) Close() {
	w.glw.Destroy()
	glfw.Terminate()
}

// OnKeyPress registers fn for key presses.
func (w *Window) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) { w.onKeyPress = fn }

// OnKeyRelease registers fn for key releases.
func (w *Window) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) { w.onKeyRelease = fn }

// OnMouseMove registers fn for cursor movement in window coordinates.
func (w *Window) OnMouseMove(fn func(x, y float64)) { w.onMouseMove = fn }

// OnResize registers fn for framebuffer size changes, including those
// caused by a content scale change.
func (w *Window) OnResize(fn func(width, height int)) { w.onResize = fn }

func (w *Window) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	k, m := translateKey(key), translateMods(mods)
	switch action {
	case glfw.Press:
		if w.onKeyPress != nil {
			w.onKeyPress(k, m)
		}
	case glfw.Release:
		if w.onKeyRelease != nil {
			w.onKeyRelease(k, m)
		}
	}
}

func (w *Window) cursorCallback(_ *glfw.Window, x, y float64) {
	if w.onMouseMove != nil {
		w.onMouseMove(x, y)
	}
}

func (w *Window) framebufferCallback(_ *glfw.Window, width, height int) {
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *Window) scaleCallback(glw *glfw.Window, _, _ float32) {
	fw, fh := glw.GetFramebufferSize()
	w.framebufferCallback(glw, fw, fh)
}

func translateKey(key glfw.Key) gpucontext.Key {
	switch key {
	case glfw.KeyEscape:
		return gpucontext.KeyEscape
	case glfw.KeySpace:
		return gpucontext.KeySpace
	default:
		return gpucontext.KeyUnknown
	}
}

func translateMods(mods glfw.ModifierKey) gpucontext.Modifiers {
	var m gpucontext.Modifiers
	if mods&glfw.ModShift != 0 {
		m |= gpucontext.ModShift
	}
	if mods&glfw.ModControl != 0 {
		m |= gpucontext.ModControl
	}
	if mods&glfw.ModAlt != 0 {
		m |= gpucontext.ModAlt
	}
	if mods&glfw.ModSuper != 0 {
		m |= gpucontext.ModSuper
	}
	return m
}
