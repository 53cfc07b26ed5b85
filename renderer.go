// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frameloop

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// FrameState is the position of a FrameRenderer inside one frame.
type FrameState uint8

const (
	// FrameIdle: between frames.
	FrameIdle FrameState = iota
	// FrameAcquired: an image is held, nothing recorded yet.
	FrameAcquired
	// FrameRecording: commands are being recorded into the image.
	FrameRecording
	// FrameSubmitted: commands were submitted, the image awaits presentation.
	FrameSubmitted
	// FrameFailed is terminal; the renderer refuses further frames.
	FrameFailed
)

// String returns the state name.
func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "Idle"
	case FrameAcquired:
		return "Acquired"
	case FrameRecording:
		return "Recording"
	case FrameSubmitted:
		return "Submitted"
	case FrameFailed:
		return "Failed"
	default:
		return fmt.Sprintf("FrameState(%d)", s)
	}
}

var (
	errNoPipeline = errors.New("frameloop: no pipeline to draw with")
	errNoVertices = errors.New("frameloop: no vertex buffer to draw")
)

// FrameRenderer records and presents frames. Each frame runs to completion
// before Render returns: acquire, record, submit and present. There is no
// overlap between frames and no wait for GPU completion.
type FrameRenderer struct {
	ctx     *GraphicsContext
	state   FrameState
	frames  uint64
	failure error
}

// NewFrameRenderer creates a renderer drawing with ctx.
func NewFrameRenderer(ctx *GraphicsContext) *FrameRenderer {
	return &FrameRenderer{ctx: ctx}
}

// State returns the current frame state.
func (r *FrameRenderer) State() FrameState { return r.state }

// Frames returns the number of frames presented.
func (r *FrameRenderer) Frames() uint64 { return r.frames }

// Err returns the fatal error that stopped the renderer, or nil.
func (r *FrameRenderer) Err() error { return r.failure }

// Render draws one frame: the image is cleared to clear, then the vertices
// are drawn as a triangle list with pipeline.
//
// Render returns nil when the frame was presented. Otherwise the error is
// a *FrameError whose severity tells the caller what happened:
//   - SeverityDeferred: the chain was lost and has been rebuilt; nothing
//     was drawn.
//   - SeveritySkip: a transient failure; nothing was drawn and the chain is
//     still valid.
//   - SeverityFatal: out of memory or device lost. The renderer is now
//     Failed and every later call returns ErrRendererFailed without touching
//     the GPU.
func (r *FrameRenderer) Render(surface *PresentationSurface, pipeline *Pipeline, vertices *VertexBuffer, clear ClearColor) error {
	if r.state == FrameFailed {
		return fmt.Errorf("%w: %w", ErrRendererFailed, r.failure)
	}
	if r.ctx.closed() {
		return ErrClosed
	}
	if pipeline == nil || pipeline.pipeline == nil {
		return frameError(SeveritySkip, "render", errNoPipeline)
	}
	if vertices == nil || vertices.buffer == nil {
		return frameError(SeveritySkip, "render", errNoVertices)
	}

	img, status, err := surface.AcquireNextImage()
	switch status {
	case StatusOK:
	case StatusLost:
		return r.rebuild(surface, "acquire", err)
	case StatusOutOfMemory:
		return r.fail("acquire", err)
	default:
		slogger().Warn("frame skipped", "op", "acquire", "error", err)
		return frameError(SeveritySkip, "acquire", err)
	}
	r.state = FrameAcquired

	cmdBuf, err := r.record(img, pipeline, vertices, clear)
	if err != nil {
		surface.Discard(img)
		return r.afterAcquire(surface, "record", err)
	}
	defer r.ctx.device.FreeCommandBuffer(cmdBuf)

	if _, err := r.ctx.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		surface.Discard(img)
		return r.afterAcquire(surface, "submit", err)
	}
	r.state = FrameSubmitted

	if err := surface.Present(img); err != nil {
		return r.afterAcquire(surface, "present", err)
	}
	r.state = FrameIdle
	r.frames++
	slogger().Debug("frame presented", "frame", r.frames, "pipeline", pipeline.key)
	return nil
}

// record encodes the clear and draw of one frame into a command buffer.
// The render pass is always ended before encoding ends.
func (r *FrameRenderer) record(img *Image, pipeline *Pipeline, vertices *VertexBuffer, clear ClearColor) (hal.CommandBuffer, error) {
	r.state = FrameRecording
	encoder, err := r.ctx.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: r.ctx.label("frame_encoder"),
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(r.ctx.label("frame")); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: r.ctx.label("frame_pass"),
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       img.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clear.gpu(),
		}},
	})
	rp.SetPipeline(pipeline.pipeline)
	rp.SetVertexBuffer(0, vertices.buffer, 0)
	rp.Draw(vertices.count, 1, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	return cmdBuf, nil
}

// afterAcquire classifies a failure after the image was acquired. The image has
// already been released.
func (r *FrameRenderer) afterAcquire(surface *PresentationSurface, op string, err error) error {
	switch acquireStatus(err) {
	case StatusLost:
		return r.rebuild(surface, op, err)
	case StatusOutOfMemory:
		return r.fail(op, err)
	default:
		r.state = FrameIdle
		slogger().Warn("frame skipped", "op", op, "error", err)
		return frameError(SeveritySkip, op, err)
	}
}

// rebuild recreates a lost chain with the current descriptor. The frame is
// not drawn.
func (r *FrameRenderer) rebuild(surface *PresentationSurface, op string, cause error) error {
	r.state = FrameIdle
	if err := surface.Rebuild(); err != nil {
		if acquireStatus(err) == StatusOutOfMemory {
			return r.fail("rebuild chain", err)
		}
		slogger().Warn("frame skipped", "op", "rebuild chain", "error", err)
		return frameError(SeveritySkip, "rebuild chain", err)
	}
	slogger().Warn("frame deferred", "op", op, "error", cause)
	return frameError(SeverityDeferred, op, cause)
}

// fail latches the renderer into FrameFailed.
func (r *FrameRenderer) fail(op string, err error) error {
	r.state = FrameFailed
	r.failure = frameError(SeverityFatal, op, err)
	slogger().Error("fatal frame error", "op", op, "error", err)
	return r.failure
}
