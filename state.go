package frameloop

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// resizeRequest is a window size queued by RequestResize.
type resizeRequest struct {
	width, height uint32
}

// State ties together everything one window needs to render: the graphics
// context, the presentation surface, the pipeline set, the vertex buffer
// and the frame renderer.
//
// All methods except RequestResize must be called from the render
// goroutine.
type State struct {
	ctx       *GraphicsContext
	surface   *PresentationSurface
	pipelines *PipelineSet
	vertices  *VertexBuffer
	renderer  *FrameRenderer

	resizes chan resizeRequest
	closed  bool
}

// NewState initializes a GraphicsContext for target, configures the surface
// with desc, builds the pipeline variants and uploads Triangle.
//
// Failures are Build-Fatal: ErrDeviceUnavailable when no device can be
// opened, ErrShaderLink when a pipeline cannot be built.
func NewState(backend hal.Backend, target SurfaceTarget, desc SurfaceDescriptor, variants map[PipelineKey]ShaderBinaries, opts ...ContextOption) (*State, error) {
	ctx, err := Initialize(backend, target, opts...)
	if err != nil {
		return nil, err
	}

	surface, err := NewPresentationSurface(ctx, desc)
	if err != nil {
		ctx.Destroy()
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	pipelines, err := BuildPipelineSet(ctx, surface.Descriptor().Format, DefaultVertexLayout(), variants)
	if err != nil {
		surface.Destroy()
		ctx.Destroy()
		return nil, err
	}

	vertices, err := NewVertexBuffer(ctx, Triangle)
	if err != nil {
		pipelines.Destroy()
		surface.Destroy()
		ctx.Destroy()
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	return &State{
		ctx:       ctx,
		surface:   surface,
		pipelines: pipelines,
		vertices:  vertices,
		renderer:  NewFrameRenderer(ctx),
		resizes:   make(chan resizeRequest, 1),
	}, nil
}

// Context returns the graphics context.
func (s *State) Context() *GraphicsContext { return s.ctx }

// Surface returns the presentation surface.
func (s *State) Surface() *PresentationSurface { return s.surface }

// Pipelines returns the pipeline set.
func (s *State) Pipelines() *PipelineSet { return s.pipelines }

// Renderer returns the frame renderer.
func (s *State) Renderer() *FrameRenderer { return s.renderer }

// Size returns the current surface dimensions.
func (s *State) Size() (width, height uint32) {
	d := s.surface.Descriptor()
	return d.Width, d.Height
}

// usable returns ErrClosed after Close and the latched error once the
// renderer has failed. Neither state allows further GPU calls.
func (s *State) usable() error {
	if s.closed {
		return ErrClosed
	}
	if s.renderer.State() == FrameFailed {
		return fmt.Errorf("%w: %w", ErrRendererFailed, s.renderer.Err())
	}
	return nil
}

// Resize applies a new window size immediately. A zero width or height is
// deferred and keeps the current chain.
func (s *State) Resize(width, height uint32) error {
	if err := s.usable(); err != nil {
		return err
	}
	if _, err := s.surface.Resize(width, height); err != nil {
		return fmt.Errorf("resize to %dx%d: %w", width, height, err)
	}
	return nil
}

// RequestResize queues a resize to be applied before the next frame
// acquires an image. It may be called from any goroutine; if several
// requests arrive between frames only the latest is applied.
func (s *State) RequestResize(width, height uint32) {
	req := resizeRequest{width: width, height: height}
	for {
		select {
		case s.resizes <- req:
			return
		default:
		}
		select {
		case <-s.resizes:
		default:
		}
	}
}

// applyResize drains the queued resize, if any.
func (s *State) applyResize() error {
	select {
	case req := <-s.resizes:
		return s.Resize(req.width, req.height)
	default:
		return nil
	}
}

// Input offers a window event to the renderer. The renderer consumes no
// events, so Input always returns false and the caller handles the event.
func (s *State) Input(Event) bool { return false }

// UpdateVertices rewrites the vertex buffer between frames.
func (s *State) UpdateVertices(vertices []Vertex) error {
	if err := s.usable(); err != nil {
		return err
	}
	return s.vertices.Update(vertices)
}

// Render draws one frame using input to select the pipeline and the clear
// color. Deferred and skipped frames are logged and reported as nil; only
// fatal errors are returned. After a fatal error queued resizes are
// dropped and no GPU call is made.
func (s *State) Render(input *InputState) error {
	if err := s.usable(); err != nil {
		return err
	}
	if err := s.applyResize(); err != nil {
		slogger().Warn("queued resize failed", "error", err)
	}

	var raw [3]float64
	if input != nil {
		raw = input.Clear
	}
	key := s.pipelines.Select(input)
	err := s.renderer.Render(s.surface, s.pipelines.Pipeline(key), s.vertices, NormalizeClearColor(raw))
	switch Classify(err) {
	case SeverityNone, SeverityDeferred, SeveritySkip:
		return nil
	default:
		return err
	}
}

// Close waits for the device to go idle and releases every resource.
// Safe to call twice.
func (s *State) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if err := s.ctx.device.WaitIdle(); err != nil {
		slogger().Warn("wait for device idle failed", "error", err)
	}
	s.vertices.Destroy()
	s.pipelines.Destroy()
	s.surface.Destroy()
	s.ctx.Destroy()
}
