// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frameloop

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SurfaceDescriptor describes the presentable-image chain.
type SurfaceDescriptor struct {
	Width       uint32
	Height      uint32
	Format      gputypes.TextureFormat
	PresentMode gputypes.PresentMode
	AlphaMode   gputypes.CompositeAlphaMode
}

// preferredFormats is the order in which surface formats are picked when
// the requested format is unset or unsupported.
var preferredFormats = []gputypes.TextureFormat{
	gputypes.TextureFormatBGRA8UnormSrgb,
	gputypes.TextureFormatBGRA8Unorm,
	gputypes.TextureFormatRGBA8UnormSrgb,
	gputypes.TextureFormatRGBA8Unorm,
}

func chooseFormat(want gputypes.TextureFormat, supported []gputypes.TextureFormat) gputypes.TextureFormat {
	if want != gputypes.TextureFormatUndefined && slices.Contains(supported, want) {
		return want
	}
	for _, f := range preferredFormats {
		if slices.Contains(supported, f) {
			return f
		}
	}
	if len(supported) > 0 {
		return supported[0]
	}
	return gputypes.TextureFormatBGRA8Unorm
}

func choosePresentMode(want gputypes.PresentMode, supported []gputypes.PresentMode) gputypes.PresentMode {
	if want != gputypes.PresentModeUndefined && slices.Contains(supported, want) {
		return want
	}
	return gputypes.PresentModeFifo
}

func chooseAlphaMode(want gputypes.CompositeAlphaMode, supported []gputypes.CompositeAlphaMode) gputypes.CompositeAlphaMode {
	if slices.Contains(supported, want) {
		return want
	}
	if slices.Contains(supported, gputypes.CompositeAlphaModeOpaque) || len(supported) == 0 {
		return gputypes.CompositeAlphaModeOpaque
	}
	return supported[0]
}

// AcquireStatus is the outcome of AcquireNextImage.
type AcquireStatus uint8

const (
	// StatusOK means an image was acquired.
	StatusOK AcquireStatus = iota
	// StatusLost means the chain is invalid and must be rebuilt with the
	// current descriptor before the next frame.
	StatusLost
	// StatusOutOfMemory is unrecoverable; the caller must terminate.
	StatusOutOfMemory
	// StatusOther is a transient failure; skip the frame, the chain stays
	// valid.
	StatusOther
)

// String returns the status name.
func (s AcquireStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusLost:
		return "Lost"
	case StatusOutOfMemory:
		return "OutOfMemory"
	case StatusOther:
		return "Other"
	default:
		return fmt.Sprintf("AcquireStatus(%d)", s)
	}
}

// acquireStatus maps a HAL acquisition error onto an AcquireStatus.
func acquireStatus(err error) AcquireStatus {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, hal.ErrSurfaceLost), errors.Is(err, hal.ErrSurfaceOutdated):
		return StatusLost
	case errors.Is(err, hal.ErrDeviceOutOfMemory), errors.Is(err, hal.ErrDeviceLost):
		return StatusOutOfMemory
	default:
		return StatusOther
	}
}

// Image is one acquired image of the chain. It is valid for a single frame
// and must be handed back through Present or Discard.
type Image struct {
	texture    hal.SurfaceTexture
	view       hal.TextureView
	width      uint32
	height     uint32
	format     gputypes.TextureFormat
	suboptimal bool
}

// Size returns the image dimensions.
func (img *Image) Size() (width, height uint32) { return img.width, img.height }

// Format returns the image texture format.
func (img *Image) Format() gputypes.TextureFormat { return img.format }

// View returns the render-target view of the image.
func (img *Image) View() hal.TextureView { return img.view }

// Suboptimal reports whether the platform flagged the chain as usable but
// no longer matching the window.
func (img *Image) Suboptimal() bool { return img.suboptimal }

// PresentationSurface owns the configured platform surface, i.e. the chain
// of presentable images. There is at most one chain per surface; a rebuild
// tears it down and configures it again synchronously.
type PresentationSurface struct {
	ctx     *GraphicsContext
	surface hal.Surface
	desc    SurfaceDescriptor

	configured  bool
	stale       bool
	outstanding *Image
	rebuilds    int

	pendingW, pendingH uint32
	pending            bool
}

// NewPresentationSurface configures the context's surface with desc.
// Format, present mode and alpha mode are negotiated against the adapter's
// surface capabilities; the negotiated descriptor is available from
// Descriptor.
func NewPresentationSurface(ctx *GraphicsContext, desc SurfaceDescriptor) (*PresentationSurface, error) {
	if ctx.closed() {
		return nil, ErrClosed
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrZeroArea, desc.Width, desc.Height)
	}
	desc.Format = chooseFormat(desc.Format, ctx.caps.Formats)
	desc.PresentMode = choosePresentMode(desc.PresentMode, ctx.caps.PresentModes)
	desc.AlphaMode = chooseAlphaMode(desc.AlphaMode, ctx.caps.AlphaModes)

	s := &PresentationSurface{
		ctx:     ctx,
		surface: ctx.surface,
		desc:    desc,
	}
	if err := s.configure(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PresentationSurface) configure() error {
	err := s.surface.Configure(s.ctx.device, &hal.SurfaceConfiguration{
		Width:       s.desc.Width,
		Height:      s.desc.Height,
		Format:      s.desc.Format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: s.desc.PresentMode,
		AlphaMode:   s.desc.AlphaMode,
	})
	if err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", s.desc.Width, s.desc.Height, err)
	}
	s.configured = true
	s.stale = false
	slogger().Info("surface configured",
		"width", s.desc.Width,
		"height", s.desc.Height,
		"format", s.desc.Format,
		"present_mode", s.desc.PresentMode)
	return nil
}

// Descriptor returns the current descriptor.
func (s *PresentationSurface) Descriptor() SurfaceDescriptor { return s.desc }

// Rebuilds returns how many times the chain was rebuilt after creation.
func (s *PresentationSurface) Rebuilds() int { return s.rebuilds }

// Pending returns the last zero-area size that Resize deferred, if any.
func (s *PresentationSurface) Pending() (width, height uint32, ok bool) {
	return s.pendingW, s.pendingH, s.pending
}

// Rebuild tears down the chain and configures it again with the current
// descriptor. It is refused while an acquired image is outstanding, so a
// rebuild never happens inside an open frame.
func (s *PresentationSurface) Rebuild() error {
	if s.ctx.closed() {
		return ErrClosed
	}
	if s.outstanding != nil {
		return ErrImageOutstanding
	}
	if s.configured {
		s.surface.Unconfigure(s.ctx.device)
		s.configured = false
	}
	if err := s.configure(); err != nil {
		return fmt.Errorf("rebuild chain: %w", err)
	}
	s.rebuilds++
	slogger().Debug("chain rebuilt", "rebuilds", s.rebuilds)
	return nil
}

// Resize applies new window dimensions. Equal dimensions are a no-op.
// A zero width or height is deferred: the chain and descriptor are left
// untouched and the size is reported by Pending. The returned bool reports
// whether the chain was rebuilt.
func (s *PresentationSurface) Resize(width, height uint32) (bool, error) {
	if width == 0 || height == 0 {
		s.pendingW, s.pendingH, s.pending = width, height, true
		slogger().Debug("zero-area resize deferred", "width", width, "height", height)
		return false, nil
	}
	s.pending = false
	if width == s.desc.Width && height == s.desc.Height {
		return false, nil
	}
	if s.outstanding != nil {
		return false, ErrImageOutstanding
	}
	s.desc.Width, s.desc.Height = width, height
	if err := s.Rebuild(); err != nil {
		return false, err
	}
	return true, nil
}

// AcquireNextImage acquires the next image of the chain. On StatusOK the
// image has the descriptor's dimensions. Any other status comes with the
// underlying error and no image.
func (s *PresentationSurface) AcquireNextImage() (*Image, AcquireStatus, error) {
	if s.ctx.closed() {
		return nil, StatusOther, ErrClosed
	}
	if s.outstanding != nil {
		return nil, StatusOther, ErrImageOutstanding
	}
	if s.stale || !s.configured {
		if err := s.Rebuild(); err != nil {
			return nil, acquireStatus(err), err
		}
	}

	acquired, err := s.surface.AcquireTexture(nil)
	if err != nil {
		return nil, acquireStatus(err), err
	}
	if acquired == nil || acquired.Texture == nil {
		return nil, StatusOther, errors.New("frameloop: surface returned no texture")
	}

	view, err := s.ctx.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:     s.ctx.label("frame_view"),
		Format:    s.desc.Format,
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		s.surface.DiscardTexture(acquired.Texture)
		return nil, acquireStatus(err), fmt.Errorf("create frame view: %w", err)
	}

	img := &Image{
		texture:    acquired.Texture,
		view:       view,
		width:      s.desc.Width,
		height:     s.desc.Height,
		format:     s.desc.Format,
		suboptimal: acquired.Suboptimal,
	}
	if acquired.Suboptimal {
		s.stale = true
		slogger().Debug("suboptimal image acquired; chain marked stale")
	}
	s.outstanding = img
	return img, StatusOK, nil
}

// Present queues img for display and releases it.
func (s *PresentationSurface) Present(img *Image) error {
	if img == nil || img != s.outstanding {
		return errors.New("frameloop: present of an image not acquired from this surface")
	}
	err := s.ctx.queue.Present(s.surface, img.texture, nil)
	s.release(img)
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// Discard releases img without presenting it.
func (s *PresentationSurface) Discard(img *Image) {
	if img == nil || img != s.outstanding {
		return
	}
	s.surface.DiscardTexture(img.texture)
	s.release(img)
}

func (s *PresentationSurface) release(img *Image) {
	if img.view != nil {
		s.ctx.device.DestroyTextureView(img.view)
		img.view = nil
	}
	s.outstanding = nil
}

// Destroy discards any outstanding image and unconfigures the surface. The
// platform surface itself belongs to the GraphicsContext.
func (s *PresentationSurface) Destroy() {
	if s.ctx.closed() {
		return
	}
	if s.outstanding != nil {
		s.Discard(s.outstanding)
	}
	if s.configured {
		s.surface.Unconfigure(s.ctx.device)
		s.configured = false
	}
}
