package frameloop

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SurfaceTarget holds the native handles a presentable surface is created
// from. On X11 Display is the Display* and Window the XID; on Windows
// Display is the HINSTANCE (or 0) and Window the HWND.
type SurfaceTarget struct {
	Display uintptr
	Window  uintptr
}

// GraphicsContext owns the adapter, device and queue used for the lifetime
// of the process, together with the platform surface the adapter was
// selected for.
//
// A GraphicsContext is created once by Initialize and is never
// reinitialized: losing the device is fatal. All methods must be called
// from the render goroutine.
type GraphicsContext struct {
	instance hal.Instance
	surface  hal.Surface
	adapter  hal.Adapter
	device   hal.Device
	queue    hal.Queue

	info      AdapterInfo
	caps      *hal.SurfaceCapabilities
	limits    gputypes.Limits
	labelBase string
	destroyed bool
}

var _ gpucontext.DeviceProvider = (*GraphicsContext)(nil)

// Initialize creates the instance, the surface for target, selects an
// adapter able to present to that surface and opens a device with one
// queue. It blocks until the device is ready.
//
// Initialize fails with ErrDeviceUnavailable when no adapter is compatible
// or the device cannot be opened. Everything created before the failure is
// released in reverse order.
func Initialize(backend hal.Backend, target SurfaceTarget, opts ...ContextOption) (*GraphicsContext, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: no backend", ErrDeviceUnavailable)
	}
	o := defaultContextOptions()
	for _, opt := range opts {
		opt(&o)
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{
		Backends: o.backends,
		Flags:    o.instance,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrDeviceUnavailable, err)
	}

	surface, err := instance.CreateSurface(target.Display, target.Window)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: create surface: %w", ErrDeviceUnavailable, err)
	}

	adapters := instance.EnumerateAdapters(surface)
	idx, caps, err := selectAdapter(adapters, surface, o.power)
	if err != nil {
		surface.Destroy()
		instance.Destroy()
		return nil, err
	}
	selected := adapters[idx]

	openDev, err := selected.Adapter.Open(o.features, o.limits)
	if err != nil {
		surface.Destroy()
		selected.Adapter.Destroy()
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device on %q: %w", ErrDeviceUnavailable, selected.Info.Name, err)
	}

	gc := &GraphicsContext{
		instance:  instance,
		surface:   surface,
		adapter:   selected.Adapter,
		device:    openDev.Device,
		queue:     openDev.Queue,
		info:      adapterInfoFrom(selected.Info),
		caps:      caps,
		limits:    o.limits,
		labelBase: o.labelBase,
	}
	slogger().Info("GPU adapter selected",
		"adapter", gc.info.Name,
		"type", gc.info.DeviceType,
		"backend", gc.info.Backend,
		"candidates", len(adapters))
	if gc.info.Driver != "" {
		slogger().Debug("GPU driver", "driver", gc.info.Driver)
	}
	return gc, nil
}

// Device returns the HAL device as a gpucontext token.
func (c *GraphicsContext) Device() gpucontext.Device { return c.device }

// Queue returns the HAL queue as a gpucontext token.
func (c *GraphicsContext) Queue() gpucontext.Queue { return c.queue }

// Adapter returns the selected HAL adapter as a gpucontext token.
func (c *GraphicsContext) Adapter() gpucontext.Adapter { return c.adapter }

// AdapterInfo returns the adapter name and classification.
func (c *GraphicsContext) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{
		Name: c.info.Name,
		Type: adapterType(c.info.DeviceType),
	}
}

// SurfaceFormat returns the format a surface created from this context
// uses when no format is requested.
func (c *GraphicsContext) SurfaceFormat() gputypes.TextureFormat {
	return chooseFormat(gputypes.TextureFormatUndefined, c.caps.Formats)
}

// HALDevice returns the device.
func (c *GraphicsContext) HALDevice() hal.Device { return c.device }

// HALQueue returns the queue.
func (c *GraphicsContext) HALQueue() hal.Queue { return c.queue }

// Info returns details of the selected adapter.
func (c *GraphicsContext) Info() AdapterInfo { return c.info }

// SurfaceCapabilities returns what the selected adapter supports for the
// bound surface.
func (c *GraphicsContext) SurfaceCapabilities() hal.SurfaceCapabilities { return *c.caps }

// Limits returns the limits the device was opened with.
func (c *GraphicsContext) Limits() gputypes.Limits { return c.limits }

func (c *GraphicsContext) label(name string) string {
	return c.labelBase + "_" + name
}

// Destroy waits for the device to go idle and releases the surface, device,
// adapter and instance in reverse creation order. Safe to call twice.
func (c *GraphicsContext) Destroy() {
	if c == nil || c.destroyed {
		return
	}
	c.destroyed = true
	if err := c.device.WaitIdle(); err != nil {
		slogger().Warn("wait for device idle failed", "error", err)
	}
	c.surface.Destroy()
	c.device.Destroy()
	c.adapter.Destroy()
	c.instance.Destroy()
	slogger().Debug("graphics context destroyed")
}

func (c *GraphicsContext) closed() bool {
	return c == nil || c.destroyed
}
