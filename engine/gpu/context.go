// Package gpu owns the WebGPU instance, adapter, device and surface for one
// window, and classifies surface acquisition failures for the frame driver.
package gpu

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// Context is the GPU side of one window: the device work is submitted to and
// the surface frames are presented on.
type Context interface {
	// Device returns the logical device.
	//
	// Returns:
	//   - *wgpu.Device: the device.
	Device() *wgpu.Device

	// Queue returns the device's command queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue.
	Queue() *wgpu.Queue

	// Surface returns the presentable surface.
	//
	// Returns:
	//   - *wgpu.Surface: the surface.
	Surface() *wgpu.Surface

	// SurfaceFormat returns the texture format the surface was configured
	// with. Only valid after the first ConfigureSurface.
	//
	// Returns:
	//   - wgpu.TextureFormat: the configured format.
	SurfaceFormat() wgpu.TextureFormat

	// SurfaceSize returns the dimensions the surface was configured with.
	//
	// Returns:
	//   - uint32: the width in pixels.
	//   - uint32: the height in pixels.
	SurfaceSize() (uint32, uint32)

	// Limits returns the limits the device was requested with.
	//
	// Returns:
	//   - wgpu.Limits: the device limits.
	Limits() wgpu.Limits

	// ConfigureSurface (re)configures the surface, picking the first format
	// and alpha mode the adapter reports. Required after every resize and
	// whenever the surface reports lost or outdated.
	//
	// Parameters:
	//   - width: the surface width in pixels.
	//   - height: the surface height in pixels.
	ConfigureSurface(width, height uint32)

	// Acquire fetches the next surface texture to draw the frame into. The
	// caller owns the texture and must release it after presenting. Classify
	// failures with ClassifySurfaceError.
	//
	// Returns:
	//   - *wgpu.Texture: the surface texture for this frame.
	//   - error: an error if acquisition failed.
	Acquire() (*wgpu.Texture, error)

	// Present schedules the previously acquired surface texture for display.
	Present()

	// Release frees the device, queue, adapter and instance. The context must
	// not be used afterwards.
	Release()
}

var _ Context = &context{}

type context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	surfaceWidth  uint32
	surfaceHeight uint32

	presentMode   wgpu.PresentMode
	forceFallback bool
	deviceLabel   string
	limits        wgpu.Limits
}

// NewContext creates the instance, surface, adapter, device and queue for a
// window. Panics when no adapter or device is available, since nothing can
// be drawn without them.
//
// Parameters:
//   - surfaceDescriptor: the platform surface to create, usually from
//     wgpuglfw.GetSurfaceDescriptor.
//   - options: optional configuration options for the context.
//
// Returns:
//   - Context: the initialized context.
func NewContext(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...ContextBuilderOption) Context {
	c := &context{
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		deviceLabel: "Main Device",
		limits:      wgpu.DefaultLimits(),
	}
	for _, option := range options {
		option(c)
	}

	c.surface = c.instance.CreateSurface(surfaceDescriptor)

	adapter, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: c.forceFallback,
		CompatibleSurface:    c.surface,
	})
	if err != nil {
		panic(err)
	}
	c.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: c.deviceLabel,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: c.limits,
		},
	})
	if err != nil {
		panic(err)
	}
	c.device = device
	c.queue = device.GetQueue()

	return c
}

func (c *context) Device() *wgpu.Device {
	return c.device
}

func (c *context) Queue() *wgpu.Queue {
	return c.queue
}

func (c *context) Surface() *wgpu.Surface {
	return c.surface
}

func (c *context) SurfaceFormat() wgpu.TextureFormat {
	return c.surfaceFormat
}

func (c *context) SurfaceSize() (uint32, uint32) {
	return c.surfaceWidth, c.surfaceHeight
}

func (c *context) Limits() wgpu.Limits {
	return c.limits
}

func (c *context) ConfigureSurface(width, height uint32) {
	capabilities := c.surface.GetCapabilities(c.adapter)
	c.surfaceFormat = capabilities.Formats[0]
	c.surfaceWidth = width
	c.surfaceHeight = height

	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.surfaceFormat,
		Width:       width,
		Height:      height,
		PresentMode: c.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (c *context) Acquire() (*wgpu.Texture, error) {
	return c.surface.GetCurrentTexture()
}

func (c *context) Present() {
	c.surface.Present()
}

// Release frees resources in reverse order of creation.
func (c *context) Release() {
	c.surface = nil
	if c.queue != nil {
		c.queue.Release()
		c.queue = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}

// SurfaceErrorKind says how the frame driver should react to a failed
// surface texture acquisition.
type SurfaceErrorKind int

const (
	// SurfaceErrorSkip is a transient failure: request another redraw and
	// skip this frame.
	SurfaceErrorSkip SurfaceErrorKind = iota
	// SurfaceErrorRecreate means the surface is lost or outdated: it must
	// be reconfigured before the next acquisition.
	SurfaceErrorRecreate
	// SurfaceErrorFatal means the GPU is out of memory: stop drawing and
	// shut down.
	SurfaceErrorFatal
)

// ClassifySurfaceError maps a GetCurrentTexture failure to the driver
// reaction. The binding reports status as text, so matching is by message.
//
// Parameters:
//   - err: the acquisition error.
//
// Returns:
//   - SurfaceErrorKind: how the driver should react.
func ClassifySurfaceError(err error) SurfaceErrorKind {
	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "out of memory") || strings.Contains(message, "outofmemory"):
		return SurfaceErrorFatal
	case strings.Contains(message, "lost") || strings.Contains(message, "outdated"):
		return SurfaceErrorRecreate
	default:
		return SurfaceErrorSkip
	}
}
