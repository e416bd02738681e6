package gpu

import "github.com/cogentcore/webgpu/wgpu"

// ContextBuilderOption is a functional option for configuring a context.
// Use the With* functions to create options.
type ContextBuilderOption func(c *context)

// WithPresentMode sets how finished frames reach the display. The default
// is Fifo (vsync).
//
// Parameters:
//   - mode: the present mode for the surface
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithPresentMode(mode wgpu.PresentMode) ContextBuilderOption {
	return func(c *context) {
		c.presentMode = mode
	}
}

// WithForceFallbackAdapter requests the software fallback adapter, useful
// on machines without a usable GPU.
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithForceFallbackAdapter() ContextBuilderOption {
	return func(c *context) {
		c.forceFallback = true
	}
}

// WithDeviceLabel sets the debug label of the requested device.
//
// Parameters:
//   - label: the device label shown by debug tooling
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithDeviceLabel(label string) ContextBuilderOption {
	return func(c *context) {
		c.deviceLabel = label
	}
}

// WithLimits sets the limits requested from the device instead of the
// WebGPU defaults.
//
// Parameters:
//   - limits: the required device limits
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithLimits(limits wgpu.Limits) ContextBuilderOption {
	return func(c *context) {
		c.limits = limits
	}
}
