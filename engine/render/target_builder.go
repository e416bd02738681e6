package render

import "github.com/cogentcore/webgpu/wgpu"

// TargetBuilderOption is a functional option for configuring a renderTarget.
// Use the With* functions to create options.
type TargetBuilderOption func(t *renderTarget)

// WithConfig replaces the target's initial configuration entirely.
//
// Parameters:
//   - config: the configuration applied on the first Apply
//
// Returns:
//   - TargetBuilderOption: option function to apply
func WithConfig(config TargetConfig) TargetBuilderOption {
	return func(t *renderTarget) {
		clone := config.clone()
		t.scheduledConfig = &clone
	}
}

// WithSize sets the initial texture dimensions.
//
// Parameters:
//   - width: texture width in pixels
//   - height: texture height in pixels
//
// Returns:
//   - TargetBuilderOption: option function to apply
func WithSize(width, height uint32) TargetBuilderOption {
	return func(t *renderTarget) {
		t.scheduledConfig.Width = width
		t.scheduledConfig.Height = height
	}
}

// WithClearColor sets the color the target clears to.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - TargetBuilderOption: option function to apply
func WithClearColor(color wgpu.Color) TargetBuilderOption {
	return func(t *renderTarget) {
		if t.scheduledConfig.Color != nil {
			t.scheduledConfig.Color.ClearColor = color
		}
	}
}

// WithColorConfig replaces the color axis of the configuration.
//
// Parameters:
//   - config: the color configuration
//
// Returns:
//   - TargetBuilderOption: option function to apply
func WithColorConfig(config ColorConfig) TargetBuilderOption {
	return func(t *renderTarget) {
		t.scheduledConfig.Color = &config
	}
}

// WithoutColor removes the color axis, leaving a target with no main
// texture of its own.
//
// Returns:
//   - TargetBuilderOption: option function to apply
func WithoutColor() TargetBuilderOption {
	return func(t *renderTarget) {
		t.scheduledConfig.Color = nil
	}
}

// WithDepthStencilConfig replaces the depth/stencil axis of the
// configuration.
//
// Parameters:
//   - config: the depth/stencil configuration
//
// Returns:
//   - TargetBuilderOption: option function to apply
func WithDepthStencilConfig(config DepthStencilConfig) TargetBuilderOption {
	return func(t *renderTarget) {
		t.scheduledConfig.DepthStencil = &config
	}
}

// WithoutDepthStencil removes the depth/stencil axis.
//
// Returns:
//   - TargetBuilderOption: option function to apply
func WithoutDepthStencil() TargetBuilderOption {
	return func(t *renderTarget) {
		t.scheduledConfig.DepthStencil = nil
	}
}

// WithMultisample enables multisampling with the given sample count.
//
// Parameters:
//   - sampleCount: samples per pixel, usually 4
//
// Returns:
//   - TargetBuilderOption: option function to apply
func WithMultisample(sampleCount uint32) TargetBuilderOption {
	return func(t *renderTarget) {
		t.scheduledConfig.Multisample = &MultisampleConfig{SampleCount: sampleCount}
	}
}

// WithoutMultisample disables multisampling.
//
// Returns:
//   - TargetBuilderOption: option function to apply
func WithoutMultisample() TargetBuilderOption {
	return func(t *renderTarget) {
		t.scheduledConfig.Multisample = nil
	}
}
