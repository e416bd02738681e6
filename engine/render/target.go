// Package render implements the frame composition core of the engine: render
// targets with scheduled reconfiguration, operation sequences that compile
// into resolve-aware step lists, and the queue that executes scheduled
// sequences once per frame.
package render

import (
	"fmt"
	"log"

	"github.com/cogentcore/webgpu/wgpu"
)

// ColorConfig describes the color texture of a target.
type ColorConfig struct {
	ClearColor wgpu.Color
	Usages     wgpu.TextureUsage
	Format     wgpu.TextureFormat
}

// DefaultColorConfig returns a color configuration that clears to opaque
// black and renders into an sRGB texture.
//
// Returns:
//   - ColorConfig: the default color configuration.
func DefaultColorConfig() ColorConfig {
	return ColorConfig{
		ClearColor: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		Usages:     wgpu.TextureUsageRenderAttachment,
		Format:     wgpu.TextureFormatRGBA8UnormSrgb,
	}
}

// DepthStencilConfig describes the depth/stencil texture of a target.
type DepthStencilConfig struct {
	ClearDepth   float32
	ClearStencil uint32
	Usages       wgpu.TextureUsage
	Format       wgpu.TextureFormat
}

// DefaultDepthStencilConfig returns a depth/stencil configuration that
// clears depth to the far plane and stencil to zero.
//
// Returns:
//   - DepthStencilConfig: the default depth/stencil configuration.
func DefaultDepthStencilConfig() DepthStencilConfig {
	return DepthStencilConfig{
		ClearDepth:   1.0,
		ClearStencil: 0,
		Usages:       wgpu.TextureUsageRenderAttachment,
		Format:       wgpu.TextureFormatDepth24PlusStencil8,
	}
}

// MultisampleConfig describes the multisampled texture of a target.
type MultisampleConfig struct {
	SampleCount uint32
}

// DefaultMultisampleConfig returns a 4x multisample configuration.
//
// Returns:
//   - MultisampleConfig: the default multisample configuration.
func DefaultMultisampleConfig() MultisampleConfig {
	return MultisampleConfig{SampleCount: 4}
}

// TargetConfig describes everything a target owns. The optional axes are nil
// when the target has no texture of that kind.
type TargetConfig struct {
	Width  uint32
	Height uint32

	Multisample  *MultisampleConfig
	DepthStencil *DepthStencilConfig
	Color        *ColorConfig
}

// DefaultTargetConfig returns a 1x1 configuration with color and
// depth/stencil textures and no multisampling.
//
// Returns:
//   - TargetConfig: the default target configuration.
func DefaultTargetConfig() TargetConfig {
	depthStencil := DefaultDepthStencilConfig()
	color := DefaultColorConfig()
	return TargetConfig{
		Width:        1,
		Height:       1,
		DepthStencil: &depthStencil,
		Color:        &color,
	}
}

// clone deep-copies the config so callers cannot mutate a target's state
// through shared axis pointers.
func (c TargetConfig) clone() TargetConfig {
	out := c
	if c.Multisample != nil {
		multisample := *c.Multisample
		out.Multisample = &multisample
	}
	if c.DepthStencil != nil {
		depthStencil := *c.DepthStencil
		out.DepthStencil = &depthStencil
	}
	if c.Color != nil {
		color := *c.Color
		out.Color = &color
	}
	return out
}

// Target owns the textures drawn into by operations. Configuration changes
// are staged on a scheduled config and only take effect when Apply or
// ApplySurface runs, so a frame never observes a half-reconfigured target.
type Target interface {
	// CurrentConfig returns the config the target's textures were built from,
	// or the scheduled config if the target was never applied.
	//
	// Returns:
	//   - TargetConfig: a copy of the effective configuration.
	CurrentConfig() TargetConfig

	// ScheduledConfig returns the config the next Apply will use, creating it
	// from the current config if no change was scheduled yet. Mutating the
	// result stages changes for the next Apply.
	//
	// Returns:
	//   - *TargetConfig: the staged configuration.
	ScheduledConfig() *TargetConfig

	// HasScheduledChange reports whether a config change is staged.
	//
	// Returns:
	//   - bool: true if the next Apply will consume a scheduled config.
	HasScheduledChange() bool

	// Size returns the effective width and height in pixels.
	//
	// Returns:
	//   - uint32: the width.
	//   - uint32: the height.
	Size() (uint32, uint32)

	// SampleCount returns the effective multisample count, 1 when
	// multisampling is off.
	//
	// Returns:
	//   - uint32: the sample count.
	SampleCount() uint32

	// ClearColor returns the color the target clears to.
	//
	// Returns:
	//   - wgpu.Color: the clear color.
	//   - bool: false if the target has no color axis.
	ClearColor() (wgpu.Color, bool)

	// ClearDepth returns the depth value the target clears to.
	//
	// Returns:
	//   - float32: the clear depth.
	//   - bool: false if the target has no depth/stencil axis.
	ClearDepth() (float32, bool)

	// ClearStencil returns the stencil value the target clears to.
	//
	// Returns:
	//   - uint32: the clear stencil.
	//   - bool: false if the target has no depth/stencil axis.
	ClearStencil() (uint32, bool)

	// Texture returns the main texture, nil before the first Apply or while
	// a surface texture is absent.
	//
	// Returns:
	//   - *wgpu.Texture: the main texture.
	Texture() *wgpu.Texture

	// TextureView returns the view of the main texture, nil when Texture is.
	//
	// Returns:
	//   - *wgpu.TextureView: the main texture view.
	TextureView() *wgpu.TextureView

	// DepthStencilTexture returns the depth/stencil texture, nil when the
	// axis is absent.
	//
	// Returns:
	//   - *wgpu.Texture: the depth/stencil texture.
	DepthStencilTexture() *wgpu.Texture

	// DepthStencilView returns the view of the depth/stencil texture.
	//
	// Returns:
	//   - *wgpu.TextureView: the depth/stencil texture view.
	DepthStencilView() *wgpu.TextureView

	// IsSurface reports whether the main texture currently belongs to a
	// surface.
	//
	// Returns:
	//   - bool: true if the target presents to a surface.
	IsSurface() bool

	// Resize stages a size change for the next Apply.
	//
	// Parameters:
	//   - width: the new width in pixels.
	//   - height: the new height in pixels.
	Resize(width, height uint32)

	// SetClearColor stages a new clear color. Does nothing if the target has
	// no color axis.
	//
	// Parameters:
	//   - color: the color future clears use.
	SetClearColor(color wgpu.Color)

	// SetClearDepth stages a new clear depth. Does nothing if the target has
	// no depth/stencil axis.
	//
	// Parameters:
	//   - depth: the depth future clears use.
	SetClearDepth(depth float32)

	// SetClearStencil stages a new clear stencil value. Does nothing if the
	// target has no depth/stencil axis.
	//
	// Parameters:
	//   - stencil: the stencil value future clears use.
	SetClearStencil(stencil uint32)

	// ScheduleClearColor makes the next pass clear the color texture.
	ScheduleClearColor()

	// ScheduleClearDepthStencil makes the next pass clear the depth/stencil
	// texture.
	ScheduleClearDepthStencil()

	// ScheduleResolve makes the next BeginPass resolve the multisampled
	// texture into the main texture.
	ScheduleResolve()

	// Apply consumes the scheduled config and recreates exactly the textures
	// whose axis changed. Color changes on a surface target are refused and
	// logged since the surface owns that texture.
	//
	// Parameters:
	//   - device: the device textures are created on.
	//
	// Returns:
	//   - error: an error if texture creation failed.
	Apply(device *wgpu.Device) error

	// ApplySurface installs an acquired surface texture as the main texture,
	// resizing the target to the texture's dimensions first. Non-color axes
	// still follow the regular Apply rules.
	//
	// Parameters:
	//   - device: the device auxiliary textures are created on.
	//   - texture: the surface texture for this frame.
	//   - width: the texture width in pixels.
	//   - height: the texture height in pixels.
	//
	// Returns:
	//   - error: an error if view or texture creation failed.
	ApplySurface(device *wgpu.Device, texture *wgpu.Texture, width, height uint32) error

	// Present removes the surface texture from the target and hands it back
	// so the frame driver can present it. Panics if the main texture is
	// missing or did not come from a surface.
	//
	// Returns:
	//   - *wgpu.Texture: the surface texture to present.
	Present() *wgpu.Texture

	// BeginPass begins a render pass over the target's textures, consuming
	// the scheduled clear and resolve flags.
	//
	// Parameters:
	//   - encoder: the encoder the pass records into.
	//
	// Returns:
	//   - *wgpu.RenderPassEncoder: the started pass.
	BeginPass(encoder *wgpu.CommandEncoder) *wgpu.RenderPassEncoder

	// BeginResolvingPass begins a render pass that resolves into the main
	// texture regardless of the scheduled resolve flag.
	//
	// Parameters:
	//   - encoder: the encoder the pass records into.
	//
	// Returns:
	//   - *wgpu.RenderPassEncoder: the started pass.
	BeginResolvingPass(encoder *wgpu.CommandEncoder) *wgpu.RenderPassEncoder

	// BeginNonResolvingPass begins a render pass that never resolves, leaving
	// the scheduled resolve flag untouched.
	//
	// Parameters:
	//   - encoder: the encoder the pass records into.
	//
	// Returns:
	//   - *wgpu.RenderPassEncoder: the started pass.
	BeginNonResolvingPass(encoder *wgpu.CommandEncoder) *wgpu.RenderPassEncoder
}

var _ Target = &renderTarget{}

// targetTexture pairs a texture with its view. Surface textures are owned by
// the swapchain and are never released here.
type targetTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	surface bool
}

func (t *targetTexture) release() {
	if t == nil {
		return
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil && !t.surface {
		t.texture.Release()
	}
}

type textureCreator func(device *wgpu.Device, descriptor *wgpu.TextureDescriptor) (*wgpu.Texture, *wgpu.TextureView, error)

type surfaceViewCreator func(texture *wgpu.Texture) (*wgpu.TextureView, error)

func createDeviceTexture(device *wgpu.Device, descriptor *wgpu.TextureDescriptor) (*wgpu.Texture, *wgpu.TextureView, error) {
	texture, err := device.CreateTexture(descriptor)
	if err != nil {
		return nil, nil, err
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, nil, err
	}
	return texture, view, nil
}

func createSurfaceView(texture *wgpu.Texture) (*wgpu.TextureView, error) {
	return texture.CreateView(nil)
}

type renderTarget struct {
	currentConfig   *TargetConfig
	scheduledConfig *TargetConfig

	main         *targetTexture
	multisampled *targetTexture
	depthStencil *targetTexture

	resolveNext           bool
	clearNext             bool
	clearNextDepthStencil bool

	createTexture     textureCreator
	createSurfaceView surfaceViewCreator
}

// NewTarget creates a target whose textures do not exist until the first
// Apply or ApplySurface.
//
// Parameters:
//   - options: optional configuration options for the target.
//
// Returns:
//   - Target: the new target.
func NewTarget(options ...TargetBuilderOption) Target {
	config := DefaultTargetConfig()
	target := &renderTarget{
		scheduledConfig:   &config,
		createTexture:     createDeviceTexture,
		createSurfaceView: createSurfaceView,
	}
	for _, option := range options {
		option(target)
	}
	return target
}

// effectiveConfig is the current config, falling back to the scheduled one
// before the first apply.
func (t *renderTarget) effectiveConfig() *TargetConfig {
	if t.currentConfig != nil {
		return t.currentConfig
	}
	return t.scheduledConfig
}

func (t *renderTarget) CurrentConfig() TargetConfig {
	return t.effectiveConfig().clone()
}

func (t *renderTarget) ScheduledConfig() *TargetConfig {
	if t.scheduledConfig == nil {
		config := t.currentConfig.clone()
		t.scheduledConfig = &config
	}
	return t.scheduledConfig
}

func (t *renderTarget) HasScheduledChange() bool {
	return t.scheduledConfig != nil
}

func (t *renderTarget) Size() (uint32, uint32) {
	config := t.effectiveConfig()
	return config.Width, config.Height
}

func (t *renderTarget) SampleCount() uint32 {
	if multisample := t.effectiveConfig().Multisample; multisample != nil {
		return multisample.SampleCount
	}
	return 1
}

func (t *renderTarget) ClearColor() (wgpu.Color, bool) {
	if color := t.effectiveConfig().Color; color != nil {
		return color.ClearColor, true
	}
	return wgpu.Color{}, false
}

func (t *renderTarget) ClearDepth() (float32, bool) {
	if depthStencil := t.effectiveConfig().DepthStencil; depthStencil != nil {
		return depthStencil.ClearDepth, true
	}
	return 0, false
}

func (t *renderTarget) ClearStencil() (uint32, bool) {
	if depthStencil := t.effectiveConfig().DepthStencil; depthStencil != nil {
		return depthStencil.ClearStencil, true
	}
	return 0, false
}

func (t *renderTarget) Texture() *wgpu.Texture {
	if t.main == nil {
		return nil
	}
	return t.main.texture
}

func (t *renderTarget) TextureView() *wgpu.TextureView {
	if t.main == nil {
		return nil
	}
	return t.main.view
}

func (t *renderTarget) DepthStencilTexture() *wgpu.Texture {
	if t.depthStencil == nil {
		return nil
	}
	return t.depthStencil.texture
}

func (t *renderTarget) DepthStencilView() *wgpu.TextureView {
	if t.depthStencil == nil {
		return nil
	}
	return t.depthStencil.view
}

func (t *renderTarget) IsSurface() bool {
	return t.main != nil && t.main.surface
}

func (t *renderTarget) Resize(width, height uint32) {
	config := t.ScheduledConfig()
	config.Width = width
	config.Height = height
}

func (t *renderTarget) SetClearColor(color wgpu.Color) {
	if config := t.ScheduledConfig().Color; config != nil {
		config.ClearColor = color
	}
}

func (t *renderTarget) SetClearDepth(depth float32) {
	if config := t.ScheduledConfig().DepthStencil; config != nil {
		config.ClearDepth = depth
	}
}

func (t *renderTarget) SetClearStencil(stencil uint32) {
	if config := t.ScheduledConfig().DepthStencil; config != nil {
		config.ClearStencil = stencil
	}
}

func (t *renderTarget) ScheduleClearColor() {
	t.clearNext = true
}

func (t *renderTarget) ScheduleClearDepthStencil() {
	t.clearNextDepthStencil = true
}

func (t *renderTarget) ScheduleResolve() {
	t.resolveNext = true
}

// targetChanges reports which texture axes the next apply must rebuild.
type targetChanges struct {
	color        bool
	multisample  bool
	depthStencil bool
}

func (c targetChanges) any() bool {
	return c.color || c.multisample || c.depthStencil
}

// axisDiffers compares one optional config axis by the key that forces a
// texture rebuild. Absent on both sides means unchanged.
func axisDiffers[T any, K comparable](current, scheduled *T, key func(*T) K) bool {
	if current == nil && scheduled == nil {
		return false
	}
	if (current == nil) != (scheduled == nil) {
		return true
	}
	return key(current) != key(scheduled)
}

func (t *renderTarget) changes() targetChanges {
	if t.currentConfig == nil {
		return targetChanges{color: true, multisample: true, depthStencil: true}
	}
	if t.scheduledConfig == nil {
		return targetChanges{}
	}
	current, scheduled := t.currentConfig, t.scheduledConfig
	resized := current.Width != scheduled.Width || current.Height != scheduled.Height
	// Color compares usages only: clear color needs no rebuild, and the
	// format of a surface target is the surface's business.
	return targetChanges{
		color: resized || axisDiffers(current.Color, scheduled.Color, func(c *ColorConfig) wgpu.TextureUsage {
			return c.Usages
		}),
		multisample: resized || axisDiffers(current.Multisample, scheduled.Multisample, func(c *MultisampleConfig) uint32 {
			return c.SampleCount
		}),
		depthStencil: resized || axisDiffers(current.DepthStencil, scheduled.DepthStencil, func(c *DepthStencilConfig) [2]uint32 {
			return [2]uint32{uint32(c.Usages), uint32(c.Format)}
		}),
	}
}

func (t *renderTarget) Apply(device *wgpu.Device) error {
	return t.applyChanges(device, t.changes())
}

func (t *renderTarget) applyChanges(device *wgpu.Device, changes targetChanges) error {
	if t.scheduledConfig != nil {
		t.currentConfig = t.scheduledConfig
		t.scheduledConfig = nil
	}
	if !changes.any() {
		return nil
	}

	config := t.currentConfig
	descriptor := wgpu.TextureDescriptor{
		Size: wgpu.Extent3D{
			Width:              config.Width,
			Height:             config.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageRenderAttachment,
	}

	// Each branch below mutates the shared descriptor before creating its
	// texture, so the branch order matters.
	if changes.color {
		if t.IsSurface() {
			log.Println("cannot reconfigure the color texture of a surface target, resize the surface instead")
			return nil
		}
		t.main.release()
		t.main = nil
		if color := config.Color; color != nil {
			descriptor.Usage = color.Usages | wgpu.TextureUsageRenderAttachment
			descriptor.Format = color.Format
			texture, view, err := t.createTexture(device, &descriptor)
			if err != nil {
				return fmt.Errorf("failed to create color texture: %w", err)
			}
			t.main = &targetTexture{texture: texture, view: view}
		}
	}
	if changes.multisample {
		t.multisampled.release()
		t.multisampled = nil
		if multisample := config.Multisample; multisample != nil {
			descriptor.Usage = wgpu.TextureUsageRenderAttachment
			descriptor.SampleCount = multisample.SampleCount
			texture, view, err := t.createTexture(device, &descriptor)
			if err != nil {
				return fmt.Errorf("failed to create multisampled texture: %w", err)
			}
			t.multisampled = &targetTexture{texture: texture, view: view}
		}
	}
	if changes.depthStencil {
		t.depthStencil.release()
		t.depthStencil = nil
		if depthStencil := config.DepthStencil; depthStencil != nil {
			descriptor.SampleCount = 1
			descriptor.Usage = depthStencil.Usages | wgpu.TextureUsageRenderAttachment
			descriptor.Format = depthStencil.Format
			texture, view, err := t.createTexture(device, &descriptor)
			if err != nil {
				return fmt.Errorf("failed to create depth/stencil texture: %w", err)
			}
			t.depthStencil = &targetTexture{texture: texture, view: view}
		}
	}
	return nil
}

func (t *renderTarget) ApplySurface(device *wgpu.Device, texture *wgpu.Texture, width, height uint32) error {
	t.Resize(width, height)

	view, err := t.createSurfaceView(texture)
	if err != nil {
		return fmt.Errorf("failed to create surface texture view: %w", err)
	}
	t.main.release()
	t.main = &targetTexture{texture: texture, view: view, surface: true}

	// The surface already replaced the color texture, only the other axes
	// may still rebuild.
	changes := t.changes()
	changes.color = false
	return t.applyChanges(device, changes)
}

func (t *renderTarget) Present() *wgpu.Texture {
	main := t.main
	if main == nil {
		panic("no main texture while presenting surface")
	}
	t.main = nil
	if !main.surface {
		panic("main texture was not a surface texture")
	}
	if main.view != nil {
		main.view.Release()
	}
	return main.texture
}

func (t *renderTarget) BeginPass(encoder *wgpu.CommandEncoder) *wgpu.RenderPassEncoder {
	return t.beginPass(encoder, t.takeResolveNext())
}

func (t *renderTarget) takeResolveNext() bool {
	resolve := t.resolveNext
	t.resolveNext = false
	return resolve
}

func (t *renderTarget) BeginResolvingPass(encoder *wgpu.CommandEncoder) *wgpu.RenderPassEncoder {
	return t.beginPass(encoder, true)
}

func (t *renderTarget) BeginNonResolvingPass(encoder *wgpu.CommandEncoder) *wgpu.RenderPassEncoder {
	return t.beginPass(encoder, false)
}

func (t *renderTarget) beginPass(encoder *wgpu.CommandEncoder, resolve bool) *wgpu.RenderPassEncoder {
	descriptor := t.passDescriptor(resolve)
	return encoder.BeginRenderPass(descriptor)
}

// passDescriptor consumes the scheduled clear flags and builds the pass
// descriptor for the textures the target currently owns.
func (t *renderTarget) passDescriptor(resolve bool) *wgpu.RenderPassDescriptor {
	clearColor := t.clearNext
	clearDepthStencil := t.clearNextDepthStencil
	t.clearNext = false
	t.clearNextDepthStencil = false

	config := t.effectiveConfig()
	descriptor := &wgpu.RenderPassDescriptor{}
	if t.main != nil {
		attachment := wgpu.RenderPassColorAttachment{
			View:    t.main.view,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}
		if resolve && t.multisampled != nil {
			attachment.ResolveTarget = t.multisampled.view
		}
		if clearColor {
			if config.Color == nil {
				panic("texture but no color config")
			}
			attachment.LoadOp = wgpu.LoadOpClear
			attachment.ClearValue = config.Color.ClearColor
		}
		descriptor.ColorAttachments = []wgpu.RenderPassColorAttachment{attachment}
	}
	if t.depthStencil != nil {
		attachment := &wgpu.RenderPassDepthStencilAttachment{
			View:           t.depthStencil.view,
			DepthLoadOp:    wgpu.LoadOpLoad,
			DepthStoreOp:   wgpu.StoreOpStore,
			StencilLoadOp:  wgpu.LoadOpLoad,
			StencilStoreOp: wgpu.StoreOpStore,
		}
		if clearDepthStencil {
			if config.DepthStencil == nil {
				panic("texture but no depth/stencil config")
			}
			attachment.DepthLoadOp = wgpu.LoadOpClear
			attachment.DepthClearValue = config.DepthStencil.ClearDepth
			attachment.StencilLoadOp = wgpu.LoadOpClear
			attachment.StencilClearValue = config.DepthStencil.ClearStencil
		}
		descriptor.DepthStencilAttachment = attachment
	}
	return descriptor
}
