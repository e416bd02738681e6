// Package engine assembles the window, GPU context, render queue, and texture
// pipeline into a frame driver that redraws for as long as the window lives.
package engine

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/EliiasG/modula/asset"
	"github.com/EliiasG/modula/engine/clock"
	"github.com/EliiasG/modula/engine/gpu"
	"github.com/EliiasG/modula/engine/profiler"
	"github.com/EliiasG/modula/engine/render"
	"github.com/EliiasG/modula/engine/texture"
	"github.com/EliiasG/modula/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// engine implements the Engine interface.
// Owns the window, the GPU context, and every per-frame store and queue.
type engine struct {
	window window.Window
	gpu    gpu.Context
	clock  *clock.Clock

	profiler         *profiler.Profiler
	profilingEnabled bool

	resources   *render.Resources
	renderQueue *render.Queue

	textures      *asset.Store[*wgpu.Texture]
	textureQueue  *texture.Queue
	textureLoader *texture.Loader
	atlasGroups   *asset.Store[*texture.AtlasGroup]
	atlasQueue    *texture.GroupQueue
	layouter      texture.Layouter

	workerPool  worker.DynamicWorkerPool
	workerCount int

	// surfaceTarget is the render target the swapchain texture is applied to
	// each frame.
	surfaceTarget asset.Id[render.Target]

	initHooks    []func(Engine)
	preDrawHooks []func(Engine)
	drawHooks    []func(Engine)
	resizeHooks  []func(Engine, uint32, uint32)

	// Resize callbacks fire during message polling, on the same thread the
	// frame runs on. The newest size is held here until the next frame starts.
	pendingResizeWidth  int
	pendingResizeHeight int
	resizePending       bool

	running bool

	// builder staging, only read during NewEngine
	windowOptions []window.WindowBuilderOption
	gpuOptions    []gpu.ContextBuilderOption
}

// Engine is the main entry point for the engine.
// It owns the frame loop: acquiring the surface texture, flushing deferred
// texture work, running the registered hooks, executing scheduled sequences,
// and presenting.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// GPU returns the WebGPU context holding the device, queue, and surface.
	//
	// Returns:
	//   - gpu.Context: the GPU context
	GPU() gpu.Context

	// Clock returns the frame clock. It ticks once per frame, before the
	// pre-draw hooks run.
	//
	// Returns:
	//   - *clock.Clock: the frame clock
	Clock() *clock.Clock

	// WorkerPool returns the shared worker pool used for CPU-side tasks such
	// as mip level generation.
	//
	// Returns:
	//   - worker.DynamicWorkerPool: the worker pool
	WorkerPool() worker.DynamicWorkerPool

	// Resources returns the render target and sequence stores handed to
	// operations while sequences run.
	//
	// Returns:
	//   - *render.Resources: the render resources
	Resources() *render.Resources

	// RenderQueue returns the queue sequences are scheduled on. Scheduled
	// sequences run at the end of every frame.
	//
	// Returns:
	//   - *render.Queue: the render queue
	RenderQueue() *render.Queue

	// SurfaceTarget returns the id of the render target backed by the
	// swapchain. Drawing to this target draws to the window.
	//
	// Returns:
	//   - asset.Id[render.Target]: the surface target id
	SurfaceTarget() asset.Id[render.Target]

	// Textures returns the texture store fed by the texture queue.
	//
	// Returns:
	//   - *asset.Store[*wgpu.Texture]: the texture store
	Textures() *asset.Store[*wgpu.Texture]

	// TextureQueue returns the deferred texture queue. Queued inits and
	// writes are flushed at the start of every frame, before the pre-draw
	// hooks run.
	//
	// Returns:
	//   - *texture.Queue: the texture queue
	TextureQueue() *texture.Queue

	// TextureLoader returns the loader that allocates texture store slots and
	// enqueues their uploads.
	//
	// Returns:
	//   - *texture.Loader: the texture loader
	TextureLoader() *texture.Loader

	// AtlasGroups returns the atlas group store fed by the atlas group queue.
	//
	// Returns:
	//   - *asset.Store[*texture.AtlasGroup]: the atlas group store
	AtlasGroups() *asset.Store[*texture.AtlasGroup]

	// AtlasGroupQueue returns the deferred atlas build queue. Queued groups
	// are laid out and uploaded at the start of every frame, sized by the
	// device limits.
	//
	// Returns:
	//   - *texture.GroupQueue: the atlas group queue
	AtlasGroupQueue() *texture.GroupQueue

	// AddPreDrawHook registers a function called every frame before the draw
	// hooks, once the deferred texture work has been flushed. Use it to
	// update per-frame data.
	//
	// Parameters:
	//   - hook: function receiving the engine
	AddPreDrawHook(hook func(Engine))

	// AddDrawHook registers a function called every frame after the pre-draw
	// hooks. Use it to schedule sequences on the render queue.
	//
	// Parameters:
	//   - hook: function receiving the engine
	AddDrawHook(hook func(Engine))

	// AddResizeHook registers a function called when the surface has been
	// reconfigured after a window resize. Zero sizes from minimized windows
	// are never delivered.
	//
	// Parameters:
	//   - hook: function receiving the engine and the new surface size in pixels
	AddResizeHook(hook func(e Engine, width, height uint32))

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Run starts the frame loop (blocks until the window closes).
	Run()

	// Quit stops the frame loop. The current frame still finishes and the
	// window closes before the next one. Safe to call multiple times.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Creates the window and GPU context, configures the surface to the window
// size, and publishes the surface render target.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (window, GPU, hooks, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		clock:        clock.NewClock(),
		profiler:     profiler.NewProfiler(),
		resources:    render.NewResources(),
		renderQueue:  render.NewQueue(),
		textures:     asset.NewStore[*wgpu.Texture](),
		textureQueue: texture.NewQueue(),
		atlasGroups:  asset.NewStore[*texture.AtlasGroup](),
		layouter:     texture.DefaultLayouter{},
		workerCount:  max(runtime.NumCPU()-1, 1),
	}

	for _, opt := range options {
		opt(e)
	}

	e.textureLoader = texture.NewLoader(e.textureQueue, e.textures)
	e.atlasQueue = texture.NewGroupQueue(e.layouter)
	e.workerPool = worker.NewDynamicWorkerPool(e.workerCount, 256, 1*time.Second)

	if e.window == nil {
		e.window = window.NewWindow(e.windowOptions...)
	}
	e.gpu = gpu.NewContext(e.window.SurfaceDescriptor(), e.gpuOptions...)
	e.gpu.ConfigureSurface(uint32(e.window.Width()), uint32(e.window.Height()))

	e.surfaceTarget = e.resources.Targets.Add(
		render.NewTarget(render.WithConfig(render.DefaultTargetConfig())),
	)

	e.window.SetResizeCallback(func(width, height int) {
		e.pendingResizeWidth = width
		e.pendingResizeHeight = height
		e.resizePending = true
	})

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) GPU() gpu.Context {
	return e.gpu
}

func (e *engine) Clock() *clock.Clock {
	return e.clock
}

func (e *engine) WorkerPool() worker.DynamicWorkerPool {
	return e.workerPool
}

func (e *engine) Resources() *render.Resources {
	return e.resources
}

func (e *engine) RenderQueue() *render.Queue {
	return e.renderQueue
}

func (e *engine) SurfaceTarget() asset.Id[render.Target] {
	return e.surfaceTarget
}

func (e *engine) Textures() *asset.Store[*wgpu.Texture] {
	return e.textures
}

func (e *engine) TextureQueue() *texture.Queue {
	return e.textureQueue
}

func (e *engine) TextureLoader() *texture.Loader {
	return e.textureLoader
}

func (e *engine) AtlasGroups() *asset.Store[*texture.AtlasGroup] {
	return e.atlasGroups
}

func (e *engine) AtlasGroupQueue() *texture.GroupQueue {
	return e.atlasQueue
}

func (e *engine) AddPreDrawHook(hook func(Engine)) {
	e.preDrawHooks = append(e.preDrawHooks, hook)
}

func (e *engine) AddDrawHook(hook func(Engine)) {
	e.drawHooks = append(e.drawHooks, hook)
}

func (e *engine) AddResizeHook(hook func(e Engine, width, height uint32)) {
	e.resizeHooks = append(e.resizeHooks, hook)
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) Run() {
	e.running = true
	for _, hook := range e.initHooks {
		hook(e)
	}
	e.window.SetUpdateCallback(e.drawFrame)
	e.window.ProcessMessages()

	// The loop also exits when the window is closed from the outside, so the
	// window may or may not already be gone here. Closing twice is a no-op.
	e.running = false
	if err := e.window.Close(); err != nil {
		log.Printf("failed to close the window: %v", err)
	}
	e.gpu.Release()
}

// Quit stops the frame loop. Clearing the flag makes the next update close
// the window instead of drawing, which ends the message loop.
func (e *engine) Quit() {
	e.running = false
}

// drawFrame runs one frame: apply pending resizes, acquire the surface
// texture, flush deferred texture work, run the hooks, execute scheduled
// sequences, and present.
func (e *engine) drawFrame() {
	if !e.running {
		if err := e.window.Close(); err != nil {
			log.Printf("failed to close the window: %v", err)
		}
		return
	}

	if e.resizePending {
		e.applyPendingResize()
	}

	surfaceTexture, err := e.gpu.Acquire()
	if err != nil {
		switch gpu.ClassifySurfaceError(err) {
		case gpu.SurfaceErrorFatal:
			log.Fatalf("out of GPU memory while acquiring the surface texture: %v", err)
		case gpu.SurfaceErrorRecreate:
			width, height := e.gpu.SurfaceSize()
			e.gpu.ConfigureSurface(width, height)
		}
		// Transient failures skip the frame; the next update tries again.
		return
	}

	width, height := e.gpu.SurfaceSize()
	surfaceTarget := e.resources.Target(e.surfaceTarget)
	if err := surfaceTarget.ApplySurface(e.gpu.Device(), surfaceTexture, width, height); err != nil {
		log.Printf("failed to apply the surface texture: %v", err)
		surfaceTexture.Release()
		return
	}

	e.clock.Tick()

	if err := e.textureQueue.Flush(e.textures, e.gpu.Device(), e.gpu.Queue()); err != nil {
		panic(fmt.Errorf("failed to flush the texture queue: %w", err))
	}
	maxSize := texture.MaxAtlasSizeFromLimits(e.gpu.Limits())
	e.atlasQueue.Flush(e.atlasGroups, maxSize, e.gpu.Device(), e.gpu.Queue())

	for _, hook := range e.preDrawHooks {
		hook(e)
	}
	for _, hook := range e.drawHooks {
		hook(e)
	}

	if err := e.renderQueue.RunScheduled(e.resources, e.gpu.Device(), e.gpu.Queue()); err != nil {
		panic(fmt.Errorf("failed to run scheduled sequences: %w", err))
	}

	presented := surfaceTarget.Present()
	e.gpu.Present()
	presented.Release()

	if e.profilingEnabled {
		e.profiler.Tick()
	}
}

// applyPendingResize reconfigures the surface to the latest window size and
// notifies the resize hooks. Minimized windows report a zero size, which is
// dropped without touching the surface.
func (e *engine) applyPendingResize() {
	width, height := e.pendingResizeWidth, e.pendingResizeHeight
	e.resizePending = false
	if width <= 0 || height <= 0 {
		return
	}
	e.gpu.ConfigureSurface(uint32(width), uint32(height))
	for _, hook := range e.resizeHooks {
		hook(e, uint32(width), uint32(height))
	}
}
