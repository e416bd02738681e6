package engine

import (
	"github.com/EliiasG/modula/engine/gpu"
	"github.com/EliiasG/modula/engine/texture"
	"github.com/EliiasG/modula/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally. Window options passed via WithWindowOptions are ignored.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWindowOptions sets the options the engine creates its window with, such
// as the title and initial size.
//
// Parameters:
//   - options: functional options forwarded to window.NewWindow
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, options...)
	}
}

// WithGPUOptions sets the options the engine creates its GPU context with,
// such as the present mode and device limits.
//
// Parameters:
//   - options: functional options forwarded to gpu.NewContext
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGPUOptions(options ...gpu.ContextBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.gpuOptions = append(e.gpuOptions, options...)
	}
}

// WithWorkerCount sets the size of the shared worker pool.
// Values <= 0 keep the default of one worker per CPU, minus one for the
// frame loop.
//
// Parameters:
//   - count: number of workers in the pool
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorkerCount(count int) EngineBuilderOption {
	return func(e *engine) {
		if count <= 0 {
			return
		}
		e.workerCount = count
	}
}

// WithLayouter sets the layouter used to pack queued atlas groups.
//
// Parameters:
//   - layouter: the atlas layouter (defaults to texture.DefaultLayouter)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLayouter(layouter texture.Layouter) EngineBuilderOption {
	return func(e *engine) {
		e.layouter = layouter
	}
}

// WithInitHook registers a function called once when Run starts, before the
// first frame. Use it to load assets and build sequences.
//
// Parameters:
//   - hook: function receiving the engine
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithInitHook(hook func(Engine)) EngineBuilderOption {
	return func(e *engine) {
		e.initHooks = append(e.initHooks, hook)
	}
}

// WithPreDrawHook registers a function called every frame before the draw
// hooks, once the deferred texture work has been flushed.
//
// Parameters:
//   - hook: function receiving the engine
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPreDrawHook(hook func(Engine)) EngineBuilderOption {
	return func(e *engine) {
		e.preDrawHooks = append(e.preDrawHooks, hook)
	}
}

// WithDrawHook registers a function called every frame after the pre-draw
// hooks, to schedule sequences on the render queue.
//
// Parameters:
//   - hook: function receiving the engine
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDrawHook(hook func(Engine)) EngineBuilderOption {
	return func(e *engine) {
		e.drawHooks = append(e.drawHooks, hook)
	}
}

// WithResizeHook registers a function called when the surface has been
// reconfigured after a window resize.
//
// Parameters:
//   - hook: function receiving the engine and the new surface size in pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithResizeHook(hook func(e Engine, width, height uint32)) EngineBuilderOption {
	return func(e *engine) {
		e.resizeHooks = append(e.resizeHooks, hook)
	}
}
