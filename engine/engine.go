package engine

import (
	"fmt"

	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
	"github.com/spaghettifunk/vgpix/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is initialized and accepts operations
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine has been shut down; every operation records NoContext
	EngineStageShutdown
)

// Engine is the context every pixel operation runs against. It owns the
// renderer backend, the resource table, the sticky error slot and the clear
// color. An Engine must only be used from one goroutine at a time.
type Engine struct {
	config        *Config
	currentStage  Stage
	renderer      *renderer.Renderer
	systemManager *systems.SystemManager
	memory        *core.MemorySystem
	metrics       *core.TransferMetrics
	events        *core.EventSystem
	clock         *core.Clock

	errorCode  core.ErrorCode
	clearColor metadata.Color
}

// New creates the backend selected by cfg.Backend.Type and an engine around it.
func New(cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r, err := renderer.New(cfg.rendererType(), backendConfig(cfg))
	if err != nil {
		return nil, err
	}
	return newEngine(cfg, r)
}

// NewWithBackend creates an engine around an already constructed backend.
// The backend type in cfg is ignored.
func NewWithBackend(cfg *Config, backend renderer.RendererBackend) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r, err := renderer.NewWithBackend(backend, backendConfig(cfg))
	if err != nil {
		return nil, err
	}
	return newEngine(cfg, r)
}

func backendConfig(cfg *Config) *metadata.RendererBackendConfig {
	return &metadata.RendererBackendConfig{
		ApplicationName: cfg.Name,
		SurfaceWidth:    cfg.Surface.Width,
		SurfaceHeight:   cfg.Surface.Height,
		NonPowerOfTwo:   cfg.Backend.NonPowerOfTwo,
		Headless:        cfg.Backend.Headless,
		Validation:      cfg.Backend.Validation,
	}
}

func newEngine(cfg *Config, r *renderer.Renderer) (*Engine, error) {
	if err := core.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	memory := core.NewMemorySystem(cfg.Limits.MemoryLimit)
	metrics := core.NewTransferMetrics()
	events := core.NewEventSystem()

	sm, err := systems.NewSystemManager(&systems.SystemManagerConfig{
		ResourceTable: systems.ResourceTableConfig{
			MaxImageCount: cfg.Limits.MaxImageCount,
		},
		Images: systems.ImageSystemConfig{
			MaxImageWidth:  cfg.Limits.MaxImageWidth,
			MaxImageHeight: cfg.Limits.MaxImageHeight,
			MaxImagePixels: cfg.Limits.MaxImagePixels,
		},
	}, r, memory, metrics, events)
	if err != nil {
		r.Shutdown()
		return nil, err
	}

	e := &Engine{
		config:        cfg,
		currentStage:  EngineStageRunning,
		renderer:      r,
		systemManager: sm,
		memory:        memory,
		metrics:       metrics,
		events:        events,
		clock:         core.NewClock(),
		clearColor:    metadata.NewColor(0, 0, 0, 0),
	}
	e.clock.Start()
	core.LogInfo("engine started: %s", cfg)
	return e, nil
}

// Shutdown destroys every image still alive and releases the backend.
func (e *Engine) Shutdown() error {
	if e.currentStage != EngineStageRunning {
		return fmt.Errorf("engine is not running: %w", core.ErrNoContext)
	}
	e.currentStage = EngineStageShuttingDown

	if err := e.systemManager.Shutdown(); err != nil {
		return err
	}
	if err := e.renderer.Shutdown(); err != nil {
		return err
	}
	e.events.Shutdown()

	e.clock.Update()
	core.LogDebug("memory at shutdown:\n%s", e.memory.UsageReport())
	core.LogInfo("engine shut down after %s", e.clock.Elapsed())
	e.currentStage = EngineStageShutdown
	return nil
}

func (e *Engine) Config() *Config {
	return e.config
}

func (e *Engine) RendererType() renderer.RendererType {
	return e.renderer.Type()
}

// GetError returns the oldest error not yet queried and clears the slot.
func (e *Engine) GetError() core.ErrorCode {
	code := e.errorCode
	e.errorCode = core.NoError
	return code
}

// setError records code unless an earlier error is still pending.
func (e *Engine) setError(code core.ErrorCode) {
	if e.errorCode == core.NoError {
		e.errorCode = code
	}
}

// fail logs err and records its code in the sticky slot.
func (e *Engine) fail(op string, err error) {
	code := core.CodeFor(err)
	core.LogDebug("%s rejected with %s: %s", op, code, err)
	e.setError(code)
}

// running records NoContext for operations issued after Shutdown.
func (e *Engine) running(op string) bool {
	if e.currentStage != EngineStageRunning {
		e.fail(op, core.ErrNoContext)
		return false
	}
	return true
}

// SetClearColor sets the color used by Clear and ClearImage. Channels are
// clamped to [0, 1].
func (e *Engine) SetClearColor(c metadata.Color) {
	e.clearColor = c.Clamped()
}

func (e *Engine) ClearColor() metadata.Color {
	return e.clearColor
}

// Clear fills a rectangle of the window surface with the clear color.
func (e *Engine) Clear(x, y, width, height int32) {
	if !e.running("Clear") {
		return
	}
	if width <= 0 || height <= 0 {
		e.fail("Clear", fmt.Errorf("clear size %dx%d: %w", width, height, core.ErrIllegalArgument))
		return
	}
	if err := e.renderer.Clear(metadata.Rect{X: x, Y: y, Width: width, Height: height}, e.clearColor); err != nil {
		core.LogError("surface clear failed: %s", err)
	}
}

func (e *Engine) Flush() {
	if !e.running("Flush") {
		return
	}
	if err := e.renderer.Flush(); err != nil {
		core.LogError("flush failed: %s", err)
	}
}

// Finish blocks until every issued backend operation completed.
func (e *Engine) Finish() {
	if !e.running("Finish") {
		return
	}
	if err := e.renderer.Finish(); err != nil {
		core.LogError("finish failed: %s", err)
	}
}

// ResizeSurface resizes the window surface. Its contents are undefined
// afterwards.
func (e *Engine) ResizeSurface(width, height int32) {
	if !e.running("ResizeSurface") {
		return
	}
	if width <= 0 || height <= 0 {
		e.fail("ResizeSurface", fmt.Errorf("surface size %dx%d: %w", width, height, core.ErrIllegalArgument))
		return
	}
	if err := e.renderer.OnResize(width, height); err != nil {
		e.fail("ResizeSurface", err)
		return
	}

	var ctx core.EventContext
	ctx.Data.I32[0] = width
	ctx.Data.I32[1] = height
	e.events.Fire(core.EVENT_CODE_SURFACE_RESIZED, e, ctx)
}

func (e *Engine) SurfaceSize() (int32, int32) {
	return e.renderer.SurfaceSize()
}

func (e *Engine) Metrics() core.TransferStats {
	return e.metrics.Snapshot()
}

func (e *Engine) Events() *core.EventSystem {
	return e.events
}

func (e *Engine) Memory() *core.MemorySystem {
	return e.memory
}

// ImageCount is the number of live images.
func (e *Engine) ImageCount() int {
	return e.systemManager.ResourceTable().Count()
}
