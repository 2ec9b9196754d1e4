package renderer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
	"github.com/spaghettifunk/vgpix/engine/renderer/software"
)

type RendererType uint8

const (
	Software RendererType = iota
	Vulkan
)

func (t RendererType) String() string {
	switch t {
	case Software:
		return "software"
	case Vulkan:
		return "vulkan"
	}
	return fmt.Sprintf("RendererType(%d)", uint8(t))
}

func ParseRendererType(s string) (RendererType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "software":
		return Software, nil
	case "vulkan":
		return Vulkan, nil
	}
	return 0, fmt.Errorf("%q: %w", s, core.ErrBackendNotSupported)
}

// BackendFactory builds an uninitialized backend.
type BackendFactory func() RendererBackend

var (
	factoriesMu sync.Mutex
	factories   = map[RendererType]BackendFactory{
		Software: func() RendererBackend { return software.New() },
	}
)

// RegisterBackend makes a backend type available to New. GPU backends
// register themselves from their package init so that only binaries
// importing them link against the native loaders.
func RegisterBackend(rtype RendererType, factory BackendFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[rtype] = factory
}

// Renderer is the frontend an engine talks to. It owns one backend.
type Renderer struct {
	backend      RendererBackend
	rendererType RendererType
	capabilities metadata.RendererCapabilities
}

// New creates and initializes the backend of the requested type.
func New(rtype RendererType, config *metadata.RendererBackendConfig) (*Renderer, error) {
	factoriesMu.Lock()
	factory, ok := factories[rtype]
	factoriesMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("renderer type %s: %w", rtype, core.ErrBackendNotSupported)
	}

	r := &Renderer{backend: factory(), rendererType: rtype}
	if err := r.initialize(config); err != nil {
		return nil, err
	}
	return r, nil
}

// NewWithBackend wraps an already constructed backend and initializes it.
func NewWithBackend(backend RendererBackend, config *metadata.RendererBackendConfig) (*Renderer, error) {
	r := &Renderer{backend: backend, rendererType: Software}
	if err := r.initialize(config); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) initialize(config *metadata.RendererBackendConfig) error {
	if err := r.backend.Initialize(config); err != nil {
		core.LogError("failed to initialize the %s renderer backend: %s", r.rendererType, err)
		return err
	}
	r.capabilities = r.backend.Capabilities()
	core.LogDebug("renderer backend %s ready (non power of two textures: %t)", r.rendererType, r.capabilities.NonPowerOfTwo)
	return nil
}

func (r *Renderer) Shutdown() error {
	return r.backend.Shutdown()
}

func (r *Renderer) Type() RendererType {
	return r.rendererType
}

func (r *Renderer) Backend() RendererBackend {
	return r.backend
}

func (r *Renderer) Capabilities() metadata.RendererCapabilities {
	return r.capabilities
}

func (r *Renderer) SurfaceSize() (int32, int32) {
	return r.backend.SurfaceSize()
}

func (r *Renderer) OnResize(width, height int32) error {
	if err := r.backend.Resized(width, height); err != nil {
		core.LogError("failed to resize the surface to %dx%d: %s", width, height, err)
		return err
	}
	return nil
}

func (r *Renderer) TextureCreate(texture *metadata.Texture, pixels []uint8) error {
	return r.backend.TextureCreate(texture, pixels)
}

func (r *Renderer) TextureWriteData(texture *metadata.Texture, region metadata.Rect, stride int32, pixels []uint8) error {
	return r.backend.TextureWriteData(texture, region, stride, pixels)
}

func (r *Renderer) TextureDestroy(texture *metadata.Texture) {
	r.backend.TextureDestroy(texture)
}

func (r *Renderer) DrawPixels(x, y, width, height int32, pixels []uint8) error {
	return r.backend.FramebufferDraw(x, y, width, height, pixels)
}

func (r *Renderer) ReadPixels(x, y, width, height int32, pixels []uint8) error {
	return r.backend.FramebufferRead(x, y, width, height, pixels)
}

func (r *Renderer) CopyPixels(dx, dy, sx, sy, width, height int32) error {
	return r.backend.FramebufferCopy(dx, dy, sx, sy, width, height)
}

func (r *Renderer) Clear(region metadata.Rect, color metadata.Color) error {
	return r.backend.FramebufferClear(region, color)
}

func (r *Renderer) Flush() error {
	return r.backend.Flush()
}

func (r *Renderer) Finish() error {
	return r.backend.Finish()
}
