// Package software implements the renderer backend on the CPU. Textures are
// kept as byte mirrors and the window surface is a plain RGBA framebuffer.
package software

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/vgpix/engine/containers"
	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/blit"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

// Call records one backend operation, in issue order.
type Call struct {
	Op        string
	TextureID uint32
	Region    metadata.Rect
}

// MaxRecordedCalls bounds the call log; older calls are dropped first.
const MaxRecordedCalls = 4096

type texture struct {
	width  int32
	height int32
	data   []byte
}

type SoftwareRenderer struct {
	config       metadata.RendererBackendConfig
	capabilities metadata.RendererCapabilities

	nextTextureID uint32
	textures      map[uint32]*texture
	framebuffer   *metadata.PixelBuffer

	calls *containers.RingQueue[Call]

	// FailTextureUploads makes every texture create/write fail with
	// ErrUploadRefused. Used by tests.
	FailTextureUploads bool
}

// ErrUploadRefused carries no error code, like a lost device would.
var ErrUploadRefused = errors.New("texture upload refused")

func New() *SoftwareRenderer {
	return &SoftwareRenderer{
		textures:      make(map[uint32]*texture),
		nextTextureID: 1,
		calls:         containers.NewRingQueue[Call](MaxRecordedCalls),
	}
}

func (sr *SoftwareRenderer) Initialize(config *metadata.RendererBackendConfig) error {
	if config.SurfaceWidth <= 0 || config.SurfaceHeight <= 0 {
		return fmt.Errorf("invalid surface size %dx%d: %w", config.SurfaceWidth, config.SurfaceHeight, core.ErrIllegalArgument)
	}
	sr.config = *config
	sr.capabilities = metadata.RendererCapabilities{
		NonPowerOfTwo: config.NonPowerOfTwo,
	}
	sr.framebuffer = newFramebuffer(config.SurfaceWidth, config.SurfaceHeight)
	core.LogDebug("software renderer initialized with a %dx%d surface", config.SurfaceWidth, config.SurfaceHeight)
	return nil
}

func newFramebuffer(width, height int32) *metadata.PixelBuffer {
	return metadata.NewPixelBuffer(make([]byte, int(width)*int(height)*metadata.BytesPerPixel), width, height)
}

func (sr *SoftwareRenderer) Shutdown() error {
	if n := len(sr.textures); n != 0 {
		core.LogWarn("software renderer shut down with %d live textures", n)
	}
	sr.textures = make(map[uint32]*texture)
	sr.framebuffer = nil
	return nil
}

func (sr *SoftwareRenderer) Capabilities() metadata.RendererCapabilities {
	return sr.capabilities
}

func (sr *SoftwareRenderer) Resized(width, height int32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d: %w", width, height, core.ErrIllegalArgument)
	}
	sr.framebuffer = newFramebuffer(width, height)
	sr.record(Call{Op: "Resized", Region: metadata.Rect{Width: width, Height: height}})
	return nil
}

func (sr *SoftwareRenderer) SurfaceSize() (int32, int32) {
	if sr.framebuffer == nil {
		return 0, 0
	}
	return sr.framebuffer.Width, sr.framebuffer.Height
}

func (sr *SoftwareRenderer) TextureCreate(t *metadata.Texture, pixels []uint8) error {
	if sr.FailTextureUploads {
		return fmt.Errorf("texture create: %w", ErrUploadRefused)
	}
	w, h := int32(t.Width), int32(t.Height)
	size := int(w) * int(h) * metadata.BytesPerPixel
	if len(pixels) < size {
		return fmt.Errorf("texture %dx%d needs %d bytes, got %d: %w", w, h, size, len(pixels), core.ErrIllegalArgument)
	}
	tex := &texture{width: w, height: h, data: make([]byte, size)}
	copy(tex.data, pixels[:size])

	t.ID = sr.nextTextureID
	sr.nextTextureID++
	t.Generation = 0
	t.InternalData = tex
	sr.textures[t.ID] = tex
	sr.record(Call{Op: "TextureCreate", TextureID: t.ID, Region: metadata.Rect{Width: w, Height: h}})
	return nil
}

func (sr *SoftwareRenderer) TextureWriteData(t *metadata.Texture, region metadata.Rect, stride int32, pixels []uint8) error {
	if sr.FailTextureUploads {
		return fmt.Errorf("texture write: %w", ErrUploadRefused)
	}
	tex, ok := sr.textures[t.ID]
	if !ok {
		return fmt.Errorf("texture %d: %w", t.ID, core.ErrBadHandle)
	}
	src := &metadata.PixelBuffer{
		Data:   pixels,
		Width:  region.Width,
		Height: region.Height,
		Stride: stride,
		Format: metadata.SupportedImageFormat,
	}
	if err := src.Validate(); err != nil {
		return fmt.Errorf("texture %d upload: %s: %w", t.ID, err, core.ErrIllegalArgument)
	}
	dst := metadata.NewPixelBuffer(tex.data, tex.width, tex.height)
	blit.CopyPixels(dst, src, region.X, region.Y, 0, 0, region.Width, region.Height)
	t.Generation++
	sr.record(Call{Op: "TextureWriteData", TextureID: t.ID, Region: region})
	return nil
}

func (sr *SoftwareRenderer) TextureDestroy(t *metadata.Texture) {
	if _, ok := sr.textures[t.ID]; !ok {
		return
	}
	delete(sr.textures, t.ID)
	sr.record(Call{Op: "TextureDestroy", TextureID: t.ID})
	t.InternalData = nil
	t.ID = 0
}

func (sr *SoftwareRenderer) FramebufferDraw(x, y, width, height int32, pixels []uint8) error {
	src := metadata.NewPixelBuffer(pixels, width, height)
	if err := src.Validate(); err != nil {
		return fmt.Errorf("draw pixels: %s: %w", err, core.ErrIllegalArgument)
	}
	blit.CopyPixels(sr.framebuffer, src, x, y, 0, 0, width, height)
	sr.record(Call{Op: "FramebufferDraw", Region: metadata.Rect{X: x, Y: y, Width: width, Height: height}})
	return nil
}

func (sr *SoftwareRenderer) FramebufferRead(x, y, width, height int32, pixels []uint8) error {
	dst := metadata.NewPixelBuffer(pixels, width, height)
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("read pixels: %s: %w", err, core.ErrIllegalArgument)
	}
	blit.CopyPixels(dst, sr.framebuffer, 0, 0, x, y, width, height)
	sr.record(Call{Op: "FramebufferRead", Region: metadata.Rect{X: x, Y: y, Width: width, Height: height}})
	return nil
}

func (sr *SoftwareRenderer) FramebufferCopy(dx, dy, sx, sy, width, height int32) error {
	src, ok := blit.Clip(metadata.Rect{X: sx, Y: sy, Width: width, Height: height}, sr.framebuffer.Width, sr.framebuffer.Height)
	if ok {
		snapshot := metadata.NewPixelBuffer(make([]byte, int(src.Width)*int(src.Height)*metadata.BytesPerPixel), src.Width, src.Height)
		blit.CopyPixels(snapshot, sr.framebuffer, 0, 0, src.X, src.Y, src.Width, src.Height)
		blit.CopyPixels(sr.framebuffer, snapshot, blit.Shift(dx, sx, src.X), blit.Shift(dy, sy, src.Y), 0, 0, src.Width, src.Height)
	}
	sr.record(Call{Op: "FramebufferCopy", Region: metadata.Rect{X: dx, Y: dy, Width: width, Height: height}})
	return nil
}

func (sr *SoftwareRenderer) FramebufferClear(region metadata.Rect, color metadata.Color) error {
	blit.Fill(sr.framebuffer, color, region.X, region.Y, region.Width, region.Height)
	sr.record(Call{Op: "FramebufferClear", Region: region})
	return nil
}

func (sr *SoftwareRenderer) Flush() error {
	sr.record(Call{Op: "Flush"})
	return nil
}

func (sr *SoftwareRenderer) Finish() error {
	sr.record(Call{Op: "Finish"})
	return nil
}

func (sr *SoftwareRenderer) record(c Call) {
	sr.calls.Push(c)
}

// Calls returns the last MaxRecordedCalls operations issued since the last
// ResetCalls.
func (sr *SoftwareRenderer) Calls() []Call {
	return sr.calls.Items()
}

func (sr *SoftwareRenderer) ResetCalls() {
	sr.calls.Clear()
}

// TextureMirror returns a copy of the texture contents, or nil when the
// texture is unknown.
func (sr *SoftwareRenderer) TextureMirror(t *metadata.Texture) []byte {
	tex, ok := sr.textures[t.ID]
	if !ok {
		return nil
	}
	return append([]byte(nil), tex.data...)
}

func (sr *SoftwareRenderer) TextureCount() int {
	return len(sr.textures)
}

// Framebuffer exposes the window surface.
func (sr *SoftwareRenderer) Framebuffer() *metadata.PixelBuffer {
	return sr.framebuffer
}
