package renderer

import "github.com/spaghettifunk/vgpix/engine/renderer/metadata"

// RendererBackend is the GPU side of the pixel paths. Every pixel slice passed
// in or out is in the supported 4 byte format, row-major, top row first.
type RendererBackend interface {
	Initialize(config *metadata.RendererBackendConfig) error
	Shutdown() error
	Capabilities() metadata.RendererCapabilities

	// Resized changes the window surface size. Contents after a resize are undefined.
	Resized(width, height int32) error
	SurfaceSize() (width, height int32)

	// TextureCreate allocates texture.Width x texture.Height storage and fills it from pixels.
	TextureCreate(texture *metadata.Texture, pixels []uint8) error
	// TextureWriteData uploads region of the texture from pixels laid out with stride bytes per row.
	TextureWriteData(texture *metadata.Texture, region metadata.Rect, stride int32, pixels []uint8) error
	TextureDestroy(texture *metadata.Texture)

	// FramebufferDraw writes tightly packed pixels at (x, y), clipped to the surface.
	FramebufferDraw(x, y, width, height int32, pixels []uint8) error
	// FramebufferRead reads a region that lies fully inside the surface into tightly packed pixels.
	FramebufferRead(x, y, width, height int32, pixels []uint8) error
	// FramebufferCopy copies a surface region onto another as if through a snapshot.
	FramebufferCopy(dx, dy, sx, sy, width, height int32) error
	FramebufferClear(region metadata.Rect, color metadata.Color) error

	// Flush submits pending work. Finish additionally waits for it to complete.
	Flush() error
	Finish() error
}
