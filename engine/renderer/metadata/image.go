package metadata

import (
	"github.com/google/uuid"
)

/** @brief Opaque reference to an image registered with an engine. Never reused. */
type ImageHandle uuid.UUID

/** @brief The handle returned when creation fails. */
var InvalidHandle ImageHandle

func NewImageHandle() ImageHandle {
	return ImageHandle(uuid.New())
}

func (h ImageHandle) IsValid() bool {
	return h != InvalidHandle
}

func (h ImageHandle) String() string {
	return uuid.UUID(h).String()
}

// ParseImageHandle parses the textual form produced by String.
func ParseImageHandle(s string) (ImageHandle, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return InvalidHandle, err
	}
	return ImageHandle(id), nil
}

/**
 * @brief An image resource. Owns one texture-sized pixel allocation whose
 * top-left Width x Height corner holds the logical pixels, and the GPU
 * texture mirroring it.
 */
type Image struct {
	/** @brief The handle the image is registered under. */
	Handle ImageHandle
	/** @brief The pixel format of the image data. */
	Format ImageFormat
	/** @brief Logical size of the image. */
	Width  int32
	Height int32
	/** @brief Power-of-two padded size of the backing storage. */
	TexWidth  int32
	TexHeight int32
	/** @brief Ratio logical/texture size on each axis. */
	TexWidthK  float32
	TexHeightK float32
	/** @brief Allowed quality bits given at creation. */
	Quality ImageQuality
	/** @brief TexWidth * TexHeight * BytesPerPixel bytes. */
	Data []byte
	/** @brief The GPU texture mirroring Data. */
	Texture *Texture
}

// Stride is the row stride of the backing storage in bytes.
func (i *Image) Stride() int32 {
	return i.TexWidth * BytesPerPixel
}

// Pixels returns a view of the logical region.
func (i *Image) Pixels() *PixelBuffer {
	return &PixelBuffer{
		Data:   i.Data,
		Width:  i.Width,
		Height: i.Height,
		Stride: i.Stride(),
		Format: i.Format,
	}
}

// TextureBuffer returns a view of the whole padded storage.
func (i *Image) TextureBuffer() *PixelBuffer {
	return &PixelBuffer{
		Data:   i.Data,
		Width:  i.TexWidth,
		Height: i.TexHeight,
		Stride: i.Stride(),
		Format: i.Format,
	}
}

// Bounds is the logical rectangle of the image.
func (i *Image) Bounds() Rect {
	return Rect{Width: i.Width, Height: i.Height}
}

/**
 * @brief Parameters used when creating an image.
 */
type ImageCreateParams struct {
	Format  ImageFormat
	Width   int32
	Height  int32
	Quality ImageQuality
}
