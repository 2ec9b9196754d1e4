package metadata

import "fmt"

/** @brief Stride value meaning "tightly packed", resolved to width * BytesPerPixel. */
const TightStride int32 = -1

/**
 * @brief A rectangle in some buffer's coordinate space. May extend outside the
 * buffer; clipping resolves it.
 */
type Rect struct {
	X, Y          int32
	Width, Height int32
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

/**
 * @brief A view over a contiguous byte region holding Width x Height pixels,
 * row-major, top row first, Stride bytes apart.
 */
type PixelBuffer struct {
	Data   []byte
	Width  int32
	Height int32
	/** @brief Row stride in bytes. TightStride resolves to Width*BytesPerPixel. */
	Stride int32
	Format ImageFormat
}

// NewPixelBuffer wraps data as a tightly packed buffer of the supported format.
func NewPixelBuffer(data []byte, width, height int32) *PixelBuffer {
	return &PixelBuffer{
		Data:   data,
		Width:  width,
		Height: height,
		Stride: TightStride,
		Format: SupportedImageFormat,
	}
}

// RowStride resolves TightStride and 0 to the packed row length.
func (pb *PixelBuffer) RowStride() int32 {
	if pb.Stride == TightStride || pb.Stride == 0 {
		return pb.Width * BytesPerPixel
	}
	return pb.Stride
}

// Offset returns the byte offset of pixel (x, y).
func (pb *PixelBuffer) Offset(x, y int32) int {
	return int(y)*int(pb.RowStride()) + int(x)*BytesPerPixel
}

// MinLen is the smallest byte length able to hold every addressable pixel.
func (pb *PixelBuffer) MinLen() int {
	if pb.Width <= 0 || pb.Height <= 0 {
		return 0
	}
	return int(pb.Height-1)*int(pb.RowStride()) + int(pb.Width)*BytesPerPixel
}

// Validate checks the stride and length invariants of the buffer.
func (pb *PixelBuffer) Validate() error {
	if pb.Width <= 0 || pb.Height <= 0 {
		return fmt.Errorf("pixel buffer has invalid size %dx%d", pb.Width, pb.Height)
	}
	if pb.Stride != TightStride && pb.Stride != 0 && pb.Stride < pb.Width*BytesPerPixel {
		return fmt.Errorf("stride %d is smaller than a row of %d pixels", pb.Stride, pb.Width)
	}
	if len(pb.Data) < pb.MinLen() {
		return fmt.Errorf("pixel buffer holds %d bytes, %d required", len(pb.Data), pb.MinLen())
	}
	return nil
}

// Pixel returns the 4 bytes of pixel (x, y). The caller guarantees bounds.
func (pb *PixelBuffer) Pixel(x, y int32) []byte {
	off := pb.Offset(x, y)
	return pb.Data[off : off+BytesPerPixel : off+BytesPerPixel]
}
