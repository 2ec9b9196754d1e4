package engine

import (
	"fmt"

	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/blit"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

// acquireStaging allocates a tightly packed width x height buffer from the
// engine's memory budget. Release it with releaseStaging.
func (e *Engine) acquireStaging(width, height int32) (*metadata.PixelBuffer, error) {
	size := uint64(width) * uint64(height) * metadata.BytesPerPixel
	data, err := e.memory.Allocate(size, core.MEMORY_TAG_STAGING)
	if err != nil {
		return nil, fmt.Errorf("staging buffer %dx%d: %w", width, height, err)
	}
	return metadata.NewPixelBuffer(data, width, height), nil
}

func (e *Engine) releaseStaging(pb *metadata.PixelBuffer) {
	e.memory.Free(uint64(len(pb.Data)), core.MEMORY_TAG_STAGING)
	pb.Data = nil
}

// copyPixels runs one blit and accounts for it.
func (e *Engine) copyPixels(dst, src *metadata.PixelBuffer, dx, dy, sx, sy, width, height int32) int64 {
	n := blit.CopyPixels(dst, src, dx, dy, sx, sy, width, height)
	e.metrics.RecordBlit(n)
	return n
}

// externalBuffer wraps caller memory. Stride TightStride or 0 means rows of
// exactly width pixels.
func externalBuffer(data []byte, stride int32, format metadata.ImageFormat, width, height int32) (*metadata.PixelBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no pixel data: %w", core.ErrIllegalArgument)
	}
	pb := &metadata.PixelBuffer{
		Data:   data,
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
	}
	if err := pb.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", err, core.ErrIllegalArgument)
	}
	return pb, nil
}

func checkFormat(format metadata.ImageFormat) error {
	if !metadata.IsValidFormat(format) {
		return fmt.Errorf("format %#x: %w", uint32(format), core.ErrUnsupportedImageFormat)
	}
	if !metadata.IsSupportedFormat(format) {
		return fmt.Errorf("format %s: %w", format, core.ErrUnsupportedImageFormat)
	}
	return nil
}

func checkSize(width, height int32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("size %dx%d: %w", width, height, core.ErrIllegalArgument)
	}
	return nil
}

// clipToSurface intersects a source rectangle with the window surface.
func (e *Engine) clipToSurface(x, y, width, height int32) (metadata.Rect, bool) {
	sw, sh := e.renderer.SurfaceSize()
	return blit.Clip(metadata.Rect{X: x, Y: y, Width: width, Height: height}, sw, sh)
}
