package engine

import (
	"fmt"

	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/blit"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
	"github.com/spaghettifunk/vgpix/engine/systems"
)

func (e *Engine) images() *systems.ImageSystem {
	return e.systemManager.ImageSystem()
}

func (e *Engine) lookupImage(handle metadata.ImageHandle) (*metadata.Image, error) {
	img := e.systemManager.ResourceTable().Get(handle)
	if img == nil {
		return nil, fmt.Errorf("image %s: %w", handle, core.ErrBadHandle)
	}
	return img, nil
}

// commit uploads a prepared texture sync. Backend failures are logged; the
// CPU pixels are already authoritative.
func commit(ts *systems.TextureSync) {
	if err := ts.Commit(); err != nil {
		core.LogWarn("texture left stale: %s", err)
	}
}

// CreateImage creates a zeroed image and returns its handle, or
// InvalidHandle with the error recorded.
func (e *Engine) CreateImage(format metadata.ImageFormat, width, height int32, quality metadata.ImageQuality) metadata.ImageHandle {
	if !e.running("CreateImage") {
		return metadata.InvalidHandle
	}
	img, err := e.images().Create(metadata.ImageCreateParams{
		Format:  format,
		Width:   width,
		Height:  height,
		Quality: quality,
	})
	if err != nil {
		e.fail("CreateImage", err)
		return metadata.InvalidHandle
	}
	return img.Handle
}

// DestroyImage releases the image. Destroying an image that is still in use
// by the caller is the caller's problem.
func (e *Engine) DestroyImage(handle metadata.ImageHandle) {
	if !e.running("DestroyImage") {
		return
	}
	if err := e.images().Destroy(handle); err != nil {
		e.fail("DestroyImage", err)
	}
}

// ClearImage fills a rectangle of the image with the clear color.
func (e *Engine) ClearImage(handle metadata.ImageHandle, x, y, width, height int32) {
	const op = "ClearImage"
	if !e.running(op) {
		return
	}
	img, err := e.lookupImage(handle)
	if err != nil {
		e.fail(op, err)
		return
	}
	if err := checkSize(width, height); err != nil {
		e.fail(op, err)
		return
	}
	if _, ok := blit.Clip(metadata.Rect{X: x, Y: y, Width: width, Height: height}, img.Width, img.Height); !ok {
		return
	}

	ts, err := e.images().BeginSync(img)
	if err != nil {
		e.fail(op, err)
		return
	}
	n := blit.Fill(img.Pixels(), e.clearColor, x, y, width, height)
	e.metrics.RecordBlit(n)
	commit(ts)
}

// ImageSubData copies a rectangle of caller memory into the image at (x, y).
func (e *Engine) ImageSubData(handle metadata.ImageHandle, data []byte, stride int32, format metadata.ImageFormat, x, y, width, height int32) {
	const op = "ImageSubData"
	if !e.running(op) {
		return
	}
	img, err := e.lookupImage(handle)
	if err != nil {
		e.fail(op, err)
		return
	}
	if err := checkFormat(format); err != nil {
		e.fail(op, err)
		return
	}
	if err := checkSize(width, height); err != nil {
		e.fail(op, err)
		return
	}
	src, err := externalBuffer(data, stride, format, width, height)
	if err != nil {
		e.fail(op, err)
		return
	}

	ts, err := e.images().BeginSync(img)
	if err != nil {
		e.fail(op, err)
		return
	}
	if e.copyPixels(img.Pixels(), src, x, y, 0, 0, width, height) == 0 {
		ts.Abort()
		return
	}
	commit(ts)
}

// GetImageSubData copies the rectangle of the image at (x, y) into caller
// memory.
func (e *Engine) GetImageSubData(handle metadata.ImageHandle, data []byte, stride int32, format metadata.ImageFormat, x, y, width, height int32) {
	const op = "GetImageSubData"
	if !e.running(op) {
		return
	}
	img, err := e.lookupImage(handle)
	if err != nil {
		e.fail(op, err)
		return
	}
	if err := checkFormat(format); err != nil {
		e.fail(op, err)
		return
	}
	if err := checkSize(width, height); err != nil {
		e.fail(op, err)
		return
	}
	dst, err := externalBuffer(data, stride, format, width, height)
	if err != nil {
		e.fail(op, err)
		return
	}
	e.copyPixels(dst, img.Pixels(), 0, 0, x, y, width, height)
}

// CopyImage copies a rectangle of src to dst through a staging buffer, so
// src and dst may be the same image with overlapping rectangles. dither is
// accepted for API compatibility; with a single pixel format there is
// nothing to dither.
func (e *Engine) CopyImage(dstHandle metadata.ImageHandle, dx, dy int32, srcHandle metadata.ImageHandle, sx, sy, width, height int32, dither bool) {
	const op = "CopyImage"
	if !e.running(op) {
		return
	}
	dst, err := e.lookupImage(dstHandle)
	if err != nil {
		e.fail(op, err)
		return
	}
	src, err := e.lookupImage(srcHandle)
	if err != nil {
		e.fail(op, err)
		return
	}
	if err := checkSize(width, height); err != nil {
		e.fail(op, err)
		return
	}

	r, ok := blit.Clip(metadata.Rect{X: sx, Y: sy, Width: width, Height: height}, src.Width, src.Height)
	if !ok {
		return
	}
	staging, err := e.acquireStaging(r.Width, r.Height)
	if err != nil {
		e.fail(op, err)
		return
	}
	defer e.releaseStaging(staging)

	ts, err := e.images().BeginSync(dst)
	if err != nil {
		e.fail(op, err)
		return
	}
	e.copyPixels(staging, src.Pixels(), 0, 0, r.X, r.Y, r.Width, r.Height)
	if e.copyPixels(dst.Pixels(), staging, blit.Shift(dx, sx, r.X), blit.Shift(dy, sy, r.Y), 0, 0, r.Width, r.Height) == 0 {
		ts.Abort()
		return
	}
	commit(ts)
}

// ImageWidth returns the logical width of the image, 0 when the handle is
// invalid.
func (e *Engine) ImageWidth(handle metadata.ImageHandle) int32 {
	if img := e.queryImage("ImageWidth", handle); img != nil {
		return img.Width
	}
	return 0
}

func (e *Engine) ImageHeight(handle metadata.ImageHandle) int32 {
	if img := e.queryImage("ImageHeight", handle); img != nil {
		return img.Height
	}
	return 0
}

func (e *Engine) ImageFormat(handle metadata.ImageHandle) metadata.ImageFormat {
	if img := e.queryImage("ImageFormat", handle); img != nil {
		return img.Format
	}
	return 0
}

func (e *Engine) ImageQuality(handle metadata.ImageHandle) metadata.ImageQuality {
	if img := e.queryImage("ImageQuality", handle); img != nil {
		return img.Quality
	}
	return 0
}

func (e *Engine) queryImage(op string, handle metadata.ImageHandle) *metadata.Image {
	if !e.running(op) {
		return nil
	}
	img, err := e.lookupImage(handle)
	if err != nil {
		e.fail(op, err)
		return nil
	}
	return img
}
