package engine

import (
	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/blit"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

// SetPixels draws a rectangle of the image src at (sx, sy) onto the window
// surface at (dx, dy).
func (e *Engine) SetPixels(dx, dy int32, srcHandle metadata.ImageHandle, sx, sy, width, height int32) {
	const op = "SetPixels"
	if !e.running(op) {
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
	// the backend wants tightly packed rows, the image rows are padded
	staging, err := e.acquireStaging(r.Width, r.Height)
	if err != nil {
		e.fail(op, err)
		return
	}
	defer e.releaseStaging(staging)

	e.copyPixels(staging, src.Pixels(), 0, 0, r.X, r.Y, r.Width, r.Height)
	if err := e.renderer.DrawPixels(blit.Shift(dx, sx, r.X), blit.Shift(dy, sy, r.Y), r.Width, r.Height, staging.Data); err != nil {
		core.LogError("%s: surface draw failed: %s", op, err)
	}
}

// WritePixels draws a rectangle of caller memory onto the window surface at
// (dx, dy).
func (e *Engine) WritePixels(data []byte, stride int32, format metadata.ImageFormat, dx, dy, width, height int32) {
	const op = "WritePixels"
	if !e.running(op) {
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

	staging, err := e.acquireStaging(width, height)
	if err != nil {
		e.fail(op, err)
		return
	}
	defer e.releaseStaging(staging)

	e.copyPixels(staging, src, 0, 0, 0, 0, width, height)
	if err := e.renderer.DrawPixels(dx, dy, width, height, staging.Data); err != nil {
		core.LogError("%s: surface draw failed: %s", op, err)
	}
}

// GetPixels reads a rectangle of the window surface at (sx, sy) into the
// image dst at (dx, dy).
func (e *Engine) GetPixels(dstHandle metadata.ImageHandle, dx, dy, sx, sy, width, height int32) {
	const op = "GetPixels"
	if !e.running(op) {
		return
	}
	dst, err := e.lookupImage(dstHandle)
	if err != nil {
		e.fail(op, err)
		return
	}
	if err := checkSize(width, height); err != nil {
		e.fail(op, err)
		return
	}

	r, ok := e.clipToSurface(sx, sy, width, height)
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
	if err := e.renderer.ReadPixels(r.X, r.Y, r.Width, r.Height, staging.Data); err != nil {
		ts.Abort()
		core.LogError("%s: surface read failed: %s", op, err)
		return
	}
	if e.copyPixels(dst.Pixels(), staging, blit.Shift(dx, sx, r.X), blit.Shift(dy, sy, r.Y), 0, 0, r.Width, r.Height) == 0 {
		ts.Abort()
		return
	}
	commit(ts)
}

// ReadPixels reads a rectangle of the window surface at (sx, sy) into caller
// memory. Pixels outside the surface are left untouched.
func (e *Engine) ReadPixels(data []byte, stride int32, format metadata.ImageFormat, sx, sy, width, height int32) {
	const op = "ReadPixels"
	if !e.running(op) {
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

	r, ok := e.clipToSurface(sx, sy, width, height)
	if !ok {
		return
	}
	staging, err := e.acquireStaging(r.Width, r.Height)
	if err != nil {
		e.fail(op, err)
		return
	}
	defer e.releaseStaging(staging)

	if err := e.renderer.ReadPixels(r.X, r.Y, r.Width, r.Height, staging.Data); err != nil {
		core.LogError("%s: surface read failed: %s", op, err)
		return
	}
	e.copyPixels(dst, staging, blit.Shift(0, sx, r.X), blit.Shift(0, sy, r.Y), 0, 0, r.Width, r.Height)
}

// CopyPixels copies a rectangle of the window surface onto itself. The
// backend handles overlap.
func (e *Engine) CopyPixels(dx, dy, sx, sy, width, height int32) {
	const op = "CopyPixels"
	if !e.running(op) {
		return
	}
	if err := checkSize(width, height); err != nil {
		e.fail(op, err)
		return
	}
	if err := e.renderer.CopyPixels(dx, dy, sx, sy, width, height); err != nil {
		core.LogError("%s: surface copy failed: %s", op, err)
	}
}
