// Package blit copies rectangles of pixels between independently sized
// buffers, clipping the copy rectangle against both of them.
package blit

import (
	"math"

	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

// CopyPixels copies up to width x height pixels from src at (sx, sy) to dst
// at (dx, dy), converting each pixel through the color codec. The rectangle
// is first clamped to the source, then to the destination. Whenever an origin
// is raised to zero the other origin moves by the same amount, so a pixel
// always lands where it would have without clipping. Rectangles that miss
// either buffer copy nothing. It returns the number of pixels written.
func CopyPixels(dst, src *metadata.PixelBuffer, dx, dy, sx, sy, width, height int32) int64 {
	x0, sx0, w := clipAxis(int64(dx), int64(sx), int64(width), int64(src.Width), int64(dst.Width))
	y0, sy0, h := clipAxis(int64(dy), int64(sy), int64(height), int64(src.Height), int64(dst.Height))
	if w <= 0 || h <= 0 {
		return 0
	}
	// all of these now lie inside the buffers
	dx, dy, sx, sy, width, height = int32(x0), int32(y0), int32(sx0), int32(sy0), int32(w), int32(h)

	dstStride := int(dst.RowStride())
	srcStride := int(src.RowStride())

	for row := int32(0); row < height; row++ {
		sd := int(sy+row)*srcStride + int(sx)*metadata.BytesPerPixel
		dd := int(dy+row)*dstStride + int(dx)*metadata.BytesPerPixel
		for col := int32(0); col < width; col++ {
			c := metadata.LoadColor(src.Data[sd:sd+metadata.BytesPerPixel], src.Format)
			metadata.StoreColor(c, dst.Data[dd:dd+metadata.BytesPerPixel], dst.Format)
			sd += metadata.BytesPerPixel
			dd += metadata.BytesPerPixel
		}
	}
	return int64(width) * int64(height)
}

// Fill stores c into every pixel of the rectangle (x, y, width, height)
// clipped to dst. It returns the number of pixels written.
func Fill(dst *metadata.PixelBuffer, c metadata.Color, x, y, width, height int32) int64 {
	r, ok := Clip(metadata.Rect{X: x, Y: y, Width: width, Height: height}, dst.Width, dst.Height)
	if !ok {
		return 0
	}
	var px [metadata.BytesPerPixel]byte
	metadata.StoreColor(c, px[:], dst.Format)

	stride := int(dst.RowStride())
	for row := r.Y; row < r.Y+r.Height; row++ {
		off := int(row)*stride + int(r.X)*metadata.BytesPerPixel
		for col := int32(0); col < r.Width; col++ {
			copy(dst.Data[off:off+metadata.BytesPerPixel], px[:])
			off += metadata.BytesPerPixel
		}
	}
	return int64(r.Width) * int64(r.Height)
}

// clipAxis clips one axis of a copy of n pixels from s in a source of length
// slen to d in a destination of length dlen. The returned length is <= 0 when
// nothing overlaps.
func clipAxis(d, s, n, slen, dlen int64) (int64, int64, int64) {
	if s < 0 {
		d -= s
		n += s
		s = 0
	}
	n = min(n, slen-s)
	if d < 0 {
		s -= d
		n += d
		d = 0
	}
	n = min(n, dlen-d)
	return d, s, n
}

// Clip intersects r with the buffer bounds [0,w) x [0,h). The second result is
// false when nothing of r lies inside.
func Clip(r metadata.Rect, w, h int32) (metadata.Rect, bool) {
	if r.Empty() {
		return metadata.Rect{}, false
	}
	x0, y0 := max(int64(r.X), 0), max(int64(r.Y), 0)
	x1 := min(int64(r.X)+int64(r.Width), int64(w))
	y1 := min(int64(r.Y)+int64(r.Height), int64(h))
	if x1 <= x0 || y1 <= y0 {
		return metadata.Rect{}, false
	}
	return metadata.Rect{X: int32(x0), Y: int32(y0), Width: int32(x1 - x0), Height: int32(y1 - y0)}, true
}

// Shift moves the origin d by the distance clipping moved another origin from
// from to to. The result saturates at the int32 range, which keeps it outside
// any buffer when the true value would not fit.
func Shift(d, from, to int32) int32 {
	v := int64(d) + int64(to) - int64(from)
	return int32(min(max(v, math.MinInt32), math.MaxInt32))
}
