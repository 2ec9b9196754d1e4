package blit

import (
	"bytes"
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

// numbered returns a tightly packed w x h buffer where pixel (x, y) holds
// bytes {x, y, id, 255}.
func numbered(w, h int32, id byte) *metadata.PixelBuffer {
	pb := metadata.NewPixelBuffer(make([]byte, w*h*4), w, h)
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			copy(pb.Pixel(x, y), []byte{byte(x), byte(y), id, 255})
		}
	}
	return pb
}

func TestCopyPixelsFullCopy(t *testing.T) {
	src := numbered(4, 3, 1)
	dst := metadata.NewPixelBuffer(make([]byte, 4*3*4), 4, 3)

	if n := CopyPixels(dst, src, 0, 0, 0, 0, 4, 3); n != 12 {
		t.Fatalf("copied %d pixels, want 12", n)
	}
	if !bytes.Equal(dst.Data, src.Data) {
		t.Fatal("destination differs from source")
	}
}

func TestCopyPixelsClipping(t *testing.T) {
	tests := []struct {
		name                 string
		dx, dy, sx, sy, w, h int32
		wantN                int64
		wantAt               [2]int32 // destination pixel to inspect
		wantFrom             [2]int32 // source pixel it must hold
	}{
		{"inside", 1, 1, 0, 0, 2, 2, 4, [2]int32{1, 1}, [2]int32{0, 0}},
		{"source overhang right", 0, 0, 3, 0, 4, 1, 1, [2]int32{0, 0}, [2]int32{3, 0}},
		// a negative source origin pushes the destination along
		{"negative source origin", 0, 0, -1, 0, 2, 1, 1, [2]int32{1, 0}, [2]int32{0, 0}},
		{"negative source origin both axes", 1, 0, -2, -1, 4, 3, 2, [2]int32{3, 1}, [2]int32{0, 0}},
		{"huge width", 1, 0, 1, 0, math.MaxInt32, 1, 3, [2]int32{3, 0}, [2]int32{3, 0}},
		{"huge size at the far corner", 3, 2, 3, 2, math.MaxInt32, math.MaxInt32, 1, [2]int32{3, 2}, [2]int32{3, 2}},
		// a negative destination origin drags the source along
		{"negative destination origin", -2, -1, 0, 0, 4, 3, 4, [2]int32{0, 0}, [2]int32{2, 1}},
		{"destination overhang", 3, 2, 0, 0, 4, 4, 1, [2]int32{3, 2}, [2]int32{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := numbered(4, 3, 7)
			dst := metadata.NewPixelBuffer(make([]byte, 4*3*4), 4, 3)
			n := CopyPixels(dst, src, tt.dx, tt.dy, tt.sx, tt.sy, tt.w, tt.h)
			if n != tt.wantN {
				t.Fatalf("copied %d pixels, want %d", n, tt.wantN)
			}
			got := dst.Pixel(tt.wantAt[0], tt.wantAt[1])
			want := src.Pixel(tt.wantFrom[0], tt.wantFrom[1])
			if !bytes.Equal(got, want) {
				t.Errorf("dst%v = %v, want src%v = %v", tt.wantAt, got, tt.wantFrom, want)
			}
		})
	}
}

func TestCopyPixelsDisjointIsNoop(t *testing.T) {
	rects := [][6]int32{
		{0, 0, 100, 100, 5, 5}, // source origin past the end
		{0, 0, -10, 0, 5, 5},   // source rectangle before the origin
		{0, 0, -5, 0, 5, 5},    // source rectangle ending exactly at the origin
		{0, 0, 0, -5, 5, 5},    // same, vertically
		{-5, 0, 0, 0, 5, 5},    // destination rectangle ending exactly at the origin
		{0, 0, math.MinInt32, 0, math.MaxInt32, 5},
		{math.MaxInt32, 0, 0, 0, math.MaxInt32, 5},
		{100, 100, 0, 0, 5, 5}, // destination origin past the end
		{-10, -10, 0, 0, 5, 5}, // destination rectangle before the origin
		{0, 0, 0, 0, 0, 5},     // empty
		{0, 0, 0, 0, -1, -1},   // negative size
		{0, 10, 0, 0, 5, 5},    // destination row past the end
	}
	for _, r := range rects {
		src := numbered(10, 10, 3)
		dst := metadata.NewPixelBuffer(make([]byte, 10*10*4), 10, 10)
		if n := CopyPixels(dst, src, r[0], r[1], r[2], r[3], r[4], r[5]); n != 0 {
			t.Errorf("rect %v copied %d pixels", r, n)
		}
		if !bytes.Equal(dst.Data, make([]byte, len(dst.Data))) {
			t.Errorf("rect %v mutated the destination", r)
		}
	}
}

func TestCopyPixelsRespectsStride(t *testing.T) {
	src := numbered(2, 2, 9)
	// 3 pixel wide rows holding a 2 pixel wide image
	dst := &metadata.PixelBuffer{
		Data:   make([]byte, 3*2*4),
		Width:  2,
		Height: 2,
		Stride: 12,
		Format: metadata.FormatSRGBA8888,
	}
	CopyPixels(dst, src, 0, 0, 0, 0, 2, 2)
	if !bytes.Equal(dst.Data[8:12], []byte{0, 0, 0, 0}) || !bytes.Equal(dst.Data[20:24], []byte{0, 0, 0, 0}) {
		t.Errorf("padding written: %v", dst.Data)
	}
	if !bytes.Equal(dst.Data[12:16], src.Pixel(0, 1)) {
		t.Errorf("second row misplaced: %v", dst.Data)
	}
}

// guarded wraps a w x h view inside a larger allocation filled with a marker
// so that stray accesses become visible.
func guarded(w, h, padX, padY int32) (*metadata.PixelBuffer, []byte) {
	stride := (w + padX) * 4
	backing := bytes.Repeat([]byte{0xAB}, int(stride*(h+padY)))
	return &metadata.PixelBuffer{
		Data:   backing,
		Width:  w,
		Height: h,
		Stride: stride,
		Format: metadata.FormatSRGBA8888,
	}, backing
}

func TestCopyPixelsNeverLeavesBounds(t *testing.T) {
	r := rand.New(rand.NewSource(20240611))
	for i := 0; i < 2000; i++ {
		sw, sh := 1+r.Int31n(12), 1+r.Int31n(12)
		dw, dh := 1+r.Int31n(12), 1+r.Int31n(12)

		src, _ := guarded(sw, sh, 3, 2)
		for y := int32(0); y < sh; y++ {
			for x := int32(0); x < sw; x++ {
				copy(src.Pixel(x, y), []byte{byte(x), byte(y), 1, 255})
			}
		}
		dst, backing := guarded(dw, dh, 3, 2)
		for y := int32(0); y < dh; y++ {
			for x := int32(0); x < dw; x++ {
				copy(dst.Pixel(x, y), []byte{0, 0, 0, 0})
			}
		}
		before := append([]byte(nil), backing...)

		dx, dy := r.Int31n(40)-20, r.Int31n(40)-20
		sx, sy := r.Int31n(40)-20, r.Int31n(40)-20
		w, h := r.Int31n(30)-5, r.Int31n(30)-5

		n := CopyPixels(dst, src, dx, dy, sx, sy, w, h)

		written := int64(0)
		stride := int(dst.RowStride())
		for off := 0; off < len(backing); off += 4 {
			x, y := int32((off%stride)/4), int32(off/stride)
			inside := x < dw && y < dh
			changed := !bytes.Equal(backing[off:off+4], before[off:off+4])
			if changed && !inside {
				t.Fatalf("case %d: write outside destination at (%d,%d)", i, x, y)
			}
			if changed && backing[off+3] == 0xAB {
				t.Fatalf("case %d: read outside source landed at (%d,%d)", i, x, y)
			}
			if changed {
				written++
			}
		}
		if written != n {
			t.Fatalf("case %d: reported %d pixels, changed %d", i, n, written)
		}
	}
}

func TestCopyPixelsOverlapNeedsStaging(t *testing.T) {
	// Copying straight within one buffer walks top-down and smears; going
	// through a snapshot matches copying from an independent source.
	img := numbered(10, 10, 5)
	snapshot := numbered(10, 10, 5)
	want := numbered(10, 10, 5)
	CopyPixels(want, snapshot, 2, 2, 0, 0, 6, 6)

	staging := metadata.NewPixelBuffer(make([]byte, 6*6*4), 6, 6)
	CopyPixels(staging, img, 0, 0, 0, 0, 6, 6)
	CopyPixels(img, staging, 2, 2, 0, 0, 6, 6)
	if !bytes.Equal(img.Data, want.Data) {
		t.Fatal("staged self copy differs from snapshot copy")
	}

	direct := numbered(10, 10, 5)
	CopyPixels(direct, direct, 2, 2, 0, 0, 6, 6)
	if bytes.Equal(direct.Data, want.Data) {
		t.Fatal("expected the unstaged self copy to smear")
	}
}

func TestFill(t *testing.T) {
	dst := metadata.NewPixelBuffer(make([]byte, 4*4*4), 4, 4)
	n := Fill(dst, metadata.NewColor(1, 0, 0, 1), 1, 1, 2, 2)
	if n != 4 {
		t.Fatalf("filled %d pixels, want 4", n)
	}
	for y := int32(0); y < 4; y++ {
		for x := int32(0); x < 4; x++ {
			want := []byte{0, 0, 0, 0}
			if x >= 1 && x < 3 && y >= 1 && y < 3 {
				want = []byte{255, 0, 0, 255}
			}
			if got := dst.Pixel(x, y); !bytes.Equal(got, want) {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if n := Fill(dst, metadata.NewColor(1, 1, 1, 1), 100, 100, 5, 5); n != 0 {
		t.Errorf("disjoint fill wrote %d pixels", n)
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		in   metadata.Rect
		want metadata.Rect
		ok   bool
	}{
		{metadata.Rect{X: 0, Y: 0, Width: 4, Height: 4}, metadata.Rect{Width: 4, Height: 4}, true},
		{metadata.Rect{X: -2, Y: -2, Width: 4, Height: 4}, metadata.Rect{Width: 2, Height: 2}, true},
		{metadata.Rect{X: 8, Y: 8, Width: 4, Height: 4}, metadata.Rect{X: 8, Y: 8, Width: 2, Height: 2}, true},
		{metadata.Rect{X: 10, Y: 0, Width: 4, Height: 4}, metadata.Rect{}, false},
		{metadata.Rect{X: -4, Y: 0, Width: 4, Height: 4}, metadata.Rect{}, false},
		{metadata.Rect{X: 0, Y: 0, Width: 0, Height: 4}, metadata.Rect{}, false},
		{metadata.Rect{X: 1, Y: 0, Width: math.MaxInt32, Height: 4}, metadata.Rect{X: 1, Width: 9, Height: 4}, true},
		{metadata.Rect{X: math.MinInt32, Y: math.MinInt32, Width: math.MaxInt32, Height: math.MaxInt32}, metadata.Rect{}, false},
		{metadata.Rect{X: -5, Y: 9, Width: math.MaxInt32, Height: math.MaxInt32}, metadata.Rect{Y: 9, Width: 10, Height: 1}, true},
	}
	for _, tt := range tests {
		got, ok := Clip(tt.in, 10, 10)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Clip(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestShift(t *testing.T) {
	tests := []struct{ d, from, to, want int32 }{
		{0, 0, 0, 0},
		{3, -2, 0, 5},
		{-1, 4, 4, -1},
		{10, math.MinInt32, 0, math.MaxInt32},
		{math.MaxInt32, -1, 0, math.MaxInt32},
	}
	for _, tt := range tests {
		if got := Shift(tt.d, tt.from, tt.to); got != tt.want {
			t.Errorf("Shift(%d, %d, %d) = %d, want %d", tt.d, tt.from, tt.to, got, tt.want)
		}
	}
}
