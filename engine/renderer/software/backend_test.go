package software

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

func newTestRenderer(t *testing.T, w, h int32) *SoftwareRenderer {
	t.Helper()
	sr := New()
	if err := sr.Initialize(&metadata.RendererBackendConfig{SurfaceWidth: w, SurfaceHeight: h}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return sr
}

func solid(w, h int32, px []byte) []byte {
	return bytes.Repeat(px, int(w*h))
}

func TestInitializeRejectsEmptySurface(t *testing.T) {
	sr := New()
	err := sr.Initialize(&metadata.RendererBackendConfig{SurfaceWidth: 0, SurfaceHeight: 4})
	if !errors.Is(err, core.ErrIllegalArgument) {
		t.Fatalf("expected ErrIllegalArgument, got %v", err)
	}
}

func TestTextureLifecycle(t *testing.T) {
	sr := newTestRenderer(t, 4, 4)
	tex := &metadata.Texture{Width: 4, Height: 2}
	if err := sr.TextureCreate(tex, make([]byte, 4*2*4)); err != nil {
		t.Fatalf("TextureCreate: %v", err)
	}
	if tex.ID == 0 || sr.TextureCount() != 1 {
		t.Fatalf("texture not registered: id=%d count=%d", tex.ID, sr.TextureCount())
	}

	// 2x1 region uploaded from a buffer with a 3 pixel stride
	src := []byte{
		1, 1, 1, 1, 2, 2, 2, 2, 9, 9, 9, 9,
	}
	if err := sr.TextureWriteData(tex, metadata.Rect{X: 1, Y: 1, Width: 2, Height: 1}, 12, src); err != nil {
		t.Fatalf("TextureWriteData: %v", err)
	}
	mirror := sr.TextureMirror(tex)
	row1 := mirror[16:32]
	want := []byte{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 0, 0, 0, 0}
	if !bytes.Equal(row1, want) {
		t.Errorf("row 1 = %v, want %v", row1, want)
	}
	if tex.Generation != 1 {
		t.Errorf("Generation = %d, want 1", tex.Generation)
	}

	sr.TextureDestroy(tex)
	if sr.TextureCount() != 0 || tex.ID != 0 {
		t.Fatalf("texture not released")
	}
	if err := sr.TextureWriteData(&metadata.Texture{ID: 99}, metadata.Rect{Width: 1, Height: 1}, -1, make([]byte, 4)); !errors.Is(err, core.ErrBadHandle) {
		t.Fatalf("expected ErrBadHandle, got %v", err)
	}
}

func TestFailTextureUploads(t *testing.T) {
	sr := newTestRenderer(t, 2, 2)
	sr.FailTextureUploads = true
	tex := &metadata.Texture{Width: 1, Height: 1}
	if err := sr.TextureCreate(tex, make([]byte, 4)); !errors.Is(err, ErrUploadRefused) {
		t.Fatalf("expected ErrUploadRefused, got %v", err)
	}
	if sr.TextureCount() != 0 {
		t.Fatal("failed create registered a texture")
	}
}

func TestFramebufferDrawReadClipped(t *testing.T) {
	sr := newTestRenderer(t, 4, 4)
	red := []byte{255, 0, 0, 255}
	if err := sr.FramebufferDraw(3, 3, 2, 2, solid(2, 2, red)); err != nil {
		t.Fatalf("FramebufferDraw: %v", err)
	}
	fb := sr.Framebuffer()
	if !bytes.Equal(fb.Pixel(3, 3), red) {
		t.Errorf("pixel (3,3) = %v", fb.Pixel(3, 3))
	}
	if !bytes.Equal(fb.Pixel(2, 2), []byte{0, 0, 0, 0}) {
		t.Errorf("pixel (2,2) = %v", fb.Pixel(2, 2))
	}

	out := make([]byte, 2*2*4)
	if err := sr.FramebufferRead(2, 2, 2, 2, out); err != nil {
		t.Fatalf("FramebufferRead: %v", err)
	}
	if !bytes.Equal(out[12:16], red) || !bytes.Equal(out[0:4], []byte{0, 0, 0, 0}) {
		t.Errorf("read back %v", out)
	}
}

func TestFramebufferCopyOverlap(t *testing.T) {
	sr := newTestRenderer(t, 6, 1)
	row := []byte{}
	for i := byte(0); i < 6; i++ {
		row = append(row, i, i, i, 255)
	}
	if err := sr.FramebufferDraw(0, 0, 6, 1, row); err != nil {
		t.Fatal(err)
	}
	if err := sr.FramebufferCopy(2, 0, 0, 0, 4, 1); err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 1, 0, 1, 2, 3}
	fb := sr.Framebuffer()
	for x := int32(0); x < 6; x++ {
		if got := fb.Pixel(x, 0)[0]; got != want[x] {
			t.Errorf("pixel %d = %d, want %d", x, got, want[x])
		}
	}
}

func TestFramebufferClearAndResize(t *testing.T) {
	sr := newTestRenderer(t, 3, 3)
	if err := sr.FramebufferClear(metadata.Rect{X: -1, Y: -1, Width: 2, Height: 2}, metadata.NewColor(0, 1, 0, 1)); err != nil {
		t.Fatal(err)
	}
	fb := sr.Framebuffer()
	if !bytes.Equal(fb.Pixel(0, 0), []byte{0, 255, 0, 255}) || !bytes.Equal(fb.Pixel(1, 1), []byte{0, 0, 0, 0}) {
		t.Errorf("clear wrote the wrong pixels: %v", fb.Data)
	}

	if err := sr.Resized(5, 2); err != nil {
		t.Fatal(err)
	}
	if w, h := sr.SurfaceSize(); w != 5 || h != 2 {
		t.Errorf("SurfaceSize = %dx%d", w, h)
	}
	if err := sr.Resized(0, 2); !errors.Is(err, core.ErrIllegalArgument) {
		t.Errorf("expected ErrIllegalArgument, got %v", err)
	}

	var ops []string
	for _, c := range sr.Calls() {
		ops = append(ops, c.Op)
	}
	if len(ops) != 2 || ops[0] != "FramebufferClear" || ops[1] != "Resized" {
		t.Errorf("calls = %v", ops)
	}
	sr.ResetCalls()
	if len(sr.Calls()) != 0 {
		t.Error("ResetCalls left entries behind")
	}
}
