package vulkan

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

// newTestRenderer skips the test on machines without a usable Vulkan device.
func newTestRenderer(t *testing.T, width, height int32) *VulkanRenderer {
	t.Helper()
	vr := New()
	err := vr.Initialize(&metadata.RendererBackendConfig{
		ApplicationName: "vgpix-test",
		SurfaceWidth:    width,
		SurfaceHeight:   height,
		Headless:        true,
	})
	if err != nil {
		t.Skipf("vulkan not available: %s", err)
	}
	t.Cleanup(func() { vr.Shutdown() })
	return vr
}

func solidPixels(w, h int32, px [4]byte) []byte {
	out := make([]byte, 0, int(w)*int(h)*4)
	for i := int32(0); i < w*h; i++ {
		out = append(out, px[:]...)
	}
	return out
}

func TestVulkanErrorMapsAllocationFailures(t *testing.T) {
	tests := []struct {
		result vk.Result
		oom    bool
	}{
		{vk.ErrorOutOfHostMemory, true},
		{vk.ErrorOutOfDeviceMemory, true},
		{vk.ErrorOutOfPoolMemory, true},
		{vk.ErrorDeviceLost, false},
		{vk.ErrorInitializationFailed, false},
	}
	for _, tt := range tests {
		err := VulkanError("vkTest", tt.result)
		if got := errors.Is(err, core.ErrOutOfMemory); got != tt.oom {
			t.Errorf("%s: errors.Is(ErrOutOfMemory) = %t, want %t", VulkanResultString(tt.result), got, tt.oom)
		}
		if core.CodeFor(err) == core.NoError {
			t.Errorf("%s mapped to NoError", VulkanResultString(tt.result))
		}
	}
}

func TestVulkanSafeStrings(t *testing.T) {
	in := []string{"a", "b\x00", ""}
	out := VulkanSafeStrings(in)
	want := []string{"a\x00", "b\x00", "\x00"}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %q, want %q", i, out[i], want[i])
		}
	}
	if in[0] != "a" {
		t.Error("input slice was modified")
	}
}

func TestCString(t *testing.T) {
	var name [16]byte
	copy(name[:], "layer")
	if got := cString(name[:]); got != "layer" {
		t.Errorf("cString = %q", got)
	}
	full := []byte("abc")
	if got := cString(full); got != "abc" {
		t.Errorf("cString without terminator = %q", got)
	}
}

func TestLockPoolSerializesGroup(t *testing.T) {
	pool := NewVulkanLockPool()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.SafeCall(BufferManagement, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	if counter != 32 {
		t.Errorf("counter = %d, want 32", counter)
	}
}

func TestLockPoolQueueFamilies(t *testing.T) {
	pool := NewVulkanLockPool()
	called := false
	if err := pool.SafeQueueCall(3, func() error { called = true; return nil }); err == nil {
		t.Fatal("expected an error for an unregistered queue family")
	}
	if called {
		t.Fatal("callback ran for an unregistered queue family")
	}

	pool.SetQueueFamily(3)
	want := errors.New("submit failed")
	if err := pool.SafeQueueCall(3, func() error { return want }); !errors.Is(err, want) {
		t.Errorf("SafeQueueCall = %v, want %v", err, want)
	}
}

func TestInitializeRejectsEmptySurface(t *testing.T) {
	vr := New()
	err := vr.Initialize(&metadata.RendererBackendConfig{SurfaceWidth: 0, SurfaceHeight: 4, Headless: true})
	if !errors.Is(err, core.ErrIllegalArgument) {
		t.Fatalf("Initialize = %v, want ErrIllegalArgument", err)
	}
}

func TestFramebufferRoundTrip(t *testing.T) {
	vr := newTestRenderer(t, 8, 8)

	red := solidPixels(3, 2, [4]byte{255, 0, 0, 255})
	if err := vr.FramebufferDraw(2, 1, 3, 2, red); err != nil {
		t.Fatalf("FramebufferDraw: %s", err)
	}
	got := make([]byte, 3*2*4)
	if err := vr.FramebufferRead(2, 1, 3, 2, got); err != nil {
		t.Fatalf("FramebufferRead: %s", err)
	}
	if !bytes.Equal(got, red) {
		t.Errorf("read back %v, want %v", got, red)
	}

	// outside the drawn rectangle the surface starts zeroed
	corner := make([]byte, 4)
	if err := vr.FramebufferRead(0, 0, 1, 1, corner); err != nil {
		t.Fatalf("FramebufferRead: %s", err)
	}
	if !bytes.Equal(corner, []byte{0, 0, 0, 0}) {
		t.Errorf("corner = %v, want zero", corner)
	}
}

func TestFramebufferDrawClipsToSurface(t *testing.T) {
	vr := newTestRenderer(t, 4, 4)

	green := solidPixels(4, 4, [4]byte{0, 255, 0, 255})
	if err := vr.FramebufferDraw(-2, -2, 4, 4, green); err != nil {
		t.Fatalf("FramebufferDraw: %s", err)
	}
	got := make([]byte, 4*4*4)
	if err := vr.FramebufferRead(0, 0, 4, 4, got); err != nil {
		t.Fatalf("FramebufferRead: %s", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			px := got[(y*4+x)*4 : (y*4+x)*4+4]
			want := []byte{0, 0, 0, 0}
			if x < 2 && y < 2 {
				want = []byte{0, 255, 0, 255}
			}
			if !bytes.Equal(px, want) {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, px, want)
			}
		}
	}
}

func TestFramebufferClearAndCopy(t *testing.T) {
	vr := newTestRenderer(t, 4, 1)

	if err := vr.FramebufferClear(metadata.Rect{X: 0, Y: 0, Width: 2, Height: 1}, metadata.NewColor(0, 0, 1, 1)); err != nil {
		t.Fatalf("FramebufferClear: %s", err)
	}
	if err := vr.FramebufferCopy(1, 0, 0, 0, 3, 1); err != nil {
		t.Fatalf("FramebufferCopy: %s", err)
	}
	got := make([]byte, 4*4)
	if err := vr.FramebufferRead(0, 0, 4, 1, got); err != nil {
		t.Fatalf("FramebufferRead: %s", err)
	}
	blue := []byte{0, 0, 255, 255}
	want := append(append(append(append([]byte{}, blue...), blue...), blue...), 0, 0, 0, 0)
	if !bytes.Equal(got, want) {
		t.Errorf("surface = %v, want %v", got, want)
	}
}

func TestTextureLifecycle(t *testing.T) {
	vr := newTestRenderer(t, 4, 4)

	tex := &metadata.Texture{Width: 4, Height: 2}
	if err := vr.TextureCreate(tex, make([]byte, 4*2*4)); err != nil {
		t.Fatalf("TextureCreate: %s", err)
	}
	if tex.ID == 0 || tex.InternalData == nil {
		t.Fatalf("texture not registered: %+v", tex)
	}

	// stride 12 for a 2 pixel wide region
	pixels := []byte{
		1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0,
		9, 10, 11, 12, 13, 14, 15, 16, 0, 0, 0, 0,
	}
	if err := vr.TextureWriteData(tex, metadata.Rect{X: 1, Y: 0, Width: 2, Height: 2}, 12, pixels); err != nil {
		t.Fatalf("TextureWriteData: %s", err)
	}
	if tex.Generation != 1 {
		t.Errorf("Generation = %d, want 1", tex.Generation)
	}

	image := tex.InternalData.(*VulkanImage)
	got := metadata.NewPixelBuffer(make([]byte, 2*2*4), 2, 2)
	if err := vr.download(image, metadata.Rect{X: 1, Y: 0, Width: 2, Height: 2}, got); err != nil {
		t.Fatalf("download: %s", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if !bytes.Equal(got.Data, want) {
		t.Errorf("texture region = %v, want %v", got.Data, want)
	}

	vr.TextureDestroy(tex)
	if tex.ID != 0 || len(vr.textures) != 0 {
		t.Errorf("texture not released: %+v", tex)
	}
	if err := vr.TextureWriteData(tex, metadata.Rect{Width: 1, Height: 1}, 4, make([]byte, 4)); !errors.Is(err, core.ErrBadHandle) {
		t.Errorf("write after destroy = %v, want ErrBadHandle", err)
	}
}

func TestResizedKeepsDeviceUsable(t *testing.T) {
	vr := newTestRenderer(t, 4, 4)
	if err := vr.Resized(6, 3); err != nil {
		t.Fatalf("Resized: %s", err)
	}
	if w, h := vr.SurfaceSize(); w != 6 || h != 3 {
		t.Errorf("SurfaceSize = %dx%d, want 6x3", w, h)
	}
	if err := vr.Resized(0, 3); !errors.Is(err, core.ErrIllegalArgument) {
		t.Errorf("Resized(0, 3) = %v, want ErrIllegalArgument", err)
	}
	if err := vr.Finish(); err != nil {
		t.Errorf("Finish: %s", err)
	}
}
