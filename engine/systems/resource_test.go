package systems

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

func TestResourceTableRegisterDeregister(t *testing.T) {
	rt := NewResourceTable(&ResourceTableConfig{})
	imgs := make([]*metadata.Image, 3)
	for i := range imgs {
		imgs[i] = &metadata.Image{Handle: metadata.NewImageHandle()}
		if err := rt.Register(imgs[i]); err != nil {
			t.Fatalf("Register(%d): %v", i, err)
		}
	}
	if rt.Count() != 3 {
		t.Fatalf("Count = %d", rt.Count())
	}

	index := rt.FindIndex(imgs[0].Handle)
	removed, err := rt.Deregister(index)
	if err != nil || removed != imgs[0] {
		t.Fatalf("Deregister(%d) = %v, %v", index, removed, err)
	}
	if rt.IsValidImage(imgs[0].Handle) {
		t.Error("removed handle still valid")
	}
	for _, img := range imgs[1:] {
		if got := rt.Get(img.Handle); got != img {
			t.Errorf("Get(%s) = %v after removal of another image", img.Handle, got)
		}
	}
	if rt.FindIndex(metadata.NewImageHandle()) != -1 {
		t.Error("unknown handle found")
	}
	if _, err := rt.Deregister(7); !errors.Is(err, core.ErrBadHandle) {
		t.Errorf("expected ErrBadHandle, got %v", err)
	}
}

func TestResourceTableRejects(t *testing.T) {
	rt := NewResourceTable(&ResourceTableConfig{MaxImageCount: 1})
	if err := rt.Register(&metadata.Image{}); !errors.Is(err, core.ErrIllegalArgument) {
		t.Errorf("invalid handle: %v", err)
	}
	img := &metadata.Image{Handle: metadata.NewImageHandle()}
	if err := rt.Register(img); err != nil {
		t.Fatal(err)
	}
	if err := rt.Register(img); !errors.Is(err, core.ErrIllegalArgument) {
		t.Errorf("duplicate: %v", err)
	}
	if err := rt.Register(&metadata.Image{Handle: metadata.NewImageHandle()}); !errors.Is(err, core.ErrOutOfMemory) {
		t.Errorf("full table: %v", err)
	}
	if err := rt.Shutdown(); err == nil {
		t.Error("Shutdown with live images succeeded")
	}
}
