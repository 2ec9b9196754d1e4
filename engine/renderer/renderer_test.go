package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
	"github.com/spaghettifunk/vgpix/engine/renderer/software"
)

func TestParseRendererType(t *testing.T) {
	tests := []struct {
		in      string
		want    RendererType
		wantErr bool
	}{
		{"", Software, false},
		{"software", Software, false},
		{" Vulkan ", Vulkan, false},
		{"metal", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseRendererType(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRendererType(%q) = %v, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, core.ErrBackendNotSupported) {
			t.Errorf("error %v does not wrap ErrBackendNotSupported", err)
		}
	}
}

func TestNewSoftwareRenderer(t *testing.T) {
	r, err := New(Software, &metadata.RendererBackendConfig{SurfaceWidth: 8, SurfaceHeight: 4, NonPowerOfTwo: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Shutdown()

	if !r.Capabilities().NonPowerOfTwo {
		t.Error("capabilities not taken from the backend")
	}
	if w, h := r.SurfaceSize(); w != 8 || h != 4 {
		t.Errorf("SurfaceSize = %dx%d", w, h)
	}
	if _, ok := r.Backend().(*software.SoftwareRenderer); !ok {
		t.Errorf("unexpected backend %T", r.Backend())
	}
}

func TestNewUnregisteredBackend(t *testing.T) {
	_, err := New(RendererType(42), &metadata.RendererBackendConfig{SurfaceWidth: 1, SurfaceHeight: 1})
	if !errors.Is(err, core.ErrBackendNotSupported) {
		t.Fatalf("expected ErrBackendNotSupported, got %v", err)
	}
}

func TestNewPropagatesInitializeErrors(t *testing.T) {
	_, err := NewWithBackend(software.New(), &metadata.RendererBackendConfig{})
	if !errors.Is(err, core.ErrIllegalArgument) {
		t.Fatalf("expected ErrIllegalArgument, got %v", err)
	}
}
