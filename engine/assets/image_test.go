package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

func TestDecodeImageConvertsToNRGBA(t *testing.T) {
	palette := color.Palette{color.NRGBA{0, 0, 0, 255}, color.NRGBA{255, 0, 0, 255}}
	src := image.NewPaletted(image.Rect(0, 0, 3, 2), palette)
	src.SetColorIndex(2, 1, 1)

	var buf bytes.Buffer
	if err := gif.Encode(&buf, src, nil); err != nil {
		t.Fatal(err)
	}
	pb, kind, err := DecodeImage(&buf)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if kind != "gif" || pb.Width != 3 || pb.Height != 2 {
		t.Fatalf("decoded %s %dx%d", kind, pb.Width, pb.Height)
	}
	if !bytes.Equal(pb.Pixel(2, 1), []byte{255, 0, 0, 255}) || !bytes.Equal(pb.Pixel(0, 0), []byte{0, 0, 0, 255}) {
		t.Errorf("pixels %v", pb.Data)
	}
	if pb.Format != metadata.FormatSRGBA8888 {
		t.Errorf("format %s", pb.Format)
	}
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeImage(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatal("expected an error")
	}
}

func TestPNGRoundTripPaddedStride(t *testing.T) {
	// 2x2 pixels, rows 3 pixels apart
	data := []byte{
		1, 2, 3, 255, 4, 5, 6, 255, 0, 0, 0, 0,
		7, 8, 9, 255, 10, 11, 12, 128,
	}
	pb := &metadata.PixelBuffer{Data: data, Width: 2, Height: 2, Stride: 12, Format: metadata.FormatSRGBA8888}

	path := filepath.Join(t.TempDir(), "out.png")
	if err := SavePNG(path, pb); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	got, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	want := []byte{1, 2, 3, 255, 4, 5, 6, 255, 7, 8, 9, 255, 10, 11, 12, 128}
	if !bytes.Equal(got.Data, want) {
		t.Fatalf("round trip %v, want %v", got.Data, want)
	}
}

func TestEncodePNGValidates(t *testing.T) {
	pb := metadata.NewPixelBuffer(make([]byte, 4), 2, 2)
	if err := EncodePNG(&bytes.Buffer{}, pb); err == nil {
		t.Fatal("short buffer encoded")
	}

	var buf bytes.Buffer
	if err := EncodePNG(&buf, metadata.NewPixelBuffer(bytes.Repeat([]byte{9, 8, 7, 255}, 4), 2, 2)); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if r, g, b, _ := img.At(1, 1).RGBA(); r>>8 != 9 || g>>8 != 8 || b>>8 != 7 {
		t.Errorf("decoded (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}
