package assets

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

// DecodeImage decodes any registered image format into a tightly packed
// sRGBA_8888 buffer. It also returns the name of the decoded format.
func DecodeImage(r io.Reader) (*metadata.PixelBuffer, string, error) {
	img, kind, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, kind, fmt.Errorf("%s image has no pixels", kind)
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != b.Dx()*metadata.BytesPerPixel || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	return metadata.NewPixelBuffer(nrgba.Pix, int32(b.Dx()), int32(b.Dy())), kind, nil
}

func LoadImage(path string) (*metadata.PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pb, _, err := DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return pb, nil
}

// NRGBA wraps pb as an image without copying. Stride must already be valid.
func NRGBA(pb *metadata.PixelBuffer) *image.NRGBA {
	return &image.NRGBA{
		Pix:    pb.Data,
		Stride: int(pb.RowStride()),
		Rect:   image.Rect(0, 0, int(pb.Width), int(pb.Height)),
	}
}

func EncodePNG(w io.Writer, pb *metadata.PixelBuffer) error {
	if err := pb.Validate(); err != nil {
		return err
	}
	return png.Encode(w, NRGBA(pb))
}

func SavePNG(path string, pb *metadata.PixelBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodePNG(f, pb); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
