package assets

import "github.com/spaghettifunk/vgpix/engine/renderer/metadata"

type Loader interface {
	Load(path string) (*metadata.PixelBuffer, error)
}

// ImageLoader decodes PNG, JPEG, GIF, BMP, TIFF and WebP files.
type ImageLoader struct{}

func (il *ImageLoader) Load(path string) (*metadata.PixelBuffer, error) {
	return LoadImage(path)
}

// RawLoader reads zstd compressed raw pixel dumps.
type RawLoader struct{}

func (rl *RawLoader) Load(path string) (*metadata.PixelBuffer, error) {
	return LoadRaw(path)
}
