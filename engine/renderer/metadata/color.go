package metadata

import "github.com/spaghettifunk/vgpix/engine/math"

/** @brief The encoding a Color's channel values are expressed in. */
type ColorEncoding int

const (
	ColorEncodingSRGBA ColorEncoding = iota
	ColorEncodingSRGBAPre
	ColorEncodingLRGBA
	ColorEncodingLRGBAPre
)

/**
 * @brief A normalized RGBA color. Channels are in [0, 1].
 */
type Color struct {
	R, G, B, A float32
	Encoding   ColorEncoding
}

func NewColor(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a, Encoding: ColorEncodingSRGBA}
}

// Clamped returns c with every channel clamped to [0, 1].
func (c Color) Clamped() Color {
	c.R = math.Clamp(c.R, 0, 1)
	c.G = math.Clamp(c.G, 0, 1)
	c.B = math.Clamp(c.B, 0, 1)
	c.A = math.Clamp(c.A, 0, 1)
	return c
}

func colorToByte(v float32) uint8 {
	return uint8(math.Clamp(v, 0, 1)*255 + 0.5)
}

func byteToColor(b uint8) float32 {
	return float32(b) / 255
}

// StoreColor encodes c into the first four bytes of out. Formats other than
// the supported one leave out untouched.
func StoreColor(c Color, out []byte, format ImageFormat) {
	if format != SupportedImageFormat {
		return
	}
	_ = out[3]
	out[0] = colorToByte(c.R)
	out[1] = colorToByte(c.G)
	out[2] = colorToByte(c.B)
	out[3] = colorToByte(c.A)
}

// LoadColor decodes the first four bytes of in. For formats other than the
// supported one the zero Color is returned.
func LoadColor(in []byte, format ImageFormat) Color {
	if format != SupportedImageFormat {
		return Color{}
	}
	_ = in[3]
	return Color{
		R:        byteToColor(in[0]),
		G:        byteToColor(in[1]),
		B:        byteToColor(in[2]),
		A:        byteToColor(in[3]),
		Encoding: ColorEncodingSRGBA,
	}
}
