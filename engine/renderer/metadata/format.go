package metadata

import "fmt"

/** @brief An image format code. The low bits select a base encoding, bits 6 and 7 are layout flags. */
type ImageFormat int32

const (
	/* sRGB encodings */
	FormatSRGBX8888    ImageFormat = 0
	FormatSRGBA8888    ImageFormat = 1
	FormatSRGBA8888Pre ImageFormat = 2
	FormatSRGB565      ImageFormat = 3
	FormatSRGBA5551    ImageFormat = 4
	FormatSRGBA4444    ImageFormat = 5
	FormatSL8          ImageFormat = 6
	/* linear encodings */
	FormatLRGBX8888    ImageFormat = 7
	FormatLRGBA8888    ImageFormat = 8
	FormatLRGBA8888Pre ImageFormat = 9
	FormatLL8          ImageFormat = 10
	FormatA8           ImageFormat = 11
	FormatBW1          ImageFormat = 12
)

const (
	/** @brief Alpha stored in the first channel (ARGB instead of RGBA). */
	FormatAlphaFirstBit ImageFormat = 1 << 6
	/** @brief Blue and red swapped (BGRA instead of RGBA). */
	FormatBGRBit ImageFormat = 1 << 7
)

/** @brief The single encoding the pixel paths implement. */
const SupportedImageFormat = FormatSRGBA8888

const BytesPerPixel = 4

var formatNames = map[ImageFormat]string{
	FormatSRGBX8888:    "sRGBX_8888",
	FormatSRGBA8888:    "sRGBA_8888",
	FormatSRGBA8888Pre: "sRGBA_8888_PRE",
	FormatSRGB565:      "sRGB_565",
	FormatSRGBA5551:    "sRGBA_5551",
	FormatSRGBA4444:    "sRGBA_4444",
	FormatSL8:          "sL_8",
	FormatLRGBX8888:    "lRGBX_8888",
	FormatLRGBA8888:    "lRGBA_8888",
	FormatLRGBA8888Pre: "lRGBA_8888_PRE",
	FormatLL8:          "lL_8",
	FormatA8:           "A_8",
	FormatBW1:          "BW_1",
}

func (f ImageFormat) String() string {
	base := f.Base()
	name, ok := formatNames[base]
	if !ok || (!isRGBAFamily(base) && base != f) {
		return fmt.Sprintf("ImageFormat(%d)", int32(f))
	}
	if f&FormatAlphaFirstBit != 0 {
		name += "|ALPHA_FIRST"
	}
	if f&FormatBGRBit != 0 {
		name += "|BGR"
	}
	return name
}

// Base strips the two layout flag bits.
func (f ImageFormat) Base() ImageFormat {
	return f &^ (FormatAlphaFirstBit | FormatBGRBit)
}

func isRGBAFamily(base ImageFormat) bool {
	switch base {
	case FormatSRGBX8888, FormatSRGBA8888, FormatSRGBA8888Pre,
		FormatSRGBA5551, FormatSRGBA4444,
		FormatLRGBX8888, FormatLRGBA8888, FormatLRGBA8888Pre:
		return true
	}
	return false
}

// IsValidFormat reports whether code is a legal format. RGBA-family codes may
// carry the layout flags; every other code must have them clear.
func IsValidFormat(code ImageFormat) bool {
	check := code
	if base := code.Base(); isRGBAFamily(base) {
		check = base
	}
	return check >= FormatSRGBX8888 && check <= FormatBW1
}

// IsSupportedFormat reports whether the pixel paths can encode code.
func IsSupportedFormat(code ImageFormat) bool {
	return code == SupportedImageFormat
}

// KnownFormats lists every base format in code order.
func KnownFormats() []ImageFormat {
	out := make([]ImageFormat, 0, len(formatNames))
	for f := FormatSRGBX8888; f <= FormatBW1; f++ {
		out = append(out, f)
	}
	return out
}

/** @brief Image quality hints accepted at creation time. */
type ImageQuality uint32

const (
	ImageQualityNonAntialiased ImageQuality = 1 << 0
	ImageQualityFaster         ImageQuality = 1 << 1
	ImageQualityBetter         ImageQuality = 1 << 2

	imageQualityAll = ImageQualityNonAntialiased | ImageQualityFaster | ImageQualityBetter
)

// IsValid reports whether q only carries recognized quality bits.
func (q ImageQuality) IsValid() bool {
	return q&^imageQualityAll == 0
}

// Filter picks the resampling filter used when an upload has to be rescaled.
func (q ImageQuality) Filter() TextureFilter {
	switch {
	case q&ImageQualityBetter != 0:
		return TextureFilterModeLinear
	case q&ImageQualityFaster != 0:
		return TextureFilterModeApproxLinear
	case q&ImageQualityNonAntialiased != 0:
		return TextureFilterModeNearest
	}
	return TextureFilterModeLinear
}
