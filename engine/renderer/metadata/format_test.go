package metadata

import "testing"

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		name string
		code ImageFormat
		want bool
	}{
		{"sRGBX_8888", FormatSRGBX8888, true},
		{"sRGBA_8888", FormatSRGBA8888, true},
		{"sRGB_565", FormatSRGB565, true},
		{"sL_8", FormatSL8, true},
		{"A_8", FormatA8, true},
		{"BW_1", FormatBW1, true},
		{"argb", FormatSRGBA8888 | FormatAlphaFirstBit, true},
		{"bgra", FormatSRGBA8888 | FormatBGRBit, true},
		{"abgr", FormatSRGBA8888 | FormatAlphaFirstBit | FormatBGRBit, true},
		{"lRGBA_8888_PRE bgr", FormatLRGBA8888Pre | FormatBGRBit, true},
		{"sRGBA_4444 argb", FormatSRGBA4444 | FormatAlphaFirstBit, true},
		{"565 with flag", FormatSRGB565 | FormatBGRBit, false},
		{"sL_8 with flag", FormatSL8 | FormatAlphaFirstBit, false},
		{"BW_1 with flag", FormatBW1 | FormatAlphaFirstBit, false},
		{"one past BW_1", FormatBW1 + 1, false},
		{"negative", -1, false},
		{"high byte", 0x100 | FormatSRGBA8888, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidFormat(tt.code); got != tt.want {
				t.Errorf("IsValidFormat(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestSupportedFormatIsOnlySRGBA8888(t *testing.T) {
	for code := ImageFormat(0); code < 0x100; code++ {
		want := code == FormatSRGBA8888
		if got := IsSupportedFormat(code); got != want {
			t.Errorf("IsSupportedFormat(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestFormatString(t *testing.T) {
	tests := map[ImageFormat]string{
		FormatSRGBA8888:                       "sRGBA_8888",
		FormatSRGBA8888 | FormatBGRBit:        "sRGBA_8888|BGR",
		FormatLRGBX8888 | FormatAlphaFirstBit: "lRGBX_8888|ALPHA_FIRST",
		FormatA8 | FormatBGRBit:               "ImageFormat(139)",
		42:                                    "ImageFormat(42)",
	}
	for code, want := range tests {
		if got := code.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int32(code), got, want)
		}
	}
	if n := len(KnownFormats()); n != 13 {
		t.Errorf("KnownFormats() has %d entries", n)
	}
}

func TestImageQuality(t *testing.T) {
	valid := []ImageQuality{0, ImageQualityNonAntialiased, ImageQualityFaster | ImageQualityBetter, imageQualityAll}
	for _, q := range valid {
		if !q.IsValid() {
			t.Errorf("quality %b rejected", q)
		}
	}
	for _, q := range []ImageQuality{8, imageQualityAll | 16, 1 << 31} {
		if q.IsValid() {
			t.Errorf("quality %b accepted", q)
		}
	}
	if ImageQualityNonAntialiased.Filter() != TextureFilterModeNearest {
		t.Error("non-antialiased should resample with nearest")
	}
	if (ImageQualityFaster | ImageQualityBetter).Filter() != TextureFilterModeLinear {
		t.Error("better should win over faster")
	}
}
