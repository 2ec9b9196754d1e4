package metadata

import "testing"

func TestPixelBufferStride(t *testing.T) {
	pb := NewPixelBuffer(make([]byte, 3*2*4), 3, 2)
	if got := pb.RowStride(); got != 12 {
		t.Errorf("RowStride() = %d, want 12", got)
	}
	pb.Stride = 0
	if got := pb.RowStride(); got != 12 {
		t.Errorf("RowStride() with 0 = %d, want 12", got)
	}
	pb.Stride = 16
	if got := pb.Offset(1, 1); got != 20 {
		t.Errorf("Offset(1,1) = %d, want 20", got)
	}
}

func TestPixelBufferValidate(t *testing.T) {
	tests := []struct {
		name    string
		pb      PixelBuffer
		wantErr bool
	}{
		{"tight", PixelBuffer{Data: make([]byte, 16), Width: 2, Height: 2, Stride: TightStride}, false},
		{"padded rows, short last row", PixelBuffer{Data: make([]byte, 24), Width: 2, Height: 2, Stride: 16}, false},
		{"too short", PixelBuffer{Data: make([]byte, 15), Width: 2, Height: 2, Stride: TightStride}, true},
		{"stride smaller than row", PixelBuffer{Data: make([]byte, 64), Width: 4, Height: 2, Stride: 8}, true},
		{"empty", PixelBuffer{Width: 0, Height: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pb.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestImageViews(t *testing.T) {
	img := &Image{
		Format:    FormatSRGBA8888,
		Width:     3,
		Height:    5,
		TexWidth:  4,
		TexHeight: 8,
		Data:      make([]byte, 4*8*4),
	}
	px := img.Pixels()
	if px.Width != 3 || px.Height != 5 || px.RowStride() != 16 {
		t.Errorf("Pixels() = %dx%d stride %d", px.Width, px.Height, px.RowStride())
	}
	tex := img.TextureBuffer()
	if tex.Width != 4 || tex.Height != 8 || tex.Validate() != nil {
		t.Errorf("TextureBuffer() = %dx%d", tex.Width, tex.Height)
	}
	px.Pixel(2, 4)[0] = 9
	if tex.Pixel(2, 4)[0] != 9 {
		t.Error("views do not share storage")
	}
}

func TestImageHandle(t *testing.T) {
	if InvalidHandle.IsValid() {
		t.Fatal("zero handle reported valid")
	}
	h := NewImageHandle()
	if !h.IsValid() {
		t.Fatal("new handle reported invalid")
	}
	parsed, err := ParseImageHandle(h.String())
	if err != nil || parsed != h {
		t.Fatalf("ParseImageHandle(%q) = %v, %v", h.String(), parsed, err)
	}
	if _, err := ParseImageHandle("not-a-handle"); err == nil {
		t.Fatal("garbage parsed")
	}
}

func TestGetAligned(t *testing.T) {
	tests := []struct{ in, granularity, want uint64 }{
		{0, 64, 0},
		{1, 64, 64},
		{64, 64, 64},
		{65, 64, 128},
		{100000, 65536, 131072},
	}
	for _, tt := range tests {
		if got := GetAligned(tt.in, tt.granularity); got != tt.want {
			t.Errorf("GetAligned(%d, %d) = %d, want %d", tt.in, tt.granularity, got, tt.want)
		}
	}
}
