package math

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp(5,0,3) = %d", got)
	}
	if got := Clamp(-1.5, 0.0, 1.0); got != 0 {
		t.Errorf("Clamp(-1.5,0,1) = %v", got)
	}
	if got := Clamp(int32(2), 0, 3); got != 2 {
		t.Errorf("Clamp(2,0,3) = %d", got)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		in, want int32
	}{
		{-4, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {4, 4}, {5, 8}, {100, 128}, {1024, 1024}, {1025, 2048},
	}
	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.in); got != tt.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if !IsPowerOfTwo(NextPowerOfTwo(tt.in)) {
			t.Errorf("NextPowerOfTwo(%d) is not a power of two", tt.in)
		}
	}
	if IsPowerOfTwo(0) || IsPowerOfTwo(6) {
		t.Error("IsPowerOfTwo accepted a non power of two")
	}
}

func TestAbs(t *testing.T) {
	if Abs(-3) != 3 || Abs(2.5) != 2.5 {
		t.Error("Abs mismatch")
	}
}
