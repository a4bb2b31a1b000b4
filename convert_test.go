package multibox

import (
	"testing"
)

func TestFloat16ToFloat32(t *testing.T) {

	// IEEE 754 binary16 bit patterns with exact float32 values
	src := []uint16{
		0x0000, // 0
		0x3C00, // 1
		0x3800, // 0.5
		0xC000, // -2
		0x4248, // 3.140625
	}
	want := []float32{0, 1, 0.5, -2, 3.140625}

	got := Float16ToFloat32(src)

	if !floatsEqual(got, want, 0) {
		t.Errorf("Float16ToFloat32 = %v, want %v", got, want)
	}
}

func TestFloat16ToFloat32Empty(t *testing.T) {

	if got := Float16ToFloat32(nil); len(got) != 0 {
		t.Errorf("got %d values for empty input", len(got))
	}
}
