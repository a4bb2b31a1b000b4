package segment

import (
	"testing"
)

func TestLabelMap(t *testing.T) {

	// 2 classes over a 2x2 image: three planes of four pixels.
	// Pixel 0: background wins.  Pixel 1: class 1.  Pixel 2: class 2.
	// Pixel 3: tie between classes, lowest id wins.
	logits := []float32{
		1.0, 0.0, 0.0, 0.0, // background plane
		0.0, 2.0, 0.5, 1.5, // class 1 plane
		0.5, 1.0, 2.0, 1.5, // class 2 plane
	}

	labels, err := LabelMap(logits, 2, 2, 2)

	if err != nil {
		t.Fatal(err)
	}

	want := []uint8{0, 1, 2, 1}

	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("pixel %d labeled %d, want %d", i, labels[i], want[i])
		}
	}
}

func TestLabelMapValidation(t *testing.T) {

	if _, err := LabelMap(make([]float32, 5), 2, 2, 2); err == nil {
		t.Error("expected error for bad logit count")
	}

	if _, err := LabelMap(make([]float32, 4), 0, 2, 2); err == nil {
		t.Error("expected error for zero classes")
	}
}

func TestClassMask(t *testing.T) {

	labelMap := []uint8{0, 1, 2, 1}

	mask := ClassMask(labelMap, 1)

	want := []uint8{0, 255, 0, 255}

	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("mask pixel %d = %d, want %d", i, mask[i], want[i])
		}
	}
}

func TestPixelCount(t *testing.T) {

	counts := PixelCount([]uint8{0, 0, 1, 2, 2, 2})

	if counts[0] != 2 || counts[1] != 1 || counts[2] != 3 {
		t.Errorf("counts = %v", counts)
	}
}
