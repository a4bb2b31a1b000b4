package loss

import (
	"math"
	"testing"
)

// nearF64 compares two values within epsilon
func nearF64(a, b, epsilon float64) bool {
	diff := a - b
	return diff <= epsilon && diff >= -epsilon
}

// uniformCE is the cross-entropy of an all zero logit row over n
// columns, log(n)
func uniformCE(cols int) float64 {
	return math.Log(float64(cols))
}

func TestNewMultiBoxValidation(t *testing.T) {

	if _, err := NewMultiBox(Params{NumClasses: 0, NegPosRatio: 3, Epsilon: 1e-3}); err == nil {
		t.Error("expected error for zero classes")
	}

	if _, err := NewMultiBox(Params{NumClasses: 1, NegPosRatio: 0, Epsilon: 1e-3}); err == nil {
		t.Error("expected error for zero ratio")
	}

	if _, err := NewMultiBox(Params{NumClasses: 1, NegPosRatio: 3, Epsilon: 0}); err == nil {
		t.Error("expected error for zero epsilon")
	}
}

func TestComputeKnownValues(t *testing.T) {

	l, err := NewMultiBox(DefaultParams(1))
	if err != nil {
		t.Fatal(err)
	}

	// one sample, two anchors: anchor 0 positive with a 0.5 offset error
	// on one coordinate, anchor 1 negative.  All logits zero.
	predLoc := [][]float32{{0.5, 0, 0, 0, 0, 0, 0, 0}}
	predLogits := [][]float32{{0, 0, 0, 0}}
	targetLoc := [][]float32{make([]float32, 8)}
	targetLabels := [][]int{{1, 0}}

	locLoss, confLoss, err := l.Compute(predLoc, predLogits, targetLoc, targetLabels)

	if err != nil {
		t.Fatal(err)
	}

	n := 1 + 1e-3

	// smooth L1 of 0.5 on one coordinate
	wantLoc := 0.5 * 0.5 * 0.5 / n

	// both anchors contribute log(2) cross-entropy: the positive always,
	// the negative because 3*1 positives bound allows it
	wantConf := 2 * uniformCE(2) / n

	if !nearF64(float64(locLoss), wantLoc, 1e-5) {
		t.Errorf("locLoss = %f, want %f", locLoss, wantLoc)
	}

	if !nearF64(float64(confLoss), wantConf, 1e-5) {
		t.Errorf("confLoss = %f, want %f", confLoss, wantConf)
	}
}

func TestComputeHardNegativeBound(t *testing.T) {

	l, err := NewMultiBox(DefaultParams(1))
	if err != nil {
		t.Fatal(err)
	}

	// one positive and ten negatives of increasing difficulty: only the
	// three hardest negatives may contribute
	numAnchors := 11

	labels := make([]int, numAnchors)
	labels[0] = 1

	logits := make([]float32, numAnchors*2)

	// negative anchor i has a growing foreground logit, making its
	// background cross-entropy larger with i
	for i := 1; i < numAnchors; i++ {
		logits[i*2+1] = float32(i) * 0.1
	}

	predLoc := [][]float32{make([]float32, numAnchors*4)}
	targetLoc := [][]float32{make([]float32, numAnchors*4)}

	_, confLoss, err := l.Compute(predLoc, [][]float32{logits},
		targetLoc, [][]int{labels})

	if err != nil {
		t.Fatal(err)
	}

	// positive anchor cross-entropy: logits (0, 0) against class 1
	want := uniformCE(2)

	// three hardest negatives are anchors 10, 9, 8
	for _, i := range []int{10, 9, 8} {
		x := float64(logits[i*2+1])
		want += math.Log(1+math.Exp(x)) - 0
	}

	want /= 1 + 1e-3

	if !nearF64(float64(confLoss), want, 1e-5) {
		t.Errorf("confLoss = %f, want %f (top 3 negatives only)", confLoss, want)
	}
}

func TestComputeNoPositives(t *testing.T) {

	l, err := NewMultiBox(DefaultParams(1))
	if err != nil {
		t.Fatal(err)
	}

	// a batch without positives keeps zero negatives and divides by the
	// epsilon, never by zero
	predLoc := [][]float32{make([]float32, 8)}
	predLogits := [][]float32{{0, 5, 0, 5}}
	targetLoc := [][]float32{make([]float32, 8)}
	targetLabels := [][]int{{0, 0}}

	locLoss, confLoss, err := l.Compute(predLoc, predLogits, targetLoc, targetLabels)

	if err != nil {
		t.Fatal(err)
	}

	if locLoss != 0 || confLoss != 0 {
		t.Errorf("losses = %f, %f, want 0, 0 for a batch without positives",
			locLoss, confLoss)
	}
}

func TestComputeIgnoredAnchors(t *testing.T) {

	l, err := NewMultiBox(DefaultParams(1))
	if err != nil {
		t.Fatal(err)
	}

	// anchors labeled -1 must not influence either term
	base := [][]int{{1, 0}}
	withIgnored := [][]int{{1, 0, -1}}

	locA, confA, err := l.Compute(
		[][]float32{{0.5, 0, 0, 0, 0, 0, 0, 0}},
		[][]float32{{0, 0, 0, 0}},
		[][]float32{make([]float32, 8)},
		base)
	if err != nil {
		t.Fatal(err)
	}

	locB, confB, err := l.Compute(
		[][]float32{{0.5, 0, 0, 0, 0, 0, 0, 0, 9, 9, 9, 9}},
		[][]float32{{0, 0, 0, 0, 9, 9}},
		[][]float32{make([]float32, 12)},
		withIgnored)
	if err != nil {
		t.Fatal(err)
	}

	if locA != locB || confA != confB {
		t.Errorf("ignored anchors changed the loss: (%f, %f) vs (%f, %f)",
			locA, confA, locB, confB)
	}
}

func TestComputeBatchNormalization(t *testing.T) {

	l, err := NewMultiBox(DefaultParams(1))
	if err != nil {
		t.Fatal(err)
	}

	// two identical samples: sums double but so does the positive
	// count, the per-batch loss stays the same
	predLoc := []float32{0.5, 0, 0, 0, 0, 0, 0, 0}
	predLogits := []float32{0, 0, 0, 0}
	targetLoc := make([]float32, 8)
	labels := []int{1, 0}

	locOne, confOne, err := l.Compute(
		[][]float32{predLoc}, [][]float32{predLogits},
		[][]float32{targetLoc}, [][]int{labels})
	if err != nil {
		t.Fatal(err)
	}

	locTwo, confTwo, err := l.Compute(
		[][]float32{predLoc, predLoc}, [][]float32{predLogits, predLogits},
		[][]float32{targetLoc, targetLoc}, [][]int{labels, labels})
	if err != nil {
		t.Fatal(err)
	}

	// not exactly equal: the epsilon weighs half as much with two
	// positives
	if !nearF64(float64(locTwo), float64(locOne), 1e-3) {
		t.Errorf("locLoss changed from %f to %f when doubling the batch", locOne, locTwo)
	}

	if !nearF64(float64(confTwo), float64(confOne), 1e-2) {
		t.Errorf("confLoss changed from %f to %f when doubling the batch", confOne, confTwo)
	}
}

func TestComputeShapeValidation(t *testing.T) {

	l, err := NewMultiBox(DefaultParams(1))
	if err != nil {
		t.Fatal(err)
	}

	// batch size mismatch
	_, _, err = l.Compute(
		[][]float32{make([]float32, 8)},
		[][]float32{{0, 0, 0, 0}, {0, 0, 0, 0}},
		[][]float32{make([]float32, 8)},
		[][]int{{1, 0}})

	if err == nil {
		t.Error("expected error for batch size mismatch")
	}

	// logit column mismatch
	_, _, err = l.Compute(
		[][]float32{make([]float32, 8)},
		[][]float32{{0, 0, 0}},
		[][]float32{make([]float32, 8)},
		[][]int{{1, 0}})

	if err == nil {
		t.Error("expected error for logit shape mismatch")
	}
}
