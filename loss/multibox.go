// Package loss implements the multibox training loss combining a
// smooth-L1 localization term over foreground anchors with a
// cross-entropy classification term subject to hard-negative mining.
package loss

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Params defines the loss configuration
type Params struct {
	// NumClasses is the number of foreground object classes.  Predicted
	// logits carry NumClasses+1 columns per anchor, column 0 being
	// background
	NumClasses int
	// NegPosRatio bounds the number of negative anchors contributing to
	// the classification loss to NegPosRatio times the number of
	// positive anchors of the same sample
	NegPosRatio int
	// Epsilon is added to the positive anchor count before normalizing
	// so a batch without positives divides by a small constant instead
	// of zero
	Epsilon float32
}

// DefaultParams returns the loss configuration used by the original
// multibox formulation: 3 hard negatives per positive and a 1e-3
// normalization epsilon
func DefaultParams(numClasses int) Params {
	return Params{
		NumClasses:  numClasses,
		NegPosRatio: 3,
		Epsilon:     1e-3,
	}
}

// MultiBox computes the detector training loss for a batch
type MultiBox struct {
	// Params are the loss configuration parameters
	Params Params
}

// NewMultiBox validates the given parameters and returns a MultiBox
// loss instance
func NewMultiBox(p Params) (*MultiBox, error) {

	if p.NumClasses < 1 {
		return nil, fmt.Errorf("number of classes must be at least 1, got %d", p.NumClasses)
	}

	if p.NegPosRatio < 1 {
		return nil, fmt.Errorf("negative to positive ratio must be at least 1, got %d", p.NegPosRatio)
	}

	if p.Epsilon <= 0 {
		return nil, fmt.Errorf("epsilon must be positive, got %f", p.Epsilon)
	}

	return &MultiBox{Params: p}, nil
}

// Compute returns the localization and classification loss of one
// batch, one slice element per sample.
//
// predLoc holds 4 predicted offsets per anchor and predLogits
// NumClasses+1 raw class scores per anchor.  targetLoc and targetLabels
// are the encoder outputs, labels being 0 for background, 1..NumClasses
// for foreground and -1 for anchors excluded from the loss.
//
// The localization term is the smooth-L1 distance summed over the
// coordinates of positive anchors only.  The classification term is the
// per-anchor cross-entropy summed over all positives plus, per sample,
// the NegPosRatio*positives highest loss negatives.  Both terms are
// divided by the batch wide positive count plus Epsilon.
func (l *MultiBox) Compute(predLoc, predLogits, targetLoc [][]float32,
	targetLabels [][]int) (locLoss, confLoss float32, err error) {

	if len(predLoc) != len(targetLabels) || len(predLogits) != len(targetLabels) ||
		len(targetLoc) != len(targetLabels) {
		return 0, 0, fmt.Errorf("batch size mismatch: %d/%d/%d/%d samples",
			len(predLoc), len(predLogits), len(targetLoc), len(targetLabels))
	}

	cols := l.Params.NumClasses + 1

	var locSum, confSum float64
	totalPos := 0

	for s := range targetLabels {

		labels := targetLabels[s]
		n := len(labels)

		if len(predLoc[s]) != n*4 || len(targetLoc[s]) != n*4 {
			return 0, 0, fmt.Errorf("sample %d: got %d/%d location values for %d anchors",
				s, len(predLoc[s]), len(targetLoc[s]), n)
		}

		if len(predLogits[s]) != n*cols {
			return 0, 0, fmt.Errorf("sample %d: got %d class logits, want %d",
				s, len(predLogits[s]), n*cols)
		}

		numPos := 0

		// negatives collected for hard mining, highest loss retained
		type negAnchor struct {
			idx int
			ce  float64
		}
		negatives := make([]negAnchor, 0, n)

		for i, label := range labels {

			switch {
			case label > 0:
				numPos++
				locSum += smoothL1(predLoc[s][i*4:i*4+4], targetLoc[s][i*4:i*4+4])
				confSum += crossEntropy(predLogits[s][i*cols:(i+1)*cols], label)

			case label == 0:
				negatives = append(negatives, negAnchor{
					idx: i,
					ce:  crossEntropy(predLogits[s][i*cols:(i+1)*cols], 0),
				})
			}
			// label < 0 is ignored entirely
		}

		totalPos += numPos

		// hard negative mining: rank this sample's negatives by loss and
		// keep at most NegPosRatio times its positive count.  Ties go to
		// the lowest anchor index.
		sort.SliceStable(negatives, func(a, b int) bool {
			return negatives[a].ce > negatives[b].ce
		})

		keep := l.Params.NegPosRatio * numPos
		if keep > len(negatives) {
			keep = len(negatives)
		}

		for _, neg := range negatives[:keep] {
			confSum += neg.ce
		}
	}

	norm := float64(totalPos) + float64(l.Params.Epsilon)

	return float32(locSum / norm), float32(confSum / norm), nil
}

// smoothL1 is the Huber style distance between predicted and target
// offsets: 0.5*d^2 below 1, |d|-0.5 above, summed over the 4
// coordinates
func smoothL1(pred, target []float32) float64 {

	var sum float64

	for k := range pred {

		d := float64(pred[k] - target[k])
		if d < 0 {
			d = -d
		}

		if d < 1 {
			sum += 0.5 * d * d
		} else {
			sum += d - 0.5
		}
	}

	return sum
}

// crossEntropy is the softmax cross-entropy of one anchor's logits
// against the target class: logsumexp(logits) - logits[label]
func crossEntropy(logits []float32, label int) float64 {

	row := make([]float64, len(logits))
	for k, v := range logits {
		row[k] = float64(v)
	}

	return floats.LogSumExp(row) - row[label]
}
