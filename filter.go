package multibox

import (
	"math"
)

// DefaultMinBoxPixels is the default geometric mean pixel size below
// which a normalized ground truth box is dropped by FilterBoxes.  Tune
// it to the dataset resolution, or pass 0 to keep every box.
const DefaultMinBoxPixels = 8

// FilterBoxes removes malformed ground truth annotations before
// encoding.  Boxes with non-positive width or height are always
// dropped.  When the box set is normalized, boxes whose geometric mean
// size sqrt(w*imgWidth * h*imgHeight) falls below minPixels are dropped
// as well; pass 0 to disable the size filter.
//
// The returned slices are fresh copies, labels stay paired 1:1 with
// their boxes.
func FilterBoxes(boxes []float32, labels []int, imgWidth, imgHeight int,
	minPixels float32) ([]float32, []int) {

	outBoxes := make([]float32, 0, len(boxes))
	outLabels := make([]int, 0, len(labels))

	normalized := isNormalized(boxes)

	for j := range labels {

		w := boxes[j*4+2] - boxes[j*4+0]
		h := boxes[j*4+3] - boxes[j*4+1]

		if w <= 0 || h <= 0 {
			continue
		}

		if normalized && minPixels > 0 {
			pixels := float32(math.Sqrt(float64(
				w * float32(imgWidth) * h * float32(imgHeight))))

			if pixels < minPixels {
				continue
			}
		}

		outBoxes = append(outBoxes, boxes[j*4+0], boxes[j*4+1],
			boxes[j*4+2], boxes[j*4+3])
		outLabels = append(outLabels, labels[j])
	}

	return outBoxes, outLabels
}

// isNormalized reports whether every coordinate lies below 1, the
// convention separating normalized boxes from pixel boxes
func isNormalized(boxes []float32) bool {

	for _, v := range boxes {
		if v >= 1 {
			return false
		}
	}

	return true
}
