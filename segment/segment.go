// Package segment turns the dense per-pixel class logits of the
// segmentation head into label maps and extracts per-class polygon
// regions from them.
package segment

import (
	"fmt"
)

// LabelMap reduces per-pixel class logits to a segmentation map by
// taking the highest scoring class at every pixel.
//
// logits is laid out as numClasses+1 planes of height*width values
// each, plane 0 being background.  The returned map holds one class id
// per pixel in row major order.  Ties go to the lowest class id.
func LabelMap(logits []float32, numClasses, width, height int) ([]uint8, error) {

	planes := numClasses + 1
	pixels := width * height

	if numClasses < 1 || numClasses > 254 {
		return nil, fmt.Errorf("number of classes must be in 1..254, got %d", numClasses)
	}

	if len(logits) != planes*pixels {
		return nil, fmt.Errorf("got %d logits for %d planes of %d pixels",
			len(logits), planes, pixels)
	}

	labels := make([]uint8, pixels)

	for idx := 0; idx < pixels; idx++ {

		best := uint8(0)
		bestScore := logits[idx]

		for c := 1; c < planes; c++ {
			if score := logits[c*pixels+idx]; score > bestScore {
				bestScore = score
				best = uint8(c)
			}
		}

		labels[idx] = best
	}

	return labels, nil
}

// ClassMask returns a binary mask of the pixels labeled with the given
// class, 255 for the class and 0 elsewhere
func ClassMask(labelMap []uint8, class uint8) []uint8 {

	mask := make([]uint8, len(labelMap))

	for i, v := range labelMap {
		if v == class {
			mask[i] = 255
		}
	}

	return mask
}

// PixelCount returns the number of pixels labeled with each class id
// present in the label map
func PixelCount(labelMap []uint8) map[uint8]int {

	counts := make(map[uint8]int)

	for _, v := range labelMap {
		counts[v]++
	}

	return counts
}
