package multibox

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Encode matches the given ground truth boxes against the anchor
// lattice and produces the per-anchor training targets for one image.
//
// boxes holds one corner form (xmin, ymin, xmax, ymax) tuple per ground
// truth object in the same coordinate convention as the anchors, and
// labels the matching object classes in the range 1..NumClasses.
//
// The returned loc slice holds a 4 value offset target per anchor and
// cls the per-anchor class, 0 meaning background.  Every ground truth
// box is first force-matched to its best IoU anchor not claimed by an
// earlier ground truth so that no object goes unrepresented, then every
// remaining anchor is labeled with the ground truth it overlaps most if
// that IoU exceeds MatchThreshold.
//
// An empty ground truth set is valid and yields all background targets.
// Boxes with non-positive width or height are silently dropped.
func (c *Coder) Encode(boxes []float32, labels []int) (loc []float32, cls []int, err error) {

	if len(boxes) != len(labels)*4 {
		return nil, nil, fmt.Errorf("got %d box values for %d labels, want %d",
			len(boxes), len(labels), len(labels)*4)
	}

	for i, label := range labels {
		if label < 1 || label > c.Params.NumClasses {
			return nil, nil, fmt.Errorf("class label %d at index %d out of range 1..%d",
				label, i, c.Params.NumClasses)
		}
	}

	loc = make([]float32, c.numAnchors*4)
	cls = make([]int, c.numAnchors)

	gt, gtLabels := dropDegenerate(boxes, labels)

	if len(gt) == 0 {
		// background only image
		return loc, cls, nil
	}

	iou := c.iouMatrix(gt)

	// assigned maps anchor index to the matched ground truth index,
	// -1 meaning background
	assigned := make([]int, c.numAnchors)
	for i := range assigned {
		assigned[i] = -1
	}

	// forced match pass: every ground truth claims its best IoU anchor
	// among the anchors no earlier ground truth has claimed, so two
	// objects sharing a best anchor still end up with one forced anchor
	// each.  Ground truths are visited in index order, ties on IoU go to
	// the lowest anchor index.
	forced := make([]bool, c.numAnchors)

	for j := range gt {

		best := -1
		bestIoU := float64(-1)

		for i := 0; i < c.numAnchors; i++ {

			if forced[i] {
				continue
			}

			if v := iou.At(i, j); v > bestIoU {
				bestIoU = v
				best = i
			}
		}

		// more ground truths than anchors
		if best == -1 {
			break
		}

		forced[best] = true
		assigned[best] = j
	}

	// threshold pass: remaining anchors take their best overlapping
	// ground truth when the IoU clears the matching threshold
	thresh := float64(c.Params.MatchThreshold)

	for i := 0; i < c.numAnchors; i++ {

		if forced[i] {
			continue
		}

		best := 0
		bestIoU := iou.At(i, 0)

		for j := 1; j < len(gt); j++ {
			if v := iou.At(i, j); v > bestIoU {
				bestIoU = v
				best = j
			}
		}

		if bestIoU > thresh {
			assigned[i] = best
		}
	}

	// encode the offset targets of every foreground anchor
	for i := 0; i < c.numAnchors; i++ {

		j := assigned[i]
		if j == -1 {
			continue
		}

		cls[i] = gtLabels[j]
		c.encodeDelta(loc[i*4:i*4+4], gt[j], i)
	}

	return loc, cls, nil
}

// encodeDelta writes the variance scaled offset between a ground truth
// box and anchor i into dst: center offsets normalized by the anchor
// size and width/height ratios in log space
func (c *Coder) encodeDelta(dst []float32, gt Rect, i int) {

	gcx, gcy, gw, gh := cornerToCenter(gt)
	acx, acy, aw, ah := c.Anchor(i)

	dst[0] = (gcx - acx) / (aw * c.Params.Variances[0])
	dst[1] = (gcy - acy) / (ah * c.Params.Variances[0])
	dst[2] = logF32(gw/aw) / c.Params.Variances[1]
	dst[3] = logF32(gh/ah) / c.Params.Variances[1]
}

// decodeDelta is the exact algebraic inverse of encodeDelta, producing
// the absolute corner form box predicted by the 4 offsets in src
// relative to anchor i
func (c *Coder) decodeDelta(src []float32, i int) Rect {

	acx, acy, aw, ah := c.Anchor(i)

	cx := src[0]*c.Params.Variances[0]*aw + acx
	cy := src[1]*c.Params.Variances[0]*ah + acy
	w := expF32(src[2]*c.Params.Variances[1]) * aw
	h := expF32(src[3]*c.Params.Variances[1]) * ah

	return centerToCorner(cx, cy, w, h)
}

// iouMatrix computes the full numAnchors x len(gt) IoU matrix between
// the anchor lattice and the ground truth set
func (c *Coder) iouMatrix(gt []Rect) *mat.Dense {

	m := mat.NewDense(c.numAnchors, len(gt), nil)

	for i := 0; i < c.numAnchors; i++ {

		a := c.AnchorRect(i)

		for j, g := range gt {
			m.Set(i, j, float64(a.IoU(g)))
		}
	}

	return m
}

// dropDegenerate converts the flat ground truth array to rects,
// silently dropping boxes with non-positive width or height
func dropDegenerate(boxes []float32, labels []int) ([]Rect, []int) {

	gt := make([]Rect, 0, len(labels))
	gtLabels := make([]int, 0, len(labels))

	for j := range labels {

		r := Rect{
			XMin: boxes[j*4+0],
			YMin: boxes[j*4+1],
			XMax: boxes[j*4+2],
			YMax: boxes[j*4+3],
		}

		if r.Width() <= 0 || r.Height() <= 0 {
			continue
		}

		gt = append(gt, r)
		gtLabels = append(gtLabels, labels[j])
	}

	return gt, gtLabels
}
