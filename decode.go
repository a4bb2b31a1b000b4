package multibox

import (
	"fmt"
	"math"
	"sort"
)

// Detection is a single decoded object
type Detection struct {
	// Box is the object location in corner form, clamped to [0,1]
	Box Rect
	// Class is the object class in the range 1..NumClasses
	Class int
	// Score is the softmax confidence of the detection in [0,1]
	Score float32
}

// Decode reconstructs the final detection list for one image from the
// raw per-anchor network outputs.
//
// loc holds 4 predicted offsets per anchor and logits NumClasses+1
// unnormalized class scores per anchor, column 0 being background.
// Offsets are inverted with the same variance constants used by Encode,
// logits are turned into probabilities with a softmax over all columns,
// and each foreground class is then filtered and suppressed
// independently: anchors scoring above confThresh are sorted by
// descending score and greedily kept, suppressing any remaining
// candidate whose IoU with a kept box exceeds nmsThresh.
//
// The same anchor may surface under several classes when it clears
// confThresh for more than one of them, classes are not mutually
// exclusive before suppression.  When nothing clears confThresh the
// result is empty, not an error.
func (c *Coder) Decode(loc, logits []float32, nmsThresh, confThresh float32) ([]Detection, error) {

	if len(loc) != c.numAnchors*4 {
		return nil, fmt.Errorf("got %d location values, want %d",
			len(loc), c.numAnchors*4)
	}

	cols := c.Params.NumClasses + 1

	if len(logits) != c.numAnchors*cols {
		return nil, fmt.Errorf("got %d class logits, want %d",
			len(logits), c.numAnchors*cols)
	}

	probs := c.scratch.get("probs", c.numAnchors*cols)
	defer c.scratch.put("probs", probs)

	c.softmax(logits, probs)

	// decoded caches the absolute box of each anchor so anchors that
	// surface under several classes are only inverted once
	decoded := c.scratch.get("boxes", c.numAnchors*4)
	defer c.scratch.put("boxes", decoded)

	haveBox := make([]bool, c.numAnchors)

	group := make([]Detection, 0)

	for class := 1; class < cols; class++ {

		// collect candidate anchors for this class
		candidates := make([]int, 0)

		for i := 0; i < c.numAnchors; i++ {
			if probs[i*cols+class] > confThresh {
				candidates = append(candidates, i)
			}
		}

		if len(candidates) == 0 {
			continue
		}

		// highest score first, ties to the lowest anchor index for
		// reproducible suppression order
		sort.SliceStable(candidates, func(a, b int) bool {
			return probs[candidates[a]*cols+class] > probs[candidates[b]*cols+class]
		})

		for _, i := range candidates {
			if !haveBox[i] {
				r := c.decodeDelta(loc[i*4:i*4+4], i)
				decoded[i*4+0] = r.XMin
				decoded[i*4+1] = r.YMin
				decoded[i*4+2] = r.XMax
				decoded[i*4+3] = r.YMax
				haveBox[i] = true
			}
		}

		group = append(group, c.suppress(candidates, decoded, probs, class, nmsThresh)...)
	}

	return group, nil
}

// suppress runs greedy non-maximum suppression over the score ordered
// candidate anchors of one class and returns the surviving detections
func (c *Coder) suppress(candidates []int, decoded, probs []float32,
	class int, nmsThresh float32) []Detection {

	cols := c.Params.NumClasses + 1
	keep := make([]Detection, 0, len(candidates))

	for pos, i := range candidates {

		if i == -1 {
			continue
		}

		box := Rect{
			XMin: decoded[i*4+0],
			YMin: decoded[i*4+1],
			XMax: decoded[i*4+2],
			YMax: decoded[i*4+3],
		}

		// a box clamping to zero area is never surfaced, so it must not
		// suppress its neighbours either
		clamped := box.Clamp()

		if clamped.Width() <= 0 || clamped.Height() <= 0 {
			continue
		}

		// suppress every remaining candidate overlapping the kept box
		for pos2 := pos + 1; pos2 < len(candidates); pos2++ {

			m := candidates[pos2]
			if m == -1 {
				continue
			}

			other := Rect{
				XMin: decoded[m*4+0],
				YMin: decoded[m*4+1],
				XMax: decoded[m*4+2],
				YMax: decoded[m*4+3],
			}

			if box.IoU(other) > nmsThresh {
				candidates[pos2] = -1
			}
		}

		keep = append(keep, Detection{
			Box:   clamped,
			Class: class,
			Score: probs[i*cols+class],
		})
	}

	return keep
}

// softmax converts the per-anchor class logits into probabilities
// across the NumClasses+1 columns of each anchor
func (c *Coder) softmax(logits, probs []float32) {

	cols := c.Params.NumClasses + 1

	for i := 0; i < c.numAnchors; i++ {

		row := logits[i*cols : (i+1)*cols]
		out := probs[i*cols : (i+1)*cols]

		max := row[0]
		for _, v := range row[1:] {
			if v > max {
				max = v
			}
		}

		var sum float32
		for k, v := range row {
			e := float32(math.Exp(float64(v - max)))
			out[k] = e
			sum += e
		}

		for k := range out {
			out[k] /= sum
		}
	}
}
