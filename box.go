package multibox

import (
	"math"
)

// Rect is a bounding box in corner form.  Coordinates are normalized
// image coordinates in the range [0,1] unless stated otherwise.
type Rect struct {
	XMin float32
	YMin float32
	XMax float32
	YMax float32
}

// Width returns the width of the rectangle
func (r Rect) Width() float32 {
	return r.XMax - r.XMin
}

// Height returns the height of the rectangle
func (r Rect) Height() float32 {
	return r.YMax - r.YMin
}

// Area returns the area of the rectangle, zero for degenerate boxes
func (r Rect) Area() float32 {
	w := r.Width()
	h := r.Height()

	if w <= 0 || h <= 0 {
		return 0
	}

	return w * h
}

// IoU calculates the Intersection over Union with another rectangle.
// The result is always in the range [0,1].
func (r Rect) IoU(other Rect) float32 {

	iw := minF32(r.XMax, other.XMax) - maxF32(r.XMin, other.XMin)

	if iw <= 0 {
		return 0
	}

	ih := minF32(r.YMax, other.YMax) - maxF32(r.YMin, other.YMin)

	if ih <= 0 {
		return 0
	}

	intersection := iw * ih
	union := r.Area() + other.Area() - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}

// Clamp restricts the rectangle corners to the range [0,1]
func (r Rect) Clamp() Rect {
	return Rect{
		XMin: clampF32(r.XMin, 0, 1),
		YMin: clampF32(r.YMin, 0, 1),
		XMax: clampF32(r.XMax, 0, 1),
		YMax: clampF32(r.YMax, 0, 1),
	}
}

// cornerToCenter converts a corner form box to center/size form
// (cx, cy, w, h)
func cornerToCenter(r Rect) (cx, cy, w, h float32) {
	w = r.XMax - r.XMin
	h = r.YMax - r.YMin
	cx = r.XMin + w*0.5
	cy = r.YMin + h*0.5
	return
}

// centerToCorner converts a center/size form box to corner form
func centerToCorner(cx, cy, w, h float32) Rect {
	return Rect{
		XMin: cx - w*0.5,
		YMin: cy - h*0.5,
		XMax: cx + w*0.5,
		YMax: cy + h*0.5,
	}
}

// minF32 returns the minimum of two values
func minF32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// maxF32 returns the maximum of two values
func maxF32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// clampF32 restricts the value to be within the range min and max
func clampF32(val, min, max float32) float32 {

	if val < min {
		return min
	}

	if val > max {
		return max
	}

	return val
}

// expF32 is a float32 convenience wrapper over math.Exp
func expF32(x float32) float32 {
	return float32(math.Exp(float64(x)))
}

// logF32 is a float32 convenience wrapper over math.Log
func logF32(x float32) float32 {
	return float32(math.Log(float64(x)))
}
