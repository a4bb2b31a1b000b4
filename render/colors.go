// Package render draws decoded detections and segmentation maps onto
// images for visual inspection.
package render

import (
	"image/color"
	"math"
)

var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
)

// ClassColors returns a stable color per class id for n classes.
// Colors are spread over a base-n cube so neighbouring class ids get
// visually distinct colors.
func ClassColors(n int) []color.RGBA {

	colors := make([]color.RGBA, n)

	for id := range colors {
		colors[id] = classColor(id, n)
	}

	return colors
}

// classColor derives the color of one class id from its position in a
// cube of side ceil(n^(1/3))
func classColor(id, n int) color.RGBA {

	base := int(math.Ceil(math.Pow(float64(n), 1.0/3)))
	base2 := base * base

	b := 2 - float64(id)/float64(base2)
	r := 2 - float64(id%base2)/float64(base)
	g := 2 - float64((id%base2)%base)

	return color.RGBA{
		R: uint8(clampColor(r * 127)),
		G: uint8(clampColor(g * 127)),
		B: uint8(clampColor(b * 127)),
		A: 255,
	}
}

// clampColor restricts a color channel to the displayable range
func clampColor(v float64) float64 {

	if v < 0 {
		return 0
	}

	if v > 255 {
		return 255
	}

	return v
}
