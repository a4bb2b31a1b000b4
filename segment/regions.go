package segment

import (
	"image"
	"math"

	clipper "github.com/ctessum/go.clipper"
	"gocv.io/x/gocv"
)

// Region is a connected area of one class extracted from a label map
type Region struct {
	// Polygon is the simplified outline of the region
	Polygon []image.Point
	// Box is the axis aligned bounding rectangle of the polygon
	Box image.Rectangle
	// Area is the polygon area in pixels
	Area float32
}

// RegionParams defines the region extraction parameters
type RegionParams struct {
	// MinSize drops regions whose bounding rectangle is smaller than
	// MinSize pixels on both axes
	MinSize int
	// UnclipRatio expands every polygon outward proportionally to its
	// area over perimeter, recovering ground the argmax boundary eats
	// off thin structures.  1.0 leaves polygons untouched
	UnclipRatio float32
	// MaxRegions caps the number of regions returned
	MaxRegions int
}

// DefaultRegionParams returns region extraction defaults: regions of at
// least 3 pixels, a 1.5 unclip ratio and at most 1000 regions
func DefaultRegionParams() RegionParams {
	return RegionParams{
		MinSize:     3,
		UnclipRatio: 1.5,
		MaxRegions:  1000,
	}
}

// ExtractRegions finds the connected areas labeled with the given class
// and returns them as expanded polygon regions.  The mask is consumed
// as a width x height binary image in row major order, as produced by
// ClassMask.
func ExtractRegions(labelMap []uint8, width, height int, class uint8,
	p RegionParams) ([]Region, error) {

	mask := ClassMask(labelMap, class)

	maskMat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, mask)

	if err != nil {
		return nil, err
	}

	defer maskMat.Close()

	contours := gocv.FindContours(maskMat, gocv.RetrievalExternal,
		gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]Region, 0)

	for i := 0; i < contours.Size(); i++ {

		if len(regions) >= p.MaxRegions {
			break
		}

		contour := contours.At(i)

		if contour.Size() < 3 {
			continue
		}

		// simplify the pixel contour to a polygon
		epsilon := 0.002 * gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, epsilon, true)
		points := approx.ToPoints()
		approx.Close()

		if len(points) < 3 {
			continue
		}

		if p.UnclipRatio > 1 {
			points = unclip(points, p.UnclipRatio)

			if len(points) < 3 {
				continue
			}
		}

		box := boundingRect(points)

		if box.Dx() < p.MinSize && box.Dy() < p.MinSize {
			continue
		}

		regions = append(regions, Region{
			Polygon: points,
			Box:     box,
			Area:    polygonArea(points),
		})
	}

	return regions, nil
}

// unclip expands the polygon outward by a distance derived from its
// area, perimeter and the unclip ratio
func unclip(points []image.Point, ratio float32) []image.Point {

	distance := unclipDistance(points, ratio)

	if distance <= 0 {
		return points
	}

	var path clipper.Path

	for _, pt := range points {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(pt.X),
			Y: clipper.CInt(pt.Y),
		})
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	solution := co.Execute(float64(distance))

	out := make([]image.Point, 0)

	for _, sol := range solution {
		for _, pt := range sol {
			out = append(out, image.Point{X: int(pt.X), Y: int(pt.Y)})
		}
	}

	return out
}

// unclipDistance derives the offset distance from the polygon area and
// perimeter: area * (ratio - 1) / perimeter
func unclipDistance(points []image.Point, ratio float32) float32 {

	n := len(points)

	var area, perimeter float64

	for i := 0; i < n; i++ {

		a := points[i]
		b := points[(i+1)%n]

		area += float64(a.X*b.Y - a.Y*b.X)

		dx := float64(a.X - b.X)
		dy := float64(a.Y - b.Y)
		perimeter += math.Sqrt(dx*dx + dy*dy)
	}

	area = math.Abs(area / 2)

	if perimeter == 0 {
		return 0
	}

	return float32(area * float64(ratio-1) / perimeter)
}

// polygonArea returns the shoelace area of the polygon
func polygonArea(points []image.Point) float32 {

	n := len(points)

	var area float64

	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		area += float64(a.X*b.Y - a.Y*b.X)
	}

	return float32(math.Abs(area / 2))
}

// boundingRect returns the axis aligned bounding rectangle of the
// polygon
func boundingRect(points []image.Point) image.Rectangle {

	r := image.Rectangle{Min: points[0], Max: points[0]}

	for _, pt := range points[1:] {
		if pt.X < r.Min.X {
			r.Min.X = pt.X
		}
		if pt.Y < r.Min.Y {
			r.Min.Y = pt.Y
		}
		if pt.X > r.Max.X {
			r.Max.X = pt.X
		}
		if pt.Y > r.Max.Y {
			r.Max.Y = pt.Y
		}
	}

	// rectangle max is exclusive
	r.Max.X++
	r.Max.Y++

	return r
}
