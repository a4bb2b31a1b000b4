// Package preprocess prepares images and annotations for the fixed
// size network input used by the detector.
package preprocess

import (
	"image"

	"gocv.io/x/gocv"
)

// VOCMean is the per channel RGB mean of the VOC training images
var VOCMean = [3]float32{123.68, 116.779, 103.939}

// Resizer defines the struct used for preparing a source image as
// network input: resize to the input size, RGB to BGR channel order
// and per channel mean subtraction.  A Resizer holds scratch Mats and
// is not safe for concurrent use, see Pool.
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// inputSize is the square network input size in pixels
	inputSize int
	// mean is the per channel RGB mean subtracted from the input
	mean [3]float32
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
	// meanMat holds the broadcast mean for subtraction
	meanMat gocv.Mat
}

// NewResizer returns a resizer that scales srcWidth x srcHeight images
// to the given square network input size
func NewResizer(srcWidth, srcHeight, inputSize int, mean [3]float32) *Resizer {

	r := &Resizer{
		srcWidth:  srcWidth,
		srcHeight: srcHeight,
		inputSize: inputSize,
		mean:      mean,
		tempMat:   gocv.NewMat(),
	}

	// mean is given in RGB order but subtracted after the BGR swap
	r.meanMat = gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(mean[2]), float64(mean[1]), float64(mean[0]), 0),
		inputSize, inputSize, gocv.MatTypeCV32FC3)

	return r
}

// Close frees memory allocated during the resize process
func (r *Resizer) Close() error {
	r.meanMat.Close()
	return r.tempMat.Close()
}

// Prepare converts an RGB source image into the float BGR mean
// subtracted Mat fed to the network.  The source aspect is not kept,
// boxes must be carried in normalized coordinates which survive the
// warp unchanged.
func (r *Resizer) Prepare(src gocv.Mat, dest *gocv.Mat) {

	gocv.Resize(src, &r.tempMat, image.Pt(r.inputSize, r.inputSize),
		0, 0, gocv.InterpolationArea)

	// RGB to BGR is the same channel swap as BGR to RGB
	gocv.CvtColor(r.tempMat, &r.tempMat, gocv.ColorBGRToRGB)

	r.tempMat.ConvertTo(dest, gocv.MatTypeCV32FC3)

	gocv.Subtract(*dest, r.meanMat, dest)
}

// InputSize returns the square network input size in pixels
func (r *Resizer) InputSize() int {
	return r.inputSize
}

// NormalizeBoxes converts pixel corner boxes on the source image to the
// normalized [0,1] coordinates used by the anchor coder, in place
func (r *Resizer) NormalizeBoxes(boxes []float32) {

	w := float32(r.srcWidth)
	h := float32(r.srcHeight)

	for i := 0; i < len(boxes)/4; i++ {
		boxes[i*4+0] /= w
		boxes[i*4+1] /= h
		boxes[i*4+2] /= w
		boxes[i*4+3] /= h
	}
}

// DenormalizeBox converts one normalized corner box back to pixel
// coordinates on the source image
func (r *Resizer) DenormalizeBox(xmin, ymin, xmax, ymax float32) image.Rectangle {
	return image.Rect(
		int(xmin*float32(r.srcWidth)),
		int(ymin*float32(r.srcHeight)),
		int(xmax*float32(r.srcWidth)),
		int(ymax*float32(r.srcHeight)),
	)
}
