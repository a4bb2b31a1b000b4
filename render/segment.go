package render

import (
	"gocv.io/x/gocv"
)

// SegmentMask renders the segmentation label map as a transparent
// overlay on top of the whole image.  labelMap holds one class id per
// pixel in row major order, 0 meaning background which is left
// untouched.
func SegmentMask(img *gocv.Mat, labelMap []uint8, numClasses int, alpha float32) {

	// get dimensions
	width := img.Cols()
	height := img.Rows()

	colors := ClassColors(numClasses + 1)

	// it is too slow to manipulate pixel by pixel using GoCV due to
	// slowness over CGO.  So we copy the bytes from the source image and
	// manipulate the bytes directly before copying back to a Mat
	imgData := img.ToBytes()

	// iterate over each pixel in the segmentation map
	for j := 0; j < height; j++ {
		for k := 0; k < width; k++ {

			idx := j*width + k

			if labelMap[idx] == 0 {
				continue
			}

			clr := colors[int(labelMap[idx])%len(colors)]

			// calculate position in the byte slice
			pixelPos := j*width*3 + k*3

			// get original pixel colors directly from the byte slice
			b, g, r := imgData[pixelPos+0], imgData[pixelPos+1], imgData[pixelPos+2]

			// calculate blended colors based on alpha transparency
			imgData[pixelPos+0] = uint8(float32(b)*(1-alpha) + float32(clr.B)*alpha)
			imgData[pixelPos+1] = uint8(float32(g)*(1-alpha) + float32(clr.G)*alpha)
			imgData[pixelPos+2] = uint8(float32(r)*(1-alpha) + float32(clr.R)*alpha)
		}
	}

	// copy back to the original mat
	tmpImg, _ := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, imgData)
	defer tmpImg.Close()
	tmpImg.CopyTo(img)
}
