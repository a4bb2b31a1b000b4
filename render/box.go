package render

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	multibox "github.com/vocdet/go-multibox"
)

// boxLabel defines where a detection label should be rendered on the
// source image
type boxLabel struct {
	rect    image.Rectangle
	clr     int
	text    string
	textPos image.Point
}

// DetectionBoxes renders the bounding boxes of the decoded detections
// onto the image.  Detections carry normalized coordinates and are
// scaled to the image dimensions; classNames is indexed by class id
// with the background name at index 0.
func DetectionBoxes(img *gocv.Mat, detections []multibox.Detection,
	classNames []string, font Font, lineThickness int) {

	width := float32(img.Cols())
	height := float32(img.Rows())

	colors := ClassColors(len(classNames))

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	// draw detection boxes
	for _, det := range detections {

		useClr := colors[det.Class%len(colors)]

		rect := image.Rect(
			int(det.Box.XMin*width), int(det.Box.YMin*height),
			int(det.Box.XMax*width), int(det.Box.YMax*height))

		gocv.Rectangle(img, rect, useClr, lineThickness)

		// create text for label
		text := fmt.Sprintf("%s %.2f", classNames[det.Class], det.Score)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		centerX := rect.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)

		// place the text centered on a filled box above the detection
		labelPosition := image.Pt(centerX-textSize.X/2, rect.Min.Y-font.BottomPad)

		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			rect.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, rect.Min.Y)

		boxLabels = append(boxLabels, boxLabel{
			rect:    bRect,
			clr:     det.Class % len(colors),
			text:    text,
			textPos: labelPosition,
		})
	}

	// draw all precalculated box labels last so they stay the top most
	// layer and don't get overlapped by neighbouring boxes
	for _, box := range boxLabels {
		gocv.Rectangle(img, box.rect, colors[box.clr], -1)

		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
