package multibox

import (
	"fmt"
	"math"
)

// Params defines the configuration of the anchor lattice and the
// box coding transform
type Params struct {
	// Grids is the square feature map size of each level, ordered from
	// the finest resolution to the coarsest
	Grids []int
	// Sizes is the base anchor size per level as a fraction of the image
	// size.  When ExtraSquare is set it must hold one entry more than
	// Grids, the trailing entry being used to derive the linked square
	// variant sqrt(Sizes[k]*Sizes[k+1]) of the last level
	Sizes []float32
	// AspectRatios are the box aspect ratios tiled at every cell.  Each
	// ratio must be greater than 1 and contributes a wide and a tall
	// anchor variant
	AspectRatios []float32
	// ExtraSquare adds the cross level linked square variant
	// sqrt(Sizes[k]*Sizes[k+1]) to every cell
	ExtraSquare bool
	// Variances are the scaling constants of the offset parameterization,
	// the first applied to center offsets and the second to log size
	// ratios.  They keep regression targets roughly unit variance across
	// anchor scales
	Variances [2]float32
	// MatchThreshold is the minimum IoU between an anchor and a ground
	// truth box for the anchor to be labeled foreground outside of the
	// forced best match
	MatchThreshold float32
	// NumClasses is the number of foreground object classes.  Class
	// logits carry NumClasses+1 columns, column 0 being background
	NumClasses int
}

// VOCParams returns an instance of Params configured with the default
// values for a model trained on the PASCAL VOC dataset featuring:
//   - Feature map grids: 38, 19, 10, 5, 3, 2
//   - Anchor sizes: 30, 60, 111, 162, 213, 264, 315 pixels on a
//     300 pixel input
//   - Aspect ratios 2 and 3, each in a wide and tall variant
//   - Offset variances: 0.1 center, 0.2 size
//   - Match threshold: 0.5
//   - Object classes: 20
func VOCParams() Params {
	return Params{
		Grids: []int{38, 19, 10, 5, 3, 2},
		Sizes: []float32{
			30.0 / 300, 60.0 / 300, 111.0 / 300, 162.0 / 300,
			213.0 / 300, 264.0 / 300, 315.0 / 300,
		},
		AspectRatios:   []float32{2, 3},
		ExtraSquare:    true,
		Variances:      [2]float32{0.1, 0.2},
		MatchThreshold: 0.5,
		NumClasses:     20,
	}
}

// Coder holds the anchor lattice and implements the encoding of ground
// truth boxes into training targets and the decoding of network outputs
// into detections.  The lattice is built once at construction and never
// mutated, making all Coder methods safe for concurrent use.
type Coder struct {
	// Params are the coder configuration parameters
	Params Params
	// anchors holds one (cx, cy, w, h) tuple per anchor
	anchors []float32
	// corners caches the anchors in corner form for IoU computation
	corners []float32
	// numAnchors is the lattice size
	numAnchors int
	// scratch pools per-call buffers used during decoding
	scratch *bufferPool
}

// NewCoder validates the given parameters and builds the anchor
// lattice.  Invalid configuration is a construction time error, the
// returned Coder never fails on valid per-sample input afterwards.
func NewCoder(p Params) (*Coder, error) {

	if err := validateParams(p); err != nil {
		return nil, err
	}

	c := &Coder{
		Params: p,
	}

	c.buildLattice()

	c.scratch = newBufferPool()
	c.scratch.create("probs", c.numAnchors*(p.NumClasses+1))
	c.scratch.create("boxes", c.numAnchors*4)

	return c, nil
}

// validateParams checks the lattice configuration for errors that must
// fail fast at construction time
func validateParams(p Params) error {

	if len(p.Grids) == 0 {
		return fmt.Errorf("no feature map grids configured")
	}

	wantSizes := len(p.Grids)
	if p.ExtraSquare {
		wantSizes++
	}

	if len(p.Sizes) != wantSizes {
		return fmt.Errorf("got %d anchor sizes for %d grids, want %d",
			len(p.Sizes), len(p.Grids), wantSizes)
	}

	for i, g := range p.Grids {
		if g <= 0 {
			return fmt.Errorf("grid size at level %d must be positive, got %d", i, g)
		}
	}

	for i, s := range p.Sizes {
		if s <= 0 {
			return fmt.Errorf("anchor size at index %d must be positive, got %f", i, s)
		}
	}

	if len(p.AspectRatios) == 0 {
		return fmt.Errorf("no aspect ratios configured")
	}

	for i, ar := range p.AspectRatios {
		if ar <= 1 {
			return fmt.Errorf("aspect ratio at index %d must be greater than 1, got %f", i, ar)
		}
	}

	if p.Variances[0] <= 0 || p.Variances[1] <= 0 {
		return fmt.Errorf("variances must be positive, got %v", p.Variances)
	}

	if p.MatchThreshold <= 0 || p.MatchThreshold >= 1 {
		return fmt.Errorf("match threshold must be in (0,1), got %f", p.MatchThreshold)
	}

	if p.NumClasses < 1 {
		return fmt.Errorf("number of classes must be at least 1, got %d", p.NumClasses)
	}

	return nil
}

// VariantsPerCell returns the number of anchors tiled at every feature
// map cell
func (c *Coder) VariantsPerCell() int {
	n := 1 + 2*len(c.Params.AspectRatios)
	if c.Params.ExtraSquare {
		n++
	}
	return n
}

// NumAnchors returns the lattice size
func (c *Coder) NumAnchors() int {
	return c.numAnchors
}

// Anchor returns anchor i in center/size form
func (c *Coder) Anchor(i int) (cx, cy, w, h float32) {
	return c.anchors[i*4+0], c.anchors[i*4+1], c.anchors[i*4+2], c.anchors[i*4+3]
}

// AnchorRect returns anchor i in corner form
func (c *Coder) AnchorRect(i int) Rect {
	return Rect{
		XMin: c.corners[i*4+0],
		YMin: c.corners[i*4+1],
		XMax: c.corners[i*4+2],
		YMax: c.corners[i*4+3],
	}
}

// buildLattice tiles the anchors over all configured feature levels.
// Iteration order fixes anchor identity: levels in configured order,
// rows then columns within a level, then within each cell the base
// square, the wide and tall variant of each aspect ratio, and last the
// cross level linked square.  Anchor index position is referenced by
// every per-anchor tensor, so this order must never change.
func (c *Coder) buildLattice() {

	p := c.Params

	cells := 0
	for _, g := range p.Grids {
		cells += g * g
	}

	c.numAnchors = cells * c.VariantsPerCell()
	c.anchors = make([]float32, 0, c.numAnchors*4)

	for level, grid := range p.Grids {

		size := p.Sizes[level]

		// linked size between this level and the next
		var linked float32
		if p.ExtraSquare {
			linked = float32(math.Sqrt(float64(size * p.Sizes[level+1])))
		}

		for row := 0; row < grid; row++ {
			for col := 0; col < grid; col++ {

				cx := (float32(col) + 0.5) / float32(grid)
				cy := (float32(row) + 0.5) / float32(grid)

				c.anchors = append(c.anchors, cx, cy, size, size)

				for _, ar := range p.AspectRatios {
					root := float32(math.Sqrt(float64(ar)))
					c.anchors = append(c.anchors, cx, cy, size*root, size/root)
					c.anchors = append(c.anchors, cx, cy, size/root, size*root)
				}

				if p.ExtraSquare {
					c.anchors = append(c.anchors, cx, cy, linked, linked)
				}
			}
		}
	}

	// cache the corner form used by IoU matching
	c.corners = make([]float32, len(c.anchors))

	for i := 0; i < c.numAnchors; i++ {
		r := centerToCorner(c.anchors[i*4+0], c.anchors[i*4+1],
			c.anchors[i*4+2], c.anchors[i*4+3])
		c.corners[i*4+0] = r.XMin
		c.corners[i*4+1] = r.YMin
		c.corners[i*4+2] = r.XMax
		c.corners[i*4+3] = r.YMax
	}
}
