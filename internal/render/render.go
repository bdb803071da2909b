// Package render paints round codes into greyscale images using the
// canonical format geometry. It exists for the encoder side of the
// format and to generate known-good scenes for the scanner tests.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"roundcode/internal/code"
	"roundcode/pkg/geometry"
)

// Mark radii in canonical units. Finder dots are wide enough that the
// dots of one bit run fuse into a single blob while runs separated by a
// zero bit stay apart; data dots stay clear of their radial neighbours.
const (
	finderMarkRadius = 11.0
	dataMarkRadius   = 6.7
)

// Pixel values for the two polarities. The light value clears the fixed
// 170 threshold, the dark one sits well under it.
const (
	lightValue = 235
	darkValue  = 25
)

// Options places a code on the canvas.
type Options struct {
	// Size is the square canvas edge in pixels.
	Size int

	// Center is the code center; the zero value centers the code on the
	// canvas.
	Center geometry.Point2D

	// Diameter is the full code diameter in pixels; zero picks 80% of
	// the canvas edge.
	Diameter float64

	// Rotation turns the code around its center, in radians.
	Rotation float64

	// Inverted renders dark marks on a light background instead of the
	// standard light-on-dark scheme.
	Inverted bool
}

// DefaultOptions returns a centered code on a 480-pixel canvas.
func DefaultOptions() Options {
	return Options{Size: 480}
}

// WithSize returns a copy of the options with the given canvas edge.
func (o Options) WithSize(size int) Options {
	o.Size = size
	return o
}

// WithCenter returns a copy of the options with the given code center.
func (o Options) WithCenter(center geometry.Point2D) Options {
	o.Center = center
	return o
}

// WithDiameter returns a copy of the options with the given diameter.
func (o Options) WithDiameter(diameter float64) Options {
	o.Diameter = diameter
	return o
}

// WithRotation returns a copy of the options rotated by radians.
func (o Options) WithRotation(radians float64) Options {
	o.Rotation = radians
	return o
}

// WithInverted returns a copy of the options with inverted polarity.
func (o Options) WithInverted(inverted bool) Options {
	o.Inverted = inverted
	return o
}

// Render paints the external blob as a round code and returns the
// greyscale canvas. The caller owns the Mat.
func Render(blob []byte, opts Options) (gocv.Mat, error) {
	if err := code.ValidateBlob(blob); err != nil {
		return gocv.Mat{}, fmt.Errorf("rendering blob: %w", err)
	}
	if opts.Size <= 0 {
		return gocv.Mat{}, fmt.Errorf("rendering blob: canvas size %d", opts.Size)
	}

	center := opts.Center
	if center == (geometry.Point2D{}) {
		center = geometry.Point2D{X: float64(opts.Size) / 2, Y: float64(opts.Size) / 2}
	}
	diameter := opts.Diameter
	if diameter == 0 {
		diameter = 0.8 * float64(opts.Size)
	}

	fg, bg := uint8(lightValue), uint8(darkValue)
	if opts.Inverted {
		fg, bg = bg, fg
	}

	canvas := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(bg), 0, 0, 0),
		opts.Size, opts.Size, gocv.MatTypeCV8U)

	scale := diameter / code.CodeDiameter
	place := placement{center: center, scale: scale, rotation: opts.Rotation}

	// Center disk.
	stampCircle(&canvas, center, code.InnerDiskRadius*scale, fg)

	// Finder ring: one dot per set bit; consecutive set bits fuse into
	// the orientation blobs.
	for i := 0; i < 32; i++ {
		if !code.Bit(code.FinderBytes[:], i) {
			continue
		}
		angle := float64(i)*code.AngularQuantum - math.Pi/2
		p := place.apply(geometry.Point2D{
			X: code.FinderRadius*math.Cos(angle) + code.CenterX,
			Y: code.FinderRadius*math.Sin(angle) + code.CenterY,
		})
		stampCircle(&canvas, p, finderMarkRadius*scale, fg)
	}

	// Data rings: the blob's bits in grid order.
	grid := code.SampleGrid()
	for j, gp := range grid {
		if !code.Bit(blob, j) {
			continue
		}
		stampCircle(&canvas, place.apply(gp), dataMarkRadius*scale, fg)
	}

	return canvas, nil
}

// RenderGray renders the blob and returns the canvas as a row-major
// luminance buffer with its dimensions.
func RenderGray(blob []byte, opts Options) ([]byte, int, int, error) {
	canvas, err := Render(blob, opts)
	if err != nil {
		return nil, 0, 0, err
	}
	defer canvas.Close()

	return canvas.ToBytes(), canvas.Cols(), canvas.Rows(), nil
}

// placement is the similarity from the canonical code plane to the
// scene: rotate about the canonical center, scale, translate.
type placement struct {
	center   geometry.Point2D
	scale    float64
	rotation float64
}

func (pl placement) apply(p geometry.Point2D) geometry.Point2D {
	x := p.X - code.CenterX
	y := p.Y - code.CenterY

	sin, cos := math.Sincos(pl.rotation)
	return geometry.Point2D{
		X: pl.center.X + pl.scale*(x*cos-y*sin),
		Y: pl.center.Y + pl.scale*(x*sin+y*cos),
	}
}

// stampCircle paints a filled circle onto the single-channel canvas.
func stampCircle(canvas *gocv.Mat, center geometry.Point2D, radius float64, value uint8) {
	r := int(math.Round(radius))
	if r < 1 {
		r = 1
	}
	gocv.Circle(canvas,
		image.Pt(int(math.Round(center.X)), int(math.Round(center.Y))),
		r, color.RGBA{R: value, G: value, B: value, A: 255}, -1)
}
