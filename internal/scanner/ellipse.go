package scanner

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"roundcode/pkg/geometry"
)

// candidate is a potential center disk: the fitted ellipse and the
// boundary-pruned contour that produced it.
type candidate struct {
	ellipse geometry.Ellipse
	contour []geometry.Point2D
}

// Shape gates for the first contour pass. A center disk must be large,
// round, convex, and not too squished.
const (
	minEllipseCircularity = 0.75
	minEllipseConvexity   = 0.9
	minEllipseInertia     = 0.5
)

// discoverCandidates finds candidate center-disk ellipses in the light
// mask with a two-pass contour analysis: coarse shape gating and ellipse
// fitting first, then a re-fit restricted to contour points that lie on
// the fitted outlines. Survivors are deduplicated.
func discoverCandidates(whitish gocv.Mat, scaling float64) []candidate {
	minContourLen := int(22 * scaling)
	minArea := 220 * scaling
	edgeTolerance := int(5 * scaling)
	if edgeTolerance < 1 {
		edgeTolerance = 1
	}

	// FindContours mutates its input, so work on a clone and keep the
	// mask pristine for the later AND.
	work := whitish.Clone()
	defer work.Close()

	contours := gocv.FindContours(work, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer contours.Close()

	boundaries := gocv.NewMatWithSize(whitish.Rows(), whitish.Cols(), gocv.MatTypeCV8U)
	defer boundaries.Close()

	var firstPass [][]geometry.Point2D

	for i := 0; i < contours.Size(); i++ {
		poly := contourPoints(contours.At(i))
		if len(poly) <= minContourLen {
			continue
		}

		m := geometry.PolygonMoments(poly)
		area := m.M00
		if area < minArea {
			continue
		}

		perimeter := geometry.ArcLength(poly, true)
		circularity := 4 * math.Pi * area / (perimeter * perimeter)
		if circularity < minEllipseCircularity {
			continue
		}

		hull := geometry.ConvexHull(poly)
		hullArea := geometry.PolygonArea(hull)
		if hullArea == 0 {
			continue
		}
		if area/hullArea < minEllipseConvexity {
			continue
		}

		if inertiaRatio(m) < minEllipseInertia {
			continue
		}

		e, err := fitEllipse(poly)
		if err != nil {
			continue
		}
		e = e.Shrunk(2)

		firstPass = append(firstPass, poly)

		// Paint the fitted outline so the second pass can discard edges
		// that do not directly contribute to the disk (tails, specular
		// streaks touching the rim).
		drawEllipse(&boundaries, e, edgeTolerance)
	}

	if len(firstPass) == 0 {
		return nil
	}

	nearEllipses := gocv.NewMat()
	defer nearEllipses.Close()
	gocv.BitwiseAnd(whitish, boundaries, &nearEllipses)

	rows, cols := nearEllipses.Rows(), nearEllipses.Cols()

	var potential []candidate
	for _, poly := range firstPass {
		var pruned []geometry.Point2D
		for _, p := range poly {
			x, y := int(p.X), int(p.Y)
			if x < 0 || y < 0 || x >= cols || y >= rows {
				continue
			}
			if nearEllipses.GetUCharAt(y, x) != 0 {
				pruned = append(pruned, p)
			}
		}

		// An ellipse fit needs five reference points at a minimum.
		if len(pruned) <= 5 {
			continue
		}
		e, err := fitEllipse(pruned)
		if err != nil {
			continue
		}
		potential = append(potential, candidate{ellipse: e, contour: pruned})
	}

	// The code aesthetic produces nested near-duplicates; keep the later
	// (outer) of any close pair.
	var out []candidate
	for i := range potential {
		allowed := true
		for j := i + 1; j < len(potential); j++ {
			dist := potential[i].ellipse.Center.Distance(potential[j].ellipse.Center)
			if dist < 50 && 2*potential[i].ellipse.BoxArea() > potential[j].ellipse.BoxArea() {
				allowed = false
				break
			}
		}
		if allowed {
			out = append(out, potential[i])
		}
	}

	return out
}

// inertiaRatio computes the ratio of the minimum to maximum moment of
// inertia from the second central moments. Near-degenerate contours
// count as fully round.
func inertiaRatio(m geometry.Moments) float64 {
	denominator := math.Hypot(2*m.Mu11, m.Mu20-m.Mu02)
	const eps = 1e-2
	if denominator <= eps {
		return 1
	}

	cosmin := (m.Mu20 - m.Mu02) / denominator
	sinmin := 2 * m.Mu11 / denominator

	imin := 0.5*(m.Mu20+m.Mu02) - 0.5*(m.Mu20-m.Mu02)*cosmin - m.Mu11*sinmin
	imax := 0.5*(m.Mu20+m.Mu02) + 0.5*(m.Mu20-m.Mu02)*cosmin + m.Mu11*sinmin
	if imax == 0 {
		return 1
	}

	return imin / imax
}

// isRegionDark reports whether the area just inside the candidate's
// contour is dark in the light mask, i.e. the code is printed with
// inverted polarity.
func isRegionDark(cand candidate, whitish gocv.Mat) bool {
	if len(cand.contour) == 0 {
		return false
	}

	rows, cols := whitish.Rows(), whitish.Cols()
	center := cand.ellipse.Center
	dark := 0

	for _, p := range cand.contour {
		x := int(0.9*(p.X-center.X) + center.X)
		y := int(0.9*(p.Y-center.Y) + center.Y)
		if x < 0 || y < 0 || x >= cols || y >= rows {
			continue
		}
		if whitish.GetUCharAt(y, x) == 0 {
			dark++
		}
	}

	return float64(dark) > 0.8*float64(len(cand.contour))
}

// drawEllipse rasterizes an ellipse outline (or, with thickness -1, a
// filled ellipse) into a single-channel mask.
func drawEllipse(dst *gocv.Mat, e geometry.Ellipse, thickness int) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.Ellipse(dst,
		image.Pt(int(math.Round(e.Center.X)), int(math.Round(e.Center.Y))),
		image.Pt(int(math.Round(e.Width/2)), int(math.Round(e.Height/2))),
		e.Angle*180/math.Pi, 0, 360, white, thickness)
}

// fillEllipse rasterizes a filled ellipse with the given mask value.
func fillEllipse(dst *gocv.Mat, e geometry.Ellipse, value uint8) {
	c := color.RGBA{R: value, G: value, B: value, A: 255}
	gocv.Ellipse(dst,
		image.Pt(int(math.Round(e.Center.X)), int(math.Round(e.Center.Y))),
		image.Pt(int(math.Round(e.Width/2)), int(math.Round(e.Height/2))),
		e.Angle*180/math.Pi, 0, 360, c, -1)
}

// contourPoints converts a gocv contour to geometry points.
func contourPoints(pv gocv.PointVector) []geometry.Point2D {
	pts := make([]geometry.Point2D, pv.Size())
	for i := range pts {
		p := pv.At(i)
		pts[i] = geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
	}
	return pts
}
