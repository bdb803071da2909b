package scanner

import (
	"math"
	"sort"

	"gocv.io/x/gocv"

	"roundcode/internal/code"
	"roundcode/pkg/geometry"
)

// finderPoint is one blob on the orientation ring: its centroid, the
// vector from the candidate center, and the source contour bookkeeping
// used for shard pruning.
type finderPoint struct {
	pos         geometry.Point2D
	delta       geometry.Point2D
	angle       float64
	dist        float64
	contourSize int
}

// angleTolerance is the permitted deviation of each blob gap from the
// finder template, in radians.
const angleTolerance = 0.25

// extractFinderRing finds the components of the orientation ring around
// a candidate ellipse and matches their angular spacings against the
// finder template. On a match it returns the nine ring blobs rotated so
// that index 0 corresponds to bit offset 0 of the template.
func extractFinderRing(cand candidate, mask gocv.Mat) ([]finderPoint, bool) {
	deltas := code.FinderDeltas()

	// Mask off the annulus where the ring must live.
	annulus := gocv.NewMatWithSize(mask.Rows(), mask.Cols(), gocv.MatTypeCV8U)
	defer annulus.Close()

	outer := cand.ellipse.Scaled(code.AnnulusOuterRatio)
	fillEllipse(&annulus, outer, 255)
	fillEllipse(&annulus, outer.Scaled(code.AnnulusInnerRatio), 0)

	region := gocv.NewMat()
	defer region.Close()
	gocv.BitwiseAnd(mask, annulus, &region)

	contours := gocv.FindContours(region, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer contours.Close()

	rows, cols := annulus.Rows(), annulus.Cols()

	var points []finderPoint
	var last geometry.Point2D

	for i := 0; i < contours.Size(); i++ {
		poly := contourPoints(contours.At(i))
		if len(poly) < 2 {
			continue
		}

		centroid, ok := geometry.PolygonMoments(poly).Centroid()
		if !ok {
			centroid = geometry.Centroid(poly)
		}

		// CCOMP reports inner and outer boundaries of the same blob;
		// drop the echo.
		if centroid.Distance(last) < 2 {
			continue
		}

		x, y := int(centroid.X), int(centroid.Y)
		if x <= 0 || y <= 0 || x >= cols || y >= rows {
			continue
		}
		if annulus.GetUCharAt(y, x) == 0 {
			continue
		}
		last = centroid

		delta := centroid.Sub(cand.ellipse.Center)
		points = append(points, finderPoint{
			pos:         centroid,
			delta:       delta,
			angle:       delta.Angle(),
			dist:        delta.Norm(),
			contourSize: len(poly),
		})
	}

	// Discard small shards erroneously picked up: anything much smaller
	// than the 90th-percentile blob is noise.
	if len(points) > 0 {
		sort.Slice(points, func(i, j int) bool {
			return points[i].contourSize < points[j].contourSize
		})

		p90 := points[int(float64(len(points))*0.9)].contourSize
		kept := points[:0]
		for _, fp := range points {
			if fp.contourSize >= p90/5 {
				kept = append(kept, fp)
			}
		}
		points = kept
	}

	// A valid ring has exactly nine blobs.
	if len(points) != code.FinderRunCount {
		return nil, false
	}

	// Clockwise winding (image Y grows down).
	sort.Slice(points, func(i, j int) bool {
		return points[i].angle < points[j].angle
	})

	var gaps [code.FinderRunCount]float64
	for j := range points {
		g := points[(j+1)%len(points)].angle - points[j].angle
		for g < 0 {
			g += 2 * math.Pi
		}
		gaps[j] = g
	}

	offset := matchTemplate(gaps, deltas)
	if offset < 0 {
		return nil, false
	}

	rotated := make([]finderPoint, len(points))
	for j := range points {
		rotated[j] = points[(j+offset)%len(points)]
	}

	return rotated, true
}

// matchTemplate finds the rotational offset at which the measured blob
// gaps agree with the template deltas within the angular tolerance.
// Returns -1 when no offset matches.
func matchTemplate(gaps [code.FinderRunCount]float64, deltas [code.FinderRunCount - 1]float64) int {
	for j := 0; j < len(gaps); j++ {
		found := true
		for k := 0; k < len(deltas); k++ {
			g := gaps[(j+k)%len(gaps)]
			if g < deltas[k]-angleTolerance || g > deltas[k]+angleTolerance {
				found = false
				break
			}
		}
		if found {
			return j
		}
	}
	return -1
}
