// Package scanner locates and decodes round codes in greyscale images.
//
// A scan is a single-shot pipeline: threshold the luminance buffer into
// binary masks, discover candidate center-disk ellipses, verify the
// orientation ring against the finder template, solve a homography from
// the matched ring, and sample the data rings through it. The first
// candidate that survives every stage produces the result.
package scanner

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"roundcode/internal/code"
	"roundcode/pkg/geometry"
)

var (
	// ErrInvalidInput is returned when the buffer, dimensions, or
	// quality setting are malformed. It is the only error that
	// short-circuits a scan.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the pipeline completes without any
	// candidate yielding a payload. It is the normal negative result.
	ErrNotFound = errors.New("round code not found")
)

// Quality selects the resolution cap, sharpening, and adaptive threshold
// block size. The values mirror the device-quality tiers of the wire
// format and are the only ones accepted.
type Quality int

const (
	QualityLow    Quality = 0
	QualityMedium Quality = 3
	QualityHigh   Quality = 8
	QualityBest   Quality = 10
)

// edgeCap returns the maximum long-edge size for the working image.
func (q Quality) edgeCap() int {
	switch q {
	case QualityLow:
		return 240
	case QualityMedium:
		return 320
	case QualityHigh:
		return 480
	default:
		return 960
	}
}

func (q Quality) valid() bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh, QualityBest:
		return true
	}
	return false
}

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	case QualityBest:
		return "best"
	}
	return fmt.Sprintf("quality(%d)", int(q))
}

// Params configures a scan.
type Params struct {
	Quality Quality

	// Timing, when non-nil, receives per-stage durations and counters.
	Timing *Timing
}

// DefaultParams returns the default scan configuration.
func DefaultParams() Params {
	return Params{Quality: QualityHigh}
}

// WithQuality returns a copy of params with the given quality.
func (p Params) WithQuality(q Quality) Params {
	p.Quality = q
	return p
}

// WithTiming returns a copy of params collecting diagnostics into t.
func (p Params) WithTiming(t *Timing) Params {
	p.Timing = t
	return p
}

// Result describes a successfully decoded round code.
type Result struct {
	// Payload is the external 35-byte blob sampled from the data rings.
	Payload [code.BlobLength]byte

	// Center is the center of the detected center disk, in working-image
	// coordinates (the input after any resolution capping).
	Center geometry.Point2D

	// Diameter is the estimated full code diameter in working-image
	// pixels.
	Diameter float64

	// InverseTransform maps scene coordinates back onto the canonical
	// code plane, row-major.
	InverseTransform geometry.Homography
}

// Scan searches a row-major 8-bit luminance buffer for a round code.
// The buffer length must equal width*height. On success the returned
// Result carries the payload and placement; if no code is present the
// error is ErrNotFound.
func Scan(buf []byte, width, height int, params Params) (*Result, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, width, height)
	}
	if len(buf) != width*height {
		return nil, fmt.Errorf("%w: buffer length %d does not match %dx%d",
			ErrInvalidInput, len(buf), width, height)
	}
	if !params.Quality.valid() {
		return nil, fmt.Errorf("%w: unknown quality %d", ErrInvalidInput, int(params.Quality))
	}

	timing := params.Timing
	totalStart := time.Now()
	defer func() {
		if timing != nil {
			timing.Total = time.Since(totalStart)
		}
	}()

	// Build the working image: the caller's luminance buffer, capped to
	// the quality's edge budget.
	gray, err := workingImage(buf, width, height, params.Quality)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	stageStart := time.Now()

	// Sharpen edges so the blobs threshold cleanly. Skipped on low
	// quality tiers where the extra passes cost more than they recover.
	if params.Quality >= QualityHigh {
		unsharpMask(&gray)
		unsharpMask(&gray)
	}
	if timing != nil {
		timing.Sharpen = time.Since(stageStart)
	}

	stageStart = time.Now()
	whitish := lightMask(gray)
	defer whitish.Close()
	if timing != nil {
		timing.Threshold = time.Since(stageStart)
	}

	// The inverted-polarity mask is computed lazily: most frames never
	// need it.
	blackish := gocv.NewMat()
	defer blackish.Close()
	blackishReady := false

	stageStart = time.Now()
	candidates := discoverCandidates(whitish, scalingRate(gray))
	if timing != nil {
		timing.EllipseDiscovery = time.Since(stageStart)
		timing.EllipseCandidates = len(candidates)
	}

	for _, cand := range candidates {
		if timing != nil {
			timing.EllipsesSearched++
		}

		mask := whitish
		if isRegionDark(cand, whitish) {
			if !blackishReady {
				blackishReady = true
				darkMask(gray, params.Quality, &blackish)
			}
			mask = blackish
		}

		stageStart = time.Now()
		ring, ok := extractFinderRing(cand, mask)
		if timing != nil {
			timing.RingExtraction += time.Since(stageStart)
		}
		if !ok {
			continue
		}

		scene := make([]geometry.Point2D, len(ring))
		for i, fp := range ring {
			scene[i] = fp.pos
		}
		object := code.ObjectFinderPoints()

		stageStart = time.Now()
		h, err := estimateHomography(object[:], scene)
		if timing != nil {
			timing.Homography += time.Since(stageStart)
		}
		if err != nil {
			if timing != nil {
				timing.GeometryFailures++
			}
			continue
		}

		inverse, err := h.Inverse()
		if err != nil {
			if timing != nil {
				timing.GeometryFailures++
			}
			continue
		}

		stageStart = time.Now()
		payload := samplePayload(h, mask)
		if timing != nil {
			timing.Sampling = time.Since(stageStart)
		}

		return &Result{
			Payload:          payload,
			Center:           cand.ellipse.Center,
			Diameter:         max(cand.ellipse.Width, cand.ellipse.Height) / code.InnerRingRatio,
			InverseTransform: inverse,
		}, nil
	}

	return nil, ErrNotFound
}

// scalingRate is the factor by which pixel-count thresholds adapt to the
// working image size, relative to the 480-pixel reference edge.
func scalingRate(gray gocv.Mat) float64 {
	return float64(min(gray.Rows(), gray.Cols())) / 480.0
}
