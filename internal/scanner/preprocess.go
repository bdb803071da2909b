package scanner

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// workingImage wraps the caller's luminance buffer in a Mat and caps the
// longer edge to the quality's pixel budget with an area-averaging
// downscale. Smaller images pass through untouched.
func workingImage(buf []byte, width, height int, q Quality) (gocv.Mat, error) {
	gray, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8U, buf)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("wrapping luminance buffer: %w", err)
	}

	maxEdge := max(width, height)
	budget := q.edgeCap()
	if maxEdge <= budget {
		return gray, nil
	}

	scale := float64(budget) / float64(maxEdge)
	sized := gocv.NewMat()
	gocv.Resize(gray, &sized,
		image.Pt(int(scale*float64(width)), int(scale*float64(height))),
		0, 0, gocv.InterpolationArea)
	gray.Close()

	return sized, nil
}

// unsharpMask sharpens the image in place: 1.5*src - 0.5*blur with a
// sigma-2 Gaussian.
func unsharpMask(m *gocv.Mat) {
	blur := gocv.NewMat()
	defer blur.Close()

	gocv.GaussianBlur(*m, &blur, image.Pt(0, 0), 2, 2, gocv.BorderDefault)
	gocv.AddWeighted(*m, 1.5, blur, -0.5, 0, m)
}

// lightMask thresholds the image into the standard-polarity binary mask:
// pixels at or above 170 become 255.
func lightMask(gray gocv.Mat) gocv.Mat {
	mask := gocv.NewMat()
	gocv.Threshold(gray, &mask, 170, 255, gocv.ThresholdBinary)
	return mask
}

// darkMask builds the inverted-polarity mask with an adaptive mean
// threshold. The block width narrows on the low quality tiers where the
// working image is smaller.
func darkMask(gray gocv.Mat, q Quality, dst *gocv.Mat) {
	block := 19
	if q < QualityHigh {
		block = 13
	}
	gocv.AdaptiveThreshold(gray, dst, 255, gocv.AdaptiveThresholdMean,
		gocv.ThresholdBinaryInv, block, 5)
}
