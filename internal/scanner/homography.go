package scanner

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"roundcode/pkg/geometry"
)

var errHomographyFailed = errors.New("homography estimation failed")

// RANSAC parameters matching the OpenCV findHomography defaults:
// 3-pixel reprojection threshold, generous iteration budget.
const (
	ransacIterations = 2000
	ransacThreshold  = 3.0
)

// estimateHomography computes the planar homography mapping object
// points to scene points with RANSAC over 4-point samples and a final
// least-squares re-fit on the inliers. Pure Go on gonum: the gocv
// binding surface for calib3d varies across releases.
func estimateHomography(object, scene []geometry.Point2D) (geometry.Homography, error) {
	n := len(object)
	if n != len(scene) || n < 4 {
		return geometry.Homography{}, errHomographyFailed
	}

	var best geometry.Homography
	var bestInliers []int

	for iter := 0; iter < ransacIterations; iter++ {
		idx := rand.Perm(n)[:4]

		sample := make([]geometry.Point2D, 4)
		target := make([]geometry.Point2D, 4)
		for i, j := range idx {
			sample[i] = object[j]
			target[i] = scene[j]
		}

		h, err := solveHomography(sample, target)
		if err != nil {
			continue
		}

		var inliers []int
		for i := range object {
			if h.Apply(object[i]).Distance(scene[i]) < ransacThreshold {
				inliers = append(inliers, i)
			}
		}

		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
			best = h
		}
		if len(bestInliers) == n {
			break
		}
	}

	if len(bestInliers) < 4 {
		return geometry.Homography{}, errHomographyFailed
	}

	inlierObj := make([]geometry.Point2D, len(bestInliers))
	inlierScene := make([]geometry.Point2D, len(bestInliers))
	for i, j := range bestInliers {
		inlierObj[i] = object[j]
		inlierScene[i] = scene[j]
	}

	refined, err := solveHomography(inlierObj, inlierScene)
	if err != nil {
		return best, nil
	}
	return refined, nil
}

// solveHomography computes the direct linear transform solution for a
// set of at least four correspondences, with Hartley normalization for
// conditioning.
func solveHomography(src, dst []geometry.Point2D) (geometry.Homography, error) {
	n := len(src)
	if n < 4 || n != len(dst) {
		return geometry.Homography{}, errHomographyFailed
	}

	tSrc, err := normalizingTransform(src)
	if err != nil {
		return geometry.Homography{}, err
	}
	tDst, err := normalizingTransform(dst)
	if err != nil {
		return geometry.Homography{}, err
	}

	a := mat.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		p := tSrc.Apply(src[i])
		q := tDst.Apply(dst[i])

		a.SetRow(2*i, []float64{
			-p.X, -p.Y, -1, 0, 0, 0, q.X * p.X, q.X * p.Y, q.X,
		})
		a.SetRow(2*i+1, []float64{
			0, 0, 0, -p.X, -p.Y, -1, q.Y * p.X, q.Y * p.Y, q.Y,
		})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFullV); !ok {
		return geometry.Homography{}, errHomographyFailed
	}

	var v mat.Dense
	svd.VTo(&v)

	// The null vector is the right singular vector of the smallest
	// singular value: the last column of V.
	var hn geometry.Homography
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			hn[i][j] = v.At(3*i+j, 8)
		}
	}

	tDstInv, err := tDst.Inverse()
	if err != nil {
		return geometry.Homography{}, errHomographyFailed
	}
	h := tDstInv.Mul(hn).Mul(tSrc)

	if math.Abs(h[2][2]) < 1e-12 {
		return geometry.Homography{}, errHomographyFailed
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			h[i][j] /= h[2][2]
		}
	}
	h[2][2] = 1

	return h, nil
}

// normalizingTransform builds the similarity that moves a point set to
// the origin with mean distance sqrt(2).
func normalizingTransform(pts []geometry.Point2D) (geometry.Homography, error) {
	c := geometry.Centroid(pts)

	var meanDist float64
	for _, p := range pts {
		meanDist += p.Distance(c)
	}
	meanDist /= float64(len(pts))
	if meanDist < 1e-9 {
		return geometry.Homography{}, errHomographyFailed
	}

	s := math.Sqrt2 / meanDist
	return geometry.Homography{
		{s, 0, -s * c.X},
		{0, s, -s * c.Y},
		{0, 0, 1},
	}, nil
}
