package scanner

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"roundcode/pkg/geometry"
)

var errDegenerateFit = errors.New("degenerate ellipse fit")

// fitEllipse fits an ellipse to a point set with the direct least-squares
// conic method of Halir and Flusser. The gocv FitEllipse binding in the
// pinned release quantizes the rotated rect to integers, which is too
// coarse for the sub-pixel candidate geometry the later stages depend on,
// so the fit is done here on gonum.
func fitEllipse(points []geometry.Point2D) (geometry.Ellipse, error) {
	if len(points) < 5 {
		return geometry.Ellipse{}, errDegenerateFit
	}

	// Shift to the centroid for conditioning; the conic is solved in
	// centered coordinates and shifted back at the end.
	c := geometry.Centroid(points)
	n := len(points)

	d1 := mat.NewDense(n, 3, nil)
	d2 := mat.NewDense(n, 3, nil)
	for i, p := range points {
		x := p.X - c.X
		y := p.Y - c.Y
		d1.Set(i, 0, x*x)
		d1.Set(i, 1, x*y)
		d1.Set(i, 2, y*y)
		d2.Set(i, 0, x)
		d2.Set(i, 1, y)
		d2.Set(i, 2, 1)
	}

	var s1, s2, s3 mat.Dense
	s1.Mul(d1.T(), d1)
	s2.Mul(d1.T(), d2)
	s3.Mul(d2.T(), d2)

	var s3inv mat.Dense
	if err := s3inv.Inverse(&s3); err != nil {
		return geometry.Ellipse{}, errDegenerateFit
	}

	// T = -S3^-1 S2^T, reduced system M = C1^-1 (S1 + S2 T).
	var t mat.Dense
	t.Mul(&s3inv, s2.T())
	t.Scale(-1, &t)

	var s2t mat.Dense
	s2t.Mul(&s2, &t)

	var m0 mat.Dense
	m0.Add(&s1, &s2t)

	m := mat.NewDense(3, 3, nil)
	for j := 0; j < 3; j++ {
		m.Set(0, j, m0.At(2, j)/2)
		m.Set(1, j, -m0.At(1, j))
		m.Set(2, j, m0.At(0, j)/2)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(m, mat.EigenRight); !ok {
		return geometry.Ellipse{}, errDegenerateFit
	}

	values := eig.Values(nil)
	vectors := mat.NewCDense(3, 3, nil)
	eig.VectorsTo(vectors)

	// Exactly one eigenvector satisfies the ellipse constraint
	// 4ac - b^2 > 0; pick it.
	var a1 [3]float64
	found := false
	for k := 0; k < 3; k++ {
		if math.Abs(imag(values[k])) > 1e-9 {
			continue
		}
		a := real(vectors.At(0, k))
		b := real(vectors.At(1, k))
		cc := real(vectors.At(2, k))
		if 4*a*cc-b*b > 0 {
			a1 = [3]float64{a, b, cc}
			found = true
			break
		}
	}
	if !found {
		return geometry.Ellipse{}, errDegenerateFit
	}

	var a2 mat.VecDense
	a2.MulVec(&t, mat.NewVecDense(3, a1[:]))

	return conicToEllipse(a1[0], a1[1], a1[2], a2.AtVec(0), a2.AtVec(1), a2.AtVec(2), c)
}

// conicToEllipse converts conic coefficients Ax^2+Bxy+Cy^2+Dx+Ey+F=0 in
// coordinates centered on shift into center, axis lengths, and rotation.
func conicToEllipse(a, b, c, d, e, f float64, shift geometry.Point2D) (geometry.Ellipse, error) {
	den := b*b - 4*a*c
	if den >= 0 {
		return geometry.Ellipse{}, errDegenerateFit
	}

	x0 := (2*c*d - b*e) / den
	y0 := (2*a*e - b*d) / den

	// Constant term with the center substituted in; the quadratic form
	// then satisfies (p-p0)' Q (p-p0) = -f0.
	f0 := f + (d*x0+e*y0)/2

	tr := a + c
	det := a*c - b*b/4
	disc := tr*tr/4 - det
	if disc < 0 {
		disc = 0
	}
	root := math.Sqrt(disc)
	lmax := tr/2 + root
	lmin := tr/2 - root
	if lmax == 0 || lmin == 0 {
		return geometry.Ellipse{}, errDegenerateFit
	}

	w2 := -f0 / lmax
	h2 := -f0 / lmin
	if w2 <= 0 || h2 <= 0 {
		return geometry.Ellipse{}, errDegenerateFit
	}

	return geometry.Ellipse{
		Center: geometry.Point2D{X: x0 + shift.X, Y: y0 + shift.Y},
		Width:  2 * math.Sqrt(w2),
		Height: 2 * math.Sqrt(h2),
		Angle:  0.5 * math.Atan2(b, a-c),
	}, nil
}
