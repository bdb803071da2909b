package geometry

// Moments holds the spatial and central image moments of a polygon,
// computed the way OpenCV computes contour moments (Green's theorem over
// the closed polyline rather than pixel summation).
type Moments struct {
	M00, M10, M01    float64
	Mu20, Mu11, Mu02 float64
}

// PolygonMoments computes the moments of a closed polygon. The sign is
// normalized so that M00 is the absolute enclosed area regardless of
// winding.
func PolygonMoments(polygon []Point2D) Moments {
	var m Moments
	n := len(polygon)
	if n == 0 {
		return m
	}

	var m00, m10, m01, m20, m11, m02 float64

	xi, yi := polygon[n-1].X, polygon[n-1].Y
	for i := 0; i < n; i++ {
		xj, yj := polygon[i].X, polygon[i].Y

		// Twice the signed area of the triangle (origin, i-1, i).
		a := xi*yj - xj*yi

		m00 += a
		m10 += a * (xi + xj)
		m01 += a * (yi + yj)
		m20 += a * (xi*xi + xi*xj + xj*xj)
		m11 += a * (xi*(2*yi+yj) + xj*(yi+2*yj))
		m02 += a * (yi*yi + yi*yj + yj*yj)

		xi, yi = xj, yj
	}

	if m00 < 0 {
		m00, m10, m01, m20, m11, m02 = -m00, -m10, -m01, -m20, -m11, -m02
	}

	m.M00 = m00 / 2
	m.M10 = m10 / 6
	m.M01 = m01 / 6
	m20 /= 12
	m11 /= 24
	m02 /= 12

	if m.M00 != 0 {
		cx := m.M10 / m.M00
		cy := m.M01 / m.M00
		m.Mu20 = m20 - cx*m.M10
		m.Mu11 = m11 - cx*m.M01
		m.Mu02 = m02 - cy*m.M01
	}

	return m
}

// Centroid returns the center of mass, or false for degenerate polygons
// with zero enclosed area.
func (m Moments) Centroid() (Point2D, bool) {
	if m.M00 == 0 {
		return Point2D{}, false
	}
	return Point2D{X: m.M10 / m.M00, Y: m.M01 / m.M00}, true
}
