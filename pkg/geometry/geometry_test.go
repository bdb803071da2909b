package geometry

import (
	"math"
	"testing"
)

func square(x, y, side float64) []Point2D {
	return []Point2D{
		{X: x, Y: y},
		{X: x + side, Y: y},
		{X: x + side, Y: y + side},
		{X: x, Y: y + side},
	}
}

func TestPolygonMomentsSquare(t *testing.T) {
	m := PolygonMoments(square(10, 20, 4))

	if math.Abs(m.M00-16) > 1e-9 {
		t.Errorf("M00 = %v, want 16", m.M00)
	}

	c, ok := m.Centroid()
	if !ok {
		t.Fatal("centroid not defined")
	}
	if math.Abs(c.X-12) > 1e-9 || math.Abs(c.Y-22) > 1e-9 {
		t.Errorf("centroid = %v, want (12, 22)", c)
	}

	// Central moments of an axis-aligned square with side a: a^4/12.
	want := math.Pow(4, 4) / 12
	if math.Abs(m.Mu20-want) > 1e-9 {
		t.Errorf("Mu20 = %v, want %v", m.Mu20, want)
	}
	if math.Abs(m.Mu02-want) > 1e-9 {
		t.Errorf("Mu02 = %v, want %v", m.Mu02, want)
	}
	if math.Abs(m.Mu11) > 1e-9 {
		t.Errorf("Mu11 = %v, want 0", m.Mu11)
	}
}

func TestPolygonMomentsWindingInvariant(t *testing.T) {
	ccw := square(0, 0, 3)
	cw := []Point2D{ccw[0], ccw[3], ccw[2], ccw[1]}

	a := PolygonMoments(ccw)
	b := PolygonMoments(cw)

	if math.Abs(a.M00-b.M00) > 1e-9 || a.M00 <= 0 {
		t.Errorf("winding changed area: %v vs %v", a.M00, b.M00)
	}
}

func TestPolygonMomentsDegenerate(t *testing.T) {
	m := PolygonMoments([]Point2D{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}})
	if _, ok := m.Centroid(); ok {
		t.Error("collinear polygon has a defined centroid")
	}
}

func TestConvexHull(t *testing.T) {
	pts := append(square(0, 0, 10), Point2D{X: 5, Y: 5}, Point2D{X: 2, Y: 7})
	hull := ConvexHull(pts)

	if len(hull) != 4 {
		t.Fatalf("hull has %d points, want 4", len(hull))
	}
	if math.Abs(PolygonArea(hull)-100) > 1e-9 {
		t.Errorf("hull area = %v, want 100", PolygonArea(hull))
	}
}

func TestArcLength(t *testing.T) {
	tri := []Point2D{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 4}}

	if got := ArcLength(tri, false); math.Abs(got-7) > 1e-9 {
		t.Errorf("open length = %v, want 7", got)
	}
	if got := ArcLength(tri, true); math.Abs(got-12) > 1e-9 {
		t.Errorf("closed length = %v, want 12", got)
	}
}

func TestHomographyApply(t *testing.T) {
	// Pure translation.
	h := Homography{{1, 0, 7}, {0, 1, -3}, {0, 0, 1}}
	got := h.Apply(Point2D{X: 2, Y: 5})
	if got.Distance(Point2D{X: 9, Y: 2}) > 1e-12 {
		t.Errorf("translated point = %v", got)
	}

	// Perspective division.
	p := Homography{{1, 0, 0}, {0, 1, 0}, {0.01, 0, 1}}
	got = p.Apply(Point2D{X: 100, Y: 50})
	if math.Abs(got.X-50) > 1e-9 || math.Abs(got.Y-25) > 1e-9 {
		t.Errorf("perspective point = %v, want (50, 25)", got)
	}
}

func TestHomographyInverse(t *testing.T) {
	h := Homography{
		{1.2, -0.3, 40},
		{0.25, 0.9, -17},
		{1e-4, -2e-4, 1},
	}

	inv, err := h.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}

	prod := h.Mul(inv)
	ident := IdentityHomography()

	var frob float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d := prod[i][j] - ident[i][j]
			frob += d * d
		}
	}
	if math.Sqrt(frob) > 1e-6 {
		t.Errorf("H*Hinv differs from identity by %v", math.Sqrt(frob))
	}

	p := Point2D{X: 123, Y: -45}
	if got := inv.Apply(h.Apply(p)); got.Distance(p) > 1e-6 {
		t.Errorf("round trip moved %v to %v", p, got)
	}
}

func TestHomographyInverseSingular(t *testing.T) {
	var h Homography // all zeros
	if _, err := h.Inverse(); err == nil {
		t.Error("inverse of singular matrix did not fail")
	}
}

func TestEllipseScaling(t *testing.T) {
	e := Ellipse{Center: Point2D{X: 10, Y: 20}, Width: 40, Height: 30, Angle: 0.5}

	s := e.Scaled(1.5)
	if s.Width != 60 || s.Height != 45 || s.Center != e.Center || s.Angle != e.Angle {
		t.Errorf("Scaled = %+v", s)
	}

	k := e.Shrunk(2)
	if k.Width != 38 || k.Height != 28 {
		t.Errorf("Shrunk = %+v", k)
	}

	if e.BoxArea() != 1200 {
		t.Errorf("BoxArea = %v, want 1200", e.BoxArea())
	}
}
