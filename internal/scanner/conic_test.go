package scanner

import (
	"math"
	"testing"

	"roundcode/pkg/geometry"
)

// ellipsePoints samples the boundary of an ellipse parametrically.
func ellipsePoints(e geometry.Ellipse, n int) []geometry.Point2D {
	sin, cos := math.Sincos(e.Angle)
	a := e.Width / 2
	b := e.Height / 2

	pts := make([]geometry.Point2D, n)
	for i := range pts {
		phi := 2 * math.Pi * float64(i) / float64(n)
		x := a * math.Cos(phi)
		y := b * math.Sin(phi)
		pts[i] = geometry.Point2D{
			X: e.Center.X + x*cos - y*sin,
			Y: e.Center.Y + x*sin + y*cos,
		}
	}
	return pts
}

func TestFitEllipseRecoversCircle(t *testing.T) {
	want := geometry.Ellipse{Center: geometry.Point2D{X: 240, Y: 180}, Width: 120, Height: 120}

	got, err := fitEllipse(ellipsePoints(want, 40))
	if err != nil {
		t.Fatalf("fitEllipse: %v", err)
	}

	if got.Center.Distance(want.Center) > 1e-6 {
		t.Errorf("center = %v, want %v", got.Center, want.Center)
	}
	if math.Abs(got.Width-120) > 1e-6 || math.Abs(got.Height-120) > 1e-6 {
		t.Errorf("axes = %v x %v, want 120 x 120", got.Width, got.Height)
	}
}

func TestFitEllipseRecoversRotatedEllipse(t *testing.T) {
	want := geometry.Ellipse{
		Center: geometry.Point2D{X: 57.5, Y: -12.25},
		Width:  80,
		Height: 50,
		Angle:  0.6,
	}

	got, err := fitEllipse(ellipsePoints(want, 60))
	if err != nil {
		t.Fatalf("fitEllipse: %v", err)
	}

	if got.Center.Distance(want.Center) > 1e-6 {
		t.Errorf("center = %v, want %v", got.Center, want.Center)
	}

	// Axis lengths may come back swapped with the angle off by pi/2;
	// compare the sorted pair and the axis direction modulo pi.
	gw, gh := got.Width, got.Height
	ga := got.Angle
	if gw < gh {
		gw, gh = gh, gw
		ga += math.Pi / 2
	}
	if math.Abs(gw-80) > 1e-6 || math.Abs(gh-50) > 1e-6 {
		t.Errorf("axes = %v x %v, want 80 x 50", gw, gh)
	}
	if d := math.Abs(math.Cos(2*(ga-want.Angle)) - 1); d > 1e-9 {
		t.Errorf("axis direction off: angle %v, want %v mod pi", ga, want.Angle)
	}
}

func TestFitEllipseRejectsDegenerate(t *testing.T) {
	if _, err := fitEllipse(nil); err == nil {
		t.Error("fit of empty set did not fail")
	}

	line := make([]geometry.Point2D, 10)
	for i := range line {
		line[i] = geometry.Point2D{X: float64(i), Y: 2 * float64(i)}
	}
	if _, err := fitEllipse(line); err == nil {
		t.Error("fit of collinear points did not fail")
	}
}

func TestInertiaRatio(t *testing.T) {
	// A circle is fully round.
	circle := geometry.PolygonMoments(ellipsePoints(
		geometry.Ellipse{Center: geometry.Point2D{X: 0, Y: 0}, Width: 100, Height: 100}, 90))
	if r := inertiaRatio(circle); r < 0.97 {
		t.Errorf("circle inertia ratio = %v, want near 1", r)
	}

	// A 4:1 ellipse is squished well below the gate.
	flat := geometry.PolygonMoments(ellipsePoints(
		geometry.Ellipse{Center: geometry.Point2D{X: 0, Y: 0}, Width: 100, Height: 25, Angle: 0.3}, 90))
	if r := inertiaRatio(flat); r > minEllipseInertia {
		t.Errorf("flat ellipse inertia ratio = %v, want below %v", r, minEllipseInertia)
	}
}
