package geom

import (
	"math"
	"testing"
)

func TestNormalizeAngle(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"pi stays pi", math.Pi, math.Pi},
		{"negative pi wraps to pi", -math.Pi, math.Pi},
		{"just over pi", math.Pi + 0.1, -math.Pi + 0.1},
		{"two pi", 2 * math.Pi, 0},
		{"large positive", 5 * math.Pi, math.Pi},
		{"large negative", -7 * math.Pi / 2, math.Pi / 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeAngle(tc.in)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("NormalizeAngle(%f) = %f, want %f", tc.in, got, tc.want)
			}
		})
	}
}

func TestAngleDiffShortestArc(t *testing.T) {
	d := AngleDiff(-3*math.Pi/4, 3*math.Pi/4)
	if math.Abs(d-math.Pi/2) > 1e-12 {
		t.Fatalf("AngleDiff across the wrap = %f, want %f", d, math.Pi/2)
	}
}

func TestPoseFinite(t *testing.T) {
	if !(PoseSE2{1, 2, 0.5}).IsFinite() {
		t.Fatal("finite pose reported non-finite")
	}
	if (PoseSE2{math.NaN(), 0, 0}).IsFinite() {
		t.Fatal("NaN pose reported finite")
	}
	if (PoseSE2{0, math.Inf(1), 0}).IsFinite() {
		t.Fatal("Inf pose reported finite")
	}
}

func TestInterpolateHeadingWrap(t *testing.T) {
	p := PoseSE2{0, 0, 3 * math.Pi / 4}
	q := PoseSE2{2, 0, -3 * math.Pi / 4}
	mid := p.Interpolate(q, 0.5)
	if math.Abs(mid.X-1) > 1e-12 {
		t.Fatalf("mid.X = %f, want 1", mid.X)
	}
	// Shortest arc from 135° to -135° passes through 180°.
	if math.Abs(math.Abs(mid.Theta)-math.Pi) > 1e-9 {
		t.Fatalf("mid.Theta = %f, want ±pi", mid.Theta)
	}
}

func TestPointToSegment(t *testing.T) {
	a, b := Point2{0, 0}, Point2{2, 0}
	if d := PointToSegment(Point2{1, 1}, a, b); math.Abs(d-1) > 1e-12 {
		t.Fatalf("perpendicular distance = %f, want 1", d)
	}
	if d := PointToSegment(Point2{4, 0}, a, b); math.Abs(d-2) > 1e-12 {
		t.Fatalf("beyond-endpoint distance = %f, want 2", d)
	}
	// Degenerate segment collapses to point distance.
	if d := PointToSegment(Point2{3, 4}, a, a); math.Abs(d-5) > 1e-12 {
		t.Fatalf("degenerate segment distance = %f, want 5", d)
	}
}

func TestSegmentsIntersect(t *testing.T) {
	if !SegmentsIntersect(Point2{0, 0}, Point2{2, 2}, Point2{0, 2}, Point2{2, 0}) {
		t.Fatal("crossing segments reported disjoint")
	}
	if SegmentsIntersect(Point2{0, 0}, Point2{1, 0}, Point2{0, 1}, Point2{1, 1}) {
		t.Fatal("parallel segments reported intersecting")
	}
	if !SegmentsIntersect(Point2{0, 0}, Point2{1, 0}, Point2{1, 0}, Point2{2, 5}) {
		t.Fatal("touching endpoints reported disjoint")
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Point2{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	if !PointInPolygon(Point2{1, 1}, square) {
		t.Fatal("interior point reported outside")
	}
	if PointInPolygon(Point2{3, 1}, square) {
		t.Fatal("exterior point reported inside")
	}
	if !PointInPolygon(Point2{2, 1}, square) {
		t.Fatal("boundary point reported outside")
	}
	if PointInPolygon(Point2{0, 0}, square[:2]) {
		t.Fatal("two-vertex polygon contained a point")
	}
}

func TestPointToPolygon(t *testing.T) {
	square := []Point2{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	if d := PointToPolygon(Point2{1, 1}, square); d != 0 {
		t.Fatalf("interior distance = %f, want 0", d)
	}
	if d := PointToPolygon(Point2{4, 1}, square); math.Abs(d-2) > 1e-12 {
		t.Fatalf("exterior distance = %f, want 2", d)
	}
}

func TestTransformPolygon(t *testing.T) {
	body := []Point2{{1, 0}}
	world := TransformPolygon(body, PoseSE2{X: 1, Y: 1, Theta: math.Pi / 2})
	if math.Abs(world[0].X-1) > 1e-12 || math.Abs(world[0].Y-2) > 1e-12 {
		t.Fatalf("transformed vertex = %+v, want (1,2)", world[0])
	}
}
