package geom

import "math"

// PointToSegment returns the minimum distance from point p to the segment ab.
func PointToSegment(p, a, b Point2) float64 {
	ab := b.Sub(a)
	ap := p.Sub(a)
	denom := ab.Dot(ab)
	if denom <= 0 {
		return p.DistanceTo(a)
	}
	t := ap.Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := Point2{a.X + t*ab.X, a.Y + t*ab.Y}
	return p.DistanceTo(closest)
}

// SegmentsIntersect reports whether segments ab and cd intersect,
// including touching endpoints.
func SegmentsIntersect(a, b, c, d Point2) bool {
	d1 := orient(c, d, a)
	d2 := orient(c, d, b)
	d3 := orient(a, b, c)
	d4 := orient(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(c, d, a) {
		return true
	}
	if d2 == 0 && onSegment(c, d, b) {
		return true
	}
	if d3 == 0 && onSegment(a, b, c) {
		return true
	}
	if d4 == 0 && onSegment(a, b, d) {
		return true
	}
	return false
}

func orient(a, b, c Point2) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func onSegment(a, b, p Point2) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// SegmentToSegment returns the minimum distance between segments ab and cd.
// Zero if they intersect.
func SegmentToSegment(a, b, c, d Point2) float64 {
	if SegmentsIntersect(a, b, c, d) {
		return 0
	}
	return math.Min(
		math.Min(PointToSegment(a, c, d), PointToSegment(b, c, d)),
		math.Min(PointToSegment(c, a, b), PointToSegment(d, a, b)),
	)
}

// PointInPolygon reports whether p lies inside (or on the boundary of) the
// polygon described by verts. Polygons with fewer than three vertices
// contain nothing.
func PointInPolygon(p Point2, verts []Point2) bool {
	n := len(verts)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := verts[i], verts[j]
		if PointToSegment(p, vi, vj) == 0 {
			return true
		}
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xCross := (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if p.X < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PointToPolygon returns the minimum distance from p to the polygon boundary,
// or zero if p is inside the polygon.
func PointToPolygon(p Point2, verts []Point2) float64 {
	n := len(verts)
	if n == 0 {
		return math.Inf(1)
	}
	if n == 1 {
		return p.DistanceTo(verts[0])
	}
	if n >= 3 && PointInPolygon(p, verts) {
		return 0
	}
	min := math.Inf(1)
	for i := 0; i < n; i++ {
		d := PointToSegment(p, verts[i], verts[(i+1)%n])
		if d < min {
			min = d
		}
	}
	return min
}

// TransformPolygon places a polygon given in body coordinates at the pose:
// rotate by pose.Theta, then translate to pose position.
func TransformPolygon(verts []Point2, pose PoseSE2) []Point2 {
	sin, cos := math.Sincos(pose.Theta)
	out := make([]Point2, len(verts))
	for i, v := range verts {
		out[i] = Point2{
			X: pose.X + cos*v.X - sin*v.Y,
			Y: pose.Y + sin*v.X + cos*v.Y,
		}
	}
	return out
}
