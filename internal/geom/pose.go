// Package geom provides the 2D pose and distance primitives shared by the
// planner, footprint models and obstacle representations.
package geom

import "math"

// PoseSE2 is a planar pose: position plus heading.
type PoseSE2 struct {
	X     float64
	Y     float64
	Theta float64 // radians, normalized to (-pi, pi]
}

// Twist is a velocity command or state: translational and rotational parts.
// Only the forward (x) and yaw (z) components of the original 6-DOF twist
// survive in a planar planner.
type Twist struct {
	Linear  float64 // m/s
	Angular float64 // rad/s
}

// NormalizeAngle wraps an angle to (-pi, pi].
func NormalizeAngle(theta float64) float64 {
	if theta > -math.Pi && theta <= math.Pi {
		return theta
	}
	mu := math.Mod(theta+math.Pi, 2*math.Pi)
	if mu <= 0 {
		mu += 2 * math.Pi
	}
	return mu - math.Pi
}

// AngleDiff returns the smallest signed difference a-b in (-pi, pi].
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(a - b)
}

// Distance returns the Euclidean distance between the positions of two poses.
func (p PoseSE2) Distance(q PoseSE2) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// IsFinite reports whether all pose components are finite numbers.
func (p PoseSE2) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Theta)
}

// IsFinite reports whether both twist components are finite numbers.
func (t Twist) IsFinite() bool {
	return isFinite(t.Linear) && isFinite(t.Angular)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Interpolate returns the pose a fraction t of the way from p to q.
// Heading is interpolated along the shortest angular arc.
func (p PoseSE2) Interpolate(q PoseSE2, t float64) PoseSE2 {
	return PoseSE2{
		X:     p.X + t*(q.X-p.X),
		Y:     p.Y + t*(q.Y-p.Y),
		Theta: NormalizeAngle(p.Theta + t*AngleDiff(q.Theta, p.Theta)),
	}
}

// HeadingTo returns the bearing from p's position to q's position.
func (p PoseSE2) HeadingTo(q PoseSE2) float64 {
	return math.Atan2(q.Y-p.Y, q.X-p.X)
}

// Point2 is a bare 2D point, used for footprint vertices and obstacle
// geometry where no heading is meaningful.
type Point2 struct {
	X float64
	Y float64
}

// Position returns the pose's position as a Point2.
func (p PoseSE2) Position() Point2 {
	return Point2{X: p.X, Y: p.Y}
}

// Sub returns p - q.
func (p Point2) Sub(q Point2) Point2 { return Point2{p.X - q.X, p.Y - q.Y} }

// Dot returns the dot product of p and q.
func (p Point2) Dot(q Point2) float64 { return p.X*q.X + p.Y*q.Y }

// Cross returns the z component of the cross product of p and q.
func (p Point2) Cross(q Point2) float64 { return p.X*q.Y - p.Y*q.X }

// Norm returns the Euclidean length of p.
func (p Point2) Norm() float64 { return math.Hypot(p.X, p.Y) }

// DistanceTo returns the Euclidean distance between p and q.
func (p Point2) DistanceTo(q Point2) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}
