// Package obstacles represents the obstacle layer the planner optimizes
// against: point, circle, line and polygon obstacles, each optionally
// carrying a velocity for motion prediction.
package obstacles

import (
	"math"

	"github.com/banshee-data/trajectory.planner/internal/geom"
)

// Obstacle is the minimal surface the optimizer and the feasibility sweep
// need from any obstacle shape.
type Obstacle interface {
	// Distance returns the minimum Euclidean distance from the point to the
	// obstacle's boundary (zero if the point is inside).
	Distance(p geom.Point2) float64
	// Centroid returns a representative position for exploration and
	// signature computation.
	Centroid() geom.Point2
	// Velocity returns the obstacle's estimated velocity. Zero for static
	// obstacles.
	Velocity() geom.Point2
	// PredictedCentroid returns the centroid advanced by dt seconds under
	// the constant-velocity assumption.
	PredictedCentroid(dt float64) geom.Point2
}

// PointObstacle is a dimensionless obstacle, the cheapest representation for
// costmap cells.
type PointObstacle struct {
	Pos geom.Point2
	Vel geom.Point2
}

func (o *PointObstacle) Distance(p geom.Point2) float64 { return p.DistanceTo(o.Pos) }
func (o *PointObstacle) Centroid() geom.Point2          { return o.Pos }
func (o *PointObstacle) Velocity() geom.Point2          { return o.Vel }
func (o *PointObstacle) PredictedCentroid(dt float64) geom.Point2 {
	return geom.Point2{X: o.Pos.X + o.Vel.X*dt, Y: o.Pos.Y + o.Vel.Y*dt}
}

// CircleObstacle models a disc, the usual stand-in for a human.
type CircleObstacle struct {
	Pos    geom.Point2
	Radius float64
	Vel    geom.Point2
}

func (o *CircleObstacle) Distance(p geom.Point2) float64 {
	return math.Max(0, p.DistanceTo(o.Pos)-o.Radius)
}
func (o *CircleObstacle) Centroid() geom.Point2 { return o.Pos }
func (o *CircleObstacle) Velocity() geom.Point2 { return o.Vel }
func (o *CircleObstacle) PredictedCentroid(dt float64) geom.Point2 {
	return geom.Point2{X: o.Pos.X + o.Vel.X*dt, Y: o.Pos.Y + o.Vel.Y*dt}
}

// LineObstacle models a wall segment.
type LineObstacle struct {
	Start geom.Point2
	End   geom.Point2
}

func (o *LineObstacle) Distance(p geom.Point2) float64 {
	return geom.PointToSegment(p, o.Start, o.End)
}
func (o *LineObstacle) Centroid() geom.Point2 {
	return geom.Point2{X: (o.Start.X + o.End.X) / 2, Y: (o.Start.Y + o.End.Y) / 2}
}
func (o *LineObstacle) Velocity() geom.Point2                    { return geom.Point2{} }
func (o *LineObstacle) PredictedCentroid(dt float64) geom.Point2 { return o.Centroid() }

// PolygonObstacle models an arbitrary closed polygon.
type PolygonObstacle struct {
	Vertices []geom.Point2
}

func (o *PolygonObstacle) Distance(p geom.Point2) float64 {
	return geom.PointToPolygon(p, o.Vertices)
}

func (o *PolygonObstacle) Centroid() geom.Point2 {
	var c geom.Point2
	if len(o.Vertices) == 0 {
		return c
	}
	for _, v := range o.Vertices {
		c.X += v.X
		c.Y += v.Y
	}
	c.X /= float64(len(o.Vertices))
	c.Y /= float64(len(o.Vertices))
	return c
}
func (o *PolygonObstacle) Velocity() geom.Point2                    { return geom.Point2{} }
func (o *PolygonObstacle) PredictedCentroid(dt float64) geom.Point2 { return o.Centroid() }

// Set is the obstacle container handed to a planner for one cycle.
type Set []Obstacle

// MinDistance returns the smallest distance from p to any obstacle in the
// set, or +Inf for an empty set.
func (s Set) MinDistance(p geom.Point2) float64 {
	min := math.Inf(1)
	for _, o := range s {
		if d := o.Distance(p); d < min {
			min = d
		}
	}
	return min
}

// PruneBehind removes obstacles more than keepDist behind the robot pose
// (negative projection onto the robot heading). Costmap obstacles behind the
// robot contribute nothing to forward planning beyond a short tail.
func (s Set) PruneBehind(robot geom.PoseSE2, keepDist float64) Set {
	sin, cos := math.Sincos(robot.Theta)
	out := s[:0:0]
	for _, o := range s {
		c := o.Centroid()
		forward := (c.X-robot.X)*cos + (c.Y-robot.Y)*sin
		if forward >= -keepDist {
			out = append(out, o)
		}
	}
	return out
}
