// Package footprint provides the collision models the feasibility sweep
// tests robot poses against. The planner only decides which poses to test;
// the geometry lives here.
package footprint

import (
	"math"

	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
)

// Model tests one robot pose against the obstacle layer. inscribed and
// circumscribed radii allow implementations to short-circuit: anything
// closer than the inscribed radius collides, anything farther than the
// circumscribed radius cannot.
type Model interface {
	// InCollision reports whether the footprint polygon placed at the pose
	// intersects any obstacle.
	InCollision(pose geom.PoseSE2, polygon []geom.Point2, inscribed, circumscribed float64) bool
}

// ObstacleSetModel checks footprints against an explicit obstacle set. The
// zero clearance makes the check a pure intersection test; a positive
// clearance turns it into a minimum-separation test.
type ObstacleSetModel struct {
	Obstacles obstacles.Set
	Clearance float64
}

// InCollision places the polygon at the pose and tests every obstacle.
func (m *ObstacleSetModel) InCollision(pose geom.PoseSE2, polygon []geom.Point2, inscribed, circumscribed float64) bool {
	center := pose.Position()

	for _, o := range m.Obstacles {
		d := o.Distance(center)

		// Cheap radius bounds first.
		if inscribed > 0 && d <= inscribed+m.Clearance {
			return true
		}
		if circumscribed > 0 && d > circumscribed+m.Clearance {
			continue
		}

		if len(polygon) == 0 {
			// Point-robot fallback: the center alone decides.
			if d <= m.Clearance {
				return true
			}
			continue
		}

		world := geom.TransformPolygon(polygon, pose)
		if polygonHitsObstacle(world, o, m.Clearance) {
			return true
		}
	}
	return false
}

func polygonHitsObstacle(world []geom.Point2, o obstacles.Obstacle, clearance float64) bool {
	// Vertex and edge proximity.
	n := len(world)
	for i := 0; i < n; i++ {
		if o.Distance(world[i]) <= clearance {
			return true
		}
	}
	// Obstacle centroid inside the footprint.
	if n >= 3 && geom.PointInPolygon(o.Centroid(), world) {
		return true
	}
	// Edge sampling catches obstacles between vertices.
	for i := 0; i < n; i++ {
		a, b := world[i], world[(i+1)%n]
		mid := geom.Point2{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
		if o.Distance(mid) <= clearance {
			return true
		}
	}
	return false
}

// CircleFootprint returns a regular polygon approximating a circular robot
// of the given radius, convenient for tests and point-robot hosts.
func CircleFootprint(radius float64, segments int) []geom.Point2 {
	if segments < 3 {
		segments = 8
	}
	verts := make([]geom.Point2, segments)
	for i := range verts {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		sin, cos := math.Sincos(theta)
		verts[i] = geom.Point2{X: radius * cos, Y: radius * sin}
	}
	return verts
}
