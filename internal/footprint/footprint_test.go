package footprint

import (
	"testing"

	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
)

func squareFootprint(half float64) []geom.Point2 {
	return []geom.Point2{{X: half, Y: half}, {X: -half, Y: half}, {X: -half, Y: -half}, {X: half, Y: -half}}
}

func TestInCollisionPointRobot(t *testing.T) {
	m := &ObstacleSetModel{
		Obstacles: obstacles.Set{&obstacles.PointObstacle{Pos: geom.Point2{X: 1, Y: 0}}},
		Clearance: 0.1,
	}
	if !m.InCollision(geom.PoseSE2{X: 1, Y: 0.05}, nil, 0, 0) {
		t.Fatal("point robot within clearance reported free")
	}
	if m.InCollision(geom.PoseSE2{X: 3, Y: 0}, nil, 0, 0) {
		t.Fatal("distant point robot reported colliding")
	}
}

func TestInCollisionPolygon(t *testing.T) {
	m := &ObstacleSetModel{
		Obstacles: obstacles.Set{&obstacles.PointObstacle{Pos: geom.Point2{X: 1, Y: 0}}},
	}
	fp := squareFootprint(0.3)

	// Obstacle inside the footprint.
	if !m.InCollision(geom.PoseSE2{X: 1, Y: 0.1}, fp, 0, 0) {
		t.Fatal("obstacle inside footprint reported free")
	}
	// Footprint well clear of the obstacle.
	if m.InCollision(geom.PoseSE2{X: 3, Y: 3}, fp, 0, 0) {
		t.Fatal("clear footprint reported colliding")
	}
}

func TestInCollisionRotatedFootprint(t *testing.T) {
	// Long thin footprint: reaches the obstacle only when rotated toward it.
	fp := []geom.Point2{{X: 1.0, Y: 0.05}, {X: -0.2, Y: 0.05}, {X: -0.2, Y: -0.05}, {X: 1.0, Y: -0.05}}
	m := &ObstacleSetModel{
		Obstacles: obstacles.Set{&obstacles.PointObstacle{Pos: geom.Point2{X: 0, Y: 0.9}}},
		Clearance: 0.1,
	}
	if m.InCollision(geom.PoseSE2{Theta: 0}, fp, 0, 0) {
		t.Fatal("footprint pointing away reported colliding")
	}
	if !m.InCollision(geom.PoseSE2{Theta: 1.5707963267948966}, fp, 0, 0) {
		t.Fatal("footprint pointing at obstacle reported free")
	}
}

func TestRadiusShortCircuits(t *testing.T) {
	m := &ObstacleSetModel{
		Obstacles: obstacles.Set{&obstacles.PointObstacle{Pos: geom.Point2{X: 0.2, Y: 0}}},
	}
	// Inside the inscribed radius: collision without polygon math.
	if !m.InCollision(geom.PoseSE2{}, squareFootprint(0.3), 0.25, 0.5) {
		t.Fatal("obstacle inside inscribed radius reported free")
	}
	// Beyond the circumscribed radius: free without polygon math.
	far := &ObstacleSetModel{
		Obstacles: obstacles.Set{&obstacles.PointObstacle{Pos: geom.Point2{X: 5, Y: 0}}},
	}
	if far.InCollision(geom.PoseSE2{}, squareFootprint(0.3), 0.25, 0.5) {
		t.Fatal("obstacle beyond circumscribed radius reported colliding")
	}
}

func TestCircleFootprint(t *testing.T) {
	fp := CircleFootprint(0.5, 12)
	if len(fp) != 12 {
		t.Fatalf("vertex count = %d, want 12", len(fp))
	}
	for _, v := range fp {
		if r := v.Norm(); r < 0.499 || r > 0.501 {
			t.Fatalf("vertex radius = %f, want 0.5", r)
		}
	}
	if got := len(CircleFootprint(1, 2)); got != 8 {
		t.Fatalf("degenerate segment count produced %d vertices, want 8", got)
	}
}
