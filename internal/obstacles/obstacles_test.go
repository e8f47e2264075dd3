package obstacles

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/geom"
)

func TestCircleObstacleDistance(t *testing.T) {
	o := &CircleObstacle{Pos: geom.Point2{X: 2, Y: 0}, Radius: 0.5}
	if d := o.Distance(geom.Point2{}); math.Abs(d-1.5) > 1e-12 {
		t.Fatalf("distance = %f, want 1.5", d)
	}
	// Inside the disc clamps to zero.
	if d := o.Distance(geom.Point2{X: 2.2, Y: 0}); d != 0 {
		t.Fatalf("interior distance = %f, want 0", d)
	}
}

func TestPredictedCentroid(t *testing.T) {
	o := &CircleObstacle{Pos: geom.Point2{X: 1, Y: 1}, Vel: geom.Point2{X: -0.5, Y: 0.25}}
	p := o.PredictedCentroid(2.0)
	if math.Abs(p.X-0) > 1e-12 || math.Abs(p.Y-1.5) > 1e-12 {
		t.Fatalf("predicted centroid = %+v, want (0, 1.5)", p)
	}
	// Static shapes stay put.
	l := &LineObstacle{Start: geom.Point2{}, End: geom.Point2{X: 2}}
	if l.PredictedCentroid(10) != l.Centroid() {
		t.Fatal("line obstacle moved under prediction")
	}
}

func TestSetMinDistance(t *testing.T) {
	set := Set{
		&PointObstacle{Pos: geom.Point2{X: 3, Y: 0}},
		&PointObstacle{Pos: geom.Point2{X: 0, Y: 1}},
	}
	if d := set.MinDistance(geom.Point2{}); math.Abs(d-1) > 1e-12 {
		t.Fatalf("min distance = %f, want 1", d)
	}
	if d := Set(nil).MinDistance(geom.Point2{}); !math.IsInf(d, 1) {
		t.Fatalf("empty set min distance = %f, want +Inf", d)
	}
}

func TestPruneBehind(t *testing.T) {
	robot := geom.PoseSE2{X: 0, Y: 0, Theta: 0} // facing +x
	set := Set{
		&PointObstacle{Pos: geom.Point2{X: 2, Y: 0}},    // ahead
		&PointObstacle{Pos: geom.Point2{X: -0.3, Y: 0}}, // slightly behind, kept
		&PointObstacle{Pos: geom.Point2{X: -2, Y: 0}},   // far behind, pruned
	}
	pruned := set.PruneBehind(robot, 0.5)
	if len(pruned) != 2 {
		t.Fatalf("pruned length = %d, want 2", len(pruned))
	}
}

// fakeGrid is a tiny costmap with a single occupied cell.
type fakeGrid struct{}

func (fakeGrid) Size() (int, int)       { return 4, 4 }
func (fakeGrid) Resolution() float64    { return 0.5 }
func (fakeGrid) Origin() geom.Point2    { return geom.Point2{X: -1, Y: -1} }
func (fakeGrid) Occupied(x, y int) bool { return x == 2 && y == 1 }

func TestGridConverterConvert(t *testing.T) {
	c := NewGridConverter(fakeGrid{}, 0)
	set := c.Convert()
	if len(set) != 1 {
		t.Fatalf("converted set length = %d, want 1", len(set))
	}
	got := set[0].Centroid()
	want := geom.Point2{X: -1 + 2.5*0.5, Y: -1 + 1.5*0.5}
	if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 {
		t.Fatalf("cell center = %+v, want %+v", got, want)
	}
	if len(c.Obstacles()) != 1 {
		t.Fatal("Obstacles() did not return the converted set")
	}
}

func TestGridConverterRunStopsOnCancel(t *testing.T) {
	c := NewGridConverter(fakeGrid{}, 50)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if len(c.Obstacles()) != 1 {
		t.Fatal("background loop never converted")
	}
}
