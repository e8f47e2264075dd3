package plan

import (
	"math"
	"testing"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/geom"
)

func linePath(n int, spacing float64) []TimedPose {
	path := make([]TimedPose, n)
	base := time.Now()
	for i := range path {
		path[i] = TimedPose{
			Pose: geom.PoseSE2{X: float64(i) * spacing},
			Time: base.Add(time.Duration(i) * 100 * time.Millisecond),
		}
	}
	return path
}

func TestRequestValid(t *testing.T) {
	r := Request{Path: linePath(5, 0.5)}
	if !r.Valid() {
		t.Fatal("straight-line request reported invalid")
	}

	if (Request{}).Valid() {
		t.Fatal("empty request reported valid")
	}

	bad := Request{Path: linePath(3, 0.5)}
	bad.Path[1].Pose.X = math.NaN()
	if bad.Valid() {
		t.Fatal("request with NaN pose reported valid")
	}

	badVel := Request{Path: linePath(3, 0.5), StartVel: geom.Twist{Linear: math.Inf(1)}}
	if badVel.Valid() {
		t.Fatal("request with infinite start velocity reported valid")
	}
}

func TestRequestLength(t *testing.T) {
	r := Request{Path: linePath(5, 0.5)}
	if got := r.Length(); math.Abs(got-2.0) > 1e-12 {
		t.Fatalf("Length = %f, want 2.0", got)
	}
	if r.Start() != (geom.PoseSE2{}) {
		t.Fatalf("Start = %+v, want origin", r.Start())
	}
	if r.Goal().X != 2.0 {
		t.Fatalf("Goal.X = %f, want 2.0", r.Goal().X)
	}
}

func TestTrajectoryClone(t *testing.T) {
	traj := Trajectory{
		{Pose: geom.PoseSE2{X: 0}},
		{Pose: geom.PoseSE2{X: 1}, TimeFromStart: time.Second},
	}
	clone := traj.Clone()
	clone[0].Pose.X = 99
	if traj[0].Pose.X == 99 {
		t.Fatal("Clone shares backing storage with original")
	}
	if Trajectory(nil).Clone() != nil {
		t.Fatal("Clone of nil trajectory should stay nil")
	}
}

func TestTrajectoryMonotonic(t *testing.T) {
	good := Trajectory{
		{TimeFromStart: 0},
		{TimeFromStart: 100 * time.Millisecond},
		{TimeFromStart: 250 * time.Millisecond},
	}
	if !good.TimeMonotonic() {
		t.Fatal("monotonic trajectory reported non-monotonic")
	}
	bad := Trajectory{
		{TimeFromStart: 100 * time.Millisecond},
		{TimeFromStart: 100 * time.Millisecond},
	}
	if bad.TimeMonotonic() {
		t.Fatal("repeated timestamps reported monotonic")
	}
	if good.Duration() != 250*time.Millisecond {
		t.Fatalf("Duration = %v, want 250ms", good.Duration())
	}
}
