// Package plan defines the value types exchanged between the host process
// and a local planner: planning requests, per-human reference paths, and the
// optimized trajectory handed back to the caller.
package plan

import (
	"time"

	"github.com/banshee-data/trajectory.planner/internal/geom"
)

// TimedPose is one pose of a reference path together with its timestamp.
type TimedPose struct {
	Pose geom.PoseSE2
	Time time.Time
}

// Request describes one planning call: the reference path segment to track,
// the velocity the robot currently carries, and the velocity it should have
// at the goal. A Request is owned by the caller and treated as immutable for
// the duration of the planning call it is submitted to.
type Request struct {
	Path     []TimedPose
	StartVel geom.Twist
	GoalVel  geom.Twist
}

// HumanPlanIndex maps a stable numeric human identifier to that human's
// reference path for the current planning cycle. Entries are supplied fresh
// each cycle; an identifier only denotes the same physical human within a
// single cycle's data.
type HumanPlanIndex map[uint64]Request

// Valid reports whether the request can be planned at all: a non-empty path
// with finite poses and finite start/goal velocities.
func (r Request) Valid() bool {
	if len(r.Path) == 0 {
		return false
	}
	for _, tp := range r.Path {
		if !tp.Pose.IsFinite() {
			return false
		}
	}
	return r.StartVel.IsFinite() && r.GoalVel.IsFinite()
}

// Start returns the first pose of the reference path.
func (r Request) Start() geom.PoseSE2 { return r.Path[0].Pose }

// Goal returns the last pose of the reference path.
func (r Request) Goal() geom.PoseSE2 { return r.Path[len(r.Path)-1].Pose }

// Length returns the cumulative Euclidean length of the reference path.
func (r Request) Length() float64 {
	var sum float64
	for i := 1; i < len(r.Path); i++ {
		sum += r.Path[i].Pose.Distance(r.Path[i-1].Pose)
	}
	return sum
}

// TrajectoryPoint is one sample of an optimized trajectory: where the robot
// is, how fast it moves there, and when it gets there relative to the start
// of the trajectory.
type TrajectoryPoint struct {
	Pose          geom.PoseSE2
	Velocity      geom.Twist
	TimeFromStart time.Duration
}

// Trajectory is an ordered, time-monotonic sequence of trajectory points.
// Index 0 is the state at the current planning cycle. A Trajectory returned
// by a planner is a copy: it stays valid after the next plan call, but it no
// longer reflects the planner's state.
type Trajectory []TrajectoryPoint

// Clone returns a deep copy of the trajectory.
func (t Trajectory) Clone() Trajectory {
	if t == nil {
		return nil
	}
	out := make(Trajectory, len(t))
	copy(out, t)
	return out
}

// Duration returns the time offset of the final point, or zero for a
// trajectory with fewer than two points.
func (t Trajectory) Duration() time.Duration {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].TimeFromStart
}

// TimeMonotonic reports whether time offsets are strictly increasing.
func (t Trajectory) TimeMonotonic() bool {
	for i := 1; i < len(t); i++ {
		if t[i].TimeFromStart <= t[i-1].TimeFromStart {
			return false
		}
	}
	return true
}

// CostVector carries one scalar cost per maintained trajectory candidate.
// A single-trajectory planner fills exactly one element and must not resize
// a caller-supplied vector.
type CostVector []float64
