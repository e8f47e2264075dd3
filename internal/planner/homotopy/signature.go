package homotopy

import (
	"math"

	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
	"github.com/banshee-data/trajectory.planner/internal/plan"
)

// Signature identifies the homotopy class of a path relative to a fixed
// obstacle set: one entry per obstacle holding the angle the path sweeps
// around that obstacle, scaled by the configured prescaler. Two paths with
// equivalent signatures can be deformed into each other without crossing an
// obstacle.
type Signature []float64

// signatureOf accumulates, per obstacle, the signed angle swept by the path
// around the obstacle centroid. Paths passing an obstacle on opposite sides
// differ by roughly 2*pi in that obstacle's entry.
func signatureOf(path []plan.TimedPose, obst obstacles.Set, prescaler float64) Signature {
	sig := make(Signature, len(obst))
	if len(path) < 2 {
		return sig
	}
	for oi, o := range obst {
		c := o.Centroid()
		var swept float64
		prev := math.Atan2(path[0].Pose.Y-c.Y, path[0].Pose.X-c.X)
		for i := 1; i < len(path); i++ {
			cur := math.Atan2(path[i].Pose.Y-c.Y, path[i].Pose.X-c.X)
			swept += geom.AngleDiff(cur, prev)
			prev = cur
		}
		sig[oi] = prescaler * swept
	}
	return sig
}

// equivalent reports whether two signatures identify the same homotopy class:
// every per-obstacle entry differs by less than the threshold.
func (s Signature) equivalent(other Signature, threshold float64) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if math.Abs(s[i]-other[i]) >= threshold {
			return false
		}
	}
	return true
}
