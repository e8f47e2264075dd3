// Package teb implements a timed-elastic-band local planner: a sequence of
// poses with per-transition time differences, deformed by a penalty-based
// optimizer until it is fast, kinodynamically valid, and clear of obstacles
// and humans.
package teb

import (
	"math"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/plan"
)

// band is the optimization variable: n poses and n-1 time differences.
// Index 0 is the current robot state; the final pose is the goal. Both ends
// stay fixed during optimization.
type band struct {
	poses []geom.PoseSE2
	dts   []float64 // seconds, one per transition
}

// newBandFromPath seeds a band from a reference path. Consecutive reference
// poses closer than skipDist are collapsed, the pose count is raised to
// minSamples by interpolation, and transition times are initialized from the
// desired resolution dtRef.
func newBandFromPath(path []plan.TimedPose, tcfg config.Trajectory) *band {
	if len(path) == 0 {
		return nil
	}

	poses := []geom.PoseSE2{path[0].Pose}
	for _, tp := range path[1:] {
		if tp.Pose.Distance(poses[len(poses)-1]) < tcfg.InitSkipDist {
			continue
		}
		poses = append(poses, tp.Pose)
	}
	// The goal always survives skipping.
	goal := path[len(path)-1].Pose
	if poses[len(poses)-1] != goal {
		if len(poses) > 1 && poses[len(poses)-1].Distance(goal) < tcfg.InitSkipDist {
			poses[len(poses)-1] = goal
		} else {
			poses = append(poses, goal)
		}
	}

	b := &band{poses: poses}
	b.ensureMinSamples(tcfg.MinSamples)
	b.initTimeDiffs(tcfg.DtRef)
	if tcfg.GlobalPlanOverwriteOrient {
		b.overwriteOrientations()
	}
	return b
}

// newBandBetween seeds a straight-line band between two poses.
func newBandBetween(start, goal geom.PoseSE2, tcfg config.Trajectory) *band {
	b := &band{poses: []geom.PoseSE2{start, goal}}
	b.ensureMinSamples(tcfg.MinSamples)
	b.initTimeDiffs(tcfg.DtRef)
	if tcfg.GlobalPlanOverwriteOrient {
		b.overwriteOrientations()
	}
	return b
}

func (b *band) n() int { return len(b.poses) }

// warmStart reuses an already-optimized band for the next cycle: poses the
// robot has passed are pruned, the fixed endpoints move to the new start and
// goal, and autoResize restores the temporal resolution during the next
// optimization. Reports false when too little of the band survives pruning,
// in which case the caller reinitializes from scratch.
func (b *band) warmStart(start, goal geom.PoseSE2) bool {
	nearest, nearestDist := 0, math.Inf(1)
	for i, pose := range b.poses {
		if d := pose.Distance(start); d < nearestDist {
			nearest, nearestDist = i, d
		}
	}
	if nearest > 0 {
		b.poses = b.poses[nearest:]
		b.dts = b.dts[nearest:]
	}
	if len(b.poses) < 3 {
		return false
	}
	b.poses[0] = start
	b.poses[len(b.poses)-1] = goal
	return true
}

// ensureMinSamples interpolates additional poses on the longest transitions
// until the band carries at least minSamples poses.
func (b *band) ensureMinSamples(minSamples int) {
	if minSamples < 3 {
		minSamples = 3
	}
	for len(b.poses) < minSamples {
		// Split the longest segment.
		longest, longestIdx := -1.0, 0
		for i := 1; i < len(b.poses); i++ {
			if d := b.poses[i].Distance(b.poses[i-1]); d > longest {
				longest, longestIdx = d, i
			}
		}
		mid := b.poses[longestIdx-1].Interpolate(b.poses[longestIdx], 0.5)
		b.poses = append(b.poses[:longestIdx], append([]geom.PoseSE2{mid}, b.poses[longestIdx:]...)...)
	}
}

// initTimeDiffs assigns each transition the desired resolution, stretched
// where a transition is longer than dtRef would allow at a nominal speed.
func (b *band) initTimeDiffs(dtRef float64) {
	if dtRef <= 0 {
		dtRef = 0.3
	}
	b.dts = make([]float64, len(b.poses)-1)
	for i := range b.dts {
		b.dts[i] = dtRef
	}
}

// overwriteOrientations points every interior pose at its successor, the
// usual treatment for global-planner subgoals whose headings are meaningless.
func (b *band) overwriteOrientations() {
	for i := 0; i+1 < len(b.poses); i++ {
		if i == 0 {
			continue // current robot heading is real
		}
		b.poses[i].Theta = b.poses[i].HeadingTo(b.poses[i+1])
	}
	if n := len(b.poses); n >= 2 {
		b.poses[n-1].Theta = b.poses[n-2].HeadingTo(b.poses[n-1])
	}
}

// autoResize keeps the temporal resolution near dtRef: transitions slower
// than dtRef+hysteresis are split, transitions faster than dtRef-hysteresis
// are merged, respecting minSamples. One pass per outer iteration, the same
// scheme the original band uses.
func (b *band) autoResize(dtRef, hysteresis float64, minSamples int) {
	if dtRef <= 0 {
		return
	}
	for i := 0; i < len(b.dts); i++ {
		if b.dts[i] > dtRef+hysteresis && len(b.poses) < maxBandSamples {
			// Split transition i.
			mid := b.poses[i].Interpolate(b.poses[i+1], 0.5)
			half := b.dts[i] / 2
			b.poses = append(b.poses[:i+1], append([]geom.PoseSE2{mid}, b.poses[i+1:]...)...)
			b.dts = append(b.dts[:i], append([]float64{half, half}, b.dts[i+1:]...)...)
			i++
		} else if b.dts[i] < dtRef-hysteresis && len(b.poses) > minSamples {
			// Merge transition i into its neighbor.
			if i+1 < len(b.dts) {
				b.dts[i+1] += b.dts[i]
				b.poses = append(b.poses[:i+1], b.poses[i+2:]...)
				b.dts = append(b.dts[:i], b.dts[i+1:]...)
				i--
			}
		}
	}
}

// maxBandSamples bounds band growth; beyond this the horizon should shrink
// instead.
const maxBandSamples = 100

// trajectory converts the band into the exchange representation. Velocities
// are finite differences over each transition; the final point carries the
// goal velocity.
func (b *band) trajectory(goalVel geom.Twist) plan.Trajectory {
	n := b.n()
	if n == 0 {
		return nil
	}
	traj := make(plan.Trajectory, n)
	elapsed := 0.0
	for i := 0; i < n; i++ {
		var vel geom.Twist
		if i < n-1 {
			vel = transitionVelocity(b.poses[i], b.poses[i+1], b.dts[i])
		} else {
			vel = goalVel
		}
		traj[i] = plan.TrajectoryPoint{
			Pose:          b.poses[i],
			Velocity:      vel,
			TimeFromStart: secondsToDuration(elapsed),
		}
		if i < n-1 {
			elapsed += b.dts[i]
		}
	}
	return traj
}

// transitionVelocity computes the finite-difference velocity over one
// transition. Translational velocity is signed by the direction of motion
// relative to the start heading, so backward driving yields negative v.
func transitionVelocity(from, to geom.PoseSE2, dt float64) geom.Twist {
	if dt <= 0 {
		return geom.Twist{}
	}
	dist := from.Distance(to)
	sin, cos := math.Sincos(from.Theta)
	forward := (to.X-from.X)*cos + (to.Y-from.Y)*sin
	if forward < 0 {
		dist = -dist
	}
	return geom.Twist{
		Linear:  dist / dt,
		Angular: geom.AngleDiff(to.Theta, from.Theta) / dt,
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
