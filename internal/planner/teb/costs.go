package teb

import (
	"math"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
)

// costTerms is the per-term breakdown of one band evaluation. Every value is
// already weighted; the obstacle term is kept separate so a caller can apply
// an extra scale when ranking candidates.
type costTerms struct {
	Time             float64
	Kinematics       float64
	Velocity         float64
	Acceleration     float64
	Obstacle         float64
	Viapoint         float64
	HumanRobotSafety float64
	HumanHumanSafety float64
	TTC              float64
	TTClosest        float64
	Dir              float64
	Visibility       float64
	OmegaChange      float64

	// TransitionTime is the raw (unweighted) total transition time, kept
	// for the alternative-time-cost reporting mode.
	TransitionTime float64
}

// total folds the terms into one scalar, scaling only the obstacle term.
func (t costTerms) total(obstacleScale float64) float64 {
	return t.Time + t.Kinematics + t.Velocity + t.Acceleration +
		t.Obstacle*obstacleScale + t.Viapoint +
		t.HumanRobotSafety + t.HumanHumanSafety +
		t.TTC + t.TTClosest + t.Dir + t.Visibility + t.OmegaChange
}

// penaltyBelow returns how far value sits below the soft bound min+eps.
func penaltyBelow(value, min, eps float64) float64 {
	if v := min + eps - value; v > 0 {
		return v
	}
	return 0
}

// penaltyAbove returns how far value sits above the soft bound max-eps.
func penaltyAbove(value, max, eps float64) float64 {
	if v := value - max + eps; v > 0 {
		return v
	}
	return 0
}

// penaltyInterval penalizes values outside [min+eps, max-eps].
func penaltyInterval(value, min, max, eps float64) float64 {
	if v := penaltyAbove(value, max, eps); v > 0 {
		return v
	}
	return penaltyBelow(value, min, eps)
}

// evaluate computes every active cost term for the band against a config
// snapshot, the obstacle layer and the current cycle's human bands.
func evaluate(b *band, snap *config.Config, obst obstacles.Set, humans []*humanBand, viaPoints []geom.Point2) costTerms {
	var t costTerms
	n := b.n()
	if n < 2 {
		return t
	}
	opt := &snap.Optimization
	eps := opt.PenaltyEpsilon

	// Time optimality: quadratic in each transition time, optionally capped.
	for _, dt := range b.dts {
		t.TransitionTime += dt
		c := dt * dt
		if opt.CapOptimalTimePenalty && c > dt+opt.TimePenaltyEpsilon {
			c = dt + opt.TimePenaltyEpsilon
		}
		t.Time += opt.WeightOptimalTime * c
	}

	// Per-transition velocity and kinematics.
	prevVel := geom.Twist{}
	havePrev := false
	for i := 0; i+1 < n; i++ {
		p, q := b.poses[i], b.poses[i+1]
		dt := b.dts[i]
		vel := transitionVelocity(p, q, dt)

		t.Velocity += opt.WeightMaxVelX * penaltyInterval(vel.Linear, -snap.Robot.MaxVelXBackwards, snap.Robot.MaxVelX, eps)
		t.Velocity += opt.WeightMaxVelTheta * penaltyAbove(math.Abs(vel.Angular), snap.Robot.MaxVelTheta, eps)

		// Non-holonomic constraint: both headings must agree with the arc
		// connecting the poses.
		dx, dy := q.X-p.X, q.Y-p.Y
		cosAvg := (math.Cos(p.Theta) + math.Cos(q.Theta)) / 2
		sinAvg := (math.Sin(p.Theta) + math.Sin(q.Theta)) / 2
		t.Kinematics += opt.WeightKinematicsNH * math.Abs(cosAvg*dy-sinAvg*dx)

		// Forward drive preference.
		if vel.Linear < 0 {
			t.Kinematics += opt.WeightKinematicsForward * -vel.Linear
		}

		// Minimum turning radius (carlike robots only).
		if snap.Robot.MinTurningRadius > 0 && math.Abs(vel.Angular) > 1e-9 {
			radius := math.Abs(vel.Linear / vel.Angular)
			t.Kinematics += opt.WeightKinematicsTurning * penaltyBelow(radius, snap.Robot.MinTurningRadius, eps)
		}

		// Acceleration between consecutive transitions.
		if havePrev && dt > 0 {
			accX := (vel.Linear - prevVel.Linear) / dt
			accTheta := (vel.Angular - prevVel.Angular) / dt
			t.Acceleration += opt.WeightAccLimX * penaltyAbove(math.Abs(accX), snap.Robot.AccLimX, eps)
			t.Acceleration += opt.WeightAccLimTheta * penaltyAbove(math.Abs(accTheta), snap.Robot.AccLimTheta, eps)
		}

		// Rapid angular-velocity reversals within the configured window.
		if opt.DisableRapidOmegaChange && havePrev &&
			vel.Angular*prevVel.Angular < 0 && dt < opt.OmegaChangeTimeSeparation {
			t.OmegaChange += opt.WeightMaxVelTheta * math.Abs(vel.Angular-prevVel.Angular)
		}

		prevVel = vel
		havePrev = true
	}

	// Obstacle clearance: each obstacle attaches to its closest pose and a
	// window of neighbors, not the whole band.
	if len(obst) > 0 {
		window := snap.Obstacles.ObstaclePosesAffected / 2
		if window < 0 {
			window = 0
		}
		for _, o := range obst {
			closest, closestDist := 0, math.Inf(1)
			for i := 0; i < n; i++ {
				if d := o.Distance(b.poses[i].Position()); d < closestDist {
					closest, closestDist = i, d
				}
			}
			lo, hi := closest-window, closest+window
			if lo < 0 {
				lo = 0
			}
			if hi > n-1 {
				hi = n - 1
			}
			for i := lo; i <= hi; i++ {
				d := o.Distance(b.poses[i].Position())
				p := penaltyBelow(d, snap.Obstacles.MinObstacleDist, eps)
				if p > 0 && snap.Obstacles.UseNonlinearObstaclePenalty {
					p = p * p
				}
				t.Obstacle += opt.WeightObstacle * snap.Obstacles.ObstacleCostMult * p
			}
		}
	}

	// Via points: minimum band distance to each via point.
	for _, vp := range viaPoints {
		min := math.Inf(1)
		for i := 0; i < n; i++ {
			if d := b.poses[i].Position().DistanceTo(vp); d < min {
				min = d
			}
		}
		t.Viapoint += opt.WeightViapoint * min
	}

	evaluateHumanTerms(&t, b, snap, humans)
	return t
}

// evaluateHumanTerms adds the human-aware safety terms: separations, time to
// collision and its closest-approach variant, approach direction and
// visibility. Each term is gated by its enable flag; the config is the
// single source of truth for every threshold and weight.
func evaluateHumanTerms(t *costTerms, b *band, snap *config.Config, humans []*humanBand) {
	if len(humans) == 0 || snap.PlanningMode == config.ModeVanilla {
		return
	}
	opt := &snap.Optimization
	hum := &snap.Human
	eps := opt.PenaltyEpsilon
	n := b.n()

	// Human-robot minimum separation along matched timestamps.
	if opt.UseHumanRobotSafety {
		elapsed := 0.0
		for i := 0; i < n; i++ {
			robotPos := b.poses[i].Position()
			for _, h := range humans {
				hp := h.positionAt(elapsed)
				d := robotPos.DistanceTo(hp) - hum.Radius
				p := penaltyBelow(d, hum.MinHumanRobotDist, eps)
				if p > 0 {
					t.HumanRobotSafety += opt.WeightHumanRobotSafety * p * p
				}
			}
			if i < len(b.dts) {
				elapsed += b.dts[i]
			}
		}
	}

	// Human-human minimum separation.
	if opt.UseHumanHumanSafety && len(humans) > 1 {
		for ai := 0; ai < len(humans); ai++ {
			for bi := ai + 1; bi < len(humans); bi++ {
				horizon := math.Min(humans[ai].duration(), humans[bi].duration())
				for ts := 0.0; ts <= horizon; ts += 0.3 {
					d := humans[ai].positionAt(ts).DistanceTo(humans[bi].positionAt(ts)) - 2*hum.Radius
					p := penaltyBelow(d, hum.MinHumanHumanDist, eps)
					if p > 0 {
						t.HumanHumanSafety += opt.WeightHumanHumanSafety * p * p
					}
				}
			}
		}
	}

	// Time-to-collision terms use the initial relative state.
	robotVel := geom.Twist{}
	if n >= 2 {
		robotVel = transitionVelocity(b.poses[0], b.poses[1], b.dts[0])
	}
	sin, cos := math.Sincos(b.poses[0].Theta)
	rvx, rvy := robotVel.Linear*cos, robotVel.Linear*sin
	robotPos := b.poses[0].Position()

	for _, h := range humans {
		hv := h.initialVelocity()
		hp := h.positionAt(0)

		relPos := hp.Sub(robotPos)
		relVel := geom.Point2{X: hv.X - rvx, Y: hv.Y - rvy}

		if opt.UseHumanRobotTTC {
			if ttc, ok := timeToCollision(relPos, relVel, hum.Radius); ok && ttc < hum.TTCThreshold {
				c := hum.TTCThreshold - ttc
				if opt.ScaleHumanRobotTTC {
					c = math.Pow(c, opt.HumanRobotTTCScaleAlpha)
				}
				t.TTC += opt.WeightHumanRobotTTC * c
			}
		}

		if opt.UseHumanRobotTTClosest {
			tc, dc := closestApproach(relPos, relVel)
			if tc > 0 && dc < hum.MinHumanRobotDist && tc < hum.TTClosestThreshold {
				t.TTClosest += opt.WeightHumanRobotTTClosest * (hum.TTClosestThreshold - tc)
			}
		}

		// Directional penalty: robot velocity pointed at the human.
		if opt.UseHumanRobotDir && relPos.Norm() > 1e-9 && robotVel.Linear > 0 {
			heading := geom.Point2{X: cos, Y: sin}
			toward := heading.Dot(relPos) / relPos.Norm()
			if toward > 0 {
				t.Dir += opt.WeightHumanRobotDir * toward * robotVel.Linear
			}
		}

		// Visibility: approaching a human from outside their field of view.
		if opt.UseHumanRobotVisibility && hum.FOV > 0 {
			bearing := math.Atan2(robotPos.Y-hp.Y, robotPos.X-hp.X)
			off := math.Abs(geom.AngleDiff(bearing, h.initialHeading()))
			if off > hum.FOV/2 {
				t.Visibility += opt.WeightHumanRobotVisibility * (off - hum.FOV/2)
			}
		}
	}
}

// timeToCollision solves for the time at which the relative distance shrinks
// to the combined radius, assuming constant velocities. ok is false when the
// two are separating or never close within the radius.
func timeToCollision(relPos, relVel geom.Point2, radius float64) (float64, bool) {
	a := relVel.Dot(relVel)
	if a < 1e-12 {
		return 0, false
	}
	b := 2 * relPos.Dot(relVel)
	c := relPos.Dot(relPos) - radius*radius
	if c <= 0 {
		return 0, true // already inside the radius
	}
	disc := b*b - 4*a*c
	if disc < 0 || b >= 0 {
		return 0, false
	}
	ttc := (-b - math.Sqrt(disc)) / (2 * a)
	if ttc < 0 {
		return 0, false
	}
	return ttc, true
}

// closestApproach returns the time of minimum separation and the separation
// at that time, under constant velocities.
func closestApproach(relPos, relVel geom.Point2) (float64, float64) {
	a := relVel.Dot(relVel)
	if a < 1e-12 {
		return 0, relPos.Norm()
	}
	tc := -relPos.Dot(relVel) / a
	if tc < 0 {
		return tc, relPos.Norm()
	}
	at := geom.Point2{X: relPos.X + relVel.X*tc, Y: relPos.Y + relVel.Y*tc}
	return tc, at.Norm()
}
