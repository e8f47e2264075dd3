package teb

import (
	"math"
	"sort"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/plan"
)

// humanBand is the optimized/predicted motion of one human over the planning
// horizon: poses along the human's reference path with a velocity profile
// bounded by the human kinodynamic limits.
type humanBand struct {
	id    uint64
	poses []geom.PoseSE2
	times []float64 // cumulative seconds, times[0] == 0
}

// buildHumanBands converts the per-cycle human plan index into bands,
// ordered by identifier so planning stays deterministic.
func buildHumanBands(plans plan.HumanPlanIndex, snap *config.Config) []*humanBand {
	if len(plans) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(plans))
	for id := range plans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	bands := make([]*humanBand, 0, len(ids))
	for _, id := range ids {
		if hb := newHumanBand(id, plans[id], snap); hb != nil {
			bands = append(bands, hb)
		}
	}
	return bands
}

// newHumanBand seeds a band along the human's reference path with a
// trapezoidal velocity profile: accelerate at the human acceleration limit
// toward the nominal speed, never exceeding the maximum.
func newHumanBand(id uint64, req plan.Request, snap *config.Config) *humanBand {
	if !req.Valid() {
		return nil
	}
	hum := &snap.Human

	poses := make([]geom.PoseSE2, len(req.Path))
	for i, tp := range req.Path {
		poses[i] = tp.Pose
	}
	// Honor the minimum sample count the way the robot band does.
	for len(poses) < snap.Trajectory.HumanMinSamples {
		longest, idx := -1.0, 1
		for i := 1; i < len(poses); i++ {
			if d := poses[i].Distance(poses[i-1]); d > longest {
				longest, idx = d, i
			}
		}
		if len(poses) < 2 {
			poses = append(poses, poses[0])
			continue
		}
		mid := poses[idx-1].Interpolate(poses[idx], 0.5)
		poses = append(poses[:idx], append([]geom.PoseSE2{mid}, poses[idx:]...)...)
	}

	cruise := hum.NominalVelX
	if cruise <= 0 || cruise > hum.MaxVelX {
		cruise = hum.MaxVelX
	}
	if cruise <= 0 {
		cruise = 0.1
	}

	v := req.StartVel.Linear
	if v < 0 {
		v = 0
	}
	times := make([]float64, len(poses))
	for i := 1; i < len(poses); i++ {
		dist := poses[i].Distance(poses[i-1])
		if dist <= 0 {
			times[i] = times[i-1] + 1e-3
			continue
		}
		// Advance speed toward cruise over this segment.
		if hum.AccLimX > 0 && v < cruise {
			v = math.Min(cruise, math.Sqrt(v*v+2*hum.AccLimX*dist))
		} else if v > cruise {
			v = cruise
		}
		if v <= 0 {
			v = cruise
		}
		times[i] = times[i-1] + dist/v
	}

	return &humanBand{id: id, poses: poses, times: times}
}

func (h *humanBand) duration() float64 {
	if len(h.times) == 0 {
		return 0
	}
	return h.times[len(h.times)-1]
}

// positionAt interpolates the human's position at elapsed seconds; beyond
// the band the human is assumed to stop at the final pose.
func (h *humanBand) positionAt(elapsed float64) geom.Point2 {
	if len(h.poses) == 0 {
		return geom.Point2{}
	}
	if elapsed <= 0 || len(h.poses) == 1 {
		return h.poses[0].Position()
	}
	for i := 1; i < len(h.times); i++ {
		if elapsed <= h.times[i] {
			span := h.times[i] - h.times[i-1]
			if span <= 0 {
				return h.poses[i].Position()
			}
			frac := (elapsed - h.times[i-1]) / span
			return h.poses[i-1].Interpolate(h.poses[i], frac).Position()
		}
	}
	return h.poses[len(h.poses)-1].Position()
}

// initialVelocity returns the human's velocity vector over the first
// transition.
func (h *humanBand) initialVelocity() geom.Point2 {
	if len(h.poses) < 2 {
		return geom.Point2{}
	}
	dt := h.times[1] - h.times[0]
	if dt <= 0 {
		return geom.Point2{}
	}
	return geom.Point2{
		X: (h.poses[1].X - h.poses[0].X) / dt,
		Y: (h.poses[1].Y - h.poses[0].Y) / dt,
	}
}

// initialHeading returns the human's heading over the first transition, or
// the first pose heading for a stationary human.
func (h *humanBand) initialHeading() float64 {
	if len(h.poses) >= 2 && h.poses[0].Distance(h.poses[1]) > 1e-9 {
		return h.poses[0].HeadingTo(h.poses[1])
	}
	return h.poses[0].Theta
}

// trajectory converts the band into the exchange representation for
// FullHumanTrajectory.
func (h *humanBand) trajectory() plan.Trajectory {
	traj := make(plan.Trajectory, len(h.poses))
	for i := range h.poses {
		var vel geom.Twist
		if i+1 < len(h.poses) {
			dt := h.times[i+1] - h.times[i]
			vel = transitionVelocity(h.poses[i], h.poses[i+1], dt)
		}
		traj[i] = plan.TrajectoryPoint{
			Pose:          h.poses[i],
			Velocity:      vel,
			TimeFromStart: time.Duration(h.times[i] * float64(time.Second)),
		}
	}
	return traj
}
