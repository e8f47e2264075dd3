package main

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
	"github.com/banshee-data/trajectory.planner/internal/plan"
)

// PoseDTO is one reference pose on the wire.
type PoseDTO struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// TwistDTO is a velocity on the wire.
type TwistDTO struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// ObstacleDTO is a point or circular obstacle on the wire. Radius zero means
// a point obstacle; a velocity makes it dynamic.
type ObstacleDTO struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius,omitempty"`
	VX     float64 `json:"vx,omitempty"`
	VY     float64 `json:"vy,omitempty"`
}

// PlanRequestDTO is the body of POST /api/planner/plan.
type PlanRequestDTO struct {
	Path        []PoseDTO            `json:"path"`
	StartVel    *TwistDTO            `json:"start_vel,omitempty"`
	FreeGoalVel bool                 `json:"free_goal_vel,omitempty"`
	Humans      map[uint64][]PoseDTO `json:"humans,omitempty"`
	Obstacles   []ObstacleDTO        `json:"obstacles,omitempty"`
}

// PlanResponseDTO reports one planning cycle's outcome.
type PlanResponseDTO struct {
	RunID      string    `json:"run_id,omitempty"`
	Feasible   bool      `json:"feasible"`
	Linear     float64   `json:"linear"`
	Angular    float64   `json:"angular"`
	Costs      []float64 `json:"costs,omitempty"`
	DurationMS float64   `json:"duration_ms"`
	Trajectory []PoseDTO `json:"trajectory,omitempty"`
}

// toRequest converts the wire path into a planning request with timestamps
// synthesized at one second per pose; the planner rescales them anyway.
func (dto PlanRequestDTO) toRequest() (plan.Request, error) {
	if len(dto.Path) < 2 {
		return plan.Request{}, fmt.Errorf("path needs at least 2 poses, got %d", len(dto.Path))
	}
	req := plan.Request{Path: timedPoses(dto.Path)}
	if dto.StartVel != nil {
		req.StartVel = geom.Twist{Linear: dto.StartVel.Linear, Angular: dto.StartVel.Angular}
	}
	if !req.Valid() {
		return plan.Request{}, fmt.Errorf("path contains non-finite values")
	}
	return req, nil
}

// humanPlans converts the wire human paths, dropping degenerate ones.
func (dto PlanRequestDTO) humanPlans() plan.HumanPlanIndex {
	if len(dto.Humans) == 0 {
		return nil
	}
	idx := make(plan.HumanPlanIndex, len(dto.Humans))
	for id, poses := range dto.Humans {
		if len(poses) < 2 {
			continue
		}
		idx[id] = plan.Request{Path: timedPoses(poses)}
	}
	return idx
}

// obstacleSet converts the wire obstacles.
func (dto PlanRequestDTO) obstacleSet() obstacles.Set {
	if len(dto.Obstacles) == 0 {
		return nil
	}
	set := make(obstacles.Set, 0, len(dto.Obstacles))
	for _, o := range dto.Obstacles {
		if !isFinite(o.X, o.Y, o.Radius, o.VX, o.VY) {
			continue
		}
		vel := geom.Point2{X: o.VX, Y: o.VY}
		if o.Radius > 0 {
			set = append(set, &obstacles.CircleObstacle{
				Pos: geom.Point2{X: o.X, Y: o.Y}, Radius: o.Radius, Vel: vel,
			})
		} else {
			set = append(set, &obstacles.PointObstacle{
				Pos: geom.Point2{X: o.X, Y: o.Y}, Vel: vel,
			})
		}
	}
	return set
}

func timedPoses(poses []PoseDTO) []plan.TimedPose {
	now := time.Now()
	out := make([]plan.TimedPose, len(poses))
	for i, p := range poses {
		out[i] = plan.TimedPose{
			Pose: geom.PoseSE2{X: p.X, Y: p.Y, Theta: p.Theta},
			Time: now.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

func isFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func trajectoryPoses(traj plan.Trajectory) []PoseDTO {
	out := make([]PoseDTO, len(traj))
	for i, pt := range traj {
		out[i] = PoseDTO{X: pt.Pose.X, Y: pt.Pose.Y, Theta: pt.Pose.Theta}
	}
	return out
}
