package planner

import (
	"github.com/banshee-data/trajectory.planner/internal/footprint"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/plan"
)

// SweepFeasible runs the bounded feasibility sweep shared by the concrete
// planners: it tests the footprint at each of the first lookAhead trajectory
// poses, earliest first, stopping at the first collision. lookAhead < 0
// checks the whole trajectory; larger values are clamped to its length.
//
// Returns true when every checked pose is collision-free. An empty
// trajectory has nothing to collide and reports false: there is no plan to
// execute, so it must not be treated as safe.
func SweepFeasible(traj plan.Trajectory, model footprint.Model, polygon []geom.Point2, inscribed, circumscribed float64, lookAhead int) bool {
	if len(traj) == 0 || model == nil {
		return false
	}
	if lookAhead < 0 || lookAhead > len(traj) {
		lookAhead = len(traj)
	}
	for i := 0; i < lookAhead; i++ {
		if model.InCollision(traj[i].Pose, polygon, inscribed, circumscribed) {
			return false
		}
	}
	return true
}
