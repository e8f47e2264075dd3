// Package planner defines the lifecycle contract every optimizer-backed
// local planner satisfies: plan, query the velocity command, check
// feasibility, report costs, and reset. Concrete planners live in the
// subpackages; hosts program against the Planner interface alone.
package planner

import (
	"time"

	"github.com/banshee-data/trajectory.planner/internal/footprint"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/plan"
)

// State tracks where a planner is in its lifecycle. Transitions are driven
// entirely by the host: Plan moves to one of the planned states, ClearPlanner
// returns to Uninitialized. There are no implicit timeouts.
type State int

const (
	// Uninitialized: no plan has been produced since construction or the
	// last reset. Velocity commands are unavailable.
	Uninitialized State = iota
	// PlannedFeasible: the last Plan call produced a usable trajectory.
	PlannedFeasible
	// PlannedInfeasible: the last Plan call failed; any previously computed
	// velocity command is stale and must not be used.
	PlannedInfeasible
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case PlannedFeasible:
		return "planned-feasible"
	case PlannedInfeasible:
		return "planned-infeasible"
	default:
		return "unknown"
	}
}

// Options carries the optional inputs shared by all three plan call shapes.
type Options struct {
	// StartVel is the velocity the robot currently carries. Nil means
	// unknown; the planner assumes rest.
	StartVel *geom.Twist
	// FreeGoalVel allows a nonzero final velocity at the goal. When false
	// (the default) the optimizer constrains final velocity to zero.
	FreeGoalVel bool
	// HumanPlans supplies per-human reference paths for the current cycle.
	// Consumed read-only for the duration of the call, never stored.
	HumanPlans plan.HumanPlanIndex
	// Costs, when non-nil, receives one scalar per trajectory candidate on
	// a successful plan.
	Costs *plan.CostVector
}

// Planner is the contract between the host control loop and any concrete
// local planner. All methods are synchronous; Plan may block for the full
// optimization budget. Results of Plan are visible to the query methods only
// after Plan returns and only until the next Plan or ClearPlanner call.
//
// Every failure is signaled through return values. No method panics on bad
// input.
type Planner interface {
	// Plan optimizes a trajectory that tracks the reference path in the
	// request. It returns false, leaving a previously valid trajectory
	// unmutated, if the input is degenerate or the optimization does not
	// converge; after a false return VelocityCommand also fails until the
	// next successful Plan.
	Plan(req plan.Request, opts Options) bool

	// PlanBetween optimizes a trajectory between a bare start and goal pose.
	// Equivalent to Plan with a two-pose reference path.
	PlanBetween(start, goal geom.PoseSE2, opts Options) bool

	// PlanTimed is PlanBetween with a latency hint: prePlanTime is
	// computation time already spent before this call, which the planner
	// accounts for when time-stamping the produced trajectory.
	PlanTimed(start, goal geom.PoseSE2, opts Options, prePlanTime time.Duration) bool

	// VelocityCommand extracts the translational and rotational velocity
	// from the current trajectory's first transition. It returns false and
	// leaves *v and *omega untouched if no feasible trajectory exists.
	// Calling it before any successful Plan is a caller error signaled by
	// the return value, never a fault.
	VelocityCommand(v, omega *float64) bool

	// ClearPlanner unconditionally resets to Uninitialized, discarding the
	// trajectory and any cached solver state. Safe to call at any time.
	ClearPlanner()

	// State reports the current lifecycle state.
	State() State

	// IsTrajectoryFeasible sweeps the robot footprint along the first
	// lookAhead trajectory poses (the whole trajectory if lookAhead < 0;
	// clamped to the trajectory length otherwise) against the supplied
	// collision model.
	//
	// Polarity: returns true when the checked prefix is collision-free,
	// false on the first detected collision. A false result is the signal
	// to consult IsHorizonReductionAppropriate.
	IsTrajectoryFeasible(model footprint.Model, polygon []geom.Point2, inscribed, circumscribed float64, lookAhead int) bool

	// IsHorizonReductionAppropriate is advisory only: called after a
	// trajectory was judged infeasible or degenerate, it reports whether
	// retrying with a shortened horizon is likely to help. Planners without
	// an opinion return false.
	IsHorizonReductionAppropriate(path []plan.TimedPose) bool

	// ComputeCurrentCost fills one scalar per live trajectory candidate
	// with the weighted sum of the optimizer's cost terms, scaling only the
	// obstacle term by obstacleCostScale. When alternativeTimeCost is set
	// the time-optimality term is replaced by the literal weighted
	// transition time. Single-candidate planners must not resize the
	// caller's vector.
	ComputeCurrentCost(costs *plan.CostVector, obstacleCostScale float64, alternativeTimeCost bool)

	// FullTrajectory returns a copy of the complete current trajectory, or
	// nil if none exists.
	FullTrajectory() plan.Trajectory

	// FullHumanTrajectory returns a copy of the predicted trajectory for
	// the identified human. Unknown identifiers yield (nil, false), never
	// a fault.
	FullHumanTrajectory(humanID uint64) (plan.Trajectory, bool)

	// Visualize pushes debug artifacts to the configured visualization
	// sink. Never required for correctness.
	Visualize()
}

// Stubs carries the documented default behaviors for the optional
// capabilities of the contract. Concrete planners embed it and override what
// they actually support.
type Stubs struct{}

// Visualize is a no-op by default.
func (Stubs) Visualize() {}

// ComputeCurrentCost is a no-op by default.
func (Stubs) ComputeCurrentCost(costs *plan.CostVector, obstacleCostScale float64, alternativeTimeCost bool) {
}

// FullTrajectory returns nil by default.
func (Stubs) FullTrajectory() plan.Trajectory { return nil }

// IsHorizonReductionAppropriate never recommends reduction by default.
func (Stubs) IsHorizonReductionAppropriate(path []plan.TimedPose) bool { return false }
