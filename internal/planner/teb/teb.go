package teb

import (
	"log"
	"math"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/footprint"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
	"github.com/banshee-data/trajectory.planner/internal/plan"
	"github.com/banshee-data/trajectory.planner/internal/planner"
)

// Visualizer receives the planner's debug artifacts. Implementations live
// with the host (publisher, plotter); the planner never depends on one for
// correctness.
type Visualizer interface {
	PublishLocalPlan(traj plan.Trajectory)
	PublishHumanPlans(trajs map[uint64]plan.Trajectory)
}

// Planner is the single-trajectory timed-elastic-band planner. It owns its
// band exclusively: results of Plan are visible to the query methods only
// between calls, and the band may be rebuilt in place by the next Plan.
type Planner struct {
	planner.Stubs

	cfg        *config.Config
	obstacles  obstacles.Set
	viaPoints  []geom.Point2
	visualizer Visualizer

	band       *band
	traj       plan.Trajectory
	humanTrajs map[uint64]plan.Trajectory
	terms      costTerms
	state      planner.State

	// Horizon-reduction hysteresis.
	consecutiveFailures int
	horizonReduced      bool

	lastGoal     geom.PoseSE2
	haveTrajGoal bool
}

var _ planner.Planner = (*Planner)(nil)

// New creates a planner bound to the shared config. The obstacle set may be
// replaced per cycle via SetObstacles.
func New(cfg *config.Config) *Planner {
	return &Planner{cfg: cfg, state: planner.Uninitialized}
}

// SetObstacles installs the obstacle layer for subsequent plan calls.
func (p *Planner) SetObstacles(set obstacles.Set) { p.obstacles = set }

// SetVisualizer installs the debug sink used by Visualize.
func (p *Planner) SetVisualizer(v Visualizer) { p.visualizer = v }

// SetViaPoints installs attractor points extracted from the global plan.
func (p *Planner) SetViaPoints(points []geom.Point2) { p.viaPoints = points }

// Plan optimizes a trajectory tracking the reference path in the request.
func (p *Planner) Plan(req plan.Request, opts planner.Options) bool {
	return p.planInternal(req, opts, 0)
}

// PlanBetween plans between a bare start and goal pose.
func (p *Planner) PlanBetween(start, goal geom.PoseSE2, opts planner.Options) bool {
	return p.PlanTimed(start, goal, opts, 0)
}

// PlanTimed plans between start and goal, discounting computation time the
// caller already spent this cycle: the produced trajectory is stamped as if
// planning had started prePlanTime ago.
func (p *Planner) PlanTimed(start, goal geom.PoseSE2, opts planner.Options, prePlanTime time.Duration) bool {
	now := time.Now()
	req := plan.Request{
		Path: []plan.TimedPose{
			{Pose: start, Time: now},
			{Pose: goal, Time: now},
		},
	}
	if opts.StartVel != nil {
		req.StartVel = *opts.StartVel
	}
	return p.planInternal(req, opts, prePlanTime)
}

func (p *Planner) planInternal(req plan.Request, opts planner.Options, prePlanTime time.Duration) bool {
	if !req.Valid() {
		p.fail("degenerate plan request")
		return false
	}
	if opts.StartVel != nil {
		req.StartVel = *opts.StartVel
	}

	snap := p.cfg.Snapshot()

	// A goal far from the previous one invalidates any warm start.
	if p.haveTrajGoal && req.Goal().Distance(p.lastGoal) > snap.Trajectory.ForceReinitNewGoalDist {
		p.band = nil
	}

	tcfg := snap.Trajectory
	if p.horizonReduced && tcfg.ShrinkHorizonBackup {
		req = shrinkHorizon(req, tcfg.HorizonReductionAmount)
	}

	var b *band
	if p.band != nil && !snap.Optimization.DisableWarmStart &&
		p.band.warmStart(req.Start(), req.Goal()) {
		b = p.band
	} else if len(req.Path) == 2 {
		b = newBandBetween(req.Start(), req.Goal(), tcfg)
	} else {
		b = newBandFromPath(req.Path, tcfg)
	}
	if b == nil || b.n() < 2 {
		p.fail("reference path collapsed during initialization")
		return false
	}

	humans := buildHumanBands(opts.HumanPlans, &snap)

	terms, ok := optimize(b, p.cfg, p.obstacles, humans, p.viaPoints)
	if !ok {
		p.consecutiveFailures++
		p.state = planner.PlannedInfeasible
		log.Printf("plan failed to converge (failures=%d)", p.consecutiveFailures)
		return false
	}

	goalVel := geom.Twist{}
	if opts.FreeGoalVel || snap.GoalTolerance.FreeGoalVel {
		if n := b.n(); n >= 2 {
			goalVel = transitionVelocity(b.poses[n-2], b.poses[n-1], b.dts[n-2])
		}
	}

	p.band = b
	p.terms = terms
	p.traj = applyLatency(b.trajectory(goalVel), prePlanTime)
	p.humanTrajs = make(map[uint64]plan.Trajectory, len(humans))
	for _, h := range humans {
		p.humanTrajs[h.id] = h.trajectory()
	}
	p.state = planner.PlannedFeasible
	p.lastGoal = req.Goal()
	p.haveTrajGoal = true

	// Successful planning restores the full horizon.
	p.consecutiveFailures = 0
	p.horizonReduced = false

	if opts.Costs != nil {
		p.ComputeCurrentCost(opts.Costs, 1.0, false)
	}
	return true
}

func (p *Planner) fail(reason string) {
	log.Printf("plan rejected: %s", reason)
	p.consecutiveFailures++
	p.state = planner.PlannedInfeasible
}

// shrinkHorizon drops the tail of the reference path, keeping the given
// fraction of its poses (at least two).
func shrinkHorizon(req plan.Request, fraction float64) plan.Request {
	keep := int(math.Ceil(float64(len(req.Path)) * fraction))
	if keep < 2 {
		keep = 2
	}
	if keep >= len(req.Path) {
		return req
	}
	out := req
	out.Path = req.Path[:keep]
	out.GoalVel = geom.Twist{} // the truncated goal is an intermediate pose
	return out
}

// applyLatency shifts trajectory timestamps backward by the computation time
// already spent, flooring at zero so the first transition reflects the time
// actually remaining.
func applyLatency(traj plan.Trajectory, prePlanTime time.Duration) plan.Trajectory {
	if prePlanTime <= 0 {
		return traj
	}
	for i := range traj {
		if traj[i].TimeFromStart > prePlanTime {
			traj[i].TimeFromStart -= prePlanTime
		} else {
			traj[i].TimeFromStart = time.Duration(i) // preserve monotonicity at ns scale
		}
	}
	return traj
}

// VelocityCommand extracts v and omega from the first transition of the
// current trajectory. Outputs stay untouched unless a feasible trajectory
// exists.
func (p *Planner) VelocityCommand(v, omega *float64) bool {
	if p.state != planner.PlannedFeasible || len(p.traj) < 2 {
		return false
	}
	first := p.traj[0].Velocity
	if v != nil {
		*v = first.Linear
	}
	if omega != nil {
		if p.steerAngleInsteadOmega() {
			*omega = steeringAngle(first, p.wheelbase())
		} else {
			*omega = first.Angular
		}
	}
	return true
}

func (p *Planner) steerAngleInsteadOmega() bool {
	p.cfg.Lock()
	defer p.cfg.Unlock()
	return p.cfg.Robot.CmdAngleInsteadRotvel
}

func (p *Planner) wheelbase() float64 {
	p.cfg.Lock()
	defer p.cfg.Unlock()
	return p.cfg.Robot.Wheelbase
}

// steeringAngle converts a twist into the equivalent front-wheel steering
// angle for a carlike robot.
func steeringAngle(vel geom.Twist, wheelbase float64) float64 {
	if math.Abs(vel.Linear) < 1e-9 {
		return 0
	}
	return math.Atan(wheelbase * vel.Angular / vel.Linear)
}

// ClearPlanner discards the band, the trajectory and all cached state.
func (p *Planner) ClearPlanner() {
	p.band = nil
	p.traj = nil
	p.humanTrajs = nil
	p.terms = costTerms{}
	p.state = planner.Uninitialized
	p.consecutiveFailures = 0
	p.horizonReduced = false
	p.haveTrajGoal = false
}

// State reports the lifecycle state.
func (p *Planner) State() planner.State { return p.state }

// IsTrajectoryFeasible sweeps the footprint along the trajectory prefix.
// True means collision-free; see the contract in the planner package.
func (p *Planner) IsTrajectoryFeasible(model footprint.Model, polygon []geom.Point2, inscribed, circumscribed float64, lookAhead int) bool {
	return planner.SweepFeasible(p.traj, model, polygon, inscribed, circumscribed, lookAhead)
}

// IsHorizonReductionAppropriate recommends a shorter horizon when the
// reference path doubles back sharply within the lookahead (the classic
// corner-cutting failure) or when planning has failed repeatedly. A true
// return also arms the internal horizon shrink for the next Plan call.
func (p *Planner) IsHorizonReductionAppropriate(path []plan.TimedPose) bool {
	p.cfg.Lock()
	shrinkEnabled := p.cfg.Trajectory.ShrinkHorizonBackup
	p.cfg.Unlock()
	if !shrinkEnabled {
		return false
	}

	recommend := p.consecutiveFailures >= 2 || hasSharpCorner(path)
	if recommend {
		p.horizonReduced = true
	}
	return recommend
}

// hasSharpCorner reports whether consecutive path segments turn by more than
// ~100 degrees, which short bands tend to cut.
func hasSharpCorner(path []plan.TimedPose) bool {
	for i := 2; i < len(path); i++ {
		h1 := path[i-2].Pose.HeadingTo(path[i-1].Pose)
		h2 := path[i-1].Pose.HeadingTo(path[i].Pose)
		if math.Abs(geom.AngleDiff(h2, h1)) > 1.75 {
			return true
		}
	}
	return false
}

// ComputeCurrentCost reports the single candidate's cost. The caller's
// vector is written in place: a single-trajectory planner never resizes it
// beyond the one element it owns.
func (p *Planner) ComputeCurrentCost(costs *plan.CostVector, obstacleCostScale float64, alternativeTimeCost bool) {
	if costs == nil {
		return
	}
	value := p.WeightedCost(obstacleCostScale, 1.0, alternativeTimeCost)
	if len(*costs) == 0 {
		*costs = append(*costs, value)
	} else {
		(*costs)[0] = value
	}
}

// WeightedCost folds the current cost terms into one scalar with
// selection-time scaling: the obstacle and via-point terms are multiplied by
// their scales, and alternativeTime swaps the capped time-optimality term for
// the literal weighted transition time. Used by candidate selection across
// homotopy classes.
func (p *Planner) WeightedCost(obstacleScale, viapointScale float64, alternativeTime bool) float64 {
	terms := p.terms
	if alternativeTime {
		p.cfg.Lock()
		w := p.cfg.Optimization.WeightOptimalTime
		p.cfg.Unlock()
		terms.Time = w * terms.TransitionTime
	}
	return terms.total(obstacleScale) + (viapointScale-1)*terms.Viapoint
}

func (p *Planner) currentTerms() costTerms { return p.terms }

// FullTrajectory returns a copy of the current trajectory.
func (p *Planner) FullTrajectory() plan.Trajectory {
	return p.traj.Clone()
}

// FullHumanTrajectory returns a copy of the predicted trajectory for one
// human from the last successful plan.
func (p *Planner) FullHumanTrajectory(humanID uint64) (plan.Trajectory, bool) {
	traj, ok := p.humanTrajs[humanID]
	if !ok {
		return nil, false
	}
	return traj.Clone(), true
}

// Visualize publishes the local plan and human plans to the configured sink.
func (p *Planner) Visualize() {
	if p.visualizer == nil || p.state != planner.PlannedFeasible {
		return
	}
	p.cfg.Lock()
	publishLocal := p.cfg.Visualization.PublishRobotLocalPlan
	publishHumans := p.cfg.Visualization.PublishHumanLocalPlans
	p.cfg.Unlock()

	if publishLocal {
		p.visualizer.PublishLocalPlan(p.traj.Clone())
	}
	if publishHumans && len(p.humanTrajs) > 0 {
		out := make(map[uint64]plan.Trajectory, len(p.humanTrajs))
		for id, traj := range p.humanTrajs {
			out[id] = traj.Clone()
		}
		p.visualizer.PublishHumanPlans(out)
	}
}
