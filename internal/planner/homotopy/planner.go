package homotopy

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/footprint"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
	"github.com/banshee-data/trajectory.planner/internal/plan"
	"github.com/banshee-data/trajectory.planner/internal/planner"
	"github.com/banshee-data/trajectory.planner/internal/planner/teb"
)

// candidate is one homotopy class under optimization: its identifying
// signature and the band planner exploring it.
type candidate struct {
	sig  Signature
	path []plan.TimedPose
	teb  *teb.Planner
	ok   bool
	cost float64
}

// Planner explores multiple homotopy classes in parallel, optimizes one
// trajectory per class, and serves the queries of the lifecycle contract from
// the best class. With exploration disabled in the config it degrades to a
// single-band planner.
type Planner struct {
	cfg        *config.Config
	obstacles  obstacles.Set
	viaPoints  []geom.Point2
	visualizer teb.Visualizer
	explorer   *explorer

	live    []*candidate
	best    *candidate
	bestSig Signature
	state   planner.State
}

var _ planner.Planner = (*Planner)(nil)

// New creates a multi-class planner bound to the shared config.
func New(cfg *config.Config) *Planner {
	return &Planner{
		cfg:      cfg,
		explorer: newExplorer(1),
		state:    planner.Uninitialized,
	}
}

// SetObstacles installs the obstacle layer for subsequent plan calls.
func (p *Planner) SetObstacles(set obstacles.Set) { p.obstacles = set }

// SetVisualizer installs the debug sink shared by all candidates.
func (p *Planner) SetVisualizer(v teb.Visualizer) { p.visualizer = v }

// SetViaPoints installs attractor points extracted from the global plan.
func (p *Planner) SetViaPoints(points []geom.Point2) { p.viaPoints = points }

// Plan explores homotopy classes around the reference path and optimizes one
// trajectory per class. All class optimizations complete before Plan returns;
// no worker outlives the call.
func (p *Planner) Plan(req plan.Request, opts planner.Options) bool {
	if !req.Valid() {
		log.Print("plan rejected: degenerate plan request")
		p.state = planner.PlannedInfeasible
		return false
	}
	snap := p.cfg.Snapshot()
	hcp := snap.HCP

	paths := [][]plan.TimedPose{req.Path}
	if hcp.Enabled {
		paths = p.explorer.candidates(req.Path, p.obstacles, hcp)
	}

	cands := p.bucketBySignature(paths, hcp)
	p.optimizeAll(cands, req, opts, hcp)

	live := cands[:0]
	for _, c := range cands {
		if c.ok {
			c.cost = c.teb.WeightedCost(hcp.SelectionObstCostScale,
				hcp.SelectionViapointCostScale, hcp.SelectionAlternativeTimeCost)
			live = append(live, c)
		}
	}
	p.live = live

	if len(live) == 0 {
		p.best = nil
		p.state = planner.PlannedInfeasible
		return false
	}

	p.best = p.selectBest(live, hcp.SelectionCostHysteresis)
	p.bestSig = p.best.sig
	p.state = planner.PlannedFeasible

	if opts.Costs != nil {
		p.ComputeCurrentCost(opts.Costs, hcp.SelectionObstCostScale, hcp.SelectionAlternativeTimeCost)
	}
	return true
}

// PlanBetween plans between a bare start and goal pose.
func (p *Planner) PlanBetween(start, goal geom.PoseSE2, opts planner.Options) bool {
	return p.PlanTimed(start, goal, opts, 0)
}

// PlanTimed is PlanBetween with the caller's elapsed computation time
// discounted from the produced trajectory.
func (p *Planner) PlanTimed(start, goal geom.PoseSE2, opts planner.Options, prePlanTime time.Duration) bool {
	now := time.Now().Add(-prePlanTime)
	req := plan.Request{Path: []plan.TimedPose{
		{Pose: start, Time: now},
		{Pose: goal, Time: now},
	}}
	if opts.StartVel != nil {
		req.StartVel = *opts.StartVel
	}
	return p.Plan(req, opts)
}

// bucketBySignature keeps the first candidate path of every distinct
// homotopy class, capped at the configured class budget. The reference path
// comes first in the input, so its class always survives the cap.
func (p *Planner) bucketBySignature(paths [][]plan.TimedPose, hcp config.HomotopyClasses) []*candidate {
	var cands []*candidate
	for _, path := range paths {
		if len(cands) >= hcp.MaxNumberClasses {
			break
		}
		sig := signatureOf(path, p.obstacles, hcp.HSignaturePrescaler)
		known := false
		for _, c := range cands {
			if c.sig.equivalent(sig, hcp.HSignatureThreshold) {
				known = true
				break
			}
		}
		if known {
			continue
		}
		cands = append(cands, &candidate{sig: sig, teb: p.newCandidatePlanner(len(cands) == 0, hcp), path: path})
	}
	return cands
}

func (p *Planner) newCandidatePlanner(isReference bool, hcp config.HomotopyClasses) *teb.Planner {
	t := teb.New(p.cfg)
	t.SetObstacles(p.obstacles)
	t.SetVisualizer(p.visualizer)
	if isReference || hcp.ViapointsAllCandidates {
		t.SetViaPoints(p.viaPoints)
	}
	return t
}

// optimizeAll runs every candidate's band optimization on a fixed worker
// pool and joins it before returning. Serial when multithreading is off.
func (p *Planner) optimizeAll(cands []*candidate, req plan.Request, opts planner.Options, hcp config.HomotopyClasses) {
	workers := 1
	if hcp.EnableMultithreading && len(cands) > 1 {
		workers = runtime.NumCPU()
		if workers > len(cands) {
			workers = len(cands)
		}
	}

	// Per-candidate options: the shared cost vector must only be written by
	// the selection stage, never by the workers.
	perCand := opts
	perCand.Costs = nil

	jobs := make(chan *candidate)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				r := req
				r.Path = c.path
				c.ok = c.teb.Plan(r, perCand)
			}
		}()
	}
	for _, c := range cands {
		jobs <- c
	}
	close(jobs)
	wg.Wait()
}

// selectBest picks the cheapest live candidate, with hysteresis in favor of
// the previously selected class: a challenger must undercut the incumbent's
// cost times the hysteresis factor to take over.
func (p *Planner) selectBest(live []*candidate, hysteresis float64) *candidate {
	cheapest := live[0]
	for _, c := range live[1:] {
		if c.cost < cheapest.cost {
			cheapest = c
		}
	}
	if p.bestSig == nil {
		return cheapest
	}
	for _, c := range live {
		if c.sig.equivalent(p.bestSig, p.signatureThreshold()) {
			if cheapest.cost < c.cost*hysteresis {
				return cheapest
			}
			return c
		}
	}
	return cheapest
}

func (p *Planner) signatureThreshold() float64 {
	p.cfg.Lock()
	defer p.cfg.Unlock()
	return p.cfg.HCP.HSignatureThreshold
}

// VelocityCommand serves the first-transition velocities of the best class.
func (p *Planner) VelocityCommand(v, omega *float64) bool {
	if p.state != planner.PlannedFeasible || p.best == nil {
		return false
	}
	return p.best.teb.VelocityCommand(v, omega)
}

// ClearPlanner discards every candidate and returns to Uninitialized.
func (p *Planner) ClearPlanner() {
	for _, c := range p.live {
		c.teb.ClearPlanner()
	}
	p.live = nil
	p.best = nil
	p.bestSig = nil
	p.state = planner.Uninitialized
}

// State reports the lifecycle state.
func (p *Planner) State() planner.State { return p.state }

// IsTrajectoryFeasible sweeps the footprint along the best class's
// trajectory. True means the checked prefix is collision-free.
func (p *Planner) IsTrajectoryFeasible(model footprint.Model, polygon []geom.Point2, inscribed, circumscribed float64, lookAhead int) bool {
	if p.best == nil {
		return false
	}
	return p.best.teb.IsTrajectoryFeasible(model, polygon, inscribed, circumscribed, lookAhead)
}

// IsHorizonReductionAppropriate defers to the best class's band planner.
func (p *Planner) IsHorizonReductionAppropriate(path []plan.TimedPose) bool {
	if p.best == nil {
		return false
	}
	return p.best.teb.IsHorizonReductionAppropriate(path)
}

// ComputeCurrentCost fills one scalar per live homotopy class, in
// exploration order.
func (p *Planner) ComputeCurrentCost(costs *plan.CostVector, obstacleCostScale float64, alternativeTimeCost bool) {
	if costs == nil {
		return
	}
	*costs = (*costs)[:0]
	for _, c := range p.live {
		*costs = append(*costs, c.teb.WeightedCost(obstacleCostScale, 1.0, alternativeTimeCost))
	}
}

// FullTrajectory returns a copy of the best class's trajectory.
func (p *Planner) FullTrajectory() plan.Trajectory {
	if p.best == nil {
		return nil
	}
	return p.best.teb.FullTrajectory()
}

// FullHumanTrajectory returns the predicted trajectory for one human from
// the best class's last plan.
func (p *Planner) FullHumanTrajectory(humanID uint64) (plan.Trajectory, bool) {
	if p.best == nil {
		return nil, false
	}
	return p.best.teb.FullHumanTrajectory(humanID)
}

// Visualize publishes the best class's plan through its band planner.
func (p *Planner) Visualize() {
	if p.best == nil {
		return
	}
	p.best.teb.Visualize()
}
