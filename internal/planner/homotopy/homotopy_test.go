package homotopy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
	"github.com/banshee-data/trajectory.planner/internal/plan"
	"github.com/banshee-data/trajectory.planner/internal/planner"
)

func straightPath(n int, length float64) []plan.TimedPose {
	now := time.Now()
	path := make([]plan.TimedPose, n)
	for i := range path {
		frac := float64(i) / float64(n-1)
		path[i] = plan.TimedPose{
			Pose: geom.PoseSE2{X: frac * length},
			Time: now.Add(time.Duration(frac * float64(time.Second))),
		}
	}
	return path
}

func TestSignatureSeparatesSides(t *testing.T) {
	obst := obstacles.Set{&obstacles.PointObstacle{Pos: geom.Point2{X: 1.5}}}
	now := time.Now()

	side := func(y float64) []plan.TimedPose {
		return []plan.TimedPose{
			{Pose: geom.PoseSE2{}, Time: now},
			{Pose: geom.PoseSE2{X: 1.5, Y: y}, Time: now},
			{Pose: geom.PoseSE2{X: 3}, Time: now},
		}
	}
	left := signatureOf(side(1), obst, 1.0)
	right := signatureOf(side(-1), obst, 1.0)
	leftAgain := signatureOf(side(0.5), obst, 1.0)

	assert.False(t, left.equivalent(right, 0.1),
		"paths on opposite sides of an obstacle share no homotopy class")
	assert.True(t, left.equivalent(leftAgain, 1.0),
		"paths on the same side deform into each other")
}

func TestSignatureEquivalenceLengthMismatch(t *testing.T) {
	assert.False(t, Signature{0.1}.equivalent(Signature{0.1, 0.2}, 1.0))
}

func TestPlanProducesOneCostPerClass(t *testing.T) {
	p := New(config.Default())
	p.SetObstacles(obstacles.Set{&obstacles.PointObstacle{Pos: geom.Point2{X: 1.5, Y: 0.1}}})

	var costs plan.CostVector
	req := plan.Request{Path: straightPath(5, 3)}
	require.True(t, p.Plan(req, planner.Options{Costs: &costs}))

	assert.Equal(t, len(p.live), len(costs),
		"cost vector length must match the number of live classes")
	assert.NotEmpty(t, costs)
	for _, c := range costs {
		assert.Greater(t, c, 0.0)
	}

	cfg := config.Default()
	assert.LessOrEqual(t, len(p.live), cfg.HCP.MaxNumberClasses,
		"class budget must cap exploration")
}

func TestPlanJoinsWorkersBeforeReturn(t *testing.T) {
	cfg := config.Default()
	cfg.HCP.EnableMultithreading = true
	p := New(cfg)
	p.SetObstacles(obstacles.Set{
		&obstacles.PointObstacle{Pos: geom.Point2{X: 1, Y: 0.3}},
		&obstacles.PointObstacle{Pos: geom.Point2{X: 2, Y: -0.3}},
	})

	require.True(t, p.Plan(plan.Request{Path: straightPath(7, 3)}, planner.Options{}))

	// Every candidate must have a settled result the moment Plan returns;
	// a racing worker would leave ok undetermined or cost unset.
	for _, c := range p.live {
		assert.True(t, c.ok)
		assert.Greater(t, c.cost, 0.0)
	}
	traj := p.FullTrajectory()
	require.NotEmpty(t, traj)
	assert.True(t, traj.TimeMonotonic())
}

func TestDisabledExplorationFallsBackToSingleClass(t *testing.T) {
	cfg := config.Default()
	cfg.HCP.Enabled = false
	p := New(cfg)
	p.SetObstacles(obstacles.Set{&obstacles.PointObstacle{Pos: geom.Point2{X: 1.5, Y: 0.2}}})

	require.True(t, p.Plan(plan.Request{Path: straightPath(5, 3)}, planner.Options{}))
	assert.Len(t, p.live, 1)
}

func TestLifecycleMirrorsSinglePlanner(t *testing.T) {
	p := New(config.Default())

	v, omega := 7.0, 8.0
	assert.False(t, p.VelocityCommand(&v, &omega))
	assert.Equal(t, 7.0, v)
	assert.Equal(t, 8.0, omega)
	assert.Equal(t, planner.Uninitialized, p.State())

	require.False(t, p.Plan(plan.Request{}, planner.Options{}))
	assert.Equal(t, planner.PlannedInfeasible, p.State())

	require.True(t, p.PlanBetween(geom.PoseSE2{}, geom.PoseSE2{X: 2}, planner.Options{}))
	assert.Equal(t, planner.PlannedFeasible, p.State())
	require.True(t, p.VelocityCommand(&v, &omega))
	assert.Greater(t, v, 0.0)

	_, ok := p.FullHumanTrajectory(1)
	assert.False(t, ok)

	p.ClearPlanner()
	assert.Equal(t, planner.Uninitialized, p.State())
	assert.Nil(t, p.FullTrajectory())
	assert.False(t, p.IsHorizonReductionAppropriate(nil))
}

func TestSelectionHysteresisKeepsIncumbent(t *testing.T) {
	p := &Planner{cfg: config.Default()}
	incumbent := &candidate{sig: Signature{0.0}, cost: 10}
	challenger := &candidate{sig: Signature{6.28}, cost: 9.5}
	p.bestSig = incumbent.sig

	// Hysteresis 0.9: the challenger must undercut 10*0.9 to win.
	got := p.selectBest([]*candidate{incumbent, challenger}, 0.9)
	assert.Same(t, incumbent, got)

	challenger.cost = 8.5
	got = p.selectBest([]*candidate{incumbent, challenger}, 0.9)
	assert.Same(t, challenger, got)
}

func TestDetoursBracketObstacle(t *testing.T) {
	e := newExplorer(1)
	now := time.Now()
	start := plan.TimedPose{Pose: geom.PoseSE2{}, Time: now}
	goal := plan.TimedPose{Pose: geom.PoseSE2{X: 4}, Time: now.Add(4 * time.Second)}
	obst := obstacles.Set{&obstacles.PointObstacle{Pos: geom.Point2{X: 2, Y: 0.05}}}

	paths := e.detours(start, goal, obst, 0.5)
	require.Len(t, paths, 2, "one detour per side")

	sigs := []Signature{
		signatureOf(paths[0], obst, 1.0),
		signatureOf(paths[1], obst, 1.0),
	}
	assert.False(t, sigs[0].equivalent(sigs[1], 0.1),
		"the two detours must land in different homotopy classes")

	for _, path := range paths {
		assert.Equal(t, start.Pose, path[0].Pose)
		assert.Equal(t, goal.Pose, path[len(path)-1].Pose)
	}
}

func TestRoadmapRespectsCorridor(t *testing.T) {
	e := newExplorer(42)
	now := time.Now()
	start := plan.TimedPose{Pose: geom.PoseSE2{}, Time: now}
	goal := plan.TimedPose{Pose: geom.PoseSE2{X: 4}, Time: now.Add(4 * time.Second)}

	hcp := config.Default().HCP
	paths := e.roadmap(start, goal, nil, hcp)
	require.Len(t, paths, hcp.RoadmapGraphNoSamples)

	half := hcp.RoadmapGraphAreaWidth / 2
	for _, path := range paths {
		require.Len(t, path, 3)
		via := path[1].Pose
		assert.LessOrEqual(t, via.X, 4.0)
		assert.GreaterOrEqual(t, via.X, 0.0)
		assert.LessOrEqual(t, via.Y, half)
		assert.GreaterOrEqual(t, via.Y, -half)
		assert.False(t, path[1].Time.Before(path[0].Time))
		assert.False(t, path[2].Time.Before(path[1].Time))
	}
}
