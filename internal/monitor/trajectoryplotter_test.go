package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/plan"
)

func sampleTrajectory(n int) plan.Trajectory {
	traj := make(plan.Trajectory, n)
	for i := range traj {
		traj[i] = plan.TrajectoryPoint{
			Pose:          geom.PoseSE2{X: float64(i) * 0.3, Y: 0.05 * float64(i%3)},
			Velocity:      geom.Twist{Linear: 0.3, Angular: 0.01},
			TimeFromStart: time.Duration(i) * 300 * time.Millisecond,
		}
	}
	return traj
}

func TestPlotterIgnoresSamplesWhenDisabled(t *testing.T) {
	tp := NewTrajectoryPlotter()
	tp.PublishLocalPlan(sampleTrajectory(5))
	assert.Zero(t, tp.SampleCount())
	assert.False(t, tp.IsEnabled())
}

func TestPlotterRecordsCycles(t *testing.T) {
	tp := NewTrajectoryPlotter()
	require.NoError(t, tp.Start(t.TempDir()))

	tp.PublishLocalPlan(sampleTrajectory(5))
	tp.PublishHumanPlans(map[uint64]plan.Trajectory{3: sampleTrajectory(4)})
	tp.PublishLocalPlan(sampleTrajectory(6))
	assert.Equal(t, 2, tp.SampleCount())

	tp.Stop()
	tp.PublishLocalPlan(sampleTrajectory(5))
	assert.Equal(t, 2, tp.SampleCount(), "samples after Stop must be dropped")
}

func TestGeneratePlotsWritesFiles(t *testing.T) {
	dir := t.TempDir()
	tp := NewTrajectoryPlotter()
	require.NoError(t, tp.Start(dir))

	tp.PublishLocalPlan(sampleTrajectory(8))
	tp.PublishHumanPlans(map[uint64]plan.Trajectory{1: sampleTrajectory(4)})
	tp.Stop()

	count, err := tp.GeneratePlots()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, name := range []string{"trajectories.png", "velocity_profile.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestGeneratePlotsWithoutSamples(t *testing.T) {
	tp := NewTrajectoryPlotter()
	require.NoError(t, tp.Start(t.TempDir()))
	count, err := tp.GeneratePlots()
	require.NoError(t, err)
	assert.Zero(t, count)

	unstarted := NewTrajectoryPlotter()
	_, err = unstarted.GeneratePlots()
	assert.Error(t, err, "plots without an output directory must fail")
}
