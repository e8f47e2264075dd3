package teb

import (
	"log"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
)

// minTransitionTime keeps time differences strictly positive during
// optimization.
const minTransitionTime = 0.01

// optimize runs the outer/inner penalty optimization schedule on the band.
// Each outer iteration resizes the band to the desired temporal resolution
// and takes a fresh config snapshot, so a concurrent reconfigure lands
// between outer iterations instead of tearing one. Returns the final cost
// breakdown and whether the result is usable.
func optimize(b *band, cfg *config.Config, obst obstacles.Set, humans []*humanBand, viaPoints []geom.Point2) (costTerms, bool) {
	snap := cfg.Snapshot()

	if !snap.Optimization.Activate {
		// Optimization disabled: report the seed band as-is.
		terms := evaluate(b, &snap, obst, humans, viaPoints)
		return terms, isUsable(b, terms)
	}

	var terms costTerms
	for outer := 0; outer < snap.Optimization.NoOuterIterations; outer++ {
		if snap.Trajectory.AutoResize {
			b.autoResize(snap.Trajectory.DtRef, snap.Trajectory.DtHysteresis, snap.Trajectory.MinSamples)
		}

		terms = innerLoop(b, &snap, obst, humans, viaPoints)
		if snap.Optimization.Verbose {
			log.Printf("outer %d/%d: n=%d cost=%.4f (obst=%.4f human=%.4f)",
				outer+1, snap.Optimization.NoOuterIterations, b.n(),
				terms.total(1), terms.Obstacle, terms.HumanRobotSafety)
		}

		// Pick up runtime reconfigures between outer iterations.
		snap = cfg.Snapshot()
	}

	return terms, isUsable(b, terms)
}

func isUsable(b *band, terms costTerms) bool {
	total := terms.total(1)
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return false
	}
	for _, p := range b.poses {
		if !p.IsFinite() {
			return false
		}
	}
	for _, dt := range b.dts {
		if dt <= 0 || math.IsNaN(dt) {
			return false
		}
	}
	return b.n() >= 2
}

// innerLoop performs the configured number of gradient steps on the band
// variables: interior poses plus every transition time. Endpoints stay
// fixed. The gradient is numeric; the step length backtracks until the cost
// does not increase.
func innerLoop(b *band, snap *config.Config, obst obstacles.Set, humans []*humanBand, viaPoints []geom.Point2) costTerms {
	x := packVars(b)
	grad := make([]float64, len(x))
	trial := make([]float64, len(x))

	cost := func(vars []float64) float64 {
		unpackVars(b, vars)
		return evaluate(b, snap, obst, humans, viaPoints).total(1)
	}

	current := cost(x)
	for iter := 0; iter < snap.Optimization.NoInnerIterations; iter++ {
		numericGradient(cost, x, grad)
		norm := floats.Norm(grad, 2)
		if norm < 1e-9 {
			break
		}

		// Backtracking step along the negative gradient.
		step := 0.1 / norm
		improved := false
		for attempt := 0; attempt < 6; attempt++ {
			copy(trial, x)
			floats.AddScaled(trial, -step, grad)
			clampTimes(trial, b.n())
			if c := cost(trial); c < current {
				copy(x, trial)
				current = c
				improved = true
				break
			}
			step /= 4
		}
		if !improved {
			break
		}
	}

	unpackVars(b, x)
	return evaluate(b, snap, obst, humans, viaPoints)
}

// packVars flattens the free band variables: (x, y, theta) for each interior
// pose followed by every transition time.
func packVars(b *band) []float64 {
	n := b.n()
	interior := n - 2
	if interior < 0 {
		interior = 0
	}
	x := make([]float64, 0, 3*interior+len(b.dts))
	for i := 1; i+1 < n; i++ {
		x = append(x, b.poses[i].X, b.poses[i].Y, b.poses[i].Theta)
	}
	x = append(x, b.dts...)
	return x
}

func unpackVars(b *band, x []float64) {
	n := b.n()
	k := 0
	for i := 1; i+1 < n; i++ {
		b.poses[i] = geom.PoseSE2{X: x[k], Y: x[k+1], Theta: geom.NormalizeAngle(x[k+2])}
		k += 3
	}
	for i := range b.dts {
		dt := x[k+i]
		if dt < minTransitionTime {
			dt = minTransitionTime
		}
		b.dts[i] = dt
	}
}

// clampTimes enforces the lower bound on the time-difference block of the
// packed vector.
func clampTimes(x []float64, n int) {
	interior := n - 2
	if interior < 0 {
		interior = 0
	}
	for i := 3 * interior; i < len(x); i++ {
		if x[i] < minTransitionTime {
			x[i] = minTransitionTime
		}
	}
}

// numericGradient fills grad with central finite differences of f at x.
func numericGradient(f func([]float64) float64, x, grad []float64) {
	const h = 1e-5
	for i := range x {
		orig := x[i]
		x[i] = orig + h
		fp := f(x)
		x[i] = orig - h
		fm := f(x)
		x[i] = orig
		grad[i] = (fp - fm) / (2 * h)
	}
	// Restore the band state to x exactly.
	f(x)
}
