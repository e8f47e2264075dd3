package homotopy

import (
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
	"github.com/banshee-data/trajectory.planner/internal/plan"
)

// explorer generates alternative reference paths between the current start
// and goal. Each candidate is later bucketed by homotopy signature; the
// explorer itself only has to produce geometric variety.
type explorer struct {
	rng *rand.Rand
}

func newExplorer(seed int64) *explorer {
	return &explorer{rng: rand.New(rand.NewSource(seed))}
}

// candidates returns alternative paths, always starting with the reference
// path itself so the incumbent class is explored first.
func (e *explorer) candidates(ref []plan.TimedPose, obst obstacles.Set, hcp config.HomotopyClasses) [][]plan.TimedPose {
	out := [][]plan.TimedPose{ref}
	if len(ref) < 2 {
		return out
	}
	start, goal := ref[0], ref[len(ref)-1]

	if hcp.SimpleExploration {
		out = append(out, e.detours(start, goal, obst, hcp.ObstacleKeypointOffset)...)
		return out
	}
	out = append(out, e.roadmap(start, goal, obst, hcp)...)
	return out
}

// detours routes one candidate left and one right around every obstacle
// lying near the straight start-goal segment.
func (e *explorer) detours(start, goal plan.TimedPose, obst obstacles.Set, offset float64) [][]plan.TimedPose {
	s, g := start.Pose.Position(), goal.Pose.Position()
	dir := g.Sub(s)
	length := dir.Norm()
	if length < 1e-9 {
		return nil
	}
	ux, uy := dir.X/length, dir.Y/length
	// Unit normal pointing to the left of travel.
	nx, ny := -uy, ux

	var out [][]plan.TimedPose
	for _, o := range obst {
		c := o.Centroid()
		along := (c.X-s.X)*ux + (c.Y-s.Y)*uy
		if along <= 0 || along >= length {
			continue
		}
		lateral := (c.X-s.X)*nx + (c.Y-s.Y)*ny
		if math.Abs(lateral) > offset*2 {
			continue
		}
		for _, side := range []float64{offset, -offset} {
			via := geom.Point2{X: c.X + side*nx, Y: c.Y + side*ny}
			out = append(out, viaPath(start, goal, via))
		}
	}
	return out
}

// roadmap samples waypoints uniformly in a corridor around the start-goal
// segment and routes one candidate through each, relying on signature
// bucketing to discard geometric duplicates.
func (e *explorer) roadmap(start, goal plan.TimedPose, obst obstacles.Set, hcp config.HomotopyClasses) [][]plan.TimedPose {
	s, g := start.Pose.Position(), goal.Pose.Position()
	dir := g.Sub(s)
	length := dir.Norm()
	if length < 1e-9 {
		return nil
	}
	ux, uy := dir.X/length, dir.Y/length
	nx, ny := -uy, ux

	out := make([][]plan.TimedPose, 0, hcp.RoadmapGraphNoSamples)
	for i := 0; i < hcp.RoadmapGraphNoSamples; i++ {
		along := e.rng.Float64() * length
		lateral := (e.rng.Float64() - 0.5) * hcp.RoadmapGraphAreaWidth
		via := geom.Point2{
			X: s.X + along*ux + lateral*nx,
			Y: s.Y + along*uy + lateral*ny,
		}
		out = append(out, viaPath(start, goal, via))
	}
	return out
}

// viaPath builds a three-pose reference path through the waypoint, with
// headings along the legs and timestamps interpolated by arc length.
func viaPath(start, goal plan.TimedPose, via geom.Point2) []plan.TimedPose {
	s, g := start.Pose.Position(), goal.Pose.Position()
	leg1 := via.DistanceTo(s)
	leg2 := g.DistanceTo(via)
	frac := 0.5
	if total := leg1 + leg2; total > 1e-9 {
		frac = leg1 / total
	}
	mid := plan.TimedPose{
		Pose: geom.PoseSE2{
			X:     via.X,
			Y:     via.Y,
			Theta: math.Atan2(g.Y-via.Y, g.X-via.X),
		},
		Time: start.Time.Add(time.Duration(float64(goal.Time.Sub(start.Time)) * frac)),
	}
	return []plan.TimedPose{start, mid, goal}
}
