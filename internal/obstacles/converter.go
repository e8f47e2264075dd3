package obstacles

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/geom"
)

// CostmapGrid is the read side of an occupancy grid: the converter only needs
// cell occupancy and the grid geometry, the costmap itself lives with the
// host process.
type CostmapGrid interface {
	Size() (width, height int)
	Resolution() float64 // meters per cell
	Origin() geom.Point2 // world position of cell (0,0)
	Occupied(x, y int) bool
}

// Converter turns a costmap into an obstacle set. Implementations run out of
// the planning thread; Obstacles() returns the most recent conversion.
type Converter interface {
	Obstacles() Set
}

// GridConverter converts occupied costmap cells into point obstacles on a
// fixed interval, mirroring how an external costmap conversion plugin spins
// at its own rate instead of per planning cycle.
type GridConverter struct {
	grid CostmapGrid
	rate int // conversions per second

	mu      sync.RWMutex
	current Set
}

// NewGridConverter creates a converter for the grid. A rate of zero or less
// disables the background loop; Convert can still be called directly.
func NewGridConverter(grid CostmapGrid, rate int) *GridConverter {
	return &GridConverter{grid: grid, rate: rate}
}

// Obstacles returns the obstacle set from the most recent conversion.
func (g *GridConverter) Obstacles() Set {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// Convert performs one conversion pass immediately.
func (g *GridConverter) Convert() Set {
	w, h := g.grid.Size()
	res := g.grid.Resolution()
	origin := g.grid.Origin()

	var set Set
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !g.grid.Occupied(x, y) {
				continue
			}
			set = append(set, &PointObstacle{Pos: geom.Point2{
				X: origin.X + (float64(x)+0.5)*res,
				Y: origin.Y + (float64(y)+0.5)*res,
			}})
		}
	}

	g.mu.Lock()
	g.current = set
	g.mu.Unlock()
	return set
}

// Run converts the grid on a ticker until the context is cancelled.
func (g *GridConverter) Run(ctx context.Context) error {
	if g.rate <= 0 {
		log.Printf("costmap converter disabled (rate=%d)", g.rate)
		return nil
	}
	ticker := time.NewTicker(time.Second / time.Duration(g.rate))
	defer ticker.Stop()

	g.Convert()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.Convert()
		}
	}
}
