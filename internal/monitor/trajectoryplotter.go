// Package monitor renders recorded planning cycles for offline inspection.
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/trajectory.planner/internal/plan"
)

// TrajectoryPlotter accumulates planned trajectories over a tuning session
// and renders them as PNG files after the run. It doubles as the planner's
// visualization sink.
type TrajectoryPlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string

	cycles []cycleSample
}

// cycleSample is one planning cycle's worth of trajectories.
type cycleSample struct {
	Cycle     int
	Timestamp time.Time
	Robot     plan.Trajectory
	Humans    map[uint64]plan.Trajectory
}

// NewTrajectoryPlotter creates a disabled plotter. Call Start to begin
// recording.
func NewTrajectoryPlotter() *TrajectoryPlotter {
	return &TrajectoryPlotter{}
}

// Start initializes the plotter for a new session, creating outputDir.
func (tp *TrajectoryPlotter) Start(outputDir string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tp.outputDir = outputDir
	tp.enabled = true
	tp.cycles = nil
	return nil
}

// Stop disables recording. Call GeneratePlots to produce output files.
func (tp *TrajectoryPlotter) Stop() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.enabled = false
}

// IsEnabled reports whether the plotter is currently recording.
func (tp *TrajectoryPlotter) IsEnabled() bool {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.enabled
}

// PublishLocalPlan records the robot trajectory of the current cycle.
func (tp *TrajectoryPlotter) PublishLocalPlan(traj plan.Trajectory) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if !tp.enabled {
		return
	}
	tp.cycles = append(tp.cycles, cycleSample{
		Cycle:     len(tp.cycles),
		Timestamp: time.Now(),
		Robot:     traj,
	})
}

// PublishHumanPlans attaches the cycle's predicted human trajectories to the
// most recent robot plan.
func (tp *TrajectoryPlotter) PublishHumanPlans(trajs map[uint64]plan.Trajectory) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if !tp.enabled || len(tp.cycles) == 0 {
		return
	}
	tp.cycles[len(tp.cycles)-1].Humans = trajs
}

// SampleCount returns the number of recorded cycles.
func (tp *TrajectoryPlotter) SampleCount() int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return len(tp.cycles)
}

// OutputDir returns the configured output directory.
func (tp *TrajectoryPlotter) OutputDir() string {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.outputDir
}

// GeneratePlots writes one XY overview of all recorded trajectories and one
// velocity profile of the final cycle. Returns the number of plots written.
func (tp *TrajectoryPlotter) GeneratePlots() (int, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if tp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}
	if len(tp.cycles) == 0 {
		return 0, nil
	}

	count := 0
	if err := tp.generatePathPlot(); err != nil {
		return count, err
	}
	count++
	if err := tp.generateVelocityPlot(); err != nil {
		return count, err
	}
	count++
	return count, nil
}

// generatePathPlot overlays every cycle's XY path, robot solid and humans
// fading through the palette.
func (tp *TrajectoryPlotter) generatePathPlot() error {
	p := plot.New()
	p.Title.Text = "Planned trajectories"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	colors := paletteColors(len(tp.cycles))
	for i, cycle := range tp.cycles {
		pts := make(plotter.XYs, 0, len(cycle.Robot))
		for _, pt := range cycle.Robot {
			pts = append(pts, plotter.XY{X: pt.Pose.X, Y: pt.Pose.Y})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)

		for id, human := range cycle.Humans {
			hpts := make(plotter.XYs, 0, len(human))
			for _, pt := range human {
				hpts = append(hpts, plotter.XY{X: pt.Pose.X, Y: pt.Pose.Y})
			}
			if len(hpts) == 0 {
				continue
			}
			hline, err := plotter.NewLine(hpts)
			if err != nil {
				return err
			}
			hline.Color = colors[i]
			hline.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
			p.Add(hline)
			if i == len(tp.cycles)-1 {
				p.Legend.Add(fmt.Sprintf("human %d", id), hline)
			}
		}
	}
	p.Legend.Top = true

	file := filepath.Join(tp.outputDir, "trajectories.png")
	if err := p.Save(10*vg.Inch, 10*vg.Inch, file); err != nil {
		return fmt.Errorf("save path plot: %w", err)
	}
	return nil
}

// generateVelocityPlot shows the final cycle's linear and angular velocity
// over trajectory time.
func (tp *TrajectoryPlotter) generateVelocityPlot() error {
	last := tp.cycles[len(tp.cycles)-1].Robot
	if len(last) == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Velocity profile (cycle %d)", len(tp.cycles)-1)
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "velocity"

	linear := make(plotter.XYs, 0, len(last))
	angular := make(plotter.XYs, 0, len(last))
	for _, pt := range last {
		t := pt.TimeFromStart.Seconds()
		linear = append(linear, plotter.XY{X: t, Y: pt.Velocity.Linear})
		angular = append(angular, plotter.XY{X: t, Y: pt.Velocity.Angular})
	}

	linLine, err := plotter.NewLine(linear)
	if err != nil {
		return err
	}
	linLine.Color = color.RGBA{R: 30, G: 100, B: 200, A: 255}
	linLine.Width = vg.Points(1)
	p.Add(linLine)
	p.Legend.Add("v (m/s)", linLine)

	angLine, err := plotter.NewLine(angular)
	if err != nil {
		return err
	}
	angLine.Color = color.RGBA{R: 200, G: 80, B: 30, A: 255}
	angLine.Width = vg.Points(1)
	p.Add(angLine)
	p.Legend.Add("omega (rad/s)", angLine)

	p.Legend.Top = true

	file := filepath.Join(tp.outputDir, "velocity_profile.png")
	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save velocity plot: %w", err)
	}
	return nil
}

// paletteColors spreads n distinct hues across the color wheel.
func paletteColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range).
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// MakePlotOutputDir creates a timestamped output directory under baseDir.
func MakePlotOutputDir(baseDir string) string {
	return filepath.Join(baseDir, "session_"+time.Now().Format("20060102_150405"))
}
