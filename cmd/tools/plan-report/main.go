// Command plan-report renders an HTML report of stored planning runs: cost
// trend, cycle duration, and feasibility breakdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trajectory.planner/internal/storage"
)

var (
	dbFile  = flag.String("db", "planner_runs.db", "Path to the run history database")
	outFile = flag.String("out", "plan_report.html", "Output HTML file")
	limit   = flag.Int("limit", 500, "Maximum number of runs to include")
)

func main() {
	flag.Parse()

	db, err := storage.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open run database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runs, err := db.RecentRuns(ctx, *limit)
	if err != nil {
		log.Fatalf("Failed to load runs: %v", err)
	}
	if len(runs) == 0 {
		log.Fatal("No runs recorded; nothing to report")
	}
	stats, err := db.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to aggregate runs: %v", err)
	}

	// RecentRuns is newest first; the report reads left to right in time.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}

	page := components.NewPage()
	page.PageTitle = "Planning run report"
	page.AddCharts(
		costChart(runs),
		durationChart(runs),
		feasibilityChart(stats),
	)

	f, err := os.Create(*outFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("Failed to render report: %v", err)
	}
	log.Printf("wrote report for %d runs to %s", len(runs), *outFile)
}

func runLabels(runs []storage.Run) []string {
	labels := make([]string, len(runs))
	for i, run := range runs {
		labels[i] = run.StartedAt.Format(time.TimeOnly)
	}
	return labels
}

// costChart plots the selected candidate's cost per run; infeasible runs
// leave gaps.
func costChart(runs []storage.Run) components.Charter {
	data := make([]opts.LineData, len(runs))
	for i, run := range runs {
		if run.Feasible {
			data[i] = opts.LineData{Value: run.BestCost}
		} else {
			data[i] = opts.LineData{Value: nil}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Best candidate cost", Subtitle: "per planning cycle"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cost"}),
	)
	line.SetXAxis(runLabels(runs)).AddSeries("best cost", data)
	return line
}

// durationChart plots per-cycle planning time in milliseconds.
func durationChart(runs []storage.Run) components.Charter {
	data := make([]opts.LineData, len(runs))
	for i, run := range runs {
		data[i] = opts.LineData{Value: float64(run.Duration.Microseconds()) / 1000}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Planning time", Subtitle: "milliseconds per cycle"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)
	line.SetXAxis(runLabels(runs)).AddSeries("duration", data)
	return line
}

// feasibilityChart summarizes the feasible/infeasible split.
func feasibilityChart(stats storage.RunStats) components.Charter {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Feasibility",
			Subtitle: fmt.Sprintf("%d runs, avg cycle %s", stats.Total, stats.AvgDuration),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"feasible", "infeasible"}).AddSeries("runs", []opts.BarData{
		{Value: stats.Feasible},
		{Value: stats.Total - stats.Feasible},
	})
	return bar
}
