// Command trajectory-planner runs the local planner as an HTTP service:
// plan cycles on demand, live parameter tuning, and a persisted run history
// for offline analysis.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/monitor"
	"github.com/banshee-data/trajectory.planner/internal/storage"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "planner_runs.db", "Path to the run history database (empty to disable)")
	configFile = flag.String("config", "", "Optional JSON parameter file applied over the defaults")
	plotDir    = flag.String("plots", "", "Directory for trajectory plots (empty to disable)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.Default()
	if *configFile != "" {
		warnings, err := cfg.LoadJSON(*configFile)
		if err != nil {
			log.Fatalf("Failed to load parameter file: %v", err)
		}
		for _, w := range warnings {
			log.Printf("config warning: %s", w)
		}
	}

	var store *storage.DB
	if *dbFile != "" {
		var err error
		store, err = storage.Open(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open run database: %v", err)
		}
		defer store.Close()
	}

	var plotter *monitor.TrajectoryPlotter
	if *plotDir != "" {
		plotter = monitor.NewTrajectoryPlotter()
		if err := plotter.Start(monitor.MakePlotOutputDir(*plotDir)); err != nil {
			log.Fatalf("Failed to start trajectory plotter: %v", err)
		}
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := NewServer(cfg, store, plotter).ServeMux()
		server := &http.Server{
			Addr:    *listen,
			Handler: LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()

	if plotter != nil {
		plotter.Stop()
		count, err := plotter.GeneratePlots()
		if err != nil {
			log.Printf("failed to generate plots: %v", err)
		} else if count > 0 {
			log.Printf("wrote %d plots to %s", count, plotter.OutputDir())
		}
	}
	log.Printf("Graceful shutdown complete")
}
