package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/monitor"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
	"github.com/banshee-data/trajectory.planner/internal/plan"
	"github.com/banshee-data/trajectory.planner/internal/planner"
	"github.com/banshee-data/trajectory.planner/internal/planner/homotopy"
	"github.com/banshee-data/trajectory.planner/internal/storage"
	"github.com/banshee-data/trajectory.planner/internal/version"
)

// Server exposes the planner over HTTP: runtime parameter reconfiguration,
// on-demand planning cycles, and the stored run history.
type Server struct {
	cfg     *config.Config
	store   *storage.DB
	plotter *monitor.TrajectoryPlotter

	// planMu serializes planning cycles; the planner instance is retained
	// between calls so warm starts and selection hysteresis survive.
	planMu  sync.Mutex
	planner *homotopy.Planner
}

// NewServer wires the HTTP surface to a retained planner instance. store and
// plotter may be nil; the matching features degrade to no-ops.
func NewServer(cfg *config.Config, store *storage.DB, plotter *monitor.TrajectoryPlotter) *Server {
	p := homotopy.New(cfg)
	if plotter != nil {
		p.SetVisualizer(plotter)
	}
	return &Server{cfg: cfg, store: store, plotter: plotter, planner: p}
}

// ServeMux mounts all handlers.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/planner/params", s.handleParams)
	mux.HandleFunc("/api/planner/status", s.handleStatus)
	mux.HandleFunc("/api/planner/runs", s.handleRuns)
	mux.HandleFunc("/api/planner/plan", s.handlePlan)
	mux.HandleFunc("/api/planner/clear", s.handleClear)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// handleParams serves the live parameter set. GET returns the whole config;
// POST applies a partial JSON overlay and returns the updated config plus any
// plausibility and deprecation warnings. Warnings never abort the update.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, s.cfg.Snapshot())
	case http.MethodPost:
		body := http.MaxBytesReader(w, r.Body, 1<<20)
		var raw json.RawMessage
		if err := json.NewDecoder(body).Decode(&raw); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		warnings, err := s.cfg.ApplyJSON(raw)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, map[string]any{
			"config":   s.cfg.Snapshot(),
			"warnings": warnings,
		})
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleStatus reports the planner lifecycle state and run statistics.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.planMu.Lock()
	state := s.planner.State()
	s.planMu.Unlock()

	status := map[string]any{
		"version": version.Version,
		"state":   state.String(),
	}
	if s.store != nil {
		if stats, err := s.store.Stats(r.Context()); err == nil {
			status["runs"] = stats
		} else {
			log.Printf("failed to aggregate run stats: %v", err)
		}
	}
	s.writeJSON(w, status)
}

// handleRuns lists the stored planning history, newest first. ?id= fetches a
// single run; ?limit= bounds the list.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.writeJSONError(w, http.StatusNotFound, "run persistence disabled")
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		run, err := s.store.GetRun(r.Context(), id)
		if err != nil {
			s.writeJSONError(w, http.StatusNotFound, "run not found")
			return
		}
		s.writeJSON(w, run)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeJSONError(w, http.StatusBadRequest, "invalid 'limit' parameter")
			return
		}
		limit = n
	}
	runs, err := s.store.RecentRuns(r.Context(), limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	s.writeJSON(w, runs)
}

// handlePlan runs one planning cycle from the posted request and records the
// outcome. Infeasible plans still return 200: the caller asked a question and
// got an answer.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var dto PlanRequestDTO
	body := http.MaxBytesReader(w, r.Body, 4<<20)
	if err := json.NewDecoder(body).Decode(&dto); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req, err := dto.toRequest()
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var costs plan.CostVector
	opts := planner.Options{
		FreeGoalVel: dto.FreeGoalVel,
		HumanPlans:  dto.humanPlans(),
		Costs:       &costs,
	}
	if dto.StartVel != nil {
		opts.StartVel = &geom.Twist{Linear: dto.StartVel.Linear, Angular: dto.StartVel.Angular}
	}

	s.cfg.Lock()
	includeCostmap := s.cfg.Obstacles.IncludeCostmapObstacles
	behindDist := s.cfg.Obstacles.CostmapObstaclesBehindRobotDist
	s.cfg.Unlock()

	s.planMu.Lock()
	s.planner.SetObstacles(shapeObstacles(dto.obstacleSet(), req.Start(), includeCostmap, behindDist))
	started := time.Now()
	feasible := s.planner.Plan(req, opts)
	elapsed := time.Since(started)

	resp := PlanResponseDTO{
		Feasible:   feasible,
		Costs:      costs,
		DurationMS: float64(elapsed.Microseconds()) / 1000,
	}
	if feasible {
		s.planner.VelocityCommand(&resp.Linear, &resp.Angular)
		resp.Trajectory = trajectoryPoses(s.planner.FullTrajectory())
		s.planner.Visualize()
	}
	s.planMu.Unlock()

	if s.store != nil {
		run := storage.Run{
			StartedAt:     started.UTC(),
			PlanningMode:  s.snapshotMode(),
			Feasible:      feasible,
			Candidates:    len(costs),
			Costs:         costs,
			Duration:      elapsed,
			CmdVelLinear:  resp.Linear,
			CmdVelAngular: resp.Angular,
		}
		if len(costs) > 0 {
			run.BestCost = minCost(costs)
		}
		id, err := s.store.RecordRun(r.Context(), run)
		if err != nil {
			log.Printf("failed to record planning run: %v", err)
		} else {
			resp.RunID = id
		}
	}
	s.writeJSON(w, resp)
}

// handleClear resets the retained planner.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.planMu.Lock()
	s.planner.ClearPlanner()
	s.planMu.Unlock()
	s.writeJSON(w, map[string]string{"state": planner.Uninitialized.String()})
}

func (s *Server) snapshotMode() int {
	s.cfg.Lock()
	defer s.cfg.Unlock()
	return s.cfg.PlanningMode
}

// shapeObstacles applies the costmap obstacle policy before a cycle: point
// obstacles are the costmap layer, dropped entirely when
// include_costmap_obstacles is off and pruned to behindDist behind the robot
// otherwise. Shaped obstacles always pass through.
func shapeObstacles(set obstacles.Set, start geom.PoseSE2, includeCostmap bool, behindDist float64) obstacles.Set {
	shaped := set[:0:0]
	var cells obstacles.Set
	for _, o := range set {
		if _, ok := o.(*obstacles.PointObstacle); ok {
			cells = append(cells, o)
		} else {
			shaped = append(shaped, o)
		}
	}
	if !includeCostmap {
		return shaped
	}
	return append(shaped, cells.PruneBehind(start, behindDist)...)
}

func minCost(costs plan.CostVector) float64 {
	best := costs[0]
	for _, c := range costs[1:] {
		if c < best {
			best = c
		}
	}
	return best
}

// LoggingMiddleware logs every request with its path.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("got request %s %q", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
