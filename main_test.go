package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.planner/internal/config"
	"github.com/banshee-data/trajectory.planner/internal/geom"
	"github.com/banshee-data/trajectory.planner/internal/obstacles"
	"github.com/banshee-data/trajectory.planner/internal/storage"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewServer(config.Default(), store, nil)
}

func TestGetParams(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/planner/params", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got config.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 0.3, got.Trajectory.DtRef)
	assert.Equal(t, 0.4, got.Robot.MaxVelX)
}

func TestPostParamsOverlayAndWarnings(t *testing.T) {
	srv := testServer(t)
	body := `{"robot": {"max_vel_x": 0.1, "min_vel_x": 0.2}}`
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/planner/params",
		bytes.NewBufferString(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Config   config.Config `json:"config"`
		Warnings []string      `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.1, resp.Config.Robot.MaxVelX, "overlay must apply")
	assert.Equal(t, 0.2, resp.Config.Robot.MinVelX)
	assert.NotEmpty(t, resp.Warnings, "min above max must warn, not fail")
	assert.Equal(t, 0.3, resp.Config.Trajectory.DtRef, "untouched fields keep defaults")
}

func TestPostParamsRejectsGarbage(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/planner/params",
		bytes.NewBufferString("{nope")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanEndpointRecordsRun(t *testing.T) {
	srv := testServer(t)
	mux := srv.ServeMux()

	body, err := json.Marshal(PlanRequestDTO{
		Path: []PoseDTO{{X: 0, Y: 0}, {X: 1.5, Y: 0}, {X: 3, Y: 0}},
		Obstacles: []ObstacleDTO{
			{X: 1.5, Y: 0.4, Radius: 0.1},
		},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/planner/plan", bytes.NewBuffer(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PlanResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Feasible)
	assert.Greater(t, resp.Linear, 0.0)
	assert.NotEmpty(t, resp.Trajectory)
	assert.NotEmpty(t, resp.Costs)
	require.NotEmpty(t, resp.RunID)

	// The run must be retrievable through the history endpoint.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/planner/runs?id="+resp.RunID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var run storage.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.True(t, run.Feasible)
	assert.Equal(t, len(resp.Costs), run.Candidates)
}

func TestPlanEndpointBadPath(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/planner/plan",
		bytes.NewBufferString(`{"path": [{"x": 0}]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusAndClear(t *testing.T) {
	srv := testServer(t)
	mux := srv.ServeMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/planner/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "uninitialized", status["state"])

	body, _ := json.Marshal(PlanRequestDTO{Path: []PoseDTO{{}, {X: 2}}})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/planner/plan", bytes.NewBuffer(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/planner/status", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "planned-feasible", status["state"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/planner/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/planner/status", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "uninitialized", status["state"])
}

func TestRunsLimitValidation(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/planner/runs?limit=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDTOConversions(t *testing.T) {
	dto := PlanRequestDTO{
		Path:     []PoseDTO{{X: 0}, {X: 1, Theta: 0.1}},
		StartVel: &TwistDTO{Linear: 0.2},
		Humans: map[uint64][]PoseDTO{
			1: {{X: 2, Y: 1}, {X: 2, Y: -1}},
			2: {{X: 5}}, // degenerate, dropped
		},
		Obstacles: []ObstacleDTO{
			{X: 1, Y: 1},
			{X: 2, Y: 2, Radius: 0.3, VX: 0.1},
		},
	}

	req, err := dto.toRequest()
	require.NoError(t, err)
	assert.Equal(t, 0.2, req.StartVel.Linear)
	assert.True(t, req.Path[1].Time.After(req.Path[0].Time))

	humans := dto.humanPlans()
	require.Len(t, humans, 1)
	_, ok := humans[1]
	assert.True(t, ok)

	set := dto.obstacleSet()
	require.Len(t, set, 2)
}

func TestShapeObstacles(t *testing.T) {
	start := geom.PoseSE2{} // facing +x
	set := obstacles.Set{
		&obstacles.PointObstacle{Pos: geom.Point2{X: 2}},                // costmap cell ahead
		&obstacles.PointObstacle{Pos: geom.Point2{X: -0.5}},             // costmap cell just behind
		&obstacles.PointObstacle{Pos: geom.Point2{X: -3}},               // costmap cell far behind
		&obstacles.CircleObstacle{Pos: geom.Point2{X: -3}, Radius: 0.3}, // shaped, behind
	}

	shaped := shapeObstacles(set, start, true, 1.0)
	require.Len(t, shaped, 3, "cells beyond the behind-robot distance must be pruned")
	assert.Equal(t, geom.Point2{X: -3}, shaped[0].Centroid(), "shaped obstacles pass through untouched")

	noCostmap := shapeObstacles(set, start, false, 1.0)
	require.Len(t, noCostmap, 1)
	_, isCircle := noCostmap[0].(*obstacles.CircleObstacle)
	assert.True(t, isCircle, "only the shaped obstacle survives with the costmap layer off")

	assert.Nil(t, shapeObstacles(nil, start, true, 1.0))
}
