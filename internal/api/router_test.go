package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargo-dispatch-service/internal/adapters/cache"
	"cargo-dispatch-service/internal/adapters/events"
	"cargo-dispatch-service/internal/adapters/repositories"
	"cargo-dispatch-service/internal/api/dto"
	"cargo-dispatch-service/internal/config"
	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/metrics"
	"cargo-dispatch-service/internal/services"
)

func testSeed() repositories.Seed {
	return repositories.Seed{
		Locations: []repositories.LocationSeed{{ID: "HUB"}, {ID: "X"}, {ID: "Y"}, {ID: "Z"}},
		Roads: []repositories.RoadSeed{
			{From: "HUB", To: "X", DistanceKm: 10},
			{From: "X", To: "Y", DistanceKm: 5},
		},
		Vehicles: []repositories.VehicleSeed{
			{ID: "V1", CapacityKg: 10, LocationID: "HUB"},
		},
		Shipments: []repositories.ShipmentSeed{
			{ID: "A", WeightKg: 5, Priority: 1, DestinationID: "X"},
			{ID: "B", WeightKg: 5, Priority: 1, DestinationID: "X"},
			{ID: "C", WeightKg: 100, Priority: 5, DestinationID: "Y"},
		},
	}
}

func newTestRouter(t *testing.T, rl config.RateLimitConfig) http.Handler {
	t.Helper()
	repo := repositories.NewMemoryRepository(testSeed())
	svc := services.NewDispatchService(repo, repo, events.NewMemoryBroker(), cache.NewMemoryStatsCache(), services.Options{})
	return NewRouter(Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Repo:      repo,
		Planning:  svc,
		Routes:    svc,
		Events:    svc,
		RateLimit: rl,
	})
}

func do(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMethodChecks(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))

	rec = do(t, h, http.MethodGet, "/planning/plan-next", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDIsPropagatedOrGenerated(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestInventoryEndpoints(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	shipments := decode[dto.ListShipmentsResponse](t, do(t, h, http.MethodGet, "/shipments", ""))
	assert.Len(t, shipments.Shipments, 3)

	vehicles := decode[dto.ListVehiclesResponse](t, do(t, h, http.MethodGet, "/vehicles", ""))
	require.Len(t, vehicles.Vehicles, 1)
	assert.Equal(t, "V1", vehicles.Vehicles[0].ID)
}

func TestPlanNextThenAnalysis(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	rec := do(t, h, http.MethodPost, "/planning/plan-next", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[dto.PlanningResultResponse](t, rec)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.PlanID)
	require.Len(t, res.Batch, 2)
	assert.Equal(t, domain.ShipmentPlanned, res.Batch[0].Status)
	require.NotNil(t, res.Vehicle)
	assert.Equal(t, "V1", res.Vehicle.ID)
	assert.Equal(t, []string{"HUB", "X"}, res.Route)
	assert.Equal(t, 10.0, res.TotalDistanceKm)

	// Second cycle: C is left but the vehicle is busy.
	res = decode[dto.PlanningResultResponse](t, do(t, h, http.MethodPost, "/planning/plan-next", ""))
	assert.False(t, res.Success)
	assert.NotNil(t, res.Batch)

	analysis := decode[dto.AnalysisResponse](t, do(t, h, http.MethodGet, "/planning/analysis", ""))
	assert.Equal(t, 1, analysis.Analysis.TotalPendingShipments)
	assert.Contains(t, analysis.Insights, "Shipments are pending but no vehicle is available")

	health := decode[domain.HealthReport](t, do(t, h, http.MethodGet, "/planning/health", ""))
	assert.Equal(t, domain.HealthWarning, health.Status)
	assert.False(t, health.CanPlan)
}

func TestCancelAndComplete(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/planning/cancel", `{"shipment_ids":[" "]}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/planning/cancel", `{"ids":["A"]}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/planning/cancel", `{"shipment_ids":["A"]}{}`).Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/planning/plan-next", "").Code)

	rec := do(t, h, http.MethodPost, "/planning/cancel", `{"shipment_ids":["A","B"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, dto.CancelResponse{Status: "cancelled", ShipmentIDs: []string{"A", "B"}}, decode[dto.CancelResponse](t, rec))

	// A is pending again and cannot be completed.
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/planning/complete/A", "").Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/planning/plan-next", "").Code)
	rec = do(t, h, http.MethodPost, "/planning/complete/A", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.ShipmentCompleted, decode[dto.ShipmentResponse](t, rec).Status)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/planning/complete/A", "").Code)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/planning/complete/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/planning/complete/", "").Code)
}

func TestRouteEndpoints(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/routes/shortest?from=HUB", "").Code)

	rec := do(t, h, http.MethodGet, "/routes/shortest?from=HUB&to=Y", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sp := decode[dto.ShortestPathResponse](t, rec)
	assert.Equal(t, 15.0, sp.DistanceKm)
	assert.Equal(t, []string{"HUB", "X", "Y"}, sp.Path)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/routes/shortest?from=HUB&to=Z", "").Code)

	rec = do(t, h, http.MethodPost, "/routes/optimal", `{"start":"Y","destinations":["HUB","X"],"strategy":"matrix_two_opt"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	route := decode[dto.RouteResponse](t, rec)
	assert.Equal(t, []string{"Y", "X", "HUB"}, route.Path)
	assert.Equal(t, "matrix_two_opt", route.Strategy)

	rec = do(t, h, http.MethodPost, "/routes/optimal", `{"start":"HUB","destinations":["Y"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	route = decode[dto.RouteResponse](t, rec)
	assert.Equal(t, "nearest_neighbor", route.Strategy, "reports the default it used")
	assert.Equal(t, []string{"HUB", "X", "Y"}, route.Path)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/routes/optimal", `{"start":"Y","strategy":"teleport"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/routes/optimal", `{"destinations":["X"]}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/routes/optimal", `{"start":"HUB","destinations":["Z"]}`).Code)
}

func TestRoadNetworkEndpoint(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/routes/network", "").Code)

	rec := do(t, h, http.MethodGet, "/routes/network", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	net := decode[dto.NetworkResponse](t, rec)

	ids := make([]string, 0, len(net.Nodes))
	for _, n := range net.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"HUB", "X", "Y", "Z"}, ids)
	assert.Equal(t, []dto.NetworkRoad{
		{From: "HUB", To: "X", DistanceKm: 10},
		{From: "X", To: "Y", DistanceKm: 5},
	}, net.Roads)
}

func TestRateLimit(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{RPS: 0.001, Burst: 1})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/planning/analysis", "").Code)
	rec := do(t, h, http.MethodGet, "/planning/analysis", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Liveness is never limited.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})
	do(t, h, http.MethodGet, "/health", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func seriesCount(c prometheus.Collector) int {
	ch := make(chan prometheus.Metric)
	go func() {
		c.Collect(ch)
		close(ch)
	}()
	n := 0
	for range ch {
		n++
	}
	return n
}

func TestUnknownPathsShareOneMetricSeries(t *testing.T) {
	h := newTestRouter(t, config.RateLimitConfig{})

	// Seed the "other" series so the count below measures only growth.
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/scan-seed", "").Code)
	before := seriesCount(metrics.HTTPRequests)

	for i := 0; i < 50; i++ {
		rec := do(t, h, http.MethodGet, fmt.Sprintf("/scan-%d", i), "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	assert.Equal(t, before, seriesCount(metrics.HTTPRequests))

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="other"`)
	assert.NotContains(t, rec.Body.String(), "scan-")
}

func TestMetricPath(t *testing.T) {
	cases := map[string]string{
		"":                    "other",
		"/":                   "/",
		"/health":             "/health",
		"/planning/complete/": "/planning/complete/{id}",
	}
	for pattern, want := range cases {
		assert.Equal(t, want, metricPath(pattern), pattern)
	}
}

type brokenPlanning struct{}

func (brokenPlanning) PlanNextShipment(context.Context) (domain.PlanningResult, error) {
	return domain.PlanningResult{}, errors.New("database unavailable")
}
func (brokenPlanning) AnalyzePlanningState(context.Context) (domain.PlanningAnalysis, error) {
	return domain.PlanningAnalysis{}, errors.New("database unavailable")
}
func (brokenPlanning) Health(context.Context) (domain.HealthReport, error) {
	return domain.HealthReport{}, errors.New("database unavailable")
}
func (brokenPlanning) CancelPlanning(context.Context, []string) error { return nil }
func (brokenPlanning) CompleteShipment(context.Context, string) (domain.Shipment, error) {
	return domain.Shipment{}, errors.New("database unavailable")
}

func TestInternalErrorsAreHidden(t *testing.T) {
	h := NewRouter(Dependencies{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Planning: brokenPlanning{},
	})

	rec := do(t, h, http.MethodPost, "/planning/plan-next", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	// No event source configured.
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/planning/events", "").Code)
}

func TestEventStream(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, config.RateLimitConfig{}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/planning/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	res, err := http.Post(srv.URL+"/planning/plan-next", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev domain.PlanEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, domain.EventPlanCommitted, ev.Type)
	assert.Equal(t, []string{"A", "B"}, ev.ShipmentIDs)
	assert.NotEmpty(t, ev.PlanID)
}
