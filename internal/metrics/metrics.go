package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// PlanningCycles counts planning cycles by outcome.
	PlanningCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "planning_cycles_total", Help: "Planning cycles by outcome."},
		[]string{"outcome"},
	)
	// PlanningDuration tracks how long a planning cycle takes.
	PlanningDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "planning_cycle_duration_seconds", Help: "Planning cycle duration in seconds.", Buckets: prometheus.DefBuckets},
	)
	// DispatchEfficiency records the efficiency of committed plans.
	DispatchEfficiency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "dispatch_efficiency", Help: "Efficiency score of committed dispatch plans.", Buckets: prometheus.LinearBuckets(0.1, 0.1, 10)},
	)
	// PendingShipments is the pending backlog seen by the last planning cycle or analysis.
	PendingShipments = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "pending_shipments", Help: "Pending shipments in the last snapshot."},
	)
	// StatsCacheLookups counts analysis cache lookups by result (hit|miss|error).
	StatsCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "stats_cache_lookups_total", Help: "Planning analysis cache lookups."},
		[]string{"result"},
	)
	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_rate_limited_total", Help: "Requests rejected by the rate limiter."},
		[]string{"path"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(PlanningCycles)
		Registry.MustRegister(PlanningDuration)
		Registry.MustRegister(DispatchEfficiency)
		Registry.MustRegister(PendingShipments)
		Registry.MustRegister(StatsCacheLookups)
		Registry.MustRegister(RateLimited)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
