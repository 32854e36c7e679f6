// Package metrics exposes the engine's Prometheus collectors. Operational
// faults (scheduling gaps, verification retries, failed credits) are counted
// here so they can be alerted on.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "drawengine"

var (
	// Registry holds the application collectors plus the Go runtime ones.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	wagersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wagers",
			Name:      "placed_total",
			Help:      "Accepted wagers.",
		},
		[]string{"game"},
	)

	wagersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wagers",
			Name:      "rejected_total",
			Help:      "Wagers rejected at placement, by reason.",
		},
		[]string{"game", "reason"},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "completed_total",
			Help:      "Settled periods by selection method.",
		},
		[]string{"game", "method"},
	)

	settlementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "duration_seconds",
			Help:      "Time from settlement start to commit.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"game"},
	)

	settlementFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "failures_total",
			Help:      "Failed settlement attempts; the period stays settling and is retried.",
		},
		[]string{"game"},
	)

	roundExposure = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "exposure_minor_units",
			Help:      "Payout liability of the drawn outcome.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 12),
		},
		[]string{"game"},
	)

	credits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "credits_total",
			Help:      "Winning credits by result.",
		},
		[]string{"result"},
	)

	schedulingFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "faults_total",
			Help:      "Failures to materialize or advance a period.",
		},
		[]string{"game", "stage"},
	)

	verificationFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "fetches_total",
			Help:      "External reference fetch attempts by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests, httpDuration,
		wagersPlaced, wagersRejected,
		settlements, settlementDuration, settlementFailures, roundExposure,
		credits, schedulingFaults, verificationFetches,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHTTP records request counts and latency labelled by chi route
// pattern, so path parameters do not explode cardinality.
func InstrumentHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func WagerPlaced(game string) {
	wagersPlaced.WithLabelValues(game).Inc()
}

func WagerRejected(game, reason string) {
	wagersRejected.WithLabelValues(game, reason).Inc()
}

func SettlementCompleted(game, method string, took time.Duration, exposure int64) {
	settlements.WithLabelValues(game, method).Inc()
	settlementDuration.WithLabelValues(game).Observe(took.Seconds())
	roundExposure.WithLabelValues(game).Observe(float64(exposure))
}

func SettlementFailed(game string) {
	settlementFailures.WithLabelValues(game).Inc()
}

func CreditResult(result string) {
	credits.WithLabelValues(result).Inc()
}

func SchedulingFault(game, stage string) {
	schedulingFaults.WithLabelValues(game, stage).Inc()
}

func VerificationFetch(result string) {
	verificationFetches.WithLabelValues(result).Inc()
}
