package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the publicity cache, and the claim lifecycle.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	claimsSubmitted prometheus.Counter
	claimsReviewed  *prometheus.CounterVec
	appealsTotal    *prometheus.CounterVec
	exportsQueued   prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "publicity_cache_hits_total",
		Help: "Total publicity cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "publicity_cache_misses_total",
		Help: "Total publicity cache misses",
	})

	claimsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claims_submitted_total",
		Help: "Total service-hour claims submitted",
	})

	claimsReviewed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "claims_reviewed_total",
		Help: "Total claim reviews by verdict",
	}, []string{"verdict"})

	appealsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appeals_total",
		Help: "Total appeals by lifecycle event",
	}, []string{"event"})

	exportsQueued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_exports_queued_total",
		Help: "Total roster export jobs queued",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, claimsSubmitted, claimsReviewed, appealsTotal, exportsQueued, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		claimsSubmitted: claimsSubmitted,
		claimsReviewed:  claimsReviewed,
		appealsTotal:    appealsTotal,
		exportsQueued:   exportsQueued,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheLookup records a publicity cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordClaimSubmitted counts a new submission.
func (m *MetricsService) RecordClaimSubmitted() {
	if m == nil {
		return
	}
	m.claimsSubmitted.Inc()
}

// RecordClaimReviewed counts a review verdict.
func (m *MetricsService) RecordClaimReviewed(approved bool) {
	if m == nil {
		return
	}
	verdict := "rejected"
	if approved {
		verdict = "approved"
	}
	m.claimsReviewed.WithLabelValues(verdict).Inc()
}

// RecordAppealEvent counts an appeal lifecycle event ("submitted",
// "approved", "rejected").
func (m *MetricsService) RecordAppealEvent(event string) {
	if m == nil {
		return
	}
	m.appealsTotal.WithLabelValues(event).Inc()
}

// RecordExportQueued counts a queued roster export.
func (m *MetricsService) RecordExportQueued() {
	if m == nil {
		return
	}
	m.exportsQueued.Inc()
}
