package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/course-scheduler-api/internal/dto"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	generationRuns     *prometheus.CounterVec
	generationDuration prometheus.Observer
	entriesGenerated   prometheus.Counter
	placementChecks    *prometheus.CounterVec
	exportsRendered    *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	generationCount      uint64
	generatedEntryCount  uint64
	rejectedPlacements   uint64
	lastGenerationUnix   int64
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

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_generation_runs_total",
		Help: "Schedule generation runs by outcome",
	}, []string{"outcome"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_generation_duration_seconds",
		Help:    "Wall time of schedule generation runs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	entriesGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_entries_generated_total",
		Help: "Schedule entries written by committed generation runs",
	})

	placementChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_validations_total",
		Help: "Manual placement validations by operation and result",
	}, []string{"operation", "result"})

	exportsRendered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_exports_total",
		Help: "Rendered schedule exports by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationRuns, generationDuration, entriesGenerated, placementChecks, exportsRendered, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationRuns:     generationRuns,
		generationDuration: generationDuration,
		entriesGenerated:   entriesGenerated,
		placementChecks:    placementChecks,
		exportsRendered:    exportsRendered,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveGeneration records one generation run. entries is only counted for committed runs.
func (m *MetricsService) ObserveGeneration(outcome string, duration time.Duration, entries int) {
	if m == nil {
		return
	}
	m.generationRuns.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(duration.Seconds())
	atomic.AddUint64(&m.generationCount, 1)
	atomic.StoreInt64(&m.lastGenerationUnix, time.Now().Unix())
	if entries > 0 {
		m.entriesGenerated.Add(float64(entries))
		atomic.AddUint64(&m.generatedEntryCount, uint64(entries))
	}
}

// RecordPlacementValidation counts a validator verdict for create, update or dry-run checks.
func (m *MetricsService) RecordPlacementValidation(operation string, valid bool) {
	if m == nil {
		return
	}
	verdict := "accepted"
	if !valid {
		verdict = "rejected"
		atomic.AddUint64(&m.rejectedPlacements, 1)
	}
	m.placementChecks.WithLabelValues(operation, verdict).Inc()
}

// RecordExport counts a rendered export.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exportsRendered.WithLabelValues(format).Inc()
}

// Snapshot returns aggregated counters for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() dto.MetricsSnapshot {
	if m == nil {
		return dto.MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	snapshot := dto.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		GenerationRuns:           atomic.LoadUint64(&m.generationCount),
		EntriesGenerated:         atomic.LoadUint64(&m.generatedEntryCount),
		RejectedPlacements:       atomic.LoadUint64(&m.rejectedPlacements),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
	if last := atomic.LoadInt64(&m.lastGenerationUnix); last > 0 {
		at := time.Unix(last, 0).UTC()
		snapshot.LastGenerationAt = &at
	}
	return snapshot
}
