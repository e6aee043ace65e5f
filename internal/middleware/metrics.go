package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores process wide counters
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsSuccess    atomic.Uint64
	RequestsFailed     atomic.Uint64
	SearchesTotal      atomic.Uint64
	AnalysesTotal      atomic.Uint64
	AnalysesPending    atomic.Int64
	AnalysesFailed     atomic.Uint64
	AnalysesDiscarded  atomic.Uint64
	ExportsTotal       atomic.Uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{StartTime: time.Now()}

// Global returns the process metrics.
func Global() *Metrics { return globalMetrics }

// AnalysisDispatched counts a newly dispatched analysis request.
func (m *Metrics) AnalysisDispatched() {
	m.AnalysesTotal.Add(1)
	m.AnalysesPending.Add(1)
}

// AnalysisSettled counts a terminal event. applied is false for stale results.
func (m *Metrics) AnalysisSettled(failed, applied bool) {
	m.AnalysesPending.Add(-1)
	if failed {
		m.AnalysesFailed.Add(1)
	}
	if !applied {
		m.AnalysesDiscarded.Add(1)
	}
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]interface{} {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return map[string]interface{}{
		"requests_total":       m.RequestsTotal.Load(),
		"requests_in_progress": m.RequestsInProgress.Load(),
		"requests_success":     m.RequestsSuccess.Load(),
		"requests_failed":      m.RequestsFailed.Load(),
		"searches_total":       m.SearchesTotal.Load(),
		"analyses_total":       m.AnalysesTotal.Load(),
		"analyses_pending":     m.AnalysesPending.Load(),
		"analyses_failed":      m.AnalysesFailed.Load(),
		"analyses_discarded":   m.AnalysesDiscarded.Load(),
		"exports_total":        m.ExportsTotal.Load(),
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       ms.Alloc,
			"total_alloc_bytes": ms.TotalAlloc,
			"sys_bytes":         ms.Sys,
			"num_gc":            ms.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := globalMetrics
		m.RequestsTotal.Add(1)
		m.RequestsInProgress.Add(1)
		defer m.RequestsInProgress.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			m.RequestsSuccess.Add(1)
		} else {
			m.RequestsFailed.Add(1)
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(globalMetrics.Snapshot())
}
