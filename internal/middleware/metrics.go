package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsFailed     atomic.Uint64
	BatchesTotal       atomic.Uint64
	ImagesTotal        atomic.Uint64
	ImagesSaved        atomic.Uint64
	ImagesFailed       atomic.Uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{StartTime: time.Now()}

// RecordBatch adds the outcome of one drop to the counters.
func RecordBatch(processed, saved, analysisErrors int) {
	globalMetrics.BatchesTotal.Add(1)
	globalMetrics.ImagesTotal.Add(uint64(processed))
	globalMetrics.ImagesSaved.Add(uint64(saved))
	globalMetrics.ImagesFailed.Add(uint64(analysisErrors))
}

// GetMetrics returns current metrics
func GetMetrics() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]any{
		"requests_total":       globalMetrics.RequestsTotal.Load(),
		"requests_in_progress": globalMetrics.RequestsInProgress.Load(),
		"requests_failed":      globalMetrics.RequestsFailed.Load(),
		"batches_total":        globalMetrics.BatchesTotal.Load(),
		"images_total":         globalMetrics.ImagesTotal.Load(),
		"images_saved":         globalMetrics.ImagesSaved.Load(),
		"images_failed":        globalMetrics.ImagesFailed.Load(),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes": m.Alloc,
			"sys_bytes":   m.Sys,
			"num_gc":      m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		globalMetrics.RequestsTotal.Add(1)
		globalMetrics.RequestsInProgress.Add(1)
		defer globalMetrics.RequestsInProgress.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 400 {
			globalMetrics.RequestsFailed.Add(1)
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
