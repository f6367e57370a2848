// Package metrics exposes the Prometheus counters and histograms the
// pipeline records against, behind a small Recorder interface so tests
// can substitute a no-op or capturing implementation (grounded on the
// teacher's observability/metrics.Recorder contract).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the capability internal/pipeline depends on.
type Recorder interface {
	RecordRequest(status string)
	RecordChunkCount(n int)
	RecordEngineCallDuration(seconds float64)
	RecordDownloadBytes(n int64)
}

// PromRecorder is the production Recorder, registered once against a
// prometheus.Registerer and exposed on GET /metrics.
type PromRecorder struct {
	requests       *prometheus.CounterVec
	chunkCount     prometheus.Histogram
	engineDuration prometheus.Histogram
	downloadBytes  prometheus.Counter
}

// NewPromRecorder builds and registers the service's metrics against
// reg (typically prometheus.DefaultRegisterer, or a fresh registry in
// tests).
func NewPromRecorder(reg prometheus.Registerer) *PromRecorder {
	r := &PromRecorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whispersrv_requests_total",
			Help: "Transcription requests by terminal status.",
		}, []string{"status"}),
		chunkCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "whispersrv_chunks_per_request",
			Help:    "Number of chunks a request's audio was split into.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		engineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "whispersrv_engine_call_duration_seconds",
			Help:    "Wall-clock duration of a single native engine call.",
			Buckets: prometheus.DefBuckets,
		}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whispersrv_download_bytes_total",
			Help: "Total bytes streamed from source URLs.",
		}),
	}

	reg.MustRegister(r.requests, r.chunkCount, r.engineDuration, r.downloadBytes)
	return r
}

func (r *PromRecorder) RecordRequest(status string)            { r.requests.WithLabelValues(status).Inc() }
func (r *PromRecorder) RecordChunkCount(n int)                  { r.chunkCount.Observe(float64(n)) }
func (r *PromRecorder) RecordEngineCallDuration(seconds float64) { r.engineDuration.Observe(seconds) }
func (r *PromRecorder) RecordDownloadBytes(n int64)             { r.downloadBytes.Add(float64(n)) }

// NoOpRecorder discards every observation. Useful as a default so
// callers that don't care about metrics don't need a nil check.
type NoOpRecorder struct{}

func (NoOpRecorder) RecordRequest(string)              {}
func (NoOpRecorder) RecordChunkCount(int)              {}
func (NoOpRecorder) RecordEngineCallDuration(float64)  {}
func (NoOpRecorder) RecordDownloadBytes(int64)         {}
