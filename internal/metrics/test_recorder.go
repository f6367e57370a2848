package metrics

import "sync"

// TestRecorder captures every recorded metric for assertions in tests,
// following the teacher's observability/metrics.TestRecorder shape.
type TestRecorder struct {
	mu               sync.Mutex
	requestStatuses  []string
	chunkCounts      []int
	engineDurations  []float64
	downloadByteSums int64
}

func NewTestRecorder() *TestRecorder { return &TestRecorder{} }

func (r *TestRecorder) RecordRequest(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestStatuses = append(r.requestStatuses, status)
}

func (r *TestRecorder) RecordChunkCount(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunkCounts = append(r.chunkCounts, n)
}

func (r *TestRecorder) RecordEngineCallDuration(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engineDurations = append(r.engineDurations, seconds)
}

func (r *TestRecorder) RecordDownloadBytes(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloadByteSums += n
}

func (r *TestRecorder) RequestStatuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.requestStatuses))
	copy(out, r.requestStatuses)
	return out
}

func (r *TestRecorder) ChunkCounts() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.chunkCounts))
	copy(out, r.chunkCounts)
	return out
}

func (r *TestRecorder) DownloadBytesTotal() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.downloadByteSums
}
