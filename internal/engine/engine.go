// Package engine owns the process-lifetime binding to the native
// speech-recognition library (spec component C1): loading the shared
// libraries and acoustic model exactly once, and serializing every
// transcription call against the single native handle they produce.
package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/speechcore/whispersrv/internal/errors"
	"github.com/speechcore/whispersrv/internal/logging"
)

// unscaledConfidence is returned for every transcribed chunk. The engine
// does not expose a real acoustic-confidence score through its public
// API; this is a fixed placeholder, not a calibrated estimate (an
// accepted approximation, see spec's design notes on confidence).
const unscaledConfidence = 0.85

// Transcriber is the capability the pipeline depends on, so tests can
// substitute a fake implementation instead of loading the native
// library (spec's design note on avoiding untestable globals).
type Transcriber interface {
	Transcribe(ctx context.Context, pcm PcmBuffer, language string) (text string, confidence float64, err error)
}

// PcmBuffer is mono 32-bit float PCM at a fixed sample rate, the only
// format the engine accepts (spec §3).
type PcmBuffer struct {
	Samples    []float32
	SampleRate int
}

// Engine is the process-wide native model handle. It must be created
// once via Open and shared across all requests; Transcribe calls on it
// are serialized with a mutex because the underlying native context is
// not safe for concurrent use.
type Engine struct {
	api       *nativeAPI
	ctxHandle uintptr
	nThreads  int32
	mu        sync.Mutex
	log       interface {
		Info(msg string, args ...any)
	}
}

var (
	singleton     *Engine
	singletonOnce sync.Once
	initGroup     singleflight.Group
)

// Open loads the native libraries and the acoustic model found under
// artifactsDir/whisper_<modelSize>_cpu/ (spec §6's artifact layout).
// Failures here are startup-fatal (spec §4.1, §7): a missing artifact,
// a dlopen failure, or a model that fails to initialize all abort the
// process rather than degrade a single request.
func Open(artifactsDir, modelSize string) (*Engine, error) {
	dir := modelDir(artifactsDir, modelSize)
	if _, err := os.Stat(dir); err != nil {
		return nil, apperrors.New(fmt.Errorf("artifact directory missing: %w", err)).
			Category(apperrors.CategoryArtifactMissing).
			Context("artifact_dir", dir).
			Build()
	}

	api, err := loadNativeAPI(artifactsDir, modelSize)
	if err != nil {
		return nil, apperrors.New(fmt.Errorf("loading native whisper libraries: %w", err)).
			Category(apperrors.CategoryLibraryLoadError).
			Context("artifacts_dir", artifactsDir).
			Build()
	}

	modelPath := modelFilePath(artifactsDir, modelSize)
	handle := api.whisperInitFromFile(modelPath)
	if handle == 0 {
		return nil, apperrors.New(fmt.Errorf("whisper_init_from_file returned null for %q", modelPath)).
			Category(apperrors.CategoryModelInitError).
			Context("model_path", modelPath).
			Build()
	}

	e := &Engine{
		api:       api,
		ctxHandle: handle,
		nThreads:  threadCount(),
		log:       logging.ForComponent("engine"),
	}
	return e, nil
}

// threadCount returns the native thread count: the number of logical
// cores cpuid reports, clamped to the range 1..16. It is not read from
// the settings; no thread-count setting exists.
func threadCount() int32 {
	n := cpuid.CPU.LogicalCores
	if n <= 0 {
		n = 1
	}
	if n > 16 {
		n = 16
	}
	return int32(n)
}

// Default returns the process-wide Engine, initializing it on first
// call. Concurrent first callers are collapsed onto a single Open via
// singleflight so the model is never loaded twice.
func Default(artifactsDir, modelSize string) (*Engine, error) {
	var outerErr error
	singletonOnce.Do(func() {
		v, err, _ := initGroup.Do("engine-open", func() (any, error) {
			return Open(artifactsDir, modelSize)
		})
		if err != nil {
			outerErr = err
			return
		}
		singleton = v.(*Engine)
	})
	if outerErr != nil {
		return nil, outerErr
	}
	if singleton == nil {
		return nil, apperrors.New(fmt.Errorf("engine was not initialized")).
			Category(apperrors.CategoryModelInitError).Build()
	}
	return singleton, nil
}

// Transcribe runs the native model over pcm and returns the
// concatenated segment text. Only one call may execute against the
// native context at a time; callers are blocked on e.mu until it is
// free (spec §4.1, §5 — the engine is a serialized process-wide
// resource).
func (e *Engine) Transcribe(ctx context.Context, pcm PcmBuffer, language string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	params := e.api.whisperFullDefaultParams(0)
	params.NThreads = e.nThreads
	params.PrintProgress = false
	params.PrintRealtime = false
	params.PrintTimestamps = false
	// spec §4.1: the engine may split one already-chunked buffer into
	// several segments, with no cross-call context and no timestamp tokens.
	params.SingleSegment = false
	params.NoContext = true
	params.NoTimestamps = true
	if language != "" {
		langBytes := append([]byte(language), 0)
		params.Language = &langBytes[0]
	}

	if len(pcm.Samples) == 0 {
		return "", 0, apperrors.New(fmt.Errorf("empty pcm buffer")).
			Category(apperrors.CategoryEngineError).Build()
	}

	rc := e.api.whisperFull(e.ctxHandle, params, &pcm.Samples[0], int32(len(pcm.Samples)))
	if rc != 0 {
		return "", 0, apperrors.New(fmt.Errorf("whisper_full returned %d", rc)).
			Category(apperrors.CategoryEngineError).Build()
	}

	n := e.api.whisperFullNSegments(e.ctxHandle)
	var b strings.Builder
	for i := int32(0); i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(e.api.whisperFullGetSegmentText(e.ctxHandle, i)))
	}

	if e.log != nil {
		e.log.Info("chunk transcribed", "segments", n, "samples", len(pcm.Samples))
	}

	return b.String(), unscaledConfidence, nil
}

// Ready reports whether the native model context has finished
// initializing (spec §6: GET /health returns 200 iff EngineContext is
// initialized).
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctxHandle != 0
}

// Close releases the native context. It does not unload the shared
// libraries: the process is expected to exit shortly after, matching
// the teacher's treatment of the BirdNET model as a never-freed
// process-lifetime resource.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctxHandle != 0 {
		e.api.whisperFree(e.ctxHandle)
		e.ctxHandle = 0
	}
}
