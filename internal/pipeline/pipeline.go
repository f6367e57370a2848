// Package pipeline orchestrates one transcription request end to end
// (spec component C5): stream the source, probe and segment it, run
// each chunk through the engine in order, merge the results, and clean
// up every temporary artifact regardless of how the request ends.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/speechcore/whispersrv/internal/conf"
	"github.com/speechcore/whispersrv/internal/engine"
	apperrors "github.com/speechcore/whispersrv/internal/errors"
	"github.com/speechcore/whispersrv/internal/logging"
	"github.com/speechcore/whispersrv/internal/merge"
	"github.com/speechcore/whispersrv/internal/metrics"
	"github.com/speechcore/whispersrv/internal/segment"
)

var log = logging.ForComponent("pipeline")

// negativeProbeTTL bounds how long a failed Probe on a given URL is
// remembered, so a burst of retries against a dead source doesn't
// re-attempt the download+probe within the window.
const negativeProbeTTL = 30 * time.Second

// Prober, Decoder, and Segmenter abstract the audio/segment packages so
// tests can substitute fakes without shelling out to ffmpeg.
type Prober func(ctx context.Context, path string) (float64, error)
type Decoder func(ctx context.Context, path string) (engine.PcmBuffer, error)
type Segmenter func(srcPath, workDir string, bounds []segment.ChunkBounds) ChunkIterator

// ChunkIterator is the lazy, cleanup-as-you-go sequence of sliced
// chunks that segment.Iterator implements.
type ChunkIterator interface {
	Next(ctx context.Context) (*segment.ChunkDescriptor, error)
	Close() error
}

// Request is the input to one transcription call.
type Request struct {
	SourceURL string
	Language  string
}

// Result is what the HTTP layer returns to the caller (spec §3's
// TranscriptionResult).
type Result struct {
	Text            string
	DurationS       float64
	Confidence      float64
	ProcessingTimeS float64
	Model           string
	Language        string
	Chunks          int
}

// Pipeline wires together the engine, audio tooling, and segmenter
// behind one orchestration entry point, Run.
type Pipeline struct {
	Transcriber engine.Transcriber
	Probe       Prober
	Decode      Decoder
	NewSegmenter Segmenter
	Recorder    metrics.Recorder
	Settings    *conf.Settings

	httpClient    *http.Client
	negativeProbe *cache.Cache
}

// New builds a Pipeline ready to run requests against settings.
func New(transcriber engine.Transcriber, probe Prober, decode Decoder, newSegmenter Segmenter, recorder metrics.Recorder, settings *conf.Settings) *Pipeline {
	if recorder == nil {
		recorder = metrics.NoOpRecorder{}
	}
	return &Pipeline{
		Transcriber:   transcriber,
		Probe:         probe,
		Decode:        decode,
		NewSegmenter:  newSegmenter,
		Recorder:      recorder,
		Settings:      settings,
		httpClient:    &http.Client{},
		negativeProbe: cache.New(negativeProbeTTL, 2*negativeProbeTTL),
	}
}

// Run executes the full Setup -> Download -> Probe -> Segment ->
// transcribe-loop -> Merge -> Assemble -> Cleanup state machine for one
// request (spec §4.5). The temp directory created for this request is
// always removed before Run returns, on every exit path.
func (p *Pipeline) Run(ctx context.Context, req Request) (result Result, err error) {
	requestID := uuid.NewString()
	reqLog := log.With("request_id", requestID)
	start := time.Now()

	if _, found := p.negativeProbe.Get(req.SourceURL); found {
		p.Recorder.RecordRequest("probe-cache-rejected")
		return Result{}, apperrors.New(fmt.Errorf("source recently failed probing, not retrying yet")).
			Category(apperrors.CategoryDownloadError).Build()
	}

	workDir, err := os.MkdirTemp(p.Settings.Upload.TempDir, "whispersrv-"+requestID+"-")
	if err != nil {
		p.Recorder.RecordRequest("error")
		return Result{}, apperrors.New(fmt.Errorf("creating temp directory: %w", err)).
			Category(apperrors.CategoryTransientStorage).Build()
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			reqLog.Warn("failed to clean up request temp directory", "path", workDir, "error", rmErr)
		}
	}()

	srcPath := filepath.Join(workDir, "source.media")
	downloaded, err := download(ctx, p.httpClient, req.SourceURL, srcPath, p.Settings.Upload.MaxSizeBytes, p.Settings.Timeouts.ConnectTimeout)
	if err != nil {
		p.Recorder.RecordRequest(statusFor(err))
		return Result{}, err
	}
	p.Recorder.RecordDownloadBytes(downloaded)

	durationS, err := p.Probe(ctx, srcPath)
	if err != nil {
		p.negativeProbe.SetDefault(req.SourceURL, true)
		p.Recorder.RecordRequest(statusFor(err))
		return Result{}, err
	}

	overallTimeout := overallDeadline(p.Settings, durationS)
	ctx, cancel := context.WithTimeout(ctx, overallTimeout)
	defer cancel()

	segCfg := segment.Config{
		ChunkingEnabled:   p.Settings.Segment.ChunkingEnabled,
		ChunkDuration:     p.Settings.Segment.ChunkDuration,
		ChunkOverlap:      p.Settings.Segment.ChunkOverlap,
		FastPathThreshold: p.Settings.Segment.FastPathThreshold,
	}
	bounds := segment.Plan(durationToDuration(durationS), segCfg)
	p.Recorder.RecordChunkCount(len(bounds))

	iter := p.NewSegmenter(srcPath, workDir, bounds)
	defer iter.Close()

	language := req.Language
	if language == "" {
		language = p.Settings.Engine.LanguageHint
	}

	var transcripts []merge.ChunkTranscript
	for {
		chunkCtx, chunkCancel := context.WithTimeout(ctx, p.Settings.Timeouts.ChunkTimeout)
		chunk, nextErr := iter.Next(chunkCtx)
		if nextErr != nil {
			chunkCancel()
			p.Recorder.RecordRequest(statusFor(nextErr))
			return Result{}, nextErr
		}
		if chunk == nil {
			chunkCancel()
			break
		}

		pcm, decodeErr := p.Decode(chunkCtx, chunk.FilePath)
		if decodeErr != nil {
			chunkCancel()
			p.Recorder.RecordRequest(statusFor(decodeErr))
			return Result{}, decodeErr
		}

		start := time.Now()
		text, confidence, transcribeErr := p.Transcriber.Transcribe(chunkCtx, pcm, language)
		p.Recorder.RecordEngineCallDuration(time.Since(start).Seconds())
		chunkCancel()
		if transcribeErr != nil {
			p.Recorder.RecordRequest(statusFor(transcribeErr))
			return Result{}, mapTimeout(transcribeErr, chunkCtx)
		}

		transcripts = append(transcripts, merge.ChunkTranscript{
			Index:      chunk.Index,
			Text:       text,
			Confidence: confidence,
		})
	}

	merged := merge.Merge(transcripts, p.Settings.Segment.ChunkOverlap.Seconds())
	p.Recorder.RecordRequest("ok")

	processingTimeS := time.Since(start).Seconds()
	reqLog.Info("request completed", "chunks", len(transcripts), "source_duration_s", durationS, "processing_time_s", processingTimeS)

	return Result{
		Text:            merged.Text,
		DurationS:       durationS,
		Confidence:      merged.Confidence,
		ProcessingTimeS: processingTimeS,
		Model:           p.Settings.Engine.ModelSize,
		Language:        language,
		Chunks:          len(transcripts),
	}, nil
}

// overallDeadline computes the request-wide timeout once the source
// duration is known: T = max(min_timeout, duration_s * realtime_factor)
// (spec §4.5 step 4, §5).
func overallDeadline(settings *conf.Settings, durationS float64) time.Duration {
	scaled := time.Duration(durationS * settings.Timeouts.RealtimeFactor * float64(time.Second))
	if scaled < settings.Timeouts.MinRequestTimeout {
		return settings.Timeouts.MinRequestTimeout
	}
	return scaled
}

func durationToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// statusFor derives the metrics status label from an error's apperrors
// category; an error that carries no category yields "generic".
func statusFor(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperrors.CategoryOf(err))
}

// mapTimeout re-categorizes an engine error as a chunk timeout when the
// chunk's own context deadline is what actually fired.
func mapTimeout(err error, chunkCtx context.Context) error {
	if chunkCtx.Err() == context.DeadlineExceeded {
		return apperrors.New(fmt.Errorf("chunk transcription timed out: %w", err)).
			Category(apperrors.CategoryChunkTimeout).Build()
	}
	return err
}
