package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechcore/whispersrv/internal/conf"
	"github.com/speechcore/whispersrv/internal/engine"
	"github.com/speechcore/whispersrv/internal/metrics"
	"github.com/speechcore/whispersrv/internal/pipeline"
	"github.com/speechcore/whispersrv/internal/segment"
)

type fakeTranscriber struct{}

func (fakeTranscriber) Transcribe(_ context.Context, _ engine.PcmBuffer, _ string) (string, float64, error) {
	return "it works", 0.95, nil
}

type fakeIterator struct{ done bool }

func (f *fakeIterator) Next(_ context.Context) (*segment.ChunkDescriptor, error) {
	if f.done {
		return nil, nil
	}
	f.done = true
	return &segment.ChunkDescriptor{ChunkBounds: segment.ChunkBounds{Index: 0, StartS: 0, EndS: 5}, FilePath: "unused"}, nil
}
func (f *fakeIterator) Close() error { return nil }

func testSettings(t *testing.T, apiKey string) *conf.Settings {
	t.Helper()
	s := &conf.Settings{}
	s.Server.APIKey = apiKey
	s.Upload.MaxSizeBytes = 1024 * 1024
	s.Upload.TempDir = t.TempDir()
	s.Timeouts.ConnectTimeout = 2 * 1e9
	s.Timeouts.ChunkTimeout = 2 * 1e9
	s.Timeouts.RealtimeFactor = 2.0
	s.Timeouts.MinRequestTimeout = 5 * 1e9
	s.Segment.ChunkingEnabled = true
	s.Segment.ChunkDuration = 30 * 1e9
	s.Segment.ChunkOverlap = 1e9
	s.Segment.FastPathThreshold = 30 * 1e9
	return s
}

func testPipeline(t *testing.T, apiKey string) (*pipeline.Pipeline, *conf.Settings) {
	t.Helper()
	settings := testSettings(t, apiKey)
	probe := func(_ context.Context, _ string) (float64, error) { return 5, nil }
	decode := func(_ context.Context, _ string) (engine.PcmBuffer, error) { return engine.PcmBuffer{Samples: []float32{0}}, nil }
	newSeg := func(_, _ string, _ []segment.ChunkBounds) pipeline.ChunkIterator { return &fakeIterator{} }
	p := pipeline.New(fakeTranscriber{}, probe, decode, newSeg, metrics.NewTestRecorder(), settings)
	return p, settings
}

func TestHealthEndpoint(t *testing.T) {
	p, settings := testPipeline(t, "")
	e := NewServer(p, settings, engine.NewTestEngine())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpointReportsNotReadyBeforeEngineInit(t *testing.T) {
	p, settings := testPipeline(t, "")
	e := NewServer(p, settings, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTranscribeRequiresAPIKeyWhenConfigured(t *testing.T) {
	p, settings := testPipeline(t, "secret")
	e := NewServer(p, settings, engine.NewTestEngine())

	body := strings.NewReader(`{"url":"http://example.com/a.mp3"}`)
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTranscribeRejectsMissingURL(t *testing.T) {
	p, settings := testPipeline(t, "")
	e := NewServer(p, settings, engine.NewTestEngine())

	body := strings.NewReader(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranscribeSucceeds(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("GET", "http://example.com/a.mp3",
		httpmock.NewStringResponder(200, "fake audio bytes"))

	p, settings := testPipeline(t, "")
	e := NewServer(p, settings, engine.NewTestEngine())

	body := strings.NewReader(`{"url":"http://example.com/a.mp3"}`)
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "it works")
}
