package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestThreadCountIsBoundedAndPositive(t *testing.T) {
	n := threadCount()
	assert.Greater(t, n, int32(0))
	assert.LessOrEqual(t, n, int32(16))
}

// fakeTranscriber satisfies Transcriber without touching the native
// library, for components that only need the interface.
type fakeTranscriber struct {
	text       string
	confidence float64
	err        error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ PcmBuffer, _ string) (string, float64, error) {
	return f.text, f.confidence, f.err
}

func TestTranscriberInterfaceSatisfiedByFake(t *testing.T) {
	var tr Transcriber = &fakeTranscriber{text: "hello world", confidence: 0.9}
	text, conf, err := tr.Transcribe(context.Background(), PcmBuffer{Samples: []float32{0, 0}}, "en")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.InDelta(t, 0.9, conf, 0.0001)
}

func TestTranscribeRejectsCancelledContext(t *testing.T) {
	e := &Engine{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := e.Transcribe(ctx, PcmBuffer{Samples: []float32{0}}, "en")
	require.Error(t, err)
}
