package pipeline

import (
	"github.com/speechcore/whispersrv/internal/audio"
	"github.com/speechcore/whispersrv/internal/segment"
)

// DefaultSegmenter adapts segment.NewIterator to the Segmenter function
// type, for production wiring (cmd/server). Tests inject their own
// Segmenter instead.
func DefaultSegmenter(srcPath, workDir string, bounds []segment.ChunkBounds) ChunkIterator {
	return segment.NewIterator(srcPath, workDir, bounds)
}

// DefaultProbe and DefaultDecode adapt the audio package's free
// functions to the Prober/Decoder function types.
var (
	DefaultProbe  Prober  = audio.Probe
	DefaultDecode Decoder = audio.Decode
)
