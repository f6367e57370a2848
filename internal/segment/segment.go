// Package segment plans how a source recording is split into bounded
// chunks for the engine to transcribe one at a time (spec component
// C3), and lazily materializes each chunk as a sliced audio file on
// disk just before it is needed.
package segment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/speechcore/whispersrv/internal/audio"
	apperrors "github.com/speechcore/whispersrv/internal/errors"
	"github.com/speechcore/whispersrv/internal/logging"
)

var log = logging.ForComponent("segment")

// Config carries the knobs spec §4.3 exposes, sourced from
// conf.Settings.Segment at request time.
type Config struct {
	ChunkingEnabled   bool
	ChunkDuration     time.Duration
	ChunkOverlap      time.Duration
	FastPathThreshold time.Duration
}

// ChunkBounds is one planned window into the source recording, before
// it has been sliced to disk. Direct marks the single whole-file
// window Plan emits in direct mode (spec §4.3): it must never be
// sliced and its path is never deleted by the segmenter.
type ChunkBounds struct {
	Index  int
	StartS float64
	EndS   float64
	Direct bool
}

// ChunkDescriptor is a materialized chunk: its planned bounds plus the
// path of the sliced audio file the engine will read (spec §3).
type ChunkDescriptor struct {
	ChunkBounds
	FilePath string
}

// minTailFraction and minTailFloor implement the tail-chunk merge rule
// (spec §4.3): a final chunk shorter than
// min(chunkDuration/4, 1s) is folded into the previous chunk instead of
// being transcribed on its own, since a native model call over a
// fraction of a second of audio is disproportionately expensive and
// unreliable.
const minTailFraction = 0.25
const minTailFloorSeconds = 1.0

// Plan computes the ordered list of chunk windows for a source of the
// given total duration. If chunking is disabled, or the source is at or
// under the fast-path threshold, it returns a single chunk spanning the
// whole recording (spec §4.3's direct-mode default).
func Plan(totalDuration time.Duration, cfg Config) []ChunkBounds {
	total := totalDuration.Seconds()

	if !cfg.ChunkingEnabled || totalDuration <= cfg.FastPathThreshold {
		return []ChunkBounds{{Index: 0, StartS: 0, EndS: total, Direct: true}}
	}

	chunkS := cfg.ChunkDuration.Seconds()
	overlapS := cfg.ChunkOverlap.Seconds()
	stride := chunkS - overlapS
	if stride <= 0 {
		stride = chunkS
	}

	var bounds []ChunkBounds
	idx := 0
	for start := 0.0; start < total; start += stride {
		end := start + chunkS
		if end > total {
			end = total
		}
		bounds = append(bounds, ChunkBounds{Index: idx, StartS: start, EndS: end})
		idx++
		if end >= total {
			break
		}
	}

	return mergeShortTail(bounds, chunkS)
}

// mergeShortTail folds the last chunk into its predecessor when it is
// shorter than min(chunkDuration/4, minTailFloorSeconds).
func mergeShortTail(bounds []ChunkBounds, chunkS float64) []ChunkBounds {
	if len(bounds) < 2 {
		return bounds
	}

	last := bounds[len(bounds)-1]
	tailLen := last.EndS - last.StartS

	threshold := chunkS * minTailFraction
	if threshold > minTailFloorSeconds {
		threshold = minTailFloorSeconds
	}

	if tailLen >= threshold {
		return bounds
	}

	merged := make([]ChunkBounds, len(bounds)-1)
	copy(merged, bounds[:len(bounds)-1])
	merged[len(merged)-1].EndS = last.EndS
	return merged
}

// Iterator lazily slices each planned chunk to a temp file just before
// it is returned, and removes the previous chunk's file before
// producing the next one, so at most one sliced chunk file exists on
// disk at a time regardless of how many chunks a source has.
//
// Direct mode (a single bound spanning the whole source) is a
// special case: spec §4.3 requires that no slicing happen and that the
// source file not be deleted by the segmenter, since it is owned by
// the orchestrator. Next checks the bound's Direct flag, which only
// Plan's direct-mode branch sets, and hands back srcPath unsliced
// instead of invoking audio.Slice.
type Iterator struct {
	srcPath string
	workDir string
	bounds  []ChunkBounds
	pos     int
	prev    string
}

// NewIterator returns an Iterator over bounds, slicing chunk files into
// workDir as they are consumed.
func NewIterator(srcPath, workDir string, bounds []ChunkBounds) *Iterator {
	return &Iterator{srcPath: srcPath, workDir: workDir, bounds: bounds}
}

// Next returns the next chunk, or (nil, nil) once the iterator is
// exhausted. In chunked mode it slices the chunk to a temp file and
// removes the previous chunk's sliced file first; in direct mode it
// returns srcPath unsliced and never deletes it (spec §4.3).
func (it *Iterator) Next(ctx context.Context) (*ChunkDescriptor, error) {
	if it.pos >= len(it.bounds) {
		return nil, nil
	}

	b := it.bounds[it.pos]
	it.pos++

	if b.Direct {
		return &ChunkDescriptor{ChunkBounds: b, FilePath: it.srcPath}, nil
	}

	if it.prev != "" {
		if err := os.Remove(it.prev); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to clean up previous chunk file", "path", it.prev, "error", err)
		}
		it.prev = ""
	}

	dst := filepath.Join(it.workDir, fmt.Sprintf("chunk-%04d.wav", b.Index))
	if err := audio.Slice(ctx, it.srcPath, dst, b.StartS, b.EndS); err != nil {
		return nil, apperrors.New(fmt.Errorf("slicing chunk %d: %w", b.Index, err)).
			Category(apperrors.CategoryAudioSliceError).Build()
	}

	it.prev = dst
	return &ChunkDescriptor{ChunkBounds: b, FilePath: dst}, nil
}

// Close removes any sliced chunk file left on disk by the last Next
// call. In direct mode there is nothing to remove.
func (it *Iterator) Close() error {
	if it.prev == "" {
		return nil
	}
	err := os.Remove(it.prev)
	it.prev = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
