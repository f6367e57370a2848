// Package audio shells out to an external ffmpeg-compatible toolchain
// to probe, decode, and slice source media (spec component C2), then
// decodes ffmpeg's piped WAV output into PCM samples in-process via
// go-audio/wav, the same library the teacher uses to read its own
// input WAVs.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/simd"

	apperrors "github.com/speechcore/whispersrv/internal/errors"
	"github.com/speechcore/whispersrv/internal/engine"
	"github.com/speechcore/whispersrv/internal/logging"
)

// ffmpegBinary and ffprobeBinary are resolved via exec.LookPath at call
// time rather than hardcoded, so a test can point PATH at a fake.
const (
	ffmpegBinary  = "ffmpeg"
	ffprobeBinary = "ffprobe"
)

const targetSampleRate = 16000

var log = logging.ForComponent("audio")

// Probe returns the duration in seconds of the media at path, by
// invoking ffprobe and parsing its format-duration output (spec §6).
func Probe(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, ffprobeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		return 0, apperrors.New(fmt.Errorf("ffprobe failed: %w: %s", err, stderr.String())).
			Category(apperrors.CategoryAudioDecodeError).
			Context("path", path).Build()
	}

	durationStr := strings.TrimSpace(out.String())
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, apperrors.New(fmt.Errorf("parsing ffprobe duration %q: %w", durationStr, err)).
			Category(apperrors.CategoryAudioDecodeError).Build()
	}

	log.Info("probed source", "path", path, "duration_s", duration, "elapsed", elapsed)
	return duration, nil
}

// Decode demuxes and resamples the media at path to mono 16 kHz 32-bit
// float PCM, exactly the format the engine accepts (spec §4.2, §6):
//
//	ffmpeg -i <path> -ar 16000 -ac 1 -c:a pcm_f32le -f wav -
func Decode(ctx context.Context, path string) (engine.PcmBuffer, error) {
	cmd := exec.CommandContext(ctx, ffmpegBinary,
		"-i", path,
		"-ar", strconv.Itoa(targetSampleRate),
		"-ac", "1",
		"-c:a", "pcm_f32le",
		"-f", "wav",
		"-",
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		return engine.PcmBuffer{}, apperrors.New(fmt.Errorf("ffmpeg decode failed: %w: %s", err, stderr.String())).
			Category(apperrors.CategoryAudioDecodeError).
			Context("path", path).Build()
	}

	samples, err := wavFloat32Samples(bytes.NewReader(out.Bytes()))
	if err != nil {
		return engine.PcmBuffer{}, apperrors.New(fmt.Errorf("parsing decoded wav: %w", err)).
			Category(apperrors.CategoryAudioDecodeError).Build()
	}

	simd.ClampFloat32(samples, -1.0, 1.0)

	log.Info("decoded source", "path", path, "samples", len(samples), "elapsed", elapsed, "output_bytes", out.Len())
	return engine.PcmBuffer{Samples: samples, SampleRate: targetSampleRate}, nil
}

// Slice extracts [startS, endS) from srcPath into dstPath, re-using the
// same resample contract as Decode so every chunk the segmenter
// produces is already in the engine's native format (spec §4.3, §6):
//
//	ffmpeg -i <src> -ss <start> -to <end> -ar 16000 -ac 1 -c:a pcm_f32le -f wav <dst>
func Slice(ctx context.Context, srcPath, dstPath string, startS, endS float64) error {
	cmd := exec.CommandContext(ctx, ffmpegBinary,
		"-i", srcPath,
		"-ss", strconv.FormatFloat(startS, 'f', 3, 64),
		"-to", strconv.FormatFloat(endS, 'f', 3, 64),
		"-ar", strconv.Itoa(targetSampleRate),
		"-ac", "1",
		"-c:a", "pcm_f32le",
		"-f", "wav",
		"-y",
		dstPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		return apperrors.New(fmt.Errorf("ffmpeg slice failed: %w: %s", err, stderr.String())).
			Category(apperrors.CategoryAudioSliceError).
			Context("src", srcPath).
			Context("start_s", startS).
			Context("end_s", endS).Build()
	}

	log.Info("sliced chunk", "src", srcPath, "dst", dstPath, "start_s", startS, "end_s", endS, "elapsed", elapsed)
	return nil
}
