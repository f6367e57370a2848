package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFloat32Samples decodes a RIFF/WAVE stream holding 32-bit IEEE float
// PCM, the format ffmpeg is asked to produce (-c:a pcm_f32le -f wav -),
// the same way the teacher's readAudioData decodes BirdNET's input WAVs:
// via go-audio/wav's PCMBuffer loop into an audio.IntBuffer. Each word
// PCMBuffer hands back is the raw bit pattern of one float32 sample
// (the decoder only looks at bit depth to size words, not at the WAVE
// format tag), so it is reinterpreted with math.Float32frombits instead
// of being divided down the way integer PCM samples are.
func wavFloat32Samples(r io.Reader) ([]float32, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("ffmpeg output is not a valid WAV stream")
	}
	if decoder.BitDepth != 32 {
		return nil, fmt.Errorf("unexpected wav bit depth %d, want 32 for pcm_f32le", decoder.BitDepth)
	}

	buf := &audio.IntBuffer{
		Data:   make([]int, 4096),
		Format: &audio.Format{SampleRate: int(decoder.SampleRate), NumChannels: int(decoder.NumChans)},
	}

	var samples []float32
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		for _, word := range buf.Data[:n] {
			samples = append(samples, math.Float32frombits(uint32(int32(word))))
		}
	}

	return samples, nil
}
