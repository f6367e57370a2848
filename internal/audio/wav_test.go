package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFloat32Wav builds a minimal RIFF/WAVE container holding 32-bit
// IEEE float PCM, matching what ffmpeg's "-c:a pcm_f32le -f wav -"
// produces, for feeding into the go-audio/wav decoder under test.
func buildFloat32Wav(samples []float32) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(s))
		data.Write(buf[:])
	}

	const sampleRate = 16000
	const bitsPerSample = 32
	const numChannels = 1
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeUint32(&buf, uint32(4+8+16+8+data.Len()))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeUint32(&buf, 16)
	writeUint16(&buf, 3) // WAVE_FORMAT_IEEE_FLOAT
	writeUint16(&buf, numChannels)
	writeUint32(&buf, sampleRate)
	writeUint32(&buf, uint32(byteRate))
	writeUint16(&buf, uint16(blockAlign))
	writeUint16(&buf, bitsPerSample)

	buf.WriteString("data")
	writeUint32(&buf, uint32(data.Len()))
	buf.Write(data.Bytes())

	return buf.Bytes()
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func TestWavFloat32SamplesRoundTrip(t *testing.T) {
	want := []float32{0, 0.5, -0.5, 1.0, -1.0}
	wav := buildFloat32Wav(want)

	got, err := wavFloat32Samples(bytes.NewReader(wav))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWavFloat32SamplesRejectsNonRIFF(t *testing.T) {
	_, err := wavFloat32Samples(bytes.NewReader([]byte("not a wav file at all")))
	assert.Error(t, err)
}

func TestWavFloat32SamplesRejectsWrongBitDepth(t *testing.T) {
	var data bytes.Buffer
	writeUint16(&data, 0) // one 16-bit sample

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeUint32(&buf, uint32(4+8+16+8+data.Len()))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeUint32(&buf, 16)
	writeUint16(&buf, 1) // WAVE_FORMAT_PCM
	writeUint16(&buf, 1)
	writeUint32(&buf, 16000)
	writeUint32(&buf, 16000*2)
	writeUint16(&buf, 2)
	writeUint16(&buf, 16)

	buf.WriteString("data")
	writeUint32(&buf, uint32(data.Len()))
	buf.Write(data.Bytes())

	_, err := wavFloat32Samples(bytes.NewReader(buf.Bytes()))
	assert.Error(t, err)
}
