package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSource_SilenceWhenDrained(t *testing.T) {
	s := NewBufferedSource(1.0)

	frame, hasAudio := s.ReadFrame()
	assert.False(t, hasAudio)
	require.Len(t, frame, FrameSize*Channels)
	for _, v := range frame {
		assert.Zero(t, v)
	}
}

func TestBufferedSource_FrameRoundTrip(t *testing.T) {
	s := NewBufferedSource(1.0)

	mono := make([]float64, FrameSize)
	for i := range mono {
		mono[i] = 0.25
	}
	s.Push(mono)
	assert.InDelta(t, 20.0, s.BufferedMs(), 1e-9)

	frame, hasAudio := s.ReadFrame()
	require.True(t, hasAudio)
	require.Len(t, frame, FrameSize*Channels)
	// Mono is duplicated onto both channels.
	assert.Equal(t, frame[0], frame[1])
	assert.InDelta(t, 0.25*32768, float64(frame[0]), 1.0)

	_, hasAudio = s.ReadFrame()
	assert.False(t, hasAudio)
}

func TestBufferedSource_PartialFrameWaits(t *testing.T) {
	s := NewBufferedSource(1.0)
	s.Push(make([]float64, FrameSize-1))

	_, hasAudio := s.ReadFrame()
	assert.False(t, hasAudio)

	s.Push(make([]float64, 1))
	_, hasAudio = s.ReadFrame()
	assert.True(t, hasAudio)
}

func TestSoftLimit_ClampsLoudSamples(t *testing.T) {
	out := SoftLimit([]float64{0.9, -0.9, 0.1}, 4.0)
	for _, v := range out {
		assert.Less(t, v, 1.0)
		assert.Greater(t, v, -1.0)
	}
	// Small samples pass near-linearly scaled.
	assert.InDelta(t, 0.38, out[2], 0.02)
}

func TestWAV_RoundTrip(t *testing.T) {
	pcm := []int16{0, 100, -100, 32767, -32768, 7, 8, 9}

	var buf bytes.Buffer
	require.NoError(t, WriteWAV(&buf, pcm, 48000, 2))

	got, rate, channels, err := ReadWAV(&buf)
	require.NoError(t, err)
	assert.Equal(t, 48000, rate)
	assert.Equal(t, 2, channels)
	assert.Equal(t, pcm, got)
}

func TestReadWAV_RejectsGarbage(t *testing.T) {
	_, _, _, err := ReadWAV(bytes.NewReader([]byte("definitely not a wav file")))
	assert.Error(t, err)
}

func TestReadWAV_RejectsCorruptChunkSizes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWAV(&buf, []int16{1, 2, 3, 4}, 48000, 2))
	wav := buf.Bytes()

	// A truncated fmt chunk must error, not index past the body.
	shortFmt := append([]byte(nil), wav...)
	binary.LittleEndian.PutUint32(shortFmt[16:20], 8)
	_, _, _, err := ReadWAV(bytes.NewReader(shortFmt))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fmt chunk too short")

	// A data size near uint32 max must be refused before allocation.
	hugeData := append([]byte(nil), wav...)
	binary.LittleEndian.PutUint32(hugeData[40:44], 0xFFFFFFF0)
	_, _, _, err = ReadWAV(bytes.NewReader(hugeData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data chunk too large")
}

func TestDownmixUpmix(t *testing.T) {
	stereo := []int16{16384, 16384, -16384, -16384, 0, 16384}
	mono := DownmixMono(stereo)
	require.Len(t, mono, 3)
	assert.InDelta(t, 0.5, mono[0], 1e-3)
	assert.InDelta(t, -0.5, mono[1], 1e-3)
	assert.InDelta(t, 0.25, mono[2], 1e-3)

	back := UpmixStereo(mono)
	require.Len(t, back, 6)
	assert.Equal(t, back[0], back[1])
}
