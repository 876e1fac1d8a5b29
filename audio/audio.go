// Package audio holds the sample-level building blocks of the voice
// transformation pipeline: the Block type, PCM conversions, the frame
// buffer and the voice activity gate.
package audio

import (
	"errors"
	"math"
)

const (
	SampleRate = 48000                     // 48kHz
	Channels   = 2                         // Stereo
	FrameSize  = 960                       // 20ms at 48kHz
	FrameBytes = FrameSize * Channels * 2  // 16-bit
)

// ErrInvalidConfig reports an unusable pipeline configuration. It is only
// returned from constructors, never mid-stream.
var ErrInvalidConfig = errors.New("audio: invalid configuration")

// Block is a fixed-length group of mono samples processed as one unit.
// A Block is immutable once produced; every pipeline stage that changes
// samples allocates a fresh one.
type Block struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Len returns the number of samples in the block.
func (b Block) Len() int { return len(b.Samples) }

// Silence returns a zero-filled block of the same shape as b.
func Silence(b Block) Block {
	return Block{
		Samples:    make([]float64, len(b.Samples)),
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
	}
}

// DownmixMono converts interleaved 16-bit stereo PCM to mono float64
// samples in [-1, 1] by averaging the left and right channels.
func DownmixMono(pcm []int16) []float64 {
	mono := make([]float64, len(pcm)/2)
	for i := range mono {
		l := float64(pcm[2*i]) / 32768.0
		r := float64(pcm[2*i+1]) / 32768.0
		mono[i] = (l + r) * 0.5
	}
	return mono
}

// UpmixStereo converts mono float64 samples back to interleaved 16-bit
// stereo PCM with identical left and right channels, clipping to the
// int16 range.
func UpmixStereo(mono []float64) []int16 {
	pcm := make([]int16, len(mono)*2)
	for i, s := range mono {
		v := clipSample(s * 32768.0)
		pcm[2*i] = v
		pcm[2*i+1] = v
	}
	return pcm
}

// SoftLimit applies a gain followed by a tanh soft limiter, keeping loud
// transformed speech from hard-clipping on the way out.
func SoftLimit(samples []float64, gain float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = math.Tanh(s * gain)
	}
	return out
}

func clipSample(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
