package engine

import (
	"fmt"
	"math"

	resampler "github.com/tphakala/go-audio-resampler"

	"github.com/voicemorph/voicemorph/audio"
)

// Resampling is the baseline tier: shift pitch by resampling the block to
// a new rate and playing it back at the original one. Pitching up
// shortens the audio, so the result is tiled back to the block length;
// pitching down is truncated. The duration distortion is the accepted
// cost of a fallback that can always be constructed.
type Resampling struct {
	sampleRate int
}

// NewResampling constructs the baseline engine. Unlike the higher tiers
// it cannot fail for any positive sample rate.
func NewResampling(sampleRate int) *Resampling {
	return &Resampling{sampleRate: sampleRate}
}

func (e *Resampling) Name() string { return "resampling" }

// Shift is stateless per call; concurrent calls need no coordination.
func (e *Resampling) Shift(b audio.Block, semitones float64) (audio.Block, error) {
	n := b.Len()
	if semitones == 0 || n == 0 {
		return copyBlock(b), nil
	}

	factor := math.Pow(2, semitones/12.0)
	outRate := int(math.Round(float64(b.SampleRate) / factor))
	if outRate < 1 {
		outRate = 1
	}

	resampled, err := resampler.ResampleMono(b.Samples, float64(b.SampleRate), float64(outRate), resampler.QualityLow)
	if err != nil {
		return audio.Block{}, fmt.Errorf("resampling engine: %w", err)
	}
	if len(resampled) == 0 {
		return audio.Block{}, fmt.Errorf("resampling engine: empty output for %d samples", n)
	}

	out := make([]float64, n)
	if len(resampled) >= n {
		copy(out, resampled[:n])
	} else {
		// Pitch up leaves too few samples; repeat to fill the block.
		for i := range out {
			out[i] = resampled[i%len(resampled)]
		}
	}
	return audio.Block{Samples: out, SampleRate: b.SampleRate, Channels: b.Channels}, nil
}
