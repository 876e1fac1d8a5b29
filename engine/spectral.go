package engine

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/effects/pitch"

	"github.com/voicemorph/voicemorph/audio"
)

// Spectral is the highest-fidelity tier, backed by a phase-vocoder STFT
// pitch shifter. The shifter keeps phase state between calls, so Shift is
// serialized with a mutex held only for the duration of one call.
type Spectral struct {
	mu sync.Mutex
	ps *pitch.SpectralPitchShifter
}

// NewSpectral constructs the spectral engine for the given sample rate.
func NewSpectral(sampleRate int) (*Spectral, error) {
	if err := validRate(sampleRate); err != nil {
		return nil, err
	}
	ps, err := pitch.NewSpectralPitchShifter(float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("spectral engine: %w", err)
	}
	return &Spectral{ps: ps}, nil
}

func (e *Spectral) Name() string { return "spectral" }

func (e *Spectral) Shift(b audio.Block, semitones float64) (audio.Block, error) {
	if semitones == 0 || b.Len() == 0 {
		return copyBlock(b), nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ps.SetPitchSemitones(semitones); err != nil {
		return audio.Block{}, fmt.Errorf("spectral engine: %w", err)
	}
	out, err := e.ps.ProcessWithError(b.Samples)
	if err != nil {
		return audio.Block{}, fmt.Errorf("spectral engine: %w", err)
	}
	return audio.Block{Samples: out, SampleRate: b.SampleRate, Channels: b.Channels}, nil
}
