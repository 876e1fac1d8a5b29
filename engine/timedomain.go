package engine

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/effects/pitch"

	"github.com/voicemorph/voicemorph/audio"
)

// TimeDomain is the mid-tier engine: a WSOLA-style time-stretch followed
// by fractional resampling. Cheaper than the spectral tier, with some
// smearing on transients.
type TimeDomain struct {
	mu sync.Mutex
	ps *pitch.PitchShifter
}

// NewTimeDomain constructs the time-domain engine for the given sample rate.
func NewTimeDomain(sampleRate int) (*TimeDomain, error) {
	if err := validRate(sampleRate); err != nil {
		return nil, err
	}
	ps, err := pitch.NewPitchShifter(float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("time-domain engine: %w", err)
	}
	return &TimeDomain{ps: ps}, nil
}

func (e *TimeDomain) Name() string { return "time-domain" }

func (e *TimeDomain) Shift(b audio.Block, semitones float64) (audio.Block, error) {
	if semitones == 0 || b.Len() == 0 {
		return copyBlock(b), nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ps.SetPitchSemitones(semitones); err != nil {
		return audio.Block{}, fmt.Errorf("time-domain engine: %w", err)
	}
	out := e.ps.Process(b.Samples)
	return audio.Block{Samples: out, SampleRate: b.SampleRate, Channels: b.Channels}, nil
}
