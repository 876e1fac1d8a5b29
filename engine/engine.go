// Package engine provides the interchangeable pitch-shift engines and the
// startup selector that binds the best available tier.
package engine

import (
	"fmt"

	"github.com/voicemorph/voicemorph/audio"
)

// Engine transforms one block of samples by a signed semitone offset.
// Implementations must be safe to call from multiple sessions at once;
// stateful backends serialize Shift with a lock scoped to the call.
type Engine interface {
	// Name identifies the engine tier for logs and the status display.
	Name() string
	// Shift returns a fresh block pitched by semitones. The output keeps
	// the input's sample rate and channel count.
	Shift(b audio.Block, semitones float64) (audio.Block, error)
}

func validRate(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive: %d", audio.ErrInvalidConfig, sampleRate)
	}
	return nil
}

func copyBlock(b audio.Block) audio.Block {
	samples := make([]float64, len(b.Samples))
	copy(samples, b.Samples)
	return audio.Block{Samples: samples, SampleRate: b.SampleRate, Channels: b.Channels}
}
