package audio

import "math"

// DefaultGateThreshold suits 48kHz speech normalized to [-1, 1]. Quiet
// onsets just under the threshold are gated out; that trade-off is
// accepted rather than making the threshold adaptive.
const DefaultGateThreshold = 0.01

// Gate decides whether a block carries speech, using RMS energy against a
// fixed threshold. It is a pure value: the same block always yields the
// same answer.
type Gate struct {
	threshold float64
}

// NewGate returns a gate with the given RMS threshold. A threshold of 0
// passes every block.
func NewGate(threshold float64) Gate {
	return Gate{threshold: threshold}
}

// Active reports whether the block's energy is at or above the threshold.
func (g Gate) Active(b Block) bool {
	if g.threshold <= 0 {
		return true
	}
	return RMS(b.Samples) >= g.threshold
}

// RMS computes the root-mean-square level of samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
