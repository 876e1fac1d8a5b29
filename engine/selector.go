package engine

import "log"

// Select probes the engine tiers in quality order and binds the first one
// that constructs. It runs once at startup; the returned Engine is
// immutable for the process lifetime and shared by every session. A Shift
// failure at runtime is a per-block processing error, never a reason to
// fall back to a lower tier.
func Select(sampleRate int) Engine {
	if e, err := NewSpectral(sampleRate); err == nil {
		log.Printf("[Engine] pitch-shift engine: %s", e.Name())
		return e
	} else {
		log.Printf("[Engine] spectral tier unavailable: %v", err)
	}

	if e, err := NewTimeDomain(sampleRate); err == nil {
		log.Printf("[Engine] pitch-shift engine: %s", e.Name())
		return e
	} else {
		log.Printf("[Engine] time-domain tier unavailable: %v", err)
	}

	// The baseline tier cannot fail to construct.
	e := NewResampling(sampleRate)
	log.Printf("[Engine] pitch-shift engine: %s", e.Name())
	return e
}
