package audio

import "sync"

// BufferedSource accumulates transformed mono samples and hands them out
// as fixed 20ms stereo PCM frames. When the buffer runs dry it returns
// silence frames so the playback loop always has something to send.
//
// Push is called from the per-speaker pipeline goroutines, ReadFrame from
// the playback loop.
type BufferedSource struct {
	mu   sync.Mutex
	buf  []float64
	gain float64
}

// NewBufferedSource creates a source applying gain on the way out.
// A gain of 0 is treated as unity.
func NewBufferedSource(gain float64) *BufferedSource {
	if gain <= 0 {
		gain = 1.0
	}
	return &BufferedSource{gain: gain}
}

// Push appends transformed mono samples to the outgoing buffer.
func (s *BufferedSource) Push(samples []float64) {
	s.mu.Lock()
	s.buf = append(s.buf, samples...)
	s.mu.Unlock()
}

// ReadFrame returns one 20ms stereo frame of 16-bit PCM and reports
// whether it carried buffered audio (false means a silence frame).
func (s *BufferedSource) ReadFrame() ([]int16, bool) {
	s.mu.Lock()
	if len(s.buf) < FrameSize {
		s.mu.Unlock()
		return make([]int16, FrameSize*Channels), false
	}
	mono := make([]float64, FrameSize)
	copy(mono, s.buf[:FrameSize])
	s.buf = s.buf[FrameSize:]
	s.mu.Unlock()

	if s.gain != 1.0 {
		mono = SoftLimit(mono, s.gain)
	}
	return UpmixStereo(mono), true
}

// BufferedMs returns the amount of audio currently queued, in
// milliseconds.
func (s *BufferedSource) BufferedMs() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(len(s.buf)) / float64(SampleRate) * 1000
}

// Reset drops any queued audio.
func (s *BufferedSource) Reset() {
	s.mu.Lock()
	s.buf = nil
	s.mu.Unlock()
}
