// Package stream orchestrates the per-speaker transformation pipeline:
// frame buffering, the voice activity gate, the pitch-shift engine and
// the output sink, plus the registry that fans the pipeline out across
// speakers.
package stream

import (
	"log"
	"sync"
	"time"

	"github.com/voicemorph/voicemorph/audio"
	"github.com/voicemorph/voicemorph/changer"
	"github.com/voicemorph/voicemorph/engine"
)

// Sink receives transformed blocks for playback or encoding.
type Sink interface {
	WriteBlock(b audio.Block)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(b audio.Block)

func (f SinkFunc) WriteBlock(b audio.Block) { f(b) }

// SilencePolicy controls what a session emits for gated-out blocks.
type SilencePolicy int

const (
	// SilenceDrop emits nothing for silent intervals; the sink must
	// tolerate gaps.
	SilenceDrop SilencePolicy = iota
	// SilenceEmit writes a zero-filled block of matching shape, for
	// sinks that need a continuous stream.
	SilenceEmit
)

// Config is the per-session pipeline configuration. Block size and sample
// rate are fixed for the lifetime of a session.
type Config struct {
	BlockSize     int
	SampleRate    int
	Overlap       float64
	GateThreshold float64
	Silence       SilencePolicy
}

// Session is the pipeline for one continuous audio stream. The frame
// buffer and gate are session-local; the engine and changer are shared
// process-wide.
type Session struct {
	mu     sync.Mutex
	buf    *audio.FrameBuffer
	gate   audio.Gate
	eng    engine.Engine
	vc     *changer.VoiceChanger
	sink   Sink
	policy SilencePolicy

	lastActive time.Time
	closed     bool
}

// NewSession builds a session. The engine handle and changer are injected;
// the session never constructs or re-selects them.
func NewSession(cfg Config, eng engine.Engine, vc *changer.VoiceChanger, sink Sink) (*Session, error) {
	buf, err := audio.NewFrameBuffer(cfg.BlockSize, cfg.SampleRate, cfg.Overlap)
	if err != nil {
		return nil, err
	}
	return &Session{
		buf:        buf,
		gate:       audio.NewGate(cfg.GateThreshold),
		eng:        eng,
		vc:         vc,
		sink:       sink,
		policy:     cfg.Silence,
		lastActive: time.Now(),
	}, nil
}

// Process feeds a chunk of raw samples through the pipeline. Blocks are
// emitted strictly in arrival order. A shift failure drops that block and
// the session continues.
func (s *Session) Process(chunk []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.lastActive = time.Now()

	for _, block := range s.buf.Push(chunk) {
		s.processBlock(block)
	}
}

// Flush pushes any trailing partial block through the pipeline. Call at
// stream end only.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if block, ok := s.buf.Flush(); ok {
		s.processBlock(block)
	}
}

func (s *Session) processBlock(block audio.Block) {
	if !s.gate.Active(block) {
		if s.policy == SilenceEmit {
			s.sink.WriteBlock(audio.Silence(block))
		}
		return
	}

	offset := s.vc.Offset()
	if offset == 0 {
		s.sink.WriteBlock(block)
		return
	}

	out, err := s.eng.Shift(block, offset)
	if err != nil {
		// One bad block must not end the stream. It is treated the same
		// way as silence: dropped, or zero-filled for continuous sinks.
		log.Printf("[Stream] treating block as silence after shift error: %v", err)
		if s.policy == SilenceEmit {
			s.sink.WriteBlock(audio.Silence(block))
		}
		return
	}
	s.sink.WriteBlock(out)
}

// LastActive returns the time of the most recent Process call.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close tears the session down. Safe to call while a Process call is in
// flight; that call completes and later ones become no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
