package stream

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/voicemorph/voicemorph/changer"
	"github.com/voicemorph/voicemorph/engine"
)

// ErrUnknownSpeaker reports routing for an identity the transport already
// tore down. Under correct signal ordering it never happens; it is logged
// as a logic fault and the session is not resurrected.
var ErrUnknownSpeaker = errors.New("stream: unknown speaker")

// DefaultGracePeriod absorbs brief pauses in speech before a speaker's
// session is torn down.
const DefaultGracePeriod = 30 * time.Second

type entry struct {
	session *Session
	// stoppedAt is non-zero once the transport signaled the speaker
	// stopped; the entry is reaped after the grace period elapses.
	stoppedAt time.Time
}

// Registry owns the set of active sessions, keyed by speaker identity.
// At most one session exists per identity at any time.
type Registry struct {
	cfg     Config
	eng     engine.Engine
	vc      *changer.VoiceChanger
	newSink func(identity string) Sink
	grace   time.Duration

	mu       sync.RWMutex
	sessions map[string]*entry
	retired  map[string]bool
	closed   bool
}

// NewRegistry creates a registry. newSink is invoked once per created
// session to bind its output. A grace of 0 uses DefaultGracePeriod.
func NewRegistry(cfg Config, eng engine.Engine, vc *changer.VoiceChanger, newSink func(identity string) Sink, grace time.Duration) *Registry {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Registry{
		cfg:      cfg,
		eng:      eng,
		vc:       vc,
		newSink:  newSink,
		grace:    grace,
		sessions: make(map[string]*entry),
		retired:  make(map[string]bool),
	}
}

// Start creates a session for the identity if none exists. Duplicate
// start signals are no-ops. A start signal also clears a pending stop.
func (r *Registry) Start(identity string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrUnknownSpeaker
	}
	delete(r.retired, identity)
	e, err := r.getOrCreateLocked(identity)
	if err != nil {
		return nil, err
	}
	return e.session, nil
}

// Stop arms the grace period for the identity. The session keeps
// processing until the reaper removes it.
func (r *Registry) Stop(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[identity]; ok && e.stoppedAt.IsZero() {
		e.stoppedAt = time.Now()
	}
}

// Route forwards a chunk to the identity's session, creating it lazily
// when audio arrives before the start signal. Routing after an explicit
// Teardown fails with ErrUnknownSpeaker.
func (r *Registry) Route(identity string, chunk []float64) error {
	r.mu.RLock()
	e, ok := r.sessions[identity]
	retired := r.retired[identity]
	closed := r.closed
	r.mu.RUnlock()

	if closed || retired {
		log.Printf("[Stream] routing for torn-down speaker %s", identity)
		return ErrUnknownSpeaker
	}

	if !ok {
		r.mu.Lock()
		if r.closed || r.retired[identity] {
			r.mu.Unlock()
			return ErrUnknownSpeaker
		}
		var err error
		e, err = r.getOrCreateLocked(identity)
		r.mu.Unlock()
		if err != nil {
			return err
		}
	}

	// Any audio cancels a pending stop.
	r.mu.Lock()
	e.stoppedAt = time.Time{}
	r.mu.Unlock()

	e.session.Process(chunk)
	return nil
}

// Teardown removes the identity's session immediately and refuses
// further routing for it until the next Start.
func (r *Registry) Teardown(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[identity]; ok {
		e.session.Flush()
		e.session.Close()
		delete(r.sessions, identity)
	}
	r.retired[identity] = true
}

// Reap removes sessions whose grace period expired or that have been
// idle longer than the grace period. It returns how many were removed.
func (r *Registry) Reap(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int
	for identity, e := range r.sessions {
		expired := !e.stoppedAt.IsZero() && now.Sub(e.stoppedAt) > r.grace
		idle := now.Sub(e.session.LastActive()) > r.grace
		if expired || idle {
			e.session.Flush()
			e.session.Close()
			delete(r.sessions, identity)
			removed++
		}
	}
	return removed
}

// RunReaper reaps on an interval until stop is closed. Run it in its own
// goroutine.
func (r *Registry) RunReaper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			r.Reap(now)
		}
	}
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close tears down every session. The registry cannot be reused.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for identity, e := range r.sessions {
		e.session.Flush()
		e.session.Close()
		delete(r.sessions, identity)
	}
	r.closed = true
}

func (r *Registry) getOrCreateLocked(identity string) (*entry, error) {
	if e, ok := r.sessions[identity]; ok {
		return e, nil
	}
	session, err := NewSession(r.cfg, r.eng, r.vc, r.newSink(identity))
	if err != nil {
		return nil, err
	}
	e := &entry{session: session}
	r.sessions[identity] = e
	return e, nil
}
