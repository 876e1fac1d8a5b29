package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicemorph/voicemorph/audio"
	"github.com/voicemorph/voicemorph/changer"
)

func newTestRegistry(grace time.Duration) (*Registry, map[string]*captureSink) {
	sinks := make(map[string]*captureSink)
	newSink := func(identity string) Sink {
		c := &captureSink{}
		sinks[identity] = c
		return c
	}
	r := NewRegistry(testConfig(), doubleEngine{}, changer.New(), newSink, grace)
	return r, sinks
}

func TestRegistry_StartIsIdempotent(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)

	first, err := r.Start("alice")
	require.NoError(t, err)
	second, err := r.Start("alice")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RouteCreatesLazily(t *testing.T) {
	r, sinks := newTestRegistry(time.Minute)

	require.NoError(t, r.Route("bob", speechChunk(64)))
	assert.Equal(t, 1, r.Len())
	assert.Len(t, sinks["bob"].blocks, 1)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r, sinks := newTestRegistry(time.Minute)

	require.NoError(t, r.Route("alice", speechChunk(64)))
	require.NoError(t, r.Route("bob", make([]float64, 64))) // silence

	assert.Len(t, sinks["alice"].blocks, 1)
	assert.Empty(t, sinks["bob"].blocks)
}

func TestRegistry_StopThenReapRemoves(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)

	_, err := r.Start("alice")
	require.NoError(t, err)
	r.Stop("alice")

	// Before the grace period: still present.
	assert.Zero(t, r.Reap(time.Now()))
	assert.Equal(t, 1, r.Len())

	// After it: removed.
	assert.Equal(t, 1, r.Reap(time.Now().Add(2*time.Minute)))
	assert.Zero(t, r.Len())

	// Routing afterwards creates a fresh session, no error.
	require.NoError(t, r.Route("alice", speechChunk(64)))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_AudioCancelsPendingStop(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)

	_, err := r.Start("alice")
	require.NoError(t, err)
	r.Stop("alice")
	require.NoError(t, r.Route("alice", speechChunk(64)))

	// Stop was cancelled; only idleness can reap now, and the session
	// just processed audio.
	assert.Zero(t, r.Reap(time.Now().Add(30*time.Second)))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_IdleSessionsReaped(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)

	require.NoError(t, r.Route("alice", speechChunk(64)))
	assert.Equal(t, 1, r.Reap(time.Now().Add(2*time.Minute)))
	assert.Zero(t, r.Len())
}

func TestRegistry_TeardownRefusesRouting(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)

	require.NoError(t, r.Route("alice", speechChunk(64)))
	r.Teardown("alice")

	err := r.Route("alice", speechChunk(64))
	assert.ErrorIs(t, err, ErrUnknownSpeaker)
	assert.Zero(t, r.Len())

	// An explicit start signal revives the identity.
	_, err = r.Start("alice")
	require.NoError(t, err)
	require.NoError(t, r.Route("alice", speechChunk(64)))
}

func TestRegistry_CloseTearsDownEverything(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)

	require.NoError(t, r.Route("alice", speechChunk(64)))
	require.NoError(t, r.Route("bob", speechChunk(64)))
	r.Close()

	assert.Zero(t, r.Len())
	assert.ErrorIs(t, r.Route("alice", speechChunk(64)), ErrUnknownSpeaker)
}

func TestRegistry_FlushOnTeardown(t *testing.T) {
	r, sinks := newTestRegistry(time.Minute)

	// 40 samples: no complete block until the teardown flush.
	require.NoError(t, r.Route("alice", speechChunk(40)))
	assert.Empty(t, sinks["alice"].blocks)

	r.Teardown("alice")
	require.Len(t, sinks["alice"].blocks, 1)
	assert.Equal(t, 40, sinks["alice"].blocks[0].Len())
}

func TestRegistry_ConcurrentRouting(t *testing.T) {
	r, sinks := newTestRegistry(time.Minute)

	done := make(chan struct{})
	for _, id := range []string{"a", "b", "c", "d"} {
		go func(identity string) {
			defer func() { done <- struct{}{} }()
			for range 50 {
				_ = r.Route(identity, speechChunk(64))
			}
		}(id)
	}
	for range 4 {
		<-done
	}

	assert.Equal(t, 4, r.Len())
	for _, id := range []string{"a", "b", "c", "d"} {
		assert.Len(t, sinks[id].blocks, 50)
	}
}

func TestRegistry_SinkReceivesBlockShape(t *testing.T) {
	r, sinks := newTestRegistry(time.Minute)
	require.NoError(t, r.Route("alice", speechChunk(128)))

	require.Len(t, sinks["alice"].blocks, 2)
	for _, b := range sinks["alice"].blocks {
		assert.Equal(t, 64, b.Len())
		assert.Equal(t, 48000, b.SampleRate)
		assert.Equal(t, 1, b.Channels)
	}
}

var _ Sink = SinkFunc(func(b audio.Block) {})
