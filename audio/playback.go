package audio

import (
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"
)

// Playback drains a BufferedSource on a 20ms tick, opus-encodes each
// frame and sends it over the voice connection. Speaking state is toggled
// with a short silence tail so streams don't cut off abruptly.
type Playback struct {
	vc      *discordgo.VoiceConnection
	source  *BufferedSource
	encoder *gopus.Encoder

	mu       sync.Mutex
	running  bool
	stopped  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewPlayback creates a playback loop for the given voice connection.
func NewPlayback(vc *discordgo.VoiceConnection, source *BufferedSource) (*Playback, error) {
	encoder, err := gopus.NewEncoder(SampleRate, Channels, gopus.Voip)
	if err != nil {
		return nil, err
	}
	return &Playback{
		vc:       vc,
		source:   source,
		encoder:  encoder,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins the send loop. A Playback is single-use: starting again
// after Stop is a no-op.
func (p *Playback) Start() {
	p.mu.Lock()
	if p.running || p.stopped {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	go p.runLoop()
}

// Stop stops the send loop and waits for it to exit.
func (p *Playback) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.stopped = true
	close(p.stopChan)
	p.mu.Unlock()

	<-p.done
}

func (p *Playback) runLoop() {
	defer close(p.done)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	var isSpeaking bool
	var silenceFrames int

	defer func() {
		if isSpeaking {
			_ = p.vc.Speaking(false)
		}
	}()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			if !p.vc.Ready {
				continue
			}

			frame, hasAudio := p.source.ReadFrame()

			if hasAudio {
				if !isSpeaking {
					if err := p.vc.Speaking(true); err != nil {
						log.Printf("Playback Speaking(true) error: %v", err)
					}
					isSpeaking = true
				}
				silenceFrames = 0
			} else {
				if !isSpeaking {
					continue // idle
				}
				// Trail off with a few silence frames before
				// dropping the speaking flag.
				silenceFrames++
				if silenceFrames > 5 { // 100ms of silence
					if err := p.vc.Speaking(false); err != nil {
						log.Printf("Playback Speaking(false) error: %v", err)
					}
					isSpeaking = false
					continue
				}
			}

			opus, err := p.encoder.Encode(frame, FrameSize, FrameBytes)
			if err != nil {
				log.Printf("Playback encode error: %v", err)
				continue
			}
			if p.vc.OpusSend == nil {
				continue
			}
			// The send must stay cancellable: when the connection stops
			// draining OpusSend, Stop would otherwise hang here forever.
			select {
			case p.vc.OpusSend <- opus:
			case <-p.stopChan:
				return
			}
		}
	}
}
