// Package events connects the Discord gateway to the transformation
// pipeline: it maps SSRCs to speakers, decodes incoming opus, routes
// per-speaker chunks through the session registry and plays the
// transformed audio back into the channel.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"

	"github.com/voicemorph/voicemorph/audio"
	"github.com/voicemorph/voicemorph/changer"
	"github.com/voicemorph/voicemorph/config"
	"github.com/voicemorph/voicemorph/engine"
	logger "github.com/voicemorph/voicemorph/log"
	"github.com/voicemorph/voicemorph/stream"
)

// Voice owns one voice-channel connection and its pipeline fan-out.
type Voice struct {
	audioCfg config.AudioConfig
	eng      engine.Engine
	vc       *changer.VoiceChanger

	mu        sync.Mutex
	conn      *discordgo.VoiceConnection
	registry  *stream.Registry
	source    *audio.BufferedSource
	playback  *audio.Playback
	stopChan  chan struct{}
	ssrcUsers map[uint32]string
	decoders  map[uint32]*gopus.Decoder
	botID     string
}

// NewVoice creates the voice controller. The engine handle and changer
// outlive every connection this controller makes.
func NewVoice(audioCfg config.AudioConfig, eng engine.Engine, vc *changer.VoiceChanger) *Voice {
	return &Voice{
		audioCfg: audioCfg,
		eng:      eng,
		vc:       vc,
	}
}

// Join connects to a voice channel and starts the receive and playback
// loops. Joining while connected moves the bot: the old connection is
// torn down first.
func (v *Voice) Join(s *discordgo.Session, guildID, channelID string) error {
	if err := v.Leave(); err != nil {
		logger.Error("leaving previous voice channel", err)
	}

	conn, err := s.ChannelVoiceJoin(guildID, channelID, false, false)
	if err != nil {
		return fmt.Errorf("joining voice channel %s: %w", channelID, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.botID = s.State.User.ID
	v.conn = conn
	v.source = audio.NewBufferedSource(v.audioCfg.Gain)
	v.ssrcUsers = make(map[uint32]string)
	v.decoders = make(map[uint32]*gopus.Decoder)
	v.stopChan = make(chan struct{})

	silence := stream.SilenceDrop
	if v.audioCfg.SilencePolicy == "zero" {
		silence = stream.SilenceEmit
	}
	cfg := stream.Config{
		BlockSize:     v.audioCfg.BlockSize,
		SampleRate:    audio.SampleRate,
		Overlap:       v.audioCfg.OverlapFraction,
		GateThreshold: v.audioCfg.GateThreshold,
		Silence:       silence,
	}
	// Every speaker's transformed audio lands in the one shared outgoing
	// buffer; Discord mixes nothing for us, so we serialize here.
	src := v.source
	newSink := func(identity string) stream.Sink {
		return stream.SinkFunc(func(b audio.Block) {
			src.Push(b.Samples)
		})
	}
	grace := time.Duration(v.audioCfg.GraceSeconds) * time.Second
	v.registry = stream.NewRegistry(cfg, v.eng, v.vc, newSink, grace)

	playback, err := audio.NewPlayback(conn, v.source)
	if err != nil {
		conn.Disconnect()
		v.conn = nil
		return fmt.Errorf("creating playback: %w", err)
	}
	v.playback = playback

	conn.AddHandler(v.speakingUpdate)

	go v.registry.RunReaper(5*time.Second, v.stopChan)
	go v.recvLoop(conn, v.registry, v.stopChan)
	playback.Start()

	logger.Printf("[Voice] joined channel %s", channelID)
	return nil
}

// Leave disconnects and tears down every session. No-op when not
// connected.
func (v *Voice) Leave() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conn == nil {
		return nil
	}

	close(v.stopChan)
	v.playback.Stop()
	v.registry.Close()
	err := v.conn.Disconnect()

	v.conn = nil
	v.registry = nil
	v.playback = nil
	v.source = nil
	v.ssrcUsers = nil
	v.decoders = nil

	logger.Printf("[Voice] left voice channel")
	return err
}

// Connected reports whether a voice connection is active.
func (v *Voice) Connected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.conn != nil
}

// Sessions returns the number of active speaker sessions.
func (v *Voice) Sessions() int {
	v.mu.Lock()
	r := v.registry
	v.mu.Unlock()
	if r == nil {
		return 0
	}
	return r.Len()
}

// speakingUpdate maintains the SSRC map and forwards start/stop signals
// to the registry. Discord sends these for starts, stops and channel
// joins; the SSRC is mapped in every case so speakers who joined before
// the bot still resolve.
func (v *Voice) speakingUpdate(_ *discordgo.VoiceConnection, p *discordgo.VoiceSpeakingUpdate) {
	v.mu.Lock()
	if v.ssrcUsers == nil {
		v.mu.Unlock()
		return
	}
	if p.UserID == v.botID {
		v.mu.Unlock()
		return
	}
	v.ssrcUsers[uint32(p.SSRC)] = p.UserID
	registry := v.registry
	v.mu.Unlock()

	if registry == nil {
		return
	}
	if p.Speaking {
		if _, err := registry.Start(p.UserID); err != nil {
			logger.Error(fmt.Sprintf("starting session for user %s", p.UserID), err)
		}
	} else {
		registry.Stop(p.UserID)
	}
}

// recvLoop decodes incoming opus packets and routes them per speaker.
func (v *Voice) recvLoop(conn *discordgo.VoiceConnection, registry *stream.Registry, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case p, ok := <-conn.OpusRecv:
			if !ok {
				return
			}
			v.handlePacket(p, registry)
		}
	}
}

func (v *Voice) handlePacket(p *discordgo.Packet, registry *stream.Registry) {
	v.mu.Lock()
	if v.ssrcUsers == nil {
		v.mu.Unlock()
		return
	}
	identity, mapped := v.ssrcUsers[p.SSRC]
	if !mapped {
		// No speaking update seen for this SSRC yet; skip rather than
		// guess. It resolves on the next update.
		v.mu.Unlock()
		return
	}
	decoder, ok := v.decoders[p.SSRC]
	if !ok {
		var err error
		decoder, err = gopus.NewDecoder(audio.SampleRate, audio.Channels)
		if err != nil {
			v.mu.Unlock()
			logger.Error(fmt.Sprintf("creating opus decoder for SSRC %d", p.SSRC), err)
			return
		}
		v.decoders[p.SSRC] = decoder
	}
	v.mu.Unlock()

	pcm, err := decoder.Decode(p.Opus, audio.FrameSize, false)
	if err != nil {
		logger.Error(fmt.Sprintf("decoding opus for SSRC %d", p.SSRC), err)
		return
	}

	if err := registry.Route(identity, audio.DownmixMono(pcm)); err != nil {
		logger.Error(fmt.Sprintf("routing audio for user %s", identity), err)
	}
}
