package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voicemorph/voicemorph/audio"
	"github.com/voicemorph/voicemorph/cache"
	"github.com/voicemorph/voicemorph/changer"
	"github.com/voicemorph/voicemorph/commands"
	"github.com/voicemorph/voicemorph/config"
	"github.com/voicemorph/voicemorph/engine"
	"github.com/voicemorph/voicemorph/events"
	logger "github.com/voicemorph/voicemorph/log"
	"github.com/voicemorph/voicemorph/session"
	"github.com/voicemorph/voicemorph/system"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fatal error loading config: %v", err)
	}

	// 2. Initialize Discord Session
	s, err := session.New(cfg.Discord.Token)
	if err != nil {
		log.Fatalf("Error creating Discord session: %v", err)
	}

	// 3. Initialize Logger
	logger.Init(s, cfg.Discord.LogChannelID)

	// 4. Bind the pitch-shift engine (once, for the process lifetime)
	eng := engine.Select(audio.SampleRate)

	// 5. Shared mode controller: one global mode for the whole room
	vc := changer.New()

	// 6. Voice controller and command handler
	voice := events.NewVoice(cfg.Audio, eng, vc)
	handler := commands.NewHandler(s, cfg, voice, vc, eng)
	s.AddHandler(handler.HandleMessage)

	// 7. Connect to Discord
	if err = s.Open(); err != nil {
		logger.Fatal("Error opening connection to Discord", err)
	}

	// 8. Status reporting (optional, dashboard only)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startStatusReporter(ctx, cfg, voice, vc, eng, handler)

	// 9. Wait for shutdown signal
	fmt.Println("Voice changer is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Cleanly close down
	if err := voice.Leave(); err != nil {
		logger.Error("leaving voice channel on shutdown", err)
	}
	s.Close()
	fmt.Println("\nVoice changer shutting down.")
}

// startStatusReporter publishes periodic snapshots to Redis when an
// address is configured.
func startStatusReporter(ctx context.Context, cfg *config.Config, voice *events.Voice, vc *changer.VoiceChanger, eng engine.Engine, handler *commands.Handler) {
	if cfg.Redis.Addr == "" {
		return
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Error("connecting to redis, status reporting disabled", err)
		return
	}

	snapshot := func() cache.Status {
		stats, err := system.Collect()
		if err != nil {
			logger.Error("collecting system stats", err)
		}
		return cache.Status{
			Mode:          vc.Mode().String(),
			Engine:        eng.Name(),
			Sessions:      voice.Sessions(),
			Connected:     voice.Connected(),
			UptimeSeconds: int64(handler.Uptime().Seconds()),
			CPUPercent:    stats.CPUPercent,
			MemoryPercent: stats.MemoryPercent,
		}
	}
	go client.RunReporter(ctx, 15*time.Second, snapshot, func(err error) {
		logger.Error("publishing status snapshot", err)
	})
}
