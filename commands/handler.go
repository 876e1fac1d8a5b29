// Package commands parses chat commands and drives the voice changer.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/voicemorph/voicemorph/changer"
	"github.com/voicemorph/voicemorph/config"
	"github.com/voicemorph/voicemorph/engine"
	"github.com/voicemorph/voicemorph/events"
	logger "github.com/voicemorph/voicemorph/log"
	"github.com/voicemorph/voicemorph/system"
)

// Handler routes prefix commands to the voice controller and changer.
type Handler struct {
	session           *discordgo.Session
	cfg               *config.Config
	voice             *events.Voice
	vc                *changer.VoiceChanger
	eng               engine.Engine
	permissionChecker *PermissionChecker
	prefix            string
	startTime         time.Time
}

// NewHandler creates a command handler.
func NewHandler(session *discordgo.Session, cfg *config.Config, voice *events.Voice, vc *changer.VoiceChanger, eng engine.Engine) *Handler {
	prefix := cfg.Discord.CommandPrefix
	if prefix == "" {
		prefix = "!"
	}
	return &Handler{
		session:           session,
		cfg:               cfg,
		voice:             voice,
		vc:                vc,
		eng:               eng,
		permissionChecker: NewPermissionChecker(&cfg.Discord),
		prefix:            prefix,
		startTime:         time.Now(),
	}
}

// HandleMessage processes an incoming message as a command.
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, h.prefix) {
		return
	}

	if !h.permissionChecker.CanExecuteCommand(s, m.GuildID, m.Author.ID) {
		h.sendResponse(m.ChannelID, "You do not have permission to control the voice changer.")
		logger.Printf("[Command] permission denied for user %s (%s)", m.Author.Username, m.Author.ID)
		return
	}

	parts := strings.Fields(m.Content)
	command := strings.TrimPrefix(parts[0], h.prefix)
	args := parts[1:]

	logger.Printf("[Command] user %s (%s) executed: %s %v", m.Author.Username, m.Author.ID, command, args)

	switch command {
	case "join":
		h.handleJoin(m)
	case "leave":
		h.handleLeave(m.ChannelID)
	case "up", "pitch_up":
		h.setMode(m.ChannelID, changer.ModePitchUp)
	case "down", "pitch_down":
		h.setMode(m.ChannelID, changer.ModePitchDown)
	case "gender":
		h.handleGender(m.ChannelID, args)
	case "normal", "off":
		h.setMode(m.ChannelID, changer.ModeNormal)
	case "status", "s":
		h.handleStatus(m.ChannelID)
	case "help":
		h.handleHelp(m.ChannelID)
	default:
		h.sendResponse(m.ChannelID, fmt.Sprintf("Unknown command: `%s%s`. Use `%shelp` for available commands.", h.prefix, command, h.prefix))
	}
}

// Uptime reports how long the handler has been running.
func (h *Handler) Uptime() time.Duration {
	return time.Since(h.startTime)
}

func (h *Handler) handleJoin(m *discordgo.MessageCreate) {
	channelID := h.findVoiceChannel(m)
	if channelID == "" {
		h.sendResponse(m.ChannelID, "Join a voice channel first, then run the command again.")
		return
	}
	if err := h.voice.Join(h.session, m.GuildID, channelID); err != nil {
		logger.Error("joining voice channel", err)
		h.sendResponse(m.ChannelID, "Could not join the voice channel.")
		return
	}
	h.sendResponse(m.ChannelID, fmt.Sprintf("Connected. Current mode: %s.", h.vc.Describe()))
}

func (h *Handler) handleLeave(channelID string) {
	if !h.voice.Connected() {
		h.sendResponse(channelID, "Not connected to a voice channel.")
		return
	}
	if err := h.voice.Leave(); err != nil {
		logger.Error("leaving voice channel", err)
	}
	h.sendResponse(channelID, "Disconnected.")
}

func (h *Handler) handleGender(channelID string, args []string) {
	mode := changer.ModeMaleToFemale
	if len(args) > 0 && strings.EqualFold(args[0], "female") {
		mode = changer.ModeFemaleToMale
	}
	h.setMode(channelID, mode)
}

func (h *Handler) setMode(channelID string, mode changer.Mode) {
	prev := h.vc.SetMode(mode)
	if prev == mode {
		h.sendResponse(channelID, fmt.Sprintf("Already in mode: %s.", mode.Describe()))
		return
	}
	h.sendResponse(channelID, fmt.Sprintf("Mode changed: %s.", mode.Describe()))
}

func (h *Handler) handleStatus(channelID string) {
	stats, err := system.Collect()
	if err != nil {
		logger.Error("collecting system stats", err)
	}

	connected := "no"
	if h.voice.Connected() {
		connected = "yes"
	}

	status := strings.Join([]string{
		"**Voice Changer Status**",
		fmt.Sprintf("Mode: `%s`", h.vc.Describe()),
		fmt.Sprintf("Engine: `%s`", h.eng.Name()),
		fmt.Sprintf("Connected: `%s`", connected),
		fmt.Sprintf("Active speakers: `%d`", h.voice.Sessions()),
		fmt.Sprintf("Uptime: `%s`", h.Uptime().Round(time.Second)),
		fmt.Sprintf("CPU: `%.2f%%` | Memory: `%.2f%%`", stats.CPUPercent, stats.MemoryPercent),
	}, "\n")

	h.sendResponse(channelID, status)
}

func (h *Handler) handleHelp(channelID string) {
	p := h.prefix
	help := "**Available Commands:**\n" +
		fmt.Sprintf("`%sjoin` - Join your voice channel and start transforming\n", p) +
		fmt.Sprintf("`%sleave` - Leave the voice channel\n", p) +
		fmt.Sprintf("`%sup` - High voice (+6 semitones)\n", p) +
		fmt.Sprintf("`%sdown` - Low voice (-6 semitones)\n", p) +
		fmt.Sprintf("`%sgender [male|female]` - Opposite voice\n", p) +
		fmt.Sprintf("`%snormal` - No transform\n", p) +
		fmt.Sprintf("`%sstatus` - Show current settings\n", p) +
		fmt.Sprintf("`%shelp` - Show this help message", p)
	h.sendResponse(channelID, help)
}

// findVoiceChannel returns the voice channel the message author is in.
func (h *Handler) findVoiceChannel(m *discordgo.MessageCreate) string {
	guild, err := h.session.State.Guild(m.GuildID)
	if err != nil {
		return ""
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == m.Author.ID {
			return vs.ChannelID
		}
	}
	return ""
}

func (h *Handler) sendResponse(channelID, message string) {
	if _, err := h.session.ChannelMessageSend(channelID, message); err != nil {
		logger.Error("sending command response", err)
	}
}
