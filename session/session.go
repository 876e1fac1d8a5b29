// Package session creates the Discord gateway session.
package session

import (
	"github.com/bwmarrin/discordgo"
)

// New creates a Discord session with the intents the voice pipeline
// needs.
func New(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent
	return s, nil
}
