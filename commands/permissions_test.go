package commands

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicemorph/voicemorph/config"
)

func newTestSession(t *testing.T, guildID, ownerID string) *discordgo.Session {
	t.Helper()
	state := discordgo.NewState()
	require.NoError(t, state.GuildAdd(&discordgo.Guild{ID: guildID, OwnerID: ownerID}))
	return &discordgo.Session{State: state}
}

func TestCanExecuteCommand(t *testing.T) {
	const guildID = "guild-1"
	const ownerID = "owner-1"

	tests := []struct {
		name       string
		masterUser string
		userID     string
		want       bool
	}{
		{"master user allowed", "master-1", "master-1", true},
		{"guild owner allowed", "master-1", ownerID, true},
		{"other user denied when master configured", "master-1", "random-1", false},
		{"everyone allowed when no master configured", "", "random-1", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			session := newTestSession(t, guildID, ownerID)
			pc := NewPermissionChecker(&config.DiscordConfig{MasterUser: tc.masterUser})
			assert.Equal(t, tc.want, pc.CanExecuteCommand(session, guildID, tc.userID))
		})
	}
}
