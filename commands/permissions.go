package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/voicemorph/voicemorph/config"
)

// PermissionChecker decides who may drive the voice changer.
type PermissionChecker struct {
	cfg *config.DiscordConfig
}

// NewPermissionChecker creates a checker bound to the Discord config.
func NewPermissionChecker(cfg *config.DiscordConfig) *PermissionChecker {
	return &PermissionChecker{cfg: cfg}
}

// CanExecuteCommand allows the configured master user, the server owner,
// and everyone when no restriction is configured.
func (pc *PermissionChecker) CanExecuteCommand(session *discordgo.Session, guildID, userID string) bool {
	if pc.cfg.MasterUser != "" && userID == pc.cfg.MasterUser {
		return true
	}

	guild, err := session.State.Guild(guildID)
	if err != nil {
		guild, err = session.Guild(guildID)
		if err != nil {
			return false
		}
	}
	if userID == guild.OwnerID {
		return true
	}

	// With no master user configured the room runs open.
	return pc.cfg.MasterUser == ""
}
