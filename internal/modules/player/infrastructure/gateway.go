package infrastructure

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/modules/player/application/ports"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// DiscordVoiceGateway drives voice-channel membership through the Discord
// gateway and feeds the resulting credentials into the voice session store.
type DiscordVoiceGateway struct {
	session  *discordgo.Session
	botID    snowflake.ID
	sessions domain.VoiceSessionStore

	// onDisconnect fires when the gateway reports the bot gone from voice.
	onDisconnect func(guildID snowflake.ID)
}

// NewDiscordVoiceGateway creates a new DiscordVoiceGateway.
func NewDiscordVoiceGateway(
	session *discordgo.Session,
	botID snowflake.ID,
	sessions domain.VoiceSessionStore,
	onDisconnect func(guildID snowflake.ID),
) *DiscordVoiceGateway {
	return &DiscordVoiceGateway{
		session:      session,
		botID:        botID,
		sessions:     sessions,
		onDisconnect: onDisconnect,
	}
}

// Join asks the gateway to move the bot into the voice channel. The
// credential dispatches arrive asynchronously through the update handlers.
func (g *DiscordVoiceGateway) Join(guildID, channelID snowflake.ID) error {
	if err := g.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true); err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}
	return nil
}

// Leave asks the gateway to disconnect the bot from voice.
func (g *DiscordVoiceGateway) Leave(guildID snowflake.ID) error {
	if err := g.session.ChannelVoiceJoinManual(guildID.String(), "", false, true); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// HandleVoiceStateUpdate records the session-id half of the credential
// triple. Updates for users other than the bot are ignored. An empty
// channel id means the bot was disconnected.
func (g *DiscordVoiceGateway) HandleVoiceStateUpdate(_ *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if event.UserID != g.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	if event.ChannelID == "" {
		slog.Debug("bot disconnected from voice", "guild", guildID)
		if g.onDisconnect != nil {
			g.onDisconnect(guildID)
		}
		return
	}

	g.sessions.RecordSessionUpdate(guildID, event.SessionID)
}

// HandleVoiceServerUpdate records the token/endpoint half of the credential
// triple.
func (g *DiscordVoiceGateway) HandleVoiceServerUpdate(_ *discordgo.Session, event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	g.sessions.RecordServerUpdate(guildID, event.Token, event.Endpoint)
}

// Ensure DiscordVoiceGateway implements VoiceGateway.
var _ ports.VoiceGateway = (*DiscordVoiceGateway)(nil)
