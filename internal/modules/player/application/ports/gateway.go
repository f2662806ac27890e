package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// VoiceGateway sends voice-channel control frames through the chat gateway.
// The credentials resulting from a join arrive asynchronously as gateway
// notifications and land in the VoiceSessionStore.
type VoiceGateway interface {
	// Join asks the gateway to move the bot into the voice channel.
	Join(guildID, channelID snowflake.ID) error

	// Leave asks the gateway to disconnect the bot from voice.
	Leave(guildID snowflake.ID) error
}
