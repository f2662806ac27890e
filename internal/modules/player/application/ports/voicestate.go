package ports

import "github.com/disgoorg/snowflake/v2"

// VoiceStateProvider looks up users' voice-channel membership.
type VoiceStateProvider interface {
	// UserVoiceChannel returns the voice channel the user is currently
	// in, or 0 if they are not in one.
	UserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}
