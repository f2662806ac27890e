package domain

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceSession is the per-guild credential triple required to authorize the
// audio node to join a voice call. The session id and the token/endpoint
// pair arrive in two independent gateway notifications; the session is
// usable only once all three fields are present.
type VoiceSession struct {
	SessionID string
	Token     string
	Endpoint  string
}

// Complete returns true iff all three credential fields are set.
func (s VoiceSession) Complete() bool {
	return s.SessionID != "" && s.Token != "" && s.Endpoint != ""
}

// VoiceSessionStore is the process-wide table of per-guild voice-session
// credentials. It is written by the inbound-gateway-event handler and read
// by the playback service concurrently.
type VoiceSessionStore interface {
	// RecordSessionUpdate upserts the session id for a guild, creating the
	// record if absent. An empty session id signals disconnect intent.
	RecordSessionUpdate(guildID snowflake.ID, sessionID string)

	// RecordServerUpdate upserts the token and endpoint for a guild,
	// creating the record if absent.
	RecordServerUpdate(guildID snowflake.ID, token, endpoint string)

	// Get returns the current record and whether one exists.
	Get(guildID snowflake.ID) (VoiceSession, bool)

	// IsComplete returns true iff all three credential fields are set.
	IsComplete(guildID snowflake.ID) bool

	// AwaitComplete blocks until the guild's session is complete or the
	// context is done.
	AwaitComplete(ctx context.Context, guildID snowflake.ID) error

	// Clear evicts the guild's record.
	Clear(guildID snowflake.ID)
}
