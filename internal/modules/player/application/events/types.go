package events

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// NodeEvent is a message emitted by the audio node's control connection.
// All events travel through a single ordered stream so that events for the
// same guild are handed to the playback service in emission order.
type NodeEvent interface {
	nodeEvent()
}

// ReadyEvent signals that the control connection is (re-)established.
type ReadyEvent struct {
	// Resumed is true when the node kept the previous session's players
	// alive across the reconnect.
	Resumed   bool
	SessionID string
}

// TrackEndedEvent signals that the node stopped playing a track.
type TrackEndedEvent struct {
	GuildID snowflake.ID
	Reason  domain.TrackEndReason
	// EndedEncoded identifies the track the node says ended, so late
	// events for already-replaced tracks can be told apart from ends of
	// the current track.
	EndedEncoded string
}

// ProgressEvent carries a periodic playback-position report.
type ProgressEvent struct {
	GuildID  snowflake.ID
	Position time.Duration
	// At is when the node sampled the position.
	At time.Time
}

func (ReadyEvent) nodeEvent()      {}
func (TrackEndedEvent) nodeEvent() {}
func (ProgressEvent) nodeEvent()   {}
