package infrastructure

import (
	"time"

	"github.com/disgoorg/json"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// Wire types for the audio node's v4 protocol. Only the fields this system
// consumes are declared; unknown fields are ignored on decode.

// inboundFrame is the envelope of every websocket message. The op field
// selects which of the remaining fields are populated.
type inboundFrame struct {
	Op string `json:"op"`

	// op: ready
	Resumed   bool   `json:"resumed"`
	SessionID string `json:"sessionId"`

	// op: playerUpdate, event
	GuildID string `json:"guildId"`

	// op: playerUpdate
	State playerState `json:"state"`

	// op: event
	Type   string     `json:"type"`
	Reason string     `json:"reason"`
	Track  *wireTrack `json:"track"`
}

// playerState is the periodic position report attached to playerUpdate.
type playerState struct {
	Time      int64 `json:"time"` // unix millis at sampling time
	Position  int64 `json:"position"`
	Connected bool  `json:"connected"`
}

type wireTrack struct {
	Encoded string        `json:"encoded"`
	Info    wireTrackInfo `json:"info"`
}

type wireTrackInfo struct {
	Identifier string  `json:"identifier"`
	Author     string  `json:"author"`
	Length     int64   `json:"length"` // millis
	IsStream   bool    `json:"isStream"`
	Title      string  `json:"title"`
	URI        *string `json:"uri"`
	ArtworkURL *string `json:"artworkUrl"`
	SourceName string  `json:"sourceName"`
}

// asDomain converts a wire track into the domain representation.
func (t *wireTrack) asDomain() domain.Track {
	track := domain.Track{
		Encoded:    t.Encoded,
		Identifier: t.Info.Identifier,
		Title:      t.Info.Title,
		Author:     t.Info.Author,
		Duration:   time.Duration(t.Info.Length) * time.Millisecond,
		SourceName: t.Info.SourceName,
		IsStream:   t.Info.IsStream,
	}
	if t.Info.URI != nil {
		track.URI = *t.Info.URI
	}
	if t.Info.ArtworkURL != nil {
		track.ArtworkURL = *t.Info.ArtworkURL
	}
	return track
}

// loadResponse is the body of a loadtracks REST call. The shape of data
// depends on loadType.
type loadResponse struct {
	LoadType string          `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}

type wirePlaylist struct {
	Info struct {
		Name string `json:"name"`
	} `json:"info"`
	Tracks []wireTrack `json:"tracks"`
}

type wireException struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

// playerUpdateRequest is the body of a player PATCH. Absent fields leave
// the node-side player untouched.
type playerUpdateRequest struct {
	Track   *trackUpdate      `json:"track,omitempty"`
	Volume  *int              `json:"volume,omitempty"`
	Paused  *bool             `json:"paused,omitempty"`
	Filters json.RawMessage   `json:"filters,omitempty"`
	Voice   *voiceStateUpdate `json:"voice,omitempty"`
}

type trackUpdate struct {
	Encoded *string `json:"encoded"`
}

type voiceStateUpdate struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

// sessionUpdateRequest configures control-session resuming.
type sessionUpdateRequest struct {
	Resuming bool `json:"resuming"`
	Timeout  int  `json:"timeout"` // seconds
}

// restError is the node's error body for non-2xx REST responses.
type restError struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
