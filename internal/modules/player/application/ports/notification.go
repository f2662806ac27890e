package ports

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// Notifier delivers plain-text playback notices to a text channel.
// Fire-and-forget: implementations log failures but never surface them.
type Notifier interface {
	// NowPlaying announces the track that just started.
	NowPlaying(channelID snowflake.ID, track domain.Track)

	// QueueFinished announces that the queue has been exhausted.
	QueueFinished(channelID snowflake.ID)

	// PlaybackError announces a failure to play the next track.
	PlaybackError(channelID snowflake.ID, reason string)
}
