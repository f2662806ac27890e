package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// StartCommand describes a start/replace operation sent to the audio node.
type StartCommand struct {
	GuildID snowflake.ID
	Track   domain.Track
	Session domain.VoiceSession
	Volume  int
	Filters domain.Filters

	// NoReplace asks the node to keep an already-playing track instead of
	// restarting it. Set on the reconnect-resume path so re-asserting the
	// current track converges instead of restarting playback.
	NoReplace bool
}

// PlayerPatch mutates properties of a running player without touching the
// track. Nil fields are left untouched; it never starts playback.
type PlayerPatch struct {
	Paused  *bool
	Volume  *int
	Filters domain.Filters
}

// IsEmpty returns true if the patch changes nothing.
func (p PlayerPatch) IsEmpty() bool {
	return p.Paused == nil && p.Volume == nil && p.Filters == nil
}

// AudioNode is the control-plane client for the external audio node.
type AudioNode interface {
	// Ready returns a channel closed once the control session is
	// established. Callers observe it before issuing commands.
	Ready() <-chan struct{}

	// Resolve submits an identifier (raw URI or prefixed search query) and
	// returns the node's load result.
	Resolve(ctx context.Context, identifier string) (*LoadResult, error)

	// Start starts or replaces the guild's track. Requires a complete
	// voice session; fails fast with ErrMissingVoiceSession otherwise.
	Start(ctx context.Context, cmd StartCommand) error

	// Update mutates volume/pause/filters on a running player.
	Update(ctx context.Context, guildID snowflake.ID, patch PlayerPatch) error

	// Destroy tears down the node-side player. "Already gone" is success.
	Destroy(ctx context.Context, guildID snowflake.ID) error
}
