package ports

import (
	"errors"
	"fmt"

	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// LoadType represents the kind of track resolution result.
type LoadType string

const (
	LoadTypeTrack    LoadType = "track"
	LoadTypePlaylist LoadType = "playlist"
	LoadTypeSearch   LoadType = "search"
	LoadTypeEmpty    LoadType = "empty"
	LoadTypeError    LoadType = "error"
)

// LoadResult is the outcome of resolving an identifier against the node.
// For playlists and searches only the first track is used by this system,
// but the full set is carried for display purposes.
type LoadResult struct {
	Type         LoadType
	Tracks       []domain.Track
	PlaylistName string
	ErrorMessage string
}

// First returns the first resolved track, or nil if there is none.
func (r *LoadResult) First() *domain.Track {
	if r == nil || len(r.Tracks) == 0 {
		return nil
	}
	track := r.Tracks[0]
	return &track
}

// ErrMissingVoiceSession is returned when a start command is attempted
// without a complete voice-session credential triple.
var ErrMissingVoiceSession = errors.New("no complete voice session for guild")

// ErrConnectionLost is returned when the control connection to the audio
// node is down and a command could not be delivered.
var ErrConnectionLost = errors.New("audio node connection lost")

// NodeError carries an error message reported by the audio node itself.
type NodeError struct {
	Message string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("audio node error: %s", e.Message)
}
