package usecases

import "errors"

// Precondition errors surfaced synchronously to the command layer.
var (
	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrAlreadyPaused is returned when trying to pause while already paused.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrNotPaused is returned when trying to resume while not paused.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrNoMatches is returned when track resolution yields no results.
	ErrNoMatches = errors.New("no results found")

	// ErrNoPreviousTrack is returned when rewinding with an empty history.
	ErrNoPreviousTrack = errors.New("no previous track")

	// ErrVolumeOutOfRange is returned for volume values outside 0..1000.
	ErrVolumeOutOfRange = errors.New("volume must be between 0 and 1000")

	// ErrShuttingDown is returned when a command arrives during shutdown.
	ErrShuttingDown = errors.New("player is shutting down")
)
