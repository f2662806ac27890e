package domain

import (
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Volume bounds accepted by the audio node.
const (
	MinVolume     = 0
	MaxVolume     = 1000
	DefaultVolume = 100
)

// GuildQueue holds the playback queue and playback-state record for one
// guild. All mutations for a guild are serialized by the playback service;
// the internal mutex additionally makes snapshot reads (status queries)
// safe from other goroutines.
type GuildQueue struct {
	mu sync.Mutex

	guildID               snowflake.ID
	notificationChannelID snowflake.ID

	nowPlaying *Track
	pending    []Track
	history    []Track

	volume  int
	paused  bool
	filters Filters

	positionEstimate time.Duration
	lastSyncedAt     time.Time
}

// NewGuildQueue creates an empty queue for the given guild.
func NewGuildQueue(guildID snowflake.ID) *GuildQueue {
	return &GuildQueue{
		guildID: guildID,
		volume:  DefaultVolume,
	}
}

// GuildID returns the owning guild.
func (q *GuildQueue) GuildID() snowflake.ID {
	// guildID must not be modified after creation
	return q.guildID
}

// NotificationChannelID returns the text channel bound for notices.
func (q *GuildQueue) NotificationChannelID() snowflake.ID {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.notificationChannelID
}

// BindNotificationChannel updates the text channel used for notices.
func (q *GuildQueue) BindNotificationChannel(channelID snowflake.ID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notificationChannelID = channelID
}

// NowPlaying returns a copy of the current track, or nil if none.
func (q *GuildQueue) NowPlaying() *Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.nowPlayingLocked()
}

func (q *GuildQueue) nowPlayingLocked() *Track {
	if q.nowPlaying == nil {
		return nil
	}
	track := *q.nowPlaying
	return &track
}

// PendingCount returns the number of tracks waiting behind the current one.
func (q *GuildQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Pending returns a copy of the pending tracks in play order.
func (q *GuildQueue) Pending() []Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := make([]Track, len(q.pending))
	copy(result, q.pending)
	return result
}

// HistoryCount returns the number of tracks that have finished playing.
func (q *GuildQueue) HistoryCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.history)
}

// Enqueue appends a track to the tail of the pending sequence.
func (q *GuildQueue) Enqueue(track Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, track)
}

// Advance pushes the current track onto history and pops the head of
// pending into nowPlaying, resetting the position clock. Returns the new
// current track, or nil if pending was empty.
func (q *GuildQueue) Advance(now time.Time) *Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.nowPlaying != nil {
		q.history = append(q.history, *q.nowPlaying)
		q.nowPlaying = nil
	}
	if len(q.pending) > 0 {
		track := q.pending[0]
		q.pending = q.pending[1:]
		q.nowPlaying = &track
	}

	q.positionEstimate = 0
	q.lastSyncedAt = now

	return q.nowPlayingLocked()
}

// Rewind is the inverse of Advance: the current track goes back to the head
// of pending and the newest history entry becomes current. Returns nil
// without changing anything if history is empty.
func (q *GuildQueue) Rewind(now time.Time) *Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.history) == 0 {
		return nil
	}

	if q.nowPlaying != nil {
		q.pending = append([]Track{*q.nowPlaying}, q.pending...)
	}

	last := len(q.history) - 1
	track := q.history[last]
	q.history = q.history[:last]
	q.nowPlaying = &track

	q.positionEstimate = 0
	q.lastSyncedAt = now

	return q.nowPlayingLocked()
}

// Park moves the current track back to the head of pending and clears
// nowPlaying. Used to roll back an optimistic Advance or Rewind when the
// node rejected the start command; the track stays queued for retry.
func (q *GuildQueue) Park() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.nowPlaying == nil {
		return
	}
	q.pending = append([]Track{*q.nowPlaying}, q.pending...)
	q.nowPlaying = nil
	q.positionEstimate = 0
}

// ApplyPositionUpdate records a node-reported playback position. Updates
// older than the last applied one are rejected; returns false when stale.
func (q *GuildQueue) ApplyPositionUpdate(position time.Duration, at time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if at.Before(q.lastSyncedAt) {
		return false
	}
	q.positionEstimate = position
	q.lastSyncedAt = at
	return true
}

// Position extrapolates the playback position from the last node update.
// While paused the estimate is frozen; it never exceeds the track duration.
func (q *GuildQueue) Position(now time.Time) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.nowPlaying == nil {
		return 0
	}

	position := q.positionEstimate
	if !q.paused && !q.lastSyncedAt.IsZero() {
		position += now.Sub(q.lastSyncedAt)
	}
	if !q.nowPlaying.IsStream && position > q.nowPlaying.Duration {
		position = q.nowPlaying.Duration
	}
	if position < 0 {
		position = 0
	}
	return position
}

// IsPaused returns the paused flag.
func (q *GuildQueue) IsPaused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// SetPaused updates the paused flag. Entering pause pins the position
// estimate to the extrapolated value so it stops advancing.
func (q *GuildQueue) SetPaused(paused bool, now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.paused == paused {
		return
	}
	if paused && q.nowPlaying != nil && !q.lastSyncedAt.IsZero() {
		q.positionEstimate += now.Sub(q.lastSyncedAt)
	}
	q.lastSyncedAt = now
	q.paused = paused
}

// Volume returns the current volume.
func (q *GuildQueue) Volume() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.volume
}

// SetVolume stores the volume, clamped to the accepted range.
func (q *GuildQueue) SetVolume(volume int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if volume < MinVolume {
		volume = MinVolume
	}
	if volume > MaxVolume {
		volume = MaxVolume
	}
	q.volume = volume
}

// Filters returns the opaque filter configuration.
func (q *GuildQueue) Filters() Filters {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.filters
}

// SetFilters stores the opaque filter configuration.
func (q *GuildQueue) SetFilters(filters Filters) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.filters = filters
}

// Status is a read-only snapshot of a guild's playback state, consumed by
// status collaborators (dashboard, CLI).
type Status struct {
	NowPlaying   *Track
	Position     time.Duration
	Duration     time.Duration
	Volume       int
	Paused       bool
	PendingCount int
}

// Snapshot assembles a Status for the given instant.
func (q *GuildQueue) Snapshot(now time.Time) Status {
	status := Status{
		NowPlaying:   q.NowPlaying(),
		Position:     q.Position(now),
		Volume:       q.Volume(),
		Paused:       q.IsPaused(),
		PendingCount: q.PendingCount(),
	}
	if status.NowPlaying != nil {
		status.Duration = status.NowPlaying.Duration
	}
	return status
}
