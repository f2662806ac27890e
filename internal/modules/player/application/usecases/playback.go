package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/modules/player/application/ports"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// voiceConnectTimeout is the maximum time to wait for the gateway to
// deliver a complete voice session after a join request.
const voiceConnectTimeout = 10 * time.Second

// urlPattern matches identifiers that should be passed to the node as-is
// instead of being wrapped in a search query.
var urlPattern = regexp.MustCompile(`(?i)^(https?://|www\.)`)

// PlayInput contains the input for the Play use case.
type PlayInput struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID // text channel bound for playback notices
	Query     string       // raw URL or free-text search query
}

// PlayOutput contains the result of the Play use case.
type PlayOutput struct {
	Track  domain.Track
	Queued bool // true if appended behind a playing track
	// Position is the track's place in the pending sequence when Queued.
	Position int
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	Skipped domain.Track
	Next    *domain.Track // nil if the queue was exhausted
}

// PlaybackService coordinates queue state, voice credentials and audio-node
// commands. All per-guild work funnels through a per-guild serial executor;
// distinct guilds proceed in parallel.
type PlaybackService struct {
	queues       domain.QueueRepository
	sessions     domain.VoiceSessionStore
	node         ports.AudioNode
	gateway      ports.VoiceGateway
	notifier     ports.Notifier
	searchPrefix string

	exec *guildExecutor
	now  func() time.Time
}

// NewPlaybackService creates a new PlaybackService. searchPrefix tags
// free-text queries for the node's search provider (e.g. "ytmsearch").
func NewPlaybackService(
	queues domain.QueueRepository,
	sessions domain.VoiceSessionStore,
	node ports.AudioNode,
	gateway ports.VoiceGateway,
	notifier ports.Notifier,
	searchPrefix string,
) *PlaybackService {
	return &PlaybackService{
		queues:       queues,
		sessions:     sessions,
		node:         node,
		gateway:      gateway,
		notifier:     notifier,
		searchPrefix: searchPrefix,
		exec:         newGuildExecutor(),
		now:          time.Now,
	}
}

// Close stops the per-guild workers.
func (s *PlaybackService) Close() {
	s.exec.Close()
}

// identifier wraps free text in the configured search prefix; URLs pass
// through untouched.
func (s *PlaybackService) identifier(query string) string {
	if urlPattern.MatchString(query) {
		return query
	}
	return s.searchPrefix + ":" + query
}

// Play resolves the query and either starts playback (queue idle) or
// appends the track to pending (something already playing).
func (s *PlaybackService) Play(ctx context.Context, input PlayInput) (*PlayOutput, error) {
	// Fail fast while the control connection is down instead of queueing
	// commands the node cannot receive.
	select {
	case <-s.node.Ready():
	default:
		return nil, ports.ErrConnectionLost
	}

	// Resolution is guild-independent and runs outside the guild worker.
	result, err := s.node.Resolve(ctx, s.identifier(input.Query))
	if err != nil {
		return nil, err
	}

	switch result.Type {
	case ports.LoadTypeEmpty:
		return nil, ErrNoMatches
	case ports.LoadTypeError:
		return nil, &ports.NodeError{Message: result.ErrorMessage}
	}

	track := result.First()
	if track == nil {
		return nil, ErrNoMatches
	}

	output := &PlayOutput{Track: *track}
	err = s.exec.Do(input.GuildID, func() error {
		queue := s.queues.Get(input.GuildID)
		if queue == nil {
			// No queue is created until the voice session is usable.
			if !s.sessions.IsComplete(input.GuildID) {
				return ports.ErrMissingVoiceSession
			}
			var createErr error
			queue, createErr = s.queues.Create(input.GuildID)
			if createErr != nil {
				return createErr
			}
		}

		if input.ChannelID != 0 {
			queue.BindNotificationChannel(input.ChannelID)
		}

		queue.Enqueue(*track)

		if queue.NowPlaying() != nil {
			output.Queued = true
			output.Position = queue.PendingCount()
			return nil
		}

		// Idle queue: pop the track we just appended and start it.
		session, ok := s.sessions.Get(input.GuildID)
		if !ok || !session.Complete() {
			return ports.ErrMissingVoiceSession
		}
		queue.Advance(s.now())
		if startErr := s.startCurrent(ctx, queue, false); startErr != nil {
			queue.Park()
			return fmt.Errorf("failed to start playback: %w", startErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return output, nil
}

// startCurrent issues a start/replace command for the queue's current track
// and sends the now-playing notice on success. Must run on the guild worker.
func (s *PlaybackService) startCurrent(ctx context.Context, queue *domain.GuildQueue, noReplace bool) error {
	track := queue.NowPlaying()
	if track == nil {
		return ErrNotPlaying
	}

	session, ok := s.sessions.Get(queue.GuildID())
	if !ok || !session.Complete() {
		return ports.ErrMissingVoiceSession
	}

	err := s.node.Start(ctx, ports.StartCommand{
		GuildID:   queue.GuildID(),
		Track:     *track,
		Session:   session,
		Volume:    queue.Volume(),
		Filters:   queue.Filters(),
		NoReplace: noReplace,
	})
	if err != nil {
		return err
	}

	// The re-assert path is silent: the track never stopped from the
	// listener's point of view.
	if channelID := queue.NotificationChannelID(); channelID != 0 && !noReplace {
		s.notifier.NowPlaying(channelID, *track)
	}
	return nil
}

// advanceAndContinue moves the queue forward and either starts the next
// track or tears the player down when pending is exhausted. Single code
// path shared by Skip and node-reported track ends. Must run on the guild
// worker.
func (s *PlaybackService) advanceAndContinue(ctx context.Context, queue *domain.GuildQueue) (*domain.Track, error) {
	guildID := queue.GuildID()
	channelID := queue.NotificationChannelID()

	next := queue.Advance(s.now())
	if next == nil {
		if err := s.node.Destroy(ctx, guildID); err != nil {
			slog.Warn("failed to destroy node player", "guild", guildID, "error", err)
		}
		s.queues.Delete(guildID)
		if channelID != 0 {
			s.notifier.QueueFinished(channelID)
		}
		return nil, nil
	}

	if err := s.startCurrent(ctx, queue, false); err != nil {
		queue.Park()
		if channelID != 0 {
			s.notifier.PlaybackError(channelID, err.Error())
		}
		return nil, fmt.Errorf("failed to play next track: %w", err)
	}
	return next, nil
}

// Skip advances past the current track, identically to a node-reported
// natural end.
func (s *PlaybackService) Skip(ctx context.Context, guildID snowflake.ID) (*SkipOutput, error) {
	output := &SkipOutput{}
	err := s.exec.Do(guildID, func() error {
		queue := s.queues.Get(guildID)
		if queue == nil {
			return domain.ErrNoQueue
		}
		current := queue.NowPlaying()
		if current == nil {
			return ErrNotPlaying
		}
		output.Skipped = *current

		next, err := s.advanceAndContinue(ctx, queue)
		if err != nil {
			return err
		}
		output.Next = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return output, nil
}

// Previous rewinds to the most recently finished track and restarts it.
func (s *PlaybackService) Previous(ctx context.Context, guildID snowflake.ID) (*domain.Track, error) {
	var track *domain.Track
	err := s.exec.Do(guildID, func() error {
		queue := s.queues.Get(guildID)
		if queue == nil {
			return domain.ErrNoQueue
		}

		prev := queue.Rewind(s.now())
		if prev == nil {
			// Node state untouched.
			return ErrNoPreviousTrack
		}

		if err := s.startCurrent(ctx, queue, false); err != nil {
			// Undo the rewind so local state matches the node again.
			queue.Advance(s.now())
			return fmt.Errorf("failed to play previous track: %w", err)
		}
		track = prev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

// Pause pauses the running player. State is updated only after the node
// confirmed the command.
func (s *PlaybackService) Pause(ctx context.Context, guildID snowflake.ID) error {
	return s.exec.Do(guildID, func() error {
		queue := s.queues.Get(guildID)
		if queue == nil || queue.NowPlaying() == nil {
			return ErrNotPlaying
		}
		if queue.IsPaused() {
			return ErrAlreadyPaused
		}

		paused := true
		if err := s.node.Update(ctx, guildID, ports.PlayerPatch{Paused: &paused}); err != nil {
			return err
		}
		queue.SetPaused(true, s.now())
		return nil
	})
}

// Resume resumes the paused player.
func (s *PlaybackService) Resume(ctx context.Context, guildID snowflake.ID) error {
	return s.exec.Do(guildID, func() error {
		queue := s.queues.Get(guildID)
		if queue == nil || queue.NowPlaying() == nil {
			return ErrNotPlaying
		}
		if !queue.IsPaused() {
			return ErrNotPaused
		}

		paused := false
		if err := s.node.Update(ctx, guildID, ports.PlayerPatch{Paused: &paused}); err != nil {
			return err
		}
		queue.SetPaused(false, s.now())
		return nil
	})
}

// SetVolume applies a new volume to the running player.
func (s *PlaybackService) SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error {
	if volume < domain.MinVolume || volume > domain.MaxVolume {
		return ErrVolumeOutOfRange
	}
	return s.exec.Do(guildID, func() error {
		queue := s.queues.Get(guildID)
		if queue == nil {
			return domain.ErrNoQueue
		}

		if err := s.node.Update(ctx, guildID, ports.PlayerPatch{Volume: &volume}); err != nil {
			return err
		}
		queue.SetVolume(volume)
		return nil
	})
}

// SetFilters applies an opaque filter configuration to the running player.
func (s *PlaybackService) SetFilters(ctx context.Context, guildID snowflake.ID, filters domain.Filters) error {
	return s.exec.Do(guildID, func() error {
		queue := s.queues.Get(guildID)
		if queue == nil || queue.NowPlaying() == nil {
			return ErrNotPlaying
		}

		if err := s.node.Update(ctx, guildID, ports.PlayerPatch{Filters: filters}); err != nil {
			return err
		}
		queue.SetFilters(filters)
		return nil
	})
}

// Join connects the bot to a voice channel and waits for the gateway to
// deliver the complete credential triple.
func (s *PlaybackService) Join(ctx context.Context, guildID, channelID snowflake.ID) error {
	if err := s.gateway.Join(guildID, channelID); err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, voiceConnectTimeout)
	defer cancel()
	if err := s.sessions.AwaitComplete(ctx, guildID); err != nil {
		return fmt.Errorf("timed out waiting for voice session: %w", err)
	}
	return nil
}

// Leave unconditionally tears down the guild's player, queue and voice
// session, regardless of the current state.
func (s *PlaybackService) Leave(ctx context.Context, guildID snowflake.ID) error {
	return s.exec.Do(guildID, func() error {
		if err := s.node.Destroy(ctx, guildID); err != nil {
			slog.Warn("failed to destroy node player on leave", "guild", guildID, "error", err)
		}
		s.queues.Delete(guildID)
		s.sessions.Clear(guildID)
		if err := s.gateway.Leave(guildID); err != nil {
			return fmt.Errorf("failed to leave voice channel: %w", err)
		}
		return nil
	})
}

// Pending returns the tracks waiting behind the current one, in play order.
func (s *PlaybackService) Pending(guildID snowflake.ID) ([]domain.Track, error) {
	queue := s.queues.Get(guildID)
	if queue == nil {
		return nil, domain.ErrNoQueue
	}
	return queue.Pending(), nil
}

// Status returns a read-only playback snapshot for the guild.
func (s *PlaybackService) Status(guildID snowflake.ID) (domain.Status, error) {
	queue := s.queues.Get(guildID)
	if queue == nil {
		return domain.Status{}, domain.ErrNoQueue
	}
	return queue.Snapshot(s.now()), nil
}

// HandleTrackEnd reacts to a node-reported track end. endedEncoded is the
// payload of the track the node says ended; ends that do not match the
// current track are leftovers of this system's own replace/stop commands
// and are dropped, as are reasons the system caused itself.
func (s *PlaybackService) HandleTrackEnd(ctx context.Context, guildID snowflake.ID, reason domain.TrackEndReason, endedEncoded string) {
	s.exec.Submit(guildID, func() {
		queue := s.queues.Get(guildID)
		if queue == nil {
			return
		}
		if !reason.ShouldAdvanceQueue() {
			slog.Debug("ignoring self-caused track end", "guild", guildID, "reason", reason)
			return
		}
		if current := queue.NowPlaying(); current != nil && endedEncoded != "" && current.Encoded != endedEncoded {
			slog.Debug("ignoring track end for superseded track", "guild", guildID)
			return
		}

		if _, err := s.advanceAndContinue(ctx, queue); err != nil {
			slog.Error("failed to continue after track end", "guild", guildID, "error", err)
		}
	})
}

// HandleProgress applies a node-reported playback position.
func (s *PlaybackService) HandleProgress(guildID snowflake.ID, position time.Duration, at time.Time) {
	s.exec.Submit(guildID, func() {
		queue := s.queues.Get(guildID)
		if queue == nil {
			return
		}
		if !queue.ApplyPositionUpdate(position, at) {
			slog.Debug("rejected stale progress update", "guild", guildID, "position", position)
		}
	})
}

// HandleNodeReady re-asserts the current track for every guild with an
// active queue after the control connection came back without a resumed
// session. NoReplace makes the re-assert converge instead of restarting
// tracks the node kept playing.
func (s *PlaybackService) HandleNodeReady(ctx context.Context, resumed bool) {
	if resumed {
		slog.Info("audio node session resumed, players intact")
		return
	}

	for _, queue := range s.queues.All() {
		q := queue
		s.exec.Submit(q.GuildID(), func() {
			if q.NowPlaying() == nil {
				return
			}
			if err := s.startCurrent(ctx, q, true); err != nil {
				if errors.Is(err, ports.ErrMissingVoiceSession) {
					return
				}
				slog.Error("failed to re-assert player after reconnect",
					"guild", q.GuildID(), "error", err)
			}
		})
	}
}

// HandleVoiceDisconnect cleans up after the gateway reported the bot gone
// from voice (session id unset).
func (s *PlaybackService) HandleVoiceDisconnect(ctx context.Context, guildID snowflake.ID) {
	s.exec.Submit(guildID, func() {
		if s.queues.Get(guildID) == nil {
			s.sessions.Clear(guildID)
			return
		}
		if err := s.node.Destroy(ctx, guildID); err != nil {
			slog.Warn("failed to destroy node player on voice disconnect", "guild", guildID, "error", err)
		}
		s.queues.Delete(guildID)
		s.sessions.Clear(guildID)
	})
}
