package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/time/rate"

	"github.com/roxyplus/roxy/internal/modules/player/application/ports"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// Embed colors.
const (
	colorGreen = 0x2ECC71
	colorRed   = 0xE74C3C
)

// noticeSendTimeout bounds how long a queued notice may wait on the rate
// limiter before being dropped.
const noticeSendTimeout = 5 * time.Second

// DiscordNotifier sends playback notices to Discord text channels.
// Sends are rate limited so a fast-advancing queue cannot flood a channel.
type DiscordNotifier struct {
	session *discordgo.Session
	limiter *rate.Limiter
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(session *discordgo.Session) *DiscordNotifier {
	return &DiscordNotifier{
		session: session,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// NowPlaying announces the track that just started.
func (n *DiscordNotifier) NowPlaying(channelID snowflake.ID, track domain.Track) {
	title := track.Title
	if track.URI != "" {
		title = fmt.Sprintf("[%s](%s)", track.Title, track.URI)
	}

	embed := &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: "Now Playing"},
		Description: title,
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: track.Author, Inline: true},
			{Name: "Duration", Value: track.FormattedDuration(), Inline: true},
		},
	}
	if track.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ArtworkURL}
	}

	n.send(channelID, embed)
}

// QueueFinished announces that the queue has been exhausted.
func (n *DiscordNotifier) QueueFinished(channelID snowflake.ID) {
	n.send(channelID, &discordgo.MessageEmbed{
		Description: "Queue finished.",
	})
}

// PlaybackError announces a failure to play the next track.
func (n *DiscordNotifier) PlaybackError(channelID snowflake.ID, reason string) {
	n.send(channelID, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Playback failed: %s", reason),
		Color:       colorRed,
	})
}

func (n *DiscordNotifier) send(channelID snowflake.ID, embed *discordgo.MessageEmbed) {
	ctx, cancel := context.WithTimeout(context.Background(), noticeSendTimeout)
	defer cancel()

	if err := n.limiter.Wait(ctx); err != nil {
		slog.Warn("dropping playback notice, rate limit backlog", "channel", channelID)
		return
	}
	if _, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed); err != nil {
		slog.Warn("failed to send playback notice", "channel", channelID, "error", err)
	}
}

// Ensure DiscordNotifier implements Notifier.
var _ ports.Notifier = (*DiscordNotifier)(nil)
