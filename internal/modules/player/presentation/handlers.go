package presentation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/roxyplus/roxy/internal/bot"
	"github.com/roxyplus/roxy/internal/modules/player/application/ports"
	"github.com/roxyplus/roxy/internal/modules/player/application/usecases"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// Equalizer presets applied by the boost and clarity commands.
var (
	filterBoost = domain.Filters(`{"equalizer":[{"band":0,"gain":0.2},{"band":1,"gain":0.15},{"band":2,"gain":0.1},{"band":3,"gain":0.05}]}`)

	filterClarity = domain.Filters(`{"equalizer":[{"band":10,"gain":0.05},{"band":11,"gain":0.1},{"band":12,"gain":0.15},{"band":13,"gain":0.15}]}`)

	filterFlat = domain.Filters(`{"equalizer":[]}`)
)

// queueDisplayLimit caps how many pending tracks the queue command lists.
const queueDisplayLimit = 10

// Handlers holds all the command handlers.
type Handlers struct {
	playback    *usecases.PlaybackService
	voiceStates ports.VoiceStateProvider
}

// NewHandlers creates new Handlers.
func NewHandlers(playback *usecases.PlaybackService, voiceStates ports.VoiceStateProvider) *Handlers {
	return &Handlers{
		playback:    playback,
		voiceStates: voiceStates,
	}
}

// HandlePlay handles the play command.
func (h *Handlers) HandlePlay(_ *discordgo.Session, cmd *bot.CommandContext) error {
	query := strings.Join(cmd.Args, " ")
	if query == "" {
		return cmd.Replier.Reply("Usage: play <url or search terms>")
	}

	ctx := context.Background()
	input := usecases.PlayInput{
		GuildID:   cmd.GuildID,
		ChannelID: cmd.ChannelID,
		Query:     query,
	}

	output, err := h.playback.Play(ctx, input)
	if errors.Is(err, ports.ErrMissingVoiceSession) {
		// Not connected yet: pull the bot into the author's channel and
		// retry once.
		if err := h.joinAuthorChannel(ctx, cmd); err != nil {
			return err
		}
		output, err = h.playback.Play(ctx, input)
	}
	if err != nil {
		return err
	}

	if output.Queued {
		return cmd.Replier.Reply(fmt.Sprintf(
			"Added **%s** to the queue (position %d).", output.Track.Title, output.Position))
	}
	// The now-playing notice covers the immediate-start case.
	return nil
}

// HandlePause handles the pause command.
func (h *Handlers) HandlePause(_ *discordgo.Session, cmd *bot.CommandContext) error {
	if err := h.playback.Pause(context.Background(), cmd.GuildID); err != nil {
		return err
	}
	return cmd.Replier.Reply("Paused.")
}

// HandleResume handles the resume command.
func (h *Handlers) HandleResume(_ *discordgo.Session, cmd *bot.CommandContext) error {
	if err := h.playback.Resume(context.Background(), cmd.GuildID); err != nil {
		return err
	}
	return cmd.Replier.Reply("Resumed.")
}

// HandleSkip handles the skip command.
func (h *Handlers) HandleSkip(_ *discordgo.Session, cmd *bot.CommandContext) error {
	output, err := h.playback.Skip(context.Background(), cmd.GuildID)
	if err != nil {
		return err
	}
	if output.Next == nil {
		return cmd.Replier.Reply(fmt.Sprintf("Skipped **%s**. Queue finished.", output.Skipped.Title))
	}
	return cmd.Replier.Reply(fmt.Sprintf("Skipped **%s**.", output.Skipped.Title))
}

// HandlePrevious handles the previous command.
func (h *Handlers) HandlePrevious(_ *discordgo.Session, cmd *bot.CommandContext) error {
	track, err := h.playback.Previous(context.Background(), cmd.GuildID)
	if err != nil {
		return err
	}
	return cmd.Replier.Reply(fmt.Sprintf("Replaying **%s**.", track.Title))
}

// HandleVolume handles the volume command. Without an argument it shows
// the current volume.
func (h *Handlers) HandleVolume(_ *discordgo.Session, cmd *bot.CommandContext) error {
	if len(cmd.Args) == 0 {
		status, err := h.playback.Status(cmd.GuildID)
		if err != nil {
			return err
		}
		return cmd.Replier.Reply(fmt.Sprintf("Volume: %d", status.Volume))
	}

	volume, err := strconv.Atoi(cmd.Arg(0))
	if err != nil {
		return cmd.Replier.Reply("Usage: volume <0-1000>")
	}
	if err := h.playback.SetVolume(context.Background(), cmd.GuildID, volume); err != nil {
		return err
	}
	return cmd.Replier.Reply(fmt.Sprintf("Volume set to %d.", volume))
}

// HandleBoost handles the boost command. "boost off" restores a flat
// equalizer.
func (h *Handlers) HandleBoost(_ *discordgo.Session, cmd *bot.CommandContext) error {
	return h.applyPreset(cmd, filterBoost, "Bass boost")
}

// HandleClarity handles the clarity command. "clarity off" restores a flat
// equalizer.
func (h *Handlers) HandleClarity(_ *discordgo.Session, cmd *bot.CommandContext) error {
	return h.applyPreset(cmd, filterClarity, "Clarity")
}

func (h *Handlers) applyPreset(cmd *bot.CommandContext, preset domain.Filters, name string) error {
	if strings.EqualFold(cmd.Arg(0), "off") {
		if err := h.playback.SetFilters(context.Background(), cmd.GuildID, filterFlat); err != nil {
			return err
		}
		return cmd.Replier.Reply(fmt.Sprintf("%s disabled.", name))
	}

	if err := h.playback.SetFilters(context.Background(), cmd.GuildID, preset); err != nil {
		return err
	}
	return cmd.Replier.Reply(fmt.Sprintf("%s enabled.", name))
}

// HandleJoin handles the join command.
func (h *Handlers) HandleJoin(_ *discordgo.Session, cmd *bot.CommandContext) error {
	if err := h.joinAuthorChannel(context.Background(), cmd); err != nil {
		return err
	}
	return cmd.Replier.Reply("Connected.")
}

// HandleLeave handles the leave command.
func (h *Handlers) HandleLeave(_ *discordgo.Session, cmd *bot.CommandContext) error {
	if err := h.playback.Leave(context.Background(), cmd.GuildID); err != nil {
		return err
	}
	return cmd.Replier.Reply("Disconnected.")
}

// HandleNowPlaying handles the nowplaying command.
func (h *Handlers) HandleNowPlaying(_ *discordgo.Session, cmd *bot.CommandContext) error {
	status, err := h.playback.Status(cmd.GuildID)
	if err != nil {
		return err
	}
	if status.NowPlaying == nil {
		return cmd.Replier.Reply("Nothing is playing.")
	}

	track := status.NowPlaying
	position := formatDuration(status.Position)
	embed := &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: "Now Playing"},
		Description: fmt.Sprintf("**%s**\n%s / %s", track.Title, position, track.FormattedDuration()),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: track.Author, Inline: true},
			{Name: "Volume", Value: strconv.Itoa(status.Volume), Inline: true},
		},
	}
	if status.Paused {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Paused"}
	}
	return cmd.Replier.ReplyEmbed(embed)
}

// HandleQueue handles the queue command.
func (h *Handlers) HandleQueue(_ *discordgo.Session, cmd *bot.CommandContext) error {
	status, err := h.playback.Status(cmd.GuildID)
	if err != nil {
		return err
	}
	pending, err := h.playback.Pending(cmd.GuildID)
	if err != nil {
		return err
	}

	var sb strings.Builder
	if status.NowPlaying != nil {
		fmt.Fprintf(&sb, "Now playing: **%s**\n", status.NowPlaying.Title)
	}
	if len(pending) == 0 {
		sb.WriteString("The queue is empty.")
		return cmd.Replier.Reply(sb.String())
	}

	for i, track := range pending {
		if i == queueDisplayLimit {
			fmt.Fprintf(&sb, "... and %d more", len(pending)-queueDisplayLimit)
			break
		}
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, track.Title, track.FormattedDuration())
	}
	return cmd.Replier.Reply(strings.TrimRight(sb.String(), "\n"))
}

// joinAuthorChannel connects the bot to the command author's voice channel.
func (h *Handlers) joinAuthorChannel(ctx context.Context, cmd *bot.CommandContext) error {
	channelID, err := h.voiceStates.UserVoiceChannel(cmd.GuildID, cmd.AuthorID)
	if err != nil {
		return fmt.Errorf("failed to look up voice state: %w", err)
	}
	if channelID == 0 {
		return errors.New("join a voice channel first")
	}
	return h.playback.Join(ctx, cmd.GuildID, channelID)
}

// formatDuration renders a position as m:ss or h:mm:ss.
func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
