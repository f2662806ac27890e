package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// CommandContext carries the parsed invocation of a prefix command.
type CommandContext struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	AuthorID  snowflake.ID

	// Args are the whitespace-separated words after the command name.
	Args []string

	// Replier sends responses back to the invoking channel.
	Replier Replier
}

// Arg returns the i-th argument, or "" if absent.
func (c *CommandContext) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Replier provides an abstraction for responding to prefix commands.
// This interface enables testing handlers without a live Discord connection.
type Replier interface {
	// Reply sends a plain-text message to the invoking channel.
	Reply(content string) error

	// ReplyEmbed sends an embed to the invoking channel.
	ReplyEmbed(embed *discordgo.MessageEmbed) error
}

// DiscordReplier implements Replier using a live Discord session.
type DiscordReplier struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordReplier creates a new DiscordReplier.
func NewDiscordReplier(s *discordgo.Session, channelID string) *DiscordReplier {
	return &DiscordReplier{
		session:   s,
		channelID: channelID,
	}
}

// Reply sends a plain-text message via the Discord API.
func (r *DiscordReplier) Reply(content string) error {
	_, err := r.session.ChannelMessageSend(r.channelID, content)
	return err
}

// ReplyEmbed sends an embed via the Discord API.
func (r *DiscordReplier) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := r.session.ChannelMessageSendEmbed(r.channelID, embed)
	return err
}

// MockReplier is a test double for Replier.
type MockReplier struct {
	Replies []string
	Embeds  []*discordgo.MessageEmbed
	Err     error
}

// Reply records the message for testing.
func (m *MockReplier) Reply(content string) error {
	m.Replies = append(m.Replies, content)
	return m.Err
}

// ReplyEmbed records the embed for testing.
func (m *MockReplier) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	m.Embeds = append(m.Embeds, embed)
	return m.Err
}
