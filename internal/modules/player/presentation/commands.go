package presentation

import "github.com/roxyplus/roxy/internal/bot"

// Commands returns all prefix commands for the player module.
func Commands() []bot.Command {
	return []bot.Command{
		{
			Name:        "play",
			Aliases:     []string{"p"},
			Description: "Play a track from URL or search",
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Aliases:     []string{"unpause"},
			Description: "Resume playback",
		},
		{
			Name:        "skip",
			Aliases:     []string{"s", "next"},
			Description: "Skip the current track",
		},
		{
			Name:        "previous",
			Aliases:     []string{"prev", "back"},
			Description: "Replay the most recently finished track",
		},
		{
			Name:        "volume",
			Aliases:     []string{"vol"},
			Description: "Show or set the playback volume (0-1000)",
		},
		{
			Name:        "boost",
			Description: "Toggle the bass boost equalizer preset",
		},
		{
			Name:        "clarity",
			Description: "Toggle the clarity equalizer preset",
		},
		{
			Name:        "join",
			Aliases:     []string{"summon"},
			Description: "Join your voice channel",
		},
		{
			Name:        "leave",
			Aliases:     []string{"disconnect", "dc"},
			Description: "Leave the voice channel and clear the queue",
		},
		{
			Name:        "nowplaying",
			Aliases:     []string{"np"},
			Description: "Show the current track and position",
		},
		{
			Name:        "queue",
			Aliases:     []string{"q"},
			Description: "Show the pending tracks",
		},
	}
}
