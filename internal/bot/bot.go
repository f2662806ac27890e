package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config   *Config
	session  *discordgo.Session
	modules  []Module
	handlers map[string]CommandHandler
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:   cfg,
		modules:  make([]Module, 0),
		handlers: make(map[string]CommandHandler),
	}
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// Start initializes the bot, connects to Discord, and starts routing
// prefix commands.
func (b *Bot) Start() error {
	// Create Discord session
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents |= discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent | discordgo.IntentGuildVoiceStates
	b.session = session

	// Open connection first: modules need the bot's own user id during Init.
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Initialize modules
	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	// Build handler map
	b.buildHandlerMap()

	// Register message command router
	b.session.AddHandler(b.handleMessage)

	// Register module event handlers
	b.registerEventHandlers()

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
		"prefix", b.config.Prefix,
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	// Shutdown modules
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Session: b.session,
	}

	for _, mod := range b.modules {
		if cm, ok := mod.(ConfigurableModule); ok {
			if err := cm.LoadConfig(); err != nil {
				return fmt.Errorf("failed to load %s module config: %w", mod.Name(), err)
			}
		}
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildHandlerMap builds the invocation word to handler mapping,
// expanding declared aliases. A module-provided help command takes
// precedence over the built-in listing.
func (b *Bot) buildHandlerMap() {
	for _, mod := range b.modules {
		handlers := mod.CommandHandlers()
		for name, handler := range handlers {
			b.handlers[name] = handler
		}
		for _, cmd := range mod.Commands() {
			handler, ok := handlers[cmd.Name]
			if !ok {
				continue
			}
			for _, alias := range cmd.Aliases {
				b.handlers[alias] = handler
			}
		}
	}

	if _, ok := b.handlers["help"]; !ok {
		b.handlers["help"] = b.handleHelp
	}
}

// handleHelp lists every declared command with its aliases and description.
func (b *Bot) handleHelp(_ *discordgo.Session, ctx *CommandContext) error {
	var sb strings.Builder
	for _, mod := range b.modules {
		for _, cmd := range mod.Commands() {
			sb.WriteString(b.config.Prefix + cmd.Name)
			if len(cmd.Aliases) > 0 {
				sb.WriteString(" (" + strings.Join(cmd.Aliases, ", ") + ")")
			}
			if cmd.Description != "" {
				sb.WriteString(" - " + cmd.Description)
			}
			sb.WriteString("\n")
		}
	}
	if sb.Len() == 0 {
		return ctx.Replier.Reply("No commands available.")
	}
	return ctx.Replier.Reply("```\n" + sb.String() + "```")
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// handleMessage routes incoming messages starting with the prefix to the
// matching command handler.
func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, b.config.Prefix) {
		return
	}

	words := strings.Fields(strings.TrimPrefix(m.Content, b.config.Prefix))
	if len(words) == 0 {
		return
	}
	name := strings.ToLower(words[0])

	handler, ok := b.handlers[name]
	if !ok {
		return
	}

	ctx, err := b.commandContext(s, m, words[1:])
	if err != nil {
		slog.Error("failed to build command context", "command", name, "error", err)
		return
	}

	if err := handler(s, ctx); err != nil {
		slog.Error("failed to handle command", "command", name, "error", err)
		if replyErr := ctx.Replier.Reply(fmt.Sprintf("Error: %s", userFacing(err))); replyErr != nil {
			slog.Error("failed to send error reply", "error", replyErr)
		}
	}
}

// commandContext parses the message's ids into snowflakes.
func (b *Bot) commandContext(s *discordgo.Session, m *discordgo.MessageCreate, args []string) (*CommandContext, error) {
	guildID, err := snowflake.Parse(m.GuildID)
	if err != nil {
		return nil, fmt.Errorf("bad guild id: %w", err)
	}
	channelID, err := snowflake.Parse(m.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("bad channel id: %w", err)
	}
	authorID, err := snowflake.Parse(m.Author.ID)
	if err != nil {
		return nil, fmt.Errorf("bad author id: %w", err)
	}

	return &CommandContext{
		GuildID:   guildID,
		ChannelID: channelID,
		AuthorID:  authorID,
		Args:      args,
		Replier:   NewDiscordReplier(s, m.ChannelID),
	}, nil
}

// userFacing trims wrapped internals off an error message for display.
func userFacing(err error) string {
	message := err.Error()
	if idx := strings.LastIndex(message, ": "); idx >= 0 {
		message = message[idx+2:]
	}
	return message
}
