package player

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/bot"
	"github.com/roxyplus/roxy/internal/modules/player/application/events"
	"github.com/roxyplus/roxy/internal/modules/player/application/usecases"
	"github.com/roxyplus/roxy/internal/modules/player/infrastructure"
	"github.com/roxyplus/roxy/internal/modules/player/presentation"
)

func init() {
	bot.Register(&Module{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*Module)(nil)

// Module provides audio playback commands.
type Module struct {
	config   *Config
	handlers *presentation.Handlers

	service      *usecases.PlaybackService
	node         *infrastructure.NodeClient
	gateway      *infrastructure.DiscordVoiceGateway
	eventBus     *events.Bus
	eventHandler *events.NodeEventHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *Module) Name() string {
	return "player"
}

// Commands returns the prefix commands for this module.
func (m *Module) Commands() []bot.Command {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *Module) CommandHandlers() map[string]bot.CommandHandler {
	return map[string]bot.CommandHandler{
		"play":       m.handlers.HandlePlay,
		"pause":      m.handlers.HandlePause,
		"resume":     m.handlers.HandleResume,
		"skip":       m.handlers.HandleSkip,
		"previous":   m.handlers.HandlePrevious,
		"volume":     m.handlers.HandleVolume,
		"boost":      m.handlers.HandleBoost,
		"clarity":    m.handlers.HandleClarity,
		"join":       m.handlers.HandleJoin,
		"leave":      m.handlers.HandleLeave,
		"nowplaying": m.handlers.HandleNowPlaying,
		"queue":      m.handlers.HandleQueue,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *Module) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.gateway.HandleVoiceStateUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.gateway.HandleVoiceServerUpdate(s, event)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *Module) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *Module) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return fmt.Errorf("player module requires a Discord session")
	}
	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return fmt.Errorf("failed to parse bot ID: %w", err)
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.eventBus = events.NewBus(events.DefaultEventBufferSize)
	queues := infrastructure.NewMemoryQueueRepository()
	sessions := infrastructure.NewMemoryVoiceSessionStore()

	m.node = infrastructure.NewNodeClient(infrastructure.NodeConfig{
		Address:  m.config.NodeAddress,
		Password: m.config.NodePassword,
		Secure:   m.config.NodeSecure,
	}, botID, m.eventBus)

	// The disconnect hook closes over m.service, which is wired right
	// after; gateway events cannot arrive before Init returns.
	m.gateway = infrastructure.NewDiscordVoiceGateway(
		deps.Session,
		botID,
		sessions,
		func(guildID snowflake.ID) {
			if m.service != nil {
				m.service.HandleVoiceDisconnect(m.ctx, guildID)
			}
		},
	)

	m.service = usecases.NewPlaybackService(
		queues,
		sessions,
		m.node,
		m.gateway,
		infrastructure.NewDiscordNotifier(deps.Session),
		m.config.SearchPrefix,
	)

	m.handlers = presentation.NewHandlers(
		m.service,
		infrastructure.NewVoiceStateProvider(deps.Session),
	)

	m.eventHandler = events.NewNodeEventHandler(m.service, m.eventBus)
	m.eventHandler.Start(m.ctx)
	m.node.Open()

	return nil
}

// Shutdown gracefully shuts down the module.
func (m *Module) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.node != nil {
		m.node.Close()
	}
	if m.eventHandler != nil {
		m.eventHandler.Stop()
	}
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	if m.service != nil {
		m.service.Close()
	}
	return nil
}
