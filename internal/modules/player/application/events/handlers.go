package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// PlaybackReactor is the subset of the playback service driven by node
// events.
type PlaybackReactor interface {
	HandleNodeReady(ctx context.Context, resumed bool)
	HandleTrackEnd(ctx context.Context, guildID snowflake.ID, reason domain.TrackEndReason, endedEncoded string)
	HandleProgress(guildID snowflake.ID, position time.Duration, at time.Time)
}

// NodeEventHandler drains the bus on a single goroutine and dispatches each
// event to the playback reactor.
type NodeEventHandler struct {
	reactor PlaybackReactor
	bus     *Bus

	wg   sync.WaitGroup
	done chan struct{}
}

// NewNodeEventHandler creates a new NodeEventHandler.
func NewNodeEventHandler(reactor PlaybackReactor, bus *Bus) *NodeEventHandler {
	return &NodeEventHandler{
		reactor: reactor,
		bus:     bus,
		done:    make(chan struct{}),
	}
}

// Start begins consuming events in a background goroutine.
func (h *NodeEventHandler) Start(ctx context.Context) {
	h.wg.Add(1)

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.Events():
				if !ok {
					return
				}
				h.dispatch(ctx, event)
			}
		}
	}()

	slog.Debug("node event handler started")
}

// Stop stops the event handler and waits for the consumer to finish.
func (h *NodeEventHandler) Stop() {
	close(h.done)
	h.wg.Wait()
	slog.Debug("node event handler stopped")
}

func (h *NodeEventHandler) dispatch(ctx context.Context, event NodeEvent) {
	switch e := event.(type) {
	case ReadyEvent:
		h.reactor.HandleNodeReady(ctx, e.Resumed)
	case TrackEndedEvent:
		h.reactor.HandleTrackEnd(ctx, e.GuildID, e.Reason, e.EndedEncoded)
	case ProgressEvent:
		h.reactor.HandleProgress(e.GuildID, e.Position, e.At)
	default:
		slog.Warn("unhandled node event", "event", eventName(event))
	}
}
