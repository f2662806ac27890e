package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"github.com/gorilla/websocket"
	"github.com/roxyplus/roxy/internal/modules/player/application/events"
	"github.com/roxyplus/roxy/internal/modules/player/application/ports"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second

	// resumeTimeoutSeconds is how long the node keeps players alive after
	// the control connection drops, waiting for a resume.
	resumeTimeoutSeconds = 60

	restTimeout      = 10 * time.Second
	handshakeTimeout = 10 * time.Second

	clientName = "roxy/1.0.0"
)

// NodeConfig contains audio node connection configuration.
type NodeConfig struct {
	Address  string // host:port
	Password string
	Secure   bool
}

// NodeClient maintains the websocket control connection to the audio node
// and issues REST commands against it. Node events are published to the
// bus in the order the node emits them.
type NodeClient struct {
	config     NodeConfig
	userID     snowflake.ID
	httpClient *http.Client
	bus        *events.Bus

	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
	ready     chan struct{}

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewNodeClient creates a new NodeClient. userID is the bot's own user id,
// required by the node's handshake.
func NewNodeClient(config NodeConfig, userID snowflake.ID, bus *events.Bus) *NodeClient {
	return &NodeClient{
		config:     config,
		userID:     userID,
		httpClient: &http.Client{Timeout: restTimeout},
		bus:        bus,
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Open starts the connection loop. It returns immediately; readiness is
// observable through Ready().
func (c *NodeClient) Open() {
	c.wg.Add(1)
	go c.run()
}

// Close tears down the connection and stops the reconnect loop.
func (c *NodeClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Ready returns a channel closed once the node confirmed the control
// session. After a disconnect a fresh channel is swapped in.
func (c *NodeClient) Ready() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// run dials the node and pumps messages, reconnecting with exponential
// backoff until Close.
func (c *NodeClient) run() {
	defer c.wg.Done()

	delay := reconnectBaseDelay
	for {
		conn, err := c.connect()
		if err != nil {
			slog.Warn("failed to connect to audio node",
				"address", c.config.Address, "retry_in", delay, "error", err)
			select {
			case <-c.done:
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, reconnectMaxDelay)
			continue
		}
		delay = reconnectBaseDelay

		c.readLoop(conn)

		// Connection gone: swap in a fresh ready gate so commands wait
		// for the next session instead of hitting a dead socket.
		c.mu.Lock()
		c.conn = nil
		select {
		case <-c.ready:
			c.ready = make(chan struct{})
		default:
		}
		c.mu.Unlock()

		select {
		case <-c.done:
			return
		default:
			slog.Warn("audio node connection lost, reconnecting")
		}
	}
}

// connect performs the websocket handshake. A previous session id is
// offered so the node can resume instead of dropping its players.
func (c *NodeClient) connect() (*websocket.Conn, error) {
	scheme := "ws"
	if c.config.Secure {
		scheme = "wss"
	}
	endpoint := fmt.Sprintf("%s://%s/v4/websocket", scheme, c.config.Address)

	header := http.Header{}
	header.Set("Authorization", c.config.Password)
	header.Set("User-Id", c.userID.String())
	header.Set("Client-Name", clientName)

	c.mu.Lock()
	if c.sessionID != "" {
		header.Set("Session-Id", c.sessionID)
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.Dial(endpoint, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	return conn, nil
}

func (c *NodeClient) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			return
		}
		c.handleFrame(data)
	}
}

func (c *NodeClient) handleFrame(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		slog.Warn("failed to decode node frame", "error", err)
		return
	}

	switch frame.Op {
	case "ready":
		c.handleReady(frame)
	case "playerUpdate":
		c.handlePlayerUpdate(frame)
	case "event":
		c.handleEvent(frame)
	case "stats":
		slog.Debug("audio node stats received")
	default:
		slog.Debug("unhandled node op", "op", frame.Op)
	}
}

func (c *NodeClient) handleReady(frame inboundFrame) {
	c.mu.Lock()
	c.sessionID = frame.SessionID
	select {
	case <-c.ready:
	default:
		close(c.ready)
	}
	c.mu.Unlock()

	slog.Info("audio node session established",
		"session", frame.SessionID, "resumed", frame.Resumed)

	// Ask the node to keep players alive across short control outages.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), restTimeout)
		defer cancel()
		if err := c.configureResuming(ctx, frame.SessionID); err != nil {
			slog.Warn("failed to enable session resuming", "error", err)
		}
	}()

	c.bus.Publish(events.ReadyEvent{Resumed: frame.Resumed, SessionID: frame.SessionID})
}

func (c *NodeClient) handlePlayerUpdate(frame inboundFrame) {
	guildID, err := snowflake.Parse(frame.GuildID)
	if err != nil {
		slog.Warn("bad guild id in player update", "guild", frame.GuildID)
		return
	}

	at := time.UnixMilli(frame.State.Time)
	if frame.State.Time == 0 {
		at = time.Now()
	}
	c.bus.Publish(events.ProgressEvent{
		GuildID:  guildID,
		Position: time.Duration(frame.State.Position) * time.Millisecond,
		At:       at,
	})
}

func (c *NodeClient) handleEvent(frame inboundFrame) {
	guildID, err := snowflake.Parse(frame.GuildID)
	if err != nil {
		slog.Warn("bad guild id in node event", "guild", frame.GuildID, "type", frame.Type)
		return
	}

	switch frame.Type {
	case "TrackEndEvent":
		var encoded string
		if frame.Track != nil {
			encoded = frame.Track.Encoded
		}
		c.bus.Publish(events.TrackEndedEvent{
			GuildID:      guildID,
			Reason:       domain.TrackEndReason(frame.Reason),
			EndedEncoded: encoded,
		})
	case "TrackExceptionEvent":
		slog.Warn("track exception reported by node", "guild", guildID)
	case "TrackStuckEvent":
		slog.Warn("track stuck reported by node", "guild", guildID)
	case "WebSocketClosedEvent":
		slog.Warn("node reported discord voice socket closed", "guild", guildID)
	default:
		slog.Debug("unhandled node event type", "type", frame.Type)
	}
}

// currentSession returns the live control session id, or "" when down.
func (c *NodeClient) currentSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *NodeClient) restURL(path string) string {
	scheme := "http"
	if c.config.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, c.config.Address, path)
}

// do issues a REST call against the node. A transport failure is retried
// once after confirming the control session is still live; anything beyond
// that surfaces to the caller.
func (c *NodeClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = data
	}

	err := c.attempt(ctx, method, path, payload, out)
	if !errors.Is(err, ports.ErrConnectionLost) {
		return err
	}
	if ctx.Err() != nil || c.currentSession() == "" {
		return err
	}
	return c.attempt(ctx, method, path, payload, out)
}

// attempt performs a single request. A 404 on DELETE counts as success:
// the player being gone is the requested outcome.
func (c *NodeClient) attempt(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.restURL(path), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.config.Password)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrConnectionLost, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if method == http.MethodDelete && resp.StatusCode == http.StatusNotFound {
		return nil
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		var restErr restError
		if err := json.Unmarshal(data, &restErr); err == nil && restErr.Message != "" {
			return &ports.NodeError{Message: restErr.Message}
		}
		return fmt.Errorf("unexpected status %d from audio node", resp.StatusCode)
	}

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

// Resolve submits an identifier and converts the node's load result.
func (c *NodeClient) Resolve(ctx context.Context, identifier string) (*ports.LoadResult, error) {
	var resp loadResponse
	path := "/v4/loadtracks?identifier=" + url.QueryEscape(identifier)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	switch resp.LoadType {
	case "track":
		var track wireTrack
		if err := json.Unmarshal(resp.Data, &track); err != nil {
			return nil, fmt.Errorf("failed to decode track result: %w", err)
		}
		return &ports.LoadResult{
			Type:   ports.LoadTypeTrack,
			Tracks: []domain.Track{track.asDomain()},
		}, nil

	case "playlist":
		var playlist wirePlaylist
		if err := json.Unmarshal(resp.Data, &playlist); err != nil {
			return nil, fmt.Errorf("failed to decode playlist result: %w", err)
		}
		tracks := make([]domain.Track, len(playlist.Tracks))
		for i, track := range playlist.Tracks {
			tracks[i] = track.asDomain()
		}
		return &ports.LoadResult{
			Type:         ports.LoadTypePlaylist,
			Tracks:       tracks,
			PlaylistName: playlist.Info.Name,
		}, nil

	case "search":
		var results []wireTrack
		if err := json.Unmarshal(resp.Data, &results); err != nil {
			return nil, fmt.Errorf("failed to decode search result: %w", err)
		}
		tracks := make([]domain.Track, len(results))
		for i, track := range results {
			tracks[i] = track.asDomain()
		}
		return &ports.LoadResult{
			Type:   ports.LoadTypeSearch,
			Tracks: tracks,
		}, nil

	case "empty":
		return &ports.LoadResult{Type: ports.LoadTypeEmpty}, nil

	case "error":
		var exception wireException
		if err := json.Unmarshal(resp.Data, &exception); err != nil {
			return nil, fmt.Errorf("failed to decode error result: %w", err)
		}
		return &ports.LoadResult{
			Type:         ports.LoadTypeError,
			ErrorMessage: exception.Message,
		}, nil

	default:
		return nil, fmt.Errorf("unknown load type %q", resp.LoadType)
	}
}

// Start starts or replaces the guild's track, carrying the full voice
// credential triple along with volume and filters.
func (c *NodeClient) Start(ctx context.Context, cmd ports.StartCommand) error {
	if !cmd.Session.Complete() {
		return ports.ErrMissingVoiceSession
	}
	sessionID := c.currentSession()
	if sessionID == "" {
		return ports.ErrConnectionLost
	}

	encoded := cmd.Track.Encoded
	body := playerUpdateRequest{
		Track:  &trackUpdate{Encoded: &encoded},
		Volume: &cmd.Volume,
		Voice: &voiceStateUpdate{
			Token:     cmd.Session.Token,
			Endpoint:  cmd.Session.Endpoint,
			SessionID: cmd.Session.SessionID,
		},
	}
	if len(cmd.Filters) > 0 {
		body.Filters = json.RawMessage(cmd.Filters)
	}

	path := fmt.Sprintf("/v4/sessions/%s/players/%s?noReplace=%t",
		sessionID, cmd.GuildID, cmd.NoReplace)
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

// Update mutates volume/pause/filters on a running player.
func (c *NodeClient) Update(ctx context.Context, guildID snowflake.ID, patch ports.PlayerPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	sessionID := c.currentSession()
	if sessionID == "" {
		return ports.ErrConnectionLost
	}

	body := playerUpdateRequest{
		Paused: patch.Paused,
		Volume: patch.Volume,
	}
	if patch.Filters != nil {
		body.Filters = json.RawMessage(patch.Filters)
	}

	path := fmt.Sprintf("/v4/sessions/%s/players/%s", sessionID, guildID)
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

// Destroy tears down the node-side player. An already-absent player is
// success.
func (c *NodeClient) Destroy(ctx context.Context, guildID snowflake.ID) error {
	sessionID := c.currentSession()
	if sessionID == "" {
		return ports.ErrConnectionLost
	}

	path := fmt.Sprintf("/v4/sessions/%s/players/%s", sessionID, guildID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *NodeClient) configureResuming(ctx context.Context, sessionID string) error {
	body := sessionUpdateRequest{Resuming: true, Timeout: resumeTimeoutSeconds}
	return c.do(ctx, http.MethodPatch, "/v4/sessions/"+sessionID, body, nil)
}

// Ensure NodeClient implements AudioNode.
var _ ports.AudioNode = (*NodeClient)(nil)
