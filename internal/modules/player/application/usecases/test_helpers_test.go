package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/modules/player/application/ports"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

func mockTrack(id string) domain.Track {
	return domain.Track{
		Encoded:    "encoded-" + id,
		Identifier: id,
		Title:      "Track " + id,
		Author:     "Author",
		Duration:   3 * time.Minute,
	}
}

type mockQueues struct {
	mu     sync.Mutex
	queues map[snowflake.ID]*domain.GuildQueue
}

func newMockQueues() *mockQueues {
	return &mockQueues{queues: make(map[snowflake.ID]*domain.GuildQueue)}
}

func (m *mockQueues) Create(guildID snowflake.ID) (*domain.GuildQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.queues[guildID]; ok {
		return nil, domain.ErrQueueExists
	}
	queue := domain.NewGuildQueue(guildID)
	m.queues[guildID] = queue
	return queue, nil
}

func (m *mockQueues) Get(guildID snowflake.ID) *domain.GuildQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queues[guildID]
}

func (m *mockQueues) Delete(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queues, guildID)
}

func (m *mockQueues) All() []*domain.GuildQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.GuildQueue, 0, len(m.queues))
	for _, q := range m.queues {
		result = append(result, q)
	}
	return result
}

type mockSessions struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]domain.VoiceSession
	cleared  []snowflake.ID
}

func newMockSessions() *mockSessions {
	return &mockSessions{sessions: make(map[snowflake.ID]domain.VoiceSession)}
}

func (m *mockSessions) setComplete(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[guildID] = domain.VoiceSession{SessionID: "sess", Token: "tok", Endpoint: "ep"}
}

func (m *mockSessions) RecordSessionUpdate(guildID snowflake.ID, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[guildID]
	session.SessionID = sessionID
	m.sessions[guildID] = session
}

func (m *mockSessions) RecordServerUpdate(guildID snowflake.ID, token, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[guildID]
	session.Token = token
	session.Endpoint = endpoint
	m.sessions[guildID] = session
}

func (m *mockSessions) Get(guildID snowflake.ID) (domain.VoiceSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[guildID]
	return session, ok
}

func (m *mockSessions) IsComplete(guildID snowflake.ID) bool {
	session, ok := m.Get(guildID)
	return ok && session.Complete()
}

func (m *mockSessions) AwaitComplete(ctx context.Context, guildID snowflake.ID) error {
	for {
		if m.IsComplete(guildID) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (m *mockSessions) Clear(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, guildID)
	delete(m.sessions, guildID)
}

// mockNode records every command issued against the audio node.
type mockNode struct {
	mu sync.Mutex

	ready chan struct{}

	resolveResult *ports.LoadResult
	resolveErr    error
	startErr      error
	updateErr     error
	destroyErr    error

	resolved []string
	starts   []ports.StartCommand
	updates  []ports.PlayerPatch
	destroys []snowflake.ID
}

func newMockNode() *mockNode {
	ready := make(chan struct{})
	close(ready)
	return &mockNode{ready: ready}
}

func (m *mockNode) Ready() <-chan struct{} { return m.ready }

func (m *mockNode) Resolve(_ context.Context, identifier string) (*ports.LoadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, identifier)
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return m.resolveResult, nil
}

func (m *mockNode) Start(_ context.Context, cmd ports.StartCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.starts = append(m.starts, cmd)
	return nil
}

func (m *mockNode) Update(_ context.Context, _ snowflake.ID, patch ports.PlayerPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, patch)
	return nil
}

func (m *mockNode) Destroy(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroys = append(m.destroys, guildID)
	return m.destroyErr
}

func (m *mockNode) startCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.starts)
}

func (m *mockNode) lastStart() ports.StartCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts[len(m.starts)-1]
}

func (m *mockNode) destroyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.destroys)
}

type mockGateway struct {
	mu     sync.Mutex
	joins  []snowflake.ID
	leaves []snowflake.ID
}

func (m *mockGateway) Join(guildID, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joins = append(m.joins, guildID)
	return nil
}

func (m *mockGateway) Leave(guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves = append(m.leaves, guildID)
	return nil
}

type mockNotifier struct {
	mu             sync.Mutex
	nowPlaying     []domain.Track
	queueFinished  []snowflake.ID
	playbackErrors []string
}

func (m *mockNotifier) NowPlaying(_ snowflake.ID, track domain.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nowPlaying = append(m.nowPlaying, track)
}

func (m *mockNotifier) QueueFinished(channelID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueFinished = append(m.queueFinished, channelID)
}

func (m *mockNotifier) PlaybackError(_ snowflake.ID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playbackErrors = append(m.playbackErrors, reason)
}

func (m *mockNotifier) queueFinishedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queueFinished)
}

// fixture bundles a fully wired service with its mocks.
type fixture struct {
	service  *PlaybackService
	queues   *mockQueues
	sessions *mockSessions
	node     *mockNode
	gateway  *mockGateway
	notifier *mockNotifier
}

func newFixture() *fixture {
	f := &fixture{
		queues:   newMockQueues(),
		sessions: newMockSessions(),
		node:     newMockNode(),
		gateway:  &mockGateway{},
		notifier: &mockNotifier{},
	}
	f.service = NewPlaybackService(f.queues, f.sessions, f.node, f.gateway, f.notifier, "ytmsearch")
	return f
}

func singleTrackResult(track domain.Track) *ports.LoadResult {
	return &ports.LoadResult{Type: ports.LoadTypeTrack, Tracks: []domain.Track{track}}
}
