package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/gorilla/websocket"
	"github.com/roxyplus/roxy/internal/modules/player/application/events"
	"github.com/roxyplus/roxy/internal/modules/player/application/ports"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

const testPassword = "youshallnotpass"

// newRESTClient returns a NodeClient pointed at the test server with an
// established control session, skipping the websocket handshake.
func newRESTClient(server *httptest.Server) *NodeClient {
	client := NewNodeClient(NodeConfig{
		Address:  strings.TrimPrefix(server.URL, "http://"),
		Password: testPassword,
	}, snowflake.ID(1), events.NewBus(10))
	client.sessionID = "sess-1"
	return client
}

func TestNodeClient_Resolve_Track(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/loadtracks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != testPassword {
			t.Error("missing authorization header")
		}
		if got := r.URL.Query().Get("identifier"); got != "ytmsearch:test song" {
			t.Errorf("unexpected identifier %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"loadType": "track",
			"data": {
				"encoded": "abc123",
				"info": {
					"identifier": "vid1",
					"author": "Artist",
					"length": 180000,
					"isStream": false,
					"title": "Test Song",
					"uri": "https://example.com/vid1",
					"sourceName": "youtube"
				}
			}
		}`))
	}))
	defer server.Close()

	client := newRESTClient(server)
	result, err := client.Resolve(context.Background(), "ytmsearch:test song")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Type != ports.LoadTypeTrack {
		t.Fatalf("expected track result, got %s", result.Type)
	}
	track := result.First()
	if track == nil {
		t.Fatal("expected a track")
	}
	if track.Encoded != "abc123" || track.Title != "Test Song" || track.Duration != 3*time.Minute {
		t.Errorf("unexpected track: %+v", track)
	}
}

func TestNodeClient_Resolve_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"loadType": "search",
			"data": [
				{"encoded": "a", "info": {"identifier": "1", "title": "First", "length": 1000}},
				{"encoded": "b", "info": {"identifier": "2", "title": "Second", "length": 2000}}
			]
		}`))
	}))
	defer server.Close()

	result, err := newRESTClient(server).Resolve(context.Background(), "x")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Type != ports.LoadTypeSearch || len(result.Tracks) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.First().Encoded != "a" {
		t.Errorf("expected first search hit, got %s", result.First().Encoded)
	}
}

func TestNodeClient_Resolve_EmptyAndError(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()
	client := newRESTClient(server)

	body = `{"loadType": "empty", "data": {}}`
	result, err := client.Resolve(context.Background(), "x")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Type != ports.LoadTypeEmpty {
		t.Errorf("expected empty result, got %s", result.Type)
	}

	body = `{"loadType": "error", "data": {"message": "video unavailable", "severity": "common"}}`
	result, err = client.Resolve(context.Background(), "x")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Type != ports.LoadTypeError || result.ErrorMessage != "video unavailable" {
		t.Errorf("unexpected error result: %+v", result)
	}
}

func TestNodeClient_Start(t *testing.T) {
	var gotPath, gotQuery, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newRESTClient(server)
	err := client.Start(context.Background(), ports.StartCommand{
		GuildID: snowflake.ID(42),
		Track:   domain.Track{Encoded: "abc123"},
		Session: domain.VoiceSession{SessionID: "vs", Token: "tok", Endpoint: "ep"},
		Volume:  150,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if gotPath != "/v4/sessions/sess-1/players/42" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotQuery != "noReplace=false" {
		t.Errorf("unexpected query %s", gotQuery)
	}
	for _, want := range []string{`"encoded":"abc123"`, `"volume":150`, `"sessionId":"vs"`, `"token":"tok"`, `"endpoint":"ep"`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("body missing %s: %s", want, gotBody)
		}
	}
}

func TestNodeClient_StartWithoutSession(t *testing.T) {
	client := NewNodeClient(NodeConfig{Address: "localhost:0"}, snowflake.ID(1), events.NewBus(10))

	err := client.Start(context.Background(), ports.StartCommand{
		GuildID: snowflake.ID(42),
		Session: domain.VoiceSession{SessionID: "vs", Token: "tok", Endpoint: "ep"},
	})
	if !errors.Is(err, ports.ErrConnectionLost) {
		t.Fatalf("expected ErrConnectionLost, got %v", err)
	}
}

func TestNodeClient_StartIncompleteVoiceSession(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	err := newRESTClient(server).Start(context.Background(), ports.StartCommand{
		GuildID: snowflake.ID(42),
		Track:   domain.Track{Encoded: "abc"},
		Session: domain.VoiceSession{SessionID: "vs"},
	})
	if !errors.Is(err, ports.ErrMissingVoiceSession) {
		t.Fatalf("expected ErrMissingVoiceSession, got %v", err)
	}
	if called {
		t.Error("expected no request for an incomplete voice session")
	}
}

func TestNodeClient_RetriesOnceAfterTransportError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			dropConnection(t, w)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	if err := newRESTClient(server).Destroy(context.Background(), snowflake.ID(42)); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestNodeClient_PersistentTransportError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		dropConnection(t, w)
	}))
	defer server.Close()

	err := newRESTClient(server).Destroy(context.Background(), snowflake.ID(42))
	if !errors.Is(err, ports.ErrConnectionLost) {
		t.Fatalf("expected ErrConnectionLost, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", attempts)
	}
}

// dropConnection kills the client's TCP connection without writing a
// response, simulating a transport-level failure mid-command.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	hijacker, ok := w.(http.Hijacker)
	if !ok {
		t.Error("response writer does not support hijacking")
		return
	}
	conn, _, err := hijacker.Hijack()
	if err != nil {
		t.Errorf("failed to hijack connection: %v", err)
		return
	}
	_ = conn.Close()
}

func TestNodeClient_Destroy_NotFoundIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "player not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	if err := newRESTClient(server).Destroy(context.Background(), snowflake.ID(42)); err != nil {
		t.Fatalf("expected 404 treated as success, got %v", err)
	}
}

func TestNodeClient_ErrorBodySurfacesAsNodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status": 400, "error": "Bad Request", "message": "invalid track"}`))
	}))
	defer server.Close()

	err := newRESTClient(server).Update(context.Background(), snowflake.ID(42), ports.PlayerPatch{
		Volume: intPtr(100),
	})
	var nodeErr *ports.NodeError
	if !errors.As(err, &nodeErr) {
		t.Fatalf("expected NodeError, got %v", err)
	}
	if nodeErr.Message != "invalid track" {
		t.Errorf("unexpected message %q", nodeErr.Message)
	}
}

func TestNodeClient_UpdateEmptyPatchIsNoop(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	if err := newRESTClient(server).Update(context.Background(), snowflake.ID(42), ports.PlayerPatch{}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if called {
		t.Error("expected no request for empty patch")
	}
}

func TestNodeClient_WebSocketEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	frames := make(chan string, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/websocket" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != testPassword {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		for frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()
	defer close(frames)

	frames <- `{"op": "ready", "resumed": false, "sessionId": "sess-9"}`
	frames <- `{"op": "playerUpdate", "guildId": "42", "state": {"time": 1700000000000, "position": 5000, "connected": true}}`
	frames <- `{"op": "event", "type": "TrackEndEvent", "guildId": "42", "reason": "finished", "track": {"encoded": "abc", "info": {"identifier": "x"}}}`

	bus := events.NewBus(10)
	client := NewNodeClient(NodeConfig{
		Address:  strings.TrimPrefix(server.URL, "http://"),
		Password: testPassword,
	}, snowflake.ID(1), bus)
	client.Open()
	defer client.Close()

	select {
	case <-client.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("client never became ready")
	}

	var got []events.NodeEvent
	deadline := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case event := <-bus.Events():
			got = append(got, event)
		case <-deadline:
			t.Fatalf("timed out with %d events", len(got))
		}
	}

	ready, ok := got[0].(events.ReadyEvent)
	if !ok || ready.SessionID != "sess-9" || ready.Resumed {
		t.Errorf("unexpected ready event: %+v", got[0])
	}
	progress, ok := got[1].(events.ProgressEvent)
	if !ok || progress.GuildID != snowflake.ID(42) || progress.Position != 5*time.Second {
		t.Errorf("unexpected progress event: %+v", got[1])
	}
	ended, ok := got[2].(events.TrackEndedEvent)
	if !ok || ended.Reason != domain.TrackEndFinished || ended.EndedEncoded != "abc" {
		t.Errorf("unexpected track end event: %+v", got[2])
	}

	if client.currentSession() != "sess-9" {
		t.Errorf("expected session recorded, got %q", client.currentSession())
	}
}

func intPtr(v int) *int { return &v }
