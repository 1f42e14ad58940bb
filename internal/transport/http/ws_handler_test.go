package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"escape-room-service/internal/app"
	"escape-room-service/internal/content"
	"escape-room-service/internal/domain"
	"escape-room-service/internal/infra/memory"
	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.SessionStore) {
	t.Helper()
	catalog, err := content.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	logger := zaptest.NewLogger(t)
	store := memory.NewSessionStore()
	catalogs := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(catalog), time.Minute)
	service := app.NewGameService(store, catalogs, memory.NewLeaderboard(memory.MockEntries...), app.ServiceOptions{
		Rules:     domain.DefaultRules(),
		CatalogID: content.DefaultCatalogID,
		Logger:    logger,
	})
	server := httptest.NewServer(NewMux(service, NewWSHandler(service, logger)))
	t.Cleanup(server.Close)
	return server, store
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketGameFlow(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server)

	// Expect session intro first, without answers.
	raw := readNext(conn, t, "session")
	var intro sessionPayload
	if err := json.Unmarshal(raw, &intro); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if intro.ID == "" || len(intro.Rooms) != 4 {
		t.Fatalf("unexpected session payload: %+v", intro)
	}
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	if q := fields["rooms"].([]any)[0].(map[string]any)["questions"].([]any)[0].(map[string]any); q["correctIndex"] != nil {
		t.Fatalf("correct answers leaked to client")
	}

	state := decodeState(t, readNext(conn, t, "state"))
	if state.Screen != domain.ScreenWelcome {
		t.Fatalf("expected welcome screen, got %s", state.Screen)
	}

	send(t, conn, "start", map[string]any{"name": "  Ada  "})
	state = readStateUntil(t, conn, func(s domain.GameState) bool { return s.Screen == domain.ScreenPlaying })
	if state.PlayerName != "Ada" || !state.IsTimerRunning {
		t.Fatalf("expected running game for Ada, got %+v", state)
	}

	catalog, _ := content.Default()
	correct := catalog.Rooms[0].Questions[0].CorrectIndex
	send(t, conn, "confirmImmediate", map[string]any{"option": correct})
	raw = readRawStateUntil(t, conn, func(s domain.GameState) bool { return s.AnswerConfirmed })
	state = decodeState(t, raw)
	if state.RoomStates[0].Answers[catalog.Rooms[0].Questions[0].ID] != correct {
		t.Fatalf("expected answer recorded, got %+v", state.RoomStates[0].Answers)
	}
	if hasCorrectAnswers(t, raw, 0) {
		t.Fatalf("correctness of an answer leaked before a reveal was bought")
	}

	send(t, conn, "next", nil)
	state = readStateUntil(t, conn, func(s domain.GameState) bool { return s.RoomStates[0].CurrentQuestionIndex == 1 })
	if state.AnswerConfirmed || state.SelectedAnswer != nil {
		t.Fatalf("expected selection cleared on next question")
	}
}

func TestWebSocketRejectsShortName(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server)
	readNext(conn, t, "session")
	readNext(conn, t, "state")

	send(t, conn, "start", map[string]any{"name": " a "})
	var msg errorPayload
	if err := json.Unmarshal(readNext(conn, t, "error"), &msg); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if msg.Message != domain.ErrInvalidPlayerName.Error() {
		t.Fatalf("unexpected error message %q", msg.Message)
	}

	send(t, conn, "teleport", nil)
	readNext(conn, t, "error")
}

func TestWebSocketClosesSessionOnDisconnect(t *testing.T) {
	server, store := newTestServer(t)
	conn := dial(t, server)
	readNext(conn, t, "session")
	if store.Len() != 1 {
		t.Fatalf("expected one live session, got %d", store.Len())
	}
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for store.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected session removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/leaderboard?limit=3")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	defer resp.Body.Close()

	var entries []domain.LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 3 || entries[0].Name != "Satoshi" || entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) json.RawMessage {
	t.Helper()
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		// Timer ticks may interleave with the reply we are waiting for.
		if msg.Type == "state" && expect != "state" {
			continue
		}
		if msg.Type != expect {
			t.Fatalf("expected type %s, got %s", expect, msg.Type)
		}
		return msg.Payload
	}
}

func readStateUntil(t *testing.T, conn *websocket.Conn, match func(domain.GameState) bool) domain.GameState {
	t.Helper()
	return decodeState(t, readRawStateUntil(t, conn, match))
}

func readRawStateUntil(t *testing.T, conn *websocket.Conn, match func(domain.GameState) bool) json.RawMessage {
	t.Helper()
	for i := 0; i < 20; i++ {
		raw := readNext(conn, t, "state")
		if match(decodeState(t, raw)) {
			return raw
		}
	}
	t.Fatalf("state never matched")
	return nil
}

// hasCorrectAnswers reports whether the encoded state carries correctAnswers for room index i.
func hasCorrectAnswers(t *testing.T, raw json.RawMessage, i int) bool {
	t.Helper()
	var encoded struct {
		RoomStates []map[string]json.RawMessage `json:"roomStates"`
	}
	if err := json.Unmarshal(raw, &encoded); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	_, ok := encoded.RoomStates[i]["correctAnswers"]
	return ok
}

func decodeState(t *testing.T, raw json.RawMessage) domain.GameState {
	t.Helper()
	var state domain.GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func TestHealthzEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected healthz response %d %q", resp.StatusCode, body)
	}
}
