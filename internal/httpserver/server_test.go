package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/memoria-game/server/internal/service"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	srv := New(service.NewRegistry())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func decodeBody[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()
	var out T
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", res.StatusCode)
	}
}

func TestCreateGame(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"default pair count", map[string]any{}, http.StatusOK},
		{"explicit pair count", map[string]any{"numPairs": 3}, http.StatusOK},
		{"negative pair count", map[string]any{"numPairs": -1}, http.StatusBadRequest},
	}
	srv, ts := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := postJSON(t, ts.URL+"/games/memory/create", tt.body)
			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if res.StatusCode != http.StatusOK {
				res.Body.Close()
				return
			}
			created := decodeBody[createGameRes](t, res)
			if created.GameID == "" {
				t.Fatal("empty gameId")
			}
			if _, ok := srv.games.Find(created.GameID); !ok {
				t.Error("created game not in registry")
			}
		})
	}
}

func TestJoinUnknownGame(t *testing.T) {
	_, ts := newTestServer(t)
	res := postJSON(t, ts.URL+"/games/memory/join", map[string]any{"gameId": "nope", "nickname": "ada"})
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", res.StatusCode)
	}
}

func TestWSRequiresToken(t *testing.T) {
	_, ts := newTestServer(t)
	for _, q := range []string{"", "?token=garbage"} {
		res, err := http.Get(ts.URL + "/games/memory/ws" + q)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("status for %q = %d, want 401", q, res.StatusCode)
		}
	}
}

// wsGameState mirrors the parts of the selfJoined payload the test needs.
type wsGameState struct {
	Players []struct {
		ID string `json:"id"`
	} `json:"players"`
	Cards []struct {
		ID string `json:"id"`
	} `json:"cards"`
}

func readEvent(t *testing.T, ctx context.Context, c *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	_, data, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("websocket read: %v", err)
	}
	var msg struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("bad envelope %q: %v", data, err)
	}
	return msg.Event, msg.Data
}

func TestWebsocketFlow(t *testing.T) {
	_, ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created := decodeBody[createGameRes](t, postJSON(t, ts.URL+"/games/memory/create", map[string]any{}))
	joined := decodeBody[joinGameRes](t, postJSON(t, ts.URL+"/games/memory/join",
		map[string]any{"gameId": created.GameID, "nickname": "ada"}))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") +
		"/games/memory/ws?token=" + url.QueryEscape(joined.Token)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	event, data := readEvent(t, ctx, conn)
	if event != "selfJoined" {
		t.Fatalf("first event = %q, want selfJoined", event)
	}
	var self struct {
		PlayerID  string      `json:"playerId"`
		GameState wsGameState `json:"gameState"`
	}
	if err := json.Unmarshal(data, &self); err != nil {
		t.Fatal(err)
	}
	if self.PlayerID == "" || len(self.GameState.Cards) != 10 || len(self.GameState.Players) != 1 {
		t.Fatalf("selfJoined = %+v", self)
	}

	click, _ := json.Marshal(map[string]any{
		"event": "cardClick",
		"data":  map[string]string{"cardId": self.GameState.Cards[0].ID},
	})
	if err := conn.Write(ctx, websocket.MessageText, click); err != nil {
		t.Fatal(err)
	}

	event, data = readEvent(t, ctx, conn)
	if event != "selfSelectedCard" {
		t.Fatalf("event = %q, want selfSelectedCard", event)
	}
	var sel struct {
		CardID string `json:"cardId"`
	}
	if err := json.Unmarshal(data, &sel); err != nil {
		t.Fatal(err)
	}
	if sel.CardID != self.GameState.Cards[0].ID {
		t.Errorf("selfSelectedCard cardId = %q, want %q", sel.CardID, self.GameState.Cards[0].ID)
	}
}

func TestWebsocketUnknownGameCloses(t *testing.T) {
	srv, ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Valid ticket, but the game id inside it resolves to nothing.
	token, err := signTicket(srv.secret, ticket{
		ClientID: "c1", GameID: "gone", Nickname: "ada",
	}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") +
		"/games/memory/ws?token=" + url.QueryEscape(token)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	if _, _, err := conn.Read(ctx); err == nil {
		t.Fatal("expected the socket to close without any event traffic")
	}
}

func TestTicketRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	tk := ticket{ClientID: "c1", GameID: "g1", Nickname: "ada"}
	token, err := signTicket(secret, tk, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	got, err := parseTicket(secret, token)
	if err != nil {
		t.Fatal(err)
	}
	if got != tk {
		t.Errorf("parsed ticket = %+v, want %+v", got, tk)
	}

	if _, err := parseTicket([]byte("wrong"), token); err == nil {
		t.Error("ticket verified with the wrong secret")
	}

	expired, err := signTicket(secret, tk, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseTicket(secret, expired); err == nil {
		t.Error("expired ticket accepted")
	}
}
