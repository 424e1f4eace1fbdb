// internal/httpserver/ws.go
//
// Websocket endpoint for the realtime game connection.
// Flow: verify the join ticket, accept the socket, hand the connection to a
// session relay, then pump inbound messages until the socket drops. Outbound
// traffic runs through a per-socket writer goroutine with a ping ticker.

package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"github.com/memoria-game/server/internal/relay"
)

const (
	sendBuffer   = 64
	pingInterval = 15 * time.Second
)

// wireMsg is the envelope both directions: {"event": "...", "data": {...}}.
type wireMsg struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// inboundMsg is the inbound envelope with the payload left raw.
type inboundMsg struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// cardClickData is the only inbound action payload.
type cardClickData struct {
	CardID string `json:"cardId"`
}

// handleWS authenticates the handshake, upgrades, and runs the session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	tk, err := parseTicket(s.secret, tokenStr)
	if err != nil {
		http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
		return
	}
	if origin := r.Header.Get("Origin"); origin != "" && origin != s.origin {
		http.Error(w, `{"error":"forbidden origin"}`, http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}
	log.Info().Str("gameId", tk.GameID).Msg("socket connected")

	sink := newWSSink(r.Context(), conn)
	rl, err := relay.New(s.games, tk.ClientID, tk.Nickname, tk.GameID, sink)
	if err != nil {
		// Sink already closed by the relay constructor; nothing was sent.
		log.Warn().Err(err).Str("gameId", tk.GameID).Msg("closing socket")
		return
	}
	go rl.Run()

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			break
		}
		var msg inboundMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Event {
		case "cardClick":
			var click cardClickData
			if err := json.Unmarshal(msg.Data, &click); err != nil || click.CardID == "" {
				continue
			}
			rl.CardClick(click.CardID)
		}
	}

	rl.Close()
	log.Info().Str("gameId", tk.GameID).Str("playerId", rl.PlayerID()).Msg("socket disconnected")
}

// wsSink adapts a websocket connection to the relay.Sink interface. Sends
// are queued to a writer goroutine so the relay never blocks on the network
// for longer than the queue allows.
type wsSink struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSSink(ctx context.Context, conn *websocket.Conn) *wsSink {
	s := &wsSink{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	go s.writeLoop(ctx)
	return s
}

// Send queues one outbound event. It fails once the sink is closed.
func (s *wsSink) Send(event string, payload any) error {
	b, err := json.Marshal(wireMsg{Event: event, Data: payload})
	if err != nil {
		return err
	}
	select {
	case s.send <- b:
		return nil
	case <-s.done:
		return net.ErrClosed
	}
}

// Close releases the writer; it is safe to call more than once.
func (s *wsSink) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *wsSink) writeLoop(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		_ = s.conn.Close(websocket.StatusNormalClosure, "bye")
	}()
	for {
		select {
		case msg := <-s.send:
			if err := s.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				_ = s.Close()
				return
			}
		case <-ping.C:
			_ = s.conn.Ping(ctx)
		case <-s.done:
			return
		}
	}
}
