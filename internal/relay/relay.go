// internal/relay/relay.go
//
// Session relay: the per-connection adapter between a game's domain events
// and one client's wire events.
// Responsibilities:
//   - Resolve the target game at construction; close the connection if the
//     game id is unknown.
//   - Join the game and privately hold the clientId → playerId mapping.
//   - Project every domain event into its self-scoped or other-scoped wire
//     form, withholding card values other clients must not see.
//   - Forward the single inbound action (cardClick) under this relay's
//     player identity.
//
// Notes:
//   - The clientId is caller-secret. It exists only so this relay can tell
//     "this event concerns me" apart from "this concerns someone else"; it
//     never appears in any outbound payload.
//   - The relay subscribes before joining so its own PlayerJoined event is
//     the first thing on its stream.

package relay

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/memoria-game/server/internal/game"
	"github.com/memoria-game/server/internal/service"
)

// ErrGameNotFound is returned by New when the game id resolves to nothing.
// The sink is already closed by then; the connection is not recoverable.
var ErrGameNotFound = errors.New("game not found")

// Sink is the outbound half of a client connection. The websocket layer
// implements it; tests substitute a recorder.
type Sink interface {
	Send(event string, payload any) error
	Close() error
}

// Relay binds one (gameId, clientId) pair for the lifetime of a connection.
type Relay struct {
	clientID string
	nickname string
	playerID string
	game     *game.Game
	sub      *game.Subscription
	sink     Sink
}

// New resolves the game, subscribes, and joins it as a new player. On an
// unknown game id the sink is closed and ErrGameNotFound returned; no event
// traffic happens.
func New(games *service.Registry, clientID, nickname, gameID string, sink Sink) (*Relay, error) {
	g, ok := games.Find(gameID)
	if !ok {
		_ = sink.Close()
		return nil, ErrGameNotFound
	}
	r := &Relay{clientID: clientID, nickname: nickname, game: g, sink: sink}
	r.sub = g.Subscribe()
	r.playerID = g.AddPlayer(clientID)
	log.Info().Str("gameId", gameID).Str("playerId", r.playerID).Str("nickname", nickname).
		Msg("player joined game")
	return r, nil
}

// PlayerID returns the player identity this relay acts under.
func (r *Relay) PlayerID() string { return r.playerID }

// Run consumes the event stream until it closes, forwarding each event in
// its identity-scoped wire form. The sink is closed when the stream ends or
// a send fails.
func (r *Relay) Run() {
	defer func() { _ = r.sink.Close() }()
	for ev := range r.sub.C {
		if err := r.forward(ev); err != nil {
			log.Debug().Err(err).Str("playerId", r.playerID).Msg("relay send failed")
			return
		}
	}
}

// CardClick forwards the inbound click under this relay's player identity.
func (r *Relay) CardClick(cardID string) {
	r.game.ClickCard(r.playerID, cardID)
}

// Close unsubscribes from the game's event stream, which in turn ends Run.
// The player and any pending selections deliberately stay in the game.
func (r *Relay) Close() {
	r.sub.Close()
}

// forward applies the self/other projection table to one domain event.
func (r *Relay) forward(ev game.Event) error {
	switch e := ev.(type) {
	case game.PlayerJoined:
		if e.ClientID == r.clientID {
			return r.sink.Send("selfJoined", selfJoinedPayload{PlayerID: e.PlayerID, GameState: e.State})
		}
		return r.sink.Send("playerJoined", playerJoinedPayload{PlayerID: e.PlayerID})

	case game.PlayerSelectedCard:
		if e.PlayerID == r.playerID {
			return r.sink.Send("selfSelectedCard", selfSelectedCardPayload{CardID: e.CardID, CardValue: e.CardValue})
		}
		// Value withheld: the card is face-up for the selector only.
		return r.sink.Send("playerSelectedCard", playerSelectedCardPayload{PlayerID: e.PlayerID, CardID: e.CardID})

	case game.PlayerDeselectedCard:
		if e.PlayerID == r.playerID {
			return r.sink.Send("selfDeselectedCard", selfDeselectedCardPayload{CardID: e.CardID})
		}
		return r.sink.Send("playerDeselectedCard", playerDeselectedCardPayload{PlayerID: e.PlayerID, CardID: e.CardID})

	case game.PlayerSelectCardFailed:
		if e.PlayerID == r.playerID {
			return r.sink.Send("selfSelectCardFailed", selfSelectCardFailedPayload{CardID: e.CardID})
		}
		return r.sink.Send("playerSelectCardFailed", playerSelectCardFailedPayload{PlayerID: e.PlayerID, CardID: e.CardID})

	case game.MatchFound:
		if e.PlayerID == r.playerID {
			return r.sink.Send("selfMatchFound", selfMatchFoundPayload{CardIDs: e.CardIDs[:], CardValue: e.CardValue})
		}
		// Matched values are public.
		return r.sink.Send("matchFound", matchFoundPayload{PlayerID: e.PlayerID, CardIDs: e.CardIDs[:], CardValue: e.CardValue})

	case game.MatchFailed:
		if e.PlayerID == r.playerID {
			return r.sink.Send("selfMatchFailed", selfMatchFailedPayload{CardIDs: e.CardIDs[:]})
		}
		return r.sink.Send("matchFailed", matchFailedPayload{PlayerID: e.PlayerID, CardIDs: e.CardIDs[:]})

	case game.SelectionClearedAfterMatchFound:
		return r.sink.Send("selectionClearedAfterMatchFound", selectionClearedPayload{PlayerID: e.PlayerID, CardIDs: e.CardIDs[:]})

	case game.SelectionClearedAfterMatchFailed:
		return r.sink.Send("selectionClearedAfterMatchFailed", selectionClearedPayload{PlayerID: e.PlayerID, CardIDs: e.CardIDs[:]})
	}
	return nil
}
