// internal/relay/wire.go
//
// Wire payload shapes for every outbound client event. Field names match the
// browser client exactly. Self-scoped payloads may include the card value;
// other-scoped payloads withhold it unless the cards are matched.

package relay

import "github.com/memoria-game/server/internal/game"

type selfJoinedPayload struct {
	PlayerID  string        `json:"playerId"`
	GameState game.Snapshot `json:"gameState"`
}

type playerJoinedPayload struct {
	PlayerID string `json:"playerId"`
}

type selfSelectedCardPayload struct {
	CardID    string `json:"cardId"`
	CardValue int    `json:"cardValue"`
}

type playerSelectedCardPayload struct {
	PlayerID string `json:"playerId"`
	CardID   string `json:"cardId"`
}

type selfDeselectedCardPayload struct {
	CardID string `json:"cardId"`
}

type playerDeselectedCardPayload struct {
	PlayerID string `json:"playerId"`
	CardID   string `json:"cardId"`
}

type selfSelectCardFailedPayload struct {
	CardID string `json:"cardId"`
}

type playerSelectCardFailedPayload struct {
	PlayerID string `json:"playerId"`
	CardID   string `json:"cardId"`
}

type selfMatchFoundPayload struct {
	CardIDs   []string `json:"cardIds"`
	CardValue int      `json:"cardValue"`
}

type matchFoundPayload struct {
	PlayerID  string   `json:"playerId"`
	CardIDs   []string `json:"cardIds"`
	CardValue int      `json:"cardValue"`
}

type selfMatchFailedPayload struct {
	CardIDs []string `json:"cardIds"`
}

type matchFailedPayload struct {
	PlayerID string   `json:"playerId"`
	CardIDs  []string `json:"cardIds"`
}

// selectionClearedPayload is broadcast verbatim; there is no self variant.
type selectionClearedPayload struct {
	PlayerID string   `json:"playerId"`
	CardIDs  []string `json:"cardIds"`
}
