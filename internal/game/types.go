// internal/game/types.go
//
// Core type definitions for the memory game engine.
// Defines:
//   - Card: one face-down card; two cards share each pairing value.
//   - Player: a participant and the cards they currently hold face-up.
//   - Snapshot / CardView / PlayerView: the per-viewer projection of a game.

package game

// Card is a single card on the table. Two cards share each Value; a card
// becomes matched exactly once and never reverts.
type Card struct {
	ID         string // Unique card identifier (UUIDv4).
	Value      int    // Pairing key; only equality is meaningful.
	SelectedBy string // Player currently holding the card face-up ("" if none).
	IsMatched  bool   // True once the card's pair has been found.
}

// Player is one participant in a game. SelectedCardIDs holds the cards the
// player currently has face-up, in click order; it is 0, 1, or 2 long between
// transitions.
type Player struct {
	ID              string
	SelectedCardIDs []string
}

// Snapshot is the state of a game as one specific player is allowed to see
// it. It is delivered once at join; all later changes arrive as events.
type Snapshot struct {
	Players []PlayerView `json:"players"`
	Cards   []CardView   `json:"cards"`
}

// PlayerView exposes only the player id; nicknames never enter the engine.
type PlayerView struct {
	ID string `json:"id"`
}

// CardView is a card as seen by one viewer. Value is nil unless the card is
// matched or the viewer currently holds it face-up.
type CardView struct {
	ID        string `json:"id"`
	Value     *int   `json:"value,omitempty"`
	IsMatched bool   `json:"isMatched,omitempty"`
}
