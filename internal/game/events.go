// internal/game/events.go
//
// Domain events emitted by the game engine. Every state transition publishes
// exactly one event to every subscriber, in commit order. Events carry player
// ids only; the clientId correlation token appears solely on PlayerJoined and
// is meaningful only to the relay that supplied it.

package game

// Event is a domain event published on a game's subscription streams.
type Event interface {
	event()
}

// PlayerJoined is published when AddPlayer mints a new player. State is the
// snapshot for the joining player, computed in the same serialized step as
// the join so it cannot race with later transitions. Only the relay whose
// ClientID matches uses it; everyone else must ignore both ClientID and State.
type PlayerJoined struct {
	ClientID string
	PlayerID string
	State    Snapshot
}

// PlayerSelectedCard is published when a click turns a card face-up.
// CardValue is the revealed pairing key; relays forward it only to the
// selecting client.
type PlayerSelectedCard struct {
	PlayerID  string
	CardID    string
	CardValue int
}

// PlayerDeselectedCard is published when a player puts their own selected
// card back face-down.
type PlayerDeselectedCard struct {
	PlayerID string
	CardID   string
}

// PlayerSelectCardFailed is published when a click targets a matched card or
// a card held by another player. No state changed.
type PlayerSelectCardFailed struct {
	PlayerID string
	CardID   string
}

// MatchFound is published the moment a player's two selected cards turn out
// to share a value. The value is public from here on.
type MatchFound struct {
	PlayerID  string
	CardIDs   [2]string
	CardValue int
}

// MatchFailed is published when the two selected cards differ. It carries no
// value; the transiently revealed value stays private to the selector.
type MatchFailed struct {
	PlayerID string
	CardIDs  [2]string
}

// SelectionClearedAfterMatchFound follows MatchFound after the clear delay,
// once the pair's selection marks have been released.
type SelectionClearedAfterMatchFound struct {
	PlayerID string
	CardIDs  [2]string
}

// SelectionClearedAfterMatchFailed follows MatchFailed after the clear delay.
// The cards are face-down again and their values are hidden once more.
type SelectionClearedAfterMatchFailed struct {
	PlayerID string
	CardIDs  [2]string
}

func (PlayerJoined) event()                     {}
func (PlayerSelectedCard) event()               {}
func (PlayerDeselectedCard) event()             {}
func (PlayerSelectCardFailed) event()           {}
func (MatchFound) event()                       {}
func (MatchFailed) event()                      {}
func (SelectionClearedAfterMatchFound) event()  {}
func (SelectionClearedAfterMatchFailed) event() {}
