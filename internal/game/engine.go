// internal/game/engine.go
//
// Authoritative engine for a single memory game.
// Responsibilities:
//   - Build the deck: numPairs pairs, each pair sharing a distinct value.
//   - Register players and mint their ids.
//   - Resolve card clicks: select, deselect, reject (matched / held by other).
//   - Resolve pairs once a player holds two cards, with a delayed clear.
//   - Publish a domain event for every transition, in commit order.
//   - Project per-viewer snapshots that hide unrevealed card values.
//
// Notes:
//   - One mutex serializes all mutation of a game, including the scheduled
//     clear callbacks. Events are published under that mutex, after the
//     mutation, so subscribers always observe committed state in order.
//   - Different games share nothing and run fully independently.
//   - A player holding more than two selections is an invariant breach; the
//     game halts (see fault) rather than guessing at a recovery.
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultClearDelay is how long a resolved pair stays face-up before its
// selection marks are released.
const DefaultClearDelay = time.Second

// subscriptionBuffer bounds how far an event consumer may fall behind before
// its stream is dropped.
const subscriptionBuffer = 256

// Options tune per-game policies that the engine does not hardcode.
type Options struct {
	// Shuffle randomizes card order at construction. Off by default: pairs
	// are laid out deterministically value by value.
	Shuffle bool
	// ClearDelay overrides DefaultClearDelay when positive.
	ClearDelay time.Duration
}

// Game owns the cards and players of one memory game. All exported methods
// are safe for concurrent use.
type Game struct {
	ID string

	mu         sync.Mutex
	cards      []*Card
	players    []*Player
	subs       map[*Subscription]struct{}
	clearDelay time.Duration
	halted     bool
}

// Subscription is one consumer's view of a game's event stream. C is closed
// when the subscriber unsubscribes, falls too far behind, or the game halts.
type Subscription struct {
	C <-chan Event

	g      *Game
	ch     chan Event
	closed bool
}

// New constructs a game with default options: deterministic card order and
// the standard clear delay.
func New(numPairs int) *Game {
	return NewWith(numPairs, Options{})
}

// NewWith constructs a game of numPairs pairs (2·numPairs cards). numPairs
// is validated at the transport boundary; the engine assumes it is positive.
func NewWith(numPairs int, opts Options) *Game {
	g := &Game{
		ID:         uuid.NewString(),
		subs:       make(map[*Subscription]struct{}),
		clearDelay: DefaultClearDelay,
	}
	if opts.ClearDelay > 0 {
		g.clearDelay = opts.ClearDelay
	}
	for pair := 0; pair < numPairs; pair++ {
		for i := 0; i < 2; i++ {
			g.cards = append(g.cards, &Card{ID: uuid.NewString(), Value: pair})
		}
	}
	if opts.Shuffle {
		rand.Shuffle(len(g.cards), func(i, j int) {
			g.cards[i], g.cards[j] = g.cards[j], g.cards[i]
		})
	}
	return g
}

// Subscribe registers a new event stream. Subscribing to a halted game
// returns an already-closed stream.
func (g *Game) Subscribe() *Subscription {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := make(chan Event, subscriptionBuffer)
	sub := &Subscription{C: ch, g: g, ch: ch}
	if g.halted {
		sub.closed = true
		close(ch)
		return sub
	}
	g.subs[sub] = struct{}{}
	return sub
}

// Close unsubscribes the stream and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	delete(s.g.subs, s)
	close(s.ch)
}

// AddPlayer mints a new player for the given clientId correlation token and
// publishes PlayerJoined carrying the joining player's snapshot. The token is
// never stored beyond that event and never reaches other clients.
func (g *Game) AddPlayer(clientID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.halted {
		return ""
	}
	p := &Player{ID: uuid.NewString()}
	g.players = append(g.players, p)
	g.publishLocked(PlayerJoined{
		ClientID: clientID,
		PlayerID: p.ID,
		State:    g.snapshotLocked(p.ID),
	})
	return p.ID
}

// ClickCard applies one click by playerID on cardID and then runs match
// resolution. Callers sit behind the relay and supply ids the relay minted,
// so unknown ids indicate a transport defect; they are logged and dropped.
func (g *Game) ClickCard(playerID, cardID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.halted {
		return
	}
	card := g.cardLocked(cardID)
	player := g.playerLocked(playerID)
	if card == nil || player == nil {
		log.Warn().Str("gameId", g.ID).Str("playerId", playerID).Str("cardId", cardID).
			Msg("click with unknown id dropped")
		return
	}

	switch {
	case card.IsMatched:
		g.publishLocked(PlayerSelectCardFailed{PlayerID: playerID, CardID: cardID})
	case card.SelectedBy == "":
		card.SelectedBy = playerID
		player.SelectedCardIDs = append(player.SelectedCardIDs, cardID)
		g.publishLocked(PlayerSelectedCard{PlayerID: playerID, CardID: cardID, CardValue: card.Value})
	case card.SelectedBy == playerID:
		card.SelectedBy = ""
		player.SelectedCardIDs = removeID(player.SelectedCardIDs, cardID)
		g.publishLocked(PlayerDeselectedCard{PlayerID: playerID, CardID: cardID})
	default: // held by someone else
		g.publishLocked(PlayerSelectCardFailed{PlayerID: playerID, CardID: cardID})
	}

	g.checkForMatchesLocked(player)
}

// checkForMatchesLocked resolves the player's pending selection once it holds
// two cards. More than two means ClickCard stopped being the only mutator;
// the game halts.
func (g *Game) checkForMatchesLocked(p *Player) {
	switch len(p.SelectedCardIDs) {
	case 0, 1:
		// Waiting for a second card.
	case 2:
		c1 := g.cardLocked(p.SelectedCardIDs[0])
		c2 := g.cardLocked(p.SelectedCardIDs[1])
		ids := [2]string{c1.ID, c2.ID}
		if c1.Value == c2.Value {
			c1.IsMatched = true
			c2.IsMatched = true
			g.publishLocked(MatchFound{PlayerID: p.ID, CardIDs: ids, CardValue: c1.Value})
			g.scheduleClear(p, c1, c2, true)
		} else {
			g.publishLocked(MatchFailed{PlayerID: p.ID, CardIDs: ids})
			g.scheduleClear(p, c1, c2, false)
		}
	default:
		g.faultLocked(fmt.Sprintf("player %s holds %d selections", p.ID, len(p.SelectedCardIDs)))
	}
}

// scheduleClear arms the delayed release of a resolved pair. The callback
// re-acquires the game mutex, so it serializes with concurrent clicks.
func (g *Game) scheduleClear(p *Player, c1, c2 *Card, matched bool) {
	ids := [2]string{c1.ID, c2.ID}
	time.AfterFunc(g.clearDelay, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.halted {
			return
		}
		p.SelectedCardIDs = p.SelectedCardIDs[:0]
		c1.SelectedBy = ""
		c2.SelectedBy = ""
		if matched {
			g.publishLocked(SelectionClearedAfterMatchFound{PlayerID: p.ID, CardIDs: ids})
		} else {
			g.publishLocked(SelectionClearedAfterMatchFailed{PlayerID: p.ID, CardIDs: ids})
		}
	})
}

// SnapshotFor projects the game for one viewer. Matched cards always reveal
// their value; an unmatched card reveals it only while this viewer holds it.
func (g *Game) SnapshotFor(playerID string) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked(playerID)
}

func (g *Game) snapshotLocked(playerID string) Snapshot {
	s := Snapshot{
		Players: make([]PlayerView, 0, len(g.players)),
		Cards:   make([]CardView, 0, len(g.cards)),
	}
	for _, p := range g.players {
		s.Players = append(s.Players, PlayerView{ID: p.ID})
	}
	for _, c := range g.cards {
		v := CardView{ID: c.ID}
		if c.IsMatched {
			value := c.Value
			v.Value = &value
			v.IsMatched = true
		} else if c.SelectedBy == playerID {
			value := c.Value
			v.Value = &value
		}
		s.Cards = append(s.Cards, v)
	}
	return s
}

// Halted reports whether the game has been aborted by an invariant breach.
func (g *Game) Halted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.halted
}

// faultLocked aborts this game instance: the breach is logged, every event
// stream is closed, and all further calls become no-ops. Other games are
// unaffected.
func (g *Game) faultLocked(reason string) {
	log.Error().Str("gameId", g.ID).Str("reason", reason).Msg("invariant breach, halting game")
	g.halted = true
	for sub := range g.subs {
		sub.closeLocked()
	}
}

// publishLocked fans the event out to every subscriber. A subscriber whose
// buffer is full has fallen subscriptionBuffer events behind; its stream is
// closed rather than letting it stall the game.
func (g *Game) publishLocked(ev Event) {
	var stalled []*Subscription
	for sub := range g.subs {
		select {
		case sub.ch <- ev:
		default:
			stalled = append(stalled, sub)
		}
	}
	for _, sub := range stalled {
		log.Warn().Str("gameId", g.ID).Msg("dropping stalled event subscriber")
		sub.closeLocked()
	}
}

func (g *Game) cardLocked(id string) *Card {
	for _, c := range g.cards {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (g *Game) playerLocked(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
