// internal/service/registry.go
//
// In-memory registry of live games. This process is the single authority for
// every game it creates: games are held for the process lifetime and are
// never persisted or evicted.
//
// Characteristics:
//   - Stores *game.Game keyed by game id in a map.
//   - Concurrency-safe via RWMutex (concurrent lookups allowed).
//   - State is lost when the process restarts.

package service

import (
	"sync"

	"github.com/memoria-game/server/internal/game"
)

// Registry owns every live game in this process.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*game.Game
	opts  game.Options
}

// NewRegistry constructs a registry whose games use default engine options.
func NewRegistry() *Registry {
	return NewRegistryWith(game.Options{})
}

// NewRegistryWith constructs a registry applying opts to every created game.
func NewRegistryWith(opts game.Options) *Registry {
	return &Registry{games: make(map[string]*game.Game), opts: opts}
}

// CreateGame allocates a game of numPairs pairs and returns its id.
func (r *Registry) CreateGame(numPairs int) string {
	g := game.NewWith(numPairs, r.opts)
	r.mu.Lock()
	r.games[g.ID] = g
	r.mu.Unlock()
	return g.ID
}

// Find looks up a game by id.
func (r *Registry) Find(id string) (*game.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}
