// internal/httpserver/server.go
//
// HTTP server wiring for the memoria backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - POST /games/memory/create: allocate a game, return its id.
//   - POST /games/memory/join: issue a signed join ticket for a game.
//   - GET /games/memory/ws: upgrade to the realtime game connection.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled.
//   - The join ticket is the only place the secret clientId travels; it is
//     minted here, signed into the token, and never put in a URL or shared
//     with other clients.

package httpserver

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/memoria-game/server/internal/service"
)

const defaultNumPairs = 5

// Server bundles the router, the game registry, and ticket signing state.
type Server struct {
	r         *chi.Mux
	games     *service.Registry
	secret    []byte
	ticketTTL time.Duration
	origin    string
}

// New constructs a Server, installs middleware, and registers routes.
func New(games *service.Registry) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		games:     games,
		secret:    []byte(os.Getenv("JWT_SECRET")),
		ticketTTL: time.Duration(envInt("TICKET_TTL_MIN", 60)) * time.Minute,
		origin:    envStr("CLIENT_ORIGIN", "http://localhost:5173"),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"memoria-go","endpoints":["/health","POST /games/memory/create","POST /games/memory/join","GET /games/memory/ws"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Post("/games/memory/create", s.handleCreateGame)
	s.r.Post("/games/memory/join", s.handleJoinGame)
	s.r.Get("/games/memory/ws", s.handleWS)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the single configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ GAME ---------------------------------------

// createGameReq/Res payloads for POST /games/memory/create.
type createGameReq struct {
	NumPairs int `json:"numPairs"` // optional; defaults to 5
}
type createGameRes struct {
	GameID string `json:"gameId"`
}

// handleCreateGame allocates a new game and returns its id.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.NumPairs == 0 {
		req.NumPairs = defaultNumPairs
	}
	if req.NumPairs < 1 {
		http.Error(w, `{"error":"numPairs must be positive"}`, http.StatusBadRequest)
		return
	}
	gameID := s.games.CreateGame(req.NumPairs)
	log.Info().Str("gameId", gameID).Int("numPairs", req.NumPairs).Msg("game created")
	_ = json.NewEncoder(w).Encode(createGameRes{GameID: gameID})
}

// joinGameReq/Res payloads for POST /games/memory/join.
type joinGameReq struct {
	GameID   string `json:"gameId"`
	Nickname string `json:"nickname"` // display-only
}
type joinGameRes struct {
	Token string `json:"token"`
}

// handleJoinGame verifies the game exists, mints a secret clientId for this
// session, and returns the signed ticket the websocket handshake presents.
func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if _, ok := s.games.Find(req.GameID); !ok {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	tk := ticket{
		ClientID: uuid.NewString(),
		GameID:   req.GameID,
		Nickname: req.Nickname,
	}
	token, err := signTicket(s.secret, tk, s.ticketTTL)
	if err != nil {
		log.Error().Err(err).Msg("sign join ticket")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(joinGameRes{Token: token})
}

// ------------------------------ env helpers --------------------------------

func envStr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
