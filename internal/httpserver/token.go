// internal/httpserver/token.go
//
// Join-ticket signing and verification. A ticket authenticates one websocket
// session: it carries the server-minted secret clientId plus the game id and
// the display nickname, HS256-signed and short-lived.

package httpserver

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ticket is the identity a websocket handshake presents.
type ticket struct {
	ClientID string
	GameID   string
	Nickname string
}

var errInvalidTicket = errors.New("invalid ticket")

// signTicket signs a ticket valid for ttl.
func signTicket(secret []byte, tk ticket, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"clientId": tk.ClientID,
		"gameId":   tk.GameID,
		"nickname": tk.Nickname,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
	})
	return token.SignedString(secret)
}

// parseTicket verifies the signature and expiry and extracts the ticket.
func parseTicket(secret []byte, tokenStr string) (ticket, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ticket{}, errInvalidTicket
	}
	tk := ticket{}
	tk.ClientID, _ = claims["clientId"].(string)
	tk.GameID, _ = claims["gameId"].(string)
	tk.Nickname, _ = claims["nickname"].(string)
	if tk.ClientID == "" || tk.GameID == "" {
		return ticket{}, errInvalidTicket
	}
	return tk, nil
}
