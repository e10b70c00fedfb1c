package auth

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the JWT handed to a browser session. The subject is the
// session id that keys the persisted cart and checkout state.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
