package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryHint extracts the exp claim when the bearer token happens to be
// JWT-shaped. The token stays opaque to this layer; the claim is used as
// a local expiry hint only and is never verified here — the server
// remains the authority on credential validity.
func expiryHint(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
