package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway keeps us from handing out a token that will die in flight.
const expiryLeeway = 30 * time.Second

var jwtParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// tokenExpired reports whether tok is a JWT whose exp claim has passed.
// Opaque (non-JWT) tokens and JWTs without an exp claim are treated as
// still valid; the backend remains the authority and a 401 will force a
// refresh anyway. The signature is not checked here, only the claim is read.
func tokenExpired(tok string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwtParser.ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now().Add(expiryLeeway))
}
