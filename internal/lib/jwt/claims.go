// Package jwt implements generation and parsing of JWT tokens with custom
// claim fields used for request authentication.
package jwt

import "time"

// Maker describes generation and parsing of JWT tokens.
type Maker interface {
	// GenerateToken creates a signed token for the given user.
	GenerateToken(userUID, email string) (string, error)
	// ParseToken validates a token and returns its custom claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl implements Maker with an HMAC secret key and a token TTL.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker creates a MakerImpl from a secret key and TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
