// Package auth is the boundary to the identity collaborator. The chat core
// never issues or refreshes credentials; it consumes an already-verified
// principal through the Verifier interface, so the token format stays a
// property of the surrounding platform, not of this core.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the verified caller identity every inbound operation receives.
type Principal struct {
	UserID string
	Roles  []string
}

// ErrInvalidToken is returned when a credential cannot be verified.
var ErrInvalidToken = errors.New("invalid token")

// Verifier turns an opaque credential into a Principal.
type Verifier interface {
	Verify(token string) (Principal, error)
}

// JWTVerifier validates HS256-signed tokens issued by the platform's auth
// service. The subject claim carries the user id; an optional "roles" claim
// carries a string list.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a verifier for the given shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify implements Verifier.
func (v *JWTVerifier) Verify(token string) (Principal, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Principal{}, ErrInvalidToken
	}

	p := Principal{UserID: sub}
	if raw, ok := claims["roles"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				p.Roles = append(p.Roles, s)
			}
		}
	}
	return p, nil
}

// HeaderVerifier treats the credential as a plain user id. It backs the
// development/test mode where an upstream gateway has already authenticated
// the request and forwards the identity in a header.
type HeaderVerifier struct{}

// Verify implements Verifier.
func (HeaderVerifier) Verify(token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: token}, nil
}
