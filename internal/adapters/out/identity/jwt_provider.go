// Package identity verifies connection tokens. Token issuance and
// credential policy live in the external identity service; this adapter
// only validates what drivers and customers present on connect.
package identity

import (
	"context"
	"fmt"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the claim set the identity service signs into connection
// tokens. The subject carries the actor UUID.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProvider implements the identity port over HMAC-signed JWTs.
type JWTProvider struct {
	secret []byte
}

// NewJWTProvider creates a verifier for tokens signed with the given
// shared secret.
func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret)}
}

// Verify parses and validates a connection token.
//
// Returns:
//   - ports.Identity: the verified actor and role
//   - error: when the token is missing, forged, expired, or carries an
//     unknown role or malformed subject
func (p *JWTProvider) Verify(_ context.Context, token string) (ports.Identity, error) {
	if token == "" {
		return ports.Identity{}, fmt.Errorf("token is required")
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return ports.Identity{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return ports.Identity{}, fmt.Errorf("invalid token")
	}

	actorID, err := kernel.UUIDFromString(claims.Subject)
	if err != nil {
		return ports.Identity{}, fmt.Errorf("token subject is not an actor id: %w", err)
	}

	role, err := kernel.RoleFromString(claims.Role)
	if err != nil {
		return ports.Identity{}, fmt.Errorf("token role is invalid: %w", err)
	}

	return ports.Identity{ActorID: actorID, Role: role}, nil
}
