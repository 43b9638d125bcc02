package ports

import (
	"context"

	"fueltrack/internal/core/domain/model/kernel"
)

// Identity is a verified actor behind a new connection.
// The core trusts it without re-validating credentials.
type Identity struct {
	ActorID kernel.UUID
	Role    kernel.Role
}

// IdentityProvider verifies connection tokens into actor identities.
// Credential policy (expiry rules, issuance, revocation) lives entirely
// behind this port.
type IdentityProvider interface {
	// Verify resolves a bearer token into a verified identity.
	// Returns an error for missing, malformed, expired or forged tokens.
	Verify(ctx context.Context, token string) (Identity, error)
}
