// Package session tracks live sessions. Tokens are JWTs, but a session is
// only valid while its entry exists in the store, so logout can revoke a
// token before it expires.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no live session exists for a token.
var ErrNotFound = errors.New("session not found")

// Principal is the authenticated identity bound to a session token.
type Principal struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Store persists live sessions keyed by token ID, with a secondary index by
// account so all of an account's sessions can be revoked at once.
type Store interface {
	// Save records a live session under the token ID with a TTL.
	Save(ctx context.Context, tokenID string, p Principal, ttl time.Duration) error
	// Load returns the principal for a live session, or ErrNotFound.
	Load(ctx context.Context, tokenID string) (Principal, error)
	// Clear revokes a session. Clearing a missing session is not an error.
	Clear(ctx context.Context, tokenID string) error
	// ClearAccount revokes every session belonging to an account except
	// keepTokenID. An empty keepTokenID revokes them all.
	ClearAccount(ctx context.Context, accountID, keepTokenID string) error
}
