// Package domain defines the core entities and the rating aggregate math.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a registered principal. PasswordHash never crosses the HTTP
// boundary; handlers map accounts to response DTOs explicitly.
type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Address      string
	PasswordHash string
	Role         Role
	// OwnedStoreID is set only for store owners.
	OwnedStoreID *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnsStore reports whether the account owns the given store.
func (a *Account) OwnsStore(storeID uuid.UUID) bool {
	return a.OwnedStoreID != nil && *a.OwnedStoreID == storeID
}
