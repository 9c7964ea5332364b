// Package access centralizes authorization decisions. Decide is a pure
// function over (role, operation, resource); handlers and services never
// compare roles inline.
package access

import (
	"github.com/google/uuid"

	"github.com/utafrali/StoreRatingsGo/internal/domain"
)

// Operation identifies an action subject to authorization.
type Operation string

const (
	OpCreateStore   Operation = "store.create"
	OpViewDashboard Operation = "store.dashboard"

	OpSubmitRating Operation = "rating.submit"
	OpDeleteRating Operation = "rating.delete"

	OpCreateAccount Operation = "account.create"
	OpListAccounts  Operation = "account.list"
	OpViewAccount   Operation = "account.view"

	OpViewStats Operation = "stats.view"
)

// Resource carries the ownership facts a decision may need. Zero values mean
// "not applicable".
type Resource struct {
	// AccountID of the caller.
	AccountID uuid.UUID
	// TargetAccountID for account-scoped operations.
	TargetAccountID uuid.UUID
	// StoreID for store-scoped operations.
	StoreID uuid.UUID
	// OwnedStoreID is the store the caller owns, if any.
	OwnedStoreID *uuid.UUID
}

// Decide reports whether the role may perform the operation on the resource.
// Unknown roles and unknown operations are always denied.
func Decide(role domain.Role, op Operation, res Resource) bool {
	if !role.IsValid() {
		return false
	}

	switch op {
	case OpCreateStore, OpCreateAccount, OpListAccounts, OpViewStats, OpDeleteRating:
		return role == domain.RoleAdmin

	case OpSubmitRating:
		return role == domain.RoleCustomer

	case OpViewDashboard:
		// Dashboards belong to store owners alone; admins use the
		// platform stats and listings instead.
		return role == domain.RoleStoreOwner &&
			res.OwnedStoreID != nil && *res.OwnedStoreID == res.StoreID

	case OpViewAccount:
		if role == domain.RoleAdmin {
			return true
		}
		return res.AccountID != uuid.Nil && res.AccountID == res.TargetAccountID

	default:
		return false
	}
}
