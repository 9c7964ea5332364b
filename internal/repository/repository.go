// Package repository defines persistence interfaces for accounts, stores,
// and ratings. Implementations live in the postgres and memory subpackages.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/utafrali/StoreRatingsGo/internal/domain"
)

// AccountFilter narrows account listings.
type AccountFilter struct {
	Role   domain.Role
	Search string
	Offset int
	Limit  int
}

// StoreFilter narrows store listings.
type StoreFilter struct {
	Search string
	Offset int
	Limit  int
}

// RatingSubmitOutcome describes what a submit did: whether it revised an
// existing rating, the value it replaced, and the store aggregate after the
// write.
type RatingSubmitOutcome struct {
	Revised       bool
	PreviousValue int
	RatingSum     int64
	RatingCount   int64
}

// RatingDeleteOutcome carries the removed value and the aggregate after the
// delete.
type RatingDeleteOutcome struct {
	RemovedValue int
	RatingSum    int64
	RatingCount  int64
}

// StoreRating is a rating joined with the rater's display name, for
// dashboard listings.
type StoreRating struct {
	domain.Rating
	RaterName string
}

// AccountRepository persists accounts.
type AccountRepository interface {
	// Create inserts an account. Duplicate emails (case-insensitive) return
	// a conflict error.
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, int64, error)
	Count(ctx context.Context) (int64, error)
}

// StoreRepository persists stores and their rating aggregates.
type StoreRepository interface {
	// Create inserts a store and, when OwnerID is set, binds the owner
	// account to it in the same transaction.
	Create(ctx context.Context, store *domain.Store) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Store, error)
	List(ctx context.Context, filter StoreFilter) ([]domain.Store, int64, error)
	Count(ctx context.Context) (int64, error)
}

// RatingRepository persists ratings and keeps store aggregates consistent.
// Submit and Delete update the rating row and the store's sum/count in one
// atomic unit; concurrent writers to the same store serialize.
type RatingRepository interface {
	Submit(ctx context.Context, rating *domain.Rating) (*RatingSubmitOutcome, error)
	Get(ctx context.Context, accountID, storeID uuid.UUID) (*domain.Rating, error)
	Delete(ctx context.Context, accountID, storeID uuid.UUID) (*RatingDeleteOutcome, error)
	// ListByStore returns a store's ratings with rater names, newest first.
	ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]StoreRating, int64, error)
	// Distribution returns rating counts keyed by value 1..5.
	Distribution(ctx context.Context, storeID uuid.UUID) (map[int]int64, error)
	Count(ctx context.Context) (int64, error)
}
