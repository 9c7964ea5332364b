package domain

import (
	"time"

	"github.com/google/uuid"
)

// Store is a rateable business. RatingSum and RatingCount form the running
// aggregate; the average is always derived from them, never stored.
type Store struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Email       string
	Address     string
	Description string
	// OwnerID is nil for stores registered without an owner account.
	OwnerID     *uuid.UUID
	RatingSum   int64
	RatingCount int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AverageRating derives the mean rating. A store with no ratings averages
// zero rather than dividing by zero.
func (s *Store) AverageRating() float64 {
	return Average(s.RatingSum, s.RatingCount)
}
