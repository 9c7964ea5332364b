package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RatingMin = 1
	RatingMax = 5

	CommentMaxLength = 1000
)

// Rating is one account's rating of one store. The (AccountID, StoreID) pair
// is unique: submitting again revises the existing rating in place.
type Rating struct {
	AccountID uuid.UUID
	StoreID   uuid.UUID
	Value     int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidValue reports whether a rating value is within the 1..5 scale.
func ValidValue(value int) bool {
	return value >= RatingMin && value <= RatingMax
}
