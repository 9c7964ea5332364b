package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/utafrali/StoreRatingsGo/internal/access"
	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/event"
	"github.com/utafrali/StoreRatingsGo/internal/repository"
	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
)

// RatingService implements rating submission, lookup, and removal.
type RatingService struct {
	ratings  repository.RatingRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewRatingService creates a rating service.
func NewRatingService(ratings repository.RatingRepository, producer *event.Producer, logger *slog.Logger) *RatingService {
	return &RatingService{
		ratings:  ratings,
		producer: producer,
		logger:   logger,
	}
}

// SubmitRatingInput holds the parameters for submitting or revising a rating.
type SubmitRatingInput struct {
	StoreID uuid.UUID
	Value   int
	Comment string
}

// SubmitRating records the caller's rating of a store. A second submission
// for the same store revises the first; the store never counts the caller
// twice. Only customers may rate.
func (s *RatingService) SubmitRating(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, input SubmitRatingInput) (*domain.Rating, *repository.RatingSubmitOutcome, error) {
	if !access.Decide(callerRole, access.OpSubmitRating, access.Resource{AccountID: callerID}) {
		return nil, nil, apperrors.Forbidden("only customers may rate stores")
	}

	if !domain.ValidValue(input.Value) {
		return nil, nil, apperrors.Validation("value", fmt.Sprintf("must be between %d and %d", domain.RatingMin, domain.RatingMax))
	}
	if utf8.RuneCountInString(input.Comment) > domain.CommentMaxLength {
		return nil, nil, apperrors.Validation("comment", fmt.Sprintf("must not exceed %d characters", domain.CommentMaxLength))
	}

	now := time.Now().UTC()
	rating := &domain.Rating{
		AccountID: callerID,
		StoreID:   input.StoreID,
		Value:     input.Value,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}

	outcome, err := s.ratings.Submit(ctx, rating)
	if err != nil {
		return nil, nil, fmt.Errorf("submit rating: %w", err)
	}

	s.producer.RatingSubmitted(ctx, rating, outcome)

	s.logger.InfoContext(ctx, "rating submitted",
		slog.String("store_id", input.StoreID.String()),
		slog.Int("value", input.Value),
		slog.Bool("revised", outcome.Revised),
	)

	return rating, outcome, nil
}

// GetOwnRating returns the caller's rating of a store, or nil when the
// caller has not rated it.
func (s *RatingService) GetOwnRating(ctx context.Context, callerID, storeID uuid.UUID) (*domain.Rating, error) {
	rating, err := s.ratings.Get(ctx, callerID, storeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rating: %w", err)
	}
	return rating, nil
}

// DeleteRating removes an account's rating of a store and reverses it out of
// the aggregate. Only admins may call it.
func (s *RatingService) DeleteRating(ctx context.Context, callerRole domain.Role, accountID, storeID uuid.UUID) error {
	if !access.Decide(callerRole, access.OpDeleteRating, access.Resource{}) {
		return apperrors.Forbidden("insufficient permissions")
	}

	outcome, err := s.ratings.Delete(ctx, accountID, storeID)
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}

	s.producer.RatingDeleted(ctx, accountID.String(), storeID.String(), outcome)

	s.logger.InfoContext(ctx, "rating deleted",
		slog.String("store_id", storeID.String()),
		slog.String("rated_by", accountID.String()),
	)

	return nil
}
