package service

import (
	"context"
	"fmt"

	"github.com/utafrali/StoreRatingsGo/internal/access"
	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/repository"
	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
)

// Stats is the admin platform overview.
type Stats struct {
	TotalAccounts int64 `json:"total_accounts"`
	TotalStores   int64 `json:"total_stores"`
	TotalRatings  int64 `json:"total_ratings"`
}

// StatsService aggregates platform-wide counts for the admin overview.
type StatsService struct {
	accounts repository.AccountRepository
	stores   repository.StoreRepository
	ratings  repository.RatingRepository
}

// NewStatsService creates a stats service.
func NewStatsService(
	accounts repository.AccountRepository,
	stores repository.StoreRepository,
	ratings repository.RatingRepository,
) *StatsService {
	return &StatsService{
		accounts: accounts,
		stores:   stores,
		ratings:  ratings,
	}
}

// GetStats returns platform totals. Only admins may call it.
func (s *StatsService) GetStats(ctx context.Context, callerRole domain.Role) (*Stats, error) {
	if !access.Decide(callerRole, access.OpViewStats, access.Resource{}) {
		return nil, apperrors.Forbidden("insufficient permissions")
	}

	accounts, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count accounts: %w", err)
	}
	stores, err := s.stores.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stores: %w", err)
	}
	ratings, err := s.ratings.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count ratings: %w", err)
	}

	return &Stats{
		TotalAccounts: accounts,
		TotalStores:   stores,
		TotalRatings:  ratings,
	}, nil
}
