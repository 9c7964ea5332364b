package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/utafrali/StoreRatingsGo/internal/access"
	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/event"
	"github.com/utafrali/StoreRatingsGo/internal/repository"
	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
	"github.com/utafrali/StoreRatingsGo/pkg/slug"
)

const (
	storeNameMaxLength   = 100
	descriptionMaxLength = 1000
)

// StoreService implements store registration, lookup, and the owner
// dashboard.
type StoreService struct {
	stores   repository.StoreRepository
	ratings  repository.RatingRepository
	accounts repository.AccountRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewStoreService creates a store service.
func NewStoreService(
	stores repository.StoreRepository,
	ratings repository.RatingRepository,
	accounts repository.AccountRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *StoreService {
	return &StoreService{
		stores:   stores,
		ratings:  ratings,
		accounts: accounts,
		producer: producer,
		logger:   logger,
	}
}

// CreateStoreInput holds the parameters for registering a store.
type CreateStoreInput struct {
	Name        string
	Email       string
	Address     string
	Description string
	// OwnerID optionally binds a store_owner account to the new store.
	OwnerID *uuid.UUID
}

// ListStoresInput narrows and pages a store listing.
type ListStoresInput struct {
	Search string
	Offset int
	Limit  int
}

// Dashboard aggregates everything a store owner sees about their store.
type Dashboard struct {
	Store         *domain.Store
	Average       float64
	Distribution  map[int]int64
	RecentRatings []repository.StoreRating
}

// CreateStore registers a store. Only admins may call it. When an owner is
// given, the owner account must exist and hold the store_owner role.
func (s *StoreService) CreateStore(ctx context.Context, callerRole domain.Role, input CreateStoreInput) (*domain.Store, error) {
	if !access.Decide(callerRole, access.OpCreateStore, access.Resource{}) {
		return nil, apperrors.Forbidden("insufficient permissions")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Validation("name", "is required")
	}
	if utf8.RuneCountInString(name) > storeNameMaxLength {
		return nil, apperrors.Validation("name", fmt.Sprintf("must not exceed %d characters", storeNameMaxLength))
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(input.Email)); err != nil {
		return nil, apperrors.Validation("email", "must be a valid email address")
	}

	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, apperrors.Validation("address", "is required")
	}
	if utf8.RuneCountInString(address) > addressMaxLength {
		return nil, apperrors.Validation("address", fmt.Sprintf("must not exceed %d characters", addressMaxLength))
	}

	if utf8.RuneCountInString(input.Description) > descriptionMaxLength {
		return nil, apperrors.Validation("description", fmt.Sprintf("must not exceed %d characters", descriptionMaxLength))
	}

	if input.OwnerID != nil {
		owner, err := s.accounts.GetByID(ctx, *input.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("get owner account: %w", err)
		}
		if owner.Role != domain.RoleStoreOwner {
			return nil, apperrors.Validation("owner_id", "account must hold the store_owner role")
		}
		if owner.OwnedStoreID != nil {
			return nil, apperrors.ConflictMsg("account already owns a store")
		}
	}

	now := time.Now().UTC()
	store := &domain.Store{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug.Make(name),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Address:     address,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     input.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.stores.Create(ctx, store)
	if errors.Is(err, apperrors.ErrConflict) {
		// Slug collision with a different store name spelling. Retry once
		// with a short random suffix.
		store.Slug = slug.WithSuffix(store.Slug, uuid.New().String()[:8])
		err = s.stores.Create(ctx, store)
	}
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	s.producer.StoreCreated(ctx, store)

	s.logger.InfoContext(ctx, "store created",
		slog.String("store_id", store.ID.String()),
		slog.String("slug", store.Slug),
	)

	return store, nil
}

// GetStore resolves a store by UUID or slug.
func (s *StoreService) GetStore(ctx context.Context, idOrSlug string) (*domain.Store, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		store, err := s.stores.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get store: %w", err)
		}
		return store, nil
	}

	store, err := s.stores.GetBySlug(ctx, idOrSlug)
	if err != nil {
		return nil, fmt.Errorf("get store by slug: %w", err)
	}
	return store, nil
}

// ListStores returns stores matching the filter. Listing is public.
func (s *StoreService) ListStores(ctx context.Context, input ListStoresInput) ([]domain.Store, int64, error) {
	stores, total, err := s.stores.List(ctx, repository.StoreFilter{
		Search: input.Search,
		Offset: input.Offset,
		Limit:  input.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list stores: %w", err)
	}
	return stores, total, nil
}

// OwnerAccount resolves an account for dashboard ownership checks.
func (s *StoreService) OwnerAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

const dashboardRecentRatings = 10

// GetDashboard returns the owner dashboard for a store. Only the owning
// store_owner account may view it.
func (s *StoreService) GetDashboard(ctx context.Context, callerRole domain.Role, ownedStoreID *uuid.UUID, storeID uuid.UUID) (*Dashboard, error) {
	res := access.Resource{StoreID: storeID, OwnedStoreID: ownedStoreID}
	if !access.Decide(callerRole, access.OpViewDashboard, res) {
		return nil, apperrors.Forbidden("insufficient permissions")
	}

	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}

	dist, err := s.ratings.Distribution(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}

	recent, _, err := s.ratings.ListByStore(ctx, storeID, 0, dashboardRecentRatings)
	if err != nil {
		return nil, fmt.Errorf("recent ratings: %w", err)
	}

	return &Dashboard{
		Store:         store,
		Average:       store.AverageRating(),
		Distribution:  dist,
		RecentRatings: recent,
	}, nil
}
