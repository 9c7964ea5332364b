package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/event"
	"github.com/utafrali/StoreRatingsGo/internal/repository"
	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
)

func newStoreService(stores *mockStoreRepository, ratings *mockRatingRepository, accounts *mockAccountRepository) (*StoreService, *stubPublisher) {
	producer, publisher := newTestProducer()
	svc := NewStoreService(stores, ratings, accounts, producer, newTestLogger())
	return svc, publisher
}

func validCreateStoreInput() CreateStoreInput {
	return CreateStoreInput{
		Name:    "Downtown Grocery and Fine Foods",
		Email:   "contact@downtowngrocery.example",
		Address: "88 Market Street, Old Town",
	}
}

func TestCreateStore_AdminOnly(t *testing.T) {
	stores := new(mockStoreRepository)
	svc, _ := newStoreService(stores, new(mockRatingRepository), new(mockAccountRepository))

	for _, role := range []domain.Role{domain.RoleCustomer, domain.RoleStoreOwner} {
		_, err := svc.CreateStore(context.Background(), role, validCreateStoreInput())
		assert.ErrorIs(t, err, apperrors.ErrForbidden, "role %s", role)
	}
	stores.AssertNotCalled(t, "Create")
}

func TestCreateStore_Success(t *testing.T) {
	stores := new(mockStoreRepository)
	svc, publisher := newStoreService(stores, new(mockRatingRepository), new(mockAccountRepository))
	ctx := context.Background()

	stores.On("Create", ctx, mock.AnythingOfType("*domain.Store")).Return(nil)

	store, err := svc.CreateStore(ctx, domain.RoleAdmin, validCreateStoreInput())

	require.NoError(t, err)
	assert.Equal(t, "downtown-grocery-and-fine-foods", store.Slug)
	assert.Equal(t, "contact@downtowngrocery.example", store.Email)
	assert.Equal(t, int64(0), store.RatingSum)
	assert.Equal(t, int64(0), store.RatingCount)
	assert.Contains(t, publisher.published(), event.TypeStoreCreated)
	stores.AssertExpectations(t)
}

func TestCreateStore_NameLength(t *testing.T) {
	stores := new(mockStoreRepository)
	svc, _ := newStoreService(stores, new(mockRatingRepository), new(mockAccountRepository))
	ctx := context.Background()

	stores.On("Create", ctx, mock.AnythingOfType("*domain.Store")).Return(nil)

	// A single character is a valid store name.
	input := validCreateStoreInput()
	input.Name = "Q"
	_, err := svc.CreateStore(ctx, domain.RoleAdmin, input)
	assert.NoError(t, err)

	input.Name = strings.Repeat("q", storeNameMaxLength+1)
	_, err = svc.CreateStore(ctx, domain.RoleAdmin, input)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateStore_EmailRequired(t *testing.T) {
	stores := new(mockStoreRepository)
	svc, _ := newStoreService(stores, new(mockRatingRepository), new(mockAccountRepository))

	input := validCreateStoreInput()
	input.Email = "not-an-email"

	_, err := svc.CreateStore(context.Background(), domain.RoleAdmin, input)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	stores.AssertNotCalled(t, "Create")
}

func TestCreateStore_SlugCollisionRetriesWithSuffix(t *testing.T) {
	stores := new(mockStoreRepository)
	svc, _ := newStoreService(stores, new(mockRatingRepository), new(mockAccountRepository))
	ctx := context.Background()

	stores.On("Create", ctx, mock.AnythingOfType("*domain.Store")).
		Return(apperrors.Conflict("store", "slug", "downtown-grocery-and-fine-foods")).Once()
	stores.On("Create", ctx, mock.AnythingOfType("*domain.Store")).Return(nil).Once()

	store, err := svc.CreateStore(ctx, domain.RoleAdmin, validCreateStoreInput())

	require.NoError(t, err)
	assert.Contains(t, store.Slug, "downtown-grocery-and-fine-foods-")
	stores.AssertExpectations(t)
}

func TestCreateStore_OwnerMustHoldStoreOwnerRole(t *testing.T) {
	stores := new(mockStoreRepository)
	accounts := new(mockAccountRepository)
	svc, _ := newStoreService(stores, new(mockRatingRepository), accounts)
	ctx := context.Background()

	ownerID := uuid.New()
	accounts.On("GetByID", ctx, ownerID).
		Return(&domain.Account{ID: ownerID, Role: domain.RoleCustomer}, nil)

	input := validCreateStoreInput()
	input.OwnerID = &ownerID

	_, err := svc.CreateStore(ctx, domain.RoleAdmin, input)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	stores.AssertNotCalled(t, "Create")
}

func TestCreateStore_OwnerAlreadyOwnsStore(t *testing.T) {
	stores := new(mockStoreRepository)
	accounts := new(mockAccountRepository)
	svc, _ := newStoreService(stores, new(mockRatingRepository), accounts)
	ctx := context.Background()

	ownerID := uuid.New()
	existing := uuid.New()
	accounts.On("GetByID", ctx, ownerID).
		Return(&domain.Account{ID: ownerID, Role: domain.RoleStoreOwner, OwnedStoreID: &existing}, nil)

	input := validCreateStoreInput()
	input.OwnerID = &ownerID

	_, err := svc.CreateStore(ctx, domain.RoleAdmin, input)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestGetStore_ByIDOrSlug(t *testing.T) {
	stores := new(mockStoreRepository)
	svc, _ := newStoreService(stores, new(mockRatingRepository), new(mockAccountRepository))
	ctx := context.Background()

	id := uuid.New()
	store := &domain.Store{ID: id, Slug: "corner-cafe"}
	stores.On("GetByID", ctx, id).Return(store, nil)
	stores.On("GetBySlug", ctx, "corner-cafe").Return(store, nil)

	byID, err := svc.GetStore(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, id, byID.ID)

	bySlug, err := svc.GetStore(ctx, "corner-cafe")
	require.NoError(t, err)
	assert.Equal(t, id, bySlug.ID)

	stores.AssertExpectations(t)
}

func TestGetDashboard_OwnershipEnforced(t *testing.T) {
	stores := new(mockStoreRepository)
	ratings := new(mockRatingRepository)
	svc, _ := newStoreService(stores, ratings, new(mockAccountRepository))
	ctx := context.Background()

	storeID := uuid.New()
	otherStore := uuid.New()

	// Owner of a different store cannot view this dashboard.
	_, err := svc.GetDashboard(ctx, domain.RoleStoreOwner, &otherStore, storeID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Customers cannot view dashboards at all.
	_, err = svc.GetDashboard(ctx, domain.RoleCustomer, nil, storeID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGetDashboard_Success(t *testing.T) {
	stores := new(mockStoreRepository)
	ratings := new(mockRatingRepository)
	svc, _ := newStoreService(stores, ratings, new(mockAccountRepository))
	ctx := context.Background()

	storeID := uuid.New()
	store := &domain.Store{ID: storeID, RatingSum: 13, RatingCount: 3}
	dist := map[int]int64{1: 0, 2: 0, 3: 1, 4: 0, 5: 2}
	recent := []repository.StoreRating{{
		Rating:    domain.Rating{StoreID: storeID, Value: 5},
		RaterName: "Jonathan Maxwell Atherton-Reyes",
	}}

	stores.On("GetByID", ctx, storeID).Return(store, nil)
	ratings.On("Distribution", ctx, storeID).Return(dist, nil)
	ratings.On("ListByStore", ctx, storeID, 0, dashboardRecentRatings).Return(recent, int64(3), nil)

	dashboard, err := svc.GetDashboard(ctx, domain.RoleStoreOwner, &storeID, storeID)

	require.NoError(t, err)
	assert.InDelta(t, 13.0/3.0, dashboard.Average, 1e-9)
	assert.Equal(t, int64(2), dashboard.Distribution[5])
	require.Len(t, dashboard.RecentRatings, 1)
	assert.Equal(t, "Jonathan Maxwell Atherton-Reyes", dashboard.RecentRatings[0].RaterName)
	stores.AssertExpectations(t)
	ratings.AssertExpectations(t)
}
