package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/StoreRatingsGo/internal/auth"
	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/event"
	"github.com/utafrali/StoreRatingsGo/internal/repository/memory"
	"github.com/utafrali/StoreRatingsGo/internal/service"
	"github.com/utafrali/StoreRatingsGo/internal/session"
	"github.com/utafrali/StoreRatingsGo/pkg/health"
)

type testEnv struct {
	router   http.Handler
	accounts *memory.AccountRepository
	stores   *memory.StoreRepository
	ratings  *memory.RatingRepository
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	accounts := memory.NewAccountRepository()
	stores := memory.NewStoreRepository(accounts)
	ratings := memory.NewRatingRepository(stores)

	jwtManager := auth.NewJWTManager("router-test-secret-32-characters!", time.Hour)
	sessions := session.NewMemoryStore()
	producer := event.NewProducer(noopPublisher{}, logger)

	accountSvc := service.NewAccountService(accounts, jwtManager, sessions, producer, logger)
	storeSvc := service.NewStoreService(stores, ratings, accounts, producer, logger)
	ratingSvc := service.NewRatingService(ratings, producer, logger)
	statsSvc := service.NewStatsService(accounts, stores, ratings)

	router := NewRouter(RouterDeps{
		Accounts:      accountSvc,
		Stores:        storeSvc,
		Ratings:       ratingSvc,
		Stats:         statsSvc,
		HealthHandler: health.New(time.Second),
		Logger:        logger,
		CORS:          CORSConfig{AllowedOrigins: []string{"*"}},
	})

	return &testEnv{router: router, accounts: accounts, stores: stores, ratings: ratings}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// seedAccount inserts an account directly and logs it in, returning the token.
func (e *testEnv) seedAccount(t *testing.T, role domain.Role, email string) (uuid.UUID, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("Seed3d!Pass"), 4)
	require.NoError(t, err)

	id := uuid.New()
	require.NoError(t, e.accounts.Create(context.Background(), &domain.Account{
		ID:           id,
		Name:         "Seeded Test Account Placeholder",
		Email:        email,
		Address:      "1 Seed Street",
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}))

	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "Seed3d!Pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return id, resp.Data.Token
}

func (e *testEnv) seedStore(t *testing.T, name, slugValue string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, e.stores.Create(context.Background(), &domain.Store{
		ID:        id,
		Name:      name,
		Slug:      slugValue,
		Email:     "store@example.com",
		Address:   "2 Seed Avenue",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}))
	return id
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Christopher Alexander Vandermeer",
		"email":    "chris@example.com",
		"address":  "10 Elm Street",
		"password": "Val1d!Password",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"role":"customer"`)
	assert.NotContains(t, rec.Body.String(), "password")

	// Duplicate email registers a conflict.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Christopher Alexander Vandermeer",
		"email":    "CHRIS@example.com",
		"address":  "10 Elm Street",
		"password": "Val1d!Password",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Wrong password is a 401.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "chris@example.com",
		"password": "Wr0ng!Password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedAccount(t, domain.RoleCustomer, "customer@example.com")

	rec := env.do(t, http.MethodGet, "/api/v1/auth/session", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePasswordRevokesOtherSessions(t *testing.T) {
	env := newTestEnv(t)
	_, first := env.seedAccount(t, domain.RoleCustomer, "customer@example.com")

	// A second login opens a second session for the same account.
	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "customer@example.com",
		"password": "Seed3d!Pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	second := resp.Data.Token

	rec = env.do(t, http.MethodPost, "/api/v1/auth/change-password", first, map[string]string{
		"current_password": "Seed3d!Pass",
		"new_password":     "Fresh3r!Pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The session that changed the password lives on; the other is gone.
	rec = env.do(t, http.MethodGet, "/api/v1/auth/session", first, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/auth/session", second, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateStore_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seedAccount(t, domain.RoleAdmin, "admin@example.com")
	_, customerToken := env.seedAccount(t, domain.RoleCustomer, "customer@example.com")

	body := map[string]string{
		"name":    "Riverside Books and Stationery",
		"email":   "hello@riversidebooks.example",
		"address": "5 River Road",
	}

	rec := env.do(t, http.MethodPost, "/api/v1/stores", customerToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/stores", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/stores", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"slug":"riverside-books-and-stationery"`)
	assert.Contains(t, rec.Body.String(), `"email":"hello@riversidebooks.example"`)

	// The new store is publicly visible by slug.
	rec = env.do(t, http.MethodGet, "/api/v1/stores/riverside-books-and-stationery", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRatingLifecycleThroughAPI(t *testing.T) {
	env := newTestEnv(t)
	customerID, customerToken := env.seedAccount(t, domain.RoleCustomer, "customer@example.com")
	_, adminToken := env.seedAccount(t, domain.RoleAdmin, "admin@example.com")
	storeID := env.seedStore(t, "Corner Cafe", "corner-cafe")

	base := fmt.Sprintf("/api/v1/stores/%s/ratings", storeID)

	// First submission.
	rec := env.do(t, http.MethodPost, base, customerToken, map[string]any{"value": 5, "comment": "great"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"revised":false`)

	// Revision of the same customer's rating.
	rec = env.do(t, http.MethodPost, base, customerToken, map[string]any{"value": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"revised":true`)
	assert.Contains(t, rec.Body.String(), `"rating_count":1`)

	// Own rating lookup.
	rec = env.do(t, http.MethodGet, base+"/me", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":2`)

	// Admins may not rate.
	rec = env.do(t, http.MethodPost, base, adminToken, map[string]any{"value": 4})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Store average reflects the revision.
	rec = env.do(t, http.MethodGet, "/api/v1/stores/"+storeID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"average_rating":2`)

	// Customers cannot delete ratings; admins can.
	deletePath := fmt.Sprintf("%s/%s", base, customerID)
	rec = env.do(t, http.MethodDelete, deletePath, customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, deletePath, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// After deletion there is no own rating, which is an empty 200, not an
	// error.
	rec = env.do(t, http.MethodGet, base+"/me", customerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"value"`)
}

func TestInvalidRatingValueRejected(t *testing.T) {
	env := newTestEnv(t)
	_, customerToken := env.seedAccount(t, domain.RoleCustomer, "customer@example.com")
	storeID := env.seedStore(t, "Corner Cafe", "corner-cafe")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/stores/%s/ratings", storeID), customerToken, map[string]any{"value": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountAdministration(t *testing.T) {
	env := newTestEnv(t)
	adminID, adminToken := env.seedAccount(t, domain.RoleAdmin, "admin@example.com")
	customerID, customerToken := env.seedAccount(t, domain.RoleCustomer, "customer@example.com")

	// Admin creates a store owner account.
	rec := env.do(t, http.MethodPost, "/api/v1/accounts", adminToken, map[string]string{
		"name":     "Margaret Josephine Calloway-Hart",
		"email":    "margaret@example.com",
		"address":  "7 Orchard Close",
		"password": "Own3r!Account",
		"role":     "store_owner",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Customers cannot create accounts or list them.
	rec = env.do(t, http.MethodPost, "/api/v1/accounts", customerToken, map[string]string{
		"name":     "Margaret Josephine Calloway-Hart",
		"email":    "other@example.com",
		"address":  "7 Orchard Close",
		"password": "Own3r!Account",
		"role":     "customer",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/accounts", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/accounts?role=store_owner", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "margaret@example.com")

	// Self view allowed, cross view forbidden.
	rec = env.do(t, http.MethodGet, "/api/v1/accounts/"+customerID.String(), customerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/accounts/"+adminID.String(), customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardAccess(t *testing.T) {
	env := newTestEnv(t)
	storeID := env.seedStore(t, "Owned Store", "owned-store")
	otherStoreID := env.seedStore(t, "Other Store", "other-store")

	// Ownership is read from the account record per request, so binding
	// after login still takes effect.
	ownerID, ownerToken := env.seedAccount(t, domain.RoleStoreOwner, "owner@example.com")
	require.NoError(t, env.accounts.SetOwnedStore(ownerID, storeID))

	_, customerToken := env.seedAccount(t, domain.RoleCustomer, "customer@example.com")
	_, adminToken := env.seedAccount(t, domain.RoleAdmin, "admin@example.com")

	// Owner sees their own dashboard.
	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/stores/%s/dashboard", storeID), ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"distribution"`)

	// But not someone else's.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/stores/%s/dashboard", otherStoreID), ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Dashboards are owner-only: customers and admins are both turned away.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/stores/%s/dashboard", storeID), customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/stores/%s/dashboard", storeID), adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Recent ratings on the dashboard carry the rater's name.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/stores/%s/ratings", storeID), customerToken, map[string]any{"value": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/stores/%s/dashboard", storeID), ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rater_name":"Seeded Test Account Placeholder"`)
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seedAccount(t, domain.RoleAdmin, "admin@example.com")
	_, customerToken := env.seedAccount(t, domain.RoleCustomer, "customer@example.com")
	env.seedStore(t, "Corner Cafe", "corner-cafe")

	rec := env.do(t, http.MethodGet, "/api/v1/admin/stats", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_accounts":2`)
	assert.Contains(t, rec.Body.String(), `"total_stores":1`)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStoreSearchAndPagination(t *testing.T) {
	env := newTestEnv(t)
	env.seedStore(t, "Harbor Fish Market", "harbor-fish-market")
	env.seedStore(t, "Hilltop Bakery", "hilltop-bakery")

	rec := env.do(t, http.MethodGet, "/api/v1/stores?query=harbor", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "harbor-fish-market")
	assert.NotContains(t, rec.Body.String(), "hilltop-bakery")

	rec = env.do(t, http.MethodGet, "/api/v1/stores?page=1&per_page=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":2`)
	assert.Contains(t, rec.Body.String(), `"total_pages":2`)
}
