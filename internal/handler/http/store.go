package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
	"github.com/utafrali/StoreRatingsGo/pkg/httputil"
	"github.com/utafrali/StoreRatingsGo/pkg/pagination"
	"github.com/utafrali/StoreRatingsGo/pkg/validator"

	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/service"
)

// StoreHandler handles store registry endpoints.
type StoreHandler struct {
	stores *service.StoreService
	logger *slog.Logger
}

// NewStoreHandler creates a store HTTP handler.
func NewStoreHandler(stores *service.StoreService, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{stores: stores, logger: logger}
}

// CreateStoreRequest is the JSON request body for store registration.
type CreateStoreRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Address     string `json:"address" validate:"required"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id" validate:"omitempty,uuid"`
}

// DashboardResponse is the owner dashboard payload.
type DashboardResponse struct {
	Store         StoreResponse    `json:"store"`
	Average       float64          `json:"average"`
	Distribution  map[int]int64    `json:"distribution"`
	RecentRatings []RatingResponse `json:"recent_ratings"`
}

// Create handles POST /api/v1/stores
func (h *StoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	_, callerRole, ok := caller(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Auth("invalid or expired session"), h.logger)
		return
	}

	var req CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.Validation("body", "invalid request body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.CreateStoreInput{
		Name:        req.Name,
		Email:       req.Email,
		Address:     req.Address,
		Description: req.Description,
	}
	if req.OwnerID != "" {
		ownerID, err := uuid.Parse(req.OwnerID)
		if err != nil {
			httputil.WriteError(w, r, apperrors.Validation("owner_id", "must be a valid UUID"), h.logger)
			return
		}
		input.OwnerID = &ownerID
	}

	store, err := h.stores.CreateStore(r.Context(), callerRole, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: toStoreResponse(store)})
}

// List handles GET /api/v1/stores
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	stores, total, err := h.stores.ListStores(r.Context(), service.ListStoresInput{
		Search: r.URL.Query().Get("query"),
		Offset: params.Offset(),
		Limit:  params.Limit(),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	items := make([]StoreResponse, 0, len(stores))
	for i := range stores {
		items = append(items, toStoreResponse(&stores[i]))
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewPage(items, total, params),
	})
}

// Get handles GET /api/v1/stores/{id}. The path segment accepts either a
// store UUID or a slug.
func (h *StoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	store, err := h.stores.GetStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toStoreResponse(store)})
}

// Dashboard handles GET /api/v1/stores/{id}/dashboard
func (h *StoreHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	callerID, callerRole, ok := caller(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Auth("invalid or expired session"), h.logger)
		return
	}

	storeID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	ownedStoreID, err := h.ownedStore(r, callerID, callerRole)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	dashboard, err := h.stores.GetDashboard(r.Context(), callerRole, ownedStoreID, storeID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	recent := make([]RatingResponse, 0, len(dashboard.RecentRatings))
	for i := range dashboard.RecentRatings {
		recent = append(recent, toStoreRatingResponse(&dashboard.RecentRatings[i]))
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: DashboardResponse{
			Store:         toStoreResponse(dashboard.Store),
			Average:       dashboard.Average,
			Distribution:  dashboard.Distribution,
			RecentRatings: recent,
		},
	})
}

// ownedStore resolves which store the caller owns, if any. Only needed for
// store owners; other roles are decided on role alone.
func (h *StoreHandler) ownedStore(r *http.Request, callerID uuid.UUID, callerRole domain.Role) (*uuid.UUID, error) {
	if callerRole != domain.RoleStoreOwner {
		return nil, nil
	}

	account, err := h.stores.OwnerAccount(r.Context(), callerID)
	if err != nil {
		return nil, err
	}
	return account.OwnedStoreID, nil
}
