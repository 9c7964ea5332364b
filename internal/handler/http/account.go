package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
	"github.com/utafrali/StoreRatingsGo/pkg/httputil"
	"github.com/utafrali/StoreRatingsGo/pkg/pagination"
	"github.com/utafrali/StoreRatingsGo/pkg/validator"

	"github.com/utafrali/StoreRatingsGo/internal/service"
)

// AccountHandler handles account administration endpoints.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates an account HTTP handler.
func NewAccountHandler(accounts *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// CreateAccountRequest is the JSON request body for admin account creation.
type CreateAccountRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Address  string `json:"address" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin customer store_owner"`
}

// Create handles POST /api/v1/accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	_, callerRole, ok := caller(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Auth("invalid or expired session"), h.logger)
		return
	}

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.Validation("body", "invalid request body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	account, err := h.accounts.AdminCreateAccount(r.Context(), callerRole, service.CreateAccountInput{
		Name:     req.Name,
		Email:    req.Email,
		Address:  req.Address,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: toAccountResponse(account)})
}

// List handles GET /api/v1/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	_, callerRole, ok := caller(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Auth("invalid or expired session"), h.logger)
		return
	}

	params := pagination.FromRequest(r)
	accounts, total, err := h.accounts.ListAccounts(r.Context(), callerRole, service.ListAccountsInput{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
		Offset: params.Offset(),
		Limit:  params.Limit(),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	items := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, toAccountResponse(&accounts[i]))
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewPage(items, total, params),
	})
}

// Get handles GET /api/v1/accounts/{id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, callerRole, ok := caller(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Auth("invalid or expired session"), h.logger)
		return
	}

	targetID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), callerID, callerRole, targetID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toAccountResponse(account)})
}
