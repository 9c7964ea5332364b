package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
	"github.com/utafrali/StoreRatingsGo/pkg/httputil"
	"github.com/utafrali/StoreRatingsGo/pkg/validator"

	"github.com/utafrali/StoreRatingsGo/internal/service"
)

// RatingHandler handles rating endpoints.
type RatingHandler struct {
	ratings *service.RatingService
	logger  *slog.Logger
}

// NewRatingHandler creates a rating HTTP handler.
func NewRatingHandler(ratings *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{ratings: ratings, logger: logger}
}

// SubmitRatingRequest is the JSON request body for submitting a rating.
type SubmitRatingRequest struct {
	Value   int    `json:"value" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment"`
}

// SubmitRatingResponse carries the rating plus the store aggregate after the
// write, so clients can update displayed averages without a second fetch.
type SubmitRatingResponse struct {
	Rating      RatingResponse `json:"rating"`
	Revised     bool           `json:"revised"`
	RatingCount int64          `json:"rating_count"`
	Average     float64        `json:"average"`
}

// Submit handles POST /api/v1/stores/{id}/ratings
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	callerID, callerRole, ok := caller(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Auth("invalid or expired session"), h.logger)
		return
	}

	storeID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req SubmitRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.Validation("body", "invalid request body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	rating, outcome, err := h.ratings.SubmitRating(r.Context(), callerID, callerRole, service.SubmitRatingInput{
		StoreID: storeID,
		Value:   req.Value,
		Comment: req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if outcome.Revised {
		status = http.StatusOK
	}

	var average float64
	if outcome.RatingCount > 0 {
		average = float64(outcome.RatingSum) / float64(outcome.RatingCount)
	}

	httputil.WriteJSON(w, status, httputil.Response{
		Data: SubmitRatingResponse{
			Rating:      toRatingResponse(rating),
			Revised:     outcome.Revised,
			RatingCount: outcome.RatingCount,
			Average:     average,
		},
	})
}

// GetOwn handles GET /api/v1/stores/{id}/ratings/me
func (h *RatingHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	callerID, _, ok := caller(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Auth("invalid or expired session"), h.logger)
		return
	}

	storeID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rating, err := h.ratings.GetOwnRating(r.Context(), callerID, storeID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// No rating yet is a normal answer here, not an error.
	if rating == nil {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toRatingResponse(rating)})
}

// Delete handles DELETE /api/v1/stores/{id}/ratings/{accountId}
func (h *RatingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, callerRole, ok := caller(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Auth("invalid or expired session"), h.logger)
		return
	}

	storeID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	accountID, ok := httputil.ParseUUID(w, chi.URLParam(r, "accountId"))
	if !ok {
		return
	}

	if err := h.ratings.DeleteRating(r.Context(), callerRole, accountID, storeID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
