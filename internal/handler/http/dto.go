// Package http exposes the service over a chi REST API.
package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/repository"
	"github.com/utafrali/StoreRatingsGo/pkg/middleware"
)

// AccountResponse is the public shape of an account. The password hash never
// leaves the service.
type AccountResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Address      string  `json:"address"`
	Role         string  `json:"role"`
	OwnedStoreID *string `json:"owned_store_id,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func toAccountResponse(a *domain.Account) AccountResponse {
	resp := AccountResponse{
		ID:        a.ID.String(),
		Name:      a.Name,
		Email:     a.Email,
		Address:   a.Address,
		Role:      a.Role.String(),
		CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if a.OwnedStoreID != nil {
		id := a.OwnedStoreID.String()
		resp.OwnedStoreID = &id
	}
	return resp
}

// StoreResponse is the public shape of a store, with the derived average.
type StoreResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Email         string  `json:"email"`
	Address       string  `json:"address"`
	Description   string  `json:"description,omitempty"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
	CreatedAt     string  `json:"created_at"`
}

func toStoreResponse(s *domain.Store) StoreResponse {
	return StoreResponse{
		ID:            s.ID.String(),
		Name:          s.Name,
		Slug:          s.Slug,
		Email:         s.Email,
		Address:       s.Address,
		Description:   s.Description,
		AverageRating: s.AverageRating(),
		RatingCount:   s.RatingCount,
		CreatedAt:     s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// RatingResponse is the public shape of a rating. RaterName is only set on
// dashboard listings, where the rating is shown next to who submitted it.
type RatingResponse struct {
	AccountID string `json:"account_id"`
	StoreID   string `json:"store_id"`
	Value     int    `json:"value"`
	Comment   string `json:"comment,omitempty"`
	RaterName string `json:"rater_name,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

func toRatingResponse(rt *domain.Rating) RatingResponse {
	return RatingResponse{
		AccountID: rt.AccountID.String(),
		StoreID:   rt.StoreID.String(),
		Value:     rt.Value,
		Comment:   rt.Comment,
		UpdatedAt: rt.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toStoreRatingResponse(sr *repository.StoreRating) RatingResponse {
	resp := toRatingResponse(&sr.Rating)
	resp.RaterName = sr.RaterName
	return resp
}

// caller extracts the authenticated principal from the request context.
func caller(r *http.Request) (uuid.UUID, domain.Role, bool) {
	id, err := uuid.Parse(middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", false
	}
	role, ok := domain.ParseRole(middleware.RoleFromContext(r.Context()))
	if !ok {
		return uuid.Nil, "", false
	}
	return id, role, true
}
