package http

import (
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
	"github.com/utafrali/StoreRatingsGo/pkg/httputil"

	"github.com/utafrali/StoreRatingsGo/internal/service"
)

// StatsHandler handles the admin stats endpoint.
type StatsHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

// NewStatsHandler creates a stats HTTP handler.
func NewStatsHandler(stats *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// Get handles GET /api/v1/admin/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, callerRole, ok := caller(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Auth("invalid or expired session"), h.logger)
		return
	}

	stats, err := h.stats.GetStats(r.Context(), callerRole)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}
