package api

import (
	"net/http"

	"techtrainer/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves the statistics and progress-history endpoints.
type StatsHandler struct {
	statsService    service.StatsService
	progressService service.ProgressService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService service.StatsService, progressService service.ProgressService) *StatsHandler {
	return &StatsHandler{statsService: statsService, progressService: progressService}
}

// GetWorkoutStats handles GET /workouts/stats?timeframe=.
func (h *StatsHandler) GetWorkoutStats(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}

	stats, err := h.statsService.GetWorkoutStats(c.Request.Context(), userID, c.Query("timeframe"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, stats, "")
}

// ListProgress handles GET /progress?timeframe=.
func (h *StatsHandler) ListProgress(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}

	entries, err := h.progressService.ListProgress(c.Request.Context(), userID, c.Query("timeframe"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"progress": entries}, "")
}
