package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gym-occupancy-backend/internal/model"
)

type exerciseRecommendation struct {
	model.Exercise
	EstimatedWaitMins int `json:"estimated_wait_mins"`
}

// GetExercises handles GET /api/exercises: the workout catalog joined with
// a live wait estimate for each exercise's zone.
func (h *Handler) GetExercises(c *gin.Context) {
	exercises, err := h.store.ListExercises(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "failed to retrieve exercises"})
		return
	}

	etaByZone := make(map[string]int)
	recs := make([]exerciseRecommendation, 0, len(exercises))
	for _, ex := range exercises {
		eta, ok := etaByZone[ex.Zone]
		if !ok {
			eta, err = h.analytics.ETA(c.Request.Context(), ex.Zone)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "failed to compute wait estimate"})
				return
			}
			etaByZone[ex.Zone] = eta
		}
		recs = append(recs, exerciseRecommendation{Exercise: ex, EstimatedWaitMins: eta})
	}

	c.JSON(http.StatusOK, gin.H{"exercises": recs})
}
