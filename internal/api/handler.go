package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"gym-occupancy-backend/internal/analytics"
	"gym-occupancy-backend/internal/auth"
	"gym-occupancy-backend/internal/engine"
	"gym-occupancy-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	engine    *engine.Engine
	analytics *analytics.Aggregator
	auth      *auth.Service
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, eng *engine.Engine, agg *analytics.Aggregator, authSvc *auth.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:     s,
		engine:    eng,
		analytics: agg,
		auth:      authSvc,
		webpush:   webpushOptions,
	}
}

// abortWithEngineError maps the engine's error taxonomy onto HTTP status
// codes. Business outcomes are 4xx with a machine-readable kind; only
// store unavailability is a 5xx and worth a caller retry.
func abortWithEngineError(c *gin.Context, err error) {
	var (
		alreadyIn   *engine.AlreadyCheckedInError
		noUnit      *engine.NoAvailableUnitError
		noSession   *engine.NoActiveSessionError
		notFound    *engine.NotFoundError
		invalid     *engine.InvalidRequestError
		unavailable *engine.StoreUnavailableError
	)
	switch {
	case errors.As(err, &alreadyIn):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"kind":         "already_checked_in",
			"error":        alreadyIn.Error(),
			"zone":         alreadyIn.Zone,
			"equipment_id": alreadyIn.EquipmentID,
		})
	case errors.As(err, &noUnit):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"kind":  "no_available_unit",
			"error": noUnit.Error(),
			"zone":  noUnit.Zone,
		})
	case errors.As(err, &noSession):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"kind":  "no_active_session",
			"error": noSession.Error(),
			"zone":  noSession.Zone,
		})
	case errors.As(err, &notFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"kind":  "not_found",
			"error": notFound.Error(),
		})
	case errors.As(err, &invalid):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"kind":  "invalid_request",
			"error": invalid.Error(),
		})
	case errors.As(err, &unavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"kind":      "store_unavailable",
			"error":     unavailable.Error(),
			"retryable": true,
		})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
