package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"gym-occupancy-backend/config"
	"gym-occupancy-backend/internal/analytics"
	"gym-occupancy-backend/internal/auth"
	"gym-occupancy-backend/internal/engine"
	"gym-occupancy-backend/internal/mw"
	"gym-occupancy-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, eng *engine.Engine, agg *analytics.Aggregator, authSvc *auth.Service, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, eng, agg, authSvc, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	// Response cache for the static workout catalog only. Registry and
	// heatmap reads are never cached; stale availability misleads users.
	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	catalogCache := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/equipment", handler.GetEquipment)
		api.POST("/equipment", handler.PostEquipment)
		api.PATCH("/equipment/:id", handler.PatchEquipment)

		api.POST("/checkin/:zone", handler.PostCheckIn)
		api.POST("/checkout/:zone", handler.PostCheckOut)

		api.GET("/usage_logs/:equipment_id", handler.GetUsageLogs)
		api.POST("/usage_logs/update", handler.PostUsageUpdate)

		api.GET("/analytics/heatmap", handler.GetHeatmap)
		api.GET("/analytics/eta/:zone", handler.GetZoneETA)

		api.GET("/exercises", catalogCache, handler.GetExercises)

		api.POST("/auth/signup", handler.PostSignup)
		api.POST("/auth/signin", handler.PostSignin)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
