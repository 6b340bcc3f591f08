package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"gym-occupancy-backend/internal/model"
)

// PostCheckIn handles POST /api/checkin/:zone?user=U.
func (h *Handler) PostCheckIn(c *gin.Context) {
	zone := c.Param("zone")
	user := c.DefaultQuery("user", "demo_user")

	res, err := h.engine.CheckIn(c.Request.Context(), zone, user)
	if err != nil {
		abortWithEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      res.EquipmentID + " checked in under zone '" + zone + "' by " + user,
		"equipment_id": res.EquipmentID,
		"start_time":   res.StartTime.Format(time.RFC3339),
	})
}

// PostCheckOut handles POST /api/checkout/:zone[?user=U]. When the caller
// names a user the lookup is user-scoped; without one the first in-use
// unit in the zone is released.
func (h *Handler) PostCheckOut(c *gin.Context) {
	zone := c.Param("zone")
	user := c.Query("user")

	res, err := h.engine.CheckOut(c.Request.Context(), zone, user)
	if err != nil {
		abortWithEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          res.EquipmentID + " checked out from zone '" + zone + "'",
		"equipment_id":     res.EquipmentID,
		"duration_minutes": res.DurationMinutes,
		"new_avg_duration": res.NewAvgDuration,
	})
}

// GetUsageLogs handles GET /api/usage_logs/:equipment_id. Logs come back
// most recent first.
func (h *Handler) GetUsageLogs(c *gin.Context) {
	equipmentID := c.Param("equipment_id")

	logs, err := h.store.UsageByEquipment(c.Request.Context(), equipmentID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "failed to retrieve usage logs"})
		return
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].EndTime.After(logs[j].EndTime)
	})
	if logs == nil {
		logs = []model.UsageRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"equipment_id":   equipmentID,
		"total_sessions": len(logs),
		"logs":           logs,
	})
}

type usageUpdateRequest struct {
	Zone      string     `json:"zone"`
	Status    string     `json:"status"` // "in_use" or "available"
	User      string     `json:"user"`
	Timestamp *time.Time `json:"timestamp"`
}

// PostUsageUpdate handles POST /api/usage_logs/update, the compatibility
// shim for dashboard callers that speak status transitions instead of
// checkin/checkout.
func (h *Handler) PostUsageUpdate(c *gin.Context) {
	var req usageUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Zone == "" || req.Status == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing 'zone' or 'status' field"})
		return
	}

	user := req.User
	if user == "" {
		user = "demo_user"
	}

	switch req.Status {
	case model.StatusInUse:
		res, err := h.engine.CheckIn(c.Request.Context(), req.Zone, user)
		if err != nil {
			abortWithEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"equipment_id": res.EquipmentID,
			"start_time":   res.StartTime.Format(time.RFC3339),
		})
	case model.StatusAvailable:
		res, err := h.engine.CheckOut(c.Request.Context(), req.Zone, user)
		if err != nil {
			abortWithEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"equipment_id":     res.EquipmentID,
			"duration_minutes": res.DurationMinutes,
			"new_avg_duration": res.NewAvgDuration,
		})
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
	}
}
