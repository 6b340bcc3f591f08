package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gym-occupancy-backend/internal/model"
	"gym-occupancy-backend/internal/store"
)

// GetEquipment handles GET /api/equipment.
func (h *Handler) GetEquipment(c *gin.Context) {
	units, err := h.store.ListEquipment(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "failed to retrieve equipment"})
		return
	}
	c.JSON(http.StatusOK, units)
}

// PostEquipment handles POST /api/equipment (provisioning a new unit).
func (h *Handler) PostEquipment(c *gin.Context) {
	var eq model.Equipment
	if err := c.ShouldBindJSON(&eq); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if eq.ID == "" || eq.Zone == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "equipment_id and zone are required"})
		return
	}

	if err := h.store.CreateEquipment(c.Request.Context(), &eq); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Equipment added successfully",
		"equipment_id": eq.ID,
	})
}

// PatchEquipment handles PATCH /api/equipment/:id (partial field update).
func (h *Handler) PatchEquipment(c *gin.Context) {
	id := c.Param("id")

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(fields) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	err := h.store.PatchEquipment(c.Request.Context(), id, fields)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Equipment not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Equipment " + id + " updated",
		"updated_fields": fields,
	})
}
