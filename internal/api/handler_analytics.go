package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHeatmap handles GET /api/analytics/heatmap. Always computed fresh;
// never cached.
func (h *Handler) GetHeatmap(c *gin.Context) {
	zones, err := h.analytics.Heatmap(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "failed to compute heatmap"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": zones})
}

// GetZoneETA handles GET /api/analytics/eta/:zone.
func (h *Handler) GetZoneETA(c *gin.Context) {
	zone := c.Param("zone")

	eta, err := h.analytics.ETA(c.Request.Context(), zone)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "failed to compute wait estimate"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"zone":                 zone,
		"estimated_wait_mins": eta,
	})
}
