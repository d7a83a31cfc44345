package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/route-orders-api/internal/validation"
)

func (h *handler) geocode(c *gin.Context) {
	var q validation.GeocodeQuery
	if err := validation.BindQueryAndValidate(c, &q, h.v); err != nil {
		return
	}
	address := strings.TrimSpace(q.Address)
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: address"})
		return
	}

	res, err := h.cfg.Geocoder.Lookup(c.Request.Context(), address)
	if err != nil {
		h.writeError(c, err, "Geocoding failed")
		return
	}
	c.JSON(http.StatusOK, res)
}
