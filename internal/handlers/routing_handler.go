package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/route-orders-api/internal/routing"
	"go.uber.org/zap"
)

const msgMalformedOptimization = "Missing or malformed JSON body. Ensure Content-Type is 'application/json' and the body is valid."

// optimizeRoute proxies a VROOM optimization request to openrouteservice.
func (h *handler) optimizeRoute(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 5<<20))
	if err != nil || isEmptyJSON(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMalformedOptimization})
		return
	}

	solution, status, err := h.cfg.Optimizer.Optimize(c.Request.Context(), raw)
	var upstream *routing.UpstreamError
	switch {
	case errors.As(err, &upstream):
		h.log.Warn("optimization API error", zap.Int("status", upstream.StatusCode))
		c.JSON(upstream.StatusCode, gin.H{
			"error":       "Optimization API returned an error.",
			"status_code": upstream.StatusCode,
			"details":     upstream.Details,
		})
		return
	case err != nil:
		h.log.Error("optimization API unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Internal server error: Could not reach optimization service.",
		})
		return
	}
	c.Data(status, jsonContentType, solution)
}

// isEmptyJSON reports a body that is not JSON or carries nothing: null, {} or [].
func isEmptyJSON(raw []byte) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}
