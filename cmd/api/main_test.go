package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/imrishuroy/route-orders-api/internal/config"
	"github.com/imrishuroy/route-orders-api/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func TestSetupRouter(t *testing.T) {
	cfg := &config.Config{ServiceName: "route-orders-api", RunLocal: true}
	r := setupRouter(cfg, handlers.HandlerConfig{Logger: zap.NewNop()}, noop.NewTracerProvider())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `route="/health"`))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/geocode?address=x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
