package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/imrishuroy/route-orders-api/internal/accounts"
	"github.com/imrishuroy/route-orders-api/internal/auth"
	"github.com/imrishuroy/route-orders-api/internal/aws"
	"github.com/imrishuroy/route-orders-api/internal/geocode"
	"github.com/imrishuroy/route-orders-api/internal/orders"
	"github.com/imrishuroy/route-orders-api/internal/routing"
	"github.com/imrishuroy/route-orders-api/internal/validation"
	"go.uber.org/zap"
)

// HandlerConfig groups dependencies for the HTTP handlers.
type HandlerConfig struct {
	Orders    *orders.Service
	Accounts  *accounts.Service
	Verifier  auth.TokenVerifier
	Publisher *aws.Publisher
	Metrics   *aws.MetricsPublisher
	Optimizer *routing.Client
	Geocoder  *geocode.Client
	Logger    *zap.Logger
}

type handler struct {
	cfg HandlerConfig
	v   *validatorv10.Validate
	log *zap.Logger
}

// RegisterRoutes registers every public and authenticated route on r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	h := &handler{cfg: cfg, v: validation.New(), log: cfg.Logger}

	r.GET("/", h.home)
	r.GET("/health", h.health)

	r.POST("/signup", h.signup)
	r.POST("/login", h.login)
	r.POST("/confirm", h.confirm)

	r.POST("/optimize-route", h.optimizeRoute)

	api := r.Group("/api", auth.RequireAuth(cfg.Verifier, cfg.Logger))
	if cfg.Orders != nil {
		cfg.Orders.RenderCreatedWith(renderCreated)
		api.POST("/orders", h.createOrder)
		api.GET("/orders", h.listOrders)
		api.GET("/orders/:order_id", h.getOrder)
		api.PUT("/orders/:order_id", h.updateOrder)
	}
	api.GET("/geocode", h.geocode)
}

func (h *handler) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "Running",
		"message": "Route orders API is running.",
	})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
