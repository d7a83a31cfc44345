package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/route-orders-api/internal/auth"
	"github.com/imrishuroy/route-orders-api/internal/aws"
	"github.com/imrishuroy/route-orders-api/internal/idempotency"
	"github.com/imrishuroy/route-orders-api/internal/orders"
	"github.com/imrishuroy/route-orders-api/internal/validation"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader makes POST /api/orders safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

const jsonContentType = "application/json; charset=utf-8"

// renderCreated is the 201 body of a create; it is also what replays return.
func renderCreated(o orders.Order) ([]byte, error) {
	return json.Marshal(gin.H{
		"success":  true,
		"message":  "Order created successfully",
		"order_id": o.OrderID,
		"order":    o,
	})
}

func caller(c *gin.Context) orders.Owner {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		return orders.Owner{}
	}
	return orders.Owner{ID: id.Subject, Email: id.Email}
}

func (h *handler) createOrder(c *gin.Context) {
	ctx := c.Request.Context()

	var req validation.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	in, err := createInput(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or malformed JSON body", "msg": err.Error()})
		return
	}
	owner := caller(c)

	if key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)); key != "" {
		fp := idempotency.Fingerprint(validation.RawBody(c))
		res, err := h.cfg.Orders.CreateOnce(ctx, owner, in, key, fp)
		switch {
		case errors.Is(err, orders.ErrIdempotencyDisabled):
			// no idempotency table configured; plain create below
		case err != nil:
			h.writeError(c, err, "Failed to create order")
			return
		case res.Replayed:
			c.Header("Idempotent-Replayed", "true")
			c.Data(res.Status, jsonContentType, res.Body)
			return
		default:
			h.afterCreate(ctx, c, res.Order)
			c.Data(res.Status, jsonContentType, res.Body)
			return
		}
	}

	o, err := h.cfg.Orders.Create(ctx, owner, in)
	if err != nil {
		h.writeError(c, err, "Failed to create order")
		return
	}
	body, err := renderCreated(*o)
	if err != nil {
		h.writeError(c, err, "Failed to create order")
		return
	}
	h.afterCreate(ctx, c, o)
	c.Data(http.StatusCreated, jsonContentType, body)
}

// afterCreate sets Location and runs the best-effort side effects of a new
// order. Their failures are logged and never change the response.
func (h *handler) afterCreate(ctx context.Context, c *gin.Context, o *orders.Order) {
	c.Header("Location", fmt.Sprintf("/api/orders/%s", o.OrderID))

	if h.cfg.Publisher.Enabled() {
		attrs := map[string]string{
			"order_id":       o.OrderID,
			"correlation_id": c.GetString("request_id"),
		}
		ev := orders.CreatedEvent{OrderID: o.OrderID, OwnerID: o.OwnerID}
		if err := h.cfg.Publisher.PublishJSON(ctx, ev, attrs); err != nil {
			h.log.Warn("publish order created", zap.String("order_id", o.OrderID), zap.Error(err))
		}
	}
	if err := h.cfg.Metrics.Count(ctx, aws.MetricOrdersCreated, 1, nil); err != nil {
		h.log.Warn("count order created", zap.Error(err))
	}
}

func (h *handler) listOrders(c *gin.Context) {
	list, err := h.cfg.Orders.List(c.Request.Context(), caller(c).ID)
	if err != nil {
		h.writeError(c, err, "Failed to fetch orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  list,
		"count":   len(list),
	})
}

func (h *handler) getOrder(c *gin.Context) {
	o, err := h.cfg.Orders.Get(c.Request.Context(), caller(c).ID, c.Param("order_id"))
	if err != nil {
		h.writeError(c, err, "Failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   o,
	})
}

func (h *handler) updateOrder(c *gin.Context) {
	var req validation.UpdateOrderRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	u := orders.Update{Status: req.Status}
	if len(req.OptimizedRoute) > 0 {
		route, err := decodePayload(req.OptimizedRoute)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid field: optimized_route", "msg": err.Error()})
			return
		}
		u.OptimizedRoute = route
	}

	o, err := h.cfg.Orders.Update(c.Request.Context(), caller(c).ID, c.Param("order_id"), u)
	if err != nil {
		h.writeError(c, err, "Failed to update order")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order updated successfully",
		"order":   o,
	})
}

func createInput(req validation.CreateOrderRequest) (orders.CreateInput, error) {
	pickup, err := decodePayload(req.PickupLocation)
	if err != nil {
		return orders.CreateInput{}, fmt.Errorf("pickup_location: %w", err)
	}
	deliveries, err := decodePayload(req.DeliveryLocations)
	if err != nil {
		return orders.CreateInput{}, fmt.Errorf("delivery_locations: %w", err)
	}
	in := orders.CreateInput{
		PickupLocation:    *pickup,
		DeliveryLocations: *deliveries,
		VehicleType:       req.VehicleType,
		Priority:          req.Priority,
	}
	optional := []struct {
		raw json.RawMessage
		dst **orders.Payload
	}{
		{req.Notes, &in.Notes},
		{req.EstimatedDistance, &in.EstimatedDistance},
		{req.EstimatedTime, &in.EstimatedTime},
	}
	for _, f := range optional {
		if len(f.raw) == 0 {
			continue
		}
		p, err := decodePayload(f.raw)
		if err != nil {
			return orders.CreateInput{}, err
		}
		*f.dst = p
	}
	return in, nil
}

func decodePayload(raw json.RawMessage) (*orders.Payload, error) {
	var p orders.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
