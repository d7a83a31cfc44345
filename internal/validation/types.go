package validation

import "encoding/json"

// SignupRequest is the payload for POST /signup
type SignupRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name,omitempty"`
}

// LoginRequest is the payload for POST /login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ConfirmRequest is the payload for POST /confirm
type ConfirmRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// CreateOrderRequest is the payload for POST /api/orders.
// Locations are opaque; only their presence is checked. Any owner fields in
// the body are ignored.
type CreateOrderRequest struct {
	PickupLocation    json.RawMessage `json:"pickup_location" validate:"required"`
	DeliveryLocations json.RawMessage `json:"delivery_locations" validate:"required"`
	VehicleType       string          `json:"vehicle_type,omitempty" validate:"omitempty,max=64"`
	Priority          string          `json:"priority,omitempty" validate:"omitempty,max=64"`
	Notes             json.RawMessage `json:"notes,omitempty"`
	EstimatedDistance json.RawMessage `json:"estimated_distance,omitempty"`
	EstimatedTime     json.RawMessage `json:"estimated_time,omitempty"`
}

// UpdateOrderRequest is the payload for PUT /api/orders/{id}. Both fields
// are optional and independent.
type UpdateOrderRequest struct {
	Status         *string         `json:"status,omitempty" validate:"omitempty,max=64"`
	OptimizedRoute json.RawMessage `json:"optimized_route,omitempty"`
}

// GeocodeQuery is the query of GET /api/geocode
type GeocodeQuery struct {
	Address string `form:"address" json:"address" validate:"required,max=512"`
}
