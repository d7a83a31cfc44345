package orders

import "time"

// Defaults applied at creation.
const (
	StatusPending      = "pending"
	DefaultVehicleType = "car"
	DefaultPriority    = "standard"
)

// Order represents the item stored in the orders DynamoDB table.
type Order struct {
	OrderID           string    `dynamodbav:"order_id" json:"order_id"` // PK
	OwnerID           string    `dynamodbav:"owner_id" json:"owner_id"` // GSI hash key
	OwnerEmail        string    `dynamodbav:"owner_email,omitempty" json:"owner_email,omitempty"`
	PickupLocation    Payload   `dynamodbav:"pickup_location" json:"pickup_location"`
	DeliveryLocations Payload   `dynamodbav:"delivery_locations" json:"delivery_locations"`
	VehicleType       string    `dynamodbav:"vehicle_type" json:"vehicle_type"`
	Priority          string    `dynamodbav:"priority" json:"priority"`
	Status            string    `dynamodbav:"status" json:"status"` // free-form, caller controlled
	OptimizedRoute    *Payload  `dynamodbav:"optimized_route,omitempty" json:"optimized_route,omitempty"`
	Notes             *Payload  `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
	EstimatedDistance *Payload  `dynamodbav:"estimated_distance,omitempty" json:"estimated_distance,omitempty"`
	EstimatedTime     *Payload  `dynamodbav:"estimated_time,omitempty" json:"estimated_time,omitempty"`
	CreatedAt         time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt         time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// Owner is the authenticated creator of an order.
type Owner struct {
	ID    string
	Email string
}

// CreateInput carries the caller supplied part of a new order.
type CreateInput struct {
	PickupLocation    Payload
	DeliveryLocations Payload
	VehicleType       string
	Priority          string
	Notes             *Payload
	EstimatedDistance *Payload
	EstimatedTime     *Payload
}

// Update lists the mutable fields; nil means leave unchanged.
type Update struct {
	Status         *string
	OptimizedRoute *Payload
}

// CreatedEvent is published to the orders queue after a create.
type CreatedEvent struct {
	OrderID string `json:"order_id"`
	OwnerID string `json:"owner_id"`
}
