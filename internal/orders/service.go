package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/imrishuroy/route-orders-api/internal/idempotency"
)

// Repository is the persistence the service needs; *Store implements it.
type Repository interface {
	Put(ctx context.Context, order Order) error
	Get(ctx context.Context, orderID string) (*Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Order, error)
	Update(ctx context.Context, orderID string, u Update) (*Order, error)
}

// Service applies ownership rules on top of the repository.
type Service struct {
	repo    Repository
	newID   func() string
	nowFunc func() time.Time

	tx      TxRepository
	records *idempotency.Store
	render  func(Order) ([]byte, error)
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:    repo,
		newID:   uuid.NewString,
		nowFunc: time.Now,
		render:  func(o Order) ([]byte, error) { return json.Marshal(o) },
	}
}

// Build assembles a new pending order for owner without persisting it.
func (s *Service) Build(owner Owner, in CreateInput) (Order, error) {
	if owner.ID == "" {
		return Order{}, ErrUnauthenticated
	}
	now := s.nowFunc().UTC()
	o := Order{
		OrderID:           s.newID(),
		OwnerID:           owner.ID,
		OwnerEmail:        owner.Email,
		PickupLocation:    in.PickupLocation,
		DeliveryLocations: in.DeliveryLocations,
		VehicleType:       in.VehicleType,
		Priority:          in.Priority,
		Status:            StatusPending,
		Notes:             in.Notes,
		EstimatedDistance: in.EstimatedDistance,
		EstimatedTime:     in.EstimatedTime,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if o.VehicleType == "" {
		o.VehicleType = DefaultVehicleType
	}
	if o.Priority == "" {
		o.Priority = DefaultPriority
	}
	return o, nil
}

// Create builds and stores a new order.
func (s *Service) Create(ctx context.Context, owner Owner, in CreateInput) (*Order, error) {
	o, err := s.Build(owner, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &o, nil
}

// List returns all orders of ownerID.
func (s *Service) List(ctx context.Context, ownerID string) ([]Order, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}

// Get returns the order if it exists and belongs to ownerID.
// Existence is checked first: a non-owner gets ErrForbidden, not ErrNotFound.
func (s *Service) Get(ctx context.Context, ownerID, orderID string) (*Order, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, ErrNotFound
	}
	if o.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return o, nil
}

// Update applies u to an order owned by ownerID and returns the new state.
func (s *Service) Update(ctx context.Context, ownerID, orderID string, u Update) (*Order, error) {
	if _, err := s.Get(ctx, ownerID, orderID); err != nil {
		return nil, err
	}
	o, err := s.repo.Update(ctx, orderID, u)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}
