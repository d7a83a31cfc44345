package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/imrishuroy/route-orders-api/internal/idempotency"
)

// ErrKeyReused means an idempotency key was replayed with a different body.
var ErrKeyReused = errors.New("idempotency key reused with a different request")

// ErrIdempotencyDisabled is returned when no idempotency table is configured.
var ErrIdempotencyDisabled = errors.New("idempotency is not configured")

// TxRepository writes an order together with its idempotency record.
type TxRepository interface {
	CreateWithIdempotency(ctx context.Context, idempotencyTable string, rec idempotency.Record, order Order) error
}

// CreateResult is the response of an idempotent create, fresh or replayed.
type CreateResult struct {
	Order    *Order // nil when replayed
	Replayed bool
	Status   int
	Body     []byte
}

// WithIdempotency enables CreateOnce.
func (s *Service) WithIdempotency(tx TxRepository, records *idempotency.Store) *Service {
	s.tx = tx
	s.records = records
	return s
}

// RenderCreatedWith sets how a created order is serialized into the response
// body that CreateOnce stores for replays.
func (s *Service) RenderCreatedWith(render func(Order) ([]byte, error)) *Service {
	s.render = render
	return s
}

// CreateOnce creates an order at most once per (owner, key). A repeated key
// with the same request body replays the stored response.
func (s *Service) CreateOnce(ctx context.Context, owner Owner, in CreateInput, key, fingerprint string) (*CreateResult, error) {
	if s.tx == nil || !s.records.Enabled() {
		return nil, ErrIdempotencyDisabled
	}
	if owner.ID == "" {
		return nil, ErrUnauthenticated
	}
	scoped := idempotency.Key(owner.ID, key)

	if res, err := s.replay(ctx, scoped, fingerprint); err != nil || res != nil {
		return res, err
	}

	o, err := s.Build(owner, in)
	if err != nil {
		return nil, err
	}
	body, err := s.render(o)
	if err != nil {
		return nil, fmt.Errorf("marshal order response: %w", err)
	}
	rec := s.records.NewDoneRecord(scoped, o.OrderID, fingerprint, http.StatusCreated, body)

	err = s.tx.CreateWithIdempotency(ctx, s.records.Table(), rec, o)
	if errors.Is(err, ErrDuplicateRequest) {
		// lost a race with a concurrent request carrying the same key
		res, rerr := s.replay(ctx, scoped, fingerprint)
		if rerr != nil {
			return nil, rerr
		}
		if res == nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return &CreateResult{Order: &o, Status: http.StatusCreated, Body: body}, nil
}

func (s *Service) replay(ctx context.Context, scoped, fingerprint string) (*CreateResult, error) {
	rec, err := s.records.Get(ctx, scoped)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	if rec.Fingerprint != "" && rec.Fingerprint != fingerprint {
		return nil, ErrKeyReused
	}
	status := rec.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	body := []byte(rec.ResponseBody)
	if len(body) == 0 {
		body, _ = json.Marshal(map[string]string{"order_id": rec.OrderID})
	}
	return &CreateResult{Replayed: true, Status: status, Body: body}, nil
}
