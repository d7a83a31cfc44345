package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/imrishuroy/route-orders-api/internal/aws"
	"github.com/imrishuroy/route-orders-api/internal/orders"
	"github.com/imrishuroy/route-orders-api/internal/routing"
)

// Optimizer is satisfied by *routing.Client.
type Optimizer interface {
	Optimize(ctx context.Context, payload json.RawMessage) (json.RawMessage, int, error)
}

// Processor attaches an optimized route to newly created orders.
type Processor struct {
	orders    *orders.Service
	optimizer Optimizer
	metrics   *aws.MetricsPublisher
	log       *zap.Logger
}

// NewProcessor creates a new worker processor with its dependencies injected.
func NewProcessor(svc *orders.Service, optimizer Optimizer, metrics *aws.MetricsPublisher, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		orders:    svc,
		optimizer: optimizer,
		metrics:   metrics,
		log:       log,
	}
}

// Handle processes an SQS batch and reports the failed messages so only those
// are redelivered.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) (err error) {
	ctx, span := otel.Tracer("route-orders-worker").Start(ctx, "optimize order route")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var msg orders.CreatedEvent
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.OrderID == "" || msg.OwnerID == "" {
		return fmt.Errorf("invalid message body: order_id and owner_id are required")
	}
	span.SetAttributes(attribute.String("order.id", msg.OrderID))
	log := p.log.With(zap.String("order_id", msg.OrderID))

	order, err := p.orders.Get(ctx, msg.OwnerID, msg.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", msg.OrderID, err)
	}
	if order.OptimizedRoute != nil {
		log.Info("order already has a route, skipping")
		return nil
	}

	problem, err := routing.BuildProblem(order.VehicleType, order.PickupLocation.Value, order.DeliveryLocations.Value)
	if err != nil {
		return fmt.Errorf("build optimization request: %w", err)
	}
	payload, err := json.Marshal(problem)
	if err != nil {
		return fmt.Errorf("marshal optimization request: %w", err)
	}

	solution, _, err := p.optimizer.Optimize(ctx, payload)
	if err != nil {
		return fmt.Errorf("optimize order %s: %w", msg.OrderID, err)
	}

	var route orders.Payload
	if err := json.Unmarshal(solution, &route); err != nil {
		return fmt.Errorf("decode optimization solution: %w", err)
	}
	if _, err := p.orders.Update(ctx, msg.OwnerID, msg.OrderID, orders.Update{OptimizedRoute: &route}); err != nil {
		return fmt.Errorf("store optimized route: %w", err)
	}

	if err := p.metrics.Count(ctx, aws.MetricRoutesOptimized, 1, nil); err != nil {
		log.Warn("count routes optimized", zap.Error(err))
	}
	log.Info("optimized route stored")
	return nil
}
