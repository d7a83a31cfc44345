package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/route-orders-api/internal/aws"
	"github.com/imrishuroy/route-orders-api/internal/config"
	"github.com/imrishuroy/route-orders-api/internal/logger"
	"github.com/imrishuroy/route-orders-api/internal/observability"
	"github.com/imrishuroy/route-orders-api/internal/orders"
	"github.com/imrishuroy/route-orders-api/internal/routing"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.IsLocal())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	tp, shutdownTracing, err := observability.Init(ctx, observability.Options{
		ServiceName:  cfg.ServiceName + "-worker",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Local:        cfg.IsLocal(),
	}, log)
	if err != nil {
		log.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	clients, err := aws.NewAWSClients(ctx, cfg.CognitoRegion)
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}

	p := NewProcessor(
		orders.NewService(orders.NewStore(clients.DynamoDB, cfg.OrdersTable, cfg.OrdersOwnerIndex)),
		routing.NewClient(cfg.ORSBaseURL, cfg.ORSAPIKey, nil),
		aws.NewMetricsPublisher(clients.CloudWatch, cfg.MetricsNamespace),
		log,
	)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			log.Fatal("LOCAL_SQS_BODY must hold an order event, e.g. {\"order_id\":\"...\",\"owner_id\":\"...\"}")
		}
		resp, _ := p.Handle(ctx, events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if len(resp.BatchItemFailures) > 0 {
			log.Fatal("local message failed")
		}
		return
	}

	lambda.Start(func(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
		resp, err := p.Handle(ctx, ev)
		if f, ok := tp.(interface{ ForceFlush(context.Context) error }); ok {
			_ = f.ForceFlush(ctx)
		}
		return resp, err
	})
}
