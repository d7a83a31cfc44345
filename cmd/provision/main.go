package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/imrishuroy/route-orders-api/internal/aws"
	"github.com/imrishuroy/route-orders-api/internal/config"
	"github.com/imrishuroy/route-orders-api/internal/logger"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogLevel, true)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	awsCfg, err := aws.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatal("failed to load aws config", zap.Error(err))
	}
	client := dynamodb.NewFromConfig(awsCfg)
	p := NewProvisioner(client, dynamodb.NewTableExistsWaiter(client), log)

	if err := p.OrdersTable(ctx, cfg.OrdersTable, cfg.OrdersOwnerIndex); err != nil {
		log.Fatal("orders table", zap.Error(err))
	}
	if cfg.IdempotencyTable != "" {
		if err := p.IdempotencyTable(ctx, cfg.IdempotencyTable); err != nil {
			log.Fatal("idempotency table", zap.Error(err))
		}
	}
	log.Info("provisioning complete")
}
