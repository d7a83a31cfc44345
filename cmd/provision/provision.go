package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/imrishuroy/route-orders-api/internal/aws"
)

// TableWaiter blocks until a table is ACTIVE; dynamodb.NewTableExistsWaiter fits.
type TableWaiter interface {
	Wait(ctx context.Context, params *dynamodb.DescribeTableInput, maxWaitDur time.Duration, optFns ...func(*dynamodb.TableExistsWaiterOptions)) error
}

// Provisioner creates the service tables when they are missing.
type Provisioner struct {
	client  aws.DynamoDBAdminAPI
	waiter  TableWaiter
	maxWait time.Duration
	log     *zap.Logger
}

func NewProvisioner(client aws.DynamoDBAdminAPI, waiter TableWaiter, log *zap.Logger) *Provisioner {
	return &Provisioner{client: client, waiter: waiter, maxWait: 5 * time.Minute, log: log}
}

// OrdersTable creates the orders table keyed by order_id with a GSI on owner_id.
func (p *Provisioner) OrdersTable(ctx context.Context, name, ownerIndex string) error {
	return p.ensure(ctx, &dynamodb.CreateTableInput{
		TableName:   &name,
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: strPtr("order_id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: strPtr("owner_id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: strPtr("order_id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName: &ownerIndex,
			KeySchema: []types.KeySchemaElement{
				{AttributeName: strPtr("owner_id"), KeyType: types.KeyTypeHash},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	})
}

// IdempotencyTable creates the idempotency table and enables TTL on expires_at.
func (p *Provisioner) IdempotencyTable(ctx context.Context, name string) error {
	err := p.ensure(ctx, &dynamodb.CreateTableInput{
		TableName:   &name,
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: strPtr("idempotency_key"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: strPtr("idempotency_key"), KeyType: types.KeyTypeHash},
		},
	})
	if err != nil {
		return err
	}

	_, err = p.client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: &name,
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: strPtr("expires_at"),
			Enabled:       boolPtr(true),
		},
	})
	if isAPIError(err, "ValidationException") {
		// TTL already enabled
		p.log.Info("ttl already configured", zap.String("table", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("enable ttl on %s: %w", name, err)
	}
	return nil
}

func (p *Provisioner) ensure(ctx context.Context, in *dynamodb.CreateTableInput) error {
	name := *in.TableName
	_, err := p.client.CreateTable(ctx, in)
	var inUse *types.ResourceInUseException
	switch {
	case errors.As(err, &inUse):
		p.log.Info("table already exists", zap.String("table", name))
	case err != nil:
		return fmt.Errorf("create table %s: %w", name, err)
	default:
		p.log.Info("table created", zap.String("table", name))
	}

	if err := p.waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: &name}, p.maxWait); err != nil {
		return fmt.Errorf("wait for table %s: %w", name, err)
	}
	return nil
}

func isAPIError(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
