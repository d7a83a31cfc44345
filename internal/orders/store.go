package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imrishuroy/route-orders-api/internal/aws"
	"github.com/imrishuroy/route-orders-api/internal/idempotency"
)

// ErrDuplicateRequest is returned by CreateWithIdempotency when the
// idempotency key already has a record.
var ErrDuplicateRequest = errors.New("idempotency key already used")

// Store encapsulates operations on the orders table.
type Store struct {
	client     aws.DynamoDBAPI
	tableName  string
	ownerIndex string
	nowFunc    func() time.Time
}

// NewStore creates a new orders Store. ownerIndex is the GSI keyed on owner_id.
func NewStore(client aws.DynamoDBAPI, tableName, ownerIndex string) *Store {
	return &Store{
		client:     client,
		tableName:  tableName,
		ownerIndex: ownerIndex,
		nowFunc:    time.Now,
	}
}

// Put writes the order item as is. Overwrites on id collision.
func (s *Store) Put(ctx context.Context, order Order) error {
	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// CreateWithIdempotency atomically writes the idempotency record (guarded by
// attribute_not_exists(idempotency_key)) and the order.
// Returns ErrDuplicateRequest if the key is already recorded.
func (s *Store) CreateWithIdempotency(ctx context.Context, idempotencyTable string, rec idempotency.Record, order Order) error {
	recMap, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal idempotency item: %w", err)
	}
	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}

	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName: &idempotencyTable,
					Item:      recMap,
					// expired records may linger until TTL deletion runs
					ConditionExpression: awsString("attribute_not_exists(idempotency_key) OR expires_at < :now"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(s.nowFunc().Unix(), 10)},
					},
				},
			},
			{
				Put: &types.Put{
					TableName: &s.tableName,
					Item:      orderMap,
				},
			},
		},
	}

	_, err = s.client.TransactWriteItems(ctx, input)
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("%w: %w", ErrDuplicateRequest, err)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	key := map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// ListByOwner returns every order of ownerID, reading all result pages.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]Order, error) {
	input := &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              &s.ownerIndex,
		KeyConditionExpression: awsString("owner_id = :owner_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner_id": &types.AttributeValueMemberS{Value: ownerID},
		},
	}

	out := []Order{}
	p := dyn.NewQueryPaginator(s.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query owner index: %w", err)
		}
		var batch []Order
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

// Update refreshes updated_at and sets the fields present in u. The only
// condition is that the item still exists; concurrent updates are
// last-writer-wins. A missing item returns ErrNotFound.
func (s *Store) Update(ctx context.Context, orderID string, u Update) (*Order, error) {
	now := s.nowFunc().UTC()
	updateExpr := "SET updated_at = :ua"
	values := map[string]types.AttributeValue{
		":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
	}
	var names map[string]string

	if u.Status != nil {
		updateExpr += ", #s = :status"
		values[":status"] = &types.AttributeValueMemberS{Value: *u.Status}
		names = map[string]string{"#s": "status"}
	}
	if u.OptimizedRoute != nil {
		av, err := u.OptimizedRoute.MarshalDynamoDBAttributeValue()
		if err != nil {
			return nil, fmt.Errorf("marshal optimized_route: %w", err)
		}
		updateExpr += ", optimized_route = :route"
		values[":route"] = av
	}

	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:          &updateExpr,
		ConditionExpression:       awsString("attribute_exists(order_id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

func awsString(s string) *string { return &s }
