// Package dynamotest provides an in-memory stand-in for the DynamoDB calls
// used by the stores. It understands only the expressions this module issues.
package dynamotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Table describes the key layout of a mocked table.
type Table struct {
	HashKey string
	// Indexes maps GSI name -> hash key attribute.
	Indexes map[string]string
}

// Mock is a goroutine-safe in-memory DynamoDB.
type Mock struct {
	mu      sync.Mutex
	schemas map[string]Table
	tables  map[string]map[string]map[string]types.AttributeValue

	// PageSize limits Query pages; 0 returns everything at once.
	PageSize int
	// Err, when set, is returned by every call.
	Err error

	PutCalls      int
	GetCalls      int
	UpdateCalls   int
	QueryCalls    int
	TransactCalls int
}

func New() *Mock {
	return &Mock{
		schemas: map[string]Table{},
		tables:  map[string]map[string]map[string]types.AttributeValue{},
	}
}

// AddTable registers a table.
func (m *Mock) AddTable(name string, t Table) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[name] = t
	m.tables[name] = map[string]map[string]types.AttributeValue{}
	return m
}

// Item returns the stored item for a hash key value.
func (m *Mock) Item(table, key string) (map[string]types.AttributeValue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.tables[table][key]
	return it, ok
}

// Seed stores an item directly.
func (m *Mock) Seed(table string, item map[string]types.AttributeValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := m.pk(table, item)
	if err != nil {
		panic(err)
	}
	m.tables[table][pk] = item
}

// Len returns the number of items in table.
func (m *Mock) Len(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables[table])
}

func (m *Mock) pk(table string, item map[string]types.AttributeValue) (string, error) {
	schema, ok := m.schemas[table]
	if !ok {
		return "", fmt.Errorf("unknown table %q", table)
	}
	v, ok := item[schema.HashKey].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("missing hash key %q", schema.HashKey)
	}
	return v.Value, nil
}

func (m *Mock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	table := *params.TableName
	pk, err := m.pk(table, params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && !m.conditionHolds(table, pk, *params.ConditionExpression, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	m.tables[table][pk] = clone(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (m *Mock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	table := *params.TableName
	pk, err := m.pk(table, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[table][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: clone(item)}, nil
}

// UpdateItem supports "SET a = :x, #b = :y" expressions. Like DynamoDB it
// creates the item when the key is absent.
func (m *Mock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	table := *params.TableName
	pk, err := m.pk(table, params.Key)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && !m.conditionHolds(table, pk, *params.ConditionExpression, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	item, ok := m.tables[table][pk]
	if !ok {
		item = clone(params.Key)
	}
	if params.UpdateExpression == nil {
		return nil, errors.New("missing update expression")
	}
	expr := strings.TrimSpace(*params.UpdateExpression)
	if !strings.HasPrefix(expr, "SET ") {
		return nil, fmt.Errorf("unsupported update expression %q", expr)
	}
	for _, assign := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
		parts := strings.SplitN(assign, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("unsupported assignment %q", assign)
		}
		name := strings.TrimSpace(parts[0])
		if alias, ok := params.ExpressionAttributeNames[name]; ok {
			name = alias
		}
		val, ok := params.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
		if !ok {
			return nil, fmt.Errorf("missing value for %q", assign)
		}
		item[name] = val
	}
	m.tables[table][pk] = item

	out := &dyn.UpdateItemOutput{}
	if params.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = clone(item)
	}
	return out, nil
}

// Query supports "<attr> = :v" on the table hash key or a registered index.
func (m *Mock) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	table := *params.TableName
	schema, ok := m.schemas[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	attr := schema.HashKey
	if params.IndexName != nil {
		attr, ok = schema.Indexes[*params.IndexName]
		if !ok {
			return nil, fmt.Errorf("unknown index %q", *params.IndexName)
		}
	}
	parts := strings.SplitN(deref(params.KeyConditionExpression), "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) != attr {
		return nil, fmt.Errorf("unsupported key condition %q", deref(params.KeyConditionExpression))
	}
	want, ok := params.ExpressionAttributeValues[strings.TrimSpace(parts[1])].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing key condition value")
	}

	keys := make([]string, 0)
	for pk, item := range m.tables[table] {
		if v, ok := item[attr].(*types.AttributeValueMemberS); ok && v.Value == want.Value {
			keys = append(keys, pk)
		}
	}
	sort.Strings(keys)

	start := 0
	if params.ExclusiveStartKey != nil {
		last := params.ExclusiveStartKey[schema.HashKey].(*types.AttributeValueMemberS).Value
		start = sort.SearchStrings(keys, last) + 1
	}
	end := len(keys)
	if m.PageSize > 0 && start+m.PageSize < end {
		end = start + m.PageSize
	}

	out := &dyn.QueryOutput{}
	for _, pk := range keys[start:end] {
		out.Items = append(out.Items, clone(m.tables[table][pk]))
	}
	out.Count = int32(len(out.Items))
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			schema.HashKey: &types.AttributeValueMemberS{Value: keys[end-1]},
		}
	}
	return out, nil
}

func (m *Mock) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransactCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	type write struct {
		table, pk string
		item      map[string]types.AttributeValue
	}
	var writes []write
	for _, it := range params.TransactItems {
		p := it.Put
		if p == nil {
			return nil, errors.New("only Put is supported in transactions")
		}
		pk, err := m.pk(*p.TableName, p.Item)
		if err != nil {
			return nil, err
		}
		if p.ConditionExpression != nil && !m.conditionHolds(*p.TableName, pk, *p.ConditionExpression, p.ExpressionAttributeValues) {
			return nil, &types.TransactionCanceledException{Message: strPtr("ConditionalCheckFailed")}
		}
		writes = append(writes, write{table: *p.TableName, pk: pk, item: p.Item})
	}
	for _, w := range writes {
		m.tables[w.table][w.pk] = clone(w.item)
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

// conditionHolds understands attribute_not_exists(k), attribute_exists(k)
// and "attribute_not_exists(k) OR expires_at < :now".
func (m *Mock) conditionHolds(table, pk, expr string, values map[string]types.AttributeValue) bool {
	existing, exists := m.tables[table][pk]
	for _, clause := range strings.Split(expr, " OR ") {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "attribute_not_exists("):
			if !exists {
				return true
			}
		case strings.HasPrefix(clause, "attribute_exists("):
			if exists {
				return true
			}
		case strings.Contains(clause, "<"):
			parts := strings.SplitN(clause, "<", 2)
			attr := strings.TrimSpace(parts[0])
			cur, ok1 := existing[attr].(*types.AttributeValueMemberN)
			lim, ok2 := values[strings.TrimSpace(parts[1])].(*types.AttributeValueMemberN)
			if exists && ok1 && ok2 {
				a, _ := strconv.ParseFloat(cur.Value, 64)
				b, _ := strconv.ParseFloat(lim.Value, 64)
				if a < b {
					return true
				}
			}
		}
	}
	return false
}

func clone(in map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string { return &s }
