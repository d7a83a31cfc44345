package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// Payload is caller supplied JSON that the service stores without
// interpreting it (locations, routes, notes).
//
// Numbers decoded from JSON stay json.Number. Integer literals are kept
// digit for digit; any other literal is rounded to the nearest float64 and
// kept as that float's shortest decimal form, which is also what DynamoDB
// receives as the N value.
type Payload struct {
	Value any
}

// NewPayload wraps v.
func NewPayload(v any) Payload { return Payload{Value: v} }

// PayloadPtr wraps v and returns a pointer, for optional fields.
func PayloadPtr(v any) *Payload {
	p := NewPayload(v)
	return &p
}

func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Value)
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	v, err := normalizeNumbers(v)
	if err != nil {
		return err
	}
	p.Value = v
	return nil
}

func normalizeNumbers(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		return normalizeNumber(x)
	case map[string]any:
		for k, e := range x {
			n, err := normalizeNumbers(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			x[k] = n
		}
	case []any:
		for i, e := range x {
			n, err := normalizeNumbers(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			x[i] = n
		}
	}
	return v, nil
}

// normalizeNumber keeps integer literals exact and rounds everything else
// through float64.
func normalizeNumber(n json.Number) (json.Number, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if _, err := decimal.NewFromString(s); err != nil {
			return "", fmt.Errorf("invalid number %q: %w", s, err)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("invalid number %q: %w", s, err)
	}
	return json.Number(decimal.NewFromFloat(f).String()), nil
}

func (p Payload) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return ToAttributeValue(p.Value)
}

func (p *Payload) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var v any
	if err := attributevalue.Unmarshal(av, &v); err != nil {
		return err
	}
	p.Value = v
	return nil
}

// ToAttributeValue converts a decoded JSON tree into a DynamoDB attribute,
// turning every numeric leaf into a decimal string.
func ToAttributeValue(v any) (types.AttributeValue, error) {
	switch x := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: x}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: x}, nil
	case json.Number:
		n, err := normalizeNumber(x)
		if err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", x, err)
		}
		return &types.AttributeValueMemberN{Value: d.String()}, nil
	case float64:
		return floatToN(x)
	case float32:
		return floatToN(float64(x))
	case int:
		return &types.AttributeValueMemberN{Value: strconv.Itoa(x)}, nil
	case int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(x, 10)}, nil
	case int32:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(x), 10)}, nil
	case uint64:
		return &types.AttributeValueMemberN{Value: strconv.FormatUint(x, 10)}, nil
	case decimal.Decimal:
		return &types.AttributeValueMemberN{Value: x.String()}, nil
	case map[string]any:
		m := make(map[string]types.AttributeValue, len(x))
		for k, e := range x {
			av, err := ToAttributeValue(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		l := make([]types.AttributeValue, 0, len(x))
		for i, e := range x {
			av, err := ToAttributeValue(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			l = append(l, av)
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		// structs, typed slices and maps
		return attributevalue.Marshal(v)
	}
}

func floatToN(f float64) (types.AttributeValue, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("number %v is not representable", f)
	}
	return &types.AttributeValueMemberN{Value: decimal.NewFromFloat(f).String()}, nil
}
