package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ErrParameterEmpty is returned when a parameter exists but has no value.
var ErrParameterEmpty = errors.New("parameter has no value")

// GetParameter reads a single SSM parameter, decrypting SecureStrings.
func GetParameter(ctx context.Context, client SSMAPI, name string) (string, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: boolPtr(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil || *out.Parameter.Value == "" {
		return "", fmt.Errorf("get parameter %s: %w", name, ErrParameterEmpty)
	}
	return *out.Parameter.Value, nil
}

func boolPtr(b bool) *bool { return &b }
