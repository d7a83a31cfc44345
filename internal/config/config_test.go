package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envFrom(map[string]string{
		"COGNITO_USER_POOL_ID":  "ap-south-1_abc",
		"COGNITO_APP_CLIENT_ID": "client-1",
	}))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultRegion, cfg.AWSRegion)
	assert.Equal(t, DefaultRegion, cfg.CognitoRegion)
	assert.Equal(t, DefaultOrdersTable, cfg.OrdersTable)
	assert.Equal(t, DefaultOrdersOwnerIndex, cfg.OrdersOwnerIndex)
	assert.Equal(t, DefaultIdempotencyTTL, cfg.IdempotencyTTL)
	assert.False(t, cfg.RunLocal)
}

func TestLoad_MissingCognito(t *testing.T) {
	_, err := load(envFrom(map[string]string{}))
	require.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(envFrom(map[string]string{
		"AWS_REGION":            "ap-south-1",
		"COGNITO_REGION":        "us-west-2",
		"COGNITO_USER_POOL_ID":  "us-west-2_pool",
		"COGNITO_APP_CLIENT_ID": "client-1",
		"IDEMPOTENCY_TTL":       "2h",
		"RUN_LOCAL":             "true",
		"ORDERS_TABLE":          "orders",
	}))
	require.NoError(t, err)

	assert.Equal(t, "ap-south-1", cfg.AWSRegion)
	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
	assert.True(t, cfg.IsLocal())
	assert.Equal(t, "orders", cfg.OrdersTable)
	assert.Equal(t, "https://cognito-idp.us-west-2.amazonaws.com/us-west-2_pool", cfg.CognitoIssuer())
	assert.Equal(t, "https://cognito-idp.us-west-2.amazonaws.com/us-west-2_pool/.well-known/jwks.json", cfg.JWKSURL())
}

func TestLoad_BadTTL(t *testing.T) {
	_, err := load(envFrom(map[string]string{
		"COGNITO_USER_POOL_ID":  "p",
		"COGNITO_APP_CLIENT_ID": "c",
		"IDEMPOTENCY_TTL":       "forever",
	}))
	require.Error(t, err)
}

func TestJWKSURL_Override(t *testing.T) {
	cfg := &Config{CognitoJWKSURL: "http://localhost:9229/jwks.json"}
	assert.Equal(t, "http://localhost:9229/jwks.json", cfg.JWKSURL())
}

func TestLoad_WorkerSkipsCognito(t *testing.T) {
	cfg, err := load(envFrom(map[string]string{
		"ORS_API_KEY":                 "ors",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4318",
	}), cognitoFields...)
	require.NoError(t, err)
	assert.Equal(t, "ors", cfg.ORSAPIKey)
	assert.Equal(t, "collector:4318", cfg.OTLPEndpoint)
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
}

func TestLoad_InvalidURL(t *testing.T) {
	_, err := load(envFrom(map[string]string{
		"COGNITO_USER_POOL_ID":  "p",
		"COGNITO_APP_CLIENT_ID": "c",
		"ORDERS_QUEUE_URL":      "not a url",
	}))
	require.Error(t, err)
}
