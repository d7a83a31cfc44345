package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Config holds process settings read from the environment.
type Config struct {
	Port        string
	RunLocal    bool
	Environment string
	LogLevel    string

	AWSRegion string

	CognitoRegion          string
	CognitoUserPoolID      string `validate:"required"`
	CognitoAppClientID     string `validate:"required"`
	CognitoAppClientSecret string
	CognitoJWKSURL         string `validate:"omitempty,url"`

	OrdersTable      string `validate:"required"`
	OrdersOwnerIndex string `validate:"required"`
	IdempotencyTable string
	IdempotencyTTL   time.Duration `validate:"gte=0"`
	OrdersQueueURL   string        `validate:"omitempty,url"`

	ORSAPIKey         string
	ORSBaseURL        string `validate:"required,url"`
	GoogleAPIKey      string
	GoogleAPIKeyParam string
	GeocodeBaseURL    string `validate:"required,url"`

	MetricsNamespace string
	ServiceName      string `validate:"required"`
	OTLPEndpoint     string
}

// Defaults.
const (
	DefaultPort             = "8080"
	DefaultRegion           = "us-east-1"
	DefaultOrdersTable      = "RouteOrders"
	DefaultOrdersOwnerIndex = "owner_id-index"
	DefaultIdempotencyTTL   = 48 * time.Hour
	DefaultORSBaseURL       = "https://api.openrouteservice.org"
	DefaultGeocodeBaseURL   = "https://maps.googleapis.com/maps/api/geocode/json"
	DefaultGoogleKeyParam   = "google_api_key"
	DefaultMetricsNamespace = "RouteOrders"
	DefaultServiceName      = "route-orders-api"
)

// cognitoFields are only required by processes that talk to the user pool.
var cognitoFields = []string{"CognitoUserPoolID", "CognitoAppClientID"}

// Load reads the environment and validates required settings.
func Load() (*Config, error) {
	return load(os.Getenv)
}

// LoadWorker is Load for background processes (queue worker, provisioning)
// that never verify tokens, so the user pool settings are optional.
func LoadWorker() (*Config, error) {
	return load(os.Getenv, cognitoFields...)
}

func load(getenv func(string) string, skip ...string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	region := get("AWS_REGION", DefaultRegion)
	cfg := &Config{
		Port:        get("PORT", DefaultPort),
		RunLocal:    get("RUN_LOCAL", "") == "true",
		Environment: get("ENVIRONMENT", "production"),
		LogLevel:    get("LOG_LEVEL", "info"),

		AWSRegion: region,

		CognitoRegion:          get("COGNITO_REGION", region),
		CognitoUserPoolID:      get("COGNITO_USER_POOL_ID", ""),
		CognitoAppClientID:     get("COGNITO_APP_CLIENT_ID", ""),
		CognitoAppClientSecret: get("COGNITO_APP_CLIENT_SECRET", ""),
		CognitoJWKSURL:         get("COGNITO_JWKS_URL", ""),

		OrdersTable:      get("ORDERS_TABLE", DefaultOrdersTable),
		OrdersOwnerIndex: get("ORDERS_OWNER_INDEX", DefaultOrdersOwnerIndex),
		IdempotencyTable: get("IDEMPOTENCY_TABLE", ""),
		IdempotencyTTL:   DefaultIdempotencyTTL,
		OrdersQueueURL:   get("ORDERS_QUEUE_URL", ""),

		ORSAPIKey:         get("ORS_API_KEY", ""),
		ORSBaseURL:        get("ORS_BASE_URL", DefaultORSBaseURL),
		GoogleAPIKey:      get("GOOGLE_API_KEY", ""),
		GoogleAPIKeyParam: get("GOOGLE_API_KEY_PARAM", DefaultGoogleKeyParam),
		GeocodeBaseURL:    get("GEOCODE_BASE_URL", DefaultGeocodeBaseURL),

		MetricsNamespace: get("METRICS_NAMESPACE", DefaultMetricsNamespace),
		ServiceName:      get("OTEL_SERVICE_NAME", DefaultServiceName),
		OTLPEndpoint:     get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if raw := get("IDEMPOTENCY_TTL", ""); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse IDEMPOTENCY_TTL: %w", err)
		}
		cfg.IdempotencyTTL = ttl
	}

	v := validatorv10.New()
	var err error
	if len(skip) > 0 {
		err = v.StructExcept(cfg, skip...)
	} else {
		err = v.Struct(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// CognitoIssuer is the token issuer of the configured user pool.
func (c *Config) CognitoIssuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.CognitoRegion, c.CognitoUserPoolID)
}

// JWKSURL is the published signing key set of the user pool.
func (c *Config) JWKSURL() string {
	if c.CognitoJWKSURL != "" {
		return c.CognitoJWKSURL
	}
	return c.CognitoIssuer() + "/.well-known/jwks.json"
}

// IsLocal reports a developer environment.
func (c *Config) IsLocal() bool {
	return c.RunLocal || c.Environment == "local"
}
