package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/route-orders-api/internal/accounts"
	"github.com/imrishuroy/route-orders-api/internal/auth"
	"github.com/imrishuroy/route-orders-api/internal/aws"
	"github.com/imrishuroy/route-orders-api/internal/dynamotest"
	"github.com/imrishuroy/route-orders-api/internal/geocode"
	"github.com/imrishuroy/route-orders-api/internal/idempotency"
	"github.com/imrishuroy/route-orders-api/internal/orders"
	"github.com/imrishuroy/route-orders-api/internal/routing"
	"github.com/stretchr/testify/require"
)

const (
	ordersTable = "orders"
	idempTable  = "idempotency"
	ownerIndex  = "owner_id-index"

	aliceToken = "alice-token"
	bobToken   = "bob-token"
)

type stubVerifier map[string]*auth.Identity

func (s stubVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return nil, auth.ErrInvalidToken
}

type fakeSQS struct {
	sent []*sqs.SendMessageInput
	err  error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{}, nil
}

type fakeCloudWatch struct {
	calls int
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, _ *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.calls++
	return &cloudwatch.PutMetricDataOutput{}, nil
}

type fakeCognito struct {
	signUpOut  *cip.SignUpOutput
	authOut    *cip.InitiateAuthOutput
	confirmOut *cip.ConfirmSignUpOutput
	err        error
}

func (f *fakeCognito) SignUp(context.Context, *cip.SignUpInput, ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	return f.signUpOut, f.err
}

func (f *fakeCognito) InitiateAuth(context.Context, *cip.InitiateAuthInput, ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	return f.authOut, f.err
}

func (f *fakeCognito) ConfirmSignUp(context.Context, *cip.ConfirmSignUpInput, ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error) {
	return f.confirmOut, f.err
}

type testEnv struct {
	router  *gin.Engine
	db      *dynamotest.Mock
	store   *orders.Store
	sqs     *fakeSQS
	cw      *fakeCloudWatch
	cognito *fakeCognito
}

type envOption func(*HandlerConfig)

func withOptimizer(baseURL string) envOption {
	return func(c *HandlerConfig) { c.Optimizer = routing.NewClient(baseURL, "ors-key", nil) }
}

func withGeocoder(baseURL string) envOption {
	return func(c *HandlerConfig) { c.Geocoder = geocode.NewClient(baseURL, geocode.StaticKey("gkey"), nil) }
}

func newEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dynamotest.New().
		AddTable(ordersTable, dynamotest.Table{HashKey: "order_id", Indexes: map[string]string{ownerIndex: "owner_id"}}).
		AddTable(idempTable, dynamotest.Table{HashKey: "idempotency_key"})
	store := orders.NewStore(db, ordersTable, ownerIndex)
	svc := orders.NewService(store).WithIdempotency(store, idempotency.NewStore(db, idempTable, time.Hour))

	env := &testEnv{
		db:      db,
		store:   store,
		sqs:     &fakeSQS{},
		cw:      &fakeCloudWatch{},
		cognito: &fakeCognito{},
	}
	cfg := HandlerConfig{
		Orders:   svc,
		Accounts: accounts.NewService(env.cognito, "client-1", ""),
		Verifier: stubVerifier{
			aliceToken: {Subject: "alice-sub", Email: "alice@example.com"},
			bobToken:   {Subject: "bob-sub", Email: "bob@example.com"},
		},
		Publisher: aws.NewPublisher(env.sqs, "https://sqs.us-east-1.amazonaws.com/123/orders"),
		Metrics:   aws.NewMetricsPublisher(env.cw, "RouteOrders"),
	}
	for _, o := range opts {
		o(&cfg)
	}

	env.router = gin.New()
	RegisterRoutes(env.router, cfg)
	return env
}

func (e *testEnv) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func strPtr(s string) *string { return &s }

var errBoom = errors.New("boom")
