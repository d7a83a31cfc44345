package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/route-orders-api/internal/accounts"
	"github.com/imrishuroy/route-orders-api/internal/auth"
	"github.com/imrishuroy/route-orders-api/internal/aws"
	"github.com/imrishuroy/route-orders-api/internal/config"
	"github.com/imrishuroy/route-orders-api/internal/geocode"
	"github.com/imrishuroy/route-orders-api/internal/handlers"
	"github.com/imrishuroy/route-orders-api/internal/idempotency"
	"github.com/imrishuroy/route-orders-api/internal/logger"
	"github.com/imrishuroy/route-orders-api/internal/metrics"
	"github.com/imrishuroy/route-orders-api/internal/observability"
	"github.com/imrishuroy/route-orders-api/internal/orders"
	"github.com/imrishuroy/route-orders-api/internal/routing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func setupRouter(cfg *config.Config, deps handlers.HandlerConfig, tp trace.TracerProvider) *gin.Engine {
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}
	httpMetrics := metrics.NewHTTP()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName, otelgin.WithTracerProvider(tp)))
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(httpMetrics.Middleware())

	r.GET("/metrics", httpMetrics.Handler())
	handlers.RegisterRoutes(r, deps)
	return r
}

func buildDeps(ctx context.Context, cfg *config.Config, log *zap.Logger) (handlers.HandlerConfig, error) {
	clients, err := aws.NewAWSClients(ctx, cfg.CognitoRegion)
	if err != nil {
		return handlers.HandlerConfig{}, err
	}

	store := orders.NewStore(clients.DynamoDB, cfg.OrdersTable, cfg.OrdersOwnerIndex)
	svc := orders.NewService(store)
	if cfg.IdempotencyTable != "" {
		svc.WithIdempotency(store, idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL))
	}

	keys := geocode.StaticKey(cfg.GoogleAPIKey)
	if cfg.GoogleAPIKey == "" {
		keys = func(ctx context.Context) (string, error) {
			return aws.GetParameter(ctx, clients.SSM, cfg.GoogleAPIKeyParam)
		}
	}

	return handlers.HandlerConfig{
		Orders:   svc,
		Accounts: accounts.NewService(clients.Cognito, cfg.CognitoAppClientID, cfg.CognitoAppClientSecret),
		Verifier: auth.NewVerifier(auth.VerifierConfig{
			Issuer:   cfg.CognitoIssuer(),
			Audience: cfg.CognitoAppClientID,
			JWKSURL:  cfg.JWKSURL(),
		}),
		Publisher: aws.NewPublisher(clients.SQS, cfg.OrdersQueueURL),
		Metrics:   aws.NewMetricsPublisher(clients.CloudWatch, cfg.MetricsNamespace),
		Optimizer: routing.NewClient(cfg.ORSBaseURL, cfg.ORSAPIKey, nil),
		Geocoder:  geocode.NewClient(cfg.GeocodeBaseURL, keys, nil),
		Logger:    log,
	}, nil
}

func main() {
	cfg, err := config.Load()
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
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Local:        cfg.IsLocal(),
	}, log)
	if err != nil {
		log.Fatal("failed to init tracing", zap.Error(err))
	}

	deps, err := buildDeps(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}
	if cfg.ORSAPIKey == "" {
		log.Warn("ORS_API_KEY is not set; /optimize-route will answer 503")
	}

	r := setupRouter(cfg, deps, tp)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		runLocal(r, cfg.Port, log, shutdownTracing)
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp, err := adapter.ProxyWithContext(ctx, req)
		if f, ok := tp.(interface{ ForceFlush(context.Context) error }); ok {
			if ferr := f.ForceFlush(ctx); ferr != nil {
				log.Warn("flush spans", zap.Error(ferr))
			}
		}
		return resp, err
	})
}

func runLocal(r *gin.Engine, port string, log *zap.Logger, shutdownTracing observability.ShutdownFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("running local server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to run local server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown", zap.Error(err))
	}
}
