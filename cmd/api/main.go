package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/glimpse-app/glimpse-api/internal/aws"
	"github.com/glimpse-app/glimpse-api/internal/handlers"
	"github.com/glimpse-app/glimpse-api/internal/idempotency"
	"github.com/glimpse-app/glimpse-api/internal/metrics"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

// newIdempotencyStore picks the cache backend from IDEMPOTENCY_BACKEND:
// "redis", "memory", or the default "dynamodb".
func newIdempotencyStore(clients *aws.AWSClients) idempotency.Store {
	switch os.Getenv("IDEMPOTENCY_BACKEND") {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     envOr("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		return idempotency.NewRedisStore(client)
	case "memory":
		return idempotency.NewMemoryStore()
	default:
		return idempotency.NewDynamoStore(clients.DynamoDB, os.Getenv("IDEMPOTENCY_TABLE"))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	clients, err := aws.NewAWSClients(context.Background())

	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	cfg := handlers.HandlerConfig{
		DynamoDBClient:   clients.DynamoDB,
		SQSClient:        clients.SQS,
		ChargesTable:     os.Getenv("CHARGES_TABLE"),
		BalancesTable:    os.Getenv("BALANCES_TABLE"),
		QueueURL:         os.Getenv("EVENTS_QUEUE_URL"),
		IdempotencyStore: newIdempotencyStore(clients),
		IdempotencyTTL:   24 * time.Hour,
		Metrics:          metrics.NewEmitter(clients.CloudWatch, "GlimpseAPI"),
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		// the adapter handles proxying; use adapter.ProxyWithContext for proper context propagation
		return adapter.ProxyWithContext(ctx, req)
	})
}
