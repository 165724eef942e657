package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glimpse-app/glimpse-api/internal/aws"
	"github.com/glimpse-app/glimpse-api/internal/idempotency"
	"github.com/glimpse-app/glimpse-api/internal/metrics"
	"github.com/glimpse-app/glimpse-api/internal/payments"
	"github.com/glimpse-app/glimpse-api/internal/ratelimit"
	"github.com/glimpse-app/glimpse-api/internal/wallet"
)

// HandlerConfig groups dependencies for the API routes.
type HandlerConfig struct {
	DynamoDBClient   aws.DynamoDBAPI
	SQSClient        aws.SQSAPI
	ChargesTable     string
	BalancesTable    string
	QueueURL         string
	IdempotencyStore idempotency.Store
	IdempotencyTTL   time.Duration
	Metrics          *metrics.Emitter
}

// Identity resolves the authenticated user for key derivation and rate-limit
// scoping. Authentication itself is handled upstream; the gateway forwards the
// verified subject in X-User-Id.
func Identity(c *gin.Context) string {
	if v := c.GetString("user_id"); v != "" {
		return v
	}
	return c.GetHeader("X-User-Id")
}

// RegisterRoutes wires the boundary middleware and route handlers.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	general := ratelimit.NewLimiter(ratelimit.GeneralPolicy)
	auth := ratelimit.NewLimiter(ratelimit.AuthPolicy)

	chargeStore := payments.NewStore(cfg.DynamoDBClient, cfg.ChargesTable)
	balanceStore := wallet.NewStore(cfg.DynamoDBClient, cfg.BalancesTable)
	publisher := aws.NewPublisher(cfg.SQSClient, cfg.QueueURL)

	// Payment initiation and balance transfers must not fall back to derived
	// keys; absence of a client key is a client error on these routes.
	requireKey := idempotency.Middleware(cfg.IdempotencyStore, idempotency.Options{
		TTL:      cfg.IdempotencyTTL,
		Policy:   idempotency.PolicyRequire,
		Identity: Identity,
		Metrics:  cfg.Metrics,
	})
	deriveKey := idempotency.Middleware(cfg.IdempotencyStore, idempotency.Options{
		TTL:      cfg.IdempotencyTTL,
		Policy:   idempotency.PolicyDerive,
		Identity: Identity,
		Metrics:  cfg.Metrics,
	})

	pay := r.Group("/payments", ratelimit.Middleware(general, nil, cfg.Metrics))
	pay.POST("/charge", requireKey, chargeHandler(chargeStore, publisher))
	pay.GET("/charges/:id", getChargeHandler(chargeStore))

	w := r.Group("/wallet", ratelimit.Middleware(general, nil, cfg.Metrics))
	w.POST("/transfer", requireKey, transferHandler(balanceStore))
	w.GET("/balance/:user_id", getBalanceHandler(balanceStore))

	a := r.Group("/auth", ratelimit.Middleware(auth, nil, cfg.Metrics))
	a.POST("/otp", deriveKey, otpHandler(publisher))
}
