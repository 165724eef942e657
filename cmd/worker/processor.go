package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/glimpse-app/glimpse-api/internal/aws"
	"github.com/glimpse-app/glimpse-api/internal/payments"
	"github.com/glimpse-app/glimpse-api/internal/wallet"
)

// Processor handles SQS settlement messages and performs charge lifecycle
// transitions. Duplicate deliveries are absorbed by conditional writes, so
// a charge is settled and credited at most once no matter how often the
// message is redelivered.
type Processor struct {
	chargeStore  *payments.Store
	balanceStore *wallet.Store
}

// NewProcessor creates a new worker processor with AWS clients injected.
func NewProcessor(clients *aws.AWSClients, chargesTable, balancesTable string) *Processor {
	return &Processor{
		chargeStore:  payments.NewStore(clients.DynamoDB, chargesTable),
		balanceStore: wallet.NewStore(clients.DynamoDB, balancesTable),
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg SettlementMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.ChargeID == "" {
		// not a settlement message (e.g. otp_request); nothing for this worker
		return nil
	}

	log.Printf("[worker] received charge=%s corr=%s", msg.ChargeID, msg.CorrelationID)

	charge, err := p.chargeStore.Get(ctx, msg.ChargeID)
	if err != nil {
		return fmt.Errorf("failed to fetch charge: %w", err)
	}
	if charge == nil {
		// Should never happen — DLQ if it does
		return fmt.Errorf("charge not found: %s", msg.ChargeID)
	}

	// PENDING -> PROCESSING; the conditional write makes this step idempotent
	// across duplicate deliveries and competing workers.
	err = p.chargeStore.UpdateStatus(ctx, msg.ChargeID, payments.StatusPending, payments.StatusProcessing)
	if errors.Is(err, payments.ErrStatusMismatch) {
		c2, gerr := p.chargeStore.Get(ctx, msg.ChargeID)
		if gerr != nil || c2 == nil {
			return fmt.Errorf("charge %s in unknown state after conditional failure", msg.ChargeID)
		}
		switch c2.Status {
		case payments.StatusSettled:
			log.Printf("[worker] already settled charge=%s", msg.ChargeID)
			return nil
		case payments.StatusFailed:
			return fmt.Errorf("charge=%s is already FAILED", msg.ChargeID)
		case payments.StatusProcessing:
			log.Printf("[worker] duplicate settlement event for charge=%s", msg.ChargeID)
			return nil
		default:
			return fmt.Errorf("unexpected status for charge=%s: %s", msg.ChargeID, c2.Status)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to update status to PROCESSING: %w", err)
	}

	if err := p.chargeStore.IncrementAttempts(ctx, msg.ChargeID); err != nil {
		log.Printf("[worker] increment attempts charge=%s: %v", msg.ChargeID, err)
	}

	// Credit the buyer's wallet with the purchased credits.
	userID := msg.UserID
	if userID == "" {
		userID = charge.UserID
	}
	if err := p.balanceStore.Credit(ctx, userID, charge.Credits); err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}

	// PROCESSING -> SETTLED
	if err := p.chargeStore.UpdateStatus(ctx, msg.ChargeID, payments.StatusProcessing, payments.StatusSettled); err != nil {
		return fmt.Errorf("failed to update status to SETTLED: %w", err)
	}

	log.Printf("[worker] settled charge=%s credits=%d user=%s", msg.ChargeID, charge.Credits, userID)
	return nil
}
