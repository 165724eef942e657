package main

// SettlementMessage is the payload sent from API -> SQS -> Worker.
type SettlementMessage struct {
	ChargeID      string `json:"charge_id"`
	UserID        string `json:"user_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
