package payments

import "time"

// Charge statuses
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusSettled    = "SETTLED"
	StatusFailed     = "FAILED"
)

// Charge represents the item stored in the charges DynamoDB table.
type Charge struct {
	ChargeID    string    `dynamodbav:"charge_id"`         // PK
	UserID      string    `dynamodbav:"user_id,omitempty"` // buyer reference
	PackageID   string    `dynamodbav:"package_id"`
	Credits     int       `dynamodbav:"credits"`
	AmountCents int       `dynamodbav:"amount_cents"`
	Status      string    `dynamodbav:"status"` // PENDING | PROCESSING | SETTLED | FAILED
	CreatedAt   time.Time `dynamodbav:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at"`
	Attempts    int       `dynamodbav:"attempts,omitempty"`
}
