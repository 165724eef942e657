package wallet

import "time"

// Balance is the credit balance row for one user.
type Balance struct {
	UserID    string    `dynamodbav:"user_id"` // PK
	Credits   int       `dynamodbav:"credits"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}
