package validation

// ChargeRequest is the payload for POST /payments/charge
type ChargeRequest struct {
	PackageID   string `json:"package_id" validate:"required"`         // credit package identifier
	AmountCents int    `json:"amount" validate:"required,gt=0"`        // amount the client claims, in cents
	UserID      string `json:"user_id,omitempty" validate:"omitempty"` // buyer; normally resolved from auth context
}

// TransferRequest is the payload for POST /wallet/transfer
type TransferRequest struct {
	FromUserID string `json:"from_user_id" validate:"required"`
	ToUserID   string `json:"to_user_id" validate:"required,nefield=FromUserID"`
	Credits    int    `json:"credits" validate:"required,min=1"`
}

// OTPRequest is the payload for POST /auth/otp
type OTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
}
