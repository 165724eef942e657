// Package apierr writes the machine-readable error envelope used by every
// boundary rejection: {"error":{"code":"...","message":"..."}}.
package apierr

import "github.com/gin-gonic/gin"

// Error codes returned by the request boundary.
const (
	CodeInvalidIdempotencyKey = "InvalidIdempotencyKey"
	CodeMissingIdempotencyKey = "MissingIdempotencyKey"
	CodeRateLimitExceeded     = "RateLimitExceeded"
	CodeRequestInProgress     = "RequestInProgress"
	CodeValidationFailed      = "ValidationFailed"
	CodeUnknownPackage        = "UnknownPackage"
	CodeInsufficientFunds     = "InsufficientFunds"
	CodeInternal              = "Internal"
)

// Envelope is the wire shape of an API error.
type Envelope struct {
	Error Detail `json:"error"`
}

// Detail carries the code and human-readable message.
type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Abort writes the envelope with the given status and stops the handler chain.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{Error: Detail{Code: code, Message: message}})
}

// Write writes the envelope without aborting; for use outside middleware.
func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, Envelope{Error: Detail{Code: code, Message: message}})
}
