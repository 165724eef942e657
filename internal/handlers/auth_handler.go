package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glimpse-app/glimpse-api/internal/apierr"
	"github.com/glimpse-app/glimpse-api/internal/aws"
	"github.com/glimpse-app/glimpse-api/internal/validation"
)

// otpHandler enqueues a verification-code delivery. Identity verification
// itself happens upstream; this endpoint only triggers the SMS send, which is
// why it sits behind the strict auth rate-limit policy.
func otpHandler(publisher *aws.Publisher) gin.HandlerFunc {
	v := validation.New()
	return func(c *gin.Context) {
		var req validation.OTPRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		payload, _ := json.Marshal(map[string]string{
			"type":         "otp_request",
			"phone_number": req.PhoneNumber,
		})
		if err := publisher.SendEvent(c.Request.Context(), string(payload), map[string]string{
			"correlation_id": c.GetHeader("X-Request-Id"),
		}); err != nil {
			apierr.Write(c, http.StatusInternalServerError, apierr.CodeInternal, "failed to enqueue verification")
			log.Printf("[auth] enqueue otp: %v", err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	}
}
