package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glimpse-app/glimpse-api/internal/apierr"
	"github.com/glimpse-app/glimpse-api/internal/aws"
	"github.com/glimpse-app/glimpse-api/internal/payments"
	"github.com/glimpse-app/glimpse-api/internal/validation"
)

// chargeHandler creates a PENDING charge and enqueues it for settlement.
func chargeHandler(store *payments.Store, publisher *aws.Publisher) gin.HandlerFunc {
	v := validation.New()
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.ChargeRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		pkg, _ := payments.LookupPackage(req.PackageID)

		userID := req.UserID
		if userID == "" {
			userID = Identity(c)
		}

		chargeID := uuid.NewString()
		now := time.Now().UTC()
		charge := payments.Charge{
			ChargeID:    chargeID,
			UserID:      userID,
			PackageID:   pkg.ID,
			Credits:     pkg.Credits,
			AmountCents: pkg.AmountCents,
			Status:      payments.StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Create(ctx, charge); err != nil {
			apierr.Write(c, http.StatusInternalServerError, apierr.CodeInternal, "failed to create charge")
			log.Printf("[payments] create charge %s: %v", chargeID, err)
			return
		}

		payload, _ := json.Marshal(map[string]string{
			"charge_id": chargeID,
			"user_id":   userID,
		})
		attrs := map[string]string{
			"charge_id":      chargeID,
			"correlation_id": c.GetHeader("X-Request-Id"),
		}
		if err := publisher.SendEvent(ctx, string(payload), attrs); err != nil {
			// settlement can never start; fail the charge so the client can
			// retry with the same key (5xx outcomes are not cached)
			if merr := store.UpdateStatus(ctx, chargeID, payments.StatusPending, payments.StatusFailed); merr != nil {
				log.Printf("[payments] mark charge %s failed: %v", chargeID, merr)
			}
			apierr.Write(c, http.StatusInternalServerError, apierr.CodeInternal, "failed to enqueue charge for settlement")
			log.Printf("[payments] enqueue charge %s: %v", chargeID, err)
			return
		}

		c.Header("Location", fmt.Sprintf("/payments/charges/%s", chargeID))
		c.JSON(http.StatusCreated, gin.H{
			"charge_id": chargeID,
			"status":    payments.StatusPending,
			"credits":   pkg.Credits,
		})
	}
}

// getChargeHandler returns the current state of a charge.
func getChargeHandler(store *payments.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		charge, err := store.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			apierr.Write(c, http.StatusInternalServerError, apierr.CodeInternal, "failed to fetch charge")
			return
		}
		if charge == nil {
			apierr.Write(c, http.StatusNotFound, "NotFound", "charge not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"charge_id": charge.ChargeID,
			"status":    charge.Status,
			"credits":   charge.Credits,
			"amount":    charge.AmountCents,
		})
	}
}
