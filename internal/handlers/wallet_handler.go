package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glimpse-app/glimpse-api/internal/apierr"
	"github.com/glimpse-app/glimpse-api/internal/validation"
	"github.com/glimpse-app/glimpse-api/internal/wallet"
)

// transferHandler moves credits between two balances atomically.
func transferHandler(store *wallet.Store) gin.HandlerFunc {
	v := validation.New()
	return func(c *gin.Context) {
		var req validation.TransferRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		err := store.Transfer(c.Request.Context(), req.FromUserID, req.ToUserID, req.Credits)
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			apierr.Write(c, http.StatusUnprocessableEntity, apierr.CodeInsufficientFunds,
				"sender balance cannot cover the transfer")
			return
		}
		if err != nil {
			apierr.Write(c, http.StatusInternalServerError, apierr.CodeInternal, "transfer failed")
			log.Printf("[wallet] transfer %s -> %s: %v", req.FromUserID, req.ToUserID, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"transfer_id": uuid.NewString(),
			"status":      "COMPLETED",
			"credits":     req.Credits,
		})
	}
}

// getBalanceHandler returns a user's credit balance.
func getBalanceHandler(store *wallet.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := store.Get(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			apierr.Write(c, http.StatusInternalServerError, apierr.CodeInternal, "failed to fetch balance")
			return
		}
		credits := 0
		if b != nil {
			credits = b.Credits
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.Param("user_id"),
			"credits": credits,
		})
	}
}
