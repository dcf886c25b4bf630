package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	fulfillmentdomain "github.com/tsfshop/storefront/internal/fulfillment/domain"
)

const maxWebhookBody = 1 << 20

type checkoutSuccessRequest struct {
	SessionID      string `json:"session_id"`
	SessionIDCamel string `json:"sessionId"`
}

// CheckoutSuccess fulfills the session the success page was redirected with.
func (s *Server) CheckoutSuccess(c *gin.Context) {
	var req checkoutSuccessRequest
	if err := bindJSON(c, &req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, err)
		return
	}

	sessionID := firstNonEmpty(req.SessionID, req.SessionIDCamel, c.Query("session_id"))
	c.Set("session_id", sessionID)

	res, err := s.fulfillment.Reconcile(c.Request.Context(), sessionID, fulfillmentdomain.TriggerClient)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StripeWebhook needs the raw body; the signature covers the exact bytes.
func (s *Server) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			AbortWithError(c, ErrPayloadTooLarge)
			return
		}
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	out, err := s.fulfillment.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"received": true,
		"event_id": out.EventID,
		"type":     out.EventType,
		"action":   out.Action,
	})
}

// SendProductEmail re-sends a product's access email to a buyer.
func (s *Server) SendProductEmail(c *gin.Context) {
	var req fulfillmentdomain.ProductEmailRequest
	if err := bindRequiredJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.fulfillment.SendProductEmail(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
