package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accessdomain "github.com/tsfshop/storefront/internal/access/domain"
	catalogdomain "github.com/tsfshop/storefront/internal/catalog/domain"
	checkoutdomain "github.com/tsfshop/storefront/internal/checkout/domain"
	fulfillmentdomain "github.com/tsfshop/storefront/internal/fulfillment/domain"
	"github.com/tsfshop/storefront/internal/kvstore"
	paymentdomain "github.com/tsfshop/storefront/internal/payment/domain"
	"github.com/tsfshop/storefront/internal/providers/pdf"
)

// errorPayload is the body of every failed /api response.
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInvalidJSON        = errors.New("invalid_json")
	ErrRateLimited        = errors.New("rate_limited")
	ErrPayloadTooLarge    = errors.New("payload_too_large")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, payload)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var providerErr *paymentdomain.ProviderError

	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{Error: "internal_error"}

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, checkoutdomain.ErrEmptyCart),
		errors.Is(err, fulfillmentdomain.ErrInvalidProductEmail):
		return http.StatusBadRequest, errorPayload{Error: "invalid_request", Message: "invalid request"}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{Error: "validation_error", Message: validationCode(err)}
	case errors.Is(err, fulfillmentdomain.ErrPaymentNotCompleted):
		return http.StatusBadRequest, errorPayload{Error: "payment_not_completed", Message: "payment not completed"}
	case errors.Is(err, fulfillmentdomain.ErrMissingBuyerEmail):
		return http.StatusBadRequest, errorPayload{Error: "missing_buyer_email", Message: "missing buyer email"}
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return http.StatusBadRequest, errorPayload{Error: "invalid_signature", Message: "invalid webhook signature"}

	case errors.Is(err, ErrUnauthorized), errors.Is(err, catalogdomain.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{Error: "unauthorized"}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{Error: "not_found", Message: notFoundMessage(err)}

	case errors.Is(err, catalogdomain.ErrConflict):
		return http.StatusConflict, errorPayload{Error: "conflict", Message: "product already exists"}
	case errors.Is(err, kvstore.ErrConflict):
		return http.StatusConflict, errorPayload{Error: "conflict", Message: "concurrent update, retry"}
	case errors.Is(err, fulfillmentdomain.ErrInProgress):
		return http.StatusConflict, errorPayload{Error: "fulfillment_in_progress", Message: "fulfillment in progress, retry shortly"}

	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{Error: "payload_too_large", Message: "request body too large"}

	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{Error: "rate_limited", Message: "too many requests"}

	case errors.As(err, &providerErr):
		return http.StatusBadGateway, errorPayload{Error: "payment_provider_error", Message: providerErr.Message}
	case errors.Is(err, paymentdomain.ErrProviderFailure):
		return http.StatusBadGateway, errorPayload{Error: "payment_provider_error"}

	case errors.Is(err, fulfillmentdomain.ErrEmailDelivery):
		return http.StatusBadGateway, errorPayload{Error: "email_delivery_failed", Message: "email could not be sent"}

	case errors.Is(err, paymentdomain.ErrWebhookDisabled):
		return http.StatusServiceUnavailable, errorPayload{Error: "webhook_disabled", Message: "webhook signing secret not configured"}
	case errors.Is(err, paymentdomain.ErrProviderNotConfigured),
		errors.Is(err, kvstore.ErrUnavailable),
		errors.Is(err, pdf.ErrDisabled),
		errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{Error: "dependency_unavailable"}

	default:
		return http.StatusInternalServerError, errorPayload{Error: "internal_error"}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidJSON),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidPrice),
		errors.Is(err, catalogdomain.ErrInvalidType),
		errors.Is(err, catalogdomain.ErrInvalidDeliveryType),
		errors.Is(err, catalogdomain.ErrInvalidFlag),
		errors.Is(err, checkoutdomain.ErrInvalidItemName),
		errors.Is(err, checkoutdomain.ErrInvalidPrice),
		errors.Is(err, checkoutdomain.ErrInvalidQuantity),
		errors.Is(err, fulfillmentdomain.ErrInvalidSessionID),
		errors.Is(err, accessdomain.ErrInvalidToken),
		errors.Is(err, paymentdomain.ErrInvalidPayload):
		return true
	default:
		return false
	}
}

// validationCode returns the sentinel text, e.g. invalid_name.
func validationCode(err error) string {
	for _, sentinel := range []error{
		ErrInvalidJSON,
		catalogdomain.ErrInvalidID,
		catalogdomain.ErrInvalidName,
		catalogdomain.ErrInvalidPrice,
		catalogdomain.ErrInvalidType,
		catalogdomain.ErrInvalidDeliveryType,
		catalogdomain.ErrInvalidFlag,
		checkoutdomain.ErrInvalidItemName,
		checkoutdomain.ErrInvalidPrice,
		checkoutdomain.ErrInvalidQuantity,
		fulfillmentdomain.ErrInvalidSessionID,
		accessdomain.ErrInvalidToken,
		paymentdomain.ErrInvalidPayload,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "invalid_request"
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, accessdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrSessionNotFound):
		return true
	default:
		return false
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, catalogdomain.ErrNotFound):
		return "product not found"
	case errors.Is(err, accessdomain.ErrNotFound):
		return "access not found"
	case errors.Is(err, paymentdomain.ErrSessionNotFound):
		return "checkout session not found"
	default:
		return ""
	}
}

// classifyErrorForLog feeds the request logger with the mapped error type and class.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return payload.Error, "server"
	case status == http.StatusTooManyRequests:
		return payload.Error, "throttled"
	default:
		return payload.Error, "client"
	}
}
